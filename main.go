/*
md5 viewer: loads id Tech 4 .md5mesh models, skins them, derives their
tangent basis and uploads them to a headless renderer.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KevinMFinch/Cos426-final/engine"
	"github.com/KevinMFinch/Cos426-final/engine/core"
	"github.com/KevinMFinch/Cos426-final/testbed"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML config file")
		previewDir = flag.String("preview", "", "write a WebP basis preview of every model to this directory")
		watch      = flag.Bool("watch", false, "reload models and textures when their files change")
		frames     = flag.Int("frames", 0, "draw this many frames and exit (0 runs until interrupted)")
		models     []string
	)
	flag.Func("model", "model to load, relative to the assets directory (repeatable)", func(s string) error {
		models = append(models, s)
		return nil
	})
	flag.Parse()

	config := engine.DefaultApplicationConfig()
	if *configPath != "" {
		c, err := engine.LoadApplicationConfig(*configPath)
		if err != nil {
			core.LogFatal("config: %s", err)
		}
		config = c
	}
	config.Models = append(config.Models, models...)
	if *previewDir != "" {
		config.PreviewDir = *previewDir
	}
	if *watch {
		config.Watch = true
	}

	viewer := testbed.NewViewer(config)

	e, err := engine.New(viewer.Game)
	if err != nil {
		core.LogFatal(err.Error())
	}

	if err := e.Initialize(); err != nil {
		if e.Stage() != engine.EngineStageInitialized {
			_ = e.Shutdown()
			core.LogFatal(err.Error())
		}
		core.LogWarn("some models failed to load: %s", err)
	}

	if *frames > 0 {
		for i := 0; i < *frames; i++ {
			if err := e.Frame(0); err != nil {
				core.LogError(err.Error())
				break
			}
		}
		if err := e.Shutdown(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		// capture sigterm and other system call here
		<-sigCh
		cancel()
	}()

	// run engine
	runErr := e.Run(ctx)
	cancel()
	if err := e.Shutdown(); err != nil {
		core.LogError(err.Error())
	}
	if runErr != nil {
		os.Exit(1)
	}
}
