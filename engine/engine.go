package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/KevinMFinch/Cos426-final/engine/assets"
	"github.com/KevinMFinch/Cos426-final/engine/core"
	"github.com/KevinMFinch/Cos426-final/engine/renderer"
	"github.com/KevinMFinch/Cos426-final/engine/renderer/views"
	"github.com/KevinMFinch/Cos426-final/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine has released every system
	EngineStageShutdown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	case EngineStageShutdown:
		return "shut down"
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

type Engine struct {
	mutex         sync.Mutex
	currentStage  Stage
	gameInstance  *Game
	config        *ApplicationConfig
	assetManager  *assets.AssetManager
	renderer      *renderer.Renderer
	systemManager *systems.SystemManager
	clock         *core.Clock
	lastTime      time.Duration
	frameTime     time.Duration
}

func New(g *Game) (*Engine, error) {
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = DefaultApplicationConfig()
	}
	config := g.ApplicationConfig
	if err := config.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	core.SetLogLevel(config.logLevel())
	frameTime, _ := config.frameTime()

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	r := renderer.New(renderer.NewHeadlessBackend(), config.MaxDebugLines)

	sm, err := systems.NewSystemManager(systems.SystemManagerConfig{
		Workers:       config.Workers,
		JobQueueSize:  config.JobQueueSize,
		MaxTextures:   config.MaxTextures,
		FlipV:         config.FlipV,
		Policy:        config.degeneratePolicy(),
		TexturePrefix: config.TexturePrefix,
	}, am, r)
	if err != nil {
		core.LogError(err.Error())
		am.Shutdown()
		return nil, err
	}
	g.SystemManager = sm

	return &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		config:        config,
		assetManager:  am,
		renderer:      r,
		systemManager: sm,
		clock:         core.NewClock(),
		frameTime:     frameTime,
	}, nil
}

/**
 * @brief Brings up the renderer, indexes the assets, starts the systems and
 * loads the configured models. A model that fails to load is logged and
 * reported in the returned error, but does not stop the others.
 */
func (e *Engine) Initialize() error {
	if e.Stage() != EngineStageUninitialized {
		return fmt.Errorf("engine: Initialize called in stage %s", e.Stage())
	}
	e.setStage(EngineStageInitializing)

	if err := e.renderer.Initialize(e.config.Name); err != nil {
		return err
	}
	if err := e.assetManager.Initialize(e.config.AssetsDir, e.config.Watch); err != nil {
		return err
	}
	if err := e.systemManager.Initialize(); err != nil {
		return err
	}

	var errs []error
	for _, name := range e.config.Models {
		if _, err := e.LoadModel(name); err != nil {
			core.LogError(err.Error())
			errs = append(errs, err)
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
	}

	e.setStage(EngineStageInitialized)
	return errors.Join(errs...)
}

/**
 * @brief Loads a model through the model system and, when a preview
 * directory is configured, writes its basis preview.
 */
func (e *Engine) LoadModel(name string) (*systems.LoadedModel, error) {
	lm, err := e.systemManager.ModelSystem.Load(name)
	if err != nil {
		return nil, err
	}
	if e.config.PreviewDir != "" {
		path := e.PreviewPath(lm.Model.Name)
		if err := views.WriteBasisPreview(path, lm.Model, e.config.PreviewSize); err != nil {
			core.LogWarn("preview for %s not written: %s", lm.Model.Name, err)
		} else {
			core.LogInfo("wrote preview %s", path)
		}
	}
	return lm, nil
}

// PreviewPath returns where the basis preview of a model is written.
func (e *Engine) PreviewPath(model string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(model)
	return filepath.Join(e.config.PreviewDir, name+".webp")
}

/**
 * @brief Runs frames at the configured frame time until ctx is done or a
 * hook fails.
 */
func (e *Engine) Run(ctx context.Context) error {
	if e.Stage() != EngineStageInitialized {
		return core.ErrEngineNotInitialized
	}
	e.setStage(EngineStageRunning)

	e.clock.Start()
	e.lastTime = 0

	ticker := time.NewTicker(e.frameTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			core.LogInfo("run loop stopped after %d frames", e.renderer.FrameNumber())
			e.stopRunning()
			return nil
		case <-ticker.C:
			e.clock.Update()
			currentTime := e.clock.Elapsed()
			delta := (currentTime - e.lastTime).Seconds()
			e.lastTime = currentTime

			if err := e.Frame(delta); err != nil {
				core.LogError("frame failed, stopping: %s", err)
				e.stopRunning()
				return err
			}
		}
	}
}

// Frame runs the game hooks and draws a single frame.
func (e *Engine) Frame(deltaTime float64) error {
	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(deltaTime); err != nil {
			return fmt.Errorf("game update: %w", err)
		}
	}
	if e.gameInstance.FnRender != nil {
		if err := e.gameInstance.FnRender(e, deltaTime); err != nil {
			return fmt.Errorf("game render: %w", err)
		}
	}
	return e.renderer.DrawFrame(deltaTime)
}

/**
 * @brief Stops the asset watcher first so no reload races the teardown,
 * then the systems and the renderer. Safe to call more than once.
 */
func (e *Engine) Shutdown() error {
	e.mutex.Lock()
	if e.currentStage == EngineStageShuttingDown || e.currentStage == EngineStageShutdown {
		e.mutex.Unlock()
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.mutex.Unlock()

	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	errs = append(errs,
		e.assetManager.Shutdown(),
		e.systemManager.Shutdown(),
		e.renderer.Shutdown(),
	)
	e.setStage(EngineStageShutdown)
	return errors.Join(errs...)
}

func (e *Engine) Stage() Stage {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.currentStage
}

func (e *Engine) setStage(s Stage) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.currentStage = s
}

// stopRunning leaves the running stage unless a shutdown already started.
func (e *Engine) stopRunning() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.currentStage == EngineStageRunning {
		e.currentStage = EngineStageInitialized
	}
}

func (e *Engine) Config() *ApplicationConfig {
	return e.config
}

func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}

func (e *Engine) Systems() *systems.SystemManager {
	return e.systemManager
}

func (e *Engine) Assets() *assets.AssetManager {
	return e.assetManager
}
