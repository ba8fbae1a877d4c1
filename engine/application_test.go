package engine

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/KevinMFinch/Cos426-final/engine/core"
	"github.com/KevinMFinch/Cos426-final/engine/md5"
)

func TestDefaultApplicationConfig(t *testing.T) {
	c := DefaultApplicationConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("DefaultApplicationConfig().Validate()\nhave %v\nwant nil", err)
	}
	if c.degeneratePolicy() != md5.DegenerateClamp || c.logLevel() != core.LogLevelInfo {
		t.Fatalf("DefaultApplicationConfig\nhave %s, %s\nwant clamp, info", c.degeneratePolicy(), c.logLevel())
	}
}

func TestParseApplicationConfig(t *testing.T) {
	c, err := ParseApplicationConfig([]byte(`
name = "imp viewer"
assets_dir = "base"
texture_prefix = "models/"
log_level = "debug"
flip_v = true
degenerate_policy = "strict"
workers = 2
job_queue_size = 0
watch = true
models = ["models/imp.md5mesh", "models/zombie.md5mesh"]
debug_tangent_scale = 0.5
max_debug_lines = 1024
max_textures = 8
preview_dir = "out"
preview_size = 64
frame_time = "33ms"
`))
	if err != nil {
		t.Fatalf("ParseApplicationConfig\nhave %v\nwant nil", err)
	}
	want := &ApplicationConfig{
		Name:              "imp viewer",
		AssetsDir:         "base",
		TexturePrefix:     "models/",
		LogLevel:          "debug",
		FlipV:             true,
		DegeneratePolicy:  "strict",
		Workers:           2,
		JobQueueSize:      0,
		Watch:             true,
		Models:            []string{"models/imp.md5mesh", "models/zombie.md5mesh"},
		DebugTangentScale: 0.5,
		MaxDebugLines:     1024,
		MaxTextures:       8,
		PreviewDir:        "out",
		PreviewSize:       64,
		FrameTime:         "33ms",
	}
	if !reflect.DeepEqual(c, want) {
		t.Fatalf("ParseApplicationConfig\nhave %+v\nwant %+v", c, want)
	}
	if c.degeneratePolicy() != md5.DegenerateStrict {
		t.Fatalf("degeneratePolicy\nhave %s\nwant strict", c.degeneratePolicy())
	}
}

func TestParseApplicationConfigPartial(t *testing.T) {
	c, err := ParseApplicationConfig([]byte(`workers = 8`))
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultApplicationConfig()
	want.Workers = 8
	if !reflect.DeepEqual(c, want) {
		t.Fatalf("ParseApplicationConfig(workers only)\nhave %+v\nwant %+v", c, want)
	}
}

func TestParseApplicationConfigInvalid(t *testing.T) {
	for _, x := range [...]struct {
		name string
		toml string
	}{
		{"unknown key", `colour = "red"`},
		{"syntax", `workers = `},
		{"log level", `log_level = "loud"`},
		{"policy", `degenerate_policy = "fuzzy"`},
		{"workers", `workers = 0`},
		{"queue", `job_queue_size = -1`},
		{"assets dir", `assets_dir = ""`},
		{"debug lines", `max_debug_lines = 0`},
		{"tangent scale", `debug_tangent_scale = -1.0`},
		{"preview size", "preview_dir = \"out\"\npreview_size = 0"},
		{"frame time", `frame_time = "-1s"`},
	} {
		if _, err := ParseApplicationConfig([]byte(x.toml)); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("ParseApplicationConfig(%s)\nhave %v\nwant %v", x.name, err, ErrInvalidConfig)
		}
	}
}

func TestLoadApplicationConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.toml")
	if err := os.WriteFile(path, []byte("name = \"from file\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadApplicationConfig(path)
	if err != nil || c.Name != "from file" {
		t.Fatalf("LoadApplicationConfig\nhave %v, %v\nwant from file, nil", c, err)
	}
	if _, err := LoadApplicationConfig(path + ".missing"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("LoadApplicationConfig(missing)\nhave %v\nwant %v", err, os.ErrNotExist)
	}
}
