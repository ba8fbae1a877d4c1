package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/KevinMFinch/Cos426-final/engine/core"
	"github.com/KevinMFinch/Cos426-final/engine/md5"
)

var ErrInvalidConfig = errors.New("invalid application config")

/**
 * @brief Application settings, read from a TOML file. Every key is optional;
 * missing keys keep the value from DefaultApplicationConfig.
 */
type ApplicationConfig struct {
	// The application name reported to the renderer backend.
	Name string `toml:"name"`
	// Directory indexed by the asset manager.
	AssetsDir string `toml:"assets_dir"`
	// Prepended to material names before texture lookup.
	TexturePrefix string `toml:"texture_prefix"`
	LogLevel      string `toml:"log_level"`
	// Flip V (v = 1 - v) while parsing md5mesh files.
	FlipV            bool   `toml:"flip_v"`
	DegeneratePolicy string `toml:"degenerate_policy"`
	// Job system workers and queue length.
	Workers      int `toml:"workers"`
	JobQueueSize int `toml:"job_queue_size"`
	// Reload models and textures when their files change.
	Watch bool `toml:"watch"`
	// Models loaded at startup, relative to AssetsDir.
	Models []string `toml:"models"`
	// Length of the debug tangent basis lines. 0 disables them.
	DebugTangentScale float32 `toml:"debug_tangent_scale"`
	MaxDebugLines     int     `toml:"max_debug_lines"`
	MaxTextures       uint32  `toml:"max_textures"`
	// When set, a basis preview of every loaded model is written here as WebP.
	PreviewDir  string `toml:"preview_dir"`
	PreviewSize int    `toml:"preview_size"`
	// Target frame time of the run loop, e.g. "16ms".
	FrameTime string `toml:"frame_time"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:              "md5 viewer",
		AssetsDir:         "assets",
		LogLevel:          "info",
		DegeneratePolicy:  md5.DegenerateClamp.String(),
		Workers:           4,
		JobQueueSize:      64,
		DebugTangentScale: 0,
		MaxDebugLines:     65536,
		MaxTextures:       1024,
		PreviewSize:       256,
		FrameTime:         "16ms",
	}
}

// LoadApplicationConfig reads path over the defaults. Unknown keys are an error.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseApplicationConfig(data)
}

func ParseApplicationConfig(data []byte) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(config); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%w: line %d column %d: %s", ErrInvalidConfig, row, col, decodeErr.Error())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the value ranges and enumerations of the config.
func (c *ApplicationConfig) Validate() error {
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %s", ErrInvalidConfig, err)
	}
	if _, err := md5.ParseDegeneratePolicy(c.DegeneratePolicy); err != nil {
		return fmt.Errorf("%w: degenerate_policy: %s", ErrInvalidConfig, err)
	}
	if c.AssetsDir == "" {
		return fmt.Errorf("%w: assets_dir is empty", ErrInvalidConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be > 0, have %d", ErrInvalidConfig, c.Workers)
	}
	if c.JobQueueSize < 0 {
		return fmt.Errorf("%w: job_queue_size must be >= 0, have %d", ErrInvalidConfig, c.JobQueueSize)
	}
	if c.MaxDebugLines < 1 {
		return fmt.Errorf("%w: max_debug_lines must be > 0, have %d", ErrInvalidConfig, c.MaxDebugLines)
	}
	if c.MaxTextures < 1 {
		return fmt.Errorf("%w: max_textures must be > 0", ErrInvalidConfig)
	}
	if c.DebugTangentScale < 0 {
		return fmt.Errorf("%w: debug_tangent_scale must be >= 0, have %v", ErrInvalidConfig, c.DebugTangentScale)
	}
	if c.PreviewDir != "" && c.PreviewSize < 1 {
		return fmt.Errorf("%w: preview_size must be > 0, have %d", ErrInvalidConfig, c.PreviewSize)
	}
	if _, err := c.frameTime(); err != nil {
		return err
	}
	return nil
}

func (c *ApplicationConfig) logLevel() core.LogLevel {
	level, _ := core.ParseLogLevel(c.LogLevel)
	return level
}

func (c *ApplicationConfig) degeneratePolicy() md5.DegeneratePolicy {
	policy, _ := md5.ParseDegeneratePolicy(c.DegeneratePolicy)
	return policy
}

func (c *ApplicationConfig) frameTime() (time.Duration, error) {
	d, err := time.ParseDuration(c.FrameTime)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: frame_time %q is not a positive duration", ErrInvalidConfig, c.FrameTime)
	}
	return d, nil
}
