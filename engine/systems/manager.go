package systems

import (
	"github.com/KevinMFinch/Cos426-final/engine/assets"
	"github.com/KevinMFinch/Cos426-final/engine/core"
	"github.com/KevinMFinch/Cos426-final/engine/md5"
	"github.com/KevinMFinch/Cos426-final/engine/renderer"
)

type SystemManagerConfig struct {
	Workers       int
	JobQueueSize  int
	MaxTextures   uint32
	FlipV         bool
	Policy        md5.DegeneratePolicy
	TexturePrefix string
}

type SystemManager struct {
	JobSystem     *JobSystem
	TextureSystem *TextureSystem
	ModelSystem   *ModelSystem
}

func NewSystemManager(config SystemManagerConfig, am *assets.AssetManager, r *renderer.Renderer) (*SystemManager, error) {
	js, err := NewJobSystem(config.Workers, config.JobQueueSize)
	if err != nil {
		return nil, err
	}
	ts, err := NewTextureSystem(&TextureSystemConfig{
		MaxTextureCount: config.MaxTextures,
	}, am, r)
	if err != nil {
		js.Shutdown()
		return nil, err
	}
	ms, err := NewModelSystem(&ModelSystemConfig{
		FlipV:         config.FlipV,
		Policy:        config.Policy,
		TexturePrefix: config.TexturePrefix,
	}, am, js, ts, r)
	if err != nil {
		js.Shutdown()
		return nil, err
	}
	core.LogDebug("job system started with %d workers", js.Workers())

	return &SystemManager{
		JobSystem:     js,
		TextureSystem: ts,
		ModelSystem:   ms,
	}, nil
}

func (sm *SystemManager) Initialize() error {
	if err := sm.TextureSystem.Initialize(); err != nil {
		return err
	}
	return sm.ModelSystem.Initialize()
}

// Shutdown drains queued jobs first so no load finishes after its model
// system has released the geometry.
func (sm *SystemManager) Shutdown() error {
	if err := sm.JobSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.ModelSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.TextureSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
