package testbed

import (
	"github.com/KevinMFinch/Cos426-final/engine"
	"github.com/KevinMFinch/Cos426-final/engine/core"
)

/**
 * @brief A headless md5 viewer: it keeps the configured models loaded and
 * redraws their tangent basis as debug lines every frame.
 */
type Viewer struct {
	*engine.Game
}

type viewerState struct {
	frames    uint64
	lastLines int
}

func NewViewer(config *engine.ApplicationConfig) *Viewer {
	v := &Viewer{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             &viewerState{},
		},
	}

	v.FnInitialize = v.Initialize
	v.FnUpdate = v.Update
	v.FnRender = v.Render
	v.FnShutdown = v.Shutdown

	return v
}

func (v *Viewer) state() *viewerState {
	return v.State.(*viewerState)
}

func (v *Viewer) Initialize(e *engine.Engine) error {
	names := e.Systems().ModelSystem.Names()
	core.LogInfo("viewer started with %d models: %v", len(names), names)
	return nil
}

func (v *Viewer) Update(deltaTime float64) error {
	v.state().frames++
	return nil
}

func (v *Viewer) Render(e *engine.Engine, deltaTime float64) error {
	scale := v.ApplicationConfig.DebugTangentScale
	if scale <= 0 {
		return nil
	}
	debug := e.Renderer().Debug()
	debug.Clear()

	lines := 0
	models := e.Systems().ModelSystem
	for _, name := range models.Names() {
		if lm := models.Get(name); lm != nil {
			lines += debug.AddTangentBasis(lm.Model, scale)
		}
	}
	if lines != v.state().lastLines {
		core.LogDebug("drawing %d tangent basis lines", lines)
		v.state().lastLines = lines
	}
	return nil
}

// Frames returns the number of frames the viewer has updated.
func (v *Viewer) Frames() uint64 {
	return v.state().frames
}

func (v *Viewer) Shutdown() error {
	core.LogInfo("viewer stopped after %d frames", v.state().frames)
	return nil
}
