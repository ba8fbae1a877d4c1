package engine

import (
	"github.com/KevinMFinch/Cos426-final/engine/systems"
)

/**
 * @brief Application hooks driven by the engine. SystemManager is set by
 * the engine before FnInitialize is called. Nil hooks are skipped.
 */
type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnShutdown        Shutdown
}

type Initialize func(e *Engine) error
type Update func(deltaTime float64) error
type Render func(e *Engine, deltaTime float64) error
type Shutdown func() error
