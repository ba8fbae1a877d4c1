package core

import (
	"errors"
)

var (
	ErrEngineNotInitialized = errors.New("engine used before Initialize")
	ErrSystemShutdown       = errors.New("system already shut down")
)
