package engine

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

var logger atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	logger.Store(&nop)
}

// SetLogger replaces the logger used by the engine, constraints and
// integrity packages. Nothing is logged until it is called.
func SetLogger(l zerolog.Logger) {
	logger.Store(&l)
}

// Logger returns the shared logger
func Logger() *zerolog.Logger {
	return logger.Load()
}
