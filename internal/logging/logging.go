// Package logging centralizes *zap.Logger construction so every
// subsystem constructor gets the same field conventions (component
// name, connection/request ids) instead of rolling its own.
package logging

import "go.uber.org/zap"

// New builds a production zap.Logger named for component. Callers
// that can't tolerate New's own setup failure (extremely unlikely -
// only disk/permission errors) fall back to zap.NewNop.
func New(component string) *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return l.Named(component)
}

// Nop returns a no-op logger, used as the default in constructors that
// accept a *zap.Logger but are called without one (e.g. in tests).
func Nop() *zap.Logger {
	return zap.NewNop()
}
