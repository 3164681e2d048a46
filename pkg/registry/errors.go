package registry

import (
	"errors"
	"fmt"
)

// ConfigError reports an authoring mistake in the registry document. It is
// fatal: the orchestrator aborts before any row is processed, and it is never
// retried automatically.
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string {
	return "registry config error: " + e.Detail
}

func newConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Detail: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is (or wraps) a ConfigError
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
