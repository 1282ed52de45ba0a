package model

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateField = errors.New("model: duplicate field name")
	ErrUnknownKind    = errors.New("model: unknown field kind")
	ErrMissingName    = errors.New("model: field name is required")
	ErrMissingID      = errors.New("model: schema id is required")
)

// ConfigurationError reports a schema that cannot be built or served. Path is
// the dotted location of the offending node when known.
type ConfigurationError struct {
	Schema string
	Path   string
	Err    error
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Path != "" && e.Schema != "":
		return fmt.Sprintf("schema %q: %s: %v", e.Schema, e.Path, e.Err)
	case e.Schema != "":
		return fmt.Sprintf("schema %q: %v", e.Schema, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfg *ConfigurationError
	return errors.As(err, &cfg)
}
