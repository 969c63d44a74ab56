package access

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyMissing indicates the configuration source has no allowlist key.
	ErrKeyMissing = errors.New("access: allowlist key missing")
	// ErrMalformedEntry indicates an allowlist entry is not a valid address or range.
	ErrMalformedEntry = errors.New("access: malformed allowlist entry")
)

// ConfigError is returned when an allowlist cannot be loaded. Callers must
// treat it as fatal rather than fall back to an empty allowlist.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("access: load allowlist: %v", e.Err)
	}
	return fmt.Sprintf("access: load allowlist from %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
