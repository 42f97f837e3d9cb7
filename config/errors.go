package config

import (
	"errors"
	"fmt"
)

// ErrMissingSetting is matched by every ConfigurationError.
var ErrMissingSetting = errors.New("missing required configuration")

// ConfigurationError reports a required secret or setting that is absent.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s is not set", e.Setting)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrMissingSetting
}

// Require returns a ConfigurationError when value is empty.
func Require(setting, value string) error {
	if value == "" {
		return &ConfigurationError{Setting: setting}
	}
	return nil
}
