package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input the caller must fix.
	ErrValidation = errors.New("validation failed")
	// ErrCreateOrder is the generic failure of Order Placement.
	ErrCreateOrder = errors.New("failed to create order")
	// ErrLogProduction is the generic failure of a production run.
	ErrLogProduction = errors.New("failed to log production run")
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
