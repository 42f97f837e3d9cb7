package payment

import (
	"errors"
	"fmt"
)

// ErrPaymentNotConfirmed is matched by every NotConfirmedError.
var ErrPaymentNotConfirmed = errors.New("payment not confirmed")

var (
	errRejected    = errors.New("request rejected by gateway")
	errMissingData = errors.New("response has no data")
)

// NotConfirmedError reports a charge that did not reach success.
type NotConfirmedError struct {
	Reference string
	Status    string
	Attempts  int
	Reason    string
}

func (e *NotConfirmedError) Error() string {
	msg := fmt.Sprintf("payment %s not confirmed (status %q", e.Reference, e.Status)
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" after %d checks", e.Attempts)
	}
	msg += ")"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *NotConfirmedError) Is(target error) bool {
	return target == ErrPaymentNotConfirmed
}
