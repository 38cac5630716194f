package types

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy for the booking and payment flows. Handlers map any error
// to a response code with HTTPStatus.

type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

type ForbiddenError struct {
	Detail string
}

func (e *ForbiddenError) Error() string { return e.Detail }

// PreconditionError reports a transition attempted from the wrong state.
// Current carries the actual status at the time of the attempt.
type PreconditionError struct {
	Resource string
	ID       string
	Current  string
	Wanted   []string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s %s is %s, expected one of %v", e.Resource, e.ID, e.Current, e.Wanted)
}

// GatewayError wraps a failed call to the payment gateway. Timeout is set
// when the call exceeded its deadline rather than being rejected.
type GatewayError struct {
	Op      string
	Status  int
	Detail  string
	Timeout bool
}

func (e *GatewayError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("gateway %s timed out", e.Op)
	}
	return fmt.Sprintf("gateway %s failed (%d): %s", e.Op, e.Status, e.Detail)
}

func HTTPStatus(err error) int {
	var (
		ve *ValidationError
		nf *NotFoundError
		fe *ForbiddenError
		pe *PreconditionError
		ge *GatewayError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &fe):
		return http.StatusForbidden
	case errors.As(err, &pe):
		return http.StatusConflict
	case errors.As(err, &ge):
		if ge.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
