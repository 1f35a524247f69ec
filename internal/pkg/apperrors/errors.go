// Package apperrors holds the sentinels shared by adapters and services that
// are not part of the wallet-action taxonomy in package domain. Wrap them with
// fmt.Errorf("%w: ...") and test with errors.Is.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrExternalServiceFailure covers transport failures and bad answers from
	// the RPC node, the host bridge and notification endpoints.
	ErrExternalServiceFailure = errors.New("external service failure")

	ErrTimeout     = errors.New("operation timed out")
	ErrRateLimited = errors.New("rate limited")
	ErrInternal    = errors.New("internal error")
)

// FromContext maps a finished context to ErrTimeout on deadline, else returns ctx.Err().
func FromContext(ctx context.Context, what string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, what, ctx.Err())
	}
	return ctx.Err()
}
