package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrWalletCapability means the connected wallet lacks the capability an action needs.
	ErrWalletCapability = errors.New("wallet capability unavailable")

	// ErrWalletNotConnected means no wallet account is connected.
	ErrWalletNotConnected = errors.New("please connect your Solana wallet")

	// ErrNetwork means the chain RPC could not serve a request.
	ErrNetwork = errors.New("chain rpc failure")

	// ErrHostRejection means the host declined a host-level action.
	ErrHostRejection = errors.New("host rejected the action")

	// ErrRejectedByUser means the user declined the host prompt.
	ErrRejectedByUser = fmt.Errorf("%w: rejected by user", ErrHostRejection)

	// ErrInvalidDomainManifest means the host found the app manifest invalid.
	ErrInvalidDomainManifest = fmt.Errorf("%w: invalid domain manifest", ErrHostRejection)

	// ErrHostUnavailable means the connection to the host is gone.
	ErrHostUnavailable = errors.New("host bridge unavailable")

	// ErrBackend means the notification backend answered with a non-success status.
	ErrBackend = errors.New("notification backend error")

	// ErrNoTokenSelected means the send-token flow was invoked without a known symbol.
	ErrNoTokenSelected = errors.New("please select a token")

	// ErrNoDestination means the send-token flow was invoked with an empty destination.
	ErrNoDestination = errors.New("please enter a destination address")

	// ErrUnknownToken means the symbol is absent from the token reference table.
	ErrUnknownToken = errors.New("unknown token symbol")

	// ErrSessionNotReady means the host bridge has not finished loading.
	ErrSessionNotReady = errors.New("host session is not loaded")

	// ErrSessionStarted means Start was called on a session that already started.
	ErrSessionStarted = errors.New("host session already started")
)

// RejectionError carries the host's own message for a rejected host action.
// Kind is ErrRejectedByUser or ErrInvalidDomainManifest.
type RejectionError struct {
	Kind    error
	Message string
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *RejectionError) Unwrap() error {
	return e.Kind
}

// NetworkError classifies a chain RPC failure as ErrNetwork while keeping the
// underlying error's message as its own.
type NetworkError struct {
	Err error
}

// NewNetworkError wraps err unless it already is a network error.
func NewNetworkError(err error) error {
	if err == nil || errors.Is(err, ErrNetwork) {
		return err
	}
	return &NetworkError{Err: err}
}

func (e *NetworkError) Error() string {
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() []error {
	return []error{ErrNetwork, e.Err}
}
