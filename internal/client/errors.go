package client

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindProtocol  ErrorKind = "protocol"
	KindAuth      ErrorKind = "auth"
)

var (
	ErrTransport = errors.New("transport error")
	ErrProtocol  = errors.New("protocol error")
	ErrAuth      = errors.New("authentication error")

	// ErrInternal marks a defect inside a poll pass (a recovered panic), not an upstream failure.
	ErrInternal = errors.New("internal error")
)

// ProviderError is the only error type adapters return.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Status   int // upstream HTTP status, 0 when no response was received
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s error", e.Provider, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *ProviderError) Unwrap() []error {
	out := []error{kindSentinel(e.Kind)}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func kindSentinel(k ErrorKind) error {
	switch k {
	case KindAuth:
		return ErrAuth
	case KindProtocol:
		return ErrProtocol
	default:
		return ErrTransport
	}
}

// KindOf returns the kind of a ProviderError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

func transportError(provider, msg string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindTransport, Message: msg, Err: err}
}

func protocolError(provider string, status int, msg string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindProtocol, Status: status, Message: msg, Err: err}
}

func authError(provider string, status int, msg string) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindAuth, Status: status, Message: msg}
}
