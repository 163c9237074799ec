package llm

import (
	"context"
	"errors"
	"fmt"
	"syscall"
)

// Reason classifies a gateway failure.
type Reason string

const (
	ReasonServerNotRunning  Reason = "local inference server not running"
	ReasonCredentialMissing Reason = "credential not configured"
	ReasonUnknownProvider   Reason = "unknown provider"
	ReasonUpstream          Reason = "upstream error"
	ReasonTimeout           Reason = "request timed out"
	ReasonInvalidResponse   Reason = "invalid response"
	ReasonRateLimited       Reason = "rate limited"
)

// FallbackText is shown to the user whenever generation fails.
const FallbackText = "I'm sorry, I'm having trouble processing your request right now. Please try again later."

// Error is a classified provider failure.
type Error struct {
	Cause      error
	Reason     Reason
	Provider   string
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Reason)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same Reason, so the sentinels below work
// with errors.Is regardless of provider or status.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Reason == e.Reason
}

// Sentinel errors for errors.Is checks.
var (
	ErrServerNotRunning  = &Error{Reason: ReasonServerNotRunning}
	ErrCredentialMissing = &Error{Reason: ReasonCredentialMissing}
	ErrUnknownProvider   = &Error{Reason: ReasonUnknownProvider}
	ErrUpstream          = &Error{Reason: ReasonUpstream}
	ErrTimeout           = &Error{Reason: ReasonTimeout}
	ErrInvalidResponse   = &Error{Reason: ReasonInvalidResponse}
	ErrRateLimited       = &Error{Reason: ReasonRateLimited}
)

// ReasonOf returns the Reason of err, or ReasonUpstream for unclassified errors.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonUpstream
}

// isConnRefused reports a refused TCP connection. DNS failures and dial
// timeouts are not refusals.
func isConnRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

// transportError classifies an error returned by http.Client.Do.
func transportError(provider string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Reason: ReasonTimeout, Provider: provider, Cause: err}
	}
	return &Error{Reason: ReasonUpstream, Provider: provider, Message: "request failed", Cause: err}
}
