package core

import "errors"

// Provider error taxonomy. Inside the dispatcher these cause tier
// fall-through; they are never propagated to the chat caller.
var (
	ErrProviderTimeout     = errors.New("provider timed out")
	ErrProviderAuth        = errors.New("provider rejected credentials")
	ErrProviderRateLimited = errors.New("provider rate limited")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrEmptyCompletion     = errors.New("provider returned empty completion")
)

// ErrEmptyMessage is the only validation failure the core surfaces; every
// other malformed field is corrected with defaults.
var ErrEmptyMessage = errors.New("message must not be empty")
