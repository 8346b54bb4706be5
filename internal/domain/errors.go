package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrNoCandidateStore signals total unavailability of the candidate
	// store, the only hard failure a ranking request may surface.
	ErrNoCandidateStore = errors.New("candidate store unavailable")
	// ErrRateLimited signals a rate-limit-shaped provider rejection.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded signals that the local limiter denied a call.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrProviderError signals an embedding or AI provider failure.
	ErrProviderError = errors.New("provider error")
	// ErrMalformedResponse signals an unparseable provider response.
	// Triggers immediate fallback, no retry.
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrEngineTimeout signals one scoring strategy exceeding its budget.
	ErrEngineTimeout = errors.New("engine timeout")
)
