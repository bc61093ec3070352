package gamma

import "errors"

var (
	ErrUpstreamStatus   = errors.New("unexpected gamma API status")
	ErrMalformedPayload = errors.New("malformed gamma API payload")
	ErrRetryable        = errors.New("retryable gamma API request failed")
	ErrNonRetryable     = errors.New("non-retryable gamma API error")
)
