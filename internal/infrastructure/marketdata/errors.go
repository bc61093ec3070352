package marketdata

import "errors"

var (
	ErrUnknownBackend  = errors.New("unknown market source backend")
	ErrMalformedRecord = errors.New("malformed market record")
	ErrInjectedFailure = errors.New("injected mock source failure")
)
