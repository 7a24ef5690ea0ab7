package publish

import "errors"

// Publish-side errors. Each maps to a distinct user-visible notification;
// none is retried automatically.
var (
	ErrNoSigner       = errors.New("no signer available")
	ErrSign           = errors.New("signing failed")
	ErrPublishTimeout = errors.New("publish timed out")
	ErrRelayRejected  = errors.New("relay rejected event")
)
