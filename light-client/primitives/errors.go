package primitives

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds. Every verification failure wraps exactly one of these so that
// callers can classify it with errors.Is.
var (
	ErrMalformedMessage     = errors.New("malformed message")
	ErrStaleUpdate          = errors.New("stale update")
	ErrCryptoFailure        = errors.New("crypto failure")
	ErrProofFailure         = errors.New("proof failure")
	ErrAuthoritySetMismatch = errors.New("authority set mismatch")
	ErrFrozen               = errors.New("client frozen")
	ErrMisbehaviourDetected = errors.New("misbehaviour detected")
)

// ErrResourceLimit is returned when a message exceeds a configured limit.
// It is classified as a malformed message.
var ErrResourceLimit = fmt.Errorf("%w: resource limit exceeded", ErrMalformedMessage)

var kinds = []error{
	ErrMalformedMessage,
	ErrStaleUpdate,
	ErrCryptoFailure,
	ErrProofFailure,
	ErrAuthoritySetMismatch,
	ErrFrozen,
	ErrMisbehaviourDetected,
}

// Kind returns the error kind err wraps, or nil.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindName returns a short label for the kind of err, for metrics.
func KindName(err error) string {
	switch Kind(err) {
	case ErrMalformedMessage:
		return "malformed"
	case ErrStaleUpdate:
		return "stale"
	case ErrCryptoFailure:
		return "crypto"
	case ErrProofFailure:
		return "proof"
	case ErrAuthoritySetMismatch:
		return "authority_set"
	case ErrFrozen:
		return "frozen"
	case ErrMisbehaviourDetected:
		return "misbehaviour"
	default:
		return "other"
	}
}

// Malformedf wraps a formatted description in ErrMalformedMessage.
func Malformedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedMessage, fmt.Sprintf(format, args...))
}

// LimitExceeded reports that what has n elements where at most limit are allowed.
func LimitExceeded(what string, n, limit uint64) error {
	return fmt.Errorf("%w: %d %s, limit %d", ErrResourceLimit, n, what, limit)
}
