package grandpa

import (
	"fmt"

	"github.com/ComposableFi/composable-sub011/light-client/primitives"
)

var (
	// ErrUnknownAuthority is returned for votes by keys outside the current set.
	ErrUnknownAuthority = fmt.Errorf("%w: unknown authority", primitives.ErrCryptoFailure)
	// ErrInvalidSignature is returned for votes whose signature does not verify.
	ErrInvalidSignature = fmt.Errorf("%w: invalid vote signature", primitives.ErrCryptoFailure)
	// ErrInsufficientSignatures is returned when fewer than two thirds of the
	// authorities precommitted.
	ErrInsufficientSignatures = fmt.Errorf("%w: insufficient precommits", primitives.ErrCryptoFailure)
	// ErrInvalidAncestry is returned when headers do not link up as claimed.
	ErrInvalidAncestry = fmt.Errorf("%w: invalid ancestry", primitives.ErrProofFailure)
	// ErrStaleJustification is returned for justifications that do not
	// finalize a block above the latest relay height.
	ErrStaleJustification = fmt.Errorf("%w: stale justification", primitives.ErrStaleUpdate)
	// ErrSetIDMismatch is returned for votes cast under another authority set.
	ErrSetIDMismatch = fmt.Errorf("%w: set id mismatch", primitives.ErrAuthoritySetMismatch)
	// ErrInvalidEquivocation is returned for evidence that does not show a double vote.
	ErrInvalidEquivocation = fmt.Errorf("%w: invalid equivocation", primitives.ErrCryptoFailure)
	// ErrInsufficientEquivocations is returned when fewer than a third of the
	// authorities are shown to equivocate.
	ErrInsufficientEquivocations = fmt.Errorf("%w: insufficient equivocations", primitives.ErrCryptoFailure)
)
