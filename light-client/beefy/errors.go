package beefy

import (
	"fmt"

	"github.com/ComposableFi/composable-sub011/light-client/primitives"
)

var (
	// ErrStaleCommitment is returned for commitments at or below the latest
	// accepted block, or signed by a retired authority set.
	ErrStaleCommitment = fmt.Errorf("%w: stale commitment", primitives.ErrStaleUpdate)
	// ErrFutureAuthoritySet is returned for commitments signed by a set past
	// the next authority set.
	ErrFutureAuthoritySet = fmt.Errorf("%w: future authority set", primitives.ErrAuthoritySetMismatch)
	// ErrInsufficientSignatures is returned when fewer than two thirds of the
	// authorities signed, or a signature does not recover.
	ErrInsufficientSignatures = fmt.Errorf("%w: insufficient signatures", primitives.ErrCryptoFailure)
	// ErrInvalidAuthorityProof is returned when the recovered signers are not
	// members of the authority set.
	ErrInvalidAuthorityProof = fmt.Errorf("%w: invalid authority proof", primitives.ErrProofFailure)
	// ErrInvalidMmrRoot is returned when the commitment carries no usable MMR root.
	ErrInvalidMmrRoot = fmt.Errorf("%w: invalid mmr root", primitives.ErrProofFailure)
	// ErrInvalidLeafProof is returned when an MMR or parachain heads proof
	// does not reconstruct the expected root.
	ErrInvalidLeafProof = fmt.Errorf("%w: invalid leaf proof", primitives.ErrProofFailure)
	// ErrInvalidEquivocation is returned for equivocation evidence that does
	// not show a double vote.
	ErrInvalidEquivocation = fmt.Errorf("%w: invalid equivocation", primitives.ErrCryptoFailure)
	// ErrInsufficientEquivocations is returned when fewer than a third of the
	// authorities are shown to equivocate.
	ErrInsufficientEquivocations = fmt.Errorf("%w: insufficient equivocations", primitives.ErrCryptoFailure)
)
