package beefy

import (
	"github.com/ComposableFi/composable-sub011/config/params"
	"github.com/ComposableFi/composable-sub011/light-client/host"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CheckVoteEquivocation verifies that the authority at eq.AuthorityIndex
// signed two different commitments for the same block. It returns the set
// the offender belongs to.
func CheckVoteEquivocation(h host.Functions, state ClientState, eq *VoteEquivocation) (AuthoritySet, error) {
	set, _, err := checkVoteEquivocation(h, state, eq)
	return set, err
}

// checkVoteEquivocation also returns the offender's authority leaf. Sorted
// pair hashing leaves the proof position unbound, so the leaf and not the
// claimed index identifies the offender.
func checkVoteEquivocation(h host.Functions, state ClientState, eq *VoteEquivocation) (AuthoritySet, primitives.Hash, error) {
	first, second := &eq.First.Commitment, &eq.Second.Commitment
	if first.BlockNumber != second.BlockNumber {
		return AuthoritySet{}, primitives.Hash{}, errors.Wrapf(ErrInvalidEquivocation, "votes for blocks %d and %d", first.BlockNumber, second.BlockNumber)
	}
	if first.ValidatorSetID != second.ValidatorSetID {
		return AuthoritySet{}, primitives.Hash{}, errors.Wrapf(ErrInvalidEquivocation, "votes from sets %d and %d", first.ValidatorSetID, second.ValidatorSetID)
	}
	if first.Equal(second) {
		return AuthoritySet{}, primitives.Hash{}, errors.Wrap(ErrInvalidEquivocation, "votes are identical")
	}
	set, _, err := state.signingSet(first.ValidatorSetID)
	if err != nil {
		return AuthoritySet{}, primitives.Hash{}, err
	}

	firstKey, err := recoverVoter(h, &eq.First)
	if err != nil {
		return AuthoritySet{}, primitives.Hash{}, err
	}
	secondKey, err := recoverVoter(h, &eq.Second)
	if err != nil {
		return AuthoritySet{}, primitives.Hash{}, err
	}
	firstLeaf, err := AuthorityLeaf(h, firstKey)
	if err != nil {
		return AuthoritySet{}, primitives.Hash{}, errors.Wrap(ErrInvalidEquivocation, err.Error())
	}
	secondLeaf, err := AuthorityLeaf(h, secondKey)
	if err != nil {
		return AuthoritySet{}, primitives.Hash{}, errors.Wrap(ErrInvalidEquivocation, err.Error())
	}
	if firstLeaf != secondLeaf {
		return AuthoritySet{}, primitives.Hash{}, errors.Wrap(ErrInvalidEquivocation, "votes signed by different authorities")
	}
	if err := VerifyAuthority(h, set, eq.AuthorityIndex, firstKey, eq.AuthorityProof); err != nil {
		return AuthoritySet{}, primitives.Hash{}, err
	}
	return set, firstLeaf, nil
}

func recoverVoter(h host.Functions, vote *SignedVote) ([33]byte, error) {
	digest, err := CommitmentDigest(h, &vote.Commitment)
	if err != nil {
		return [33]byte{}, err
	}
	key, err := h.EcdsaRecoverCompressed(vote.Signature, digest)
	if err != nil {
		return [33]byte{}, errors.Wrap(ErrInvalidEquivocation, err.Error())
	}
	return key, nil
}

// CheckVoteEquivocations verifies a batch of equivocations from one
// authority set and requires at least a third of that set to be shown
// equivocating. Repeated offenders count once, whatever index they claim.
func CheckVoteEquivocations(h host.Functions, state ClientState, eqs []VoteEquivocation) error {
	cfg := params.LightClient()
	if len(eqs) == 0 {
		return primitives.Malformedf("no equivocations")
	}
	if uint64(len(eqs)) > cfg.MaxEquivocations {
		return primitives.LimitExceeded("equivocations", uint64(len(eqs)), cfg.MaxEquivocations)
	}
	var set AuthoritySet
	offenders := make(map[primitives.Hash]struct{}, len(eqs))
	for i := range eqs {
		eqSet, leaf, err := checkVoteEquivocation(h, state, &eqs[i])
		if err != nil {
			return errors.Wrapf(err, "equivocation %d", i)
		}
		if i == 0 {
			set = eqSet
			if uint64(set.Len) > cfg.MaxAuthorities {
				return primitives.LimitExceeded("authorities", uint64(set.Len), cfg.MaxAuthorities)
			}
		} else if eqSet.ID != set.ID {
			return primitives.Malformedf("equivocation %d from set %d, batch is for set %d", i, eqSet.ID, set.ID)
		}
		offenders[leaf] = struct{}{}
	}
	required := (uint64(set.Len) + 2) / 3
	if uint64(len(offenders)) < required {
		return errors.Wrapf(ErrInsufficientEquivocations, "%d offenders of %d authorities, need %d", len(offenders), set.Len, required)
	}
	log.WithFields(logrus.Fields{
		"setID":     set.ID,
		"offenders": len(offenders),
	}).Debug("Verified equivocations")
	return nil
}
