package grandpa

import (
	"github.com/ComposableFi/composable-sub011/config/params"
	"github.com/ComposableFi/composable-sub011/light-client/host"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"
)

// CheckEquivocation verifies that the authority at eq.AuthorityIndex signed
// two different votes for the same target number in one round and stage.
func CheckEquivocation(h host.Functions, authorities AuthorityList, setID uint64, eq *Equivocation) error {
	if eq.SetID != setID {
		return errors.Wrapf(ErrSetIDMismatch, "equivocation for set %d, current set %d", eq.SetID, setID)
	}
	if eq.Stage != StagePrevote && eq.Stage != StagePrecommit {
		return primitives.Malformedf("unknown vote stage %d", eq.Stage)
	}
	if uint64(eq.AuthorityIndex) >= uint64(len(authorities)) {
		return primitives.Malformedf("authority index %d out of range %d", eq.AuthorityIndex, len(authorities))
	}
	if eq.First == eq.Second {
		return errors.Wrap(ErrInvalidEquivocation, "both votes have the same target")
	}
	if eq.First.TargetNumber != eq.Second.TargetNumber {
		return errors.Wrapf(ErrInvalidEquivocation, "votes for heights %d and %d", eq.First.TargetNumber, eq.Second.TargetNumber)
	}
	id := authorities[eq.AuthorityIndex].ID
	if !h.Ed25519Verify(eq.FirstSignature, VoteMessage(eq.Stage, eq.First, eq.Round, eq.SetID), id) {
		return errors.Wrapf(ErrInvalidSignature, "first %s of authority %d", eq.Stage, eq.AuthorityIndex)
	}
	if !h.Ed25519Verify(eq.SecondSignature, VoteMessage(eq.Stage, eq.Second, eq.Round, eq.SetID), id) {
		return errors.Wrapf(ErrInvalidSignature, "second %s of authority %d", eq.Stage, eq.AuthorityIndex)
	}
	return nil
}

// CheckEquivocations verifies a batch of equivocations and requires at least
// a third of the authorities to be shown equivocating. Repeated offenders
// count once.
func CheckEquivocations(h host.Functions, authorities AuthorityList, setID uint64, eqs []Equivocation) error {
	cfg := params.LightClient()
	if len(eqs) == 0 {
		return primitives.Malformedf("no equivocations")
	}
	if uint64(len(eqs)) > cfg.MaxEquivocations {
		return primitives.LimitExceeded("equivocations", uint64(len(eqs)), cfg.MaxEquivocations)
	}
	offenders := bitfield.NewBitlist(uint64(len(authorities)))
	for i := range eqs {
		if err := CheckEquivocation(h, authorities, setID, &eqs[i]); err != nil {
			return errors.Wrapf(err, "equivocation %d", i)
		}
		offenders.SetBitAt(uint64(eqs[i].AuthorityIndex), true)
	}
	required := (uint64(len(authorities)) + 2) / 3
	if offenders.Count() < required {
		return errors.Wrapf(ErrInsufficientEquivocations, "%d offenders of %d authorities, need %d", offenders.Count(), len(authorities), required)
	}
	return nil
}
