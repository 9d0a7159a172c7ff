package grandpa

import (
	"github.com/ComposableFi/composable-sub011/config/params"
	"github.com/ComposableFi/composable-sub011/light-client/host"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"
)

// Target returns the finalized block number and hash.
func (j *Justification) Target() (uint32, primitives.Hash) {
	return j.Commit.TargetNumber, j.Commit.TargetHash
}

// Verify checks the commit was signed by a supermajority of authorities
// under setID, that every precommit targets a descendant of the commit
// target, and that every vote ancestry header is used.
func (j *Justification) Verify(h host.Functions, setID uint64, authorities AuthorityList) error {
	cfg := params.LightClient()
	if len(authorities) == 0 {
		return primitives.Malformedf("empty authority set")
	}
	if uint64(len(authorities)) > cfg.MaxAuthorities {
		return primitives.LimitExceeded("authorities", uint64(len(authorities)), cfg.MaxAuthorities)
	}
	if len(j.Commit.Precommits) == 0 {
		return primitives.Malformedf("commit without precommits")
	}

	ancestry, err := NewAncestryChain(h, j.VotesAncestries)
	if err != nil {
		return err
	}
	if ancestry.Len() != len(j.VotesAncestries) {
		return primitives.Malformedf("duplicate vote ancestry headers")
	}
	for hash, hdr := range ancestry.headers {
		if hdr.Number == j.Commit.TargetNumber && hash != j.Commit.TargetHash {
			return errors.Wrapf(ErrInvalidAncestry, "header %s at target height %d conflicts with target %s", hash, hdr.Number, j.Commit.TargetHash)
		}
	}

	signers := bitfield.NewBitlist(uint64(len(authorities)))
	visited := make(map[primitives.Hash]bool, ancestry.Len())
	for i := range j.Commit.Precommits {
		pc := &j.Commit.Precommits[i]
		idx, ok := authorities.Index(pc.ID)
		if !ok {
			return errors.Wrapf(ErrUnknownAuthority, "precommit %d", i)
		}
		msg := VoteMessage(StagePrecommit, pc.Precommit, j.Round, setID)
		if !h.Ed25519Verify(pc.Signature, msg, pc.ID) {
			return errors.Wrapf(ErrInvalidSignature, "precommit %d by authority %d", i, idx)
		}
		if pc.Precommit.TargetHash != j.Commit.TargetHash {
			if pc.Precommit.TargetNumber < j.Commit.TargetNumber {
				return errors.Wrapf(ErrInvalidAncestry, "precommit %d below commit target", i)
			}
			route, err := ancestry.Route(j.Commit.TargetHash, pc.Precommit.TargetHash)
			if err != nil {
				return errors.Wrapf(err, "precommit %d", i)
			}
			for _, hash := range route {
				visited[hash] = true
			}
		}
		signers.SetBitAt(uint64(idx), true)
	}
	if len(visited) != ancestry.Len() {
		return errors.Wrapf(ErrInvalidAncestry, "%d of %d vote ancestry headers unused", ancestry.Len()-len(visited), ancestry.Len())
	}
	if signers.Count()*3 <= uint64(len(authorities))*2 {
		return errors.Wrapf(ErrInsufficientSignatures, "%d of %d authorities precommitted", signers.Count(), len(authorities))
	}
	return nil
}
