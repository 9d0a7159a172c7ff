package grandpa

import (
	"github.com/ComposableFi/composable-sub011/light-client/host"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/pkg/errors"
)

// AncestryChain indexes relay headers by hash.
type AncestryChain struct {
	headers map[primitives.Hash]*primitives.Header
}

// NewAncestryChain hashes and indexes headers.
func NewAncestryChain(h host.Functions, headers []primitives.Header) (*AncestryChain, error) {
	c := &AncestryChain{headers: make(map[primitives.Hash]*primitives.Header, len(headers))}
	for i := range headers {
		hash, err := headers[i].Hash(h.Blake2b256)
		if err != nil {
			return nil, primitives.Malformedf("header %d: %v", i, err)
		}
		c.headers[hash] = &headers[i]
	}
	return c, nil
}

// Header returns the header with the given hash.
func (c *AncestryChain) Header(hash primitives.Hash) (*primitives.Header, bool) {
	hdr, ok := c.headers[hash]
	return hdr, ok
}

// Len is the number of distinct headers.
func (c *AncestryChain) Len() int {
	return len(c.headers)
}

// Route walks parent links from block back to base and returns the hashes
// visited, block first, base excluded. Every block on the route must be in
// the chain.
func (c *AncestryChain) Route(base, block primitives.Hash) ([]primitives.Hash, error) {
	route := make([]primitives.Hash, 0)
	current := block
	for current != base {
		if len(route) > len(c.headers) {
			return nil, errors.Wrap(ErrInvalidAncestry, "cycle in ancestry")
		}
		hdr, ok := c.headers[current]
		if !ok {
			return nil, errors.Wrapf(ErrInvalidAncestry, "%s does not descend from %s", block, base)
		}
		route = append(route, current)
		current = hdr.ParentHash
	}
	return route, nil
}
