package main

import (
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// readHexFile reads a 0x prefixed hex string from path. Surrounding
// whitespace is ignored.
func readHexFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, err
	}
	data, err := hexutil.Decode(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode %s", path)
	}
	return data, nil
}

func decodeHexFlag(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hexutil.Decode(s)
}
