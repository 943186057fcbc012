package hashutil

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
)

type HashFactory func() hash.Hash

var registry = map[string]HashFactory{
	"sha256": sha256.New,
	"sha512": sha512.New,
}

// GetHasher returns a new hash for a supported algorithm name.
func GetHasher(name string) (hash.Hash, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unsupported hash algorithm: %s", name)
	}
	return factory(), nil
}

// Key returns the hex digest of parts joined by NUL bytes, so ("ab", "c")
// and ("a", "bc") never collide.
func Key(algo string, parts ...string) (string, error) {
	h, err := GetHasher(algo)
	if err != nil {
		return "", err
	}
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
