package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// ComputeChoiceVectorHash fingerprints an ordered answer sequence such as ["A","B","A"].
// Equal sequences share a fingerprint regardless of which session produced them.
func ComputeChoiceVectorHash(labels []string) Hash {
	return NewHash([]byte(strings.Join(labels, "")))
}
