package serialization

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeChecksum computes SHA-256 checksum of data.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ValidateChecksum compares the data section against the hex digest stored
// in the metadata. Returns an error matching ErrChecksumMismatch if they
// differ.
func ValidateChecksum(data []byte, stored string) error {
	computed := ComputeChecksum(data)
	if hex.EncodeToString(computed[:]) != stored {
		return &ValidationError{
			Type:    TypeChecksum,
			Details: "data section digest differs from " + ChecksumKey,
		}
	}
	return nil
}
