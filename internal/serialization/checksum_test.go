package serialization

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestComputeChecksum verifies SHA-256 checksum computation.
func TestComputeChecksum(t *testing.T) {
	data := []byte("test data")
	assert.Equal(t, ComputeChecksum(data), ComputeChecksum(data))
	assert.NotEqual(t, ComputeChecksum(data), ComputeChecksum([]byte("different data")))
}

// TestKnownVectorSHA256 checks the digest of the empty input.
func TestKnownVectorSHA256(t *testing.T) {
	sum := ComputeChecksum(nil)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", hex.EncodeToString(sum[:]))
}

func TestValidateChecksum(t *testing.T) {
	data := []byte("abc")
	sum := ComputeChecksum(data)
	require.NoError(t, ValidateChecksum(data, hex.EncodeToString(sum[:])))

	err := ValidateChecksum([]byte("abd"), hex.EncodeToString(sum[:]))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChecksumMismatch))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, TypeChecksum, ve.Type)
}
