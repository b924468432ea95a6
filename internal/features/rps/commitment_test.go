package rps

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipflop-games/rpsbot/internal/common"
)

// Обязательство должно воспроизводиться по опубликованному формату:
// hex(SHA-256("ROCK:" + hex-соль)).
func TestComputeCommitment_Format(t *testing.T) {
	salt := make([]byte, SaltSize)
	for i := range salt {
		salt[i] = byte(i)
	}
	saltHex := hex.EncodeToString(salt)

	want := sha256.Sum256([]byte("ROCK:" + saltHex))
	assert.Equal(t, hex.EncodeToString(want[:]), ComputeCommitment(MoveRock, salt))
}

func TestGenerateCommitment_RoundTrip(t *testing.T) {
	for _, move := range []Move{MoveRock, MovePaper, MoveScissors} {
		hash, saltHex, err := GenerateCommitment(move)
		require.NoError(t, err)

		require.NoError(t, ValidateCommitmentHash(hash))

		salt, err := ParseSalt(saltHex)
		require.NoError(t, err)
		assert.Equal(t, hash, ComputeCommitment(move, salt))
	}
}

func TestGenerateCommitment_InvalidMove(t *testing.T) {
	_, _, err := GenerateCommitment(Move("LIZARD"))
	assert.ErrorIs(t, err, common.ErrInvalidMove)
}

// Хеш не должен сходиться для другого хода или другой соли.
func TestComputeCommitment_Mismatch(t *testing.T) {
	hash, saltHex, err := GenerateCommitment(MovePaper)
	require.NoError(t, err)

	salt, err := ParseSalt(saltHex)
	require.NoError(t, err)

	assert.NotEqual(t, hash, ComputeCommitment(MoveScissors, salt))

	other := make([]byte, SaltSize)
	copy(other, salt)
	other[0] ^= 0xFF
	assert.NotEqual(t, hash, ComputeCommitment(MovePaper, other))
}

func TestParseSalt_Length(t *testing.T) {
	_, err := ParseSalt(strings.Repeat("ab", SaltSize))
	assert.NoError(t, err)

	// короткая, длинная и не-hex соли отклоняются
	for _, bad := range []string{
		strings.Repeat("ab", SaltSize-1),
		strings.Repeat("ab", SaltSize+1),
		strings.Repeat("zz", SaltSize),
		"",
	} {
		_, err := ParseSalt(bad)
		assert.ErrorIs(t, err, common.ErrInvalidSalt, "соль %q", bad)
	}
}

func TestValidateCommitmentHash(t *testing.T) {
	assert.NoError(t, ValidateCommitmentHash(strings.Repeat("0f", 32)))

	for _, bad := range []string{
		"",
		strings.Repeat("0f", 31),
		strings.Repeat("0f", 33),
		strings.Repeat("0g", 32),
	} {
		assert.ErrorIs(t, ValidateCommitmentHash(bad), common.ErrInvalidCommitmentHash, "хеш %q", bad)
	}
}
