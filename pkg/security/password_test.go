package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocktrailhq/stocktrail-backend/pkg/config"
)

func testPasswordConfig() config.PasswordConfig {
	// Cheap parameters keep the test fast.
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := testPasswordConfig()

	encoded, err := HashPassword("s3cret-pass", cfg)
	require.NoError(t, err)
	require.Contains(t, encoded, "$argon2id$")

	ok, err := VerifyPassword("s3cret-pass", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong-pass", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := HashPassword("", testPasswordConfig())
	require.Error(t, err)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("whatever", "not-a-hash")
	require.ErrorIs(t, err, ErrInvalidHash)
}

func TestHashPasswordProducesUniqueSalts(t *testing.T) {
	cfg := testPasswordConfig()

	first, err := HashPassword("same-password", cfg)
	require.NoError(t, err)
	second, err := HashPassword("same-password", cfg)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
