package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/naturemart/auth-service"
)

func TestHashPassword(t *testing.T) {
	t.Run("hashes a password", func(t *testing.T) {
		hash, err := auth.HashPassword("password123")
		require.NoError(t, err)
		assert.NotEmpty(t, hash)
		assert.NotEqual(t, "password123", hash)
	})

	t.Run("rejects an empty password", func(t *testing.T) {
		hash, err := auth.HashPassword("")
		assert.Empty(t, hash)
		assert.ErrorIs(t, err, auth.ErrNoEmptyString)
	})

	t.Run("same password hashes differently", func(t *testing.T) {
		first, err := auth.HashPassword("password123")
		require.NoError(t, err)

		second, err := auth.HashPassword("password123")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	t.Run("accepts the matching password", func(t *testing.T) {
		assert.NoError(t, auth.ComparePasswordAndHash("password123", hash))
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		err := auth.ComparePasswordAndHash("not-the-password", hash)
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("rejects garbage hashes", func(t *testing.T) {
		err := auth.ComparePasswordAndHash("password123", "not-a-bcrypt-hash")
		assert.Error(t, err)
	})
}
