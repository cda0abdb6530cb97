package auth_test

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/naturemart/auth-service"
)

func TestSecretProviderGet(t *testing.T) {
	t.Run("resolves per kind", func(t *testing.T) {
		provider := auth.NewSecretProvider(auth.StaticSecretSource("access-value", "refresh-value"))

		access, err := provider.Get(auth.SecretAccess)
		require.NoError(t, err)
		assert.Equal(t, []byte("access-value"), access)

		refresh, err := provider.Get(auth.SecretRefresh)
		require.NoError(t, err)
		assert.Equal(t, []byte("refresh-value"), refresh)
	})

	t.Run("caches the first resolution", func(t *testing.T) {
		calls := 0
		provider := auth.NewSecretProvider(func(kind auth.SecretKind) string {
			calls++
			return "value"
		})

		_, err := provider.Get(auth.SecretAccess)
		require.NoError(t, err)
		_, err = provider.Get(auth.SecretAccess)
		require.NoError(t, err)

		assert.Equal(t, 1, calls)
	})

	t.Run("empty secret is an error", func(t *testing.T) {
		provider := auth.NewSecretProvider(auth.StaticSecretSource("", ""))

		_, err := provider.Get(auth.SecretAccess)
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, auth.ErrSecretUndefined.Message, richErr.Message)
	})
}

func TestSecretProviderRotate(t *testing.T) {
	provider := auth.NewSecretProvider(auth.StaticSecretSource("old-access", "old-refresh"))

	_, err := provider.Get(auth.SecretAccess)
	require.NoError(t, err)

	t.Run("replaces the cached value", func(t *testing.T) {
		require.NoError(t, provider.Rotate(auth.SecretAccess, "new-access"))

		got, err := provider.Get(auth.SecretAccess)
		require.NoError(t, err)
		assert.Equal(t, []byte("new-access"), got)
	})

	t.Run("rejects empty values", func(t *testing.T) {
		assert.Error(t, provider.Rotate(auth.SecretAccess, ""))
	})
}

func TestSecretProviderClear(t *testing.T) {
	value := "first"
	provider := auth.NewSecretProvider(func(kind auth.SecretKind) string {
		return value
	})

	got, err := provider.Get(auth.SecretAccess)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)

	value = "second"
	provider.Clear()

	got, err = provider.Get(auth.SecretAccess)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}
