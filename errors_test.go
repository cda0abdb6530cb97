package auth_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/naturemart/auth-service"
)

func TestIsDuplicateKey(t *testing.T) {
	t.Run("matches the sqlite phrasing", func(t *testing.T) {
		err := errors.New("UNIQUE constraint failed: users.email")
		assert.True(t, auth.IsDuplicateKey(err))
	})

	t.Run("matches the postgres phrasing", func(t *testing.T) {
		err := errors.New(`duplicate key value violates unique constraint "users_email_idx"`)
		assert.True(t, auth.IsDuplicateKey(err))
	})

	t.Run("ignores other errors", func(t *testing.T) {
		assert.False(t, auth.IsDuplicateKey(errors.New("connection refused")))
		assert.False(t, auth.IsDuplicateKey(nil))
	})
}

func TestIsDuplicateColumn(t *testing.T) {
	err := errors.New("UNIQUE constraint failed: users.contact_no")

	assert.True(t, auth.IsDuplicateColumn(err, "contact_no"))
	assert.False(t, auth.IsDuplicateColumn(err, "email"))
	assert.False(t, auth.IsDuplicateColumn(errors.New("boom"), "contact_no"))
	assert.False(t, auth.IsDuplicateColumn(nil, "contact_no"))
}
