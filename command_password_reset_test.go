package auth_test

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/naturemart/auth-service"
)

func TestPasswordResetMessageTypes(t *testing.T) {
	assert.Equal(t, "user.password_reset", auth.InitializePasswordResetMessage{}.Type())
	assert.Equal(t, "user.password_reset_finalize", auth.FinalizePasswordResetMessage{}.Type())
}

func TestInitializePasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("issues the reset token and sends the email", func(t *testing.T) {
		repo := newFakeRepoManager()
		codec := newTestCodec(t)
		mailer := new(MockMailer)
		user := newTestUser(t, "password123")

		renderer, err := auth.NewEmailRenderer()
		require.NoError(t, err)

		repo.users.On("GetByIdentifier", mock.Anything, "nimal@example.com").
			Return(user, nil).Once()

		mailer.On("Send", mock.Anything, mock.MatchedBy(func(msg auth.MailMessage) bool {
			return msg.To == user.Email &&
				msg.Subject == "Reset Password" &&
				msg.HTMLBody != ""
		})).Return(nil).Once()

		var resp *auth.InitializePasswordResetResponse
		msg := auth.InitializePasswordResetMessage{
			Email: "nimal@example.com",
			OnResponse: func(r *auth.InitializePasswordResetResponse) {
				resp = r
			},
		}

		handler := auth.NewInitializePasswordResetHandler(repo, codec, mailer, renderer, "http://localhost:3000")
		require.NoError(t, handler.Execute(ctx, msg))

		require.NotNil(t, resp)
		assert.True(t, resp.Success)

		claims, err := codec.VerifyReset(resp.ResetToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID())

		mailer.AssertExpectations(t)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := newFakeRepoManager()

		repo.users.On("GetByIdentifier", mock.Anything, "ghost@example.com").
			Return(nil, repository.NewRecordNotFound()).Once()

		handler := auth.NewInitializePasswordResetHandler(repo, newTestCodec(t), nil, nil, "")

		err := handler.Execute(ctx, auth.InitializePasswordResetMessage{Email: "ghost@example.com"})
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, "No user found with this email", richErr.Message)
	})

	t.Run("mailer failure surfaces to the caller", func(t *testing.T) {
		repo := newFakeRepoManager()
		mailer := new(MockMailer)
		user := newTestUser(t, "password123")

		renderer, err := auth.NewEmailRenderer()
		require.NoError(t, err)

		repo.users.On("GetByIdentifier", mock.Anything, user.Email).
			Return(user, nil).Once()

		mailer.On("Send", mock.Anything, mock.Anything).
			Return(goerrors.New("relay down", goerrors.CategoryOperation)).Once()

		handler := auth.NewInitializePasswordResetHandler(repo, newTestCodec(t), mailer, renderer, "")

		assert.Error(t, handler.Execute(ctx, auth.InitializePasswordResetMessage{Email: user.Email}))
	})
}

func TestFinalizePasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the password", func(t *testing.T) {
		repo := newFakeRepoManager()
		codec := newTestCodec(t)
		user := newTestUser(t, "old-password")

		token, err := codec.IssueReset(user.ID.String())
		require.NoError(t, err)

		repo.users.On("ResetPassword", mock.Anything, user.ID, mock.MatchedBy(func(hash string) bool {
			return auth.ComparePasswordAndHash("new-password", hash) == nil
		})).Return(nil).Once()

		handler := auth.NewFinalizePasswordResetHandler(repo, codec)

		msg := auth.FinalizePasswordResetMessage{Token: token, Password: "new-password"}
		require.NoError(t, handler.Execute(ctx, msg))

		repo.users.AssertExpectations(t)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := newTestCodec(t).WithLifetimes(0, 0, time.Nanosecond, 0)
		user := newTestUser(t, "old-password")

		token, err := expired.IssueReset(user.ID.String())
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)

		handler := auth.NewFinalizePasswordResetHandler(newFakeRepoManager(), newTestCodec(t))

		err = handler.Execute(ctx, auth.FinalizePasswordResetMessage{Token: token, Password: "new-password"})
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, "Token Expired", richErr.Message)
	})

	t.Run("tampered token", func(t *testing.T) {
		handler := auth.NewFinalizePasswordResetHandler(newFakeRepoManager(), newTestCodec(t))

		err := handler.Execute(ctx, auth.FinalizePasswordResetMessage{Token: "not-a-token", Password: "new-password"})
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, "Invalid Token", richErr.Message)
	})

	t.Run("subject no longer exists", func(t *testing.T) {
		repo := newFakeRepoManager()
		codec := newTestCodec(t)
		user := newTestUser(t, "old-password")

		token, err := codec.IssueReset(user.ID.String())
		require.NoError(t, err)

		repo.users.On("ResetPassword", mock.Anything, user.ID, mock.Anything).
			Return(repository.NewRecordNotFound()).Once()

		handler := auth.NewFinalizePasswordResetHandler(repo, codec)

		err = handler.Execute(ctx, auth.FinalizePasswordResetMessage{Token: token, Password: "new-password"})
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})
}
