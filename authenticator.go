package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// MaxLoginAttempts is the maximum number of attempts a user gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// UserStore is the slice of the users repository the authenticator needs
type UserStore interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	Update(ctx context.Context, record *User, criteria ...repository.UpdateCriteria) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// SignInResult carries everything the HTTP layer needs to answer a
// successful credential check
type SignInResult struct {
	AccessToken  string
	RefreshToken string
	Role         UserRole
	FirstName    string
	LastName     string
	Avatar       string
	Verified     bool
}

// Auther implements the credential and token flows
type Auther struct {
	store  UserStore
	codec  *TokenCodec
	logger Logger
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(store UserStore, codec *TokenCodec) *Auther {
	return &Auther{
		store:  store,
		codec:  codec,
		logger: defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// SignIn verifies the credentials and mints the token pair. Unknown email
// and wrong password fail identically so callers cannot probe for accounts.
func (s *Auther) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	user, err := s.store.GetByIdentifier(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			s.logger.Info("sign in attempt for unknown identifier")
			return nil, ErrAuthenticationFailed
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during sign in")
	}

	if user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			user.LoginAttempts = 0
		}
	}

	// too many attempts in the window, cool off
	if user.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if err2 := s.store.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, goerrors.Wrap(err2, goerrors.CategoryInternal, "failed to track login attempt")
		}

		s.logger.Info("sign in credential mismatch for user %s", user.ID)
		return nil, ErrAuthenticationFailed
	}

	if err := s.store.TrackSuccessfulLogin(ctx, user); err != nil {
		s.logger.Error("failed to track successful login: %v", err)
	}

	access, err := s.codec.IssueAccess(user)
	if err != nil {
		return nil, err
	}

	refresh, err := s.codec.IssueRefresh(user.ID.String())
	if err != nil {
		return nil, err
	}

	return &SignInResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Role:         user.Role,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Avatar:       user.Avatar,
		Verified:     user.Verified,
	}, nil
}

// Refresh exchanges a live refresh token for a new access token
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrRefreshTokenRequired
	}

	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		if goerrors.Is(err, ErrTokenExpired) {
			return "", ErrRefreshTokenExpired
		}
		return "", err
	}

	user, err := s.store.GetByID(ctx, claims.UserID(), SelectWithoutPassword())
	if err != nil {
		if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			return "", ErrIdentityNotFound
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during refresh")
	}

	return s.codec.IssueAccess(user)
}

// VerifyEmail consumes a verification token and marks the subject verified
func (s *Auther) VerifyEmail(ctx context.Context, token string) (*User, error) {
	claims, err := s.codec.VerifyVerification(token)
	if err != nil {
		if goerrors.Is(err, ErrTokenExpired) {
			return nil, goerrors.New("Token Expired", goerrors.CategoryAuth).
				WithCode(goerrors.CodeUnauthorized).
				WithTextCode("TOKEN_EXPIRED")
		}
		return nil, goerrors.New("Invalid Token", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized).
			WithTextCode("TOKEN_MALFORMED")
	}

	user, err := s.store.GetByID(ctx, claims.UserID())
	if err != nil {
		if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during email verification")
	}

	record := &User{ID: user.ID, Verified: true}
	if _, err := s.store.Update(ctx, record); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark user as verified")
	}

	user.Verified = true
	return user, nil
}
