package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// Default token lifetimes, overridable through the With* builders
const (
	DefaultAccessTTL       = time.Hour
	DefaultRefreshTTL      = 30 * 24 * time.Hour
	DefaultResetTTL        = 5 * time.Minute
	DefaultVerificationTTL = 10 * time.Minute
)

type tokenKind struct {
	name   string
	secret SecretKind
}

var (
	kindAccess       = tokenKind{name: "access", secret: SecretAccess}
	kindRefresh      = tokenKind{name: "refresh", secret: SecretRefresh}
	kindReset        = tokenKind{name: "reset", secret: SecretAccess}
	kindVerification = tokenKind{name: "verification", secret: SecretAccess}
)

// TokenCodec mints and verifies every token class the service uses.
// Access, reset, and verification tokens share the access-class secret,
// refresh tokens use their own.
type TokenCodec struct {
	secrets         *SecretProvider
	issuer          string
	accessTTL       time.Duration
	refreshTTL      time.Duration
	resetTTL        time.Duration
	verificationTTL time.Duration
	logger          Logger
}

// NewTokenCodec creates a codec with the default lifetimes
func NewTokenCodec(secrets *SecretProvider) *TokenCodec {
	return &TokenCodec{
		secrets:         secrets,
		accessTTL:       DefaultAccessTTL,
		refreshTTL:      DefaultRefreshTTL,
		resetTTL:        DefaultResetTTL,
		verificationTTL: DefaultVerificationTTL,
		logger:          defLogger{},
	}
}

func (tc *TokenCodec) WithLogger(logger Logger) *TokenCodec {
	if logger != nil {
		tc.logger = logger
	}
	return tc
}

func (tc *TokenCodec) WithIssuer(issuer string) *TokenCodec {
	tc.issuer = issuer
	return tc
}

// WithLifetimes overrides the per-class lifetimes. Zero values keep
// the current setting.
func (tc *TokenCodec) WithLifetimes(access, refresh, reset, verification time.Duration) *TokenCodec {
	if access > 0 {
		tc.accessTTL = access
	}
	if refresh > 0 {
		tc.refreshTTL = refresh
	}
	if reset > 0 {
		tc.resetTTL = reset
	}
	if verification > 0 {
		tc.verificationTTL = verification
	}
	return tc
}

// RefreshTTL exposes the refresh lifetime so the HTTP layer can align
// the cookie max age with the token expiry
func (tc *TokenCodec) RefreshTTL() time.Duration {
	return tc.refreshTTL
}

// IssueAccess mints an access token carrying the user's profile claims
func (tc *TokenCodec) IssueAccess(user *User) (string, error) {
	if user == nil {
		return "", goerrors.New("cannot issue a token for a nil user", goerrors.CategoryInternal)
	}
	return tc.sign(newAccessClaims(user, tc.issuer, tc.accessTTL), kindAccess)
}

// IssueRefresh mints a subject-only refresh token
func (tc *TokenCodec) IssueRefresh(userID string) (string, error) {
	return tc.sign(newSubjectClaims(userID, tc.issuer, tc.refreshTTL), kindRefresh)
}

// IssueReset mints a short lived password reset token
func (tc *TokenCodec) IssueReset(userID string) (string, error) {
	return tc.sign(newSubjectClaims(userID, tc.issuer, tc.resetTTL), kindReset)
}

// IssueVerification mints the email verification token sent at sign up
func (tc *TokenCodec) IssueVerification(userID string) (string, error) {
	return tc.sign(newSubjectClaims(userID, tc.issuer, tc.verificationTTL), kindVerification)
}

func (tc *TokenCodec) VerifyAccess(token string) (*TokenClaims, error) {
	return tc.verify(token, kindAccess)
}

func (tc *TokenCodec) VerifyRefresh(token string) (*TokenClaims, error) {
	return tc.verify(token, kindRefresh)
}

func (tc *TokenCodec) VerifyReset(token string) (*TokenClaims, error) {
	return tc.verify(token, kindReset)
}

func (tc *TokenCodec) VerifyVerification(token string) (*TokenClaims, error) {
	return tc.verify(token, kindVerification)
}

func (tc *TokenCodec) sign(claims *TokenClaims, kind tokenKind) (string, error) {
	secret, err := tc.secrets.Get(kind.secret)
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign "+kind.name+" token")
	}

	return signed, nil
}

func (tc *TokenCodec) verify(tokenString string, kind tokenKind) (*TokenClaims, error) {
	secret, err := tc.secrets.Get(kind.secret)
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			tc.logger.Error("token codec encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		tc.logger.Error("token codec could not decode %s claims", kind.name)
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
