package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrAuthenticationFailed is returned for any credential check failure,
// unknown email and wrong password look the same to the caller
var ErrAuthenticationFailed = goerrors.New("Authentication failed", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("AUTH_FAILED")

// ErrMismatchedHashAndPassword password does not match the stored hash
var ErrMismatchedHashAndPassword = goerrors.New("Authentication failed", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("PASSWORD_MISMATCH")

// ErrNoEmptyString empty password given to the hasher
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode("EMPTY_PASSWORD")

// ErrTooManyLoginAttempts the account is cooling down after repeated failures
var ErrTooManyLoginAttempts = goerrors.New("too many failed sign in attempts", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("TOO_MANY_ATTEMPTS")

// ErrIdentityNotFound the token subject no longer resolves to a user
var ErrIdentityNotFound = goerrors.New("User not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode("USER_NOT_FOUND")

// ErrTokenExpired the token is past its embedded expiry
var ErrTokenExpired = goerrors.New("Token expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("TOKEN_EXPIRED")

// ErrTokenMalformed the token failed signature or structural checks
var ErrTokenMalformed = goerrors.New("Invalid token", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("TOKEN_MALFORMED")

// ErrRefreshTokenRequired no refresh token cookie on the request
var ErrRefreshTokenRequired = goerrors.New("Refresh token is required", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("REFRESH_REQUIRED")

// ErrRefreshTokenExpired the refresh token is past its expiry
var ErrRefreshTokenExpired = goerrors.New("Refresh token expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("REFRESH_EXPIRED")

// ErrAuthHeaderMissing request carries no usable Authorization header
var ErrAuthHeaderMissing = goerrors.New("Authorization header is missing", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("AUTH_HEADER_MISSING")

// ErrRoleNotAllowed the subject is authenticated but lacks the required role
var ErrRoleNotAllowed = goerrors.New("You are not authorized to access this resource", goerrors.CategoryAuthz).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("ROLE_NOT_ALLOWED")

// ErrSecretUndefined a signing secret resolved to an empty value
var ErrSecretUndefined = goerrors.New("signing secret is not defined", goerrors.CategoryInternal).
	WithCode(goerrors.CodeInternal).
	WithTextCode("SECRET_UNDEFINED")

// IsDuplicateKey reports whether the store rejected a write because of a
// unique index. Covers the sqlite and postgres phrasings.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// IsDuplicateColumn reports whether a duplicate key error involves the
// given column or index name
func IsDuplicateColumn(err error, column string) bool {
	if !IsDuplicateKey(err) {
		return false
	}
	return strings.Contains(err.Error(), column)
}
