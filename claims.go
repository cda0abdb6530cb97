package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the claim set for every token class the service mints.
// Access tokens carry the profile fields, subject-only classes (refresh,
// reset, verification) leave them empty.
type TokenClaims struct {
	jwt.RegisteredClaims
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	UserRole  string `json:"role,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Verified  bool   `json:"isVerified,omitempty"`
}

// UserID returns the token subject
func (c *TokenClaims) UserID() string {
	return c.RegisteredClaims.Subject
}

// Role returns the role claim
func (c *TokenClaims) Role() string {
	return c.UserRole
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued at time
func (c *TokenClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func newAccessClaims(user *User, issuer string, ttl time.Duration) *TokenClaims {
	now := time.Now()
	return &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		FirstName: user.FirstName,
		LastName:  user.LastName,
		UserRole:  string(user.Role),
		Avatar:    user.Avatar,
		Verified:  user.Verified,
	}
}

func newSubjectClaims(userID, issuer string, ttl time.Duration) *TokenClaims {
	now := time.Now()
	return &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}
