package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultAvatar is assigned to accounts created without an avatar upload
const DefaultAvatar = "https://ds-nature-ayur.s3.ap-southeast-1.amazonaws.com/Default_pfp.svg.png"

// Seller holds the store sub-record of a seller account
type Seller struct {
	StoreName   string  `json:"store_name"`
	Description string  `json:"description,omitempty"`
	Logo        string  `json:"logo,omitempty"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

// Address holds the shipping address sub-record
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Province   string `json:"province,omitempty"`
}

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName      string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	ContactNo      string     `bun:"contact_no,notnull,unique" json:"contact_no,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"password_hash,omitempty"`
	Avatar         string     `bun:"avatar" json:"avatar,omitempty"`
	Verified       bool       `bun:"is_verified" json:"is_verified,omitempty"`
	Seller         *Seller    `bun:"seller,nullzero,type:jsonb" json:"seller,omitempty"`
	Address        *Address   `bun:"address,nullzero,type:jsonb" json:"address,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// FullName joins first and last name the way the email templates expect
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Profile is the sanitized projection we expose over HTTP.
// It never carries the password hash or login bookkeeping.
type Profile struct {
	ID         uuid.UUID  `json:"_id"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      string     `json:"email"`
	ContactNo  string     `json:"contactNo"`
	Avatar     string     `json:"avatar"`
	Role       UserRole   `json:"role"`
	IsVerified bool       `json:"isVerified"`
	Address    *Address   `json:"address,omitempty"`
	Seller     *Seller    `json:"seller,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// Profile returns the sanitized projection of the record
func (u *User) Profile() *Profile {
	return &Profile{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		ContactNo:  u.ContactNo,
		Avatar:     u.Avatar,
		Role:       u.Role,
		IsVerified: u.Verified,
		Address:    u.Address,
		Seller:     u.Seller,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// ListEntry is the compact projection used by the admin user listing
type ListEntry struct {
	ID         uuid.UUID  `json:"_id"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      string     `json:"email"`
	ContactNo  string     `json:"contactNo"`
	Avatar     string     `json:"avatar"`
	Role       UserRole   `json:"role"`
	IsVerified bool       `json:"isVerified"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// ListEntry returns the compact projection of the record
func (u *User) ListEntry() *ListEntry {
	return &ListEntry{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		ContactNo:  u.ContactNo,
		Avatar:     u.Avatar,
		Role:       u.Role,
		IsVerified: u.Verified,
		CreatedAt:  u.CreatedAt,
	}
}
