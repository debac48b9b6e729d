package domain

import (
	"errors"
	"time"
)

var (
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSellerNotFound     = errors.New("seller not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotImplemented     = errors.New("not implemented")
)

// Role distinguishes buyer and seller accounts.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// ParseRole normalizes a wire role string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleBuyer:
		return RoleBuyer, nil
	case RoleSeller:
		return RoleSeller, nil
	default:
		return "", ErrInvalidInput
	}
}

// Account represents a registered buyer or seller. Identity is immutable
// after creation; accounts are never deleted. Credentials are stored as
// given (cleartext is accepted by design of the protocol).
//
// Feedback and ItemsSold form the seller rating and stay zero for buyers.
// Both are appended by the purchase flow, which is not implemented, so they
// read back as recorded (typically zero).
type Account struct {
	UserID     string    `json:"user_id"`
	Credential string    `json:"-"`
	Role       Role      `json:"role"`
	Feedback   Feedback  `json:"seller_feedback"`
	ItemsSold  int       `json:"items_sold"`
	CreatedAt  time.Time `json:"created_at"`
}
