// Package domain provides definitions of all entities.
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountAlreadyExists indicates that the owner already has an account.
	ErrAccountAlreadyExists = errors.New("account already exists")
	// ErrOwnerNotFound indicates that the owner for the account is not found.
	ErrOwnerNotFound = errors.New("owner not found")
	// ErrAccountOwnerMismatch indicates that the account doesn't belong to the authenticated user.
	ErrAccountOwnerMismatch = errors.New("account doesn't belong to the user")
	// ErrConcurrentUpdate indicates that the account was changed by another writer
	// between load and save.
	ErrConcurrentUpdate = errors.New("account was modified concurrently")
)

// Account holds the wallet balance of a user.
//
// Balance is never negative at rest. Version grows by one on every save and
// guards against lost updates.
type Account struct {
	ID        int32           `json:"id"`
	Owner     string          `json:"owner"`
	Balance   decimal.Decimal `json:"balance"`
	IsPremium bool            `json:"is_premium"`
	Version   int32           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
}
