package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount indicates that the amount is not a decimal number.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNonPositiveAmount indicates zero or negative amount.
	ErrNonPositiveAmount = errors.New("amount must be positive")
	// ErrBookRequired indicates that a book scoped transaction has no book id.
	ErrBookRequired = errors.New("book id is required")
	// ErrInvalidAccountID indicates missing or malformed account id.
	ErrInvalidAccountID = errors.New("invalid account id")
	// ErrUnsupportedType indicates unknown transaction type.
	ErrUnsupportedType = errors.New("unsupported transaction type")
	// ErrInsufficientFunds indicates that the store refused to make the balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrTransactionNotFound indicates that the transaction is not found.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrTransactionAlreadyExists indicates that the transaction id is already taken.
	ErrTransactionAlreadyExists = errors.New("transaction already exists")
	// ErrTransactionSettled indicates an attempt to change a settled transaction.
	ErrTransactionSettled = errors.New("transaction already settled")
	// ErrInvalidPage indicates a page number or size outside of the listable range.
	ErrInvalidPage = errors.New("invalid page")
)

// MetadataInsufficientFunds is the reason recorded on debits rejected for lack of balance.
const MetadataInsufficientFunds = "Insufficient funds"

// TransactionType is the kind of balance change a transaction describes.
type TransactionType string

// Supported transaction types.
const (
	TransactionDeposit      TransactionType = "DEPOSIT"
	TransactionWithdrawal   TransactionType = "WITHDRAWAL"
	TransactionPurchase     TransactionType = "PURCHASE"
	TransactionRental       TransactionType = "RENTAL"
	TransactionRefund       TransactionType = "REFUND"
	TransactionSubscription TransactionType = "SUBSCRIPTION"
)

// Valid reports whether t is one of the supported types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionDeposit,
		TransactionWithdrawal,
		TransactionPurchase,
		TransactionRental,
		TransactionRefund,
		TransactionSubscription:
		return true
	}

	return false
}

// IsDebit reports whether the transaction takes money from the account.
func (t TransactionType) IsDebit() bool {
	switch t {
	case TransactionWithdrawal, TransactionPurchase, TransactionRental, TransactionSubscription:
		return true
	}

	return false
}

// RequiresBook reports whether the transaction must reference a book.
func (t TransactionType) RequiresBook() bool {
	switch t {
	case TransactionPurchase, TransactionRental, TransactionRefund:
		return true
	}

	return false
}

// TransactionStatus is the settlement state of a transaction.
type TransactionStatus string

// Transaction statuses. PENDING is the only non-terminal one.
const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
)

// IsTerminal reports whether no further transition is allowed.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Transaction is a ledger entry: one attempted balance change and its outcome.
type Transaction struct {
	ID        int32             `json:"id"`
	AccountID int32             `json:"account_id"`
	BookID    *int32            `json:"book_id,omitempty"`
	Type      TransactionType   `json:"type"`
	Amount    decimal.Decimal   `json:"amount"` // always positive
	Status    TransactionStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  string            `json:"metadata,omitempty"`
}

// Complete moves a pending transaction to COMPLETED.
func (t *Transaction) Complete(at time.Time) error {
	if t.Status.IsTerminal() {
		return fmt.Errorf("complete transaction %d: %w", t.ID, ErrTransactionSettled)
	}

	t.Status = StatusCompleted
	t.CreatedAt = at

	return nil
}

// Fail moves a pending transaction to FAILED and records the reason.
func (t *Transaction) Fail(at time.Time, reason string) error {
	if t.Status.IsTerminal() {
		return fmt.Errorf("fail transaction %d: %w", t.ID, ErrTransactionSettled)
	}

	t.Status = StatusFailed
	t.CreatedAt = at
	t.Metadata = reason

	return nil
}

// CreateTransactionParams is the input data of a ledger operation.
//
// ID is optional, zero means the id is allocated by the ledger.
type CreateTransactionParams struct {
	ID        int32           `json:"id,omitempty"`
	AccountID int32           `json:"account_id"`
	BookID    *int32          `json:"book_id,omitempty"`
	Type      TransactionType `json:"type"`
	Amount    string          `json:"amount"`
	Metadata  string          `json:"metadata,omitempty"`
}

// LedgerEvent announces a settled transaction to downstream consumers.
type LedgerEvent struct {
	TransactionID int32             `json:"transaction_id"`
	AccountID     int32             `json:"account_id"`
	BookID        *int32            `json:"book_id,omitempty"`
	Type          TransactionType   `json:"type"`
	Status        TransactionStatus `json:"status"`
	Amount        decimal.Decimal   `json:"amount"`
	Balance       decimal.Decimal   `json:"balance"`
	Metadata      string            `json:"metadata,omitempty"`
	SettledAt     time.Time         `json:"settled_at"`
}
