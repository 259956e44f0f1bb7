package domain

import "errors"

var (
	// ErrUnknownRecordClass indicates that identifiers can't be allocated for the record class.
	ErrUnknownRecordClass = errors.New("unknown record class")
	// ErrIDSpaceExhausted indicates that the record class has no identifiers left.
	ErrIDSpaceExhausted = errors.New("identifier space exhausted")
)

// RecordClass names a family of records sharing one identifier sequence.
type RecordClass string

// Record classes with allocator managed identifiers.
const (
	RecordTransactions RecordClass = "transactions"
	RecordAccounts     RecordClass = "accounts"
)
