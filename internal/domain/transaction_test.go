package domain

import (
	"errors"
	"testing"
	"time"
)

func TestTransactionStatusTransitions(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tx := Transaction{ID: 1, Status: StatusPending}
	if err := tx.Complete(now); err != nil {
		t.Fatalf("tx.Complete() returned error: %v", err)
	}

	if tx.Status != StatusCompleted {
		t.Errorf("tx.Status = %v, want %v", tx.Status, StatusCompleted)
	}

	if err := tx.Fail(now, MetadataInsufficientFunds); !errors.Is(err, ErrTransactionSettled) {
		t.Errorf("tx.Fail() on completed transaction returned %v, want %v", err, ErrTransactionSettled)
	}

	if tx.Status != StatusCompleted || tx.Metadata != "" {
		t.Errorf("settled transaction changed: %+v", tx)
	}

	failed := Transaction{ID: 2, Status: StatusPending}
	if err := failed.Fail(now, MetadataInsufficientFunds); err != nil {
		t.Fatalf("failed.Fail() returned error: %v", err)
	}

	if failed.Status != StatusFailed || failed.Metadata != MetadataInsufficientFunds {
		t.Errorf("failed = %+v, want FAILED with metadata %q", failed, MetadataInsufficientFunds)
	}

	if err := failed.Complete(now); !errors.Is(err, ErrTransactionSettled) {
		t.Errorf("failed.Complete() returned %v, want %v", err, ErrTransactionSettled)
	}
}

func TestTransactionTypeClassification(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		typ          TransactionType
		valid        bool
		debit        bool
		requiresBook bool
	}{
		{typ: TransactionDeposit, valid: true},
		{typ: TransactionWithdrawal, valid: true, debit: true},
		{typ: TransactionPurchase, valid: true, debit: true, requiresBook: true},
		{typ: TransactionRental, valid: true, debit: true, requiresBook: true},
		{typ: TransactionRefund, valid: true, requiresBook: true},
		{typ: TransactionSubscription, valid: true, debit: true},
		{typ: "MUA"},
		{typ: ""},
	}

	for _, tc := range testCases {
		if got := tc.typ.Valid(); got != tc.valid {
			t.Errorf("%q.Valid() = %v, want %v", tc.typ, got, tc.valid)
		}

		if got := tc.typ.IsDebit(); got != tc.debit {
			t.Errorf("%q.IsDebit() = %v, want %v", tc.typ, got, tc.debit)
		}

		if got := tc.typ.RequiresBook(); got != tc.requiresBook {
			t.Errorf("%q.RequiresBook() = %v, want %v", tc.typ, got, tc.requiresBook)
		}
	}
}
