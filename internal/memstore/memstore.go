// Package memstore keeps ledger accounts and transactions in memory.
//
// It behaves like the postgres repositories, including the row lock and the
// version check, and backs service tests that need real settlement semantics.
// It is for tests only: nothing is persisted, and the server always uses the
// postgres repositories.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/go-petr/bibliotech/internal/domain"
)

// Store is an in-memory ledger store safe for concurrent use.
type Store struct {
	mu           sync.Mutex
	accounts     map[int32]domain.Account
	transactions map[int32]domain.Transaction
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts:     make(map[int32]domain.Account),
		transactions: make(map[int32]domain.Transaction),
	}
}

// PutAccount stores a as is.
func (s *Store) PutAccount(a domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[a.ID] = a
}

// Account returns the stored account with the given id.
func (s *Store) Account(_ context.Context, id int32) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return a, nil
}

// MaxID returns the largest stored identifier of class.
func (s *Store) MaxID(_ context.Context, class domain.RecordClass) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var max int32

	switch class {
	case domain.RecordTransactions:
		for id := range s.transactions {
			if id > max {
				max = id
			}
		}
	case domain.RecordAccounts:
		for id := range s.accounts {
			if id > max {
				max = id
			}
		}
	default:
		return 0, domain.ErrUnknownRecordClass
	}

	return max, nil
}

// Settle runs settle on the account while holding the store lock.
func (s *Store) Settle(
	_ context.Context,
	accountID int32,
	settle func(domain.Account) (domain.Account, domain.Transaction, error),
) (domain.Account, domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, ok := s.accounts[accountID]
	if !ok {
		return domain.Account{}, domain.Transaction{}, domain.ErrAccountNotFound
	}

	account, t, err := settle(locked)
	if err != nil {
		return domain.Account{}, domain.Transaction{}, err
	}

	if _, ok := s.transactions[t.ID]; ok {
		return domain.Account{}, domain.Transaction{}, domain.ErrTransactionAlreadyExists
	}

	if t.Status == domain.StatusCompleted {
		if account.Version != locked.Version {
			return domain.Account{}, domain.Transaction{}, domain.ErrConcurrentUpdate
		}

		if account.Balance.IsNegative() {
			return domain.Account{}, domain.Transaction{}, domain.ErrInsufficientFunds
		}

		account.Version++
		s.accounts[accountID] = account
	} else {
		account = locked
	}

	s.transactions[t.ID] = t

	return account, t, nil
}

// Get returns the transaction with the given id.
func (s *Store) Get(_ context.Context, id int32) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}

	return t, nil
}

// ListByAccount returns a page of the account transactions, newest first.
func (s *Store) ListByAccount(_ context.Context, accountID, limit, offset int32) ([]domain.Transaction, error) {
	if offset < 0 || limit < 0 {
		return nil, domain.ErrInvalidPage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := []domain.Transaction{}

	for _, t := range s.transactions {
		if t.AccountID == accountID {
			items = append(items, t)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}

		return items[i].ID > items[j].ID
	})

	if int(offset) >= len(items) {
		return []domain.Transaction{}, nil
	}

	items = items[offset:]
	if int(limit) < len(items) {
		items = items[:limit]
	}

	return items, nil
}

// ListPurchasedBooks returns ids of the books bought by the account.
func (s *Store) ListPurchasedBooks(_ context.Context, accountID int32) ([]int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int32]bool)
	books := []int32{}

	for _, t := range s.transactions {
		if t.AccountID != accountID || t.Type != domain.TransactionPurchase ||
			t.Status != domain.StatusCompleted || t.BookID == nil || seen[*t.BookID] {
			continue
		}

		seen[*t.BookID] = true
		books = append(books, *t.BookID)
	}

	sort.Slice(books, func(i, j int) bool { return books[i] < books[j] })

	return books, nil
}
