package transactionservice_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/go-petr/bibliotech/internal/domain"
	"github.com/go-petr/bibliotech/internal/idallocator"
	"github.com/go-petr/bibliotech/internal/ledgerevents"
	"github.com/go-petr/bibliotech/internal/memstore"
	"github.com/go-petr/bibliotech/internal/transactionservice"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T, balance string) (*transactionservice.Service, *memstore.Store) {
	t.Helper()

	store := memstore.New()
	store.PutAccount(domain.Account{
		ID:      1,
		Owner:   "alice",
		Balance: decimal.RequireFromString(balance),
	})

	return transactionservice.New(store, idallocator.New(store), ledgerevents.Nop{}), store
}

func requireBalance(t *testing.T, store *memstore.Store, want string) domain.Account {
	t.Helper()

	account, err := store.Account(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, account.Balance.Equal(decimal.RequireFromString(want)),
		"balance = %s, want %s", account.Balance, want)

	return account
}

func TestLedgerScenarios(t *testing.T) {
	t.Parallel()

	book := int32(7)

	testCases := []struct {
		name         string
		balance      string
		op           func(s *transactionservice.Service) (domain.Transaction, error)
		wantBalance  string
		wantStatus   domain.TransactionStatus
		wantMetadata string
		wantPremium  bool
	}{
		{
			name:    "Deposit",
			balance: "100.00",
			op: func(s *transactionservice.Service) (domain.Transaction, error) {
				return s.Deposit(context.Background(), domain.CreateTransactionParams{AccountID: 1, Amount: "50.00"})
			},
			wantBalance: "150.00",
			wantStatus:  domain.StatusCompleted,
		},
		{
			name:    "WithdrawInsufficientFunds",
			balance: "30.00",
			op: func(s *transactionservice.Service) (domain.Transaction, error) {
				return s.Withdraw(context.Background(), domain.CreateTransactionParams{AccountID: 1, Amount: "50.00"})
			},
			wantBalance:  "30.00",
			wantStatus:   domain.StatusFailed,
			wantMetadata: domain.MetadataInsufficientFunds,
		},
		{
			name:    "PurchaseBook",
			balance: "200.00",
			op: func(s *transactionservice.Service) (domain.Transaction, error) {
				return s.Purchase(context.Background(), domain.CreateTransactionParams{AccountID: 1, BookID: &book, Amount: "20.00"})
			},
			wantBalance: "180.00",
			wantStatus:  domain.StatusCompleted,
		},
		{
			name:    "SubscriptionInsufficientFunds",
			balance: "10.00",
			op: func(s *transactionservice.Service) (domain.Transaction, error) {
				return s.Subscribe(context.Background(), domain.CreateTransactionParams{AccountID: 1, Amount: "15.00"})
			},
			wantBalance:  "10.00",
			wantStatus:   domain.StatusFailed,
			wantMetadata: domain.MetadataInsufficientFunds,
		},
		{
			name:    "Subscription",
			balance: "20.00",
			op: func(s *transactionservice.Service) (domain.Transaction, error) {
				return s.Subscribe(context.Background(), domain.CreateTransactionParams{AccountID: 1, Amount: "15.00"})
			},
			wantBalance: "5.00",
			wantStatus:  domain.StatusCompleted,
			wantPremium: true,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, store := newLedger(t, tc.balance)

			got, err := tc.op(s)
			require.NoError(t, err)
			require.Equal(t, tc.wantStatus, got.Status)
			require.Equal(t, tc.wantMetadata, got.Metadata)
			require.Equal(t, int32(1), got.ID)

			account := requireBalance(t, store, tc.wantBalance)
			require.Equal(t, tc.wantPremium, account.IsPremium)

			stored, err := s.Get(context.Background(), got.ID)
			require.NoError(t, err)
			require.Equal(t, got.Status, stored.Status)
			require.Equal(t, got.BookID, stored.BookID)
		})
	}
}

func TestConcurrentDepositsKeepEveryUpdate(t *testing.T) {
	t.Parallel()

	const callers = 50

	s, store := newLedger(t, "0")

	var wg sync.WaitGroup

	for i := 0; i < callers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := s.Deposit(context.Background(), domain.CreateTransactionParams{AccountID: 1, Amount: "1.50"})
			if err != nil {
				t.Errorf("s.Deposit() returned error: %v", err)
			}
		}()
	}

	wg.Wait()

	requireBalance(t, store, "75.00")

	items, err := s.ListByAccount(context.Background(), 1, callers*2, 1)
	require.NoError(t, err)
	require.Len(t, items, callers)

	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, int(item.ID))
	}

	sort.Ints(ids)

	for i, id := range ids {
		require.Equal(t, i+1, id)
	}
}

// Deposits carry no idempotency key, so a replayed request is a new transaction.
func TestReplayedDepositIsNotIdempotent(t *testing.T) {
	t.Parallel()

	s, store := newLedger(t, "100.00")
	arg := domain.CreateTransactionParams{AccountID: 1, Amount: "50.00"}

	first, err := s.Deposit(context.Background(), arg)
	require.NoError(t, err)

	second, err := s.Deposit(context.Background(), arg)
	require.NoError(t, err)

	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, domain.StatusCompleted, first.Status)
	require.Equal(t, domain.StatusCompleted, second.Status)
	requireBalance(t, store, "200.00")
}

func TestReusedTransactionIDRejected(t *testing.T) {
	t.Parallel()

	s, store := newLedger(t, "100.00")
	arg := domain.CreateTransactionParams{ID: 42, AccountID: 1, Amount: "50.00"}

	_, err := s.Deposit(context.Background(), arg)
	require.NoError(t, err)

	_, err = s.Deposit(context.Background(), arg)
	require.ErrorIs(t, err, domain.ErrTransactionAlreadyExists)
	requireBalance(t, store, "150.00")
}

func TestPurchasedBooks(t *testing.T) {
	t.Parallel()

	s, _ := newLedger(t, "30.00")
	ctx := context.Background()

	for _, b := range []int32{9, 4, 9, 12} {
		book := b

		_, err := s.Purchase(ctx, domain.CreateTransactionParams{AccountID: 1, BookID: &book, Amount: "10.00"})
		require.NoError(t, err)
	}

	rented := int32(5)
	_, err := s.Rent(ctx, domain.CreateTransactionParams{AccountID: 1, BookID: &rented, Amount: "0.01"})
	require.NoError(t, err)

	// The fourth purchase failed for lack of funds.
	books, err := s.PurchasedBooks(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []int32{4, 9}, books)
}
