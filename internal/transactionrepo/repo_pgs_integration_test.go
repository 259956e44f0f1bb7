//go:build integration

package transactionrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/bibliotech/internal/domain"
	"github.com/go-petr/bibliotech/internal/integrationtest"
	"github.com/go-petr/bibliotech/internal/integrationtest/helpers"
	"github.com/go-petr/bibliotech/internal/transactionrepo"
	"github.com/go-petr/bibliotech/pkg/configpkg"
)

var equateDecimal = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func loadConfig(t *testing.T) configpkg.Config {
	t.Helper()

	config, err := configpkg.Load("../../configs")
	if err != nil {
		t.Fatalf(`configpkg.Load("../../configs") returned error: %v`, err)
	}

	return config
}

func TestRepoPGSQueries(t *testing.T) {
	config := loadConfig(t)
	tx := integrationtest.SetupTX(t, config.DBDriver, config.DBSource)
	ctx := context.Background()

	user := helpers.SeedUser(t, tx)
	account := helpers.SeedAccount(t, tx, 1, user.Username)

	repo := transactionrepo.NewTxRepoPGS(tx)

	var created []domain.Transaction

	for i, typ := range []domain.TransactionType{
		domain.TransactionDeposit,
		domain.TransactionPurchase,
		domain.TransactionPurchase,
	} {
		want := helpers.RandomTransaction(account.ID, typ)
		want.ID = int32(i + 1)
		want.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second).Truncate(time.Second)

		got, err := repo.Create(ctx, want)
		require.NoError(t, err)

		if diff := cmp.Diff(want, got, equateDecimal); diff != "" {
			t.Errorf("repo.Create() mismatch (-want +got):\n%s", diff)
		}

		created = append(created, got)
	}

	got, err := repo.Get(ctx, created[0].ID)
	require.NoError(t, err)
	require.Equal(t, created[0].ID, got.ID)

	_, err = repo.Get(ctx, 100)
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)

	page, err := repo.ListByAccount(ctx, account.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, created[2].ID, page[0].ID)
	require.Equal(t, created[1].ID, page[1].ID)

	books, err := repo.ListPurchasedBooks(ctx, account.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, uniqueBooks(created[1:]), books)

	_, err = repo.Create(ctx, created[0])
	require.ErrorIs(t, err, domain.ErrTransactionAlreadyExists)
}

func uniqueBooks(items []domain.Transaction) []int32 {
	seen := map[int32]bool{}
	books := []int32{}

	for _, t := range items {
		if !seen[*t.BookID] {
			seen[*t.BookID] = true
			books = append(books, *t.BookID)
		}
	}

	return books
}

func TestRepoPGSSettle(t *testing.T) {
	config := loadConfig(t)
	db := integrationtest.SetupDB(t, config.DBDriver, config.DBSource)
	ctx := context.Background()

	user := helpers.SeedUser(t, db)
	account := helpers.SeedAccount(t, db, 1, user.Username)

	repo := transactionrepo.NewRepoPGS(db)
	now := time.Now().UTC()

	deposit := func(a domain.Account) (domain.Account, domain.Transaction, error) {
		a.Balance = a.Balance.Add(decimal.NewFromInt(40))

		return a, domain.Transaction{
			ID:        1,
			AccountID: a.ID,
			Type:      domain.TransactionDeposit,
			Amount:    decimal.NewFromInt(40),
			Status:    domain.StatusCompleted,
			CreatedAt: now,
		}, nil
	}

	got, tr, err := repo.Settle(ctx, account.ID, deposit)
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(decimal.NewFromInt(40)))
	require.Equal(t, account.Version+1, got.Version)
	require.Equal(t, domain.StatusCompleted, tr.Status)

	// The same id again: the insert fails and the balance change is rolled back.
	_, _, err = repo.Settle(ctx, account.ID, deposit)
	require.ErrorIs(t, err, domain.ErrTransactionAlreadyExists)

	failed := func(a domain.Account) (domain.Account, domain.Transaction, error) {
		return a, domain.Transaction{
			ID:        2,
			AccountID: a.ID,
			Type:      domain.TransactionWithdrawal,
			Amount:    decimal.NewFromInt(500),
			Status:    domain.StatusFailed,
			CreatedAt: now,
			Metadata:  domain.MetadataInsufficientFunds,
		}, nil
	}

	got, tr, err = repo.Settle(ctx, account.ID, failed)
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(decimal.NewFromInt(40)))
	require.Equal(t, domain.StatusFailed, tr.Status)

	stored, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, domain.MetadataInsufficientFunds, stored.Metadata)
}
