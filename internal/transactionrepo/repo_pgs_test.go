package transactionrepo

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-petr/bibliotech/internal/domain"
	"github.com/go-petr/bibliotech/pkg/errorspkg"
	"github.com/google/go-cmp/cmp"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	columns        = []string{"transaction_id", "user_id", "book_id", "transaction_type", "amount", "status", "transaction_date", "metadata"}
	accountColumns = []string{"id", "owner", "balance", "is_premium", "version", "created_at"}
	equateDecimal  = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
)

func bookID(id int32) *int32 {
	return &id
}

func rows(items ...domain.Transaction) *sqlmock.Rows {
	r := sqlmock.NewRows(columns)

	for _, t := range items {
		var book any
		if t.BookID != nil {
			book = *t.BookID
		}

		r.AddRow(t.ID, t.AccountID, book, string(t.Type), t.Amount.String(), string(t.Status), t.CreatedAt, t.Metadata)
	}

	return r
}

func randomTransaction(id int32, typ domain.TransactionType, book *int32) domain.Transaction {
	return domain.Transaction{
		ID:        id,
		AccountID: 1,
		BookID:    book,
		Type:      typ,
		Amount:    decimal.RequireFromString("25.50"),
		Status:    domain.StatusCompleted,
		CreatedAt: time.Now().Truncate(time.Second),
	}
}

func createArgs(t domain.Transaction) []driver.Value {
	return []driver.Value{t.ID, t.AccountID, t.BookID, t.Type, t.Amount, t.Status, t.CreatedAt, t.Metadata}
}

func TestCreate(t *testing.T) {
	t.Parallel()

	deposit := randomTransaction(1, domain.TransactionDeposit, nil)
	purchase := randomTransaction(2, domain.TransactionPurchase, bookID(42))

	testCases := []struct {
		name      string
		arg       domain.Transaction
		err       error
		want      domain.Transaction
		wantError error
	}{
		{
			name: "WithoutBook",
			arg:  deposit,
			want: deposit,
		},
		{
			name: "WithBook",
			arg:  purchase,
			want: purchase,
		},
		{
			name:      "DuplicateID",
			arg:       deposit,
			err:       &pq.Error{Constraint: "transactions_pkey"},
			wantError: domain.ErrTransactionAlreadyExists,
		},
		{
			name:      "AccountNotFound",
			arg:       deposit,
			err:       &pq.Error{Constraint: "transactions_user_id_fkey"},
			wantError: domain.ErrAccountNotFound,
		},
		{
			name:      "NonPositiveAmount",
			arg:       deposit,
			err:       &pq.Error{Constraint: "transactions_amount_check"},
			wantError: domain.ErrNonPositiveAmount,
		},
		{
			name:      "InternalError",
			arg:       deposit,
			err:       errors.New("connection reset by peer"),
			wantError: errorspkg.ErrInternal,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			require.NoError(t, err)
			defer db.Close()

			expect := mock.ExpectQuery(createQuery).WithArgs(createArgs(tc.arg)...)
			if tc.err != nil {
				expect.WillReturnError(tc.err)
			} else {
				expect.WillReturnRows(rows(tc.arg))
			}

			got, err := NewRepoPGS(db).Create(context.Background(), tc.arg)
			require.ErrorIs(t, err, tc.wantError)

			if diff := cmp.Diff(tc.want, got, equateDecimal); diff != "" {
				t.Errorf("repo.Create() returned unexpected difference (-want +got):\n%s", diff)
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	want := randomTransaction(5, domain.TransactionRental, bookID(3))

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepoPGS(db)

	mock.ExpectQuery(getQuery).WithArgs(want.ID).WillReturnRows(rows(want))
	mock.ExpectQuery(getQuery).WithArgs(int32(404)).WillReturnRows(rows())

	got, err := repo.Get(context.Background(), want.ID)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, equateDecimal); diff != "" {
		t.Errorf("repo.Get() returned unexpected difference (-want +got):\n%s", diff)
	}

	_, err = repo.Get(context.Background(), 404)
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByAccount(t *testing.T) {
	t.Parallel()

	items := []domain.Transaction{
		randomTransaction(3, domain.TransactionRefund, bookID(1)),
		randomTransaction(2, domain.TransactionWithdrawal, nil),
		randomTransaction(1, domain.TransactionDeposit, nil),
	}

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepoPGS(db)

	mock.ExpectQuery(listByAccountQuery).WithArgs(int32(1), int32(5), int32(0)).WillReturnRows(rows(items...))
	mock.ExpectQuery(listByAccountQuery).WithArgs(int32(1), int32(5), int32(5)).WillReturnError(errors.New("timeout"))

	got, err := repo.ListByAccount(context.Background(), 1, 5, 0)
	require.NoError(t, err)

	if diff := cmp.Diff(items, got, equateDecimal); diff != "" {
		t.Errorf("repo.ListByAccount() returned unexpected difference (-want +got):\n%s", diff)
	}

	_, err = repo.ListByAccount(context.Background(), 1, 5, 5)
	require.ErrorIs(t, err, errorspkg.ErrInternal)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListPurchasedBooks(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(listPurchasedBooksQuery).
		WithArgs(int32(8), domain.TransactionPurchase, domain.StatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"book_id"}).AddRow(4).AddRow(11))

	got, err := NewRepoPGS(db).ListPurchasedBooks(context.Background(), 8)
	require.NoError(t, err)
	require.Equal(t, []int32{4, 11}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettle(t *testing.T) {
	t.Parallel()

	now := time.Now().Truncate(time.Second)

	locked := domain.Account{
		ID:        1,
		Owner:     "alice",
		Balance:   decimal.RequireFromString("100"),
		Version:   3,
		CreatedAt: now,
	}

	completed := randomTransaction(10, domain.TransactionWithdrawal, nil)
	failed := completed
	failed.Status = domain.StatusFailed
	failed.Metadata = domain.MetadataInsufficientFunds

	debited := locked
	debited.Balance = locked.Balance.Sub(completed.Amount)

	saved := debited
	saved.Version = locked.Version + 1

	errSettle := errors.New("settle failed")

	accountRow := func(a domain.Account) *sqlmock.Rows {
		return sqlmock.NewRows(accountColumns).
			AddRow(a.ID, a.Owner, a.Balance.String(), a.IsPremium, a.Version, a.CreatedAt)
	}

	testCases := []struct {
		name        string
		settle      func(domain.Account) (domain.Account, domain.Transaction, error)
		buildStubs  func(mock sqlmock.Sqlmock)
		wantAccount domain.Account
		wantTx      domain.Transaction
		wantError   error
	}{
		{
			name: "Completed",
			settle: func(a domain.Account) (domain.Account, domain.Transaction, error) {
				a.Balance = a.Balance.Sub(completed.Amount)
				return a, completed, nil
			},
			buildStubs: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("FOR UPDATE").WithArgs(locked.ID).WillReturnRows(accountRow(locked))
				mock.ExpectQuery("UPDATE accounts").
					WithArgs(debited.Balance, debited.IsPremium, debited.ID, debited.Version).
					WillReturnRows(accountRow(saved))
				mock.ExpectQuery("INSERT INTO").WithArgs(createArgs(completed)...).WillReturnRows(rows(completed))
				mock.ExpectCommit()
			},
			wantAccount: saved,
			wantTx:      completed,
		},
		{
			name: "FailedLeavesAccount",
			settle: func(a domain.Account) (domain.Account, domain.Transaction, error) {
				return a, failed, nil
			},
			buildStubs: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("FOR UPDATE").WithArgs(locked.ID).WillReturnRows(accountRow(locked))
				mock.ExpectQuery("INSERT INTO").WithArgs(createArgs(failed)...).WillReturnRows(rows(failed))
				mock.ExpectCommit()
			},
			wantAccount: locked,
			wantTx:      failed,
		},
		{
			name: "AccountNotFound",
			settle: func(a domain.Account) (domain.Account, domain.Transaction, error) {
				return a, completed, nil
			},
			buildStubs: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("FOR UPDATE").WithArgs(locked.ID).WillReturnRows(sqlmock.NewRows(accountColumns))
				mock.ExpectRollback()
			},
			wantError: domain.ErrAccountNotFound,
		},
		{
			name: "SettleError",
			settle: func(a domain.Account) (domain.Account, domain.Transaction, error) {
				return domain.Account{}, domain.Transaction{}, errSettle
			},
			buildStubs: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("FOR UPDATE").WithArgs(locked.ID).WillReturnRows(accountRow(locked))
				mock.ExpectRollback()
			},
			wantError: errSettle,
		},
		{
			name: "ConcurrentUpdate",
			settle: func(a domain.Account) (domain.Account, domain.Transaction, error) {
				a.Balance = a.Balance.Sub(completed.Amount)
				return a, completed, nil
			},
			buildStubs: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("FOR UPDATE").WithArgs(locked.ID).WillReturnRows(accountRow(locked))
				mock.ExpectQuery("UPDATE accounts").
					WithArgs(debited.Balance, debited.IsPremium, debited.ID, debited.Version).
					WillReturnRows(sqlmock.NewRows(accountColumns))
				mock.ExpectRollback()
			},
			wantError: domain.ErrConcurrentUpdate,
		},
		{
			name: "DuplicateTransaction",
			settle: func(a domain.Account) (domain.Account, domain.Transaction, error) {
				return a, failed, nil
			},
			buildStubs: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("FOR UPDATE").WithArgs(locked.ID).WillReturnRows(accountRow(locked))
				mock.ExpectQuery("INSERT INTO").WithArgs(createArgs(failed)...).
					WillReturnError(&pq.Error{Constraint: "transactions_pkey"})
				mock.ExpectRollback()
			},
			wantError: domain.ErrTransactionAlreadyExists,
		},
		{
			name: "CommitError",
			settle: func(a domain.Account) (domain.Account, domain.Transaction, error) {
				return a, failed, nil
			},
			buildStubs: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("FOR UPDATE").WithArgs(locked.ID).WillReturnRows(accountRow(locked))
				mock.ExpectQuery("INSERT INTO").WithArgs(createArgs(failed)...).WillReturnRows(rows(failed))
				mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
			},
			wantError: errorspkg.ErrInternal,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tc.buildStubs(mock)

			gotAccount, gotTx, err := NewRepoPGS(db).Settle(context.Background(), locked.ID, tc.settle)
			require.ErrorIs(t, err, tc.wantError)

			if diff := cmp.Diff(tc.wantAccount, gotAccount, equateDecimal); diff != "" {
				t.Errorf("account mismatch (-want +got):\n%s", diff)
			}

			if diff := cmp.Diff(tc.wantTx, gotTx, equateDecimal); diff != "" {
				t.Errorf("transaction mismatch (-want +got):\n%s", diff)
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
