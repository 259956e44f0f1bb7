// Package transactionrepo manages repository layer of ledger transactions.
package transactionrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-petr/bibliotech/internal/accountrepo"
	"github.com/go-petr/bibliotech/internal/domain"
	"github.com/go-petr/bibliotech/pkg/dbpkg"
	"github.com/go-petr/bibliotech/pkg/errorspkg"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates transaction repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns transaction RepoPGS bound to an open db transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns transaction RepoPGS with connection to start db transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const transactionColumns = `transaction_id, user_id, book_id, transaction_type, amount, status, transaction_date, metadata`

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (domain.Transaction, error) {
	var (
		t      domain.Transaction
		bookID sql.NullInt32
	)

	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&bookID,
		&t.Type,
		&t.Amount,
		&t.Status,
		&t.CreatedAt,
		&t.Metadata,
	)
	if err != nil {
		return domain.Transaction{}, err
	}

	if bookID.Valid {
		t.BookID = &bookID.Int32
	}

	return t, nil
}

const createQuery = `
INSERT INTO
    transactions (` + transactionColumns + `)
VALUES
    ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + transactionColumns

// Create stores the transaction and then returns it.
func (r *RepoPGS) Create(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, createQuery,
		t.ID,
		t.AccountID,
		t.BookID,
		t.Type,
		t.Amount,
		t.Status,
		t.CreatedAt,
		t.Metadata,
	)

	created, err := scanTransaction(row)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msgf("Create(ctx context.Context, %+v)", t)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "transactions_pkey":
				return domain.Transaction{}, domain.ErrTransactionAlreadyExists
			case "transactions_user_id_fkey":
				return domain.Transaction{}, domain.ErrAccountNotFound
			case "transactions_amount_check":
				return domain.Transaction{}, domain.ErrNonPositiveAmount
			case "transactions_type_check":
				return domain.Transaction{}, domain.ErrUnsupportedType
			}
		}

		return domain.Transaction{}, errorspkg.ErrInternal
	}

	return created, nil
}

const getQuery = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE transaction_id = $1
`

// Get returns the transaction with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int32) (domain.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, domain.ErrTransactionNotFound
		}

		zerolog.Ctx(ctx).Error().Err(err).Send()

		return domain.Transaction{}, errorspkg.ErrInternal
	}

	return t, nil
}

const listByAccountQuery = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE user_id = $1
ORDER BY transaction_date DESC, transaction_id DESC
LIMIT $2 OFFSET $3
`

// ListByAccount returns a page of the account transactions, newest first.
func (r *RepoPGS) ListByAccount(ctx context.Context, accountID, limit, offset int32) ([]domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listByAccountQuery, accountID, limit, offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Transaction{}

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, t)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const listPurchasedBooksQuery = `
SELECT DISTINCT book_id
FROM transactions
WHERE user_id = $1 AND transaction_type = $2 AND status = $3 AND book_id IS NOT NULL
ORDER BY book_id
`

// ListPurchasedBooks returns ids of the books bought by the account.
func (r *RepoPGS) ListPurchasedBooks(ctx context.Context, accountID int32) ([]int32, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listPurchasedBooksQuery,
		accountID,
		domain.TransactionPurchase,
		domain.StatusCompleted,
	)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	books := []int32{}

	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		books = append(books, id)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return books, nil
}

// Settle applies one ledger operation to the account within a single db transaction.
//
// The account row stays locked from the read until commit. settle receives the
// locked account and returns its new state together with the settled
// transaction. The account is saved only for COMPLETED transactions, and the
// save fails with domain.ErrConcurrentUpdate when the row version moved.
// Nothing is persisted when any step fails.
func (r *RepoPGS) Settle(
	ctx context.Context,
	accountID int32,
	settle func(domain.Account) (domain.Account, domain.Transaction, error),
) (domain.Account, domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Account{}, domain.Transaction{}, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	accountRepo := accountrepo.NewRepoPGS(tx)

	account, err := accountRepo.GetForUpdate(ctx, accountID)
	if err != nil {
		return domain.Account{}, domain.Transaction{}, err
	}

	account, t, err := settle(account)
	if err != nil {
		return domain.Account{}, domain.Transaction{}, err
	}

	if t.Status == domain.StatusCompleted {
		account, err = accountRepo.Update(ctx, account)
		if err != nil {
			return domain.Account{}, domain.Transaction{}, err
		}
	}

	t, err = NewTxRepoPGS(tx).Create(ctx, t)
	if err != nil {
		return domain.Account{}, domain.Transaction{}, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.Account{}, domain.Transaction{}, errorspkg.ErrInternal
	}

	return account, t, nil
}
