// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-petr/bibliotech/internal/domain"
	"github.com/go-petr/bibliotech/pkg/dbpkg"
	"github.com/go-petr/bibliotech/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.Owner,
		&a.Balance,
		&a.IsPremium,
		&a.Version,
		&a.CreatedAt,
	)

	return a, err
}

const createQuery = `
INSERT INTO
    accounts (id, owner)
VALUES
    ($1, $2)
RETURNING id, owner, balance, is_premium, version, created_at
`

// Create opens an empty account with the given id for owner.
func (r *RepoPGS) Create(ctx context.Context, id int32, owner string) (domain.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, createQuery, id, owner))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "accounts_owner_fkey":
				return domain.Account{}, domain.ErrOwnerNotFound
			case "accounts_owner_key", "accounts_pkey":
				return domain.Account{}, domain.ErrAccountAlreadyExists
			}
		}

		return domain.Account{}, errorspkg.ErrInternal
	}

	return a, nil
}

const getQuery = `
SELECT
	id, owner, balance, is_premium, version, created_at
FROM accounts
WHERE id = $1
`

// Get returns the account with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int32) (domain.Account, error) {
	return r.getOne(ctx, getQuery, id)
}

const getByOwnerQuery = `
SELECT
	id, owner, balance, is_premium, version, created_at
FROM accounts
WHERE owner = $1
`

// GetByOwner returns the account of the given user.
func (r *RepoPGS) GetByOwner(ctx context.Context, owner string) (domain.Account, error) {
	return r.getOne(ctx, getByOwnerQuery, owner)
}

const getForUpdateQuery = `
SELECT
	id, owner, balance, is_premium, version, created_at
FROM accounts
WHERE id = $1
FOR UPDATE
`

// GetForUpdate returns the account with the given id and locks its row
// until the surrounding transaction ends.
func (r *RepoPGS) GetForUpdate(ctx context.Context, id int32) (domain.Account, error) {
	return r.getOne(ctx, getForUpdateQuery, id)
}

func (r *RepoPGS) getOne(ctx context.Context, query string, arg any) (domain.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrAccountNotFound
		}

		zerolog.Ctx(ctx).Error().Err(err).Send()

		return domain.Account{}, errorspkg.ErrInternal
	}

	return a, nil
}

const updateQuery = `
UPDATE accounts
SET balance = $1, is_premium = $2, version = version + 1
WHERE id = $3 AND version = $4
RETURNING id, owner, balance, is_premium, version, created_at
`

// Update saves balance and premium flag of a and returns the stored account.
//
// The row is written only if its version still equals a.Version.
func (r *RepoPGS) Update(ctx context.Context, a domain.Account) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	updated, err := scanAccount(r.db.QueryRowContext(ctx, updateQuery, a.Balance, a.IsPremium, a.ID, a.Version))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.Warn().Int32("account_id", a.ID).Int32("version", a.Version).Msg("stale account version")
			return domain.Account{}, domain.ErrConcurrentUpdate
		}

		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "accounts_balance_check" {
			return domain.Account{}, domain.ErrInsufficientFunds
		}

		return domain.Account{}, errorspkg.ErrInternal
	}

	return updated, nil
}
