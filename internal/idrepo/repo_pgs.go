// Package idrepo reads persisted identifier maxima for the id allocator.
package idrepo

import (
	"context"
	"fmt"

	"github.com/go-petr/bibliotech/internal/domain"
	"github.com/go-petr/bibliotech/pkg/dbpkg"
	"github.com/go-petr/bibliotech/pkg/errorspkg"
	"github.com/rs/zerolog"
)

const (
	maxTransactionIDQuery = `SELECT COALESCE(MAX(transaction_id), 0) FROM transactions`
	maxAccountIDQuery     = `SELECT COALESCE(MAX(id), 0) FROM accounts`
)

// Table and column names never come from callers.
var maxQueries = map[domain.RecordClass]string{
	domain.RecordTransactions: maxTransactionIDQuery,
	domain.RecordAccounts:     maxAccountIDQuery,
}

// RepoPGS facilitates identifier repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns identifier RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// MaxID returns the largest identifier of class, zero for an empty table.
func (r *RepoPGS) MaxID(ctx context.Context, class domain.RecordClass) (int32, error) {
	query, ok := maxQueries[class]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownRecordClass, class)
	}

	var id int32
	if err := r.db.QueryRowContext(ctx, query).Scan(&id); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("class", string(class)).Send()
		return 0, errorspkg.ErrInternal
	}

	return id, nil
}
