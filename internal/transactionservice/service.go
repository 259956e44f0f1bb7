// Package transactionservice manages business logic layer of the wallet ledger.
package transactionservice

import (
	"context"
	"math"
	"time"

	"github.com/go-petr/bibliotech/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source service.go -destination service_mock.go -package transactionservice

// Store provides data access layer interface needed by transaction service layer.
type Store interface {
	// Settle locks the account, runs settle on it and persists the outcome atomically.
	Settle(
		ctx context.Context,
		accountID int32,
		settle func(domain.Account) (domain.Account, domain.Transaction, error),
	) (domain.Account, domain.Transaction, error)
	Get(ctx context.Context, id int32) (domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID, limit, offset int32) ([]domain.Transaction, error)
	ListPurchasedBooks(ctx context.Context, accountID int32) ([]int32, error)
}

// IDAllocator issues identifiers for new transactions.
type IDAllocator interface {
	Allocate(ctx context.Context, class domain.RecordClass) (int32, error)
}

// Publisher announces settled transactions.
type Publisher interface {
	Publish(ctx context.Context, event domain.LedgerEvent) error
}

// Service facilitates transaction service layer logic.
type Service struct {
	store  Store
	ids    IDAllocator
	events Publisher
	now    func() time.Time
}

// New returns transaction service struct to manage wallet ledger business logic.
func New(store Store, ids IDAllocator, events Publisher) *Service {
	return &Service{
		store:  store,
		ids:    ids,
		events: events,
		now:    time.Now,
	}
}

// Deposit adds money to the account.
func (s *Service) Deposit(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	arg.Type = domain.TransactionDeposit
	return s.execute(ctx, arg)
}

// Withdraw takes money from the account. A withdrawal larger than the balance
// is recorded as FAILED and the balance is left as is.
func (s *Service) Withdraw(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	arg.Type = domain.TransactionWithdrawal
	return s.execute(ctx, arg)
}

// Purchase charges the account for buying a book.
func (s *Service) Purchase(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	arg.Type = domain.TransactionPurchase
	return s.execute(ctx, arg)
}

// Rent charges the account for renting a book.
func (s *Service) Rent(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	arg.Type = domain.TransactionRental
	return s.execute(ctx, arg)
}

// Refund returns money for a book to the account.
func (s *Service) Refund(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	arg.Type = domain.TransactionRefund
	return s.execute(ctx, arg)
}

// Subscribe charges the subscription fee and makes the account premium.
func (s *Service) Subscribe(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	arg.Type = domain.TransactionSubscription
	return s.execute(ctx, arg)
}

// Process runs the operation named by arg.Type.
func (s *Service) Process(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	switch arg.Type {
	case domain.TransactionDeposit:
		return s.Deposit(ctx, arg)
	case domain.TransactionWithdrawal:
		return s.Withdraw(ctx, arg)
	case domain.TransactionPurchase:
		return s.Purchase(ctx, arg)
	case domain.TransactionRental:
		return s.Rent(ctx, arg)
	case domain.TransactionRefund:
		return s.Refund(ctx, arg)
	case domain.TransactionSubscription:
		return s.Subscribe(ctx, arg)
	}

	zerolog.Ctx(ctx).Info().Str("type", string(arg.Type)).Msg("unsupported transaction type")

	return domain.Transaction{}, domain.ErrUnsupportedType
}

// Get returns the transaction with the given id.
func (s *Service) Get(ctx context.Context, id int32) (domain.Transaction, error) {
	return s.store.Get(ctx, id)
}

// ListByAccount returns the pageID page of the account transactions, newest first.
// Pages are numbered from 1.
func (s *Service) ListByAccount(ctx context.Context, accountID, pageSize, pageID int32) ([]domain.Transaction, error) {
	if pageSize < 1 || pageID < 1 {
		return nil, domain.ErrInvalidPage
	}

	offset := (int64(pageID) - 1) * int64(pageSize)
	if offset > math.MaxInt32 {
		zerolog.Ctx(ctx).Info().Int32("page_id", pageID).Int32("page_size", pageSize).Msg("page out of range")
		return nil, domain.ErrInvalidPage
	}

	return s.store.ListByAccount(ctx, accountID, pageSize, int32(offset))
}

// PurchasedBooks returns ids of the books the account has bought.
func (s *Service) PurchasedBooks(ctx context.Context, accountID int32) ([]int32, error) {
	return s.store.ListPurchasedBooks(ctx, accountID)
}

func (s *Service) validate(ctx context.Context, arg domain.CreateTransactionParams) (decimal.Decimal, error) {
	l := zerolog.Ctx(ctx)

	amount, err := decimal.NewFromString(arg.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		return decimal.Decimal{}, domain.ErrInvalidAmount
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		l.Info().Str("amount", arg.Amount).Msg("non-positive amount")
		return decimal.Decimal{}, domain.ErrNonPositiveAmount
	}

	if arg.AccountID <= 0 {
		return decimal.Decimal{}, domain.ErrInvalidAccountID
	}

	if !arg.Type.Valid() {
		return decimal.Decimal{}, domain.ErrUnsupportedType
	}

	if arg.Type.RequiresBook() && (arg.BookID == nil || *arg.BookID <= 0) {
		return decimal.Decimal{}, domain.ErrBookRequired
	}

	return amount, nil
}

func (s *Service) execute(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	amount, err := s.validate(ctx, arg)
	if err != nil {
		return domain.Transaction{}, err
	}

	id := arg.ID
	if id == 0 {
		id, err = s.ids.Allocate(ctx, domain.RecordTransactions)
		if err != nil {
			return domain.Transaction{}, err
		}
	}

	pending := domain.Transaction{
		ID:        id,
		AccountID: arg.AccountID,
		BookID:    arg.BookID,
		Type:      arg.Type,
		Amount:    amount,
		Status:    domain.StatusPending,
		Metadata:  arg.Metadata,
	}

	account, t, err := s.store.Settle(ctx, arg.AccountID, func(a domain.Account) (domain.Account, domain.Transaction, error) {
		return settle(a, pending, s.now().UTC())
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	l.Info().
		Int32("transaction_id", t.ID).
		Int32("account_id", t.AccountID).
		Str("type", string(t.Type)).
		Str("status", string(t.Status)).
		Msg("transaction settled")

	event := domain.LedgerEvent{
		TransactionID: t.ID,
		AccountID:     t.AccountID,
		BookID:        t.BookID,
		Type:          t.Type,
		Status:        t.Status,
		Amount:        t.Amount,
		Balance:       account.Balance,
		Metadata:      t.Metadata,
		SettledAt:     t.CreatedAt,
	}

	if err := s.events.Publish(ctx, event); err != nil {
		l.Warn().Err(err).Int32("transaction_id", t.ID).Msg("ledger event not published")
	}

	return t, nil
}
