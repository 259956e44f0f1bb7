// Package accountservice manages business logic layer of wallet accounts.
package accountservice

import (
	"context"

	"github.com/go-petr/bibliotech/internal/domain"
	"github.com/rs/zerolog"
)

//go:generate mockgen -source service.go -destination service_mock.go -package accountservice

// Repo provides data access layer interface needed by account service layer.
type Repo interface {
	Create(ctx context.Context, id int32, owner string) (domain.Account, error)
	Get(ctx context.Context, id int32) (domain.Account, error)
	GetByOwner(ctx context.Context, owner string) (domain.Account, error)
}

// IDAllocator issues identifiers for new accounts.
type IDAllocator interface {
	Allocate(ctx context.Context, class domain.RecordClass) (int32, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo Repo
	ids  IDAllocator
}

// New returns account service struct to manage account business logic.
func New(ar Repo, ids IDAllocator) *Service {
	return &Service{
		repo: ar,
		ids:  ids,
	}
}

// Create opens an empty wallet for owner.
func (s *Service) Create(ctx context.Context, owner string) (domain.Account, error) {
	id, err := s.ids.Allocate(ctx, domain.RecordAccounts)
	if err != nil {
		return domain.Account{}, err
	}

	account, err := s.repo.Create(ctx, id, owner)
	if err != nil {
		return domain.Account{}, err
	}

	zerolog.Ctx(ctx).Info().Int32("account_id", account.ID).Str("owner", owner).Msg("account opened")

	return account, nil
}

// Get returns account for the given account ID.
func (s *Service) Get(ctx context.Context, id int32) (domain.Account, error) {
	return s.repo.Get(ctx, id)
}

// GetByOwner returns the wallet of the given user.
func (s *Service) GetByOwner(ctx context.Context, owner string) (domain.Account, error) {
	return s.repo.GetByOwner(ctx, owner)
}
