// Package userservice manages business logic layer of users.
package userservice

import (
	"context"

	"github.com/go-petr/bibliotech/internal/domain"
	"github.com/go-petr/bibliotech/pkg/errorspkg"
	"github.com/go-petr/bibliotech/pkg/passpkg"
	"github.com/rs/zerolog"
)

//go:generate mockgen -source service.go -destination service_mock.go -package userservice

// Repo provides data access layer interface needed by user service layer.
type Repo interface {
	Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error)
	Get(ctx context.Context, username string) (domain.User, error)
}

// AccountOpener opens the wallet of a new user.
type AccountOpener interface {
	Create(ctx context.Context, owner string) (domain.Account, error)
}

// Service facilitates user service layer logic.
type Service struct {
	repo     Repo
	accounts AccountOpener
}

// New return user service struct to manage user business logic.
func New(ur Repo, accounts AccountOpener) *Service {
	return &Service{
		repo:     ur,
		accounts: accounts,
	}
}

// NewUserWithoutPassword returns user with removed sensitive data.
func NewUserWithoutPassword(u domain.User) domain.UserWithoutPassword {
	return domain.UserWithoutPassword{
		Username:  u.Username,
		FullName:  u.FullName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// Create creates the user and opens an empty wallet for it.
//
// A user whose wallet could not be opened is kept, the wallet can be opened later.
func (s *Service) Create(ctx context.Context, username, password, fullname, email string) (domain.UserWithoutPassword, error) {
	l := zerolog.Ctx(ctx)

	hashedPassword, err := passpkg.Hash(password)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.UserWithoutPassword{}, errorspkg.ErrInternal
	}

	arg := domain.CreateUserParams{
		Username:       username,
		HashedPassword: hashedPassword,
		FullName:       fullname,
		Email:          email,
	}

	user, err := s.repo.Create(ctx, arg)
	if err != nil {
		return domain.UserWithoutPassword{}, err
	}

	if _, err := s.accounts.Create(ctx, user.Username); err != nil {
		l.Error().Err(err).Str("username", user.Username).Msg("wallet not opened")
		return domain.UserWithoutPassword{}, err
	}

	return NewUserWithoutPassword(user), nil
}

// CheckPassword checks if the password is valid for the given username.
func (s *Service) CheckPassword(ctx context.Context, username, pass string) (domain.UserWithoutPassword, error) {
	user, err := s.repo.Get(ctx, username)
	if err != nil {
		return domain.UserWithoutPassword{}, err
	}

	if err := passpkg.Check(pass, user.HashedPassword); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Send()
		return domain.UserWithoutPassword{}, domain.ErrWrongPassword
	}

	return NewUserWithoutPassword(user), nil
}
