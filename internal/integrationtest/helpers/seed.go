package helpers

import (
	"context"
	"testing"

	"github.com/go-petr/bibliotech/internal/accountrepo"
	"github.com/go-petr/bibliotech/internal/domain"
	"github.com/go-petr/bibliotech/internal/userrepo"
	"github.com/go-petr/bibliotech/pkg/dbpkg"
	"github.com/go-petr/bibliotech/pkg/passpkg"
	"github.com/go-petr/bibliotech/pkg/randompkg"
)

// SeedUser creates random User inside a test transaction.
func SeedUser(t *testing.T, tx dbpkg.SQLInterface) domain.User {
	t.Helper()

	hashedPassword, err := passpkg.Hash(randompkg.String(32))
	if err != nil {
		t.Fatalf("passpkg.Hash(randompkg.String(32)) returned error: %v", err)
	}

	arg := domain.CreateUserParams{
		Username:       randompkg.Owner(),
		HashedPassword: hashedPassword,
		FullName:       randompkg.String(10),
		Email:          randompkg.Email(),
	}

	user, err := userrepo.NewRepoPGS(tx).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("userRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return user
}

// SeedAccount opens an empty wallet with the given id for username.
func SeedAccount(t *testing.T, tx dbpkg.SQLInterface, id int32, username string) domain.Account {
	t.Helper()

	account, err := accountrepo.NewRepoPGS(tx).Create(context.Background(), id, username)
	if err != nil {
		t.Fatalf("accountRepo.Create(context.Background(), %v, %v) returned error: %v", id, username, err)
	}

	return account
}
