// Package helpers provides random fixtures and db seeding for tests.
package helpers

import (
	"time"

	"github.com/go-petr/bibliotech/internal/domain"
	"github.com/go-petr/bibliotech/pkg/randompkg"
)

// RandomAccount returns random account owned by the given owner.
func RandomAccount(owner string) domain.Account {
	return domain.Account{
		ID:        randompkg.IntBetween(1, 100),
		Owner:     owner,
		Balance:   randompkg.MoneyAmountBetween(1000, 10_000),
		Version:   randompkg.IntBetween(1, 10),
		CreatedAt: time.Now().Truncate(time.Second).UTC(),
	}
}

// RandomTransaction returns random settled transaction of type typ for the account.
func RandomTransaction(accountID int32, typ domain.TransactionType) domain.Transaction {
	t := domain.Transaction{
		ID:        randompkg.IntBetween(1, 1000),
		AccountID: accountID,
		Type:      typ,
		Amount:    randompkg.MoneyAmountBetween(1, 100),
		Status:    domain.StatusCompleted,
		CreatedAt: time.Now().Truncate(time.Second).UTC(),
	}

	if typ.RequiresBook() {
		book := randompkg.BookID()
		t.BookID = &book
	}

	return t
}

// RandomUser returns random user without password.
func RandomUser() domain.UserWithoutPassword {
	return domain.UserWithoutPassword{
		Username:  randompkg.Owner(),
		FullName:  randompkg.String(10),
		Email:     randompkg.Email(),
		CreatedAt: time.Now().Truncate(time.Second).UTC(),
	}
}
