package transactionservice

import (
	"time"

	"github.com/go-petr/bibliotech/internal/domain"
)

// settle applies the pending transaction t to account and moves t to its
// terminal status. A debit larger than the balance fails and leaves the
// account untouched.
func settle(account domain.Account, t domain.Transaction, at time.Time) (domain.Account, domain.Transaction, error) {
	switch {
	case !t.Type.IsDebit():
		account.Balance = account.Balance.Add(t.Amount)
	case account.Balance.LessThan(t.Amount):
		err := t.Fail(at, domain.MetadataInsufficientFunds)
		return account, t, err
	default:
		account.Balance = account.Balance.Sub(t.Amount)

		if t.Type == domain.TransactionSubscription {
			account.IsPremium = true
		}
	}

	err := t.Complete(at)

	return account, t, err
}
