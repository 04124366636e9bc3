package partner

import (
	"context"

	"github.com/retail-erp/backend/internal/domain/partner"
)

// TransactionScope provides transactional access to the partner repositories.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories scoped to the current
// transaction.
type TransactionalRepositories interface {
	CustomerRepo() partner.CustomerRepository
	DebtRepo() partner.DebtTransactionRepository
}

// NoOpTransactionScope runs the function without a real transaction. Test
// helper: the fakes behind it keep their state in memory.
type NoOpTransactionScope struct {
	Customers partner.CustomerRepository
	Debts     partner.DebtTransactionRepository
}

// Execute runs the function directly against the configured repositories.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// CustomerRepo returns the customer repository.
func (s *NoOpTransactionScope) CustomerRepo() partner.CustomerRepository { return s.Customers }

// DebtRepo returns the debt transaction repository.
func (s *NoOpTransactionScope) DebtRepo() partner.DebtTransactionRepository { return s.Debts }
