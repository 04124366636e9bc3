package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retail-erp/backend/internal/domain/partner"
	"github.com/retail-erp/backend/internal/domain/shared"
)

// PayDebtRequest records money received against a customer's debt
type PayDebtRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
	CreatedBy string          `json:"created_by"`
}

// AddDebtRequest books manual debt outside of checkout
type AddDebtRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
	CreatedBy string          `json:"created_by"`
}

// DebtTransactionResponse mirrors one debt ledger row
type DebtTransactionResponse struct {
	ID            uuid.UUID                   `json:"id"`
	Type          partner.DebtTransactionType `json:"type"`
	Amount        decimal.Decimal             `json:"amount"`
	BalanceBefore decimal.Decimal             `json:"balance_before"`
	BalanceAfter  decimal.Decimal             `json:"balance_after"`
	Note          string                      `json:"note"`
	CreatedBy     string                      `json:"created_by"`
	OccurredAt    time.Time                   `json:"occurred_at"`
}

// CustomerBalanceResponse summarizes a customer's credit position
type CustomerBalanceResponse struct {
	CustomerID      uuid.UUID       `json:"customer_id"`
	CurrentDebt     decimal.Decimal `json:"current_debt"`
	AdvanceBalance  decimal.Decimal `json:"advance_balance"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
}

// DebtService manages the customer debt ledger
type DebtService struct {
	scope  TransactionScope
	clock  shared.Clock
	logger *zap.Logger
}

// NewDebtService creates a new DebtService
func NewDebtService(scope TransactionScope, clock shared.Clock, logger *zap.Logger) *DebtService {
	return &DebtService{
		scope:  scope,
		clock:  clock,
		logger: logger,
	}
}

// PayDebt settles customer debt; any excess lands in the advance balance
func (s *DebtService) PayDebt(ctx context.Context, customerID uuid.UUID, req PayDebtRequest) (*CustomerBalanceResponse, error) {
	var response *CustomerBalanceResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		customer, err := repos.CustomerRepo().FindForUpdate(ctx, customerID)
		if err != nil {
			return err
		}

		balanceBefore := customer.CurrentDebt
		if err := customer.PayDebt(req.Amount); err != nil {
			return err
		}

		debtTx, err := partner.NewDebtTransaction(
			customer.ID, partner.DebtTransactionTypePayment, req.Amount,
			balanceBefore, customer.CurrentDebt,
			partner.DebtSourceManual(), req.CreatedBy, s.clock.Now(),
		)
		if err != nil {
			return err
		}
		debtTx.Note = req.Note

		if err := repos.DebtRepo().Save(ctx, debtTx); err != nil {
			return err
		}
		if err := repos.CustomerRepo().SaveWithLock(ctx, customer); err != nil {
			return err
		}

		response = toBalanceResponse(customer)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// AddDebt books manual debt, honoring the customer's credit limit
func (s *DebtService) AddDebt(ctx context.Context, customerID uuid.UUID, req AddDebtRequest) (*CustomerBalanceResponse, error) {
	var response *CustomerBalanceResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		customer, err := repos.CustomerRepo().FindForUpdate(ctx, customerID)
		if err != nil {
			return err
		}

		balanceBefore := customer.CurrentDebt
		if err := customer.AddDebt(req.Amount); err != nil {
			return err
		}

		debtTx, err := partner.NewDebtTransaction(
			customer.ID, partner.DebtTransactionTypeDebt, req.Amount,
			balanceBefore, customer.CurrentDebt,
			partner.DebtSourceManual(), req.CreatedBy, s.clock.Now(),
		)
		if err != nil {
			return err
		}
		debtTx.Note = req.Note

		if err := repos.DebtRepo().Save(ctx, debtTx); err != nil {
			return err
		}
		if err := repos.CustomerRepo().SaveWithLock(ctx, customer); err != nil {
			return err
		}

		response = toBalanceResponse(customer)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// GetLedger returns the customer's debt ledger in chronological order
func (s *DebtService) GetLedger(ctx context.Context, customerID uuid.UUID) ([]DebtTransactionResponse, error) {
	var rows []partner.DebtTransaction
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		rows, err = repos.DebtRepo().FindByCustomer(ctx, customerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	responses := make([]DebtTransactionResponse, 0, len(rows))
	for _, tx := range rows {
		responses = append(responses, DebtTransactionResponse{
			ID:            tx.ID,
			Type:          tx.Type,
			Amount:        tx.Amount,
			BalanceBefore: tx.BalanceBefore,
			BalanceAfter:  tx.BalanceAfter,
			Note:          tx.Note,
			CreatedBy:     tx.CreatedBy,
			OccurredAt:    tx.OccurredAt,
		})
	}
	return responses, nil
}

// VerifyLedger replays the ledger and checks it against the stored balance.
// A mismatch is logged and reported; it means a write bypassed the ledger.
func (s *DebtService) VerifyLedger(ctx context.Context, customerID uuid.UUID) (bool, error) {
	var consistent bool
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		customer, err := repos.CustomerRepo().FindByID(ctx, customerID)
		if err != nil {
			return err
		}
		rows, err := repos.DebtRepo().FindByCustomer(ctx, customerID)
		if err != nil {
			return err
		}

		replayed := decimal.Zero
		for i := range rows {
			replayed = replayed.Add(rows[i].DebtDelta())
		}

		consistent = replayed.Equal(customer.CurrentDebt)
		if !consistent {
			s.logger.Error("debt ledger does not reproduce current debt",
				zap.String("customer_id", customerID.String()),
				zap.String("replayed", replayed.String()),
				zap.String("current_debt", customer.CurrentDebt.String()))
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return consistent, nil
}

// GetBalance returns the customer's credit position
func (s *DebtService) GetBalance(ctx context.Context, customerID uuid.UUID) (*CustomerBalanceResponse, error) {
	var response *CustomerBalanceResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		customer, err := repos.CustomerRepo().FindByID(ctx, customerID)
		if err != nil {
			return err
		}
		response = toBalanceResponse(customer)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

func toBalanceResponse(customer *partner.Customer) *CustomerBalanceResponse {
	return &CustomerBalanceResponse{
		CustomerID:      customer.ID,
		CurrentDebt:     customer.CurrentDebt,
		AdvanceBalance:  customer.AdvanceBalance,
		CreditLimit:     customer.CreditLimit,
		AvailableCredit: customer.AvailableCredit(),
	}
}
