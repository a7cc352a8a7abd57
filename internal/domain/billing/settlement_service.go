package billing

import (
	"time"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/domain/storage"
	"github.com/shopspring/decimal"
)

// SettlementCommand carries the operator's input for one withdrawal
// settlement. A zero WithdrawQuantity with a positive labour charge on the
// inflow is a valid "pay only" settlement.
type SettlementCommand struct {
	WithdrawQuantity   decimal.Decimal
	AmountPaid         decimal.Decimal
	Method             PaymentMethod
	CostPerBagOverride *decimal.Decimal
	Notes              string
}

// SettlementResult is the outcome of a settlement: the new outflow bill,
// the audit rows for any payment made at the counter, and whether the
// inflow was fully withdrawn (and must be removed) or merely reduced.
type SettlementResult struct {
	Outflow       *Outflow
	Payments      []*Payment
	InflowRemoved bool
}

// SettlementEngine turns a withdrawal into a bill and the matching
// inventory mutation. It is a pure domain service: it operates on
// already-loaded snapshots and issues no I/O; the application layer
// persists the result transactionally.
type SettlementEngine struct{}

// NewSettlementEngine creates a settlement engine
func NewSettlementEngine() *SettlementEngine {
	return &SettlementEngine{}
}

// Settle processes a withdrawal against an inflow:
//
//  1. rejects quantities above the remaining stock (EXCEEDS_STOCK);
//  2. computes the bill from the crop's rate schedule as of asOf;
//  3. rejects payments above the bill total (OVER_PAYMENT);
//  4. creates the immutable outflow bill;
//  5. mutates the inflow: a full withdrawal marks it for removal, a
//     partial one drains allocations in ascending area-ID order; the
//     labour charge is zeroed either way, having been billed exactly once.
//
// On any error the inflow is left untouched.
func (e *SettlementEngine) Settle(
	inflow *storage.Inflow,
	cropType *storage.CropType,
	billNumber string,
	snapshot BillingSnapshot,
	cmd SettlementCommand,
	asOf time.Time,
) (*SettlementResult, error) {
	if cmd.WithdrawQuantity.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Withdrawal quantity cannot be negative")
	}
	remaining := inflow.TotalQuantity()
	if cmd.WithdrawQuantity.GreaterThan(remaining) {
		return nil, inflow.ExceedsStockError(cmd.WithdrawQuantity)
	}

	bill, err := ComputeBill(inflow, cropType, cmd.WithdrawQuantity, asOf, cmd.CostPerBagOverride)
	if err != nil {
		return nil, err
	}
	if cmd.AmountPaid.GreaterThan(bill.Total) {
		return nil, shared.NewDomainError(shared.CodeOverPayment,
			"Amount paid "+cmd.AmountPaid.String()+" exceeds the bill total "+bill.Total.String())
	}

	method := cmd.Method
	if method == "" {
		method = PaymentMethodCash
	}

	outflow, err := NewOutflow(
		inflow.TenantID,
		billNumber,
		inflow.ID,
		inflow.CustomerID,
		cropType.ID,
		cmd.WithdrawQuantity,
		bill,
		cmd.AmountPaid,
		method,
		asOf,
		snapshot,
	)
	if err != nil {
		return nil, err
	}

	fullWithdrawal := cmd.WithdrawQuantity.Equal(remaining) && remaining.IsPositive()
	if err := inflow.Withdraw(cmd.WithdrawQuantity); err != nil {
		return nil, err
	}
	if fullWithdrawal {
		inflow.AddDomainEvent(storage.NewInflowDepletedEvent(inflow))
	} else if cmd.WithdrawQuantity.IsPositive() {
		inflow.AddDomainEvent(storage.NewInflowWithdrawnEvent(inflow, cmd.WithdrawQuantity))
	}

	payments := make([]*Payment, 0, len(outflow.PaymentRecords))
	for i := range outflow.PaymentRecords {
		payments = append(payments, NewPayment(outflow, &outflow.PaymentRecords[i]))
	}

	return &SettlementResult{
		Outflow:       outflow,
		Payments:      payments,
		InflowRemoved: fullWithdrawal,
	}, nil
}
