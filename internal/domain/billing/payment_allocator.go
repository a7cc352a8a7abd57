package billing

import (
	"fmt"
	"sort"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentAllocation is the slice of one payment applied to one outflow
type PaymentAllocation struct {
	Outflow *Outflow
	Applied decimal.Decimal
	Payment *Payment
}

// PaymentAllocationResult is the outcome of distributing one payment
// across the caller-selected bills.
type PaymentAllocationResult struct {
	Allocations []PaymentAllocation
}

// UpdatedOutflows returns the outflows touched by the allocation
func (r *PaymentAllocationResult) UpdatedOutflows() []*Outflow {
	outflows := make([]*Outflow, 0, len(r.Allocations))
	for _, a := range r.Allocations {
		outflows = append(outflows, a.Outflow)
	}
	return outflows
}

// Payments returns the audit rows created by the allocation
func (r *PaymentAllocationResult) Payments() []*Payment {
	payments := make([]*Payment, 0, len(r.Allocations))
	for _, a := range r.Allocations {
		payments = append(payments, a.Payment)
	}
	return payments
}

// AllocatePayment distributes one payment across the caller-selected
// outflows, oldest debt first (ties broken by outflow ID for a stable,
// reproducible order). Each bill absorbs at most its balance due; every
// bill touched gets its own independently auditable payment record. Only
// bills with an outstanding balance participate. A payment larger than the
// sum of the selected dues is rejected with EXCESS_PAYMENT before anything
// is applied; the leftover is never silently parked elsewhere.
func AllocatePayment(
	amount decimal.Decimal,
	method PaymentMethod,
	notes string,
	selected []*Outflow,
) (*PaymentAllocationResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid payment method")
	}

	outstanding := make([]*Outflow, 0, len(selected))
	totalDue := decimal.Zero
	for _, o := range selected {
		if o.IsOutstanding() {
			outstanding = append(outstanding, o)
			totalDue = totalDue.Add(o.BalanceDue)
		}
	}
	if amount.GreaterThan(totalDue) {
		return nil, shared.NewDomainError(shared.CodeExcessPayment,
			fmt.Sprintf("Payment %s exceeds the selected outstanding dues %s",
				amount.String(), totalDue.String()))
	}

	sort.SliceStable(outstanding, func(i, j int) bool {
		if outstanding[i].BilledAt.Equal(outstanding[j].BilledAt) {
			return outstanding[i].ID.String() < outstanding[j].ID.String()
		}
		return outstanding[i].BilledAt.Before(outstanding[j].BilledAt)
	})

	remaining := amount
	allocations := make([]PaymentAllocation, 0, len(outstanding))
	for _, o := range outstanding {
		if remaining.IsZero() {
			break
		}
		applied := decimal.Min(o.BalanceDue, remaining)
		record, err := o.ApplyPayment(applied, method, notes)
		if err != nil {
			return nil, err
		}
		remaining = remaining.Sub(applied)
		allocations = append(allocations, PaymentAllocation{
			Outflow: o,
			Applied: applied,
			Payment: NewPayment(o, record),
		})
	}

	return &PaymentAllocationResult{Allocations: allocations}, nil
}
