package billing

import (
	"time"

	"github.com/granary/backend/internal/domain/shared"
	"github.com/granary/backend/internal/domain/storage"
	"github.com/shopspring/decimal"
)

// Bill is the result of a billing computation: the cost components of a
// withdrawal before any payment is applied. All figures are snapshots;
// later rate card edits never change them.
type Bill struct {
	Months          int
	CostPerBag      decimal.Decimal // rate actually charged (override or computed)
	ComputedPerBag  decimal.Decimal // rate the schedule produced, kept for audit
	StorageCost     decimal.Decimal
	InsuranceCharge decimal.Decimal
	LabourCharge    decimal.Decimal
	Total           decimal.Decimal
}

// Overridden reports whether an operator-supplied rate replaced the
// computed one.
func (b *Bill) Overridden() bool {
	return !b.CostPerBag.Equal(b.ComputedPerBag)
}

// ComputeBill computes the bill for withdrawing quantity bags from an
// inflow as of the given time.
//
// The per-bag storage rate comes from the crop's rate card via the tiered
// schedule; an operator may supply costPerBagOverride to replace it for
// the storage cost only (an auditable negotiated deviation). The reported
// months always reflect the computed duration. The labour charge is
// carried flat from the inflow: it was already multiplied by the intake
// quantity, so it never scales with the withdrawal.
//
// A request that withdraws nothing and bills nothing is rejected with
// NOTHING_TO_BILL; a zero-quantity request with a positive labour charge
// ("settle the bill without withdrawing stock") is valid.
func ComputeBill(
	inflow *storage.Inflow,
	cropType *storage.CropType,
	quantity decimal.Decimal,
	asOf time.Time,
	costPerBagOverride *decimal.Decimal,
) (*Bill, error) {
	if quantity.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Withdrawal quantity cannot be negative")
	}
	if inflow.CropTypeID != cropType.ID {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Crop type does not match the inflow")
	}

	months := StorageMonths(inflow.DateAdded, asOf)
	computed := StorageCostPerBag(months, cropType.Rates)

	perBag := computed
	if costPerBagOverride != nil {
		if costPerBagOverride.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Cost per bag override cannot be negative")
		}
		perBag = *costPerBagOverride
	}

	storageCost := perBag.Mul(quantity)
	insurance := cropType.InsurancePerBag.Mul(quantity)
	total := storageCost.Add(insurance).Add(inflow.LabourCharge)

	if total.LessThanOrEqual(decimal.Zero) && quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeNothingToBill,
			"Nothing to bill: zero quantity and zero charges")
	}

	return &Bill{
		Months:          months,
		CostPerBag:      perBag,
		ComputedPerBag:  computed,
		StorageCost:     storageCost,
		InsuranceCharge: insurance,
		LabourCharge:    inflow.LabourCharge,
		Total:           total,
	}, nil
}
