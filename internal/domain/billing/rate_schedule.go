package billing

import (
	"time"

	"github.com/granary/backend/internal/domain/storage"
	"github.com/shopspring/decimal"
)

// monthlyTierLimit is the last month billed on the monthly rate; from the
// sixth month onward the yearly/half-yearly tiers apply.
const monthlyTierLimit = 5

// StorageMonths returns the billable storage duration in whole calendar
// months between dateAdded and asOf. Partial months are truncated and
// even a same-day withdrawal bills a minimum of one month.
func StorageMonths(dateAdded, asOf time.Time) int {
	if asOf.Before(dateAdded) {
		return 1
	}
	months := (asOf.Year()-dateAdded.Year())*12 + int(asOf.Month()) - int(dateAdded.Month())
	if asOf.Day() < dateAdded.Day() {
		months--
	}
	if months < 1 {
		return 1
	}
	return months
}

// StorageCostPerBag computes the per-bag storage cost for a duration from
// the crop's rate card:
//
//   - up to 5 months the monthly rate applies per month;
//   - beyond that, each whole year bills the yearly rate, and any leftover
//     months bill a single flat half-yearly block.
//
// The leftover block costs the same whether 1 or 11 months remain past the
// last whole year. That coarse policy is intentional and kept for
// compatibility with issued bills; it is under product-owner review.
func StorageCostPerBag(months int, rates storage.RateCard) decimal.Decimal {
	if months < 1 {
		months = 1
	}
	if months <= monthlyTierLimit {
		return rates.Monthly.Mul(decimal.NewFromInt(int64(months)))
	}

	years := months / 12
	remainder := months % 12

	cost := rates.Yearly.Mul(decimal.NewFromInt(int64(years)))
	if remainder > 0 {
		cost = cost.Add(rates.HalfYearly)
	}
	return cost
}
