// Package finance computes the derived figures of a purchase simulation.
package finance

import (
	"github.com/phrazzld/amora-planner/internal/domain"
	"github.com/shopspring/decimal"
)

// Policy constants.
var (
	// SavingsTargetRate is the share of the property value a buyer is advised to
	// save, independent of the down payment.
	SavingsTargetRate = decimal.RequireFromString("0.15")

	// MoneyPlaces is the precision derived amounts are rounded to (cents).
	MoneyPlaces int32 = 2
)

var (
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
)

// Derive computes the four derived figures of a simulation.
//
// Parameters:
//   - propertyValue: the purchase price, expected to be positive
//   - downPaymentPct: the down payment as a percentage in [0,100]
//   - termYears: the contract term in years, expected in [1,30]
//
// Returns:
//   - DownPaymentAmount: propertyValue × downPaymentPct / 100, rounded to cents
//   - FinancingAmount: propertyValue − DownPaymentAmount
//   - SavingsTarget: propertyValue × SavingsTargetRate, rounded to cents
//   - MonthlySavings: the unrounded savings target spread over termYears × 12
//     months, rounded to cents; 0 when termYears is 0
//
// Behavior:
//   - Derive is total. Callers range-check inputs first (SimulationInput.Validate);
//     out-of-range values still produce a result rather than a panic.
//   - FinancingAmount is taken from the rounded down payment, so
//     DownPaymentAmount + FinancingAmount equals propertyValue exactly.
//   - Rounding is half away from zero.
func Derive(propertyValue, downPaymentPct decimal.Decimal, termYears int) domain.Derived {
	downPayment := propertyValue.Mul(downPaymentPct).Div(hundred).Round(MoneyPlaces)
	financing := propertyValue.Sub(downPayment)

	target := propertyValue.Mul(SavingsTargetRate)

	monthly := decimal.Zero
	if termYears > 0 {
		months := decimal.NewFromInt(int64(termYears)).Mul(monthsInYear)
		monthly = target.Div(months).Round(MoneyPlaces)
	}

	return domain.Derived{
		DownPaymentAmount: downPayment,
		FinancingAmount:   financing,
		SavingsTarget:     target.Round(MoneyPlaces),
		MonthlySavings:    monthly,
	}
}

// DeriveInput is Derive over a SimulationInput.
func DeriveInput(in domain.SimulationInput) domain.Derived {
	return Derive(in.PropertyValue, in.DownPaymentPct, in.TermYears)
}

// Calculate builds a non-persisted preview for in.
func Calculate(in domain.SimulationInput) domain.Calculation {
	return domain.Calculation{Input: in, Values: DeriveInput(in)}
}

// Statistics aggregates a collection with the same formulas the backend applies:
// the sum of property values and the mean down-payment percentage and term,
// each rounded to two places. An empty collection yields all zeros.
func Statistics(sims []domain.Simulation) domain.Statistics {
	if len(sims) == 0 {
		return domain.Statistics{
			TotalPropertyValue:    decimal.Zero,
			AverageDownPaymentPct: decimal.Zero,
			AverageTermYears:      decimal.Zero,
		}
	}

	totalValue := decimal.Zero
	totalPct := decimal.Zero
	totalYears := 0
	for _, s := range sims {
		totalValue = totalValue.Add(s.PropertyValue)
		totalPct = totalPct.Add(s.DownPaymentPct)
		totalYears += s.TermYears
	}

	n := decimal.NewFromInt(int64(len(sims)))
	return domain.Statistics{
		TotalSimulations:      len(sims),
		TotalPropertyValue:    totalValue.Round(MoneyPlaces),
		AverageDownPaymentPct: totalPct.Div(n).Round(2),
		AverageTermYears:      decimal.NewFromInt(int64(totalYears)).Div(n).Round(2),
	}
}
