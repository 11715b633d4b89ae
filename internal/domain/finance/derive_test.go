package finance

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/phrazzld/amora-planner/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDeriveScenario(t *testing.T) {
	got := Derive(dec("500000"), dec("20"), 25)

	assert.True(t, got.DownPaymentAmount.Equal(dec("100000")), "down payment: %s", got.DownPaymentAmount)
	assert.True(t, got.FinancingAmount.Equal(dec("400000")), "financing: %s", got.FinancingAmount)
	assert.True(t, got.SavingsTarget.Equal(dec("75000")), "savings target: %s", got.SavingsTarget)
	assert.True(t, got.MonthlySavings.Equal(dec("250")), "monthly: %s", got.MonthlySavings)
}

func TestDeriveZeroYears(t *testing.T) {
	got := Derive(dec("300000"), dec("10"), 0)
	assert.True(t, got.MonthlySavings.IsZero())
	assert.True(t, got.SavingsTarget.Equal(dec("45000")))
}

func TestDeriveRounding(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		pct       string
		years     int
		down      string
		financing string
		target    string
		monthly   string
	}{
		{"fractional percentage", "333333.33", "12.5", 30, "41666.67", "291666.66", "50000.00", "138.89"},
		{"full down payment", "250000", "100", 10, "250000", "0", "37500", "312.5"},
		{"no down payment", "180000", "0", 15, "0", "180000", "27000", "150"},
		{"one year", "120000", "33.33", 1, "39996", "80004", "18000", "1500"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Derive(dec(tc.value), dec(tc.pct), tc.years)
			assert.True(t, got.DownPaymentAmount.Equal(dec(tc.down)), "down payment: %s", got.DownPaymentAmount)
			assert.True(t, got.FinancingAmount.Equal(dec(tc.financing)), "financing: %s", got.FinancingAmount)
			assert.True(t, got.SavingsTarget.Equal(dec(tc.target)), "target: %s", got.SavingsTarget)
			assert.True(t, got.MonthlySavings.Equal(dec(tc.monthly)), "monthly: %s", got.MonthlySavings)
		})
	}
}

// TestDeriveProperties checks the sum and savings-target invariants over random inputs.
func TestDeriveProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		cents := rng.Int63n(5_000_000_000) + 1
		value := decimal.New(cents, -2)
		pct := decimal.New(rng.Int63n(10001), -2)
		years := rng.Intn(30) + 1

		got := Derive(value, pct, years)
		label := fmt.Sprintf("value=%s pct=%s years=%d", value, pct, years)

		assert.True(t, got.DownPaymentAmount.Add(got.FinancingAmount).Equal(value), "sum drift: %s", label)
		assert.True(t, got.SavingsTarget.Equal(value.Mul(SavingsTargetRate).Round(MoneyPlaces)), "target: %s", label)
		assert.False(t, got.FinancingAmount.IsNegative(), "financing negative: %s", label)
		assert.False(t, got.MonthlySavings.IsNegative(), "monthly: %s", label)
	}
}

func TestStatistics(t *testing.T) {
	t.Run("empty collection", func(t *testing.T) {
		stats := Statistics(nil)
		assert.Equal(t, 0, stats.TotalSimulations)
		assert.True(t, stats.TotalPropertyValue.IsZero())
		assert.True(t, stats.AverageDownPaymentPct.IsZero())
		assert.True(t, stats.AverageTermYears.IsZero())
	})

	t.Run("averages are rounded", func(t *testing.T) {
		sims := []domain.Simulation{
			{PropertyValue: dec("100000"), DownPaymentPct: dec("10"), TermYears: 10},
			{PropertyValue: dec("200000"), DownPaymentPct: dec("20"), TermYears: 20},
			{PropertyValue: dec("300000.5"), DownPaymentPct: dec("25"), TermYears: 25},
		}
		stats := Statistics(sims)
		assert.Equal(t, 3, stats.TotalSimulations)
		assert.True(t, stats.TotalPropertyValue.Equal(dec("600000.5")))
		assert.True(t, stats.AverageDownPaymentPct.Equal(dec("18.33")), "avg pct: %s", stats.AverageDownPaymentPct)
		assert.True(t, stats.AverageTermYears.Equal(dec("18.33")), "avg years: %s", stats.AverageTermYears)
	})
}

func TestCalculate(t *testing.T) {
	in := domain.SimulationInput{PropertyValue: dec("500000"), DownPaymentPct: dec("20"), TermYears: 25}
	calc := Calculate(in)
	assert.Equal(t, in, calc.Input)
	assert.True(t, calc.Values.MonthlySavings.Equal(dec("250")))
}
