package wire

import (
	"github.com/phrazzld/amora-planner/internal/domain"
	"github.com/shopspring/decimal"
)

func toDec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// SimulationToDomain converts a backend record to the internal schema.
//
// The wire schema has no display name. Name is synthesized with
// domain.SimulationName: the property address when present and non-blank,
// otherwise "Simulação <id>".
func SimulationToDomain(s Simulation) domain.Simulation {
	return domain.Simulation{
		ID:             s.ID,
		UserID:         s.UserID,
		Name:           domain.SimulationName(s.ID, s.PropertyAddress),
		PropertyValue:  toDec(s.PropertyValue),
		DownPaymentPct: toDec(s.DownPaymentPercentage),
		TermYears:      s.ContractYears,
		Address:        s.PropertyAddress,
		PropertyType:   s.PropertyType,
		Notes:          s.Notes,
		Derived: domain.Derived{
			DownPaymentAmount: toDec(s.DownPaymentAmount),
			FinancingAmount:   toDec(s.FinancingAmount),
			SavingsTarget:     toDec(s.TotalToSave),
			MonthlySavings:    toDec(s.MonthlySavings),
		},
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// SimulationFromDomain converts an internal record to the wire schema. Name has
// no wire counterpart and is dropped.
func SimulationFromDomain(s domain.Simulation) Simulation {
	return Simulation{
		ID:                    s.ID,
		UserID:                s.UserID,
		PropertyValue:         toFloat(s.PropertyValue),
		DownPaymentPercentage: toFloat(s.DownPaymentPct),
		ContractYears:         s.TermYears,
		PropertyAddress:       s.Address,
		PropertyType:          s.PropertyType,
		Notes:                 s.Notes,
		DownPaymentAmount:     toFloat(s.DownPaymentAmount),
		FinancingAmount:       toFloat(s.FinancingAmount),
		TotalToSave:           toFloat(s.SavingsTarget),
		MonthlySavings:        toFloat(s.MonthlySavings),
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}

// SimulationsToDomain converts a slice of backend records.
func SimulationsToDomain(in []Simulation) []domain.Simulation {
	out := make([]domain.Simulation, 0, len(in))
	for _, s := range in {
		out = append(out, SimulationToDomain(s))
	}
	return out
}

// SimulationsFromDomain converts a slice of internal records.
func SimulationsFromDomain(in []domain.Simulation) []Simulation {
	out := make([]Simulation, 0, len(in))
	for _, s := range in {
		out = append(out, SimulationFromDomain(s))
	}
	return out
}

// CreateFromInput builds a create (or calculate) body.
func CreateFromInput(in domain.SimulationInput) SimulationCreate {
	return SimulationCreate{
		PropertyValue:         toFloat(in.PropertyValue),
		DownPaymentPercentage: toFloat(in.DownPaymentPct),
		ContractYears:         in.TermYears,
		PropertyAddress:       in.Address,
		PropertyType:          in.PropertyType,
		Notes:                 in.Notes,
	}
}

// InputFromCreate is the inverse of CreateFromInput.
func InputFromCreate(c SimulationCreate) domain.SimulationInput {
	return domain.SimulationInput{
		PropertyValue:  toDec(c.PropertyValue),
		DownPaymentPct: toDec(c.DownPaymentPercentage),
		TermYears:      c.ContractYears,
		Address:        c.PropertyAddress,
		PropertyType:   c.PropertyType,
		Notes:          c.Notes,
	}
}

// UpdateFromPatch builds a partial update body carrying only the set fields.
func UpdateFromPatch(p domain.SimulationPatch) SimulationUpdate {
	u := SimulationUpdate{
		ContractYears:   p.TermYears,
		PropertyAddress: p.Address,
		PropertyType:    p.PropertyType,
		Notes:           p.Notes,
	}
	if p.PropertyValue != nil {
		v := toFloat(*p.PropertyValue)
		u.PropertyValue = &v
	}
	if p.DownPaymentPct != nil {
		v := toFloat(*p.DownPaymentPct)
		u.DownPaymentPercentage = &v
	}
	return u
}

// PatchFromUpdate is the inverse of UpdateFromPatch.
func PatchFromUpdate(u SimulationUpdate) domain.SimulationPatch {
	p := domain.SimulationPatch{
		TermYears:    u.ContractYears,
		Address:      u.PropertyAddress,
		PropertyType: u.PropertyType,
		Notes:        u.Notes,
	}
	if u.PropertyValue != nil {
		v := toDec(*u.PropertyValue)
		p.PropertyValue = &v
	}
	if u.DownPaymentPercentage != nil {
		v := toDec(*u.DownPaymentPercentage)
		p.DownPaymentPct = &v
	}
	return p
}

// UserToDomain converts a backend account.
func UserToDomain(u User) domain.User {
	return domain.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserFromDomain converts an internal account.
func UserFromDomain(u domain.User) User {
	return User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// RegistrationToWire builds a register body.
func RegistrationToWire(r domain.Registration) UserCreate {
	return UserCreate{Email: r.Email, Name: r.Name, Password: r.Password}
}

// RegistrationFromWire is the inverse of RegistrationToWire.
func RegistrationFromWire(u UserCreate) domain.Registration {
	return domain.Registration{Email: u.Email, Name: u.Name, Password: u.Password}
}

// CalculationToDomain converts a calculate response.
func CalculationToDomain(c Calculation) domain.Calculation {
	return domain.Calculation{
		Input: domain.SimulationInput{
			PropertyValue:  toDec(c.Input.PropertyValue),
			DownPaymentPct: toDec(c.Input.DownPaymentPercentage),
			TermYears:      c.Input.ContractYears,
		},
		Values: domain.Derived{
			DownPaymentAmount: toDec(c.CalculatedValues.DownPaymentAmount),
			FinancingAmount:   toDec(c.CalculatedValues.FinancingAmount),
			SavingsTarget:     toDec(c.CalculatedValues.TotalToSave),
			MonthlySavings:    toDec(c.CalculatedValues.MonthlySavings),
		},
	}
}

// CalculationFromDomain converts a calculation preview.
func CalculationFromDomain(c domain.Calculation) Calculation {
	return Calculation{
		Input: CalculationInput{
			PropertyValue:         toFloat(c.Input.PropertyValue),
			DownPaymentPercentage: toFloat(c.Input.DownPaymentPct),
			ContractYears:         c.Input.TermYears,
		},
		CalculatedValues: CalculatedValues{
			DownPaymentAmount: toFloat(c.Values.DownPaymentAmount),
			FinancingAmount:   toFloat(c.Values.FinancingAmount),
			TotalToSave:       toFloat(c.Values.SavingsTarget),
			MonthlySavings:    toFloat(c.Values.MonthlySavings),
		},
	}
}

// StatisticsToDomain converts a statistics response.
func StatisticsToDomain(s Statistics) domain.Statistics {
	return domain.Statistics{
		TotalSimulations:      s.TotalSimulations,
		TotalPropertyValue:    toDec(s.TotalPropertyValue),
		AverageDownPaymentPct: toDec(s.AverageDownPaymentPercentage),
		AverageTermYears:      toDec(s.AverageContractYears),
	}
}

// StatisticsFromDomain converts an aggregate.
func StatisticsFromDomain(s domain.Statistics) Statistics {
	return Statistics{
		TotalSimulations:             s.TotalSimulations,
		TotalPropertyValue:           toFloat(s.TotalPropertyValue),
		AverageDownPaymentPercentage: toFloat(s.AverageDownPaymentPct),
		AverageContractYears:         toFloat(s.AverageTermYears),
	}
}
