// Package wire defines the JSON schema spoken by the simulation backend and the
// pure conversions between it and the domain types.
//
// Numbers travel as float64 on the wire and as decimal.Decimal in the domain.
// decimal.NewFromFloat keeps the shortest representation of a float, so a wire
// value converted to the domain and back is bit-for-bit identical. Timestamps
// are copied as text.
package wire

// Simulation is a stored simulation as returned by the backend.
type Simulation struct {
	ID                    int64   `json:"id"`
	UserID                int64   `json:"user_id"`
	PropertyValue         float64 `json:"property_value"`
	DownPaymentPercentage float64 `json:"down_payment_percentage"`
	ContractYears         int     `json:"contract_years"`
	PropertyAddress       *string `json:"property_address,omitempty"`
	PropertyType          *string `json:"property_type,omitempty"`
	Notes                 *string `json:"notes,omitempty"`
	DownPaymentAmount     float64 `json:"down_payment_amount"`
	FinancingAmount       float64 `json:"financing_amount"`
	TotalToSave           float64 `json:"total_to_save"`
	MonthlySavings        float64 `json:"monthly_savings"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             *string `json:"updated_at,omitempty"`
}

// SimulationCreate is the body of POST /simulations and POST /calculate.
type SimulationCreate struct {
	PropertyValue         float64 `json:"property_value"`
	DownPaymentPercentage float64 `json:"down_payment_percentage"`
	ContractYears         int     `json:"contract_years"`
	PropertyAddress       *string `json:"property_address,omitempty"`
	PropertyType          *string `json:"property_type,omitempty"`
	Notes                 *string `json:"notes,omitempty"`
}

// SimulationUpdate is the partial body of PUT /simulations/{id}. Unset fields
// are omitted so the backend leaves them unchanged.
type SimulationUpdate struct {
	PropertyValue         *float64 `json:"property_value,omitempty"`
	DownPaymentPercentage *float64 `json:"down_payment_percentage,omitempty"`
	ContractYears         *int     `json:"contract_years,omitempty"`
	PropertyAddress       *string  `json:"property_address,omitempty"`
	PropertyType          *string  `json:"property_type,omitempty"`
	Notes                 *string  `json:"notes,omitempty"`
}

// SimulationList is the body of GET /simulations.
type SimulationList struct {
	Simulations []Simulation `json:"simulations"`
	Total       int          `json:"total"`
}

// User is an account as returned by the backend.
type User struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	Name      *string `json:"name,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt *string `json:"updated_at,omitempty"`
}

// UserCreate is the body of POST /register.
type UserCreate struct {
	Email    string  `json:"email"`
	Name     *string `json:"name,omitempty"`
	Password string  `json:"password"`
}

// UserUpdate is the body of PATCH /users/me.
type UserUpdate struct {
	Name *string `json:"name,omitempty"`
}

// Token is the body returned by POST /token.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CalculationInput echoes the numeric inputs of a calculation.
type CalculationInput struct {
	PropertyValue         float64 `json:"property_value"`
	DownPaymentPercentage float64 `json:"down_payment_percentage"`
	ContractYears         int     `json:"contract_years"`
}

// CalculatedValues are the derived figures of a calculation.
type CalculatedValues struct {
	DownPaymentAmount float64 `json:"down_payment_amount"`
	FinancingAmount   float64 `json:"financing_amount"`
	TotalToSave       float64 `json:"total_to_save"`
	MonthlySavings    float64 `json:"monthly_savings"`
}

// Calculation is the body returned by POST /calculate.
type Calculation struct {
	Input            CalculationInput `json:"input"`
	CalculatedValues CalculatedValues `json:"calculated_values"`
}

// Statistics is the body returned by GET /simulations/statistics.
type Statistics struct {
	TotalSimulations             int     `json:"total_simulations"`
	TotalPropertyValue           float64 `json:"total_property_value"`
	AverageDownPaymentPercentage float64 `json:"average_down_payment_percentage"`
	AverageContractYears         float64 `json:"average_contract_years"`
}

// Health is the body returned by GET /health.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ErrorBody is the error envelope. Detail is usually a string but may be a
// list of validation issues.
type ErrorBody struct {
	Detail  any    `json:"detail,omitempty"`
	Message string `json:"message,omitempty"`
}
