package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Policy bounds for simulation inputs.
const (
	MinTermYears = 1
	MaxTermYears = 30
)

var hundred = decimal.NewFromInt(100)

// Derived holds the four figures computed from a simulation's inputs.
// They are never set independently of PropertyValue, DownPaymentPct and TermYears.
type Derived struct {
	DownPaymentAmount decimal.Decimal `json:"valorEntrada"`
	FinancingAmount   decimal.Decimal `json:"valorFinanciar"`
	SavingsTarget     decimal.Decimal `json:"totalGuardar"`
	MonthlySavings    decimal.Decimal `json:"valorMensalPoupanca"`
}

// Simulation is one saved purchase-planning scenario.
//
// The JSON form is the internal (localized) schema persisted by the local store.
// Timestamps are kept as the exact text received so that a record read from the
// backend and written back is unchanged.
type Simulation struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"usuarioId,omitempty"`
	Name           string          `json:"nome"`
	PropertyValue  decimal.Decimal `json:"valorImovel"`
	DownPaymentPct decimal.Decimal `json:"percentualEntrada"`
	TermYears      int             `json:"anosContrato"`
	Address        *string         `json:"endereco,omitempty"`
	PropertyType   *string         `json:"tipoImovel,omitempty"`
	Notes          *string         `json:"observacoes,omitempty"`
	Derived
	CreatedAt string  `json:"dataCriacao"`
	UpdatedAt *string `json:"dataAtualizacao,omitempty"`
}

// Input returns the caller-settable fields of s.
func (s Simulation) Input() SimulationInput {
	return SimulationInput{
		PropertyValue:  s.PropertyValue,
		DownPaymentPct: s.DownPaymentPct,
		TermYears:      s.TermYears,
		Address:        s.Address,
		PropertyType:   s.PropertyType,
		Notes:          s.Notes,
	}
}

// SimulationName returns the display label for a simulation: the address when
// it is present and not blank, otherwise "Simulação <id>".
func SimulationName(id int64, address *string) string {
	if address != nil && strings.TrimSpace(*address) != "" {
		return *address
	}
	return "Simulação " + strconv.FormatInt(id, 10)
}

// SimulationInput carries the fields a caller supplies to create a simulation
// or request a calculation preview.
type SimulationInput struct {
	PropertyValue  decimal.Decimal
	DownPaymentPct decimal.Decimal
	TermYears      int
	Address        *string
	PropertyType   *string
	Notes          *string
}

// Validate range-checks the numeric inputs. Errors wrap ErrValidation.
func (in SimulationInput) Validate() error {
	if err := validatePropertyValue(in.PropertyValue); err != nil {
		return err
	}
	if err := validateDownPaymentPct(in.DownPaymentPct); err != nil {
		return err
	}
	return validateTermYears(in.TermYears)
}

// SimulationPatch is a partial update. Nil fields are left unchanged.
type SimulationPatch struct {
	PropertyValue  *decimal.Decimal
	DownPaymentPct *decimal.Decimal
	TermYears      *int
	Address        *string
	PropertyType   *string
	Notes          *string
}

// IsEmpty reports whether the patch sets no field.
func (p SimulationPatch) IsEmpty() bool {
	return p.PropertyValue == nil && p.DownPaymentPct == nil && p.TermYears == nil &&
		p.Address == nil && p.PropertyType == nil && p.Notes == nil
}

// ChangesInputs reports whether the patch touches a field the derived figures depend on.
func (p SimulationPatch) ChangesInputs() bool {
	return p.PropertyValue != nil || p.DownPaymentPct != nil || p.TermYears != nil
}

// Validate range-checks the fields present in the patch. Errors wrap ErrValidation.
func (p SimulationPatch) Validate() error {
	if p.IsEmpty() {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyUpdate)
	}
	if p.PropertyValue != nil {
		if err := validatePropertyValue(*p.PropertyValue); err != nil {
			return err
		}
	}
	if p.DownPaymentPct != nil {
		if err := validateDownPaymentPct(*p.DownPaymentPct); err != nil {
			return err
		}
	}
	if p.TermYears != nil {
		if err := validateTermYears(*p.TermYears); err != nil {
			return err
		}
	}
	return nil
}

// Merge overlays the patch on the current inputs of s.
func (p SimulationPatch) Merge(s Simulation) SimulationInput {
	in := s.Input()
	if p.PropertyValue != nil {
		in.PropertyValue = *p.PropertyValue
	}
	if p.DownPaymentPct != nil {
		in.DownPaymentPct = *p.DownPaymentPct
	}
	if p.TermYears != nil {
		in.TermYears = *p.TermYears
	}
	if p.Address != nil {
		in.Address = p.Address
	}
	if p.PropertyType != nil {
		in.PropertyType = p.PropertyType
	}
	if p.Notes != nil {
		in.Notes = p.Notes
	}
	return in
}

// SimulationPage is one page of a listing. Total is the size of the whole collection.
type SimulationPage struct {
	Simulations []Simulation
	Total       int
}

// Statistics aggregates a user's simulations.
type Statistics struct {
	TotalSimulations      int
	TotalPropertyValue    decimal.Decimal
	AverageDownPaymentPct decimal.Decimal
	AverageTermYears      decimal.Decimal
}

// Calculation is a non-persisted preview of the derived figures for an input.
type Calculation struct {
	Input  SimulationInput
	Values Derived
}

func validatePropertyValue(v decimal.Decimal) error {
	if !v.IsPositive() {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidPropertyValue)
	}
	return nil
}

func validateDownPaymentPct(v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidDownPaymentPct)
	}
	return nil
}

func validateTermYears(v int) error {
	if v < MinTermYears || v > MaxTermYears {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidTermYears)
	}
	return nil
}

// ValidateID rejects non-positive simulation identifiers.
func ValidateID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidID)
	}
	return nil
}
