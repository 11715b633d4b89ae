package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSimulationInputValidate(t *testing.T) {
	valid := SimulationInput{
		PropertyValue:  decimal.NewFromInt(500000),
		DownPaymentPct: decimal.NewFromInt(20),
		TermYears:      25,
	}

	tests := []struct {
		name    string
		mutate  func(*SimulationInput)
		wantErr error
	}{
		{"valid", func(*SimulationInput) {}, nil},
		{"zero property value", func(in *SimulationInput) { in.PropertyValue = decimal.Zero }, ErrInvalidPropertyValue},
		{"negative property value", func(in *SimulationInput) { in.PropertyValue = decimal.NewFromInt(-1) }, ErrInvalidPropertyValue},
		{"pct zero allowed", func(in *SimulationInput) { in.DownPaymentPct = decimal.Zero }, nil},
		{"pct hundred allowed", func(in *SimulationInput) { in.DownPaymentPct = decimal.NewFromInt(100) }, nil},
		{"pct above hundred", func(in *SimulationInput) { in.DownPaymentPct = decimal.RequireFromString("100.01") }, ErrInvalidDownPaymentPct},
		{"pct negative", func(in *SimulationInput) { in.DownPaymentPct = decimal.NewFromInt(-5) }, ErrInvalidDownPaymentPct},
		{"term zero", func(in *SimulationInput) { in.TermYears = 0 }, ErrInvalidTermYears},
		{"term thirty allowed", func(in *SimulationInput) { in.TermYears = 30 }, nil},
		{"term above thirty", func(in *SimulationInput) { in.TermYears = 31 }, ErrInvalidTermYears},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			err := in.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSimulationPatch(t *testing.T) {
	current := Simulation{
		ID:             7,
		PropertyValue:  decimal.NewFromInt(300000),
		DownPaymentPct: decimal.NewFromInt(10),
		TermYears:      20,
		Address:        strPtr("Rua A, 1"),
	}

	t.Run("empty patch is rejected", func(t *testing.T) {
		err := SimulationPatch{}.Validate()
		assert.ErrorIs(t, err, ErrValidation)
		assert.ErrorIs(t, err, ErrEmptyUpdate)
	})

	t.Run("out of range field is rejected", func(t *testing.T) {
		years := 40
		err := SimulationPatch{TermYears: &years}.Validate()
		assert.ErrorIs(t, err, ErrInvalidTermYears)
	})

	t.Run("merge keeps unset fields", func(t *testing.T) {
		pct := decimal.NewFromInt(25)
		patch := SimulationPatch{DownPaymentPct: &pct, Notes: strPtr("revisar")}
		require.NoError(t, patch.Validate())
		assert.True(t, patch.ChangesInputs())

		merged := patch.Merge(current)
		assert.True(t, merged.PropertyValue.Equal(current.PropertyValue))
		assert.True(t, merged.DownPaymentPct.Equal(pct))
		assert.Equal(t, 20, merged.TermYears)
		assert.Equal(t, "Rua A, 1", *merged.Address)
		assert.Equal(t, "revisar", *merged.Notes)
	})

	t.Run("text-only patch does not change inputs", func(t *testing.T) {
		patch := SimulationPatch{PropertyType: strPtr("apartamento")}
		assert.False(t, patch.ChangesInputs())
		assert.False(t, patch.IsEmpty())
	})
}

func TestSimulationName(t *testing.T) {
	assert.Equal(t, "Av. Paulista, 1000", SimulationName(3, strPtr("Av. Paulista, 1000")))
	assert.Equal(t, "Simulação 3", SimulationName(3, nil))
	assert.Equal(t, "Simulação 42", SimulationName(42, strPtr("   ")))
}

func TestSimulationInternalJSON(t *testing.T) {
	sim := Simulation{
		ID:             1,
		Name:           "Simulação 1",
		PropertyValue:  decimal.NewFromInt(500000),
		DownPaymentPct: decimal.NewFromInt(20),
		TermYears:      25,
		Derived: Derived{
			DownPaymentAmount: decimal.NewFromInt(100000),
		},
		CreatedAt: "2024-01-01T00:00:00Z",
	}

	data, err := json.Marshal(sim)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"id", "nome", "valorImovel", "percentualEntrada", "anosContrato", "valorEntrada", "dataCriacao"} {
		assert.Contains(t, fields, key)
	}
	assert.NotContains(t, fields, "endereco", "absent optionals are omitted")

	var back Simulation
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.DownPaymentAmount.Equal(sim.DownPaymentAmount))
	assert.Equal(t, sim.CreatedAt, back.CreatedAt)
}

func TestRegistrationValidate(t *testing.T) {
	ok := Registration{Email: "ana@example.com", Password: "segredo1"}
	assert.NoError(t, ok.Validate())

	err := Registration{Email: "not-an-email", Password: "segredo1"}.Validate()
	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, errors.Is(err, ErrInvalidEmail))

	err = Registration{Email: "ana@example.com", Password: "123"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidPassword)

	assert.ErrorIs(t, Credentials{Email: "ana@example.com"}.Validate(), ErrValidation)
	assert.NoError(t, Credentials{Email: "ana", Password: "x"}.Validate())

	assert.ErrorIs(t, UserUpdate{}.Validate(), ErrEmptyUpdate)
	assert.NoError(t, UserUpdate{Name: strPtr("Ana")}.Validate())
}
