package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/phrazzld/amora-planner/internal/redact"
	"github.com/phrazzld/amora-planner/internal/store"
	"github.com/phrazzld/amora-planner/internal/wire"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// scenarioFile is the YAML document read by "sim batch":
//
//	scenarios:
//	  - label: apartamento centro
//	    property_value: 500000
//	    down_payment_percentage: 20
//	    contract_years: 25
//	    property_address: Rua das Flores, 12
type scenarioFile struct {
	Scenarios []scenario `yaml:"scenarios"`
}

type scenario struct {
	Label                 string  `yaml:"label"`
	PropertyValue         float64 `yaml:"property_value"`
	DownPaymentPercentage float64 `yaml:"down_payment_percentage"`
	ContractYears         int     `yaml:"contract_years"`
	PropertyAddress       *string `yaml:"property_address"`
	PropertyType          *string `yaml:"property_type"`
	Notes                 *string `yaml:"notes"`
}

func (s scenario) toWire() wire.SimulationCreate {
	return wire.SimulationCreate{
		PropertyValue:         s.PropertyValue,
		DownPaymentPercentage: s.DownPaymentPercentage,
		ContractYears:         s.ContractYears,
		PropertyAddress:       s.PropertyAddress,
		PropertyType:          s.PropertyType,
		Notes:                 s.Notes,
	}
}

// batchResult reports one scenario. Exactly one of Simulation, Calculation
// and Error is set.
type batchResult struct {
	Label       string              `json:"label,omitempty"`
	Simulation  *wire.Simulation    `json:"simulation,omitempty"`
	Calculation *wire.Calculation   `json:"calculation,omitempty"`
	Error       string              `json:"error,omitempty"`
	Category    store.ErrorCategory `json:"category,omitempty"`
}

func readScenarios(r io.Reader) ([]scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f scenarioFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: scenario file is empty", errUsage)
		}
		return nil, fmt.Errorf("%w: invalid scenario file: %w", errUsage, err)
	}
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("%w: scenario file has no scenarios", errUsage)
	}
	return f.Scenarios, nil
}

func (c *cli) simBatchCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Calculate or save every scenario of a YAML file",
		Long: "Calculate every scenario of a YAML file (\"-\" reads stdin). With --save each " +
			"scenario is stored as a simulation. Failed scenarios are reported and the rest still run.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("%w: %w", errUsage, err)
				}
				defer f.Close()
				r = f
			}
			scenarios, err := readScenarios(r)
			if err != nil {
				return err
			}

			results, err := c.runBatch(cmd.Context(), scenarios, save)
			if perr := printJSON(cmd.OutOrStdout(), results); perr != nil {
				return perr
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "store each scenario as a simulation")
	return cmd
}

// runBatch processes scenarios in order. The returned error wraps the first
// failure so the exit status reflects it.
func (c *cli) runBatch(ctx context.Context, scenarios []scenario, save bool) ([]batchResult, error) {
	results := make([]batchResult, 0, len(scenarios))
	var firstErr error
	failed := 0

	for _, sc := range scenarios {
		res := batchResult{Label: sc.Label}
		in := wire.InputFromCreate(sc.toWire())

		var err error
		if save {
			sim, serr := c.app.service.CreateSimulation(ctx, in)
			if serr == nil {
				out := wire.SimulationFromDomain(sim)
				res.Simulation = &out
			}
			err = serr
		} else {
			calc, cerr := c.app.service.Calculate(ctx, in)
			if cerr == nil {
				out := wire.CalculationFromDomain(calc)
				res.Calculation = &out
			}
			err = cerr
		}

		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			res.Error = redact.Error(err)
			res.Category = store.Category(err)
		}
		results = append(results, res)

		if ctx.Err() != nil {
			break
		}
	}

	if firstErr != nil {
		return results, fmt.Errorf("%d of %d scenarios failed: %w", failed, len(scenarios), firstErr)
	}
	return results, nil
}
