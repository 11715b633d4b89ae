package main

import (
	"fmt"

	"github.com/phrazzld/amora-planner/internal/domain"
	"github.com/phrazzld/amora-planner/internal/store"
	"github.com/phrazzld/amora-planner/internal/wire"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// simulationFlags binds the simulation fields to command flags. Numbers are
// read as text so they reach the domain without a float round trip.
type simulationFlags struct {
	value, down                  string
	years                        int
	address, propertyType, notes string
}

func (f *simulationFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.value, "value", "", "property value")
	fs.StringVar(&f.down, "down", "", "down payment percentage (0-100)")
	fs.IntVar(&f.years, "years", 0, "contract term in years (1-30)")
	fs.StringVar(&f.address, "address", "", "property address")
	fs.StringVar(&f.propertyType, "type", "", "property type")
	fs.StringVar(&f.notes, "notes", "", "free-form notes")
}

func (f *simulationFlags) input(fs *pflag.FlagSet) (domain.SimulationInput, error) {
	value, err := parseDecimal("value", f.value)
	if err != nil {
		return domain.SimulationInput{}, err
	}
	down, err := parseDecimal("down", f.down)
	if err != nil {
		return domain.SimulationInput{}, err
	}
	patch := f.optional(fs)
	return domain.SimulationInput{
		PropertyValue:  value,
		DownPaymentPct: down,
		TermYears:      f.years,
		Address:        patch.Address,
		PropertyType:   patch.PropertyType,
		Notes:          patch.Notes,
	}, nil
}

// patch sets only the fields whose flags were given.
func (f *simulationFlags) patch(fs *pflag.FlagSet) (domain.SimulationPatch, error) {
	p := f.optional(fs)
	if fs.Changed("value") {
		v, err := parseDecimal("value", f.value)
		if err != nil {
			return p, err
		}
		p.PropertyValue = &v
	}
	if fs.Changed("down") {
		v, err := parseDecimal("down", f.down)
		if err != nil {
			return p, err
		}
		p.DownPaymentPct = &v
	}
	if fs.Changed("years") {
		p.TermYears = &f.years
	}
	return p, nil
}

func (f *simulationFlags) optional(fs *pflag.FlagSet) domain.SimulationPatch {
	var p domain.SimulationPatch
	if fs.Changed("address") {
		p.Address = &f.address
	}
	if fs.Changed("type") {
		p.PropertyType = &f.propertyType
	}
	if fs.Changed("notes") {
		p.Notes = &f.notes
	}
	return p
}

func parseDecimal(flag, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: --%s is required", errUsage, flag)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: --%s %q is not a number", errUsage, flag, s)
	}
	return d, nil
}

func (c *cli) simCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sim",
		Aliases: []string{"simulation", "simulations"},
		Short:   "Create and manage purchase simulations",
	}
	cmd.AddCommand(
		c.simCreateCmd(),
		c.simListCmd(),
		c.simGetCmd(),
		c.simUpdateCmd(),
		c.simDeleteCmd(),
		c.simStatsCmd(),
		c.simCalcCmd(),
		c.simBatchCmd(),
	)
	return cmd
}

func (c *cli) simCreateCmd() *cobra.Command {
	var f simulationFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Save a new simulation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := f.input(cmd.Flags())
			if err != nil {
				return err
			}
			sim, err := c.app.service.CreateSimulation(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), wire.SimulationFromDomain(sim))
		},
	}
	f.bind(cmd.Flags())
	return cmd
}

func (c *cli) simListCmd() *cobra.Command {
	var page store.Page
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List simulations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if all {
				sims, err := c.app.service.Refresh(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), wire.SimulationList{
					Simulations: wire.SimulationsFromDomain(sims),
					Total:       len(sims),
				})
			}
			res, err := c.app.service.ListSimulations(cmd.Context(), page)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), wire.SimulationList{
				Simulations: wire.SimulationsFromDomain(res.Simulations),
				Total:       res.Total,
			})
		},
	}
	cmd.Flags().IntVar(&page.Skip, "skip", 0, "number of simulations to skip")
	cmd.Flags().IntVar(&page.Limit, "limit", store.DefaultLimit, "maximum number of simulations")
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")
	return cmd
}

func (c *cli) simGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one simulation (online only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			sim, err := c.app.service.GetSimulation(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), wire.SimulationFromDomain(sim))
		},
	}
}

func (c *cli) simUpdateCmd() *cobra.Command {
	var f simulationFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a simulation (online only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			patch, err := f.patch(cmd.Flags())
			if err != nil {
				return err
			}
			sim, err := c.app.service.UpdateSimulation(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), wire.SimulationFromDomain(sim))
		},
	}
	f.bind(cmd.Flags())
	return cmd
}

func (c *cli) simDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a simulation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.app.service.DeleteSimulation(cmd.Context(), id)
		},
	}
}

func (c *cli) simStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Aggregate figures over all simulations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := c.app.service.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), wire.StatisticsFromDomain(stats))
		},
	}
}

func (c *cli) simCalcCmd() *cobra.Command {
	var f simulationFlags
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Preview the derived figures without saving",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := f.input(cmd.Flags())
			if err != nil {
				return err
			}
			calc, err := c.app.service.Calculate(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), wire.CalculationFromDomain(calc))
		},
	}
	f.bind(cmd.Flags())
	return cmd
}

func (c *cli) eligibilityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eligibility",
		Short: "Score the planning history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			score, err := c.app.service.Eligibility(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), score)
		},
	}
}
