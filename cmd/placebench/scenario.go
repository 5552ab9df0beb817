package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/osvaldoandrade/placebench/pkg/domain"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// scenarioFlags binds the definition flags shared by scenario add and compare.
type scenarioFlags struct {
	gridSize    int
	pattern     string
	maxBudget   float64
	maxAntennas int
}

func (f *scenarioFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.gridSize, "grid-size", 0, "Grid side length (server default when 0)")
	cmd.Flags().StringVar(&f.pattern, "pattern", "", "Obstacle pattern (see `placebench catalog`)")
	cmd.Flags().Float64Var(&f.maxBudget, "max-budget", 0, "Budget cap (0 = none)")
	cmd.Flags().IntVar(&f.maxAntennas, "max-antennas", 0, "Antenna count cap (0 = none)")
}

func (f *scenarioFlags) body() map[string]any {
	body := map[string]any{}
	if f.gridSize != 0 {
		body["gridSize"] = f.gridSize
	}
	if f.pattern != "" {
		body["pattern"] = f.pattern
	}
	if f.maxBudget > 0 {
		body["maxBudget"] = f.maxBudget
	}
	if f.maxAntennas > 0 {
		body["maxAntennas"] = f.maxAntennas
	}
	return body
}

func scenarioCmd(newClient func() *client, ui *ui) *cobra.Command {
	var def scenarioFlags
	add := &cobra.Command{
		Use:     "add",
		Short:   "Append a scenario to the queue",
		Example: "placebench scenario add --grid-size 30 --pattern clustered --max-budget 60000",
		RunE: func(cmd *cobra.Command, args []string) error {
			if def.gridSize <= 0 {
				return errors.New("--grid-size must be > 0")
			}
			var sc domain.Scenario
			err := withSpinner("Adding scenario...", func() error {
				return newClient().call(http.MethodPost, "/scenarios", def.body(), &sc)
			})
			if err != nil {
				return err
			}
			fmt.Printf("%s Scenario queued: %s\n", ui.ok("[OK]"), sc.ID)
			return nil
		},
	}
	def.register(add)

	list := &cobra.Command{
		Use:   "list",
		Short: "List queued scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Scenarios []domain.Scenario `json:"scenarios"`
			}
			if err := newClient().call(http.MethodGet, "/scenarios", nil, &out); err != nil {
				return err
			}
			if len(out.Scenarios) == 0 {
				fmt.Println(ui.dim("Queue is empty."))
				return nil
			}
			for i, sc := range out.Scenarios {
				fmt.Printf("%3d  %s  %4dx%-4d %-18s %s\n", i+1, ui.dim(sc.ID), sc.GridSize, sc.GridSize, sc.Pattern, constraintLabel(sc))
			}
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a scenario from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().call(http.MethodDelete, "/scenarios/"+url.PathEscape(args[0]), nil, nil); err != nil {
				return err
			}
			fmt.Printf("%s Removed %s\n", ui.ok("[OK]"), args[0])
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every queued scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().call(http.MethodDelete, "/scenarios", nil, nil); err != nil {
				return err
			}
			fmt.Printf("%s Queue cleared\n", ui.ok("[OK]"))
			return nil
		},
	}

	imp := &cobra.Command{
		Use:     "import <file|->",
		Short:   "Bulk import scenarios from a JSON document",
		Example: `placebench scenario import scenarios.json   # {"scenarios":[{"gridSize":20,"pattern":"grid"}]}`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if args[0] == "-" {
				raw, err = io.ReadAll(os.Stdin)
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			var out struct {
				Count int `json:"count"`
			}
			err = withSpinner("Importing scenarios...", func() error {
				return newClient().call(http.MethodPost, "/scenarios/import", raw, &out)
			})
			if err != nil {
				return err
			}
			fmt.Printf("%s Imported %d scenario(s)\n", ui.ok("[OK]"), out.Count)
			return nil
		},
	}

	cmd := &cobra.Command{
		Use:     "scenario",
		Aliases: []string{"scenarios"},
		Short:   "Scenario queue operations",
	}
	cmd.AddCommand(add, list, remove, clearCmd, imp)
	return cmd
}

func catalogCmd(newClient func() *client, ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Show antenna types, algorithms, and obstacle patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Antennas   []domain.AntennaSpec `json:"antennas"`
				Algorithms []string             `json:"algorithms"`
				Patterns   []string             `json:"patterns"`
			}
			if err := newClient().call(http.MethodGet, "/catalog", nil, &out); err != nil {
				return err
			}
			fmt.Println(ui.title("Antennas"))
			for _, a := range out.Antennas {
				fmt.Printf("  %-6s radius %-4d users %-5d cost $%s\n", a.Type, a.Radius, a.MaxUsers, humanize.Comma(int64(a.Cost)))
			}
			fmt.Println(ui.title("Algorithms"))
			for _, a := range out.Algorithms {
				fmt.Println("  " + a)
			}
			fmt.Println(ui.title("Patterns"))
			for _, p := range out.Patterns {
				fmt.Println("  " + p)
			}
			return nil
		},
	}
}

func constraintLabel(sc domain.Scenario) string {
	switch {
	case sc.MaxBudget != nil && sc.MaxAntennas != nil:
		return fmt.Sprintf("budget $%s, max %d antennas", humanize.Commaf(*sc.MaxBudget), *sc.MaxAntennas)
	case sc.MaxBudget != nil:
		return "budget $" + humanize.Commaf(*sc.MaxBudget)
	case sc.MaxAntennas != nil:
		return fmt.Sprintf("max %d antennas", *sc.MaxAntennas)
	default:
		return "no constraints"
	}
}
