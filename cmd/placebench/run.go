package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/osvaldoandrade/placebench/internal/ranking"
	"github.com/osvaldoandrade/placebench/pkg/domain"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// selectionFlags binds algorithm and antenna type selection.
type selectionFlags struct {
	algorithms   string
	antennaTypes string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.algorithms, "algorithms", "", "Comma-separated algorithms (server default when empty)")
	cmd.Flags().StringVar(&f.antennaTypes, "antenna-types", "", "Comma-separated antenna types (server default when empty)")
}

func (f *selectionFlags) apply(body map[string]any) {
	if algs := splitList(f.algorithms); len(algs) > 0 {
		body["algorithms"] = algs
	}
	if types := splitList(f.antennaTypes); len(types) > 0 {
		body["antennaTypes"] = types
	}
}

type runView struct {
	domain.BatchRun
	Rankings [][]domain.RankingEntry `json:"rankings"`
}

func compareCmd(newClient func() *client, ui *ui) *cobra.Command {
	var (
		def scenarioFlags
		sel selectionFlags
	)
	cmd := &cobra.Command{
		Use:     "compare",
		Short:   "Run every selected algorithm on one scenario and rank them",
		Example: "placebench compare --grid-size 20 --pattern dense_urban --algorithms greedy,genetic,vns",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := def.body()
			sel.apply(body)
			var out struct {
				Result  domain.ScenarioResult `json:"result"`
				Ranking []domain.RankingEntry `json:"ranking"`
			}
			err := withSpinner("Running solvers...", func() error {
				return newClient().call(http.MethodPost, "/compare", body, &out)
			})
			if err != nil {
				return err
			}
			printScenario(ui, out.Result, out.Ranking)
			return nil
		},
	}
	def.register(cmd)
	sel.register(cmd)
	return cmd
}

func runCmd(newClient func() *client, ui *ui) *cobra.Command {
	var (
		sel      selectionFlags
		export   bool
		detach   bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run the queued scenarios as one batch",
		Example: "placebench run --algorithms greedy,genetic --export",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			body := map[string]any{}
			sel.apply(body)
			var run domain.BatchRun
			if err := c.call(http.MethodPost, "/runs", body, &run); err != nil {
				return err
			}
			fmt.Printf("%s Batch %s started (%d scenario(s))\n", ui.info("[INFO]"), run.ID, run.Progress.Total)
			if detach {
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			final, err := followRun(ctx, c, run, interval, ui)
			if err != nil {
				return err
			}
			printRunSummary(ui, final)

			if export {
				var out struct {
					URL string `json:"url"`
				}
				if err := c.call(http.MethodPost, "/runs/"+url.PathEscape(run.ID)+"/export", nil, &out); err != nil {
					return err
				}
				fmt.Printf("%s Report written to %s\n", ui.ok("[OK]"), out.URL)
			}
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().BoolVar(&export, "export", false, "Export the text report when the batch ends")
	cmd.Flags().BoolVar(&detach, "detach", false, "Return right after the batch starts")
	cmd.Flags().DurationVar(&interval, "poll", time.Second, "Progress poll interval")
	return cmd
}

// followRun polls the batch until it leaves RUNNING. Interrupting asks the
// server to cancel, then keeps polling until the current scenario ends.
func followRun(ctx context.Context, c *client, run domain.BatchRun, interval time.Duration, ui *ui) (*runView, error) {
	bar := progressbar.NewOptions(run.Progress.Total,
		progressbar.OptionSetDescription("Scenarios"),
		progressbar.OptionSetWidth(24),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			fmt.Println(ui.warn("[WARN]"), "Cancelling after the current scenario...")
			if err := c.call(http.MethodDelete, "/runs/"+url.PathEscape(run.ID), nil, nil); err != nil {
				return nil, err
			}
			// keep polling until the server reports the run stopped
			ctx = context.Background()
		case <-ticker.C:
		}

		var view runView
		if err := c.call(http.MethodGet, "/runs/"+url.PathEscape(run.ID), nil, &view); err != nil {
			return nil, err
		}
		bar.Describe(fmt.Sprintf("Scenario %d of %d", view.Progress.Completed, view.Progress.Total))
		_ = bar.Set(len(view.Results) + len(view.Skipped))
		if view.Status != domain.RunRunning {
			_ = bar.Finish()
			return &view, nil
		}
	}
}

func runsCmd(newClient func() *client, ui *ui) *cobra.Command {
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent batch runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Runs []domain.BatchRun `json:"runs"`
			}
			path := "/runs"
			if limit > 0 {
				path += "?limit=" + strconv.Itoa(limit)
			}
			if err := newClient().call(http.MethodGet, path, nil, &out); err != nil {
				return err
			}
			for _, r := range out.Runs {
				fmt.Printf("%s  %-9s %d/%d  %s\n", r.ID, statusLabel(ui, r.Status), r.Progress.Completed, r.Progress.Total, ui.dim(humanize.Time(r.StartedAt)))
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "Max runs to list")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a batch run with rankings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var view runView
			if err := newClient().call(http.MethodGet, "/runs/"+url.PathEscape(args[0]), nil, &view); err != nil {
				return err
			}
			printRunSummary(ui, &view)
			return nil
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Stop a batch after its current scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().call(http.MethodDelete, "/runs/"+url.PathEscape(args[0]), nil, nil); err != nil {
				return err
			}
			fmt.Printf("%s Cancel requested for %s\n", ui.ok("[OK]"), args[0])
			return nil
		},
	}

	var output string
	report := &cobra.Command{
		Use:   "report <id>",
		Short: "Print or save the text report of a batch run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			if err := newClient().call(http.MethodGet, "/runs/"+url.PathEscape(args[0])+"/report", nil, &raw); err != nil {
				return err
			}
			if output == "" {
				fmt.Print(string(raw))
				return nil
			}
			if err := os.WriteFile(output, raw, 0o644); err != nil {
				return err
			}
			fmt.Printf("%s Report saved to %s\n", ui.ok("[OK]"), output)
			return nil
		},
	}
	report.Flags().StringVarP(&output, "output", "o", "", "Write the report to this file")

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Batch run operations",
	}
	cmd.AddCommand(list, get, cancel, report)
	return cmd
}

func printRunSummary(ui *ui, view *runView) {
	if view == nil {
		return
	}
	fmt.Printf("%s %s  %s  %d result(s), %d skipped\n", ui.title("Run"), view.ID, statusLabel(ui, view.Status), len(view.Results), len(view.Skipped))
	for i, sr := range view.Results {
		var rank []domain.RankingEntry
		if i < len(view.Rankings) {
			rank = view.Rankings[i]
		} else {
			rank = ranking.Rank(sr.Results)
		}
		printScenario(ui, sr, rank)
	}
}

func printScenario(ui *ui, sr domain.ScenarioResult, rank []domain.RankingEntry) {
	sc := sr.Scenario
	fmt.Printf("\n%s %dx%d %s, %d obstacles, %s\n", ui.title("Scenario"), sc.GridSize, sc.GridSize, sc.Pattern, len(sr.Obstacles), constraintLabel(sc))
	if len(sr.Results) == 0 {
		fmt.Println(ui.warn("  no solver results"))
		return
	}
	for _, r := range sr.Results {
		fmt.Printf("  %-20s %6.2f%%  $%-12s %3d antennas  %s\n", r.Algorithm, r.CoveragePercentage,
			humanize.Commaf(r.TotalCost), r.PlacementCount(), ui.dim(fmt.Sprintf("%.0fms", r.ExecutionTimeMs)))
	}
	for i, e := range rank {
		badge := ranking.Badge(i + 1)
		if i == 0 {
			badge = ui.ok(badge)
		}
		fmt.Printf("    %-4s %-20s score %.2f\n", badge, e.Algorithm, e.OverallScore)
	}
}

func statusLabel(ui *ui, s domain.RunStatus) string {
	switch s {
	case domain.RunCompleted:
		return ui.ok(string(s))
	case domain.RunCancelled:
		return ui.warn(string(s))
	case domain.RunRunning:
		return ui.info(string(s))
	default:
		return ui.err(string(s))
	}
}
