package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/osvaldoandrade/placebench/internal/ranking"
	"github.com/osvaldoandrade/placebench/pkg/domain"

	"github.com/dustin/go-humanize"
)

const (
	rule       = "======================================================================"
	rowFormat  = "  %-20s %9s %12s %8s %11s %10s\n"
	timeLayout = "2006-01-02 15:04:05 MST"
)

// Filename returns the export artifact name; names sort by generation time.
func Filename(t time.Time) string {
	return "benchmark-report-" + t.UTC().Format("20060102-150405") + ".txt"
}

// Render formats scenario results as a plain-text report. The output only
// varies with meta.GeneratedAt for identical input.
func Render(results []domain.ScenarioResult, meta domain.RunMetadata) string {
	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("PLACEBENCH ALGORITHM COMPARISON REPORT\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Generated: %s\n", meta.GeneratedAt.UTC().Format(timeLayout))
	fmt.Fprintf(&b, "Antenna types: %s\n", joinTypes(meta.AntennaTypes))
	if len(meta.Algorithms) > 0 {
		fmt.Fprintf(&b, "Algorithms: %s\n", strings.Join(meta.Algorithms, ", "))
	}
	fmt.Fprintf(&b, "Scenarios: %d\n", len(results))

	for i, sr := range results {
		b.WriteString("\n")
		writeScenario(&b, i+1, sr)
	}
	return b.String()
}

func writeScenario(b *strings.Builder, n int, sr domain.ScenarioResult) {
	sc := sr.Scenario
	fmt.Fprintf(b, "Scenario %d: %dx%d grid, pattern %s\n", n, sc.GridSize, sc.GridSize, sc.Pattern)
	fmt.Fprintf(b, "  Obstacles: %d\n", len(sr.Obstacles))
	fmt.Fprintf(b, "  Constraints: %s\n", Constraints(sc))
	b.WriteString("\n")

	if len(sr.Results) == 0 {
		b.WriteString("  No solver results.\n")
		return
	}

	fmt.Fprintf(b, rowFormat, "Algorithm", "Coverage", "Cost", "Antennas", "Time (ms)", "Cost/Cov")
	fmt.Fprintf(b, rowFormat,
		strings.Repeat("-", 20), strings.Repeat("-", 9), strings.Repeat("-", 12),
		strings.Repeat("-", 8), strings.Repeat("-", 11), strings.Repeat("-", 10))
	for _, r := range sr.Results {
		fmt.Fprintf(b, rowFormat,
			truncate(r.Algorithm, 20),
			fmt.Sprintf("%.2f%%", r.CoveragePercentage),
			money(r.TotalCost),
			humanize.Comma(int64(r.PlacementCount())),
			humanize.FormatFloat("#,###.##", r.ExecutionTimeMs),
			costPerPoint(r),
		)
	}

	b.WriteString("\n  Ranking:\n")
	for i, e := range ranking.Rank(sr.Results) {
		fmt.Fprintf(b, "    %-4s %-20s score %.2f\n", ranking.Badge(i+1), e.Algorithm, e.OverallScore)
	}
}

// Constraints summarises the optional caps of a scenario.
func Constraints(sc domain.Scenario) string {
	var parts []string
	if sc.MaxBudget != nil {
		parts = append(parts, "Budget "+money(*sc.MaxBudget))
	}
	if sc.MaxAntennas != nil {
		parts = append(parts, fmt.Sprintf("Max %d antennas", *sc.MaxAntennas))
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, ", ")
}

func costPerPoint(r domain.SolverResult) string {
	e := ranking.Efficiency(r)
	if math.IsInf(e, 1) {
		return "N/A"
	}
	return "$" + humanize.FormatFloat("#,###.##", e)
}

func money(v float64) string {
	return "$" + humanize.Commaf(math.Round(v))
}

func joinTypes(types []domain.AntennaType) string {
	if len(types) == 0 {
		return "none"
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
