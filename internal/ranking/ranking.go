package ranking

import (
	"fmt"
	"math"
	"sort"

	"github.com/osvaldoandrade/placebench/pkg/domain"
)

// Weights applied to per-metric ranks. Lower overall score is better.
const (
	CoverageWeight   = 2.0
	CostWeight       = 1.5
	EfficiencyWeight = 1.0
	AntennasWeight   = 0.5
	TimeWeight       = 0.25
)

// Efficiency is cost per coverage point; zero coverage ranks last.
func Efficiency(r domain.SolverResult) float64 {
	if r.CoveragePercentage == 0 {
		return math.Inf(1)
	}
	return r.TotalCost / r.CoveragePercentage
}

// Rank scores results and returns them best first. Equal metric values keep
// the input order, which is the enabled-algorithm order for executor output.
func Rank(results []domain.SolverResult) []domain.RankingEntry {
	if len(results) == 0 {
		return []domain.RankingEntry{}
	}

	cost := positions(results, func(a, b domain.SolverResult) bool { return a.TotalCost < b.TotalCost })
	coverage := positions(results, func(a, b domain.SolverResult) bool { return a.CoveragePercentage > b.CoveragePercentage })
	elapsed := positions(results, func(a, b domain.SolverResult) bool { return a.ExecutionTimeMs < b.ExecutionTimeMs })
	antennas := positions(results, func(a, b domain.SolverResult) bool { return a.PlacementCount() < b.PlacementCount() })
	efficiency := positions(results, func(a, b domain.SolverResult) bool { return Efficiency(a) < Efficiency(b) })

	entries := make([]domain.RankingEntry, len(results))
	for i, r := range results {
		e := domain.RankingEntry{
			Algorithm:      r.Algorithm,
			CostRank:       cost[i],
			CoverageRank:   coverage[i],
			TimeRank:       elapsed[i],
			AntennasRank:   antennas[i],
			EfficiencyRank: efficiency[i],
		}
		e.OverallScore = Score(e)
		entries[i] = e
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].OverallScore < entries[j].OverallScore })
	return entries
}

// Score is the weighted sum of an entry's ranks.
func Score(e domain.RankingEntry) float64 {
	return float64(e.CoverageRank)*CoverageWeight +
		float64(e.CostRank)*CostWeight +
		float64(e.EfficiencyRank)*EfficiencyWeight +
		float64(e.AntennasRank)*AntennasWeight +
		float64(e.TimeRank)*TimeWeight
}

// positions returns, for each input index, its 1-based place in a stable
// sort by less.
func positions(results []domain.SolverResult, less func(a, b domain.SolverResult) bool) []int {
	idx := make([]int, len(results))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return less(results[idx[a]], results[idx[b]]) })
	ranks := make([]int, len(results))
	for pos, i := range idx {
		ranks[i] = pos + 1
	}
	return ranks
}

// Badge labels a 1-based position in the final order.
func Badge(pos int) string {
	switch pos {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		return fmt.Sprintf("#%d", pos)
	}
}
