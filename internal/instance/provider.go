package instance

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"strings"

	"github.com/osvaldoandrade/placebench/pkg/domain"
)

// Provider maps a pattern identifier and grid size to obstacle coordinates.
type Provider interface {
	Obstacles(ctx context.Context, pattern string, size int) ([]domain.Coord, error)
}

type patternFunc func(r *rand.Rand, size int) []domain.Coord

var patterns = map[string]patternFunc{
	"random_scattered": scattered(0.15),
	"sparse_rural":     scattered(0.05),
	"dense_urban":      scattered(0.40),
	"clustered":        clustered,
	"grid":             gridBlocks,
	"diagonal":         diagonal,
	"border":           border,
	"empty":            func(*rand.Rand, int) []domain.Coord { return nil },
}

// Patterns lists the supported identifiers in a stable order.
func Patterns() []string {
	out := make([]string, 0, len(patterns))
	for name := range patterns {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type generator struct{}

// NewGenerator returns the built-in provider. Output depends only on
// (pattern, size) so repeated scenarios see the same houses.
func NewGenerator() Provider {
	return generator{}
}

func (generator) Obstacles(ctx context.Context, pattern string, size int) ([]domain.Coord, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: grid size %d", domain.ErrInvalidScenario, size)
	}
	fn, ok := patterns[strings.ToLower(strings.TrimSpace(pattern))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPattern, pattern)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := rand.New(rand.NewSource(seed(pattern, size)))
	return normalize(fn(r, size), size), nil
}

func seed(pattern string, size int) int64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s/%d", strings.ToLower(strings.TrimSpace(pattern)), size)
	return int64(h.Sum64())
}

// normalize clips to the grid, drops duplicates and sorts row-major.
func normalize(in []domain.Coord, size int) []domain.Coord {
	seen := make(map[domain.Coord]struct{}, len(in))
	out := make([]domain.Coord, 0, len(in))
	for _, c := range in {
		if c.X < 0 || c.Y < 0 || c.X >= size || c.Y >= size {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

func scattered(density float64) patternFunc {
	return func(r *rand.Rand, size int) []domain.Coord {
		var out []domain.Coord
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				if r.Float64() < density {
					out = append(out, domain.Coord{X: x, Y: y})
				}
			}
		}
		return out
	}
}

func clustered(r *rand.Rand, size int) []domain.Coord {
	clusters := 2 + size/15
	radius := max(1, size/10)
	var out []domain.Coord
	for i := 0; i < clusters; i++ {
		cx, cy := r.Intn(size), r.Intn(size)
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				if dx*dx+dy*dy > radius*radius {
					continue
				}
				if r.Float64() < 0.7 {
					out = append(out, domain.Coord{X: cx + dx, Y: cy + dy})
				}
			}
		}
	}
	return out
}

func gridBlocks(_ *rand.Rand, size int) []domain.Coord {
	step := max(3, size/8)
	var out []domain.Coord
	for y := 1; y < size; y += step {
		for x := 1; x < size; x += step {
			out = append(out, domain.Coord{X: x, Y: y})
		}
	}
	return out
}

func diagonal(_ *rand.Rand, size int) []domain.Coord {
	out := make([]domain.Coord, 0, 2*size)
	for i := 0; i < size; i++ {
		out = append(out, domain.Coord{X: i, Y: i}, domain.Coord{X: size - 1 - i, Y: i})
	}
	return out
}

func border(_ *rand.Rand, size int) []domain.Coord {
	var out []domain.Coord
	for i := 0; i < size; i++ {
		out = append(out,
			domain.Coord{X: i, Y: 0},
			domain.Coord{X: i, Y: size - 1},
			domain.Coord{X: 0, Y: i},
			domain.Coord{X: size - 1, Y: i},
		)
	}
	return out
}
