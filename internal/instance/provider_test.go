package instance

import (
	"context"
	"errors"
	"testing"

	"github.com/osvaldoandrade/placebench/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObstaclesAreReproducible(t *testing.T) {
	gen := NewGenerator()
	ctx := context.Background()
	for _, pattern := range Patterns() {
		t.Run(pattern, func(t *testing.T) {
			first, err := gen.Obstacles(ctx, pattern, 25)
			require.NoError(t, err)
			second, err := gen.Obstacles(ctx, pattern, 25)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestObstaclesStayInsideGrid(t *testing.T) {
	gen := NewGenerator()
	for _, size := range []int{1, 2, 7, 50} {
		for _, pattern := range Patterns() {
			obs, err := gen.Obstacles(context.Background(), pattern, size)
			require.NoError(t, err)
			seen := map[domain.Coord]bool{}
			for _, c := range obs {
				assert.GreaterOrEqual(t, c.X, 0)
				assert.GreaterOrEqual(t, c.Y, 0)
				assert.Less(t, c.X, size)
				assert.Less(t, c.Y, size)
				assert.False(t, seen[c], "duplicate %v in %s/%d", c, pattern, size)
				seen[c] = true
			}
		}
	}
}

func TestPatternShapes(t *testing.T) {
	gen := NewGenerator()
	ctx := context.Background()

	empty, err := gen.Obstacles(ctx, "empty", 20)
	require.NoError(t, err)
	assert.Empty(t, empty)

	diag, err := gen.Obstacles(ctx, "diagonal", 5)
	require.NoError(t, err)
	// center cell is shared by both diagonals
	assert.Len(t, diag, 9)

	b, err := gen.Obstacles(ctx, "border", 4)
	require.NoError(t, err)
	assert.Len(t, b, 12)
	assert.Equal(t, domain.Coord{X: 0, Y: 0}, b[0])

	dense, err := gen.Obstacles(ctx, "dense_urban", 30)
	require.NoError(t, err)
	sparse, err := gen.Obstacles(ctx, "sparse_rural", 30)
	require.NoError(t, err)
	assert.Greater(t, len(dense), len(sparse))
}

func TestPatternNameIsCaseInsensitive(t *testing.T) {
	gen := NewGenerator()
	a, err := gen.Obstacles(context.Background(), "Random_Scattered", 12)
	require.NoError(t, err)
	b, err := gen.Obstacles(context.Background(), "random_scattered", 12)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestUnknownPattern(t *testing.T) {
	_, err := NewGenerator().Obstacles(context.Background(), "volcano", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownPattern))
}

func TestInvalidSize(t *testing.T) {
	_, err := NewGenerator().Obstacles(context.Background(), "grid", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidScenario)
}
