package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Policy names accepted in solver.backoffPolicy.
const (
	Fixed          = "fixed"
	Linear         = "linear"
	Exponential    = "exponential"
	ExpEqualJitter = "exp_equal_jitter"
	ExpFullJitter  = "exp_full_jitter"
)

// Policy spaces out solver retries. Unknown names behave like ExpFullJitter.
type Policy struct {
	Name string
	Base time.Duration
	Max  time.Duration
}

// NewPolicy builds a policy from the second-granularity config values.
func NewPolicy(name string, baseSeconds, maxSeconds int) Policy {
	return Policy{
		Name: name,
		Base: time.Duration(baseSeconds) * time.Second,
		Max:  time.Duration(maxSeconds) * time.Second,
	}
}

// Delay returns the wait before retry number attempt (0 for the first retry).
func (p Policy) Delay(attempt int, rng *rand.Rand) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := p.Base
	if base <= 0 {
		base = time.Second
	}
	ceiling := p.Max
	if ceiling <= 0 {
		ceiling = base
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	switch p.Name {
	case Fixed:
		return min(base, ceiling)
	case Linear:
		return min(base*time.Duration(max(1, attempt)), ceiling)
	case Exponential:
		return exp(base, ceiling, attempt)
	case ExpEqualJitter:
		d := exp(base, ceiling, attempt)
		half := d / 2
		return half + time.Duration(rng.Int63n(int64(half)+1))
	default:
		d := exp(base, ceiling, attempt)
		if d <= 0 {
			return 0
		}
		return time.Duration(rng.Int63n(int64(d) + 1))
	}
}

func exp(base, ceiling time.Duration, attempt int) time.Duration {
	f := float64(base) * math.Pow(2, float64(attempt))
	if f >= float64(ceiling) {
		return ceiling
	}
	return time.Duration(f)
}
