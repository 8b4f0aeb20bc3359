// The pagerank package computes topic-specific pageranks with the power method,
// and combines them into a single ranking according to the user's profile.
package pagerank

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/vertex-lab/topicrank/pkg/matrix"
	"github.com/vertex-lab/topicrank/pkg/models"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultAlpha         float64 = 0.2
	DefaultEpsilon       float64 = 1e-4
	DefaultMaxIterations int     = 1000
)

// Params are the parameters of the power iteration.
type Params struct {
	// Alpha is the teleportation probability: at each step the walk jumps
	// to the jump vector with probability Alpha, and follows a link otherwise.
	Alpha float64

	// Epsilon is the L1 distance between two consecutive iterates below which
	// the iteration has converged.
	Epsilon float64

	// MaxIterations bounds the number of iterations.
	MaxIterations int
}

// NewParams() returns the default parameters.
func NewParams() Params {
	return Params{
		Alpha:         DefaultAlpha,
		Epsilon:       DefaultEpsilon,
		MaxIterations: DefaultMaxIterations,
	}
}

// Validate() returns the appropriate error if the parameters are out of range.
func (p Params) Validate() error {
	if !(p.Alpha >= 0 && p.Alpha <= 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidAlpha, p.Alpha)
	}
	if !(p.Epsilon > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidEpsilon, p.Epsilon)
	}
	if p.MaxIterations <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidMaxIterations, p.MaxIterations)
	}
	return nil
}

func (p Params) Print() {
	fmt.Println("Pagerank:")
	fmt.Printf("  Alpha: %v\n", p.Alpha)
	fmt.Printf("  Epsilon: %v\n", p.Epsilon)
	fmt.Printf("  MaxIterations: %d\n", p.MaxIterations)
}

// Stats reports how the iteration went.
type Stats struct {
	Iterations int
	Residual   float64
}

type options struct {
	start func(n int) models.Vector
	stats *Stats
}

// Option customizes a single call to Solve.
type Option func(*options)

// WithStart() sets the starting vector. It gets normalized to sum 1.
func WithStart(x0 models.Vector) Option {
	return func(o *options) {
		o.start = func(int) models.Vector {
			x := make(models.Vector, len(x0))
			copy(x, x0)
			return x
		}
	}
}

// WithRandomStart() starts from a random distribution drawn from rng.
// rng must not be shared with other goroutines.
func WithRandomStart(rng *rand.Rand) Option {
	return func(o *options) {
		o.start = func(n int) models.Vector {
			x := models.NewVector(n)
			for i := range x {
				x[i] = rng.Float64()
			}
			return x
		}
	}
}

// WithStats() makes Solve write its Stats into s.
func WithStats(s *Stats) Option {
	return func(o *options) {
		o.stats = s
	}
}

// UniformStart returns the uniform distribution over n nodes.
func UniformStart(n int) models.Vector {
	x := models.NewVector(n)
	for i := range x {
		x[i] = 1 / float64(n)
	}
	return x
}

/*
Solve() computes the stationary distribution of the damped random walk with
transition matrix M and jump vector J, by iterating

	x' = (1 - alpha) Mᵗx + alpha J

until the L1 distance between x' and x is below epsilon.

If J is all-zero (the topic matched no node), it returns the all-zero vector without iterating.
If the iteration doesn't converge in MaxIterations, it returns ErrNotConverged.
The context is checked at every iteration.

The result is normalized to sum 1, which compensates the mass lost through
dangling nodes when the matrix uses matrix.DanglingZero.
*/
func Solve(ctx context.Context, M *matrix.Sparse, J models.Vector, params Params, opts ...Option) (models.Vector, error) {
	if err := M.Validate(); err != nil {
		return nil, err
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	n := M.Size()
	if len(J) != n {
		return nil, fmt.Errorf("%w: matrix has %d nodes, jump vector has %d entries",
			models.ErrDimensionMismatch, n, len(J))
	}

	o := &options{start: UniformStart, stats: &Stats{}}
	for _, opt := range opts {
		opt(o)
	}
	*o.stats = Stats{}

	if J.IsZero() {
		return models.NewVector(n), nil
	}

	x, err := startVector(o.start(n), n)
	if err != nil {
		return nil, err
	}

	next := models.NewVector(n)
	residual := 0.0

	for iter := 1; iter <= params.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := M.TransposeMul(next, x); err != nil {
			return nil, err
		}
		floats.Scale(1-params.Alpha, next)
		floats.AddScaled(next, params.Alpha, J)

		residual = floats.Distance(next, x, 1)
		x, next = next, x

		if residual < params.Epsilon {
			*o.stats = Stats{Iterations: iter, Residual: residual}
			return normalize(x)
		}
	}

	*o.stats = Stats{Iterations: params.MaxIterations, Residual: residual}
	return nil, fmt.Errorf("%w: residual %v after %d iterations (epsilon %v)",
		models.ErrNotConverged, residual, params.MaxIterations, params.Epsilon)
}

// startVector() checks the starting vector and normalizes it to sum 1.
func startVector(x models.Vector, n int) (models.Vector, error) {
	if len(x) != n {
		return nil, fmt.Errorf("%w: expected %d entries, got %d", ErrInvalidStart, n, len(x))
	}

	for i, val := range x {
		if val < 0 {
			return nil, fmt.Errorf("%w: entry %d is negative (%v)", ErrInvalidStart, i, val)
		}
	}

	sum := x.Sum()
	if sum == 0 {
		return nil, fmt.Errorf("%w: all entries are zero", ErrInvalidStart)
	}

	floats.Scale(1/sum, x)
	return x, nil
}

func normalize(x models.Vector) (models.Vector, error) {
	sum := x.Sum()
	if sum == 0 {
		return nil, ErrZeroMass
	}

	floats.Scale(1/sum, x)
	return x, nil
}

//--------------------------ERROR-CODES--------------------------

var ErrInvalidAlpha = errors.New("alpha should be a number between 0 and 1 (included)")
var ErrInvalidEpsilon = errors.New("epsilon should be greater than zero")
var ErrInvalidMaxIterations = errors.New("max iterations should be greater than zero")
var ErrInvalidStart = errors.New("invalid starting vector")
var ErrZeroMass = errors.New("all the mass leaked through dangling nodes")
