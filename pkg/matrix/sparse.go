// The matrix package builds the row-stochastic transition matrix of the link graph,
// stored in compressed sparse row (CSR) format.
package matrix

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/vertex-lab/topicrank/pkg/models"
)

// DanglingPolicy decides what to do with the rows of nodes without outgoing links.
type DanglingPolicy int

const (
	// DanglingZero leaves the row all-zero: the dangling node receives mass only
	// through teleportation, and the mass it holds leaks out of the walk.
	DanglingZero DanglingPolicy = iota

	// DanglingUniform redistributes the row uniformly over all the nodes.
	DanglingUniform
)

func (p DanglingPolicy) String() string {
	switch p {
	case DanglingZero:
		return "zero"
	case DanglingUniform:
		return "uniform"
	default:
		return fmt.Sprintf("DanglingPolicy(%d)", int(p))
	}
}

// ParseDanglingPolicy() parses "zero" or "uniform".
func ParseDanglingPolicy(s string) (DanglingPolicy, error) {
	switch s {
	case "zero", "":
		return DanglingZero, nil
	case "uniform":
		return DanglingUniform, nil
	default:
		return DanglingZero, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

// Sparse is the N x N transition matrix R, where R[i][j] = count(i->j) / outdegree(i).
// It is immutable after Build and can be read by concurrent goroutines.
type Sparse struct {
	n      int
	rowPtr []int // row i has entries in [rowPtr[i], rowPtr[i+1])
	cols   []int
	vals   []float64

	dangling []int
	policy   DanglingPolicy
}

// Build() returns the transition matrix of G, using index for rows and columns.
// Multi-edges are collapsed into a single entry with weight count / outdegree.
func Build(G models.Graph, index *models.NodeIndex, policy DanglingPolicy) (*Sparse, error) {
	if err := index.Validate(); err != nil {
		return nil, err
	}

	if len(G) != index.Len() {
		return nil, fmt.Errorf("%w: graph has %d nodes, index has %d",
			models.ErrDimensionMismatch, len(G), index.Len())
	}

	if policy != DanglingZero && policy != DanglingUniform {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, policy)
	}

	n := index.Len()
	M := &Sparse{
		n:        n,
		rowPtr:   make([]int, n+1),
		cols:     make([]int, 0, edgeCount(G)),
		vals:     make([]float64, 0, edgeCount(G)),
		dangling: []int{},
		policy:   policy,
	}

	for i := 0; i < n; i++ {
		node := index.Node(i)
		targets, exists := G[node]
		if !exists {
			return nil, fmt.Errorf("%w: node %q", models.ErrNodeNotFound, node)
		}

		if len(targets) == 0 {
			M.dangling = append(M.dangling, i)
			M.rowPtr[i+1] = len(M.cols)
			continue
		}

		// collapse multi-edges, preserving the order of first appearance
		counts := make(map[int]int, len(targets))
		order := make([]int, 0, len(targets))
		for _, target := range targets {
			j, exists := index.Position(target)
			if !exists {
				return nil, fmt.Errorf("%w: %q links to %q", models.ErrNodeNotFound, node, target)
			}

			if counts[j] == 0 {
				order = append(order, j)
			}
			counts[j]++
		}

		outdegree := float64(len(targets))
		for _, j := range order {
			M.cols = append(M.cols, j)
			M.vals = append(M.vals, float64(counts[j])/outdegree)
		}
		M.rowPtr[i+1] = len(M.cols)
	}

	return M, nil
}

// Validate() returns the appropriate error if the matrix is nil or empty.
func (M *Sparse) Validate() error {
	if M == nil {
		return ErrNilMatrix
	}
	if M.n == 0 {
		return models.ErrEmptyGraph
	}
	return nil
}

// Size() returns N, the number of rows (and columns).
func (M *Sparse) Size() int {
	if M == nil {
		return 0
	}
	return M.n
}

// NNZ() returns the number of stored entries.
func (M *Sparse) NNZ() int {
	return len(M.vals)
}

// Policy() returns the dangling policy used to build the matrix.
func (M *Sparse) Policy() DanglingPolicy {
	return M.policy
}

// Dangling() returns the set of positions of the dangling nodes.
func (M *Sparse) Dangling() mapset.Set[int] {
	return mapset.NewThreadUnsafeSet(M.dangling...)
}

// At() returns R[i][j], with the dangling policy applied.
func (M *Sparse) At(i, j int) float64 {
	if M.rowPtr[i] == M.rowPtr[i+1] && M.policy == DanglingUniform {
		return 1 / float64(M.n)
	}

	for k := M.rowPtr[i]; k < M.rowPtr[i+1]; k++ {
		if M.cols[k] == j {
			return M.vals[k]
		}
	}
	return 0
}

// RowSum() returns the sum of row i, which is 1 unless i is dangling under DanglingZero.
func (M *Sparse) RowSum(i int) float64 {
	if M.rowPtr[i] == M.rowPtr[i+1] {
		if M.policy == DanglingUniform {
			return 1
		}
		return 0
	}

	sum := 0.0
	for k := M.rowPtr[i]; k < M.rowPtr[i+1]; k++ {
		sum += M.vals[k]
	}
	return sum
}

// TransposeMul() computes dst = Rᵗx. dst and x must have length N and must not overlap.
func (M *Sparse) TransposeMul(dst, x models.Vector) error {
	if len(x) != M.n || len(dst) != M.n {
		return fmt.Errorf("%w: matrix is %dx%d, x has %d entries, dst has %d",
			models.ErrDimensionMismatch, M.n, M.n, len(x), len(dst))
	}

	for j := range dst {
		dst[j] = 0
	}

	for i := 0; i < M.n; i++ {
		xi := x[i]
		if xi == 0 {
			continue
		}
		for k := M.rowPtr[i]; k < M.rowPtr[i+1]; k++ {
			dst[M.cols[k]] += M.vals[k] * xi
		}
	}

	if M.policy == DanglingUniform && len(M.dangling) > 0 {
		mass := 0.0
		for _, i := range M.dangling {
			mass += x[i]
		}

		share := mass / float64(M.n)
		for j := range dst {
			dst[j] += share
		}
	}

	return nil
}

func edgeCount(G models.Graph) int {
	count := 0
	for _, targets := range G {
		count += len(targets)
	}
	return count
}

//--------------------------ERROR-CODES--------------------------

var ErrNilMatrix = errors.New("matrix pointer is nil")
var ErrInvalidPolicy = errors.New("invalid dangling policy")
