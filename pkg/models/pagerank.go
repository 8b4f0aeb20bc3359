package models

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vertex-lab/topicrank/pkg/utils/sliceutils"
	"gonum.org/v1/gonum/floats"
)

// Vector is a dense vector over the positions of a NodeIndex.
type Vector []float64

// NewVector() returns the all-zero vector of length n.
func NewVector(n int) Vector {
	return make(Vector, n)
}

// IsZero() returns whether all the entries of the vector are zero.
func (v Vector) IsZero() bool {
	for _, val := range v {
		if val != 0 {
			return false
		}
	}
	return true
}

// Sum() returns the sum of the entries of the vector.
func (v Vector) Sum() float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Sum(v)
}

// Distance() computes the L1 distance between two vectors of the same length.
func Distance(v1, v2 Vector) (float64, error) {
	if len(v1) != len(v2) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(v1), len(v2))
	}
	if len(v1) == 0 {
		return 0, nil
	}
	return floats.Distance(v1, v2, 1), nil
}

// NodeScore is a node with its final score.
type NodeScore struct {
	Node  string  `json:"node"`
	Score float64 `json:"score"`
}

// Ranking is a slice of NodeScore sorted by score in descending order.
type Ranking []NodeScore

// NewRanking() zips the scores with the index, and sorts them by score in descending order.
// Ties are broken by the index order, so that the ranking is deterministic.
func NewRanking(index *NodeIndex, scores Vector) (Ranking, error) {
	if err := index.Validate(); err != nil {
		return nil, err
	}

	if index.Len() != len(scores) {
		return nil, fmt.Errorf("%w: index has %d nodes, scores has %d entries",
			ErrDimensionMismatch, index.Len(), len(scores))
	}

	positions := make([]int, len(scores))
	for i := range positions {
		positions[i] = i
	}

	slices.SortStableFunc(positions, func(i, j int) int {
		switch {
		case scores[i] > scores[j]:
			return -1
		case scores[i] < scores[j]:
			return 1
		default:
			return 0
		}
	})

	ranking := make(Ranking, len(scores))
	for r, pos := range positions {
		ranking[r] = NodeScore{Node: index.Node(pos), Score: scores[pos]}
	}

	return ranking, nil
}

// Map() returns the node --> score mapping of the ranking.
func (R Ranking) Map() map[string]float64 {
	scores := make(map[string]float64, len(R))
	for _, ns := range R {
		scores[ns.Node] = ns.Score
	}
	return scores
}

// Top() returns the first k entries of the ranking. If k <= 0 or k is bigger
// than the ranking, it returns the whole ranking.
func (R Ranking) Top(k int) Ranking {
	if k <= 0 || k >= len(R) {
		return R
	}
	return R[:k]
}

// Exclude() returns the ranking without the nodes containing any of the patterns
// (e.g. "Category", "language"). The relative order of the remaining nodes is preserved.
func (R Ranking) Exclude(patterns []string) Ranking {
	if len(patterns) == 0 {
		return R
	}

	filtered := make(Ranking, 0, len(R))
	for _, ns := range R {
		if sliceutils.ContainsAny(ns.Node, patterns) {
			continue
		}
		filtered = append(filtered, ns)
	}
	return filtered
}

//--------------------------ERROR-CODES--------------------------

var ErrDimensionMismatch = errors.New("dimension mismatch")
var ErrNoMatch = errors.New("topic matches no node")
var ErrNotConverged = errors.New("power iteration did not converge")
