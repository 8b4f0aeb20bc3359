package matrix

import (
	"errors"
	"math"
	"testing"

	"github.com/vertex-lab/topicrank/pkg/graph"
	"github.com/vertex-lab/topicrank/pkg/models"
)

const tolerance = 1e-12

func TestBuild(t *testing.T) {
	t.Run("simple errors", func(t *testing.T) {
		index, _ := models.NewNodeIndex([]string{"A", "B"})

		testCases := []struct {
			name          string
			G             models.Graph
			index         *models.NodeIndex
			policy        DanglingPolicy
			expectedError error
		}{
			{
				name:          "nil index",
				G:             models.Graph{"A": {}},
				index:         nil,
				expectedError: models.ErrNilIndex,
			},
			{
				name:          "size mismatch",
				G:             models.Graph{"A": {}},
				index:         index,
				expectedError: models.ErrDimensionMismatch,
			},
			{
				name:          "node not in graph",
				G:             models.Graph{"A": {}, "C": {}},
				index:         index,
				expectedError: models.ErrNodeNotFound,
			},
			{
				name:          "target not in index",
				G:             models.Graph{"A": {"Z"}, "B": {}},
				index:         index,
				expectedError: models.ErrNodeNotFound,
			},
			{
				name:          "invalid policy",
				G:             models.Graph{"A": {}, "B": {}},
				index:         index,
				policy:        DanglingPolicy(7),
				expectedError: ErrInvalidPolicy,
			},
			{
				name:          "valid",
				G:             models.Graph{"A": {"B"}, "B": {}},
				index:         index,
				expectedError: nil,
			},
		}

		for _, test := range testCases {
			t.Run(test.name, func(t *testing.T) {
				_, err := Build(test.G, test.index, test.policy)
				if !errors.Is(err, test.expectedError) {
					t.Fatalf("Build(): expected %v, got %v", test.expectedError, err)
				}
			})
		}
	})

	t.Run("cycle", func(t *testing.T) {
		S := graph.SetupStore("cycle")
		M, err := Build(S.Graph(), S.Index(), DanglingZero)
		if err != nil {
			t.Fatalf("Build(): expected nil, got %v", err)
		}

		expected := [][]float64{
			{0, 1},
			{1, 0},
		}
		assertEntries(t, M, expected)
	})

	t.Run("multi-edges are collapsed", func(t *testing.T) {
		S := graph.SetupStore("multi-edge")
		M, err := Build(S.Graph(), S.Index(), DanglingZero)
		if err != nil {
			t.Fatalf("Build(): expected nil, got %v", err)
		}

		// A --> [B, B, A]
		expected := [][]float64{
			{1.0 / 3.0, 2.0 / 3.0},
			{1, 0},
		}
		assertEntries(t, M, expected)

		if M.NNZ() != 3 {
			t.Errorf("NNZ(): expected 3, got %d", M.NNZ())
		}
	})

	t.Run("dangling zero", func(t *testing.T) {
		S := graph.SetupStore("dangling")
		M, err := Build(S.Graph(), S.Index(), DanglingZero)
		if err != nil {
			t.Fatalf("Build(): expected nil, got %v", err)
		}

		expected := [][]float64{
			{0, 0.5, 0.5},
			{0, 0, 1},
			{0, 0, 0},
		}
		assertEntries(t, M, expected)

		if !M.Dangling().Contains(2) || M.Dangling().Cardinality() != 1 {
			t.Errorf("Dangling(): expected {2}, got %v", M.Dangling().ToSlice())
		}

		if M.RowSum(2) != 0 {
			t.Errorf("RowSum(2): expected 0, got %v", M.RowSum(2))
		}
	})

	t.Run("dangling uniform", func(t *testing.T) {
		S := graph.SetupStore("dangling")
		M, err := Build(S.Graph(), S.Index(), DanglingUniform)
		if err != nil {
			t.Fatalf("Build(): expected nil, got %v", err)
		}

		third := 1.0 / 3.0
		expected := [][]float64{
			{0, 0.5, 0.5},
			{0, 0, 1},
			{third, third, third},
		}
		assertEntries(t, M, expected)
	})
}

func TestTransposeMul(t *testing.T) {
	testCases := []struct {
		name     string
		policy   DanglingPolicy
		x        models.Vector
		expected models.Vector
	}{
		{
			name:     "dangling zero",
			policy:   DanglingZero,
			x:        models.Vector{0.2, 0.3, 0.5},
			expected: models.Vector{0, 0.1, 0.4},
		},
		{
			name:     "dangling uniform",
			policy:   DanglingUniform,
			x:        models.Vector{0.3, 0.3, 0.3},
			expected: models.Vector{0.1, 0.25, 0.55},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			S := graph.SetupStore("dangling")
			M, err := Build(S.Graph(), S.Index(), test.policy)
			if err != nil {
				t.Fatalf("Build(): expected nil, got %v", err)
			}

			dst := models.NewVector(M.Size())
			if err := M.TransposeMul(dst, test.x); err != nil {
				t.Fatalf("TransposeMul(): expected nil, got %v", err)
			}

			for j := range dst {
				if math.Abs(dst[j]-test.expected[j]) > tolerance {
					t.Errorf("TransposeMul(): expected %v, got %v", test.expected, dst)
					break
				}
			}
		})
	}

	t.Run("dimension mismatch", func(t *testing.T) {
		S := graph.SetupStore("cycle")
		M, _ := Build(S.Graph(), S.Index(), DanglingZero)

		err := M.TransposeMul(models.NewVector(2), models.NewVector(3))
		if !errors.Is(err, models.ErrDimensionMismatch) {
			t.Fatalf("TransposeMul(): expected %v, got %v", models.ErrDimensionMismatch, err)
		}
	})
}

func TestParseDanglingPolicy(t *testing.T) {
	testCases := []struct {
		input         string
		expected      DanglingPolicy
		expectedError error
	}{
		{input: "", expected: DanglingZero},
		{input: "zero", expected: DanglingZero},
		{input: "uniform", expected: DanglingUniform},
		{input: "teleport", expected: DanglingZero, expectedError: ErrInvalidPolicy},
	}

	for _, test := range testCases {
		policy, err := ParseDanglingPolicy(test.input)
		if !errors.Is(err, test.expectedError) {
			t.Fatalf("ParseDanglingPolicy(%q): expected %v, got %v", test.input, test.expectedError, err)
		}
		if policy != test.expected {
			t.Errorf("ParseDanglingPolicy(%q): expected %v, got %v", test.input, test.expected, policy)
		}
	}
}

func assertEntries(t *testing.T, M *Sparse, expected [][]float64) {
	t.Helper()
	for i := range expected {
		for j := range expected[i] {
			if got := M.At(i, j); math.Abs(got-expected[i][j]) > tolerance {
				t.Errorf("At(%d, %d): expected %v, got %v", i, j, expected[i][j], got)
			}
		}
	}
}
