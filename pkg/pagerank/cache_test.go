package pagerank

import (
	"reflect"
	"testing"

	"github.com/vertex-lab/topicrank/pkg/models"
)

func TestRankCache(t *testing.T) {
	var nilCache *RankCache
	if _, found := nilCache.Load("x"); found {
		t.Errorf("Load(): expected not found on nil cache")
	}

	RC := NewRankCache()
	RC.Store("x", TopicRank{Vector: models.Vector{1, 0}, Matches: 1})

	rank, found := RC.Load("x")
	if !found || !reflect.DeepEqual(rank.Vector, models.Vector{1, 0}) {
		t.Errorf("Load(): expected [1 0], got %v, %v", rank.Vector, found)
	}

	RC.Store("nothing", TopicRank{Vector: models.Vector{0, 0}})
	vectors := RC.Vectors()
	if len(vectors) != 1 || !reflect.DeepEqual(vectors["x"], models.Vector{1, 0}) {
		t.Errorf("Vectors(): expected only the matched topic x, got %v", vectors)
	}

	RC.Clear()
	if RC.Size() != 0 {
		t.Errorf("Size(): expected 0, got %d", RC.Size())
	}
}
