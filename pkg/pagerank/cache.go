package pagerank

import (
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/vertex-lab/topicrank/pkg/models"
)

// TopicRank is the solved rank vector of a topic, together with how it was obtained.
type TopicRank struct {
	Vector  models.Vector
	Matches int
	Stats   Stats
}

// RankCache is a concurrent-safe map normalized topic --> TopicRank.
// Vectors stored in the cache are shared and must not be modified.
type RankCache struct {
	ranks *xsync.MapOf[string, TopicRank]
}

// NewRankCache() returns an empty RankCache.
func NewRankCache() *RankCache {
	return &RankCache{ranks: xsync.NewMapOf[string, TopicRank]()}
}

// Load() returns the TopicRank of topic, and whether it was found.
func (RC *RankCache) Load(topic string) (TopicRank, bool) {
	if RC == nil {
		return TopicRank{}, false
	}
	return RC.ranks.Load(topic)
}

// Store() saves the TopicRank of topic.
func (RC *RankCache) Store(topic string, rank TopicRank) {
	if RC == nil {
		return
	}
	RC.ranks.Store(topic, rank)
}

// Size() returns the number of cached topics.
func (RC *RankCache) Size() int {
	if RC == nil {
		return 0
	}
	return RC.ranks.Size()
}

// Clear() removes all the cached topics.
func (RC *RankCache) Clear() {
	if RC == nil {
		return
	}
	RC.ranks.Clear()
}

// Vectors() returns the vectors of the cached topics that matched at least one node.
func (RC *RankCache) Vectors() map[string]models.Vector {
	vectors := make(map[string]models.Vector)
	if RC == nil {
		return vectors
	}

	RC.ranks.Range(func(topic string, rank TopicRank) bool {
		if rank.Matches > 0 {
			vectors[topic] = rank.Vector
		}
		return true
	})
	return vectors
}
