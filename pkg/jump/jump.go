// The jump package generates the personalization (jump) vector of a topic:
// the uniform distribution over the nodes whose tags match the topic.
package jump

import (
	"errors"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/vertex-lab/topicrank/pkg/models"
)

// MatchMode decides when a tag matches a topic.
type MatchMode int

const (
	// MatchSubstring matches when the topic occurs inside a tag (e.g. "physic" matches "astrophysics").
	MatchSubstring MatchMode = iota

	// MatchExact matches when the topic equals a tag.
	MatchExact
)

func (m MatchMode) String() string {
	switch m {
	case MatchSubstring:
		return "substring"
	case MatchExact:
		return "exact"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

// ParseMatchMode() parses "substring" or "exact".
func ParseMatchMode(s string) (MatchMode, error) {
	switch s {
	case "substring", "":
		return MatchSubstring, nil
	case "exact":
		return MatchExact, nil
	default:
		return MatchSubstring, fmt.Errorf("%w: %q", ErrInvalidMatchMode, s)
	}
}

// Match() returns whether any of the tags matches the (already normalized) topic.
func (m MatchMode) Match(tags mapset.Set[string], topic string) bool {
	if m == MatchExact {
		return tags.Contains(topic)
	}

	found := false
	tags.Each(func(tag string) bool {
		if strings.Contains(tag, topic) {
			found = true
			return true // stop the iteration
		}
		return false
	})
	return found
}

// NormalizeTopic() trims and lowercases the topic, the same way tags are normalized.
func NormalizeTopic(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

// Seeds() returns the set of nodes whose tags match the topic.
func Seeds(tags models.TagTable, topic string, mode MatchMode) mapset.Set[string] {
	topic = NormalizeTopic(topic)
	seeds := mapset.NewThreadUnsafeSet[string]()
	if topic == "" {
		return seeds
	}

	for node, set := range tags {
		if set == nil {
			continue
		}
		if mode.Match(set, topic) {
			seeds.Add(node)
		}
	}
	return seeds
}

/*
Generate() returns the jump vector of the topic: the uniform distribution over
the nodes whose tags match the topic, with positions given by index.

If no node matches, it returns the all-zero vector and models.ErrNoMatch.
This is a warning: the vector is valid and the caller decides what to do with it.
*/
func Generate(tags models.TagTable, index *models.NodeIndex, topic string, mode MatchMode) (models.Vector, error) {
	if err := index.Validate(); err != nil {
		return nil, err
	}

	J := models.NewVector(index.Len())
	seeds := Seeds(tags, topic, mode)

	matches := 0
	seeds.Each(func(node string) bool {
		if pos, exists := index.Position(node); exists {
			J[pos] = 1
			matches++
		}
		return false
	})

	if matches == 0 {
		return J, fmt.Errorf("%w: %q", models.ErrNoMatch, topic)
	}

	share := 1 / float64(matches)
	for i := range J {
		if J[i] != 0 {
			J[i] = share
		}
	}

	return J, nil
}

//--------------------------ERROR-CODES--------------------------

var ErrInvalidMatchMode = errors.New("invalid match mode")
