// The redistore package keeps the artifacts of a ranking session in Redis: the
// graph with its tags and node order, the solved topic vectors and the final rankings.
// A graph imported once can be reused by later sessions without parsing the source files again.
package redistore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/vertex-lab/topicrank/pkg/graph"
	"github.com/vertex-lab/topicrank/pkg/models"
	"github.com/vertex-lab/topicrank/pkg/utils/redisutils"
)

// Store persists graphs, topic vectors and rankings in Redis.
type Store struct {
	client *redis.Client
}

// NewStore() returns a Store using the provided Redis client.
func NewStore(cl *redis.Client) (*Store, error) {
	if cl == nil {
		return nil, ErrNilClientPointer
	}
	return &Store{client: cl}, nil
}

// Validate() check if RS and client are nil and returns the appropriare error
func (RS *Store) Validate() error {
	if RS == nil {
		return ErrNilStorePointer
	}
	if RS.client == nil {
		return ErrNilClientPointer
	}
	return nil
}

// ValidateName() returns ErrInvalidName if name is empty or contains ':',
// the separator of the keys, which would make keys of different graphs collide.
func ValidateName(name string) error {
	if name == "" || strings.Contains(name, ":") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// ContainsGraph() returns whether a graph called name was saved (ignores errors).
func (RS *Store) ContainsGraph(ctx context.Context, name string) bool {
	if RS.Validate() != nil || ValidateName(name) != nil {
		return false
	}
	exists, err := RS.client.Exists(ctx, KeyNodes(name)).Result()
	return err == nil && exists == 1
}

/*
SaveGraph() saves the graph, the tags and the node order of S under name,
replacing any graph previously saved with the same name.

Replacing a graph also removes the topic vectors and the ranking derived from
the old one. Everything happens in a single transaction, which is retried if
another client modifies the same graph in the meantime.
*/
func (RS *Store) SaveGraph(ctx context.Context, name string, S *graph.Store) error {
	if err := RS.Validate(); err != nil {
		return err
	}
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := S.Validate(); err != nil {
		return err
	}

	nodes := S.Index().Nodes()
	save := func(tx *redis.Tx) error {
		stale, err := graphKeys(ctx, tx, name)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, stale...)
			pipe.RPush(ctx, KeyNodes(name), toInterfaces(nodes)...)

			for _, node := range nodes {
				if links := S.Graph()[node]; len(links) > 0 {
					pipe.RPush(ctx, KeyLinks(name, node), toInterfaces(links)...)
				}

				if tags := S.Tags().Tags(node); tags != nil && tags.Cardinality() > 0 {
					pipe.SAdd(ctx, KeyTags(name, node), toInterfaces(tags.ToSlice())...)
				}
			}
			return nil
		})
		return err
	}

	if err := RS.watch(ctx, save, KeyNodes(name), KeyFingerprints(name)); err != nil {
		return fmt.Errorf("failed to save graph %q: %w", name, err)
	}
	return nil
}

// LoadGraph() loads the graph saved under name, with the node order it was saved with.
func (RS *Store) LoadGraph(ctx context.Context, name string) (*graph.Store, error) {
	if err := RS.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	nodes, err := RS.client.LRange(ctx, KeyNodes(name), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrGraphNotFound, name)
	}

	pipe := RS.client.Pipeline()
	linkCmds := make([]*redis.StringSliceCmd, len(nodes))
	tagCmds := make([]*redis.StringSliceCmd, len(nodes))
	for i, node := range nodes {
		linkCmds[i] = pipe.LRange(ctx, KeyLinks(name, node), 0, -1)
		tagCmds[i] = pipe.SMembers(ctx, KeyTags(name, node))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	G := make(models.Graph, len(nodes))
	tags := make(models.TagTable, len(nodes))
	for i, node := range nodes {
		G[node] = linkCmds[i].Val()
		if members := tagCmds[i].Val(); len(members) > 0 {
			tags[node] = graph.NormalizeTags(members...)
		}
	}

	index, err := models.NewNodeIndex(nodes)
	if err != nil {
		return nil, err
	}

	return graph.New(G, tags, index)
}

// DeleteGraph() removes the graph saved under name, if any, together with its
// topic vectors and its ranking.
func (RS *Store) DeleteGraph(ctx context.Context, name string) error {
	if err := RS.Validate(); err != nil {
		return err
	}
	if err := ValidateName(name); err != nil {
		return err
	}

	remove := func(tx *redis.Tx) error {
		stale, err := graphKeys(ctx, tx, name)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, stale...)
			return nil
		})
		return err
	}

	if err := RS.watch(ctx, remove, KeyNodes(name), KeyFingerprints(name)); err != nil {
		return fmt.Errorf("failed to delete graph %q: %w", name, err)
	}
	return nil
}

// SaveTopicRanks() saves the rank vectors of the topics, solved with the
// parameters identified by fingerprint. They are removed when the graph is replaced or deleted.
func (RS *Store) SaveTopicRanks(ctx context.Context, name, fingerprint string, vectors map[string]models.Vector) error {
	if err := RS.Validate(); err != nil {
		return err
	}
	if err := ValidateName(name); err != nil {
		return err
	}
	if len(vectors) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(vectors))
	for topic, v := range vectors {
		fields[topic] = redisutils.FormatVector(v)
	}

	pipe := RS.client.TxPipeline()
	pipe.HSet(ctx, KeyTopics(name, fingerprint), fields)
	pipe.SAdd(ctx, KeyFingerprints(name), fingerprint)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save the topics of %q: %w", name, err)
	}
	return nil
}

// TopicRanks() returns the rank vectors saved under name and fingerprint.
func (RS *Store) TopicRanks(ctx context.Context, name, fingerprint string) (map[string]models.Vector, error) {
	if err := RS.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	fields, err := RS.client.HGetAll(ctx, KeyTopics(name, fingerprint)).Result()
	if err != nil {
		return nil, err
	}

	vectors := make(map[string]models.Vector, len(fields))
	for topic, strVector := range fields {
		v, err := redisutils.ParseVector(strVector)
		if err != nil {
			return nil, fmt.Errorf("failed to parse the vector of topic %q: %w", topic, err)
		}
		vectors[topic] = v
	}
	return vectors, nil
}

// SaveRanking() saves the ranking as a sorted set, replacing the previous one.
func (RS *Store) SaveRanking(ctx context.Context, name string, ranking models.Ranking) error {
	if err := RS.Validate(); err != nil {
		return err
	}
	if err := ValidateName(name); err != nil {
		return err
	}

	pipe := RS.client.TxPipeline()
	pipe.Del(ctx, KeyRanking(name))
	if len(ranking) > 0 {
		pipe.ZAdd(ctx, KeyRanking(name), redisutils.FormatRanking(ranking)...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save ranking %q: %w", name, err)
	}
	return nil
}

// Ranking() returns the first k entries of the ranking saved under name,
// sorted by score in descending order. If k <= 0, it returns the whole ranking.
func (RS *Store) Ranking(ctx context.Context, name string, k int) (models.Ranking, error) {
	if err := RS.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	stop := int64(k - 1)
	if k <= 0 {
		stop = -1
	}

	members, err := RS.client.ZRevRangeWithScores(ctx, KeyRanking(name), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrRankingNotFound, name)
	}

	return redisutils.ParseRanking(members)
}

// graphKeys() returns all the keys of the graph called name: nodes, links, tags,
// topic vectors of every fingerprint, and the ranking.
func graphKeys(ctx context.Context, tx *redis.Tx, name string) ([]string, error) {
	nodes, err := tx.LRange(ctx, KeyNodes(name), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	fingerprints, err := tx.SMembers(ctx, KeyFingerprints(name)).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, 2*len(nodes)+len(fingerprints)+3)
	keys = append(keys, KeyNodes(name), KeyFingerprints(name), KeyRanking(name))
	for _, node := range nodes {
		keys = append(keys, KeyLinks(name, node), KeyTags(name, node))
	}

	for _, fingerprint := range fingerprints {
		keys = append(keys, KeyTopics(name, fingerprint))
	}
	return keys, nil
}

// watch() runs fn in an optimistic transaction on the keys, retrying a few
// times if the keys are modified by another client before the transaction commits.
func (RS *Store) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = RS.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func toInterfaces(strs []string) []interface{} {
	values := make([]interface{}, len(strs))
	for i, s := range strs {
		values[i] = s
	}
	return values
}

const maxRetries int = 5

//--------------------------ERROR-CODES--------------------------

var ErrNilStorePointer = errors.New("redis store pointer is nil")
var ErrNilClientPointer = errors.New("nil client pointer")
var ErrInvalidName = errors.New("graph name should be non-empty and without ':'")
var ErrGraphNotFound = errors.New("graph not found in Redis")
var ErrRankingNotFound = errors.New("ranking not found in Redis")
