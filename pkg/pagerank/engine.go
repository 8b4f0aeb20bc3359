package pagerank

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/vertex-lab/topicrank/pkg/graph"
	"github.com/vertex-lab/topicrank/pkg/jump"
	"github.com/vertex-lab/topicrank/pkg/matrix"
	"github.com/vertex-lab/topicrank/pkg/models"
	"github.com/vertex-lab/topicrank/pkg/utils/logger"
	"gonum.org/v1/gonum/floats"
)

// ConvergencePolicy decides what Combine does with a topic whose solve did not converge.
type ConvergencePolicy int

const (
	// FailOnNotConverged aborts the combination.
	FailOnNotConverged ConvergencePolicy = iota

	// SkipNotConverged gives the topic a zero contribution and reports a warning.
	SkipNotConverged
)

// EngineConfig contains the parameters of the ranking engine.
type EngineConfig struct {
	Params      Params
	Match       jump.MatchMode
	Dangling    matrix.DanglingPolicy
	Convergence ConvergencePolicy

	// Workers is the size of the pool that solves the topics. If <= 0, runtime.NumCPU() is used.
	Workers int

	// RandomStart starts each solve from a random distribution instead of the uniform one.
	RandomStart bool

	// Seed for the random starts. If 0, the current time is used.
	Seed int64
}

// NewEngineConfig() returns the default config.
func NewEngineConfig() EngineConfig {
	return EngineConfig{
		Params:      NewParams(),
		Match:       jump.MatchSubstring,
		Dangling:    matrix.DanglingZero,
		Convergence: FailOnNotConverged,
		Workers:     runtime.NumCPU(),
	}
}

func (c EngineConfig) Print() {
	c.Params.Print()
	fmt.Println("Engine:")
	fmt.Printf("  Match: %v\n", c.Match)
	fmt.Printf("  Dangling: %v\n", c.Dangling)
	fmt.Printf("  SkipNotConverged: %t\n", c.Convergence == SkipNotConverged)
	fmt.Printf("  Workers: %d\n", c.Workers)
	fmt.Printf("  RandomStart: %t\n", c.RandomStart)
}

/*
Engine is a ranking session over a loaded graph. The transition matrix is built
once in NewEngine, and is shared read-only by all the topic solves.

Solved topics are kept in a RankCache, so that repeated topics (in the same or in
later profiles) are solved only once.
*/
type Engine struct {
	store  *graph.Store
	matrix *matrix.Sparse
	config EngineConfig
	log    *logger.Aggregate

	cache  *RankCache
	solves *xsync.Counter
}

// NewEngine() validates the store and the config, and builds the transition matrix.
func NewEngine(S *graph.Store, config EngineConfig, log *logger.Aggregate) (*Engine, error) {
	if err := S.Validate(); err != nil {
		return nil, err
	}

	if err := config.Params.Validate(); err != nil {
		return nil, err
	}

	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}

	if log == nil {
		log = logger.Discard()
	}

	M, err := matrix.Build(S.Graph(), S.Index(), config.Dangling)
	if err != nil {
		return nil, fmt.Errorf("failed to build the transition matrix: %w", err)
	}

	log.Info("transition matrix built: %d nodes, %d entries, %d dangling",
		M.Size(), M.NNZ(), M.Dangling().Cardinality())

	return &Engine{
		store:  S,
		matrix: M,
		config: config,
		log:    log,
		cache:  NewRankCache(),
		solves: xsync.NewCounter(),
	}, nil
}

// Index() returns the node index of the session.
func (E *Engine) Index() *models.NodeIndex {
	return E.store.Index()
}

// Matrix() returns the transition matrix of the session.
func (E *Engine) Matrix() *matrix.Sparse {
	return E.matrix
}

// Cache() returns the cache of solved topics.
func (E *Engine) Cache() *RankCache {
	return E.cache
}

// Solves() returns how many power iterations have been run by the engine.
func (E *Engine) Solves() int64 {
	return E.solves.Value()
}

// Fingerprint() identifies the parameters that determine the topic vectors,
// so that persisted vectors are reused only by sessions that would solve them identically.
func (E *Engine) Fingerprint() string {
	p := E.config.Params
	return fmt.Sprintf("a%g:e%g:i%d:%v:%v", p.Alpha, p.Epsilon, p.MaxIterations, E.config.Match, E.config.Dangling)
}

// Preload() adds already solved topic vectors to the cache. Vectors with the
// wrong dimension are rejected; topics already in the cache are left untouched.
func (E *Engine) Preload(vectors map[string]models.Vector) error {
	n := E.matrix.Size()
	for topic, v := range vectors {
		if len(v) != n {
			return fmt.Errorf("%w: vector of topic %q has %d entries, the graph has %d nodes",
				models.ErrDimensionMismatch, topic, len(v), n)
		}

		key := jump.NormalizeTopic(topic)
		if _, found := E.cache.Load(key); found {
			continue
		}

		matches := jump.Seeds(E.store.Tags(), key, E.config.Match).Cardinality()
		E.cache.Store(key, TopicRank{Vector: v, Matches: matches})
	}
	return nil
}

/*
Rank() returns the topic-specific pagerank of topic.

If the topic matches no node, it returns the all-zero vector and models.ErrNoMatch,
which callers should treat as a warning.
*/
func (E *Engine) Rank(ctx context.Context, topic string) (TopicRank, error) {
	key := jump.NormalizeTopic(topic)
	if rank, found := E.cache.Load(key); found {
		if rank.Matches == 0 {
			return rank, fmt.Errorf("%w: %q", models.ErrNoMatch, topic)
		}
		return rank, nil
	}

	J, err := jump.Generate(E.store.Tags(), E.store.Index(), key, E.config.Match)
	if errors.Is(err, models.ErrNoMatch) {
		rank := TopicRank{Vector: J}
		E.cache.Store(key, rank)
		return rank, err
	}
	if err != nil {
		return TopicRank{}, err
	}

	stats := &Stats{}
	opts := []Option{WithStats(stats)}
	if E.config.RandomStart {
		opts = append(opts, WithRandomStart(E.rng(key)))
	}

	E.solves.Inc()
	x, err := Solve(ctx, E.matrix, J, E.config.Params, opts...)
	if err != nil {
		return TopicRank{Stats: *stats}, err
	}

	rank := TopicRank{Vector: x, Matches: countNonZero(J), Stats: *stats}
	E.cache.Store(key, rank)
	return rank, nil
}

// TopicResult reports the contribution of a topic to the final ranking.
type TopicResult struct {
	Topic   string
	Weight  float64
	Matches int
	Stats   Stats

	// Warning is non-nil when the topic contributes a zero vector
	// (models.ErrNoMatch, or models.ErrNotConverged under SkipNotConverged).
	Warning error
}

// Result is the outcome of Combine.
type Result struct {
	Ranking models.Ranking
	Scores  models.Vector
	Topics  []TopicResult
}

// Warnings() returns the warnings of the topics, in order.
func (R *Result) Warnings() []error {
	warnings := []error{}
	for _, topic := range R.Topics {
		if topic.Warning != nil {
			warnings = append(warnings, topic.Warning)
		}
	}
	return warnings
}

/*
Combine() computes the final ranking of the profile: the ratings are normalized
into weights, each topic is solved on a worker pool, and the final scores are

	score = Σ weight(topic) * rank(topic)

Results are gathered in the order of the profile, so the outcome doesn't depend
on the order in which the solves complete.
*/
func (E *Engine) Combine(ctx context.Context, profile models.Profile) (*Result, error) {
	weights, err := profile.Weights()
	if err != nil {
		return nil, err
	}

	ranks, errs := E.rankAll(ctx, profile)

	n := E.matrix.Size()
	result := &Result{
		Scores: models.NewVector(n),
		Topics: make([]TopicResult, len(profile)),
	}

	for i, tr := range profile {
		topic := TopicResult{
			Topic:   tr.Topic,
			Weight:  weights[i],
			Matches: ranks[i].Matches,
			Stats:   ranks[i].Stats,
		}

		switch err := errs[i]; {
		case err == nil:
			floats.AddScaled(result.Scores, weights[i], ranks[i].Vector)

		case errors.Is(err, models.ErrNoMatch):
			E.log.Warn("topic %q matches no node: its weight %.3f is lost", tr.Topic, weights[i])
			topic.Warning = err

		case errors.Is(err, models.ErrNotConverged) && E.config.Convergence == SkipNotConverged:
			E.log.Warn("topic %q skipped: %v", tr.Topic, err)
			topic.Warning = err

		default:
			E.log.Error("topic %q: %v", tr.Topic, err)
			return nil, fmt.Errorf("topic %q: %w", tr.Topic, err)
		}

		result.Topics[i] = topic
	}

	if result.Scores.IsZero() {
		E.log.Warn("no topic of the profile contributed to the ranking")
	}

	result.Ranking, err = models.NewRanking(E.store.Index(), result.Scores)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// rankAll() solves each topic of the profile on a worker pool. Each task writes
// only into its own slot of ranks and errs.
func (E *Engine) rankAll(ctx context.Context, profile models.Profile) ([]TopicRank, []error) {
	ranks := make([]TopicRank, len(profile))
	errs := make([]error, len(profile))

	pool, err := ants.NewPool(min(E.config.Workers, len(profile)))
	if err != nil {
		for i := range errs {
			errs[i] = fmt.Errorf("failed to create the worker pool: %w", err)
		}
		return ranks, errs
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, tr := range profile {
		i, tr := i, tr
		wg.Add(1)
		task := func() {
			defer wg.Done()
			start := time.Now()
			ranks[i], errs[i] = E.Rank(ctx, tr.Topic)
			if errs[i] == nil {
				E.log.Info("topic %q solved in %d iterations (%v)", tr.Topic, ranks[i].Stats.Iterations, time.Since(start))
			}
		}

		if err := pool.Submit(task); err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("failed to submit topic %q: %w", tr.Topic, err)
		}
	}

	wg.Wait()
	return ranks, errs
}

// rng() returns a new random source for the solve of topic.
func (E *Engine) rng(topic string) *rand.Rand {
	seed := E.config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	for _, c := range topic {
		seed = seed*31 + int64(c)
	}
	return rand.New(rand.NewSource(seed))
}

func countNonZero(v models.Vector) int {
	count := 0
	for _, val := range v {
		if val != 0 {
			count++
		}
	}
	return count
}
