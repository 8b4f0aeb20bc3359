package redistore

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/vertex-lab/topicrank/pkg/graph"
	"github.com/vertex-lab/topicrank/pkg/models"
	"github.com/vertex-lab/topicrank/pkg/utils/redisutils"
)

// setupClient() returns a client connected to the test Redis instance,
// skipping the test if the instance can't be reached.
func setupClient(t *testing.T) *redis.Client {
	t.Helper()
	cl := redisutils.SetupTestClient()
	if err := redisutils.Ping(context.Background(), cl); err != nil {
		cl.Close()
		t.Skipf("redis is not reachable at %v: %v", redisutils.TestAddress, err)
	}

	t.Cleanup(func() {
		redisutils.CleanupRedis(cl)
		cl.Close()
	})
	return cl
}

func TestNewStore(t *testing.T) {
	if _, err := NewStore(nil); !errors.Is(err, ErrNilClientPointer) {
		t.Fatalf("NewStore(): expected %v, got %v", ErrNilClientPointer, err)
	}

	var RS *Store
	if err := RS.Validate(); !errors.Is(err, ErrNilStorePointer) {
		t.Fatalf("Validate(): expected %v, got %v", ErrNilStorePointer, err)
	}

	if err := (&Store{}).Validate(); !errors.Is(err, ErrNilClientPointer) {
		t.Fatalf("Validate(): expected %v, got %v", ErrNilClientPointer, err)
	}
}

func TestKeys(t *testing.T) {
	testCases := []struct {
		key      string
		expected string
	}{
		{key: KeyNodes("wiki"), expected: "nodes:wiki"},
		{key: KeyLinks("wiki", "Rome.html"), expected: "links:wiki:Rome.html"},
		{key: KeyTags("wiki", "Rome.html"), expected: "tags:wiki:Rome.html"},
		{key: KeyTopics("wiki", "abc"), expected: "topics:wiki:abc"},
		{key: KeyFingerprints("wiki"), expected: "fingerprints:wiki"},
		{key: KeyRanking("wiki"), expected: "ranking:wiki"},
	}

	for _, test := range testCases {
		if test.key != test.expected {
			t.Errorf("expected %v, got %v", test.expected, test.key)
		}
	}
}

func TestValidateName(t *testing.T) {
	testCases := []struct {
		name     string
		expected error
	}{
		{name: "", expected: ErrInvalidName},
		{name: "wiki:en", expected: ErrInvalidName},
		{name: "wiki", expected: nil},
		{name: "wiki-en_2007", expected: nil},
	}

	for _, test := range testCases {
		if err := ValidateName(test.name); !errors.Is(err, test.expected) {
			t.Errorf("ValidateName(%q): expected %v, got %v", test.name, test.expected, err)
		}
	}

	// rejected before reaching Redis, so no connection is needed.
	cl := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer cl.Close()
	RS, _ := NewStore(cl)
	ctx := context.Background()

	if err := RS.SaveGraph(ctx, "a:b", graph.SetupStore("cycle")); !errors.Is(err, ErrInvalidName) {
		t.Errorf("SaveGraph(): expected %v, got %v", ErrInvalidName, err)
	}
	if _, err := RS.LoadGraph(ctx, "a:b"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("LoadGraph(): expected %v, got %v", ErrInvalidName, err)
	}
	if err := RS.DeleteGraph(ctx, ""); !errors.Is(err, ErrInvalidName) {
		t.Errorf("DeleteGraph(): expected %v, got %v", ErrInvalidName, err)
	}
	if err := RS.SaveTopicRanks(ctx, "a:b", "fp", map[string]models.Vector{"x": {1}}); !errors.Is(err, ErrInvalidName) {
		t.Errorf("SaveTopicRanks(): expected %v, got %v", ErrInvalidName, err)
	}
	if _, err := RS.TopicRanks(ctx, "a:b", "fp"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("TopicRanks(): expected %v, got %v", ErrInvalidName, err)
	}
	if err := RS.SaveRanking(ctx, "a:b", models.Ranking{}); !errors.Is(err, ErrInvalidName) {
		t.Errorf("SaveRanking(): expected %v, got %v", ErrInvalidName, err)
	}
	if _, err := RS.Ranking(ctx, "", 0); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Ranking(): expected %v, got %v", ErrInvalidName, err)
	}
	if RS.ContainsGraph(ctx, "a:b") {
		t.Errorf("ContainsGraph(): expected false, got true")
	}
}

func TestSaveLoadGraph(t *testing.T) {
	cl := setupClient(t)
	ctx := context.Background()
	RS, err := NewStore(cl)
	if err != nil {
		t.Fatalf("NewStore(): expected nil, got %v", err)
	}

	t.Run("nil graph store", func(t *testing.T) {
		if err := RS.SaveGraph(ctx, "nil", graph.SetupStore("nil")); !errors.Is(err, graph.ErrNilStore) {
			t.Fatalf("SaveGraph(): expected %v, got %v", graph.ErrNilStore, err)
		}
	})

	t.Run("graph not found", func(t *testing.T) {
		if _, err := RS.LoadGraph(ctx, "missing"); !errors.Is(err, ErrGraphNotFound) {
			t.Fatalf("LoadGraph(): expected %v, got %v", ErrGraphNotFound, err)
		}
	})

	for _, storeType := range []string{"cycle", "dangling", "triangle", "multi-edge", "wiki"} {
		t.Run(storeType, func(t *testing.T) {
			S := graph.SetupStore(storeType)
			if err := RS.SaveGraph(ctx, storeType, S); err != nil {
				t.Fatalf("SaveGraph(): expected nil, got %v", err)
			}

			if !RS.ContainsGraph(ctx, storeType) {
				t.Fatalf("ContainsGraph(): expected true, got false")
			}

			loaded, err := RS.LoadGraph(ctx, storeType)
			if err != nil {
				t.Fatalf("LoadGraph(): expected nil, got %v", err)
			}

			assertSameStore(t, S, loaded)
		})
	}

	t.Run("overwrite", func(t *testing.T) {
		if err := RS.SaveGraph(ctx, "overwrite", graph.SetupStore("wiki")); err != nil {
			t.Fatalf("SaveGraph(): expected nil, got %v", err)
		}

		S := graph.SetupStore("cycle")
		if err := RS.SaveGraph(ctx, "overwrite", S); err != nil {
			t.Fatalf("SaveGraph(): expected nil, got %v", err)
		}

		loaded, err := RS.LoadGraph(ctx, "overwrite")
		if err != nil {
			t.Fatalf("LoadGraph(): expected nil, got %v", err)
		}
		assertSameStore(t, S, loaded)

		exists, err := cl.Exists(ctx, KeyLinks("overwrite", "Rome.html")).Result()
		if err != nil || exists != 0 {
			t.Fatalf("expected the links of the old graph to be deleted, got %v, %v", exists, err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := RS.DeleteGraph(ctx, "cycle"); err != nil {
			t.Fatalf("DeleteGraph(): expected nil, got %v", err)
		}

		if RS.ContainsGraph(ctx, "cycle") {
			t.Fatalf("ContainsGraph(): expected false, got true")
		}
	})
}

func TestTopicRanks(t *testing.T) {
	cl := setupClient(t)
	ctx := context.Background()
	RS, _ := NewStore(cl)

	vectors := map[string]models.Vector{
		"x": {2.0 / 3.0, 1.0 / 3.0},
		"y": {1.0 / 3.0, 2.0 / 3.0},
		"z": {0, 0},
	}

	if err := RS.SaveTopicRanks(ctx, "cycle", "a0.5", vectors); err != nil {
		t.Fatalf("SaveTopicRanks(): expected nil, got %v", err)
	}

	loaded, err := RS.TopicRanks(ctx, "cycle", "a0.5")
	if err != nil {
		t.Fatalf("TopicRanks(): expected nil, got %v", err)
	}

	if !reflect.DeepEqual(loaded, vectors) {
		t.Errorf("TopicRanks(): expected %v, got %v", vectors, loaded)
	}

	other, err := RS.TopicRanks(ctx, "cycle", "a0.85")
	if err != nil {
		t.Fatalf("TopicRanks(): expected nil, got %v", err)
	}

	if len(other) != 0 {
		t.Errorf("TopicRanks(): expected no vectors for another fingerprint, got %v", other)
	}
}

func TestReplaceGraph(t *testing.T) {
	cl := setupClient(t)
	ctx := context.Background()
	RS, _ := NewStore(cl)

	const fingerprint = "a0.5:e1e-08:i1000:substring:zero"
	setup := func(t *testing.T, name string) {
		t.Helper()
		old, err := graph.Load(strings.NewReader(`{"A": ["B"], "B": ["A"]}`), strings.NewReader(`{"A": "x", "B": "y"}`))
		if err != nil {
			t.Fatalf("Load(): expected nil, got %v", err)
		}

		if err := RS.SaveGraph(ctx, name, old); err != nil {
			t.Fatalf("SaveGraph(): expected nil, got %v", err)
		}

		vectors := map[string]models.Vector{"x": {2.0 / 3.0, 1.0 / 3.0}}
		if err := RS.SaveTopicRanks(ctx, name, fingerprint, vectors); err != nil {
			t.Fatalf("SaveTopicRanks(): expected nil, got %v", err)
		}

		if err := RS.SaveRanking(ctx, name, models.Ranking{{Node: "A", Score: 2.0 / 3.0}}); err != nil {
			t.Fatalf("SaveRanking(): expected nil, got %v", err)
		}
	}

	// assertNoDerivedData() fails the test if topics or ranking of name survived.
	assertNoDerivedData := func(t *testing.T, name string) {
		t.Helper()
		vectors, err := RS.TopicRanks(ctx, name, fingerprint)
		if err != nil {
			t.Fatalf("TopicRanks(): expected nil, got %v", err)
		}
		if len(vectors) != 0 {
			t.Fatalf("TopicRanks(): expected no vectors, got %v", vectors)
		}

		if _, err := RS.Ranking(ctx, name, 0); !errors.Is(err, ErrRankingNotFound) {
			t.Fatalf("Ranking(): expected %v, got %v", ErrRankingNotFound, err)
		}

		exists, err := cl.Exists(ctx, KeyFingerprints(name), KeyTopics(name, fingerprint)).Result()
		if err != nil || exists != 0 {
			t.Fatalf("expected the topic keys to be deleted, got %v, %v", exists, err)
		}
	}

	t.Run("re-import with swapped tags", func(t *testing.T) {
		setup(t, "swap")
		swapped, err := graph.Load(strings.NewReader(`{"A": ["B"], "B": ["A"]}`), strings.NewReader(`{"A": "y", "B": "x"}`))
		if err != nil {
			t.Fatalf("Load(): expected nil, got %v", err)
		}

		if err := RS.SaveGraph(ctx, "swap", swapped); err != nil {
			t.Fatalf("SaveGraph(): expected nil, got %v", err)
		}

		assertNoDerivedData(t, "swap")
		loaded, err := RS.LoadGraph(ctx, "swap")
		if err != nil {
			t.Fatalf("LoadGraph(): expected nil, got %v", err)
		}
		assertSameStore(t, swapped, loaded)
	})

	t.Run("delete", func(t *testing.T) {
		setup(t, "delete")
		if err := RS.DeleteGraph(ctx, "delete"); err != nil {
			t.Fatalf("DeleteGraph(): expected nil, got %v", err)
		}

		assertNoDerivedData(t, "delete")
		if RS.ContainsGraph(ctx, "delete") {
			t.Fatalf("ContainsGraph(): expected false, got true")
		}
	})

	t.Run("other graphs are untouched", func(t *testing.T) {
		setup(t, "kept")
		setup(t, "replaced")
		if err := RS.SaveGraph(ctx, "replaced", graph.SetupStore("triangle")); err != nil {
			t.Fatalf("SaveGraph(): expected nil, got %v", err)
		}

		vectors, err := RS.TopicRanks(ctx, "kept", fingerprint)
		if err != nil || len(vectors) != 1 {
			t.Fatalf("TopicRanks(): expected the vector of x, got %v, %v", vectors, err)
		}

		if _, err := RS.Ranking(ctx, "kept", 0); err != nil {
			t.Fatalf("Ranking(): expected nil, got %v", err)
		}
	})
}

func TestRanking(t *testing.T) {
	cl := setupClient(t)
	ctx := context.Background()
	RS, _ := NewStore(cl)

	ranking := models.Ranking{
		{Node: "A", Score: 0.5},
		{Node: "C", Score: 0.3},
		{Node: "B", Score: 0.2},
	}

	if _, err := RS.Ranking(ctx, "missing", 0); !errors.Is(err, ErrRankingNotFound) {
		t.Fatalf("Ranking(): expected %v, got %v", ErrRankingNotFound, err)
	}

	if err := RS.SaveRanking(ctx, "test", ranking); err != nil {
		t.Fatalf("SaveRanking(): expected nil, got %v", err)
	}

	testCases := []struct {
		name     string
		k        int
		expected models.Ranking
	}{
		{name: "whole ranking", k: 0, expected: ranking},
		{name: "top 2", k: 2, expected: ranking[:2]},
		{name: "k bigger than ranking", k: 10, expected: ranking},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			top, err := RS.Ranking(ctx, "test", test.k)
			if err != nil {
				t.Fatalf("Ranking(): expected nil, got %v", err)
			}

			if !reflect.DeepEqual(top, test.expected) {
				t.Errorf("Ranking(): expected %v, got %v", test.expected, top)
			}
		})
	}

	t.Run("replace", func(t *testing.T) {
		replacement := models.Ranking{{Node: "D", Score: 1}}
		if err := RS.SaveRanking(ctx, "test", replacement); err != nil {
			t.Fatalf("SaveRanking(): expected nil, got %v", err)
		}

		top, err := RS.Ranking(ctx, "test", 0)
		if err != nil {
			t.Fatalf("Ranking(): expected nil, got %v", err)
		}

		if !reflect.DeepEqual(top, replacement) {
			t.Errorf("Ranking(): expected %v, got %v", replacement, top)
		}
	})
}

// assertSameStore() fails the test if the two stores don't have the same
// node order, links and tags.
func assertSameStore(t *testing.T, expected, got *graph.Store) {
	t.Helper()
	if !reflect.DeepEqual(expected.Index().Nodes(), got.Index().Nodes()) {
		t.Fatalf("expected nodes %v, got %v", expected.Index().Nodes(), got.Index().Nodes())
	}

	for _, node := range expected.Index().Nodes() {
		expLinks, gotLinks := expected.Graph()[node], got.Graph()[node]
		if len(expLinks) != len(gotLinks) {
			t.Fatalf("node %v: expected links %v, got %v", node, expLinks, gotLinks)
		}
		for i := range expLinks {
			if expLinks[i] != gotLinks[i] {
				t.Fatalf("node %v: expected links %v, got %v", node, expLinks, gotLinks)
			}
		}

		if !expected.Tags().Tags(node).Equal(got.Tags().Tags(node)) {
			t.Fatalf("node %v: expected tags %v, got %v", node, expected.Tags().Tags(node), got.Tags().Tags(node))
		}
	}
}
