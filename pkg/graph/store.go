// The graph package loads the link graph and the topic tags of a crawled collection,
// and fixes once and for all the order of the nodes.
package graph

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vertex-lab/topicrank/pkg/models"
)

// Store holds the graph, the tags and the node index of a ranking session.
// It is immutable after Load and can be shared by concurrent solves.
type Store struct {
	graph models.Graph
	tags  models.TagTable
	index *models.NodeIndex

	// the number of tagged nodes that are not in the graph (ignored)
	unknownTagged int
}

// Load() parses the graph and the tags, and returns the Store.
// The node order is the order in which nodes appear as keys in graphSource.
func Load(graphSource, tagsSource io.Reader) (*Store, error) {
	if graphSource == nil || tagsSource == nil {
		return nil, fmt.Errorf("%w: nil source", models.ErrMalformedInput)
	}

	G, order, err := ParseGraph(graphSource)
	if err != nil {
		return nil, fmt.Errorf("graph source: %w", err)
	}

	index, err := models.NewNodeIndex(order)
	if err != nil {
		return nil, fmt.Errorf("graph source: %w", err)
	}

	tags, err := ParseTags(tagsSource)
	if err != nil {
		return nil, fmt.Errorf("tags source: %w", err)
	}

	return New(G, tags, index)
}

// LoadFiles() opens the two JSON files and loads the Store.
func LoadFiles(graphPath, tagsPath string) (*Store, error) {
	graphFile, err := os.Open(graphPath)
	if err != nil {
		return nil, fmt.Errorf("error opening file \"%v\": %w", graphPath, err)
	}
	defer graphFile.Close()

	tagsFile, err := os.Open(tagsPath)
	if err != nil {
		return nil, fmt.Errorf("error opening file \"%v\": %w", tagsPath, err)
	}
	defer tagsFile.Close()

	return Load(graphFile, tagsFile)
}

// New() returns a Store built from already parsed structures. It checks that
// the index and the graph contain the same nodes, and that every link points
// to a node of the graph. Tags of nodes outside the graph are dropped.
func New(G models.Graph, tags models.TagTable, index *models.NodeIndex) (*Store, error) {
	if err := index.Validate(); err != nil {
		return nil, err
	}

	if len(G) != index.Len() {
		return nil, fmt.Errorf("%w: graph has %d nodes, index has %d",
			models.ErrMalformedInput, len(G), index.Len())
	}

	for node, targets := range G {
		if _, exists := index.Position(node); !exists {
			return nil, fmt.Errorf("%w: node %q is not in the index", models.ErrMalformedInput, node)
		}

		for _, target := range targets {
			if _, exists := index.Position(target); !exists {
				return nil, fmt.Errorf("%w: node %q links to %q, which is not a node of the graph",
					models.ErrMalformedInput, node, target)
			}
		}
	}

	S := &Store{
		graph: G,
		tags:  make(models.TagTable, len(tags)),
		index: index,
	}

	for node, set := range tags {
		if _, exists := index.Position(node); !exists {
			S.unknownTagged++
			continue
		}
		S.tags[node] = set
	}

	return S, nil
}

// Validate() returns the appropriate error if the Store is nil or empty.
func (S *Store) Validate() error {
	if S == nil {
		return ErrNilStore
	}
	return S.index.Validate()
}

// Graph() returns the link graph. It must not be modified.
func (S *Store) Graph() models.Graph {
	return S.graph
}

// Tags() returns the tag table. It must not be modified.
func (S *Store) Tags() models.TagTable {
	return S.tags
}

// Index() returns the node index shared by all components.
func (S *Store) Index() *models.NodeIndex {
	return S.index
}

// Size() returns the number of nodes (ignores errors).
func (S *Store) Size() int {
	if S == nil {
		return 0
	}
	return S.index.Len()
}

// UnknownTagged() returns the number of tagged nodes that were not in the graph.
func (S *Store) UnknownTagged() int {
	return S.unknownTagged
}

//--------------------------ERROR-CODES--------------------------

var ErrNilStore = errors.New("graph store pointer is nil")
