/*
The models package defines the fundamental structures used in this project.

Graph, TagTable and NodeIndex:
the link graph of the crawled collection, the topics describing each node, and
the immutable node <--> position bijection that every component uses as its index space.

Vector and Ranking:
the per-topic rank vectors and the final ranking handed to the presentation layer.

Profile:
the user's ordered topic ratings, normalized into the weights of the combination.
*/
package models

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// Graph maps each node to the ordered list of nodes it links to.
// Duplicated targets are multi-edges, self-loops are allowed.
type Graph map[string][]string

// TagTable maps each node to the set of lowercase topics describing its content.
type TagTable map[string]mapset.Set[string]

// Tags returns the tag set of node, or an empty set if the node has no tags.
func (T TagTable) Tags(node string) mapset.Set[string] {
	tags, exists := T[node]
	if !exists || tags == nil {
		return mapset.NewThreadUnsafeSet[string]()
	}
	return tags
}

// NodeIndex is the immutable bijection node <--> position. It is computed once
// when the graph is loaded and shared by the matrix, the jump vectors and the ranking.
type NodeIndex struct {
	nodes     []string
	positions map[string]int
}

// NewNodeIndex() returns the NodeIndex that assigns to each node its position in nodes.
func NewNodeIndex(nodes []string) (*NodeIndex, error) {
	index := &NodeIndex{
		nodes:     make([]string, len(nodes)),
		positions: make(map[string]int, len(nodes)),
	}

	for i, node := range nodes {
		if _, exists := index.positions[node]; exists {
			return nil, fmt.Errorf("%w: duplicated node %q", ErrMalformedInput, node)
		}

		index.nodes[i] = node
		index.positions[node] = i
	}

	return index, nil
}

// Validate() returns the appropriate error if the index is nil or empty.
func (I *NodeIndex) Validate() error {
	if I == nil {
		return ErrNilIndex
	}
	if len(I.nodes) == 0 {
		return ErrEmptyGraph
	}
	return nil
}

// Len() returns the number of nodes in the index.
func (I *NodeIndex) Len() int {
	if I == nil {
		return 0
	}
	return len(I.nodes)
}

// Position() returns the position of node, and whether the node was found.
func (I *NodeIndex) Position(node string) (int, bool) {
	if I == nil {
		return -1, false
	}
	pos, exists := I.positions[node]
	return pos, exists
}

// Node() returns the node at position i. It panics if i is out of range.
func (I *NodeIndex) Node(i int) string {
	return I.nodes[i]
}

// Nodes() returns a copy of the nodes in index order.
func (I *NodeIndex) Nodes() []string {
	if I == nil {
		return nil
	}
	nodes := make([]string, len(I.nodes))
	copy(nodes, I.nodes)
	return nodes
}

//--------------------------ERROR-CODES--------------------------

var ErrMalformedInput = errors.New("malformed input")
var ErrEmptyGraph = errors.New("graph is empty")
var ErrNilIndex = errors.New("node index is nil")
var ErrNodeNotFound = errors.New("node not found in the index")
