package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/vertex-lab/topicrank/pkg/models"
	"github.com/vertex-lab/topicrank/pkg/utils/sliceutils"
)

// ParseGraph() decodes a JSON object node --> [targets] and returns the graph
// together with the nodes in the order they appear in the source.
// The object is streamed token by token because decoding it into a map would lose the order.
func ParseGraph(r io.Reader) (models.Graph, []string, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, nil, err
	}

	G := make(models.Graph)
	order := []string{}

	for dec.More() {
		node, err := readKey(dec)
		if err != nil {
			return nil, nil, err
		}

		if _, exists := G[node]; exists {
			return nil, nil, fmt.Errorf("%w: duplicated node %q", models.ErrMalformedInput, node)
		}

		var targets []string
		if err := dec.Decode(&targets); err != nil {
			return nil, nil, fmt.Errorf("%w: links of %q should be a list of strings: %v",
				models.ErrMalformedInput, node, err)
		}

		if targets == nil {
			targets = []string{}
		}

		G[node] = targets
		order = append(order, node)
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, nil, err
	}

	if err := expectEOF(dec); err != nil {
		return nil, nil, err
	}

	if len(order) == 0 {
		return nil, nil, models.ErrEmptyGraph
	}

	return G, order, nil
}

// ParseTags() decodes a JSON object node --> tags, where tags is either a single
// comma-delimited string or a list of strings. Tags are lowercased and trimmed.
// Like in the graph, a node can appear only once.
func ParseTags(r io.Reader) (models.TagTable, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	tags := make(models.TagTable)
	for dec.More() {
		node, err := readKey(dec)
		if err != nil {
			return nil, err
		}

		if _, exists := tags[node]; exists {
			return nil, fmt.Errorf("%w: duplicated tags of %q", models.ErrMalformedInput, node)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: tags of %q: %v", models.ErrMalformedInput, node, err)
		}

		tokens, err := parseTagValue(value)
		if err != nil {
			return nil, fmt.Errorf("%w: tags of %q: %v", models.ErrMalformedInput, node, err)
		}
		tags[node] = NormalizeTags(tokens...)
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	if err := expectEOF(dec); err != nil {
		return nil, err
	}

	return tags, nil
}

// NormalizeTags() splits on commas, trims and lowercases the tags, dropping empty ones.
func NormalizeTags(tags ...string) mapset.Set[string] {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, tag := range tags {
		for _, token := range sliceutils.SplitTrim(tag, ",") {
			set.Add(strings.ToLower(token))
		}
	}
	return set
}

// parseTagValue() accepts either a string or a list of strings.
func parseTagValue(value json.RawMessage) ([]string, error) {
	var single string
	if err := json.Unmarshal(value, &single); err == nil {
		return []string{single}, nil
	}

	var list []string
	if err := json.Unmarshal(value, &list); err != nil {
		return nil, fmt.Errorf("expected a string or a list of strings, got %s", value)
	}
	return list, nil
}

func expectDelim(dec *json.Decoder, delim json.Delim) error {
	token, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
	}

	if d, ok := token.(json.Delim); !ok || d != delim {
		return fmt.Errorf("%w: expected %v, got %v", models.ErrMalformedInput, delim, token)
	}
	return nil
}

// expectEOF() returns an error if anything but whitespace follows the top-level object.
func expectEOF(dec *json.Decoder) error {
	token, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
	}
	return fmt.Errorf("%w: unexpected %v after the end of the object", models.ErrMalformedInput, token)
}

func readKey(dec *json.Decoder) (string, error) {
	token, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
	}

	key, ok := token.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected a node key, got %v", models.ErrMalformedInput, token)
	}
	return key, nil
}
