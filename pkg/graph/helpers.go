package graph

import (
	"strings"
)

// SetupStore() returns a Store based on the provided type. It's used in tests
// of this and other packages.
func SetupStore(storeType string) *Store {
	switch storeType {
	case "nil":
		return nil

	case "cycle":
		// A <--> B
		return mustLoad(`{"A": ["B"], "B": ["A"]}`, `{"A": ["x"], "B": ["y"]}`)

	case "dangling":
		// C has no outgoing links
		return mustLoad(
			`{"A": ["B", "C"], "B": ["C"], "C": []}`,
			`{"A": "x", "B": ["x", "y"], "C": "z"}`)

	case "triangle":
		return mustLoad(
			`{"0": ["1"], "1": ["2"], "2": ["0"]}`,
			`{"0": "Computer Science, Physics", "1": ["Physics"], "2": ["History"]}`)

	case "multi-edge":
		// A links twice to B and once to itself
		return mustLoad(`{"A": ["B", "B", "A"], "B": ["A"]}`, `{"A": ["x"]}`)

	case "wiki":
		return mustLoad(
			`{
				"Rome.html": ["Italy.html", "Empire.html", "Rome.html"],
				"Italy.html": ["Rome.html", "Europe.html"],
				"Empire.html": ["Rome.html"],
				"Europe.html": ["Italy.html", "Physics.html"],
				"Physics.html": ["Einstein.html", "Europe.html"],
				"Einstein.html": ["Physics.html"],
				"Category_Help.html": []
			}`,
			`{
				"Rome.html": "history, geography",
				"Italy.html": ["Geography", "Politics"],
				"Empire.html": ["History"],
				"Europe.html": "geography",
				"Physics.html": ["Science", "Physics"],
				"Einstein.html": ["Physicist", "Science"],
				"Category_Help.html": "help",
				"Mars.html": "astronomy"
			}`)

	default:
		return nil
	}
}

func mustLoad(graphJSON, tagsJSON string) *Store {
	S, err := Load(strings.NewReader(graphJSON), strings.NewReader(tagsJSON))
	if err != nil {
		panic(err)
	}
	return S
}
