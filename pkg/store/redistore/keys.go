package redistore

const (
	KeyNodesPrefix   string = "nodes:"
	KeyLinksPrefix   string = "links:"
	KeyTagsPrefix    string = "tags:"
	KeyTopicsPrefix  string = "topics:"
	KeyFPrintsPrefix string = "fingerprints:"
	KeyRankingPrefix string = "ranking:"
)

// KeyNodes() returns the key of the list of nodes of the graph, in index order.
func KeyNodes(name string) string {
	return KeyNodesPrefix + name
}

// KeyLinks() returns the key of the list of links of node.
func KeyLinks(name, node string) string {
	return KeyLinksPrefix + name + ":" + node
}

// KeyTags() returns the key of the set of tags of node.
func KeyTags(name, node string) string {
	return KeyTagsPrefix + name + ":" + node
}

// KeyTopics() returns the key of the hash topic --> rank vector, for vectors
// solved with the parameters identified by fingerprint.
func KeyTopics(name, fingerprint string) string {
	return KeyTopicsPrefix + name + ":" + fingerprint
}

// KeyFingerprints() returns the key of the set of fingerprints with topic vectors saved for the graph.
func KeyFingerprints(name string) string {
	return KeyFPrintsPrefix + name
}

// KeyRanking() returns the key of the sorted set node --> score.
func KeyRanking(name string) string {
	return KeyRankingPrefix + name
}
