package membership

import "strings"

// Collection names in the document store
const (
	CollectionBlocks   = "blocks"
	CollectionClusters = "clusters"
)

// DefaultClusterNames are created alongside every new block
var DefaultClusterNames = []string{"A", "B", "C", "D"}

// Block is the top-level geographic/organizational grouping of members.
// Block names are unique case-insensitively.
type Block struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BlockView is a block populated with its clusters, sorted by cluster name
type BlockView struct {
	Block
	Clusters []Cluster `json:"clusters"`
}

// NormalizeName trims surrounding whitespace from a block or cluster name
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// NamesEqual compares two block/cluster names case-insensitively, ignoring
// surrounding whitespace
func NamesEqual(a, b string) bool {
	return strings.EqualFold(NormalizeName(a), NormalizeName(b))
}
