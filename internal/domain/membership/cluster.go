package membership

import "strings"

// Cluster is a sub-grouping within a block, conventionally lettered A-D but
// user-extensible. Names are unique within their block, case-insensitively,
// and stored upper-cased.
type Cluster struct {
	ID      string `json:"id"`
	BlockID string `json:"blockId"`
	Name    string `json:"name"`
}

// CanonicalClusterName normalizes a cluster name for storage
func CanonicalClusterName(name string) string {
	return strings.ToUpper(NormalizeName(name))
}
