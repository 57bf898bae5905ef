package csvimport

import "strings"

// MemberHeaderKeys are the recognized column keys for the member import
var MemberHeaderKeys = []string{
	"name", "houseNumber", "phone", "block", "cluster",
	"accountNumber", "husbandName", "address", "whatsapp",
}

// RequiredMemberHeaders must all resolve for a member import to proceed
var RequiredMemberHeaders = []string{"name", "houseNumber", "block", "cluster"}

// prefixLen is how much of a recognized key a header must share. Four
// characters is enough to tell the keys apart while tolerating suffixes
// like "Name of Member" or "Account No".
const prefixLen = 4

// MapMemberHeaders matches raw CSV headers against the recognized member
// keys, case- and whitespace-insensitively, using a prefix heuristic.
// Returns raw-header -> canonical-key for every header that matched.
func MapMemberHeaders(rawHeaders []string) map[string]string {
	mapped := make(map[string]string)
	for _, raw := range rawHeaders {
		normalized := normalizeHeader(raw)
		for _, key := range MemberHeaderKeys {
			prefix := strings.ToLower(key)
			if len(prefix) > prefixLen {
				prefix = prefix[:prefixLen]
			}
			if strings.HasPrefix(normalized, prefix) {
				mapped[raw] = key
				break
			}
		}
	}
	return mapped
}

// MissingMemberHeaders returns the required keys absent from a header
// mapping produced by MapMemberHeaders
func MissingMemberHeaders(headerMap map[string]string) []string {
	present := make(map[string]bool, len(headerMap))
	for _, key := range headerMap {
		present[key] = true
	}
	var missing []string
	for _, key := range RequiredMemberHeaders {
		if !present[key] {
			missing = append(missing, key)
		}
	}
	return missing
}

func normalizeHeader(h string) string {
	lower := strings.ToLower(h)
	return strings.Join(strings.Fields(lower), "")
}
