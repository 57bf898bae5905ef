package ledger

import (
	"strconv"
	"strings"
)

// NormalizePhone maps a raw phone-number string to its canonical form:
// all non-digit characters are stripped, and a bare 10-digit number is
// assumed domestic and prefixed with country code 91. Numbers of any
// other length pass through digits-only with no further validation.
func NormalizePhone(raw string) string {
	if raw == "" {
		return ""
	}
	digits := stripNonDigits(raw)
	if len(digits) == 10 {
		return "91" + digits
	}
	return digits
}

// NormalizeSpreadsheetPhone normalizes a phone value coming from a CSV
// export. Spreadsheets mangle long numbers into scientific notation
// ("9.19876E+11"); those are expanded back to plain digits first.
// Returns "" when the value cannot be recovered.
func NormalizeSpreadsheetPhone(raw string) string {
	if raw == "" {
		return ""
	}
	clean := strings.TrimSpace(strings.ReplaceAll(raw, `"`, ""))
	if strings.Contains(strings.ToUpper(clean), "E+") {
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return ""
		}
		clean = strconv.FormatFloat(f, 'f', 0, 64)
	}
	return NormalizePhone(clean)
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
