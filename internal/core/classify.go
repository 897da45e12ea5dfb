package core

import "strings"

// AccountKind is the semantic class of a ledger account label.
type AccountKind int

const (
	KindOther AccountKind = iota
	KindRevenue
	KindCOGS
	KindOpex
)

// OpexPrefix namespaces operating-expense account labels; the suffix is the
// free-form subcategory used verbatim as a grouping key.
const OpexPrefix = "Opex:"

// ClassifyAccount maps a canonical account label to its kind. Matching is
// exact for Revenue and COGS and prefix-based for operating expenses;
// anything else is KindOther.
func ClassifyAccount(label string) AccountKind {
	switch {
	case label == "Revenue":
		return KindRevenue
	case label == "COGS":
		return KindCOGS
	case strings.HasPrefix(label, OpexPrefix):
		return KindOpex
	}
	return KindOther
}

// OpexCategory extracts the display subcategory from an Opex label. The
// suffix is case-sensitive: "Opex:R&D" and "Opex:R&d" are distinct keys.
func OpexCategory(label string) (string, bool) {
	if !strings.HasPrefix(label, OpexPrefix) {
		return "", false
	}
	return label[len(OpexPrefix):], true
}

// labelRules maps keyword hits in free-text account labels to broad expense
// categories. Order matters: first match wins.
var labelRules = []struct {
	category string
	keywords []string
}{
	{"R&D", []string{"r&d", "research", "development", "engineering"}},
	{"Sales & Marketing", []string{"sales", "marketing", "advertising"}},
	{"General & Admin", []string{"admin", "general", "legal", "finance", "hr"}},
	{"Facilities", []string{"rent", "office", "utilities", "facilities"}},
	{"Personnel", []string{"salary", "wages", "payroll", "compensation"}},
}

// CategorizeLabel classifies a human-readable account label into a broad
// expense category. Used by the wide-schema ingest adapter, whose source
// files carry free-text labels instead of Opex:-namespaced ones. "Other" is
// the fallback when no keyword matches.
func CategorizeLabel(label string) string {
	lower := strings.ToLower(label)
	for _, rule := range labelRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return "Other"
}
