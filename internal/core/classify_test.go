package core

import "testing"

func TestClassifyAccount(t *testing.T) {
	cases := []struct {
		label string
		want  AccountKind
	}{
		{"Revenue", KindRevenue},
		{"COGS", KindCOGS},
		{"Opex:Marketing", KindOpex},
		{"Opex:", KindOpex},
		{"revenue", KindOther}, // exact match is case-sensitive
		{"Cost of Goods", KindOther},
		{"", KindOther},
	}
	for i, tc := range cases {
		if got := ClassifyAccount(tc.label); got != tc.want {
			t.Fatalf("case %d: ClassifyAccount(%q) = %d, want %d", i, tc.label, got, tc.want)
		}
	}
}

func TestOpexCategory(t *testing.T) {
	cat, ok := OpexCategory("Opex:R&D")
	if !ok || cat != "R&D" {
		t.Fatalf("got (%q, %v)", cat, ok)
	}
	// Subcategories are case-sensitive grouping keys.
	cat2, _ := OpexCategory("Opex:R&d")
	if cat2 == cat {
		t.Fatalf("expected distinct categories, both %q", cat)
	}
	if _, ok := OpexCategory("Revenue"); ok {
		t.Fatalf("expected no category for Revenue")
	}
}

func TestCategorizeLabel(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"R&D Headcount", "R&D"},
		{"Engineering Tools", "R&D"},
		{"Sales Commissions", "Sales & Marketing"},
		{"Digital Advertising", "Sales & Marketing"},
		{"Legal Fees", "General & Admin"},
		{"Office Rent", "Facilities"},
		{"Payroll Taxes", "Personnel"},
		{"Miscellaneous", "Other"},
	}
	for i, tc := range cases {
		if got := CategorizeLabel(tc.label); got != tc.want {
			t.Fatalf("case %d: CategorizeLabel(%q) = %q, want %q", i, tc.label, got, tc.want)
		}
	}
}

func TestCategorizeLabelFirstMatchWins(t *testing.T) {
	// "Research Marketing" hits both the R&D and Sales & Marketing rules;
	// rule order decides.
	if got := CategorizeLabel("Research Marketing"); got != "R&D" {
		t.Fatalf("got %q, want R&D", got)
	}
}
