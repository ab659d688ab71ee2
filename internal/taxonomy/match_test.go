package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_Abbreviations(t *testing.T) {
	m := NewMatcher(Default(), 70)

	tests := []struct {
		label string
		key   string
	}{
		{"GSR", "gsr"},
		{"GPR", "gsr"},
		{"R&M", "repairs_maintenance"},
		{"NOI", "noi"},
		{"EGI", "total_revenue"},
		{"G&A", "admin"},
		{"RUBS", "other_income"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			key, ok := m.Match(tt.label)
			require.True(t, ok)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestMatch_Patterns(t *testing.T) {
	m := NewMatcher(Default(), 70)

	tests := []struct {
		label string
		key   string
	}{
		{"Total Operating Expenses", "total_opex"},
		{"Total Expenses", "total_opex"},
		{"Gross Potential Rent", "gsr"},
		{"Loss to Lease", "loss_to_lease"},
		{"Gain/(Loss) to Lease", "loss_to_lease"},
		{"Vacancy Loss", "vacancy"},
		{"Bad Debt / Collection Loss", "bad_debt"},
		{"Real Estate Taxes", "taxes"},
		{"Water & Sewer", "utilities"},
		{"Repairs & Maintenance", "repairs_maintenance"},
		{"Net Operating Income", "noi"},
		{"Replacement Reserves", "reserves"},
		{"Capital Improvements", "capex"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			key, ok := m.Match(tt.label)
			require.True(t, ok, "expected %q to classify", tt.label)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestMatch_GLCodePrefixStripped(t *testing.T) {
	m := NewMatcher(Default(), 70)

	key, ok := m.Match("4100 - Gross Scheduled Rent")
	require.True(t, ok)
	assert.Equal(t, "gsr", key)

	key, ok = m.Match("5200.10: Property Insurance")
	require.True(t, ok)
	assert.Equal(t, "insurance", key)
}

func TestMatch_SkipWordsVetoGSR(t *testing.T) {
	m := NewMatcher(Default(), 70)

	// "Net" and "excl" mark modified rent figures that must not be taken
	// as gross scheduled rent.
	for _, label := range []string{
		"Net Potential Rent (excl. concessions)",
		"Effective Gross Scheduled Rent",
	} {
		key, ok := m.Match(label)
		if ok {
			assert.NotEqual(t, "gsr", key, "label %q must not classify as gsr", label)
		}
	}
}

func TestMatch_NonDataLabelsRejected(t *testing.T) {
	m := NewMatcher(Default(), 70)

	for _, label := range []string{
		"",
		"-----",
		"======",
		"Total",
		"Subtotal",
		"Page 3",
		"(continued)",
		"Expenses",
		"Income",
	} {
		_, ok := m.Match(label)
		assert.False(t, ok, "label %q should be rejected as non-data", label)
	}
}

func TestMatch_FuzzyAboveThreshold(t *testing.T) {
	m := NewMatcher(Default(), 70)

	// Word order scrambled; token-sort similarity still clears 70.
	key, ok := m.Match("maintenance and repairs")
	require.True(t, ok)
	assert.Equal(t, "repairs_maintenance", key)
}

func TestMatch_UnclassifiableReturnsFalse(t *testing.T) {
	m := NewMatcher(Default(), 70)

	_, ok := m.Match("Mezzanine Debt Service")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Gross   Scheduled Rent ", "gross scheduled rent"},
		{"4100 - Payroll", "payroll"},
		{"5200.10: Insurance", "insurance"},
		{"NOI", "noi"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestTokenSortRatio_OrderInsensitive(t *testing.T) {
	a := TokenSortRatio("repairs and maintenance", "maintenance and repairs")
	assert.InDelta(t, 100, a, 0.001)

	b := TokenSortRatio("gross scheduled rent", "management fee")
	assert.Less(t, b, 70.0)
}
