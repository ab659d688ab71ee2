package extract

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestview-group/underwriting-cli/internal/model"
	"github.com/crestview-group/underwriting-cli/internal/tabular"
	"github.com/crestview-group/underwriting-cli/internal/taxonomy"
)

func statementSheet() *tabular.Sheet {
	return &tabular.Sheet{
		Name: "T12",
		Rows: [][]string{
			{"Oakwood Flats", "", "", "", "", "", ""},
			{"Account", "Jul-24", "Aug-24", "Sep-24", "Oct-24", "Nov-24", "Dec-24"},
			{"Gross Scheduled Rent", "100", "100", "100", "100", "100", "100"},
			{"Vacancy Loss", "5", "5", "5", "5", "5", "5"},
			{"Total Operating Expenses", "40", "40", "40", "40", "40", "40"},
			{"Mezzanine Loan Fee", "1", "1", "1", "1", "1", "1"},
			{"", "", "", "", "", "", ""},
		},
	}
}

func TestExtractOperatingStatement(t *testing.T) {
	parser := tabular.NewParser(20, 2000)
	matcher := taxonomy.NewMatcher(taxonomy.Default(), 70)

	t12, t3, warnings, err := ExtractOperatingStatement(parser, statementSheet(), matcher, 6)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	require.NotNil(t, t12)
	assert.Equal(t, model.PeriodT12, t12.PeriodType)
	assert.Equal(t, 2024, t12.FiscalYear)
	assert.InDelta(t, 600, t12.LineItems["gsr"], 0.001)
	assert.InDelta(t, 30, t12.LineItems["vacancy"], 0.001)
	assert.InDelta(t, 240, t12.LineItems["total_opex"], 0.001)

	// Trailing three months annualize so the periods are comparable.
	require.NotNil(t, t3)
	assert.Equal(t, model.PeriodT3, t3.PeriodType)
	assert.InDelta(t, 1200, t3.LineItems["gsr"], 0.001)
	assert.InDelta(t, 960, t3.LineItems["total_opex"], 0.001)

	// Unmapped labels are preserved, never coerced to a canonical key.
	require.Len(t, t12.Unmapped, 1)
	assert.Contains(t, t12.Unmapped[0], "Mezzanine")

	// Derived metrics ride along.
	require.NotNil(t, t12.EconomicOccupancy)
	assert.InDelta(t, 0.95, *t12.EconomicOccupancy, 1e-9)
	require.NotNil(t, t12.OpexRatio)
	assert.InDelta(t, 0.40, *t12.OpexRatio, 1e-9)
}

func TestExtractOperatingStatement_PartialMonthsWarn(t *testing.T) {
	parser := tabular.NewParser(20, 2000)
	matcher := taxonomy.NewMatcher(taxonomy.Default(), 70)

	sheet := statementSheet()
	// NOI only starts in October.
	sheet.Rows = append(sheet.Rows, []string{"Net Operating Income", "", "", "", "55", "55", "55"})

	t12, _, warnings, err := ExtractOperatingStatement(parser, sheet, matcher, 6)
	require.NoError(t, err)
	assert.InDelta(t, 165, t12.LineItems["noi"], 0.001)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "noi")
	assert.Contains(t, warnings[0], "3 of 6 months")
}

func TestExtractOperatingStatement_SubAccountsAccumulate(t *testing.T) {
	parser := tabular.NewParser(20, 2000)
	matcher := taxonomy.NewMatcher(taxonomy.Default(), 70)

	sheet := statementSheet()
	sheet.Rows = append(sheet.Rows,
		[]string{"5100 - Electric", "2", "2", "2", "2", "2", "2"},
		[]string{"5110 - Water & Sewer", "3", "3", "3", "3", "3", "3"},
	)

	t12, _, _, err := ExtractOperatingStatement(parser, sheet, matcher, 6)
	require.NoError(t, err)
	assert.InDelta(t, 30, t12.LineItems["utilities"], 0.001)
}

func TestExtractOperatingStatement_NoLineItems(t *testing.T) {
	parser := tabular.NewParser(20, 2000)
	matcher := taxonomy.NewMatcher(taxonomy.Default(), 70)

	sheet := &tabular.Sheet{
		Name: "T12",
		Rows: [][]string{
			{"Account", "Jul-24", "Aug-24", "Sep-24", "Oct-24", "Nov-24", "Dec-24"},
			{"Some Unrecognizable Thing", "1", "1", "1", "1", "1", "1"},
		},
	}

	_, _, _, err := ExtractOperatingStatement(parser, sheet, matcher, 6)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoLineItems))
}

func TestExtractOperatingStatement_InsufficientMonths(t *testing.T) {
	parser := tabular.NewParser(20, 2000)
	matcher := taxonomy.NewMatcher(taxonomy.Default(), 70)

	sheet := &tabular.Sheet{
		Name: "T12",
		Rows: [][]string{
			{"Account", "Nov-24", "Dec-24"},
			{"Gross Scheduled Rent", "100", "100"},
		},
	}

	_, _, _, err := ExtractOperatingStatement(parser, sheet, matcher, 6)
	require.Error(t, err)
	assert.True(t, eris.Is(err, tabular.ErrInsufficientMonths))
}
