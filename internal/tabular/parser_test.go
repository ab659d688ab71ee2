package tabular

import (
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var compVocab = []string{"property", "sale price", "cap rate", "units", "submarket", "sale date"}

func compSheet() Sheet {
	return Sheet{
		Name: "Sales Comps",
		Rows: [][]string{
			{"Q3 2025 Sales Comp Tracker", "", "", "", ""},
			{"", "", "", "", ""},
			{"Property", "Submarket", "Units", "Sale Price", "Cap Rate"},
			{"Oakwood Flats", "Buckhead", "220", "$54.5M", "5.25%"},
			{"", "", "", "", ""},
			{"Pine Ridge", "Midtown", "180", "$41M", "5.10%"},
			{"Total", "", "400", "$95.5M", ""},
			{"Pine Ridge Phase II", "Midtown", "80", "$20M", "5.00%"},
		},
	}
}

func TestParse(t *testing.T) {
	p := NewParser(20, 2000)
	wb := &Workbook{Sheets: []Sheet{compSheet()}}

	res, err := p.Parse(wb, compVocab)
	require.NoError(t, err)

	assert.Equal(t, "Sales Comps", res.SheetName)
	assert.Equal(t, 2, res.HeaderRow)
	assert.Equal(t, []string{"Property", "Submarket", "Units", "Sale Price", "Cap Rate"}, res.Headers)

	// Blank rows are skipped, and the Total row stops the data region before
	// the stray row after it.
	require.Len(t, res.Records, 2)
	assert.Equal(t, "Oakwood Flats", res.Records[0]["Property"])
	assert.Equal(t, "Pine Ridge", res.Records[1]["Property"])
}

func TestSelectSheet_PrefersVocabularyMatch(t *testing.T) {
	p := NewParser(20, 2000)
	wb := &Workbook{Sheets: []Sheet{
		{Name: "Cover", Rows: [][]string{{"Confidential"}}},
		{Name: "Instructions", Rows: [][]string{{"How to use this workbook"}}},
		compSheet(),
	}}

	sheet := p.SelectSheet(wb, []string{"comps", "sales"})
	require.NotNil(t, sheet)
	assert.Equal(t, "Sales Comps", sheet.Name)
}

func TestSelectSheet_PopulationBreaksTies(t *testing.T) {
	p := NewParser(20, 2000)
	wb := &Workbook{Sheets: []Sheet{
		{Name: "Sheet1", Rows: [][]string{{"a"}}},
		{Name: "Sheet2", Rows: [][]string{{"a"}, {"b"}, {"c"}}},
	}}

	sheet := p.SelectSheet(wb, []string{"comps"})
	require.NotNil(t, sheet)
	assert.Equal(t, "Sheet2", sheet.Name)
}

func TestSelectSheet_EmptyWorkbook(t *testing.T) {
	p := NewParser(20, 2000)
	assert.Nil(t, p.SelectSheet(nil, compVocab))
	assert.Nil(t, p.SelectSheet(&Workbook{}, compVocab))
}

func TestDetectHeaderRow_MergesWrappedHeader(t *testing.T) {
	p := NewParser(20, 2000)
	sheet := &Sheet{
		Name: "Comps",
		Rows: [][]string{
			{"", "", "", "Sale", "Cap"},
			{"Property", "Submarket", "Units", "Price", "Rate"},
			{"Oakwood", "Buckhead", "220", "$54.5M", "5.25%"},
		},
	}

	idx, headers, err := p.DetectHeaderRow(sheet, compVocab)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, []string{"Property", "Submarket", "Units", "Sale Price", "Cap Rate"}, headers)
}

func TestDetectHeaderRow_NoCandidate(t *testing.T) {
	p := NewParser(20, 2000)
	sheet := &Sheet{Name: "Notes", Rows: [][]string{{"just", "some", "narrative", "text"}}}

	_, _, err := p.DetectHeaderRow(sheet, compVocab)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoHeaderRow))
}

func TestExtractRows_RowBudget(t *testing.T) {
	p := NewParser(20, 5)
	rows := [][]string{{"Property", "Units", "Sale Price", "Cap Rate"}}
	for i := 0; i < 10; i++ {
		rows = append(rows, []string{fmt.Sprintf("comp %d", i), "100", "1000000", "5%"})
	}
	sheet := &Sheet{Name: "Comps", Rows: rows}

	records := p.ExtractRows(sheet, 0, []string{"Property", "Units", "Sale Price", "Cap Rate"})
	assert.Len(t, records, 5)
}

func TestExtractRows_GrandTotalStops(t *testing.T) {
	p := NewParser(20, 2000)
	sheet := &Sheet{
		Name: "Comps",
		Rows: [][]string{
			{"Property", "Units"},
			{"Oakwood", "220"},
			{"", "Grand Total"},
			{"Stray", "1"},
		},
	}

	records := p.ExtractRows(sheet, 0, []string{"Property", "Units"})
	require.Len(t, records, 1)
	assert.Equal(t, "Oakwood", records[0]["Property"])
}
