package extract

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/crestview-group/underwriting-cli/internal/model"
	"github.com/crestview-group/underwriting-cli/internal/tabular"
	"github.com/crestview-group/underwriting-cli/internal/taxonomy"
)

// ErrNoLineItems indicates a statement sheet where no row label mapped to any
// canonical line item.
var ErrNoLineItems = eris.New("extract: no recognizable line items")

// statementSheetVocab drives sheet selection for operating statements.
var statementSheetVocab = []string{"t12", "t-12", "income", "operating", "statement", "p&l", "financials", "cash flow"}

const trailingMonths = 12
const trailingQuarter = 3

// ExtractOperatingStatement parses a time-series operating statement sheet
// into trailing-12 and annualized trailing-3 periods. Row labels map to
// canonical line-item keys through the taxonomy matcher; sub-accounts landing
// on the same key accumulate. Labels that match nothing but carry numbers are
// preserved as unmapped, never coerced to zero.
func ExtractOperatingStatement(parser *tabular.Parser, sheet *tabular.Sheet, matcher *taxonomy.Matcher, minMonths int) (t12, t3 *model.FinancialPeriod, warnings []string, err error) {
	headerIdx, months, err := parser.DetectMonthHeader(sheet, minMonths)
	if err != nil {
		return nil, nil, nil, err
	}

	// Trailing windows anchor on the rightmost month columns.
	t12Cols := months
	if len(t12Cols) > trailingMonths {
		t12Cols = t12Cols[len(t12Cols)-trailingMonths:]
	}
	t3Cols := months[len(months)-trailingQuarter:]

	t12 = &model.FinancialPeriod{
		PeriodType: model.PeriodT12,
		FiscalYear: t12Cols[len(t12Cols)-1].Year,
		LineItems:  make(map[string]float64),
	}
	t3 = &model.FinancialPeriod{
		PeriodType: model.PeriodT3,
		FiscalYear: t3Cols[len(t3Cols)-1].Year,
		LineItems:  make(map[string]float64),
	}

	firstMonthCol := months[0].Col
	for i := headerIdx + 1; i < len(sheet.Rows); i++ {
		row := sheet.Rows[i]
		label := rowLabel(row, firstMonthCol)
		if label == "" {
			continue
		}

		t12Sum, t12N := sumWindow(row, t12Cols)
		t3Sum, t3N := sumWindow(row, t3Cols)
		if t12N == 0 && t3N == 0 {
			continue
		}

		key, ok := matcher.Match(label)
		if !ok {
			if taxonomy.Normalize(label) != "" {
				t12.Unmapped = append(t12.Unmapped, label)
			}
			continue
		}

		if t12N > 0 {
			t12.LineItems[key] += t12Sum
			if t12N < len(t12Cols) {
				warnings = append(warnings, fmt.Sprintf("%s: only %d of %d months populated", key, t12N, len(t12Cols)))
			}
		}
		if t3N > 0 {
			// Annualized so the two periods are directly comparable.
			t3.LineItems[key] += t3Sum * 4
		}
	}

	if len(t12.LineItems) == 0 {
		return nil, nil, warnings, ErrNoLineItems
	}

	DeriveFinancialMetrics(t12)
	DeriveFinancialMetrics(t3)
	return t12, t3, warnings, nil
}

// rowLabel returns the first non-empty cell left of the month columns.
func rowLabel(row []string, firstMonthCol int) string {
	limit := firstMonthCol
	if limit > len(row) {
		limit = len(row)
	}
	for j := 0; j < limit; j++ {
		if s := strings.TrimSpace(row[j]); s != "" {
			return s
		}
	}
	return ""
}

// sumWindow totals the row's values across the given month columns, counting
// how many cells actually held a number.
func sumWindow(row []string, cols []tabular.MonthColumn) (float64, int) {
	var sum float64
	n := 0
	for _, c := range cols {
		if c.Col >= len(row) {
			continue
		}
		v, err := ParseMoney(row[c.Col])
		if err != nil || v == nil {
			continue
		}
		sum += *v
		n++
	}
	return sum, n
}
