package tabular

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrInsufficientMonths indicates a time-series statement had too few
// recognizable month columns to be usable.
var ErrInsufficientMonths = eris.New("tabular: insufficient month columns")

// MonthColumn identifies one month column in a time-series statement header.
// Year is zero when no fiscal year could be recovered for the cell.
type MonthColumn struct {
	Col   int
	Month time.Month
	Year  int
}

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// monthCellFormats covers date-typed cells rendered to strings by the
// workbook reader. First match wins.
var monthCellFormats = []string{
	"Jan-06", "Jan-2006", "Jan 2006", "January 2006",
	"1/2006", "01/2006", "2006-01", "1/2/2006", "01/02/2006", "2006-01-02",
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// parseMonthCell recognizes a month header cell in any accepted form.
// Returns the month, the year if the cell itself carries one (else 0),
// and whether the cell was a month at all.
func parseMonthCell(cell string) (time.Month, int, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, 0, false
	}

	// Bare month name or abbreviation, possibly with a trailing year
	// ("Jan", "January", "Jan 24", "Jan-2024").
	lower := strings.ToLower(strings.Trim(s, ".:"))
	token := lower
	if idx := strings.IndexAny(lower, " -/"); idx > 0 {
		token = lower[:idx]
	}
	if m, ok := monthNames[token]; ok {
		year := 0
		if match := yearPattern.FindString(s); match != "" {
			year, _ = strconv.Atoi(match)
		} else if idx := strings.IndexAny(lower, " -/"); idx > 0 {
			// Two-digit year suffix like "Jan-24".
			if y, err := strconv.Atoi(strings.TrimSpace(lower[idx+1:])); err == nil && y >= 0 && y < 100 {
				year = 2000 + y
			}
		}
		return m, year, true
	}

	for _, layout := range monthCellFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Month(), t.Year(), true
		}
	}
	return 0, 0, false
}

// DetectMonthHeader finds the header row of a time-series financial
// statement: the scanned row with the most month-parsable cells. Fiscal
// years come from the month cells themselves or, failing that, from a
// 4-digit year in the row directly above. Fewer than minMonths recognized
// columns is a structural failure.
func (p *Parser) DetectMonthHeader(sheet *Sheet, minMonths int) (int, []MonthColumn, error) {
	if minMonths <= 0 {
		minMonths = 6
	}

	limit := p.ScanRows
	if limit > len(sheet.Rows) {
		limit = len(sheet.Rows)
	}

	bestIdx := -1
	var bestCols []MonthColumn
	for i := 0; i < limit; i++ {
		var cols []MonthColumn
		for j, cell := range sheet.Rows[i] {
			if m, y, ok := parseMonthCell(cell); ok {
				cols = append(cols, MonthColumn{Col: j, Month: m, Year: y})
			}
		}
		if len(cols) > len(bestCols) {
			bestIdx = i
			bestCols = cols
		}
	}

	if len(bestCols) < minMonths {
		return 0, nil, eris.Wrapf(ErrInsufficientMonths, "found %d of %d expected month columns", len(bestCols), 12)
	}

	fillMissingYears(sheet, bestIdx, bestCols)
	return bestIdx, bestCols, nil
}

// fillMissingYears recovers fiscal years for month columns whose header cell
// carried none, first from a year in the adjacent row above, then by rolling
// the calendar backward from any column that does have a year.
func fillMissingYears(sheet *Sheet, headerIdx int, cols []MonthColumn) {
	adjacentYear := 0
	if headerIdx > 0 {
		for _, cell := range sheet.Rows[headerIdx-1] {
			if match := yearPattern.FindString(cell); match != "" {
				adjacentYear, _ = strconv.Atoi(match)
				break
			}
		}
	}

	known := 0
	for _, c := range cols {
		if c.Year != 0 {
			known++
		}
	}

	for i := range cols {
		if cols[i].Year != 0 {
			continue
		}
		if known > 0 {
			cols[i].Year = inferYearFromNeighbors(cols, i)
		} else if adjacentYear != 0 {
			cols[i].Year = adjacentYear
		}
	}
}

// inferYearFromNeighbors walks outward from the nearest column with a known
// year, decrementing across December→January boundaries. A trailing-12
// window spans a year boundary, so plain copying would be wrong.
func inferYearFromNeighbors(cols []MonthColumn, idx int) int {
	// Look left.
	for i := idx - 1; i >= 0; i-- {
		if cols[i].Year != 0 {
			year := cols[i].Year
			for j := i + 1; j <= idx; j++ {
				if cols[j].Month < cols[j-1].Month {
					year++
				}
			}
			return year
		}
	}
	// Look right.
	for i := idx + 1; i < len(cols); i++ {
		if cols[i].Year != 0 {
			year := cols[i].Year
			for j := i; j > idx; j-- {
				if cols[j].Month < cols[j-1].Month {
					year--
				}
			}
			return year
		}
	}
	return 0
}
