package tabular

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Sheet is one worksheet as a raw string grid. Cell values are the display
// strings the workbook reader produced; typing happens downstream.
type Sheet struct {
	Name string
	Rows [][]string
}

// Workbook is a whole spreadsheet file. No fixed schema is assumed; sheet
// and column discovery happen at parse time.
type Workbook struct {
	Sheets []Sheet
}

// RawRecord maps an original column header to the raw cell value for one row.
// Produced per row and consumed within a single upload.
type RawRecord map[string]string

// Result is the output of a structural parse.
type Result struct {
	SheetName string
	HeaderRow int
	Headers   []string
	Records   []RawRecord
}

// ErrNoHeaderRow indicates no candidate header row scored above zero.
// This is a structural failure the caller records, not a crash.
var ErrNoHeaderRow = eris.New("tabular: no header row found")

// stopSentinels terminate the data region when found alone in the first
// populated cell of a row.
var stopSentinels = regexp.MustCompile(`(?i)^(grand\s+)?totals?$|^summary$`)

const minHeaderCells = 4

// Parser locates the header row and data region of a workbook without fixed
// cell coordinates.
type Parser struct {
	ScanRows int // header candidate rows to scan (default 20)
	MaxRows  int // data row budget (default 2000)
}

// NewParser returns a Parser with the given scan and row budgets.
// Zero values fall back to defaults.
func NewParser(scanRows, maxRows int) *Parser {
	if scanRows <= 0 {
		scanRows = 20
	}
	if maxRows <= 0 {
		maxRows = 2000
	}
	return &Parser{ScanRows: scanRows, MaxRows: maxRows}
}

// Parse selects the best sheet for the target vocabulary, detects its header
// row, and extracts the data region.
func (p *Parser) Parse(wb *Workbook, vocab []string) (*Result, error) {
	sheet := p.SelectSheet(wb, vocab)
	if sheet == nil {
		return nil, ErrNoHeaderRow
	}

	headerIdx, headers, err := p.DetectHeaderRow(sheet, vocab)
	if err != nil {
		return nil, err
	}

	records := p.ExtractRows(sheet, headerIdx, headers)

	zap.L().Debug("tabular: parsed sheet",
		zap.String("sheet", sheet.Name),
		zap.Int("header_row", headerIdx),
		zap.Int("rows", len(records)),
	)

	return &Result{
		SheetName: sheet.Name,
		HeaderRow: headerIdx,
		Headers:   headers,
		Records:   records,
	}, nil
}

// SelectSheet scores each sheet by keyword overlap between its name and the
// target vocabulary, plus populated-row count, and returns the best one.
// Returns nil for an empty workbook.
func (p *Parser) SelectSheet(wb *Workbook, vocab []string) *Sheet {
	if wb == nil || len(wb.Sheets) == 0 {
		return nil
	}
	if len(wb.Sheets) == 1 {
		return &wb.Sheets[0]
	}

	best := -1
	bestScore := -1.0
	for i := range wb.Sheets {
		sheet := &wb.Sheets[i]
		score := 0.0

		name := strings.ToLower(sheet.Name)
		for _, kw := range vocab {
			if strings.Contains(name, strings.ToLower(kw)) {
				score += 10
			}
		}
		// Sheets named like cover pages or instructions are poor candidates.
		for _, bad := range []string{"cover", "instructions", "notes", "summary"} {
			if strings.Contains(name, bad) {
				score -= 5
			}
		}

		populated := 0
		for _, row := range sheet.Rows {
			if !rowBlank(row) {
				populated++
			}
		}
		// Populated rows break ties between similarly named sheets.
		score += float64(populated) * 0.01

		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return &wb.Sheets[best]
}

// DetectHeaderRow scans the first ScanRows rows and scores each candidate by
// how many vocabulary keywords appear among its cells. The best-scoring row
// with at least minHeaderCells non-empty cells wins. When the row directly
// above the winner holds non-overlapping text, the two are merged to handle
// two-line wrapped headers.
func (p *Parser) DetectHeaderRow(sheet *Sheet, vocab []string) (int, []string, error) {
	limit := p.ScanRows
	if limit > len(sheet.Rows) {
		limit = len(sheet.Rows)
	}

	bestIdx := -1
	bestScore := 0
	for i := 0; i < limit; i++ {
		row := sheet.Rows[i]
		nonEmpty := 0
		score := 0
		for _, cell := range row {
			c := strings.ToLower(strings.TrimSpace(cell))
			if c == "" {
				continue
			}
			nonEmpty++
			for _, kw := range vocab {
				if strings.Contains(c, strings.ToLower(kw)) {
					score++
					break
				}
			}
		}
		if nonEmpty >= minHeaderCells && score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return 0, nil, ErrNoHeaderRow
	}

	headers := headerCells(sheet.Rows[bestIdx])
	if bestIdx > 0 {
		headers = mergeWrappedHeader(sheet.Rows[bestIdx-1], headers)
	}
	return bestIdx, headers, nil
}

// mergeWrappedHeader prepends text from the row above a header row when that
// text does not overlap the header's own cells. Exported reports commonly
// wrap long headers across two rows ("Sale" / "Price").
func mergeWrappedHeader(above []string, headers []string) []string {
	hasText := false
	for _, cell := range above {
		if strings.TrimSpace(cell) != "" {
			hasText = true
			break
		}
	}
	if !hasText {
		return headers
	}

	merged := make([]string, len(headers))
	copy(merged, headers)
	for i := range merged {
		if i >= len(above) {
			break
		}
		top := strings.TrimSpace(above[i])
		if top == "" || merged[i] == "" {
			continue
		}
		if strings.EqualFold(top, merged[i]) || strings.Contains(strings.ToLower(merged[i]), strings.ToLower(top)) {
			continue
		}
		merged[i] = top + " " + merged[i]
	}
	return merged
}

// ExtractRows reads rows after the header until a stop sentinel or the row
// budget, skipping fully blank rows.
func (p *Parser) ExtractRows(sheet *Sheet, headerIdx int, headers []string) []RawRecord {
	var records []RawRecord
	for i := headerIdx + 1; i < len(sheet.Rows); i++ {
		if len(records) >= p.MaxRows {
			zap.L().Warn("tabular: row budget reached",
				zap.String("sheet", sheet.Name),
				zap.Int("max_rows", p.MaxRows),
			)
			break
		}
		row := sheet.Rows[i]
		if rowBlank(row) {
			continue
		}
		if isStopRow(row) {
			break
		}

		rec := make(RawRecord, len(headers))
		for j, h := range headers {
			if h == "" || j >= len(row) {
				continue
			}
			val := strings.TrimSpace(row[j])
			if val != "" {
				rec[h] = val
			}
		}
		if len(rec) > 0 {
			records = append(records, rec)
		}
	}
	return records
}

func headerCells(row []string) []string {
	headers := make([]string, len(row))
	for i, cell := range row {
		headers[i] = strings.TrimSpace(cell)
	}
	return headers
}

func rowBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func isStopRow(row []string) bool {
	for _, cell := range row {
		c := strings.TrimSpace(cell)
		if c == "" {
			continue
		}
		return stopSentinels.MatchString(c)
	}
	return false
}
