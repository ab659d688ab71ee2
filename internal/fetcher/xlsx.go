package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/crestview-group/underwriting-cli/internal/tabular"
)

// ReadXLSX reads every sheet of an XLSX file into a raw workbook. Cell values
// are the formatted display strings; sheet and header discovery happen
// downstream in the structural parser.
func ReadXLSX(path string) (*tabular.Workbook, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open xlsx %s", path)
	}
	return workbookFromFile(f), nil
}

// ReadXLSXBytes reads an in-memory XLSX payload, as delivered by data-room
// downloads that never touch disk.
func ReadXLSXBytes(data []byte) (*tabular.Workbook, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: open xlsx payload")
	}
	return workbookFromFile(f), nil
}

func workbookFromFile(f *xlsx.File) *tabular.Workbook {
	wb := &tabular.Workbook{Sheets: make([]tabular.Sheet, 0, len(f.Sheets))}
	for _, sheet := range f.Sheets {
		rows := make([][]string, 0, len(sheet.Rows))
		for _, row := range sheet.Rows {
			cells := make([]string, len(row.Cells))
			for j, cell := range row.Cells {
				cells[j] = cell.String()
			}
			rows = append(rows, cells)
		}
		wb.Sheets = append(wb.Sheets, tabular.Sheet{Name: sheet.Name, Rows: rows})
	}
	return wb
}
