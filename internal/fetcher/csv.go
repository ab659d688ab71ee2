package fetcher

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/crestview-group/underwriting-cli/internal/tabular"
)

// ReadCSVFile reads a CSV file into a single-sheet workbook named after the
// file. Broker exports are frequently Latin-1; invalid UTF-8 input is decoded
// through ISO 8859-1 before parsing.
func ReadCSVFile(path string) (*tabular.Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open csv %s", path)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ReadCSV(f, name)
}

// ReadCSV reads CSV content into a single-sheet workbook.
func ReadCSV(r io.Reader, sheetName string) (*tabular.Workbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read csv")
	}

	if !utf8.Valid(data) {
		data, err = io.ReadAll(transform.NewReader(bytes.NewReader(data), charmap.ISO8859_1.NewDecoder()))
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: decode latin-1 csv")
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: parse csv row")
		}
		for i, field := range record {
			record[i] = strings.TrimSpace(field)
		}
		rows = append(rows, record)
	}

	return &tabular.Workbook{Sheets: []tabular.Sheet{{Name: sheetName, Rows: rows}}}, nil
}
