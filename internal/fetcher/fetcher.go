// Package fetcher acquires deal documents from local paths, HTTP data rooms,
// and FTP drops, and loads spreadsheet files into raw workbooks.
package fetcher

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/crestview-group/underwriting-cli/internal/model"
	"github.com/crestview-group/underwriting-cli/internal/tabular"
)

// Fetcher downloads remote documents.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path.
	// Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// spreadsheet extensions the workbook loaders understand.
var spreadsheetExts = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".csv":  true,
}

// DetectKind maps a filename to its document kind by extension.
func DetectKind(filename string) (model.DocumentKind, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case spreadsheetExts[ext]:
		return model.KindSpreadsheet, nil
	case ext == ".pdf":
		return model.KindPDF, nil
	default:
		return "", eris.Errorf("fetcher: unsupported file type %q", ext)
	}
}

// LoadWorkbook reads a spreadsheet file from disk into a raw workbook,
// dispatching on extension.
func LoadWorkbook(path string) (*tabular.Workbook, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path)
	case ".csv":
		return ReadCSVFile(path)
	default:
		return nil, eris.Errorf("fetcher: not a spreadsheet: %q", ext)
	}
}
