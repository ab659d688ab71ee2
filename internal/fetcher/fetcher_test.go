package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		filename string
		kind     model.DocumentKind
		wantErr  bool
	}{
		{"comps.xlsx", model.KindSpreadsheet, false},
		{"T12.XLSM", model.KindSpreadsheet, false},
		{"rent_roll.csv", model.KindSpreadsheet, false},
		{"om.pdf", model.KindPDF, false},
		{"OM.PDF", model.KindPDF, false},
		{"notes.txt", "", true},
		{"archive.zip", "", true},
		{"noextension", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			kind, err := DetectKind(tt.filename)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported file type")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestLoadWorkbook_NotASpreadsheet(t *testing.T) {
	_, err := LoadWorkbook("deal/om.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a spreadsheet")
}
