package classify

import (
	"strings"

	"go.uber.org/zap"

	"github.com/crestview-group/underwriting-cli/internal/model"
	"github.com/crestview-group/underwriting-cli/internal/tabular"
)

const (
	sheetNameWeight = 3
	contentWeight   = 2
	contentScanRows = 12
)

// typeVocab holds the disjoint recognition vocabulary for one document type.
type typeVocab struct {
	docType model.DocumentType
	sheet   []string
	content []string
}

// typeVocabs is ordered: ties break by declaration order.
var typeVocabs = []typeVocab{
	{
		docType: model.DocTypeRentRoll,
		sheet:   []string{"rent roll", "rentroll", "unit mix"},
		content: []string{"unit #", "unit no", "tenant", "lease start", "lease end", "market rent", "lease rent", "move in", "move-in", "sq ft", "sqft"},
	},
	{
		docType: model.DocTypeOperatingStmt,
		sheet:   []string{"t12", "t-12", "operating statement", "income statement", "trailing 12", "p&l"},
		content: []string{"gross potential rent", "gross scheduled rent", "vacancy loss", "net operating income", "total operating expenses", "effective gross income", "bad debt"},
	},
	{
		docType: model.DocTypeSalesCompTracker,
		sheet:   []string{"comps", "sales comps", "comparables", "sale comps", "transactions"},
		content: []string{"sale price", "sale date", "cap rate", "price per unit", "price/unit", "price per sf", "buyer", "seller"},
	},
	{
		docType: model.DocTypePipelineTracker,
		sheet:   []string{"pipeline", "development", "deliveries", "under construction"},
		content: []string{"developer", "units planned", "delivery date", "expected delivery", "stage", "groundbreak", "completion"},
	},
	{
		docType: model.DocTypeUnderwritingModel,
		sheet:   []string{"underwriting", "assumptions", "proforma", "pro forma", "sources & uses"},
		content: []string{"exit cap", "hold period", "equity multiple", "levered irr", "loan amount", "ltv", "debt service"},
	},
}

// Classify determines the document type of a workbook from sheet names and
// header/content vocabulary. Pure function of document content: sheet-name
// keyword hits score 3, content hits across the first rows of every sheet
// score 2; the highest nonzero total wins, ties break by declaration order,
// and an all-zero score is unknown.
func Classify(wb *tabular.Workbook) model.DocumentType {
	if wb == nil || len(wb.Sheets) == 0 {
		return model.DocTypeUnknown
	}

	best := model.DocTypeUnknown
	bestScore := 0
	for _, tv := range typeVocabs {
		score := scoreType(wb, tv)
		if score > bestScore {
			bestScore = score
			best = tv.docType
		}
	}

	zap.L().Debug("classify: workbook classified",
		zap.String("doc_type", string(best)),
		zap.Int("score", bestScore),
	)
	return best
}

func scoreType(wb *tabular.Workbook, tv typeVocab) int {
	score := 0
	for _, sheet := range wb.Sheets {
		name := strings.ToLower(sheet.Name)
		for _, kw := range tv.sheet {
			if strings.Contains(name, kw) {
				score += sheetNameWeight
			}
		}

		limit := contentScanRows
		if limit > len(sheet.Rows) {
			limit = len(sheet.Rows)
		}
		for i := 0; i < limit; i++ {
			for _, cell := range sheet.Rows[i] {
				c := strings.ToLower(cell)
				if c == "" {
					continue
				}
				for _, kw := range tv.content {
					if strings.Contains(c, kw) {
						score += contentWeight
					}
				}
			}
		}
	}
	return score
}
