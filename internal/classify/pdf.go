package classify

import (
	"strings"

	"go.uber.org/zap"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

// pdfScanChars bounds how much body text subtype scoring reads. Marketing
// documents declare themselves in the first pages.
const pdfScanChars = 20000

// pdfSubtypeThreshold is the minimum keyword score before a subtype is
// assigned; below it the document is treated as unspecified.
const pdfSubtypeThreshold = 2

var omKeywords = []string{
	"offering memorandum",
	"investment highlights",
	"the offering",
	"executive summary",
	"investment overview",
	"exclusively listed",
}

var bovKeywords = []string{
	"broker opinion of value",
	"opinion of value",
	"pricing scenarios",
	"valuation scenarios",
	"as-is value",
	"pricing guidance",
}

var marketResearchKeywords = []string{
	"market report",
	"market overview",
	"submarket report",
	"supply pipeline",
	"absorption",
	"rent growth forecast",
	"market fundamentals",
}

// ClassifyPDF determines a PDF's document type and marketing subtype from
// body-text keyword scoring. Same scoring pattern as the workbook
// classifier, independent vocabulary and threshold. Market-research reports
// are their own document type; OM and BOV hits classify as a marketing
// document whose subtype selects the extraction instruction set, and a PDF
// scoring below every threshold stays unknown.
func ClassifyPDF(text string) (model.DocumentType, model.PDFSubtype) {
	body := strings.ToLower(text)
	if len(body) > pdfScanChars {
		body = body[:pdfScanChars]
	}

	omScore := countHits(body, omKeywords)
	bovScore := countHits(body, bovKeywords)
	researchScore := countHits(body, marketResearchKeywords)

	zap.L().Debug("classify: pdf scored",
		zap.Int("om", omScore),
		zap.Int("bov", bovScore),
		zap.Int("market_research", researchScore),
	)

	if researchScore >= pdfSubtypeThreshold && researchScore > omScore && researchScore > bovScore {
		return model.DocTypeMarketResearch, ""
	}
	// BOV keywords are more specific than OM boilerplate, so BOV wins ties.
	if bovScore >= pdfSubtypeThreshold && bovScore >= omScore {
		return model.DocTypeMarketingPDF, model.PDFSubtypeBOV
	}
	if omScore >= pdfSubtypeThreshold {
		return model.DocTypeMarketingPDF, model.PDFSubtypeOM
	}
	return model.DocTypeUnknown, model.PDFSubtypeUnspecified
}

func countHits(body string, keywords []string) int {
	score := 0
	for _, kw := range keywords {
		score += strings.Count(body, kw)
	}
	return score
}
