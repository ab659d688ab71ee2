// Package ocr turns PDF deal documents into plain text for semantic
// extraction.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/crestview-group/underwriting-cli/internal/config"
)

// Extractor extracts text content from PDF files.
type Extractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// NewExtractor creates an Extractor for the configured provider. The local
// provider shells out to pdftotext; mistral sends the document to the
// Mistral OCR API, which handles scanned offering memoranda that pdftotext
// cannot read.
func NewExtractor(cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Provider {
	case "local", "":
		return NewPdfToText(cfg.PdfToTextPath), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_api_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}
