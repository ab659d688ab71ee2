package model

import "time"

// DocumentType classifies an uploaded document by its content.
type DocumentType string

const (
	DocTypeRentRoll          DocumentType = "rent_roll"
	DocTypeOperatingStmt     DocumentType = "operating_statement"
	DocTypeSalesCompTracker  DocumentType = "sales_comp_tracker"
	DocTypePipelineTracker   DocumentType = "pipeline_tracker"
	DocTypeUnderwritingModel DocumentType = "underwriting_model"
	DocTypeMarketResearch    DocumentType = "market_research"
	DocTypeMarketingPDF      DocumentType = "marketing_document"
	DocTypeUnknown           DocumentType = "unknown"
)

// PDFSubtype distinguishes marketing-document flavors that get different
// extraction instruction sets.
type PDFSubtype string

const (
	PDFSubtypeOM          PDFSubtype = "offering_memorandum"
	PDFSubtypeBOV         PDFSubtype = "broker_opinion_of_value"
	PDFSubtypeUnspecified PDFSubtype = "unspecified"
)

// DocumentStatus tracks a document through the extraction state machine.
// No state is skipped; failed is reachable from every non-terminal state.
type DocumentStatus string

const (
	StatusReceived       DocumentStatus = "received"
	StatusClassifying    DocumentStatus = "classifying"
	StatusStructural     DocumentStatus = "structural_parse"
	StatusColumnMapping  DocumentStatus = "column_classification"
	StatusNormalization  DocumentStatus = "normalization"
	StatusCrossField     DocumentStatus = "cross_field_validation"
	StatusCompleted      DocumentStatus = "completed"
	StatusFailed         DocumentStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DocumentKind is the physical format of an upload.
type DocumentKind string

const (
	KindSpreadsheet DocumentKind = "spreadsheet"
	KindPDF         DocumentKind = "pdf"
)

// Document represents one uploaded source document and its extraction state.
// Derived rows (comps, financial periods, signals) cascade-delete with it.
type Document struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	OrgID          string         `json:"org_id,omitempty"`
	Filename       string         `json:"filename"`
	Kind           DocumentKind   `json:"kind"`
	DocType        DocumentType   `json:"doc_type"`
	PDFSubtype     PDFSubtype     `json:"pdf_subtype,omitempty"`
	Status         DocumentStatus `json:"status"`
	ExtractionData map[string]any `json:"extraction_data,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
	Error          string         `json:"error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Stale reports whether a non-terminal document has been sitting in a
// processing state longer than the given bound, making it re-submittable.
func (d *Document) Stale(bound time.Duration, now time.Time) bool {
	if d.Status.Terminal() || d.Status == StatusReceived {
		return false
	}
	return now.Sub(d.UpdatedAt) > bound
}
