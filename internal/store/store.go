// Package store persists documents, their derived records, and scoring
// configuration behind a driver-agnostic interface.
package store

import (
	"context"
	"time"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

// DocumentFilter specifies criteria for listing documents.
type DocumentFilter struct {
	UserID  string               `json:"user_id,omitempty"`
	Status  model.DocumentStatus `json:"status,omitempty"`
	DocType model.DocumentType   `json:"doc_type,omitempty"`
	Limit   int                  `json:"limit,omitempty"`
	Offset  int                  `json:"offset,omitempty"`
}

// CompFilter specifies criteria for listing comps.
type CompFilter struct {
	UserID     string `json:"user_id,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
	Metro      string `json:"metro,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// SignalFilter specifies criteria for listing sentiment signals.
type SignalFilter struct {
	UserID    string `json:"user_id,omitempty"`
	Metro     string `json:"metro,omitempty"`
	Submarket string `json:"submarket,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for the underwriting pipeline.
// Derived rows (comps, pipeline projects, financial periods, signals) belong
// to their parent document and are replaced wholesale on re-extraction.
type Store interface {
	// Documents
	CreateDocument(ctx context.Context, doc *model.Document) error
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error)
	SetDocumentStatus(ctx context.Context, id string, status model.DocumentStatus) error
	SetDocumentType(ctx context.Context, id string, docType model.DocumentType, subtype model.PDFSubtype) error
	// FailDocument marks the document failed, preserving whatever partial
	// extraction data and warnings the pipeline produced before the error.
	FailDocument(ctx context.Context, id string, cause string, data map[string]any, warnings []string) error
	CompleteDocument(ctx context.Context, id string, data map[string]any, warnings []string) error
	DeleteDocument(ctx context.Context, id string) error
	// ListStaleDocuments finds documents stuck mid-pipeline longer than the
	// bound; the crash-recovery path treats them as re-submittable.
	ListStaleDocuments(ctx context.Context, bound time.Duration) ([]model.Document, error)

	// Derived rows (delete-then-insert per parent document)
	ReplaceComps(ctx context.Context, doc *model.Document, comps []model.NormalizedComp) error
	ReplacePipelineProjects(ctx context.Context, doc *model.Document, projects []model.NormalizedPipelineProject) error
	ReplaceFinancialPeriods(ctx context.Context, doc *model.Document, periods []model.FinancialPeriod) error
	ReplaceSignals(ctx context.Context, doc *model.Document, signals []model.MarketSentimentSignal) error

	ListComps(ctx context.Context, filter CompFilter) ([]model.NormalizedComp, error)
	ListPipelineProjects(ctx context.Context, userID string) ([]model.NormalizedPipelineProject, error)
	ListFinancialPeriods(ctx context.Context, documentID string) ([]model.FinancialPeriod, error)
	ListSignals(ctx context.Context, filter SignalFilter) ([]model.MarketSentimentSignal, error)

	// Score weights (per user; nil when the user never saved any)
	GetWeights(ctx context.Context, userID string) (*model.ScoreWeights, error)
	SaveWeights(ctx context.Context, weights model.ScoreWeights) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
