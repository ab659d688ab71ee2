package extract

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/crestview-group/underwriting-cli/internal/classify"
	"github.com/crestview-group/underwriting-cli/internal/config"
	"github.com/crestview-group/underwriting-cli/internal/model"
	"github.com/crestview-group/underwriting-cli/internal/tabular"
	"github.com/crestview-group/underwriting-cli/internal/taxonomy"
	"github.com/crestview-group/underwriting-cli/internal/validate"
)

// Store is the persistence surface the pipeline drives. Derived-row writes
// replace any rows from a previous run of the same document, so resubmission
// never duplicates.
type Store interface {
	SetDocumentStatus(ctx context.Context, id string, status model.DocumentStatus) error
	SetDocumentType(ctx context.Context, id string, docType model.DocumentType, subtype model.PDFSubtype) error
	FailDocument(ctx context.Context, id string, cause string, data map[string]any, warnings []string) error
	CompleteDocument(ctx context.Context, id string, data map[string]any, warnings []string) error

	ReplaceComps(ctx context.Context, doc *model.Document, comps []model.NormalizedComp) error
	ReplacePipelineProjects(ctx context.Context, doc *model.Document, projects []model.NormalizedPipelineProject) error
	ReplaceFinancialPeriods(ctx context.Context, doc *model.Document, periods []model.FinancialPeriod) error
	ReplaceSignals(ctx context.Context, doc *model.Document, signals []model.MarketSentimentSignal) error
}

// Pipeline runs one document through the extraction state machine:
// received, classifying, structural_parse, column_classification,
// normalization, cross_field_validation, then completed or failed. Every
// stage is entered in order; failed is reachable from any of them.
type Pipeline struct {
	store    Store
	sem      SemanticExtractor
	parser   *tabular.Parser
	matcher  *taxonomy.Matcher
	repairer *validate.Repairer

	batchSize   int
	maxDocChars int
	minMonths   int
}

// NewPipeline wires the pipeline from configuration. sem may be nil; every
// spreadsheet stage has a deterministic fallback, only the PDF path requires
// the semantic service.
func NewPipeline(store Store, sem SemanticExtractor, cfg *config.Config) (*Pipeline, error) {
	tax := taxonomy.Default()
	if cfg.Taxonomy.OverlayPath != "" {
		t, err := taxonomy.LoadOverlay(cfg.Taxonomy.OverlayPath, tax)
		if err != nil {
			return nil, err
		}
		tax = t
	}

	return &Pipeline{
		store:       store,
		sem:         sem,
		parser:      tabular.NewParser(cfg.Extract.HeaderScanRows, cfg.Extract.MaxRows),
		matcher:     taxonomy.NewMatcher(tax, cfg.Taxonomy.FuzzyThreshold),
		repairer:    validate.NewRepairer(cfg.Repair),
		batchSize:   cfg.Extract.BatchSize,
		maxDocChars: cfg.Extract.MaxDocChars,
		minMonths:   cfg.Extract.MinMonthColumns,
	}, nil
}

// advance records a stage transition, failing the document when the write
// itself fails.
func (p *Pipeline) advance(ctx context.Context, doc *model.Document, status model.DocumentStatus) error {
	doc.Status = status
	return p.store.SetDocumentStatus(ctx, doc.ID, status)
}

// fail moves the document to its terminal failed state and returns the cause.
// Partial extraction data and the warnings accumulated before the error are
// persisted alongside the cause so the failed record is diagnosable.
func (p *Pipeline) fail(ctx context.Context, doc *model.Document, err error, data map[string]any, warnings []string) error {
	doc.Status = model.StatusFailed
	doc.Error = err.Error()
	doc.ExtractionData = data
	doc.Warnings = warnings
	if serr := p.store.FailDocument(ctx, doc.ID, err.Error(), data, warnings); serr != nil {
		zap.L().Error("extract: recording failure", zap.String("document_id", doc.ID), zap.Error(serr))
	}
	zap.L().Warn("extract: document failed",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.Error(err),
	)
	return err
}

// complete moves the document to completed with its extraction summary.
func (p *Pipeline) complete(ctx context.Context, doc *model.Document, data map[string]any, warnings []string) error {
	doc.Status = model.StatusCompleted
	doc.ExtractionData = data
	doc.Warnings = warnings
	if err := p.store.CompleteDocument(ctx, doc.ID, data, warnings); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: persist completion"), data, warnings)
	}
	zap.L().Info("extract: document completed",
		zap.String("document_id", doc.ID),
		zap.String("doc_type", string(doc.DocType)),
		zap.Int("warnings", len(warnings)),
	)
	return nil
}

// ProcessSpreadsheet runs a parsed workbook through the full state machine.
func (p *Pipeline) ProcessSpreadsheet(ctx context.Context, doc *model.Document, wb *tabular.Workbook) error {
	if err := p.advance(ctx, doc, model.StatusClassifying); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: enter classifying"), nil, nil)
	}

	docType := classify.Classify(wb)
	doc.DocType = docType
	if err := p.store.SetDocumentType(ctx, doc.ID, docType, model.PDFSubtypeUnspecified); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: persist classification"), nil, nil)
	}

	switch docType {
	case model.DocTypeUnknown:
		return p.fail(ctx, doc, eris.New("extract: unable to classify document"), nil, nil)
	case model.DocTypeUnderwritingModel:
		// Recognized but not extracted; walk the remaining stages empty so
		// the status history stays uniform.
		for _, s := range []model.DocumentStatus{model.StatusStructural, model.StatusColumnMapping, model.StatusNormalization, model.StatusCrossField} {
			if err := p.advance(ctx, doc, s); err != nil {
				return p.fail(ctx, doc, eris.Wrap(err, "extract: advance stage"), nil, nil)
			}
		}
		return p.complete(ctx, doc, nil, []string{"underwriting model recognized; extraction not supported"})
	case model.DocTypeOperatingStmt:
		return p.processStatement(ctx, doc, wb)
	case model.DocTypeRentRoll:
		return p.processRentRoll(ctx, doc, wb)
	case model.DocTypeSalesCompTracker:
		return p.processComps(ctx, doc, wb)
	case model.DocTypePipelineTracker:
		return p.processPipelineTracker(ctx, doc, wb)
	default:
		return p.fail(ctx, doc, eris.Errorf("extract: unsupported document type %q", docType), nil, nil)
	}
}

// parseTabular runs structural parsing and column classification for the
// row-oriented document types, returning the parse result and mapping.
func (p *Pipeline) parseTabular(ctx context.Context, doc *model.Document, wb *tabular.Workbook) (*tabular.Result, ColumnMapping, []string, error) {
	if err := p.advance(ctx, doc, model.StatusStructural); err != nil {
		return nil, nil, nil, eris.Wrap(err, "extract: enter structural_parse")
	}

	vocab, err := vocabForType(doc.DocType)
	if err != nil {
		return nil, nil, nil, err
	}
	var terms []string
	for _, fv := range vocab {
		terms = append(terms, fv.terms...)
	}

	result, err := p.parser.Parse(wb, terms)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(result.Records) == 0 {
		return nil, nil, nil, eris.New("extract: no data rows found")
	}

	if err := p.advance(ctx, doc, model.StatusColumnMapping); err != nil {
		return nil, nil, nil, eris.Wrap(err, "extract: enter column_classification")
	}

	var warnings []string
	var mapping ColumnMapping
	if p.sem != nil {
		mapping, err = p.sem.MapColumns(ctx, result.Headers, doc.DocType)
		if err != nil {
			zap.L().Warn("extract: semantic column mapping failed, using fallback",
				zap.String("document_id", doc.ID), zap.Error(err))
			warnings = append(warnings, "columns mapped deterministically after semantic failure")
			mapping = nil
		}
	}
	if mapping == nil {
		mapping, err = FallbackColumnMapping(result.Headers, doc.DocType)
		if err != nil {
			return nil, nil, warnings, err
		}
	}

	mapped := 0
	for _, f := range mapping {
		if f != FieldIgnore {
			mapped++
		}
	}
	if mapped == 0 {
		return nil, nil, warnings, eris.New("extract: no columns mapped to known fields")
	}

	return result, mapping, warnings, nil
}

func (p *Pipeline) processComps(ctx context.Context, doc *model.Document, wb *tabular.Workbook) error {
	result, mapping, warnings, err := p.parseTabular(ctx, doc, wb)
	if err != nil {
		return p.fail(ctx, doc, err, nil, warnings)
	}

	if err := p.advance(ctx, doc, model.StatusNormalization); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: enter normalization"), nil, warnings)
	}
	comps, ws := NormalizeComps(ctx, p.sem, result.Records, mapping, p.batchSize)
	warnings = append(warnings, ws...)

	if err := p.advance(ctx, doc, model.StatusCrossField); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: enter cross_field_validation"), nil, warnings)
	}
	kept := comps[:0]
	for i := range comps {
		comps[i].DocumentID = doc.ID
		comps[i].UserID = doc.UserID
		comps[i].OrgID = doc.OrgID
		warnings = append(warnings, p.repairer.RepairComp(&comps[i])...)
		if comps[i].PropertyName != "" || comps[i].SalePrice != nil {
			kept = append(kept, comps[i])
		}
	}

	data := map[string]any{
		"sheet":      result.SheetName,
		"comp_count": len(kept),
	}
	if err := p.store.ReplaceComps(ctx, doc, kept); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: persist comps"), data, warnings)
	}
	return p.complete(ctx, doc, data, warnings)
}

func (p *Pipeline) processPipelineTracker(ctx context.Context, doc *model.Document, wb *tabular.Workbook) error {
	result, mapping, warnings, err := p.parseTabular(ctx, doc, wb)
	if err != nil {
		return p.fail(ctx, doc, err, nil, warnings)
	}

	if err := p.advance(ctx, doc, model.StatusNormalization); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: enter normalization"), nil, warnings)
	}
	projects, ws := NormalizePipeline(ctx, p.sem, result.Records, mapping, p.batchSize)
	warnings = append(warnings, ws...)

	if err := p.advance(ctx, doc, model.StatusCrossField); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: enter cross_field_validation"), nil, warnings)
	}
	kept := projects[:0]
	for i := range projects {
		projects[i].DocumentID = doc.ID
		projects[i].UserID = doc.UserID
		if projects[i].Name != "" {
			kept = append(kept, projects[i])
		}
	}

	data := map[string]any{
		"sheet":         result.SheetName,
		"project_count": len(kept),
	}
	if err := p.store.ReplacePipelineProjects(ctx, doc, kept); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: persist pipeline projects"), data, warnings)
	}
	return p.complete(ctx, doc, data, warnings)
}

func (p *Pipeline) processRentRoll(ctx context.Context, doc *model.Document, wb *tabular.Workbook) error {
	result, mapping, warnings, err := p.parseTabular(ctx, doc, wb)
	if err != nil {
		return p.fail(ctx, doc, err, nil, warnings)
	}

	if err := p.advance(ctx, doc, model.StatusNormalization); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: enter normalization"), nil, warnings)
	}
	units, ws := NormalizeRentRoll(result.Records, mapping)
	warnings = append(warnings, ws...)

	if err := p.advance(ctx, doc, model.StatusCrossField); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: enter cross_field_validation"), nil, warnings)
	}
	summary := SummarizeRentRoll(units)

	data := map[string]any{
		"sheet":                  result.SheetName,
		"unit_count":             summary.UnitCount,
		"occupied_count":         summary.OccupiedCount,
		"physical_occupancy_pct": summary.PhysicalOccupancyPct,
	}
	if summary.AvgMarketRent != nil {
		data["avg_market_rent"] = *summary.AvgMarketRent
	}
	if summary.AvgInPlaceRent != nil {
		data["avg_in_place_rent"] = *summary.AvgInPlaceRent
	}
	if summary.LossToLeasePct != nil {
		data["loss_to_lease_pct"] = *summary.LossToLeasePct
	}
	return p.complete(ctx, doc, data, warnings)
}

func (p *Pipeline) processStatement(ctx context.Context, doc *model.Document, wb *tabular.Workbook) error {
	if err := p.advance(ctx, doc, model.StatusStructural); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: enter structural_parse"), nil, nil)
	}

	sheet := p.parser.SelectSheet(wb, statementSheetVocab)
	if sheet == nil {
		return p.fail(ctx, doc, tabular.ErrNoHeaderRow, nil, nil)
	}

	// Statements classify rows (line items), not columns, so the column
	// stage only records that labels were matched against the taxonomy.
	if err := p.advance(ctx, doc, model.StatusColumnMapping); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: enter column_classification"), nil, nil)
	}
	if err := p.advance(ctx, doc, model.StatusNormalization); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: enter normalization"), nil, nil)
	}

	t12, t3, warnings, err := ExtractOperatingStatement(p.parser, sheet, p.matcher, p.minMonths)
	if err != nil {
		return p.fail(ctx, doc, err, nil, warnings)
	}

	if err := p.advance(ctx, doc, model.StatusCrossField); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: enter cross_field_validation"), nil, warnings)
	}

	for _, label := range t12.Unmapped {
		warnings = append(warnings, "unmapped line item: "+label)
	}

	data := map[string]any{
		"sheet":       sheet.Name,
		"line_items":  len(t12.LineItems),
		"fiscal_year": t12.FiscalYear,
	}

	periods := []model.FinancialPeriod{*t12, *t3}
	for i := range periods {
		periods[i].DocumentID = doc.ID
	}
	if err := p.store.ReplaceFinancialPeriods(ctx, doc, periods); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: persist financial periods"), data, warnings)
	}
	if t12.EconomicOccupancy != nil {
		data["economic_occupancy"] = *t12.EconomicOccupancy
	}
	if t12.OpexRatio != nil {
		data["opex_ratio"] = *t12.OpexRatio
	}
	return p.complete(ctx, doc, data, warnings)
}

// ProcessPDF runs extracted PDF text through the state machine. The semantic
// service is mandatory here; there is no deterministic reading of prose.
func (p *Pipeline) ProcessPDF(ctx context.Context, doc *model.Document, text string) error {
	if p.sem == nil {
		return p.fail(ctx, doc, eris.New("extract: pdf extraction requires the semantic service"), nil, nil)
	}

	if err := p.advance(ctx, doc, model.StatusClassifying); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: enter classifying"), nil, nil)
	}
	docType, subtype := classify.ClassifyPDF(text)
	doc.DocType = docType
	doc.PDFSubtype = subtype
	if err := p.store.SetDocumentType(ctx, doc.ID, docType, subtype); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: persist classification"), nil, nil)
	}

	if err := p.advance(ctx, doc, model.StatusStructural); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: enter structural_parse"), nil, nil)
	}
	capped := TruncateText(text, p.maxDocChars)
	var warnings []string
	if len(capped) != len(text) {
		warnings = append(warnings, "document text truncated for extraction")
	}

	if err := p.advance(ctx, doc, model.StatusColumnMapping); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: enter column_classification"), nil, warnings)
	}
	if err := p.advance(ctx, doc, model.StatusNormalization); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: enter normalization"), nil, warnings)
	}

	obj, err := p.sem.ExtractDocument(ctx, capped, InstructionsFor(docType, subtype))
	if err != nil {
		return p.fail(ctx, doc, err, nil, warnings)
	}

	if err := p.advance(ctx, doc, model.StatusCrossField); err != nil {
		return p.fail(ctx, doc, eris.Wrap(err, "extract: enter cross_field_validation"), obj, warnings)
	}

	if docType == model.DocTypeMarketResearch {
		signals, ws := SignalsFromSemantic(obj)
		warnings = append(warnings, ws...)
		for i := range signals {
			signals[i].DocumentID = doc.ID
			signals[i].UserID = doc.UserID
		}
		if err := p.store.ReplaceSignals(ctx, doc, signals); err != nil {
			return p.fail(ctx, doc, eris.Wrap(err, "extract: persist signals"), map[string]any{"signal_count": len(signals)}, warnings)
		}
		return p.complete(ctx, doc, map[string]any{"signal_count": len(signals)}, warnings)
	}

	if fp, ws := FinancialPeriodFromSemantic(obj); fp != nil {
		warnings = append(warnings, ws...)
		fp.DocumentID = doc.ID
		if err := p.store.ReplaceFinancialPeriods(ctx, doc, []model.FinancialPeriod{*fp}); err != nil {
			return p.fail(ctx, doc, eris.Wrap(err, "extract: persist financial periods"), obj, warnings)
		}
	}
	return p.complete(ctx, doc, obj, warnings)
}
