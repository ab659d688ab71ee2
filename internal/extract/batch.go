package extract

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/crestview-group/underwriting-cli/internal/model"
	"github.com/crestview-group/underwriting-cli/internal/tabular"
)

// normalizeBatches runs semantic normalization over fixed-size batches of raw
// rows. A failed batch falls back to the deterministic converter for its rows
// only; other batches keep their semantic results. Output order matches input
// order either way.
func normalizeBatches[T any](
	ctx context.Context,
	sem SemanticExtractor,
	recs []tabular.RawRecord,
	docType model.DocumentType,
	batchSize int,
	fromSemantic func(map[string]any) (T, []string),
	fromRaw func(tabular.RawRecord) (T, []string),
) ([]T, []string) {
	if batchSize <= 0 {
		batchSize = 25
	}

	out := make([]T, 0, len(recs))
	var warnings []string

	for start := 0; start < len(recs); start += batchSize {
		end := start + batchSize
		if end > len(recs) {
			end = len(recs)
		}
		batch := recs[start:end]

		var semRecords []map[string]any
		if sem != nil {
			var err error
			semRecords, err = sem.NormalizeRecords(ctx, batch, docType)
			if err != nil {
				zap.L().Warn("extract: semantic batch failed, using deterministic fallback",
					zap.Int("batch_start", start),
					zap.Int("batch_size", len(batch)),
					zap.Error(err))
				warnings = append(warnings, fmt.Sprintf("rows %d-%d normalized deterministically after semantic failure", start+1, end))
				semRecords = nil
			}
		}

		for i, rec := range batch {
			var (
				v  T
				ws []string
			)
			if semRecords != nil {
				v, ws = fromSemantic(semRecords[i])
			} else {
				v, ws = fromRaw(rec)
			}
			for _, w := range ws {
				warnings = append(warnings, fmt.Sprintf("row %d: %s", start+i+1, w))
			}
			out = append(out, v)
		}
	}

	return out, warnings
}

// NormalizeComps converts raw comp-tracker rows into NormalizedComps,
// semantic-first with per-batch deterministic fallback.
func NormalizeComps(ctx context.Context, sem SemanticExtractor, recs []tabular.RawRecord, mapping ColumnMapping, batchSize int) ([]model.NormalizedComp, []string) {
	return normalizeBatches(ctx, sem, recs, model.DocTypeSalesCompTracker, batchSize,
		CompFromSemantic,
		func(rec tabular.RawRecord) (model.NormalizedComp, []string) {
			return CompFromRaw(rec, mapping)
		})
}

// NormalizePipeline converts raw pipeline-tracker rows.
func NormalizePipeline(ctx context.Context, sem SemanticExtractor, recs []tabular.RawRecord, mapping ColumnMapping, batchSize int) ([]model.NormalizedPipelineProject, []string) {
	return normalizeBatches(ctx, sem, recs, model.DocTypePipelineTracker, batchSize,
		PipelineFromSemantic,
		func(rec tabular.RawRecord) (model.NormalizedPipelineProject, []string) {
			return PipelineFromRaw(rec, mapping)
		})
}

// NormalizeRentRoll converts raw rent-roll rows. Rent rolls skip the semantic
// service entirely: the rows are mechanical and the deterministic path is both
// cheaper and exact.
func NormalizeRentRoll(recs []tabular.RawRecord, mapping ColumnMapping) ([]model.RentRollUnit, []string) {
	units := make([]model.RentRollUnit, 0, len(recs))
	var warnings []string
	for i, rec := range recs {
		u, ws := RentRollUnitFromRaw(rec, mapping)
		for _, w := range ws {
			warnings = append(warnings, fmt.Sprintf("row %d: %s", i+1, w))
		}
		units = append(units, u)
	}
	return units, warnings
}
