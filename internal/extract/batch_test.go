package extract

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestview-group/underwriting-cli/internal/model"
	"github.com/crestview-group/underwriting-cli/internal/tabular"
)

// mockSemantic scripts NormalizeRecords per batch: a batch whose first row
// index appears in failAt errors out.
type mockSemantic struct {
	failAt map[int]bool
	calls  int
}

func (m *mockSemantic) MapColumns(_ context.Context, headers []string, _ model.DocumentType) (ColumnMapping, error) {
	return FallbackColumnMapping(headers, model.DocTypeSalesCompTracker)
}

func (m *mockSemantic) NormalizeRecords(_ context.Context, recs []tabular.RawRecord, _ model.DocumentType) ([]map[string]any, error) {
	defer func() { m.calls++ }()
	if m.failAt[m.calls] {
		return nil, eris.New("service unavailable")
	}
	out := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		out = append(out, map[string]any{
			"property_name": rec["Property Name"] + " (semantic)",
		})
	}
	return out, nil
}

func (m *mockSemantic) ExtractDocument(_ context.Context, _, _ string) (map[string]any, error) {
	return nil, eris.New("not used")
}

func rawCompRows(n int) []tabular.RawRecord {
	recs := make([]tabular.RawRecord, n)
	for i := range recs {
		recs[i] = tabular.RawRecord{"Property Name": string(rune('A' + i))}
	}
	return recs
}

func TestNormalizeComps_SemanticPath(t *testing.T) {
	sem := &mockSemantic{}
	mapping := ColumnMapping{"Property Name": "property_name"}

	comps, warnings := NormalizeComps(context.Background(), sem, rawCompRows(3), mapping, 25)
	require.Len(t, comps, 3)
	assert.Empty(t, warnings)
	assert.Equal(t, "A (semantic)", comps[0].PropertyName)
	assert.Equal(t, 1, sem.calls)
}

func TestNormalizeComps_FailedBatchFallsBack(t *testing.T) {
	// Batch size 2 over 4 rows: the first batch fails and its two rows come
	// from the deterministic converter; the second batch keeps its semantic
	// results.
	sem := &mockSemantic{failAt: map[int]bool{0: true}}
	mapping := ColumnMapping{"Property Name": "property_name"}

	comps, warnings := NormalizeComps(context.Background(), sem, rawCompRows(4), mapping, 2)
	require.Len(t, comps, 4)

	assert.Equal(t, "A", comps[0].PropertyName)
	assert.Equal(t, "B", comps[1].PropertyName)
	assert.Equal(t, "C (semantic)", comps[2].PropertyName)
	assert.Equal(t, "D (semantic)", comps[3].PropertyName)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "rows 1-2")
	assert.Contains(t, warnings[0], "deterministically")
}

func TestNormalizeComps_NilServiceUsesDeterministic(t *testing.T) {
	mapping := ColumnMapping{"Property Name": "property_name"}

	comps, warnings := NormalizeComps(context.Background(), nil, rawCompRows(2), mapping, 25)
	require.Len(t, comps, 2)
	assert.Empty(t, warnings)
	assert.Equal(t, "A", comps[0].PropertyName)
}

func TestNormalizeRentRoll_AlwaysDeterministic(t *testing.T) {
	mapping := ColumnMapping{"Unit": "unit_number", "Rent": "in_place_rent"}
	recs := []tabular.RawRecord{
		{"Unit": "101", "Rent": "1500"},
		{"Unit": "102", "Rent": "bad value"},
	}

	units, warnings := NormalizeRentRoll(recs, mapping)
	require.Len(t, units, 2)
	assert.Equal(t, "101", units[0].UnitNumber)
	assert.True(t, units[0].Occupied)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "row 2")
}
