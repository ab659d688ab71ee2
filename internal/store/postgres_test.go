package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgresStore_CreateDocument(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO documents`).
		WithArgs(pgxmock.AnyArg(), "user-1", nil, "comps.xlsx", "spreadsheet",
			"unknown", "unspecified", "received", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	doc := &model.Document{
		UserID:   "user-1",
		Filename: "comps.xlsx",
		Kind:     model.KindSpreadsheet,
	}
	err := store.CreateDocument(context.Background(), doc)

	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, model.StatusReceived, doc.Status)
	assert.Equal(t, model.DocTypeUnknown, doc.DocType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDocument(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .+ FROM documents WHERE id = \$1`).
		WithArgs("doc-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "org_id", "filename", "kind", "doc_type", "pdf_subtype",
			"status", "extraction_data", "warnings", "error", "created_at", "updated_at",
		}).AddRow(
			"doc-1", "user-1", nil, "comps.xlsx", model.KindSpreadsheet, model.DocTypeSalesCompTracker,
			model.PDFSubtypeUnspecified, model.StatusCompleted, nil, nil, nil, now, now,
		))

	doc, err := store.GetDocument(context.Background(), "doc-1")

	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, model.DocTypeSalesCompTracker, doc.DocType)
	assert.Equal(t, model.StatusCompleted, doc.Status)
	assert.Empty(t, doc.OrgID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDocument_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM documents WHERE id = \$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetDocument(context.Background(), "nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "document not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetDocumentStatus(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE documents SET status = \$1`).
		WithArgs("normalization", pgxmock.AnyArg(), "doc-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := store.SetDocumentStatus(context.Background(), "doc-1", model.StatusNormalization)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetDocumentStatus_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE documents SET status = \$1`).
		WithArgs("normalization", pgxmock.AnyArg(), "nope").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.SetDocumentStatus(context.Background(), "nope", model.StatusNormalization)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "document not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FailDocument(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE documents SET status = 'failed'`).
		WithArgs("no header row found", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "doc-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := store.FailDocument(context.Background(), "doc-1", "no header row found",
		map[string]any{"sheet": "Sales Comps"}, []string{"row 4: unparseable sale_date"})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceComps_CopiesInsideTransaction(t *testing.T) {
	store, mock := newMockStore(t)
	doc := &model.Document{ID: "doc-1"}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM comps WHERE document_id = \$1`).
		WithArgs("doc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"comps"}, compCopyColumns).WillReturnResult(2)
	mock.ExpectCommit()

	comps := []model.NormalizedComp{
		{UserID: "user-1", PropertyName: "Oakwood Flats"},
		{UserID: "user-1", PropertyName: "Pine Ridge"},
	}
	err := store.ReplaceComps(context.Background(), doc, comps)

	require.NoError(t, err)
	assert.NotEmpty(t, comps[0].ID)
	assert.NotEmpty(t, comps[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceComps_EmptySetStillClears(t *testing.T) {
	store, mock := newMockStore(t)
	doc := &model.Document{ID: "doc-1"}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM comps WHERE document_id = \$1`).
		WithArgs("doc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCommit()

	err := store.ReplaceComps(context.Background(), doc, nil)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceSignals(t *testing.T) {
	store, mock := newMockStore(t)
	doc := &model.Document{ID: "doc-1"}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM sentiment_signals WHERE document_id = \$1`).
		WithArgs("doc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO sentiment_signals`).
		WithArgs(pgxmock.AnyArg(), "doc-1", "user-1", nil, "positive", "strong",
			"rent_growth", nil, "Atlanta", nil, "effective rents up 4%").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := store.ReplaceSignals(context.Background(), doc, []model.MarketSentimentSignal{{
		UserID:     "user-1",
		Direction:  model.DirectionPositive,
		Magnitude:  model.MagnitudeStrong,
		SignalType: model.SignalRentGrowth,
		Metro:      "Atlanta",
		Narrative:  "effective rents up 4%",
	}})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListComps(t *testing.T) {
	store, mock := newMockStore(t)

	saleDate := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM comps WHERE true AND user_id = \$1 AND metro = \$2`).
		WithArgs("user-1", "Atlanta", 500).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "document_id", "user_id", "org_id", "property_name", "address", "submarket", "county", "metro", "state",
			"property_type", "year_built", "year_renovated", "units", "avg_unit_sf",
			"sale_price", "price_per_unit", "price_per_sf", "cap_rate", "cap_rate_qualifier", "occupancy", "sale_date",
			"buyer", "seller", "notes",
		}).AddRow(
			"comp-1", "doc-1", "user-1", nil, "Oakwood Flats", nil, "Buckhead", nil, "Atlanta", "GA",
			"garden", int64(1987), nil, int64(220), nil,
			54500000.0, 247727.27, nil, 0.0525, nil, 0.94, saleDate,
			nil, nil, nil,
		))

	comps, err := store.ListComps(context.Background(), CompFilter{UserID: "user-1", Metro: "Atlanta"})

	require.NoError(t, err)
	require.Len(t, comps, 1)
	c := comps[0]
	assert.Equal(t, "Oakwood Flats", c.PropertyName)
	assert.Equal(t, "Buckhead", c.Submarket)
	require.NotNil(t, c.Units)
	assert.Equal(t, 220, *c.Units)
	require.NotNil(t, c.CapRate)
	assert.InDelta(t, 0.0525, *c.CapRate, 1e-9)
	assert.Nil(t, c.YearRenovated)
	require.NotNil(t, c.SaleDate)
	assert.True(t, saleDate.Equal(*c.SaleDate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetWeights_NoRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM score_weights WHERE user_id = \$1`).
		WithArgs("user-1").
		WillReturnError(pgx.ErrNoRows)

	w, err := store.GetWeights(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Nil(t, w)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Weights_RoundTrip(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO score_weights`).
		WithArgs("user-1", 50, 10, 40, 40, 30, 30).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT .+ FROM score_weights WHERE user_id = \$1`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"user_id", "layer_financial", "layer_sentiment", "layer_comps",
			"metric_cap_rate", "metric_opex", "metric_occupancy",
		}).AddRow("user-1", 50, 10, 40, 40, 30, 30))

	err := store.SaveWeights(context.Background(), model.ScoreWeights{
		UserID:         "user-1",
		LayerFinancial: 50, LayerSentiment: 10, LayerComps: 40,
		MetricCapRate: 40, MetricOpex: 30, MetricOccupancy: 30,
	})
	require.NoError(t, err)

	w, err := store.GetWeights(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, 50, w.LayerFinancial)
	assert.Equal(t, 30, w.MetricOccupancy)
	assert.NoError(t, mock.ExpectationsWereMet())
}
