package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	org_id          TEXT,
	filename        TEXT NOT NULL,
	kind            TEXT NOT NULL,
	doc_type        TEXT NOT NULL DEFAULT 'unknown',
	pdf_subtype     TEXT NOT NULL DEFAULT 'unspecified',
	status          TEXT NOT NULL DEFAULT 'received',
	extraction_data TEXT,
	warnings        TEXT,
	error           TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS comps (
	id                 TEXT PRIMARY KEY,
	document_id        TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	user_id            TEXT NOT NULL,
	org_id             TEXT,
	property_name      TEXT NOT NULL,
	address            TEXT,
	submarket          TEXT,
	county             TEXT,
	metro              TEXT,
	state              TEXT,
	property_type      TEXT,
	year_built         INTEGER,
	year_renovated     INTEGER,
	units              INTEGER,
	avg_unit_sf        REAL,
	sale_price         REAL,
	price_per_unit     REAL,
	price_per_sf       REAL,
	cap_rate           REAL,
	cap_rate_qualifier TEXT,
	occupancy          REAL,
	sale_date          DATETIME,
	buyer              TEXT,
	seller             TEXT,
	notes              TEXT
);

CREATE TABLE IF NOT EXISTS pipeline_projects (
	id                TEXT PRIMARY KEY,
	document_id       TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	user_id           TEXT NOT NULL,
	name              TEXT NOT NULL,
	submarket         TEXT,
	metro             TEXT,
	units             INTEGER,
	developer         TEXT,
	stage             TEXT,
	expected_delivery DATETIME,
	notes             TEXT
);

CREATE TABLE IF NOT EXISTS financial_periods (
	id                 TEXT PRIMARY KEY,
	document_id        TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	period_type        TEXT NOT NULL,
	fiscal_year        INTEGER,
	line_items         TEXT NOT NULL,
	unmapped           TEXT,
	economic_occupancy REAL,
	opex_ratio         REAL
);

CREATE TABLE IF NOT EXISTS sentiment_signals (
	id           TEXT PRIMARY KEY,
	document_id  TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	user_id      TEXT NOT NULL,
	org_id       TEXT,
	direction    TEXT NOT NULL,
	magnitude    TEXT NOT NULL,
	signal_type  TEXT NOT NULL,
	submarket    TEXT,
	metro        TEXT,
	published_at DATETIME,
	narrative    TEXT
);

CREATE TABLE IF NOT EXISTS score_weights (
	user_id          TEXT PRIMARY KEY,
	layer_financial  INTEGER NOT NULL,
	layer_sentiment  INTEGER NOT NULL,
	layer_comps      INTEGER NOT NULL,
	metric_cap_rate  INTEGER NOT NULL,
	metric_opex      INTEGER NOT NULL,
	metric_occupancy INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_user ON documents(user_id);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_comps_document ON comps(document_id);
CREATE INDEX IF NOT EXISTS idx_comps_user ON comps(user_id);
CREATE INDEX IF NOT EXISTS idx_pipeline_projects_user ON pipeline_projects(user_id);
CREATE INDEX IF NOT EXISTS idx_financial_periods_document ON financial_periods(document_id);
CREATE INDEX IF NOT EXISTS idx_signals_user ON sentiment_signals(user_id);
CREATE INDEX IF NOT EXISTS idx_signals_metro ON sentiment_signals(metro);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- documents ---

func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.Status == "" {
		doc.Status = model.StatusReceived
	}
	if doc.DocType == "" {
		doc.DocType = model.DocTypeUnknown
	}
	if doc.PDFSubtype == "" {
		doc.PDFSubtype = model.PDFSubtypeUnspecified
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, user_id, org_id, filename, kind, doc_type, pdf_subtype, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.UserID, nullString(doc.OrgID), doc.Filename, string(doc.Kind),
		string(doc.DocType), string(doc.PDFSubtype), string(doc.Status), now, now,
	)
	return eris.Wrap(err, "sqlite: insert document")
}

const documentColumns = `id, user_id, org_id, filename, kind, doc_type, pdf_subtype, status, extraction_data, warnings, error, created_at, updated_at`

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	var args []any

	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.DocType != "" {
		query += ` AND doc_type = ?`
		args = append(args, string(filter.DocType))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: list documents iterate")
}

func (s *SQLiteStore) SetDocumentStatus(ctx context.Context, id string, status model.DocumentStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set document status %s", id)
	}
	return checkRowsAffected(res, "document", id)
}

func (s *SQLiteStore) SetDocumentType(ctx context.Context, id string, docType model.DocumentType, subtype model.PDFSubtype) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET doc_type = ?, pdf_subtype = ?, updated_at = ? WHERE id = ?`,
		string(docType), string(subtype), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set document type %s", id)
	}
	return checkRowsAffected(res, "document", id)
}

func (s *SQLiteStore) FailDocument(ctx context.Context, id string, cause string, data map[string]any, warnings []string) error {
	dataJSON, warningsJSON, err := marshalExtraction(data, warnings)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, error = ?, extraction_data = ?, warnings = ?, updated_at = ? WHERE id = ?`,
		string(model.StatusFailed), cause, dataJSON, warningsJSON, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail document %s", id)
	}
	return checkRowsAffected(res, "document", id)
}

func (s *SQLiteStore) CompleteDocument(ctx context.Context, id string, data map[string]any, warnings []string) error {
	dataJSON, warningsJSON, err := marshalExtraction(data, warnings)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, extraction_data = ?, warnings = ?, updated_at = ? WHERE id = ?`,
		string(model.StatusCompleted), dataJSON, warningsJSON, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete document %s", id)
	}
	return checkRowsAffected(res, "document", id)
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete document %s", id)
	}
	return checkRowsAffected(res, "document", id)
}

func (s *SQLiteStore) ListStaleDocuments(ctx context.Context, bound time.Duration) ([]model.Document, error) {
	cutoff := time.Now().UTC().Add(-bound)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents
		 WHERE status NOT IN (?, ?, ?) AND updated_at < ?
		 ORDER BY updated_at ASC`,
		string(model.StatusReceived), string(model.StatusCompleted), string(model.StatusFailed), cutoff,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list stale documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: list stale documents iterate")
}

// --- derived rows ---

// replaceRows deletes a document's rows from one table and re-inserts inside
// a single transaction, so stale and fresh rows never mix.
func (s *SQLiteStore) replaceRows(ctx context.Context, table, docID string, insert func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE document_id = ?`, docID); err != nil {
		return eris.Wrapf(err, "sqlite: clear %s for document %s", table, docID)
	}
	if err := insert(tx); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit replace tx")
}

func (s *SQLiteStore) ReplaceComps(ctx context.Context, doc *model.Document, comps []model.NormalizedComp) error {
	return s.replaceRows(ctx, "comps", doc.ID, func(tx *sql.Tx) error {
		for i := range comps {
			c := &comps[i]
			if c.ID == "" {
				c.ID = uuid.New().String()
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO comps (id, document_id, user_id, org_id, property_name, address, submarket, county, metro, state,
				   property_type, year_built, year_renovated, units, avg_unit_sf,
				   sale_price, price_per_unit, price_per_sf, cap_rate, cap_rate_qualifier, occupancy, sale_date,
				   buyer, seller, notes)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				c.ID, doc.ID, c.UserID, nullString(c.OrgID), c.PropertyName, nullString(c.Address),
				nullString(c.Submarket), nullString(c.County), nullString(c.Metro), nullString(c.State),
				nullString(c.PropertyType), c.YearBuilt, c.YearRenovated, c.Units, c.AvgUnitSF,
				c.SalePrice, c.PricePerUnit, c.PricePerSF, c.CapRate, nullString(c.CapRateQualifier),
				c.Occupancy, c.SaleDate, nullString(c.Buyer), nullString(c.Seller), nullString(c.Notes),
			)
			if err != nil {
				return eris.Wrapf(err, "sqlite: insert comp %s", c.PropertyName)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ReplacePipelineProjects(ctx context.Context, doc *model.Document, projects []model.NormalizedPipelineProject) error {
	return s.replaceRows(ctx, "pipeline_projects", doc.ID, func(tx *sql.Tx) error {
		for i := range projects {
			p := &projects[i]
			if p.ID == "" {
				p.ID = uuid.New().String()
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO pipeline_projects (id, document_id, user_id, name, submarket, metro, units, developer, stage, expected_delivery, notes)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				p.ID, doc.ID, p.UserID, p.Name, nullString(p.Submarket), nullString(p.Metro),
				p.Units, nullString(p.Developer), nullString(p.Stage), p.ExpectedDelivery, nullString(p.Notes),
			)
			if err != nil {
				return eris.Wrapf(err, "sqlite: insert pipeline project %s", p.Name)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ReplaceFinancialPeriods(ctx context.Context, doc *model.Document, periods []model.FinancialPeriod) error {
	return s.replaceRows(ctx, "financial_periods", doc.ID, func(tx *sql.Tx) error {
		for i := range periods {
			fp := &periods[i]
			if fp.ID == "" {
				fp.ID = uuid.New().String()
			}
			itemsJSON, err := json.Marshal(fp.LineItems)
			if err != nil {
				return eris.Wrap(err, "sqlite: marshal line items")
			}
			var unmappedJSON any
			if len(fp.Unmapped) > 0 {
				b, err := json.Marshal(fp.Unmapped)
				if err != nil {
					return eris.Wrap(err, "sqlite: marshal unmapped")
				}
				unmappedJSON = string(b)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO financial_periods (id, document_id, period_type, fiscal_year, line_items, unmapped, economic_occupancy, opex_ratio)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				fp.ID, doc.ID, string(fp.PeriodType), fp.FiscalYear, string(itemsJSON), unmappedJSON,
				fp.EconomicOccupancy, fp.OpexRatio,
			)
			if err != nil {
				return eris.Wrapf(err, "sqlite: insert financial period %s", fp.PeriodType)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ReplaceSignals(ctx context.Context, doc *model.Document, signals []model.MarketSentimentSignal) error {
	return s.replaceRows(ctx, "sentiment_signals", doc.ID, func(tx *sql.Tx) error {
		for i := range signals {
			sig := &signals[i]
			if sig.ID == "" {
				sig.ID = uuid.New().String()
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO sentiment_signals (id, document_id, user_id, org_id, direction, magnitude, signal_type, submarket, metro, published_at, narrative)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				sig.ID, doc.ID, sig.UserID, nullString(sig.OrgID), string(sig.Direction), string(sig.Magnitude),
				string(sig.SignalType), nullString(sig.Submarket), nullString(sig.Metro), sig.PublishedAt, nullString(sig.Narrative),
			)
			if err != nil {
				return eris.Wrap(err, "sqlite: insert signal")
			}
		}
		return nil
	})
}

const compColumns = `id, document_id, user_id, org_id, property_name, address, submarket, county, metro, state,
	property_type, year_built, year_renovated, units, avg_unit_sf,
	sale_price, price_per_unit, price_per_sf, cap_rate, cap_rate_qualifier, occupancy, sale_date,
	buyer, seller, notes`

func (s *SQLiteStore) ListComps(ctx context.Context, filter CompFilter) ([]model.NormalizedComp, error) {
	query := `SELECT ` + compColumns + ` FROM comps WHERE 1=1`
	var args []any

	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.DocumentID != "" {
		query += ` AND document_id = ?`
		args = append(args, filter.DocumentID)
	}
	if filter.Metro != "" {
		query += ` AND metro = ?`
		args = append(args, filter.Metro)
	}
	query += ` ORDER BY sale_date DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list comps")
	}
	defer rows.Close()

	var comps []model.NormalizedComp
	for rows.Next() {
		c, err := scanComp(rows)
		if err != nil {
			return nil, err
		}
		comps = append(comps, *c)
	}
	return comps, eris.Wrap(rows.Err(), "sqlite: list comps iterate")
}

func (s *SQLiteStore) ListPipelineProjects(ctx context.Context, userID string) ([]model.NormalizedPipelineProject, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, user_id, name, submarket, metro, units, developer, stage, expected_delivery, notes
		 FROM pipeline_projects WHERE user_id = ? ORDER BY expected_delivery ASC`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pipeline projects")
	}
	defer rows.Close()

	var projects []model.NormalizedPipelineProject
	for rows.Next() {
		var p model.NormalizedPipelineProject
		var submarket, metro, developer, stage, notes sql.NullString
		var units sql.NullInt64
		var delivery sql.NullTime
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.UserID, &p.Name, &submarket, &metro, &units, &developer, &stage, &delivery, &notes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pipeline project")
		}
		p.Submarket = submarket.String
		p.Metro = metro.String
		p.Developer = developer.String
		p.Stage = stage.String
		p.Notes = notes.String
		if units.Valid {
			n := int(units.Int64)
			p.Units = &n
		}
		if delivery.Valid {
			t := delivery.Time
			p.ExpectedDelivery = &t
		}
		projects = append(projects, p)
	}
	return projects, eris.Wrap(rows.Err(), "sqlite: list pipeline projects iterate")
}

func (s *SQLiteStore) ListFinancialPeriods(ctx context.Context, documentID string) ([]model.FinancialPeriod, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, period_type, fiscal_year, line_items, unmapped, economic_occupancy, opex_ratio
		 FROM financial_periods WHERE document_id = ?`,
		documentID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list financial periods")
	}
	defer rows.Close()

	var periods []model.FinancialPeriod
	for rows.Next() {
		var fp model.FinancialPeriod
		var fiscalYear sql.NullInt64
		var itemsJSON string
		var unmappedJSON sql.NullString
		var econOcc, opexRatio sql.NullFloat64
		if err := rows.Scan(&fp.ID, &fp.DocumentID, &fp.PeriodType, &fiscalYear, &itemsJSON, &unmappedJSON, &econOcc, &opexRatio); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan financial period")
		}
		if fiscalYear.Valid {
			fp.FiscalYear = int(fiscalYear.Int64)
		}
		if err := json.Unmarshal([]byte(itemsJSON), &fp.LineItems); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal line items")
		}
		if unmappedJSON.Valid {
			if err := json.Unmarshal([]byte(unmappedJSON.String), &fp.Unmapped); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal unmapped")
			}
		}
		if econOcc.Valid {
			v := econOcc.Float64
			fp.EconomicOccupancy = &v
		}
		if opexRatio.Valid {
			v := opexRatio.Float64
			fp.OpexRatio = &v
		}
		periods = append(periods, fp)
	}
	return periods, eris.Wrap(rows.Err(), "sqlite: list financial periods iterate")
}

func (s *SQLiteStore) ListSignals(ctx context.Context, filter SignalFilter) ([]model.MarketSentimentSignal, error) {
	query := `SELECT id, document_id, user_id, org_id, direction, magnitude, signal_type, submarket, metro, published_at, narrative
	          FROM sentiment_signals WHERE 1=1`
	var args []any

	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Metro != "" {
		query += ` AND metro = ?`
		args = append(args, filter.Metro)
	}
	if filter.Submarket != "" {
		query += ` AND submarket = ?`
		args = append(args, filter.Submarket)
	}
	query += ` ORDER BY published_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list signals")
	}
	defer rows.Close()

	var signals []model.MarketSentimentSignal
	for rows.Next() {
		var sig model.MarketSentimentSignal
		var orgID, submarket, metro, narrative sql.NullString
		var publishedAt sql.NullTime
		if err := rows.Scan(&sig.ID, &sig.DocumentID, &sig.UserID, &orgID, &sig.Direction, &sig.Magnitude, &sig.SignalType, &submarket, &metro, &publishedAt, &narrative); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan signal")
		}
		sig.OrgID = orgID.String
		sig.Submarket = submarket.String
		sig.Metro = metro.String
		sig.Narrative = narrative.String
		if publishedAt.Valid {
			t := publishedAt.Time
			sig.PublishedAt = &t
		}
		signals = append(signals, sig)
	}
	return signals, eris.Wrap(rows.Err(), "sqlite: list signals iterate")
}

// --- weights ---

func (s *SQLiteStore) GetWeights(ctx context.Context, userID string) (*model.ScoreWeights, error) {
	var w model.ScoreWeights
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, layer_financial, layer_sentiment, layer_comps, metric_cap_rate, metric_opex, metric_occupancy
		 FROM score_weights WHERE user_id = ?`,
		userID,
	).Scan(&w.UserID, &w.LayerFinancial, &w.LayerSentiment, &w.LayerComps, &w.MetricCapRate, &w.MetricOpex, &w.MetricOccupancy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get weights")
	}
	return &w, nil
}

func (s *SQLiteStore) SaveWeights(ctx context.Context, weights model.ScoreWeights) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO score_weights (user_id, layer_financial, layer_sentiment, layer_comps, metric_cap_rate, metric_opex, metric_occupancy)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   layer_financial = excluded.layer_financial,
		   layer_sentiment = excluded.layer_sentiment,
		   layer_comps = excluded.layer_comps,
		   metric_cap_rate = excluded.metric_cap_rate,
		   metric_opex = excluded.metric_opex,
		   metric_occupancy = excluded.metric_occupancy`,
		weights.UserID, weights.LayerFinancial, weights.LayerSentiment, weights.LayerComps,
		weights.MetricCapRate, weights.MetricOpex, weights.MetricOccupancy,
	)
	return eris.Wrap(err, "sqlite: save weights")
}

// --- helpers ---

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func marshalExtraction(data map[string]any, warnings []string) (any, any, error) {
	var dataJSON, warningsJSON any
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, nil, eris.Wrap(err, "store: marshal extraction data")
		}
		dataJSON = string(b)
	}
	if len(warnings) > 0 {
		b, err := json.Marshal(warnings)
		if err != nil {
			return nil, nil, eris.Wrap(err, "store: marshal warnings")
		}
		warningsJSON = string(b)
	}
	return dataJSON, warningsJSON, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDocument(row scannable) (*model.Document, error) {
	var d model.Document
	var orgID, dataJSON, warningsJSON, errMsg sql.NullString

	err := row.Scan(&d.ID, &d.UserID, &orgID, &d.Filename, &d.Kind, &d.DocType, &d.PDFSubtype,
		&d.Status, &dataJSON, &warningsJSON, &errMsg, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("document not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan document")
	}

	d.OrgID = orgID.String
	d.Error = errMsg.String
	if dataJSON.Valid {
		if err := json.Unmarshal([]byte(dataJSON.String), &d.ExtractionData); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal extraction data")
		}
	}
	if warningsJSON.Valid {
		if err := json.Unmarshal([]byte(warningsJSON.String), &d.Warnings); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal warnings")
		}
	}
	return &d, nil
}

func scanComp(row scannable) (*model.NormalizedComp, error) {
	var c model.NormalizedComp
	var orgID, address, submarket, county, metro, state, propertyType, capQualifier, buyer, seller, notes sql.NullString
	var yearBuilt, yearRenovated, units sql.NullInt64
	var avgUnitSF, salePrice, pricePerUnit, pricePerSF, capRate, occupancy sql.NullFloat64
	var saleDate sql.NullTime

	err := row.Scan(&c.ID, &c.DocumentID, &c.UserID, &orgID, &c.PropertyName, &address, &submarket, &county, &metro, &state,
		&propertyType, &yearBuilt, &yearRenovated, &units, &avgUnitSF,
		&salePrice, &pricePerUnit, &pricePerSF, &capRate, &capQualifier, &occupancy, &saleDate,
		&buyer, &seller, &notes)
	if err != nil {
		return nil, eris.Wrap(err, "store: scan comp")
	}

	c.OrgID = orgID.String
	c.Address = address.String
	c.Submarket = submarket.String
	c.County = county.String
	c.Metro = metro.String
	c.State = state.String
	c.PropertyType = propertyType.String
	c.CapRateQualifier = capQualifier.String
	c.Buyer = buyer.String
	c.Seller = seller.String
	c.Notes = notes.String

	if yearBuilt.Valid {
		n := int(yearBuilt.Int64)
		c.YearBuilt = &n
	}
	if yearRenovated.Valid {
		n := int(yearRenovated.Int64)
		c.YearRenovated = &n
	}
	if units.Valid {
		n := int(units.Int64)
		c.Units = &n
	}
	if avgUnitSF.Valid {
		v := avgUnitSF.Float64
		c.AvgUnitSF = &v
	}
	if salePrice.Valid {
		v := salePrice.Float64
		c.SalePrice = &v
	}
	if pricePerUnit.Valid {
		v := pricePerUnit.Float64
		c.PricePerUnit = &v
	}
	if pricePerSF.Valid {
		v := pricePerSF.Float64
		c.PricePerSF = &v
	}
	if capRate.Valid {
		v := capRate.Float64
		c.CapRate = &v
	}
	if occupancy.Valid {
		v := occupancy.Float64
		c.Occupancy = &v
	}
	if saleDate.Valid {
		t := saleDate.Time
		c.SaleDate = &t
	}
	return &c, nil
}
