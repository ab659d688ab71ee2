package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/crestview-group/underwriting-cli/internal/db"
	"github.com/crestview-group/underwriting-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for the
// hottest document-lifecycle operations.
var preparedStatements = map[string]string{
	"set_document_status": `UPDATE documents SET status = $1, updated_at = $2 WHERE id = $3`,
	"set_document_type":   `UPDATE documents SET doc_type = $1, pdf_subtype = $2, updated_at = $3 WHERE id = $4`,
	"fail_document":       `UPDATE documents SET status = 'failed', error = $1, extraction_data = $2, warnings = $3, updated_at = $4 WHERE id = $5`,
	"get_document":        `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems needing direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id         TEXT NOT NULL,
	org_id          TEXT,
	filename        TEXT NOT NULL,
	kind            TEXT NOT NULL,
	doc_type        TEXT NOT NULL DEFAULT 'unknown',
	pdf_subtype     TEXT NOT NULL DEFAULT 'unspecified',
	status          TEXT NOT NULL DEFAULT 'received',
	extraction_data JSONB,
	warnings        JSONB,
	error           TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS comps (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
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
	avg_unit_sf        DOUBLE PRECISION,
	sale_price         DOUBLE PRECISION,
	price_per_unit     DOUBLE PRECISION,
	price_per_sf       DOUBLE PRECISION,
	cap_rate           DOUBLE PRECISION,
	cap_rate_qualifier TEXT,
	occupancy          DOUBLE PRECISION,
	sale_date          TIMESTAMPTZ,
	buyer              TEXT,
	seller             TEXT,
	notes              TEXT
);

CREATE TABLE IF NOT EXISTS pipeline_projects (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	document_id       TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	user_id           TEXT NOT NULL,
	name              TEXT NOT NULL,
	submarket         TEXT,
	metro             TEXT,
	units             INTEGER,
	developer         TEXT,
	stage             TEXT,
	expected_delivery TIMESTAMPTZ,
	notes             TEXT
);

CREATE TABLE IF NOT EXISTS financial_periods (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	document_id        TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	period_type        TEXT NOT NULL,
	fiscal_year        INTEGER,
	line_items         JSONB NOT NULL,
	unmapped           JSONB,
	economic_occupancy DOUBLE PRECISION,
	opex_ratio         DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS sentiment_signals (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	document_id  TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	user_id      TEXT NOT NULL,
	org_id       TEXT,
	direction    TEXT NOT NULL,
	magnitude    TEXT NOT NULL,
	signal_type  TEXT NOT NULL,
	submarket    TEXT,
	metro        TEXT,
	published_at TIMESTAMPTZ,
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
CREATE INDEX IF NOT EXISTS idx_documents_status_updated ON documents(status, updated_at);
CREATE INDEX IF NOT EXISTS idx_comps_document ON comps(document_id);
CREATE INDEX IF NOT EXISTS idx_comps_user ON comps(user_id);
CREATE INDEX IF NOT EXISTS idx_comps_metro ON comps(metro);
CREATE INDEX IF NOT EXISTS idx_pipeline_projects_user ON pipeline_projects(user_id);
CREATE INDEX IF NOT EXISTS idx_financial_periods_document ON financial_periods(document_id);
CREATE INDEX IF NOT EXISTS idx_signals_user ON sentiment_signals(user_id);
CREATE INDEX IF NOT EXISTS idx_signals_metro ON sentiment_signals(metro);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- documents ---

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *model.Document) error {
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

	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, user_id, org_id, filename, kind, doc_type, pdf_subtype, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		doc.ID, doc.UserID, nullString(doc.OrgID), doc.Filename, string(doc.Kind),
		string(doc.DocType), string(doc.PDFSubtype), string(doc.Status), now, now,
	)
	return eris.Wrap(err, "postgres: insert document")
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	d, err := scanPGDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("document not found: %s", id)
		}
		return nil, err
	}
	return d, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE true`
	args := []any{}
	argIdx := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(` AND user_id = $%d`, argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.DocType != "" {
		query += fmt.Sprintf(` AND doc_type = $%d`, argIdx)
		args = append(args, string(filter.DocType))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanPGDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: list documents iterate")
}

func (s *PostgresStore) SetDocumentStatus(ctx context.Context, id string, status model.DocumentStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set document status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("document not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) SetDocumentType(ctx context.Context, id string, docType model.DocumentType, subtype model.PDFSubtype) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET doc_type = $1, pdf_subtype = $2, updated_at = $3 WHERE id = $4`,
		string(docType), string(subtype), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set document type %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("document not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) FailDocument(ctx context.Context, id string, cause string, data map[string]any, warnings []string) error {
	dataJSON, warningsJSON, err := marshalExtraction(data, warnings)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET status = 'failed', error = $1, extraction_data = $2, warnings = $3, updated_at = $4 WHERE id = $5`,
		cause, dataJSON, warningsJSON, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail document %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("document not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) CompleteDocument(ctx context.Context, id string, data map[string]any, warnings []string) error {
	dataJSON, warningsJSON, err := marshalExtraction(data, warnings)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET status = 'completed', extraction_data = $1, warnings = $2, updated_at = $3 WHERE id = $4`,
		dataJSON, warningsJSON, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete document %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("document not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete document %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("document not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) ListStaleDocuments(ctx context.Context, bound time.Duration) ([]model.Document, error) {
	cutoff := time.Now().UTC().Add(-bound)
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents
		 WHERE status NOT IN ('received', 'completed', 'failed') AND updated_at < $1
		 ORDER BY updated_at ASC`,
		cutoff,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list stale documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanPGDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: list stale documents iterate")
}

// --- derived rows ---

var compCopyColumns = []string{
	"id", "document_id", "user_id", "org_id", "property_name", "address", "submarket", "county", "metro", "state",
	"property_type", "year_built", "year_renovated", "units", "avg_unit_sf",
	"sale_price", "price_per_unit", "price_per_sf", "cap_rate", "cap_rate_qualifier", "occupancy", "sale_date",
	"buyer", "seller", "notes",
}

func (s *PostgresStore) ReplaceComps(ctx context.Context, doc *model.Document, comps []model.NormalizedComp) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace comps")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM comps WHERE document_id = $1`, doc.ID); err != nil {
		return eris.Wrapf(err, "postgres: clear comps for document %s", doc.ID)
	}

	rows := make([][]any, 0, len(comps))
	for i := range comps {
		c := &comps[i]
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		rows = append(rows, []any{
			c.ID, doc.ID, c.UserID, nullString(c.OrgID), c.PropertyName, nullString(c.Address),
			nullString(c.Submarket), nullString(c.County), nullString(c.Metro), nullString(c.State),
			nullString(c.PropertyType), c.YearBuilt, c.YearRenovated, c.Units, c.AvgUnitSF,
			c.SalePrice, c.PricePerUnit, c.PricePerSF, c.CapRate, nullString(c.CapRateQualifier),
			c.Occupancy, c.SaleDate, nullString(c.Buyer), nullString(c.Seller), nullString(c.Notes),
		})
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"comps"}, compCopyColumns, pgx.CopyFromRows(rows)); err != nil {
			return eris.Wrapf(err, "postgres: copy comps for document %s", doc.ID)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace comps")
}

func (s *PostgresStore) ReplacePipelineProjects(ctx context.Context, doc *model.Document, projects []model.NormalizedPipelineProject) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace pipeline projects")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM pipeline_projects WHERE document_id = $1`, doc.ID); err != nil {
		return eris.Wrapf(err, "postgres: clear pipeline projects for document %s", doc.ID)
	}
	for i := range projects {
		p := &projects[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO pipeline_projects (id, document_id, user_id, name, submarket, metro, units, developer, stage, expected_delivery, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			p.ID, doc.ID, p.UserID, p.Name, nullString(p.Submarket), nullString(p.Metro),
			p.Units, nullString(p.Developer), nullString(p.Stage), p.ExpectedDelivery, nullString(p.Notes),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert pipeline project %s", p.Name)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace pipeline projects")
}

func (s *PostgresStore) ReplaceFinancialPeriods(ctx context.Context, doc *model.Document, periods []model.FinancialPeriod) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace financial periods")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM financial_periods WHERE document_id = $1`, doc.ID); err != nil {
		return eris.Wrapf(err, "postgres: clear financial periods for document %s", doc.ID)
	}
	for i := range periods {
		fp := &periods[i]
		if fp.ID == "" {
			fp.ID = uuid.New().String()
		}
		itemsJSON, err := json.Marshal(fp.LineItems)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal line items")
		}
		var unmappedJSON []byte
		if len(fp.Unmapped) > 0 {
			unmappedJSON, err = json.Marshal(fp.Unmapped)
			if err != nil {
				return eris.Wrap(err, "postgres: marshal unmapped")
			}
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO financial_periods (id, document_id, period_type, fiscal_year, line_items, unmapped, economic_occupancy, opex_ratio)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			fp.ID, doc.ID, string(fp.PeriodType), fp.FiscalYear, itemsJSON, unmappedJSON,
			fp.EconomicOccupancy, fp.OpexRatio,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert financial period %s", fp.PeriodType)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace financial periods")
}

func (s *PostgresStore) ReplaceSignals(ctx context.Context, doc *model.Document, signals []model.MarketSentimentSignal) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace signals")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM sentiment_signals WHERE document_id = $1`, doc.ID); err != nil {
		return eris.Wrapf(err, "postgres: clear signals for document %s", doc.ID)
	}
	for i := range signals {
		sig := &signals[i]
		if sig.ID == "" {
			sig.ID = uuid.New().String()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO sentiment_signals (id, document_id, user_id, org_id, direction, magnitude, signal_type, submarket, metro, published_at, narrative)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			sig.ID, doc.ID, sig.UserID, nullString(sig.OrgID), string(sig.Direction), string(sig.Magnitude),
			string(sig.SignalType), nullString(sig.Submarket), nullString(sig.Metro), sig.PublishedAt, nullString(sig.Narrative),
		)
		if err != nil {
			return eris.Wrap(err, "postgres: insert signal")
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace signals")
}

func (s *PostgresStore) ListComps(ctx context.Context, filter CompFilter) ([]model.NormalizedComp, error) {
	query := `SELECT ` + compColumns + ` FROM comps WHERE true`
	args := []any{}
	argIdx := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(` AND user_id = $%d`, argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}
	if filter.DocumentID != "" {
		query += fmt.Sprintf(` AND document_id = $%d`, argIdx)
		args = append(args, filter.DocumentID)
		argIdx++
	}
	if filter.Metro != "" {
		query += fmt.Sprintf(` AND metro = $%d`, argIdx)
		args = append(args, filter.Metro)
		argIdx++
	}
	query += ` ORDER BY sale_date DESC NULLS LAST`

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list comps")
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
	return comps, eris.Wrap(rows.Err(), "postgres: list comps iterate")
}

func (s *PostgresStore) ListPipelineProjects(ctx context.Context, userID string) ([]model.NormalizedPipelineProject, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, user_id, name, submarket, metro, units, developer, stage, expected_delivery, notes
		 FROM pipeline_projects WHERE user_id = $1 ORDER BY expected_delivery ASC NULLS LAST`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pipeline projects")
	}
	defer rows.Close()

	var projects []model.NormalizedPipelineProject
	for rows.Next() {
		var p model.NormalizedPipelineProject
		var submarket, metro, developer, stage, notes *string
		var units *int
		var delivery *time.Time
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.UserID, &p.Name, &submarket, &metro, &units, &developer, &stage, &delivery, &notes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan pipeline project")
		}
		p.Submarket = deref(submarket)
		p.Metro = deref(metro)
		p.Developer = deref(developer)
		p.Stage = deref(stage)
		p.Notes = deref(notes)
		p.Units = units
		p.ExpectedDelivery = delivery
		projects = append(projects, p)
	}
	return projects, eris.Wrap(rows.Err(), "postgres: list pipeline projects iterate")
}

func (s *PostgresStore) ListFinancialPeriods(ctx context.Context, documentID string) ([]model.FinancialPeriod, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, period_type, fiscal_year, line_items, unmapped, economic_occupancy, opex_ratio
		 FROM financial_periods WHERE document_id = $1`,
		documentID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list financial periods")
	}
	defer rows.Close()

	var periods []model.FinancialPeriod
	for rows.Next() {
		var fp model.FinancialPeriod
		var fiscalYear *int
		var itemsJSON []byte
		var unmappedJSON *[]byte
		if err := rows.Scan(&fp.ID, &fp.DocumentID, &fp.PeriodType, &fiscalYear, &itemsJSON, &unmappedJSON, &fp.EconomicOccupancy, &fp.OpexRatio); err != nil {
			return nil, eris.Wrap(err, "postgres: scan financial period")
		}
		if fiscalYear != nil {
			fp.FiscalYear = *fiscalYear
		}
		if err := json.Unmarshal(itemsJSON, &fp.LineItems); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal line items")
		}
		if unmappedJSON != nil {
			if err := json.Unmarshal(*unmappedJSON, &fp.Unmapped); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal unmapped")
			}
		}
		periods = append(periods, fp)
	}
	return periods, eris.Wrap(rows.Err(), "postgres: list financial periods iterate")
}

func (s *PostgresStore) ListSignals(ctx context.Context, filter SignalFilter) ([]model.MarketSentimentSignal, error) {
	query := `SELECT id, document_id, user_id, org_id, direction, magnitude, signal_type, submarket, metro, published_at, narrative
	          FROM sentiment_signals WHERE true`
	args := []any{}
	argIdx := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(` AND user_id = $%d`, argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}
	if filter.Metro != "" {
		query += fmt.Sprintf(` AND metro = $%d`, argIdx)
		args = append(args, filter.Metro)
		argIdx++
	}
	if filter.Submarket != "" {
		query += fmt.Sprintf(` AND submarket = $%d`, argIdx)
		args = append(args, filter.Submarket)
		argIdx++
	}
	query += ` ORDER BY published_at DESC NULLS LAST`

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list signals")
	}
	defer rows.Close()

	var signals []model.MarketSentimentSignal
	for rows.Next() {
		var sig model.MarketSentimentSignal
		var orgID, submarket, metro, narrative *string
		if err := rows.Scan(&sig.ID, &sig.DocumentID, &sig.UserID, &orgID, &sig.Direction, &sig.Magnitude, &sig.SignalType, &submarket, &metro, &sig.PublishedAt, &narrative); err != nil {
			return nil, eris.Wrap(err, "postgres: scan signal")
		}
		sig.OrgID = deref(orgID)
		sig.Submarket = deref(submarket)
		sig.Metro = deref(metro)
		sig.Narrative = deref(narrative)
		signals = append(signals, sig)
	}
	return signals, eris.Wrap(rows.Err(), "postgres: list signals iterate")
}

// --- weights ---

func (s *PostgresStore) GetWeights(ctx context.Context, userID string) (*model.ScoreWeights, error) {
	var w model.ScoreWeights
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, layer_financial, layer_sentiment, layer_comps, metric_cap_rate, metric_opex, metric_occupancy
		 FROM score_weights WHERE user_id = $1`,
		userID,
	).Scan(&w.UserID, &w.LayerFinancial, &w.LayerSentiment, &w.LayerComps, &w.MetricCapRate, &w.MetricOpex, &w.MetricOccupancy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get weights")
	}
	return &w, nil
}

func (s *PostgresStore) SaveWeights(ctx context.Context, weights model.ScoreWeights) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO score_weights (user_id, layer_financial, layer_sentiment, layer_comps, metric_cap_rate, metric_opex, metric_occupancy)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id) DO UPDATE SET
		   layer_financial = $2, layer_sentiment = $3, layer_comps = $4,
		   metric_cap_rate = $5, metric_opex = $6, metric_occupancy = $7`,
		weights.UserID, weights.LayerFinancial, weights.LayerSentiment, weights.LayerComps,
		weights.MetricCapRate, weights.MetricOpex, weights.MetricOccupancy,
	)
	return eris.Wrap(err, "postgres: save weights")
}

// --- helpers ---

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func scanPGDocument(row scannable) (*model.Document, error) {
	var d model.Document
	var orgID, errMsg *string
	var dataJSON, warningsJSON *[]byte

	err := row.Scan(&d.ID, &d.UserID, &orgID, &d.Filename, &d.Kind, &d.DocType, &d.PDFSubtype,
		&d.Status, &dataJSON, &warningsJSON, &errMsg, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan document")
	}

	d.OrgID = deref(orgID)
	d.Error = deref(errMsg)
	if dataJSON != nil {
		if err := json.Unmarshal(*dataJSON, &d.ExtractionData); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal extraction data")
		}
	}
	if warningsJSON != nil {
		if err := json.Unmarshal(*warningsJSON, &d.Warnings); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal warnings")
		}
	}
	return &d, nil
}
