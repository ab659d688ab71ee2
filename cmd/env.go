package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/crestview-group/underwriting-cli/internal/extract"
	"github.com/crestview-group/underwriting-cli/internal/ocr"
	"github.com/crestview-group/underwriting-cli/internal/store"
)

func durationSecs(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "underwriter.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// pipelineEnv holds the store and extraction pipeline shared by the ingest
// and serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *extract.Pipeline
	OCR      ocr.Extractor
}

// Close releases resources held by the environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline opens the store, runs migrations, and wires the extraction
// pipeline. The semantic extractor is nil without credentials; the pipeline
// falls back to deterministic extraction for spreadsheets.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	ocrExtractor, err := ocr.NewExtractor(cfg.OCR)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	sem := extract.NewSemanticExtractor(cfg.Anthropic)
	pipeline, err := extract.NewPipeline(st, sem, cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &pipelineEnv{
		Store:    st,
		Pipeline: pipeline,
		OCR:      ocrExtractor,
	}, nil
}
