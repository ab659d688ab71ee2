package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crestview-group/underwriting-cli/internal/fetcher"
	"github.com/crestview-group/underwriting-cli/internal/model"
)

var (
	ingestUser        string
	ingestOrg         string
	ingestConcurrency int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file|url|archive>...",
	Short: "Ingest deal documents through the extraction pipeline",
	Long:  "Accepts local spreadsheets and PDFs, zip data-room archives, and http/ftp URLs. Each document runs the full extraction state machine; failures are recorded per document and do not stop the batch.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		paths, cleanup, err := resolveSources(ctx, args)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(ingestConcurrency)
		for _, path := range paths {
			g.Go(func() error {
				if err := ingestOne(gctx, env, path); err != nil {
					// Already recorded on the document; log and keep going.
					zap.L().Warn("ingest: document failed",
						zap.String("path", path),
						zap.Error(err),
					)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("ingest complete", zap.Int("documents", len(paths)))
		return nil
	},
}

// resolveSources expands the argument list into local file paths, downloading
// URLs and unpacking zip archives into a temp directory.
func resolveSources(ctx context.Context, args []string) ([]string, func(), error) {
	var paths []string
	var tmpDir string
	cleanup := func() {
		if tmpDir != "" {
			_ = os.RemoveAll(tmpDir)
		}
	}

	ensureTmp := func() (string, error) {
		if tmpDir == "" {
			d, err := os.MkdirTemp("", "underwriter-ingest-*")
			if err != nil {
				return "", eris.Wrap(err, "create temp dir")
			}
			tmpDir = d
		}
		return tmpDir, nil
	}

	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://"):
			dir, err := ensureTmp()
			if err != nil {
				return paths, cleanup, err
			}
			f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
				UserAgent:  cfg.Fetch.UserAgent,
				Timeout:    durationSecs(cfg.Fetch.TimeoutSecs),
				RatePerSec: cfg.Fetch.RatePerSec,
			})
			local := filepath.Join(dir, filepath.Base(arg))
			if _, err := f.DownloadToFile(ctx, arg, local); err != nil {
				return paths, cleanup, err
			}
			paths = append(paths, local)

		case strings.HasPrefix(arg, "ftp://"):
			dir, err := ensureTmp()
			if err != nil {
				return paths, cleanup, err
			}
			f := fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: durationSecs(cfg.Fetch.FTPTimeoutSecs)})
			local := filepath.Join(dir, filepath.Base(arg))
			if _, err := f.DownloadToFile(ctx, arg, local); err != nil {
				return paths, cleanup, err
			}
			paths = append(paths, local)

		case strings.EqualFold(filepath.Ext(arg), ".zip"):
			dir, err := ensureTmp()
			if err != nil {
				return paths, cleanup, err
			}
			extracted, err := fetcher.ExtractArchive(arg, dir)
			if err != nil {
				return paths, cleanup, err
			}
			paths = append(paths, extracted...)

		default:
			paths = append(paths, arg)
		}
	}
	return paths, cleanup, nil
}

// ingestOne creates the document record and runs it through the pipeline.
func ingestOne(ctx context.Context, env *pipelineEnv, path string) error {
	kind, err := fetcher.DetectKind(path)
	if err != nil {
		return err
	}

	doc := &model.Document{
		UserID:   ingestUser,
		OrgID:    ingestOrg,
		Filename: filepath.Base(path),
		Kind:     kind,
	}
	if err := env.Store.CreateDocument(ctx, doc); err != nil {
		return err
	}
	zap.L().Info("ingest: document received",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.String("kind", string(kind)),
	)

	switch kind {
	case model.KindSpreadsheet:
		wb, err := fetcher.LoadWorkbook(path)
		if err != nil {
			_ = env.Store.FailDocument(ctx, doc.ID, err.Error(), nil, nil)
			return err
		}
		return env.Pipeline.ProcessSpreadsheet(ctx, doc, wb)
	case model.KindPDF:
		text, err := env.OCR.ExtractText(ctx, path)
		if err != nil {
			_ = env.Store.FailDocument(ctx, doc.ID, err.Error(), nil, nil)
			return err
		}
		return env.Pipeline.ProcessPDF(ctx, doc, text)
	default:
		return eris.Errorf("unsupported document kind %q", kind)
	}
}

func init() {
	ingestCmd.Flags().StringVar(&ingestUser, "user", "", "owning user ID (required)")
	ingestCmd.Flags().StringVar(&ingestOrg, "org", "", "owning org ID")
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 4, "documents processed in parallel")
	_ = ingestCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(ingestCmd)
}
