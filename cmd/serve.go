package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crestview-group/underwriting-cli/internal/fetcher"
	"github.com/crestview-group/underwriting-cli/internal/model"
	"github.com/crestview-group/underwriting-cli/internal/store"
)

var servePort int

const maxUploadBytes = 64 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the document ingestion server",
	Long:  "Accepts document uploads, runs extraction asynchronously, and serves status polling. Clients poll GET /documents/{id} until the document reaches completed or failed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		mux.HandleFunc("POST /documents", func(w http.ResponseWriter, r *http.Request) {
			handleUpload(ctx, env, w, r)
		})

		mux.HandleFunc("GET /documents/{id}", func(w http.ResponseWriter, r *http.Request) {
			doc, err := env.Store.GetDocument(r.Context(), r.PathValue("id"))
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
				return
			}
			writeJSON(w, http.StatusOK, doc)
		})

		mux.HandleFunc("GET /documents", func(w http.ResponseWriter, r *http.Request) {
			docs, err := env.Store.ListDocuments(r.Context(), store.DocumentFilter{
				UserID: r.URL.Query().Get("user"),
				Status: model.DocumentStatus(r.URL.Query().Get("status")),
			})
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, docs)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// handleUpload receives a multipart document, creates its record, and kicks
// off extraction in the background. Responds 202 with the document ID for
// status polling.
func handleUpload(serverCtx context.Context, env *pipelineEnv, w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer file.Close()

	kind, err := fetcher.DetectKind(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": err.Error()})
		return
	}

	tmp, err := os.CreateTemp("", "underwriter-upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store upload"})
		return
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store upload"})
		return
	}
	tmp.Close()

	doc := &model.Document{
		UserID:   userID,
		OrgID:    r.FormValue("org_id"),
		Filename: header.Filename,
		Kind:     kind,
	}
	if err := env.Store.CreateDocument(r.Context(), doc); err != nil {
		os.Remove(tmp.Name())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	// Extraction continues after the response; tied to server lifetime, not
	// the request.
	go func() {
		defer os.Remove(tmp.Name())
		processUpload(serverCtx, env, doc, tmp.Name())
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"document_id": doc.ID,
		"status":      string(doc.Status),
	})
}

func processUpload(ctx context.Context, env *pipelineEnv, doc *model.Document, path string) {
	var err error
	switch doc.Kind {
	case model.KindSpreadsheet:
		wb, lerr := fetcher.LoadWorkbook(path)
		if lerr != nil {
			err = lerr
			_ = env.Store.FailDocument(ctx, doc.ID, lerr.Error(), nil, nil)
			break
		}
		err = env.Pipeline.ProcessSpreadsheet(ctx, doc, wb)
	case model.KindPDF:
		text, oerr := env.OCR.ExtractText(ctx, path)
		if oerr != nil {
			err = oerr
			_ = env.Store.FailDocument(ctx, doc.ID, oerr.Error(), nil, nil)
			break
		}
		err = env.Pipeline.ProcessPDF(ctx, doc, text)
	}
	if err != nil {
		zap.L().Warn("serve: extraction failed",
			zap.String("document_id", doc.ID),
			zap.Error(err),
		)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
