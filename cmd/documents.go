package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crestview-group/underwriting-cli/internal/model"
	"github.com/crestview-group/underwriting-cli/internal/store"
)

var (
	docsUser   string
	docsStatus string
	docsType   string
	docsLimit  int
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Inspect and manage ingested documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		docs, err := st.ListDocuments(ctx, store.DocumentFilter{
			UserID:  docsUser,
			Status:  model.DocumentStatus(docsStatus),
			DocType: model.DocumentType(docsType),
			Limit:   docsLimit,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILENAME\tTYPE\tSTATUS\tUPDATED")
		for _, d := range docs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				d.ID, d.Filename, d.DocType, d.Status, d.UpdatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var documentsStatusCmd = &cobra.Command{
	Use:   "status <document-id>",
	Short: "Show one document with its extraction data and warnings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		doc, err := st.GetDocument(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	},
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document and all records derived from it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteDocument(ctx, args[0]); err != nil {
			return err
		}
		zap.L().Info("document deleted", zap.String("document_id", args[0]))
		return nil
	},
}

var documentsRequeueCmd = &cobra.Command{
	Use:   "requeue",
	Short: "Reset documents stuck mid-pipeline back to received",
	Long:  "Finds documents sitting in a processing state longer than the configured bound (a crashed worker leaves them there) and resets them so they can be resubmitted. Re-extraction replaces any partial derived rows.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		bound := time.Duration(cfg.Extract.StaleAfterMins) * time.Minute
		stale, err := st.ListStaleDocuments(ctx, bound)
		if err != nil {
			return err
		}

		for _, d := range stale {
			if err := st.SetDocumentStatus(ctx, d.ID, model.StatusReceived); err != nil {
				return err
			}
			zap.L().Info("document requeued",
				zap.String("document_id", d.ID),
				zap.String("was", string(d.Status)),
			)
		}
		fmt.Printf("requeued %d stale documents\n", len(stale))
		return nil
	},
}

func init() {
	documentsListCmd.Flags().StringVar(&docsUser, "user", "", "filter by user ID")
	documentsListCmd.Flags().StringVar(&docsStatus, "status", "", "filter by status")
	documentsListCmd.Flags().StringVar(&docsType, "type", "", "filter by document type")
	documentsListCmd.Flags().IntVar(&docsLimit, "limit", 100, "max documents to list")

	documentsCmd.AddCommand(documentsListCmd, documentsStatusCmd, documentsDeleteCmd, documentsRequeueCmd)
	rootCmd.AddCommand(documentsCmd)
}
