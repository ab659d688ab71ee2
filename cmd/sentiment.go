package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/crestview-group/underwriting-cli/internal/sentiment"
	"github.com/crestview-group/underwriting-cli/internal/store"
)

var (
	sentimentUser      string
	sentimentMetro     string
	sentimentSubmarket string
)

var sentimentCmd = &cobra.Command{
	Use:   "sentiment",
	Short: "Aggregate market sentiment signals for a geography",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		signals, err := st.ListSignals(ctx, store.SignalFilter{
			UserID: sentimentUser,
			Metro:  sentimentMetro,
		})
		if err != nil {
			return err
		}

		result := sentiment.Aggregate(signals, sentimentSubmarket, sentimentMetro, time.Now())

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	sentimentCmd.Flags().StringVar(&sentimentUser, "user", "", "owning user ID (required)")
	sentimentCmd.Flags().StringVar(&sentimentMetro, "metro", "", "subject metro")
	sentimentCmd.Flags().StringVar(&sentimentSubmarket, "submarket", "", "subject submarket")
	_ = sentimentCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(sentimentCmd)
}
