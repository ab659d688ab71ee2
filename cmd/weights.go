package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

var (
	weightsUser string
	setWeights  model.ScoreWeights
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show or set per-user deal-score weights",
}

var weightsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective weights for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		w, err := loadWeights(ctx, st, weightsUser)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(w)
	},
}

var weightsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save weights for a user",
	Long:  "Both the three layer weights and the three financial metric weights must each sum to exactly 100.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		setWeights.UserID = weightsUser
		if err := setWeights.Validate(); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.SaveWeights(ctx, setWeights); err != nil {
			return err
		}
		zap.L().Info("weights saved", zap.String("user", weightsUser))
		return nil
	},
}

func init() {
	weightsShowCmd.Flags().StringVar(&weightsUser, "user", "", "user ID (required)")
	_ = weightsShowCmd.MarkFlagRequired("user")

	weightsSetCmd.Flags().StringVar(&weightsUser, "user", "", "user ID (required)")
	weightsSetCmd.Flags().IntVar(&setWeights.LayerFinancial, "layer-financial", 40, "financial layer weight")
	weightsSetCmd.Flags().IntVar(&setWeights.LayerSentiment, "layer-sentiment", 20, "sentiment layer weight")
	weightsSetCmd.Flags().IntVar(&setWeights.LayerComps, "layer-comps", 40, "comps layer weight")
	weightsSetCmd.Flags().IntVar(&setWeights.MetricCapRate, "metric-cap-rate", 40, "cap rate metric weight")
	weightsSetCmd.Flags().IntVar(&setWeights.MetricOpex, "metric-opex", 30, "opex ratio metric weight")
	weightsSetCmd.Flags().IntVar(&setWeights.MetricOccupancy, "metric-occupancy", 30, "economic occupancy metric weight")
	_ = weightsSetCmd.MarkFlagRequired("user")

	weightsCmd.AddCommand(weightsShowCmd, weightsSetCmd)
	rootCmd.AddCommand(weightsCmd)
}
