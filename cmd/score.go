package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crestview-group/underwriting-cli/internal/comps"
	"github.com/crestview-group/underwriting-cli/internal/dealscore"
	"github.com/crestview-group/underwriting-cli/internal/model"
	"github.com/crestview-group/underwriting-cli/internal/sentiment"
	"github.com/crestview-group/underwriting-cli/internal/store"
)

var (
	scoreFlags     subjectFlags
	scoreDocument  string
	scoreOpexRatio float64
	scoreEconOcc   float64
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a deal against financials, market sentiment, and comps",
	Long:  "Composes the three scoring layers: in-place financial metrics (from flags or an extracted operating statement), aggregated market sentiment for the subject's geography, and comparable-sale metrics from the relevance-selected comp set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		subject := scoreFlags.subject()

		weights, err := loadWeights(ctx, st, subject.UserID)
		if err != nil {
			return err
		}

		result, err := scoreDeal(ctx, st, subject, weights)
		if err != nil {
			return err
		}

		if result.Score != nil {
			zap.L().Info("deal scored",
				zap.Float64("score", *result.Score),
				zap.String("confidence", string(result.Confidence)),
			)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// loadWeights returns the user's saved weights, or the configured defaults
// when none were ever saved.
func loadWeights(ctx context.Context, st store.Store, userID string) (model.ScoreWeights, error) {
	saved, err := st.GetWeights(ctx, userID)
	if err != nil {
		return model.ScoreWeights{}, err
	}
	if saved != nil {
		return *saved, nil
	}
	w := model.ScoreWeights{
		UserID:          userID,
		LayerFinancial:  cfg.Scoring.LayerFinancial,
		LayerSentiment:  cfg.Scoring.LayerSentiment,
		LayerComps:      cfg.Scoring.LayerComps,
		MetricCapRate:   cfg.Scoring.MetricCapRate,
		MetricOpex:      cfg.Scoring.MetricOpex,
		MetricOccupancy: cfg.Scoring.MetricOcc,
	}
	return w, w.Validate()
}

// layer1Inputs assembles financial inputs from flags, filling gaps from an
// extracted operating statement when --document is given.
func layer1Inputs(ctx context.Context, st store.Store, subject *model.SubjectProperty) (dealscore.Layer1Inputs, error) {
	in := dealscore.Layer1Inputs{CapRate: subject.CapRate}
	if scoreOpexRatio > 0 {
		in.OpexRatio = &scoreOpexRatio
	}
	if scoreEconOcc > 0 {
		in.EconomicOccupancy = &scoreEconOcc
	}

	if scoreDocument == "" {
		return in, nil
	}
	periods, err := st.ListFinancialPeriods(ctx, scoreDocument)
	if err != nil {
		return in, err
	}
	if len(periods) == 0 {
		return in, eris.Errorf("document %s has no extracted financial periods", scoreDocument)
	}
	for _, fp := range periods {
		if fp.PeriodType != model.PeriodT12 {
			continue
		}
		if in.OpexRatio == nil {
			in.OpexRatio = fp.OpexRatio
		}
		if in.EconomicOccupancy == nil {
			in.EconomicOccupancy = fp.EconomicOccupancy
		}
	}
	return in, nil
}

// scoreDeal runs the three layers and composes them.
func scoreDeal(ctx context.Context, st store.Store, subject *model.SubjectProperty, weights model.ScoreWeights) (dealscore.Result, error) {
	in, err := layer1Inputs(ctx, st, subject)
	if err != nil {
		return dealscore.Result{}, err
	}
	financial := dealscore.ScoreLayer1(in, weights)

	signals, err := st.ListSignals(ctx, store.SignalFilter{UserID: subject.UserID, Metro: subject.Metro})
	if err != nil {
		return dealscore.Result{}, err
	}
	sent := sentiment.Aggregate(signals, subject.Submarket, subject.Metro, time.Now())

	pool, err := st.ListComps(ctx, store.CompFilter{UserID: subject.UserID, Metro: subject.Metro})
	if err != nil {
		return dealscore.Result{}, err
	}
	selector := comps.NewSelector(cfg.Comps.MinComps, cfg.Comps.MaxComps)
	selected := selector.Select(selector.Rank(subject, pool))
	compMetrics := comps.ScoreMetrics(subject, selected)

	return dealscore.Compose(weights, financial, sent, compMetrics), nil
}

func init() {
	scoreFlags.register(scoreCmd)
	scoreCmd.Flags().StringVar(&scoreDocument, "document", "", "operating statement document ID for financial inputs")
	scoreCmd.Flags().Float64Var(&scoreOpexRatio, "opex-ratio", 0, "subject opex ratio (decimal)")
	scoreCmd.Flags().Float64Var(&scoreEconOcc, "economic-occupancy", 0, "subject economic occupancy (decimal)")
	rootCmd.AddCommand(scoreCmd)
}
