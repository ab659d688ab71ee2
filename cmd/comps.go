package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/crestview-group/underwriting-cli/internal/comps"
	"github.com/crestview-group/underwriting-cli/internal/store"
)

var (
	compsUser     string
	compsDocument string
	compsMetro    string
	compsLimit    int

	rankFlags subjectFlags
)

var compsCmd = &cobra.Command{
	Use:   "comps",
	Short: "Browse and rank extracted comparable sales",
}

var compsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored comps",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rows, err := st.ListComps(ctx, store.CompFilter{
			UserID:     compsUser,
			DocumentID: compsDocument,
			Metro:      compsMetro,
			Limit:      compsLimit,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROPERTY\tSUBMARKET\tUNITS\tSALE PRICE\t$/UNIT\tCAP")
		for _, c := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				c.PropertyName, c.Submarket,
				fmtInt(c.Units), fmtMoney(c.SalePrice), fmtMoney(c.PricePerUnit), fmtPct(c.CapRate))
		}
		return w.Flush()
	},
}

var compsRankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank stored comps by relevance to a subject property",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		subject := rankFlags.subject()
		pool, err := st.ListComps(ctx, store.CompFilter{UserID: subject.UserID, Metro: subject.Metro})
		if err != nil {
			return err
		}

		selector := comps.NewSelector(cfg.Comps.MinComps, cfg.Comps.MaxComps)
		ranked := selector.Rank(subject, pool)
		selected := selector.Select(ranked)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RELEVANCE\tPROPERTY\tTYPE\tBUILT\tUNITS\t$/UNIT\tCAP")
		for _, sc := range selected {
			c := sc.Comp
			fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\t%s\t%s\t%s\n",
				sc.Relevance, c.PropertyName, c.PropertyType,
				fmtInt(c.YearBuilt), fmtInt(c.Units), fmtMoney(c.PricePerUnit), fmtPct(c.CapRate))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d of %d comps selected\n", len(selected), len(pool))
		return nil
	},
}

func fmtInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func fmtMoney(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f", *v)
}

func fmtPct(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func init() {
	compsListCmd.Flags().StringVar(&compsUser, "user", "", "filter by user ID")
	compsListCmd.Flags().StringVar(&compsDocument, "document", "", "filter by source document ID")
	compsListCmd.Flags().StringVar(&compsMetro, "metro", "", "filter by metro")
	compsListCmd.Flags().IntVar(&compsLimit, "limit", 100, "max comps to list")

	rankFlags.register(compsRankCmd)

	compsCmd.AddCommand(compsListCmd, compsRankCmd)
	rootCmd.AddCommand(compsCmd)
}
