package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/crestview-group/underwriting-cli/internal/model"
	"github.com/crestview-group/underwriting-cli/internal/store"
	"github.com/crestview-group/underwriting-cli/pkg/notion"
)

var (
	exportUser  string
	exportMetro string
	exportOut   string

	exportDealName  string
	exportDealFlags subjectFlags
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export comps to a workbook or push a scored deal to the tracker",
}

var exportXLSXCmd = &cobra.Command{
	Use:   "xlsx",
	Short: "Write stored comps to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rows, err := st.ListComps(ctx, store.CompFilter{UserID: exportUser, Metro: exportMetro})
		if err != nil {
			return err
		}

		if err := writeCompsWorkbook(exportOut, rows); err != nil {
			return err
		}
		zap.L().Info("comps exported", zap.String("path", exportOut), zap.Int("comps", len(rows)))
		return nil
	},
}

func writeCompsWorkbook(path string, rows []model.NormalizedComp) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sales Comps")
	if err != nil {
		return eris.Wrap(err, "add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Property", "Address", "Submarket", "Metro", "Type", "Year Built", "Units", "Sale Price", "Price/Unit", "Price/SF", "Cap Rate", "Sale Date"} {
		header.AddCell().SetString(h)
	}

	for _, c := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(c.PropertyName)
		row.AddCell().SetString(c.Address)
		row.AddCell().SetString(c.Submarket)
		row.AddCell().SetString(c.Metro)
		row.AddCell().SetString(c.PropertyType)
		addIntCell(row, c.YearBuilt)
		addIntCell(row, c.Units)
		addFloatCell(row, c.SalePrice, "#,##0")
		addFloatCell(row, c.PricePerUnit, "#,##0")
		addFloatCell(row, c.PricePerSF, "#,##0.00")
		addFloatCell(row, c.CapRate, "0.00%")
		if c.SaleDate != nil {
			row.AddCell().SetString(c.SaleDate.Format("2006-01-02"))
		} else {
			row.AddCell().SetString("")
		}
	}

	return eris.Wrapf(f.Save(path), "save workbook %s", path)
}

func addIntCell(row *xlsx.Row, v *int) {
	cell := row.AddCell()
	if v != nil {
		cell.SetInt(*v)
	}
}

func addFloatCell(row *xlsx.Row, v *float64, format string) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloatWithFormat(*v, format)
	}
}

var exportNotionCmd = &cobra.Command{
	Use:   "notion",
	Short: "Score a deal and upsert it into the Notion deal tracker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cfg.Notion.Token == "" || cfg.Notion.DealDB == "" {
			return eris.New("notion export requires notion.token and notion.deal_db")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		subject := exportDealFlags.subject()
		weights, err := loadWeights(ctx, st, subject.UserID)
		if err != nil {
			return err
		}
		result, err := scoreDeal(ctx, st, subject, weights)
		if err != nil {
			return err
		}

		client := notion.NewClient(cfg.Notion.Token)
		pageID, err := notion.UpsertDeal(ctx, client, cfg.Notion.DealDB, notion.Deal{
			Name:       exportDealName,
			Metro:      subject.Metro,
			Submarket:  subject.Submarket,
			Score:      result.Score,
			Confidence: string(result.Confidence),
			Rationale:  result.Rationale,
		})
		if err != nil {
			return err
		}

		fmt.Printf("deal %q pushed to tracker (page %s)\n", exportDealName, pageID)
		return nil
	},
}

func init() {
	exportXLSXCmd.Flags().StringVar(&exportUser, "user", "", "owning user ID (required)")
	exportXLSXCmd.Flags().StringVar(&exportMetro, "metro", "", "filter by metro")
	exportXLSXCmd.Flags().StringVar(&exportOut, "out", "comps.xlsx", "output path")
	_ = exportXLSXCmd.MarkFlagRequired("user")

	exportDealFlags.register(exportNotionCmd)
	exportNotionCmd.Flags().StringVar(&exportDealName, "deal-name", "", "deal name in the tracker (required)")
	_ = exportNotionCmd.MarkFlagRequired("deal-name")

	exportCmd.AddCommand(exportXLSXCmd, exportNotionCmd)
	rootCmd.AddCommand(exportCmd)
}
