package cmd

import (
	"context"
	"fmt"
	"io"

	"backtest-catalog/internal/dto"
	"backtest-catalog/internal/pagination"
	"backtest-catalog/internal/service"

	"github.com/spf13/cobra"
)

var (
	listPage   int
	listMobile bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print one catalog page to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		appDep, err := NewAppDependency(ctx, configPath)
		if err != nil {
			return err
		}
		defer appDep.Close()

		services := service.NewService(appDep.cfg, appDep.log, appDep.repo)
		state := pagination.Jump(pagination.NewState(listMobile), listPage)

		view, _, err := services.CatalogService.RenderPage(ctx, state)
		if err != nil {
			return fmt.Errorf("render page %d: %w", state.Page, err)
		}
		return printPage(cmd.OutOrStdout(), view)
	},
}

func init() {
	listCmd.Flags().IntVarP(&listPage, "page", "p", 1, "Page number, 1-indexed")
	listCmd.Flags().BoolVar(&listMobile, "mobile", false, "Use the small screen page size")
}

func printPage(w io.Writer, view *dto.PageView) error {
	if view.Note != "" {
		if _, err := fmt.Fprintf(w, "%s\n\n", view.Note); err != nil {
			return err
		}
	}
	for _, c := range view.Cards {
		excel := c.ExcelURL
		if excel == "" {
			excel = "-"
		}
		_, err := fmt.Fprintf(w,
			"%s\n  Net Profit (EUR): %s\n  Profit Factor:    %s\n  Max DD:           %s\n  Win rate:         %s\n  N. trade:         %s\n  Excel:            %s\n\n",
			c.Code, c.NetProfit, c.ProfitFactor, c.MaxDrawdown, c.WinRate, c.TradeCount, excel)
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Pagina %d / %d\n", view.Page, view.TotalPages)
	return err
}
