package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/campusmart/internal/ledger"
	"github.com/roach88/campusmart/internal/metrics"
)

// DashboardResult is the dashboard command's JSON payload.
type DashboardResult struct {
	metrics.Dashboard
	Insights string `json:"insights,omitempty"`
}

// NewDashboardCommand creates the dashboard command.
func NewDashboardCommand(rootOpts *RootOptions) *cobra.Command {
	var recent int
	var insights bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show sales and stock metrics",
		Long: `Show total revenue, stock, low-stock products and recent sales.

Metrics are recomputed from the stored catalog and transaction log on
every call. With --insights the figures are also summarized in prose by
the text generator.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if recent < 0 {
				return NewExitError(ExitCommandError, "--recent must be non-negative")
			}

			app, ctx, err := openAuthedApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			d, err := metrics.Reader{Catalog: app.Catalog, Log: app.Log}.Dashboard(ctx, recent)
			if err != nil {
				return storeError("failed to compute dashboard", err)
			}
			res := DashboardResult{Dashboard: d}
			if insights {
				res.Insights = app.Insight.SummarizeMetrics(ctx, d.TotalRevenue, d.LowStockNames, d.TransactionCount)
			}
			return newFormatter(rootOpts, cmd).Emit(res, func(w io.Writer) { writeDashboard(w, res) })
		},
	}

	cmd.Flags().IntVar(&recent, "recent", metrics.DefaultRecent, "number of recent transactions to show")
	cmd.Flags().BoolVar(&insights, "insights", false, "add a generated summary")
	return cmd
}

func writeDashboard(w io.Writer, res DashboardResult) {
	d := res.Dashboard
	fmt.Fprintf(w, "Total revenue:  %s\n", money(d.TotalRevenue))
	fmt.Fprintf(w, "Transactions:   %d\n", d.TransactionCount)
	fmt.Fprintf(w, "Products:       %d (%d units in stock)\n", d.ProductCount, d.TotalStock)
	fmt.Fprintf(w, "Low stock (<%d): %d", metrics.LowStockThreshold, d.LowStockCount)
	if len(d.LowStockNames) > 0 {
		fmt.Fprintf(w, " [%s]", strings.Join(d.LowStockNames, ", "))
	}
	fmt.Fprintln(w)
	if len(d.SalesTrend) > 0 {
		amounts := make([]string, len(d.SalesTrend))
		for i, pt := range d.SalesTrend {
			amounts[i] = money(pt.Amount)
		}
		fmt.Fprintf(w, "Sales trend:    %s\n", strings.Join(amounts, " "))
	}

	if len(d.RecentTransactions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Recent transactions:")
		writeTransactions(w, d.RecentTransactions)
	}
	if res.Insights != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, res.Insights)
	}
}

func writeTransactions(w io.Writer, txs []ledger.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "No transactions.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tITEMS\tTOTAL")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", tx.ID, tx.Timestamp.Format("2006-01-02 15:04"), tx.ItemCount(), money(tx.Total))
	}
	tw.Flush()
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "List recorded sales, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, err := openAuthedApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			txs, err := app.Log.List(ctx)
			if err != nil {
				return storeError("failed to read transactions", err)
			}
			if limit > 0 {
				txs = ledger.Head(txs, limit)
			}
			return newFormatter(rootOpts, cmd).Emit(txs, func(w io.Writer) { writeTransactions(w, txs) })
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many (0 for all)")
	return cmd
}
