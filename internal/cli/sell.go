package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/campusmart/internal/cart"
	"github.com/roach88/campusmart/internal/checkout"
	"github.com/roach88/campusmart/internal/ledger"
)

// SaleItem is one parsed id[=qty] argument.
type SaleItem struct {
	ProductID string
	Quantity  int
}

// ParseSaleItems parses id[=qty] arguments. A missing quantity means 1.
func ParseSaleItems(args []string) ([]SaleItem, error) {
	items := make([]SaleItem, 0, len(args))
	for _, arg := range args {
		id, qty, found := strings.Cut(arg, "=")
		item := SaleItem{ProductID: strings.TrimSpace(id), Quantity: 1}
		if item.ProductID == "" {
			return nil, fmt.Errorf("invalid item %q: missing product id", arg)
		}
		if found {
			n, err := strconv.Atoi(qty)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid item %q: quantity must be a positive integer", arg)
			}
			item.Quantity = n
		}
		items = append(items, item)
	}
	return items, nil
}

// NewSellCommand creates the sell command.
func NewSellCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sell <id[=qty]>...",
		Short: "Ring up a sale",
		Long: `Build a cart from the given products and check it out.

Each argument is a product id, optionally followed by =quantity.

Exit codes:
  0 - Sale recorded
  1 - Sale rejected (not enough stock, unknown product, concurrent change)
  2 - Command error (bad arguments, not logged in)

Examples:
  campusmart sell 1
  campusmart sell 1=2 3=4`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := ParseSaleItems(args)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid arguments", err)
			}

			app, ctx, err := openAuthedApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			return runSell(ctx, app, newFormatter(rootOpts, cmd), items)
		},
	}
}

func runSell(ctx context.Context, app *App, f *OutputFormatter, items []SaleItem) error {
	live, err := app.Catalog.List(ctx)
	if err != nil {
		return storeError("failed to read catalog", err)
	}

	c := cart.New()
	for _, it := range items {
		p, ok := live.Find(it.ProductID)
		if !ok {
			return rejectSale(f, &checkout.Error{
				Code:      checkout.ErrCodeUnknownProduct,
				Message:   "Product not found",
				ProductID: it.ProductID,
			})
		}
		want := c.Quantity(p.ID) + it.Quantity
		if got := c.AddN(p, it.Quantity, live); got != want {
			return rejectSale(f, &checkout.Error{
				Code:      checkout.ErrCodeInsufficientStock,
				Message:   fmt.Sprintf("Not enough stock for %s", p.Name),
				ProductID: p.ID,
				Requested: want,
				Available: p.Stock,
			})
		}
	}

	tx, err := checkoutCart(ctx, app, f, c)
	if err != nil {
		return err
	}
	if tx == nil {
		return NewExitError(ExitCommandError, "cart is empty")
	}
	return nil
}

// checkoutCart runs the checkout engine and reports the outcome. Rejections
// are printed and returned as ExitFailure.
func checkoutCart(ctx context.Context, app *App, f *OutputFormatter, c *cart.Cart) (*ledger.Transaction, error) {
	tx, err := app.Checkout.Checkout(ctx, c)
	app.Checkout.Reset()
	var cerr *checkout.Error
	if errors.As(err, &cerr) {
		return nil, rejectSale(f, cerr)
	}
	if err != nil {
		return nil, storeError("checkout failed", err)
	}
	if tx == nil {
		return nil, nil
	}
	return tx, f.Emit(tx, func(w io.Writer) { writeReceipt(w, tx) })
}

func rejectSale(f *OutputFormatter, cerr *checkout.Error) error {
	details := map[string]any{"product_id": cerr.ProductID}
	if cerr.Code == checkout.ErrCodeInsufficientStock {
		details["requested"] = cerr.Requested
		details["available"] = cerr.Available
	}
	if err := f.Error(string(cerr.Code), cerr.Message, details); err != nil {
		return err
	}
	return WrapExitError(ExitFailure, "sale rejected", cerr)
}

func writeReceipt(w io.Writer, tx *ledger.Transaction) {
	fmt.Fprintf(w, "Sale %s at %s\n", tx.ID, tx.Timestamp.Format("2006-01-02 15:04:05 MST"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, l := range tx.Items {
		fmt.Fprintf(tw, "  %s\tx%d\t%s\n", l.Name, l.Quantity, money(l.Subtotal()))
	}
	tw.Flush()
	fmt.Fprintf(w, "Total: %s (%d items)\n", money(tx.Total), tx.ItemCount())
}
