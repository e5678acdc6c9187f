package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/campusmart/internal/cart"
	"github.com/roach88/campusmart/internal/catalog"
	"github.com/roach88/campusmart/internal/checkout"
)

const posHelp = `Commands:
  list [search]     products in stock
  add <id>          put one unit in the cart
  inc <id>          one more unit
  dec <id>          one less unit (never below 1)
  qty <id> <n>      set the quantity
  remove <id>       drop the line
  cart              show the cart
  checkout          record the sale
  clear             empty the cart
  help              this text
  quit              leave (the cart is discarded)`

// NewPOSCommand creates the interactive point-of-sale shell.
func NewPOSCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pos",
		Short: "Interactive point-of-sale shell",
		Long: `Start an interactive shell over one cart.

The cart lives only as long as the shell. Stock limits are re-read from the
catalog on every change, so edits made elsewhere are honoured.

` + posHelp,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, err := openAuthedApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			shell := &posShell{
				app:  app,
				cart: cart.New(),
				out:  cmd.OutOrStdout(),
				f: &OutputFormatter{
					Format:    "text",
					Writer:    cmd.OutOrStdout(),
					ErrWriter: cmd.ErrOrStderr(),
					Verbose:   rootOpts.Verbose,
				},
			}
			return shell.run(ctx, cmd.InOrStdin())
		},
	}
}

type posShell struct {
	app  *App
	cart *cart.Cart
	out  io.Writer
	f    *OutputFormatter
}

func (s *posShell) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintf(s.out, "CampusMart POS (%s). Type help for commands.\n", s.app.User.Username)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "pos> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := s.exec(ctx, fields[0], fields[1:]); err != nil {
			// A rejected sale was already reported; the cart is intact.
			if checkout.IsRejection(err) {
				continue
			}
			return err
		}
	}
}

func (s *posShell) exec(ctx context.Context, verb string, args []string) error {
	switch verb {
	case "help":
		fmt.Fprintln(s.out, posHelp)
	case "list":
		return s.list(ctx, strings.Join(args, " "))
	case "add", "inc", "dec", "remove":
		if len(args) != 1 {
			fmt.Fprintf(s.out, "usage: %s <id>\n", verb)
			return nil
		}
		return s.edit(ctx, verb, args[0], 0)
	case "qty":
		if len(args) != 2 {
			fmt.Fprintln(s.out, "usage: qty <id> <n>")
			return nil
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(s.out, "invalid quantity %q\n", args[1])
			return nil
		}
		return s.edit(ctx, verb, args[0], n)
	case "cart":
		s.showCart()
	case "clear":
		s.cart.Clear()
		fmt.Fprintln(s.out, "Cart cleared.")
	case "checkout":
		tx, err := checkoutCart(ctx, s.app, s.f, s.cart)
		if err != nil {
			return err
		}
		if tx == nil {
			fmt.Fprintln(s.out, "Cart is empty.")
		}
	default:
		fmt.Fprintf(s.out, "unknown command %q (type help)\n", verb)
	}
	return nil
}

func (s *posShell) list(ctx context.Context, search string) error {
	products, err := s.app.Catalog.List(ctx)
	if err != nil {
		return storeError("failed to list products", err)
	}
	writeProducts(s.out, products.Filter(catalog.CategoryAll, search).InStock())
	return nil
}

func (s *posShell) edit(ctx context.Context, verb, id string, n int) error {
	live, err := s.app.Catalog.List(ctx)
	if err != nil {
		return storeError("failed to read catalog", err)
	}

	before := s.cart.Quantity(id)
	switch verb {
	case "add":
		p, ok := live.Find(id)
		if !ok {
			fmt.Fprintf(s.out, "Unknown product %s\n", id)
			return nil
		}
		s.cart.Add(p)
		if s.cart.Quantity(id) == before {
			fmt.Fprintf(s.out, "Cannot add %s: %d in stock\n", p.Name, p.Stock)
			return nil
		}
	case "inc":
		s.cart.AdjustQuantity(id, 1, live)
	case "dec":
		s.cart.AdjustQuantity(id, -1, live)
	case "qty":
		s.cart.AdjustQuantity(id, n-before, live)
	case "remove":
		s.cart.Remove(id)
	}

	if before == 0 && verb != "add" {
		fmt.Fprintf(s.out, "%s is not in the cart\n", id)
		return nil
	}
	fmt.Fprintf(s.out, "%s: %d in cart. Total %s\n", id, s.cart.Quantity(id), money(s.cart.Total()))
	return nil
}

func (s *posShell) showCart() {
	if s.cart.IsEmpty() {
		fmt.Fprintln(s.out, "Cart is empty.")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tSUBTOTAL")
	for _, l := range s.cart.Lines() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", l.ID, l.Name, l.Quantity, money(l.Subtotal()))
	}
	tw.Flush()
	fmt.Fprintf(s.out, "Total: %s (%d items)\n", money(s.cart.Total()), s.cart.ItemCount())
}
