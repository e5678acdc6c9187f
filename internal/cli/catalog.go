package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/campusmart/internal/catalog"
)

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage products",
	}
	cmd.AddCommand(newCatalogListCommand(rootOpts))
	cmd.AddCommand(newCatalogAddCommand(rootOpts))
	cmd.AddCommand(newCatalogUpdateCommand(rootOpts))
	cmd.AddCommand(newCatalogDeleteCommand(rootOpts))
	cmd.AddCommand(newCatalogImportCommand(rootOpts))
	cmd.AddCommand(newCatalogValidateCommand(rootOpts))
	cmd.AddCommand(newCatalogDescribeCommand(rootOpts))
	return cmd
}

// CatalogListOptions holds flags for catalog list.
type CatalogListOptions struct {
	*RootOptions
	Category string
	Search   string
	InStock  bool
	Sort     string
}

func newCatalogListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Long: `List the catalog in storage order.

Examples:
  campusmart catalog list
  campusmart catalog list --category Snacks --in-stock
  campusmart catalog list --search cable --sort name --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Category, "category", "", "only this category (All for every category)")
	cmd.Flags().StringVar(&opts.Search, "search", "", "case-insensitive name filter")
	cmd.Flags().BoolVar(&opts.InStock, "in-stock", false, "hide products with no stock")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "sort order (name)")
	return cmd
}

func runCatalogList(opts *CatalogListOptions, cmd *cobra.Command) error {
	if opts.Sort != "" && opts.Sort != "name" {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid sort %q: must be name", opts.Sort))
	}
	if opts.Category != "" && opts.Category != catalog.CategoryAll && !catalog.IsCategory(opts.Category) {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown category %q", opts.Category))
	}

	app, ctx, err := openAuthedApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	products, err := app.Catalog.List(ctx)
	if err != nil {
		return storeError("failed to list products", err)
	}
	products = products.Filter(opts.Category, opts.Search)
	if opts.InStock {
		products = products.InStock()
	}
	if opts.Sort == "name" {
		products = products.SortedByName()
	}

	return newFormatter(opts.RootOptions, cmd).Emit(products, func(w io.Writer) {
		writeProducts(w, products)
	})
}

func writeProducts(w io.Writer, products catalog.Products) {
	if len(products) == 0 {
		fmt.Fprintln(w, "No products.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Category, money(p.Price), p.Stock)
	}
	tw.Flush()
}

// ProductFlags are the editable product fields as flags.
type ProductFlags struct {
	Name                string
	Category            string
	Price               string
	Stock               int
	Description         string
	GenerateDescription bool
}

func (pf *ProductFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&pf.Name, "name", "", "product name")
	cmd.Flags().StringVar(&pf.Category, "category", "", "one of Snacks, Beverages, Stationery, Electronics, Personal Care")
	cmd.Flags().StringVar(&pf.Price, "price", "", "unit price, e.g. 3.50")
	cmd.Flags().IntVar(&pf.Stock, "stock", 0, "units in stock")
	cmd.Flags().StringVar(&pf.Description, "description", "", "product description")
	cmd.Flags().BoolVar(&pf.GenerateDescription, "generate-description", false, "ask the text generator for a description")
}

func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, NewExitError(ExitCommandError, fmt.Sprintf("invalid price %q", s))
	}
	return d, nil
}

func newCatalogAddCommand(rootOpts *RootOptions) *cobra.Command {
	pf := &ProductFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		Long: `Add a product under a fresh id.

Example:
  campusmart catalog add --name "Gel Pen" --category Stationery --price 1.25 --stock 40`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parsePrice(pf.Price)
			if err != nil {
				return err
			}

			app, ctx, err := openAuthedApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			np := catalog.NewProduct{
				Name:        pf.Name,
				Category:    pf.Category,
				Price:       price,
				Stock:       pf.Stock,
				Description: pf.Description,
			}
			if pf.GenerateDescription && np.Description == "" {
				np.Description = app.Insight.GenerateDescription(ctx, np.Name, np.Category)
			}

			p, err := app.Catalog.Add(ctx, np)
			if err != nil {
				return storeError("failed to add product", err)
			}
			return newFormatter(rootOpts, cmd).Success(p, fmt.Sprintf("Added %s (%s)", p.Name, p.ID))
		},
	}

	pf.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newCatalogUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	pf := &ProductFlags{}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a product",
		Long: `Edit a product. Only the flags given are changed.

Example:
  campusmart catalog update 3 --stock 120`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var price decimal.Decimal
			if flags.Changed("price") {
				var err error
				if price, err = parsePrice(pf.Price); err != nil {
					return err
				}
			}

			app, ctx, err := openAuthedApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			description, generate := pf.Description, pf.GenerateDescription
			if generate {
				current, err := app.Catalog.Get(ctx, args[0])
				if err != nil {
					return storeError("failed to update product", err)
				}
				name, category := current.Name, current.Category
				if flags.Changed("name") {
					name = pf.Name
				}
				if flags.Changed("category") {
					category = pf.Category
				}
				description = app.Insight.GenerateDescription(ctx, name, category)
			}

			p, err := app.Catalog.Edit(ctx, args[0], func(p *catalog.Product) {
				if flags.Changed("name") {
					p.Name = pf.Name
				}
				if flags.Changed("category") {
					p.Category = pf.Category
				}
				if flags.Changed("price") {
					p.Price = price
				}
				if flags.Changed("stock") {
					p.Stock = pf.Stock
				}
				if generate || flags.Changed("description") {
					p.Description = description
				}
			})
			if err != nil {
				return storeError("failed to update product", err)
			}
			return newFormatter(rootOpts, cmd).Success(p, fmt.Sprintf("Updated %s (%s)", p.Name, p.ID))
		},
	}

	pf.register(cmd)
	return cmd
}

func newCatalogDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Long: `Delete a product. Past transactions keep their copy of it.
Deleting an unknown id succeeds.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, err := openAuthedApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Catalog.Delete(ctx, args[0]); err != nil {
				return storeError("failed to delete product", err)
			}
			return newFormatter(rootOpts, cmd).Success(map[string]string{"deleted": args[0]}, "Deleted "+args[0])
		},
	}
}

// ImportResult summarizes a catalog import.
type ImportResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

func newCatalogImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.cue|file.json>",
		Short: "Upsert products from a file",
		Long: `Upsert products from a CUE or JSON file.

The file holds a list of products, or an object with a products field.
Products are matched by id; entries without an id are added under a fresh one.
Nothing is written unless every entry is valid.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read import file", err)
			}

			app, ctx, err := openAuthedApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			products, err := app.Catalog.Schema().DecodeProducts(filepath.Base(args[0]), src)
			if err != nil {
				return storeError("invalid import file", err)
			}
			added, updated, err := app.Catalog.Import(ctx, products)
			if err != nil {
				return storeError("import failed", err)
			}
			res := ImportResult{Added: added, Updated: updated}
			return newFormatter(rootOpts, cmd).Success(res, fmt.Sprintf("Imported: %d added, %d updated", added, updated))
		},
	}
}

// ValidationResult holds catalog file validation results.
type ValidationResult struct {
	Valid    bool `json:"valid"`
	Products int  `json:"products"`
}

func newCatalogValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.cue|file.json>",
		Short: "Check a catalog file without importing it",
		Long: `Check a catalog file against the product schema.

Needs no database and no session.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogValidate(rootOpts, args[0], cmd)
		},
	}
}

func runCatalogValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	src, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read catalog file", err)
	}
	schema, err := catalog.NewSchema()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load product schema", err)
	}

	formatter.VerboseLog("Validating %s (%d bytes)", path, len(src))
	products, err := schema.DecodeProducts(filepath.Base(path), src)
	if err != nil {
		if err := formatter.Error("INVALID_CATALOG", err.Error(), map[string]string{"file": path}); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, "catalog file is invalid", err)
	}

	result := ValidationResult{Valid: true, Products: len(products)}
	return formatter.Success(result, fmt.Sprintf("✓ %s: %d product(s) valid", path, len(products)))
}

func newCatalogDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "describe <name>",
		Short: "Generate a product description",
		Long: `Ask the text generator for a one-sentence description.

Falls back to a fixed message when no API key is configured or the
request fails.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, err := openAuthedApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			text := app.Insight.GenerateDescription(ctx, args[0], category)
			return newFormatter(rootOpts, cmd).Success(map[string]string{"description": text}, text)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "product category")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}
