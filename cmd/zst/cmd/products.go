package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/zara-stock-tracker/internal/api/client"
)

func productsCmd() *cobra.Command {
	productsRoot := &cobra.Command{
		Use:   "products",
		Short: "Manage tracked products",
		Long: "Manage the products being monitored. Each tracked product pairs a Zara\n" +
			"product key with a target size and region; the scheduler polls every\n" +
			"enabled product each cycle.",
	}

	productsRoot.AddCommand(
		productsListCmd(),
		productsGetCmd(),
		productsAddCmd(),
		productsEnableCmd(),
		productsDisableCmd(),
		productsDeleteCmd(),
		productsStockCmd(),
		productsHistoryCmd(),
	)

	return productsRoot
}

func productsListCmd() *cobra.Command {
	var enabledOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked products",
		Example: `  zst products list
  zst products list --enabled
  zst products list --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			items, err := c.ListProducts(context.Background(), enabledOnly)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(items)
			}
			if len(items) == 0 {
				fmt.Println("No tracked products found.")
				return nil
			}
			return printProductTable(items)
		},
	}
	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "only show enabled products")

	return cmd
}

func productsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show tracked product details",
		Example: `  zst products get abc123
  zst products get abc123 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			item, err := c.GetProduct(context.Background(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(item)
			}
			return printProductDetail(item)
		},
	}
}

func productsAddCmd() *cobra.Command {
	var (
		productKey string
		targetSize string
		name       string
		country    string
		lang       string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Track a new product",
		Long: "Register a product/size pair for tracking. The product key is the\n" +
			"colorized variant id from the Zara product page URL. The product is\n" +
			"enabled by default and polled from the next cycle onward.",
		Example: `  # Track size M of a product in the default region
  zst products add --product 442792327 --size M --name "Wool coat"

  # Track a product in a specific storefront
  zst products add --product 442792327 --size L --country es --lang es`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if productKey == "" || targetSize == "" {
				return fmt.Errorf("--product and --size are required")
			}
			req := apiclient.CreateProductRequest{
				ProductKey: productKey,
				TargetSize: targetSize,
				Name:       name,
				Country:    country,
				Lang:       lang,
			}
			c := newClient()
			created, err := c.CreateProduct(context.Background(), req)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(created)
			}
			fmt.Printf("Product tracked: %s size %s (%s)\n",
				created.ProductKey, created.TargetSize, created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&productKey, "product", "", "Zara product key")
	cmd.Flags().StringVar(&targetSize, "size", "", "target size label (e.g. M)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&country, "country", "", "storefront country code")
	cmd.Flags().StringVar(&lang, "lang", "", "storefront language code")

	return cmd
}

func productsEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "enable <id>",
		Short:   "Enable polling for a product",
		Example: `  zst products enable abc123`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runProductSetEnabled(args[0], true)
		},
	}
}

func productsDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "disable <id>",
		Short:   "Disable polling for a product",
		Example: `  zst products disable abc123`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runProductSetEnabled(args[0], false)
		},
	}
}

func runProductSetEnabled(id string, enabled bool) error {
	c := newClient()
	if err := c.SetProductEnabled(context.Background(), id, enabled); err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("Product %s %s.\n", id, state)
	return nil
}

func productsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Short:   "Stop tracking a product",
		Long:    "Delete a tracked product along with its stock snapshot and price history.",
		Example: `  zst products delete abc123`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			if err := c.DeleteProduct(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Product %s deleted.\n", args[0])
			return nil
		},
	}
}

func productsStockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stock <id>",
		Short: "Show the current stock snapshot",
		Example: `  zst products stock abc123
  zst products stock abc123 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			snap, err := c.GetStock(context.Background(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(snap)
			}
			return printSnapshot(snap)
		},
	}
}

func productsHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show recorded price changes",
		Example: `  zst products history abc123
  zst products history abc123 --limit 10 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			points, err := c.GetPriceHistory(context.Background(), args[0], limit)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(points)
			}
			if len(points) == 0 {
				fmt.Println("No price history recorded.")
				return nil
			}
			return printPriceHistoryTable(points)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries to return (0 = server default)")

	return cmd
}
