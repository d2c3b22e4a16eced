package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/zara-stock-tracker/internal/config"
	"github.com/donaldgifford/zara-stock-tracker/internal/store"
	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// productsCmd works against the database directly, without the server:
// seeding items before the first serve, or maintenance while it is down.
var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Manage tracked products in the database directly",
}

func init() {
	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsAddCmd())
	productsCmd.AddCommand(productsEnableCmd)
	productsCmd.AddCommand(productsDisableCmd)
	productsCmd.AddCommand(productsDeleteCmd)
	rootCmd.AddCommand(productsCmd)
}

func openStore() (*store.SQLiteStore, *config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return st, cfg, nil
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked products",
	RunE: func(_ *cobra.Command, _ []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		items, err := st.ListItems(context.Background(), false)
		if err != nil {
			return fmt.Errorf("listing items: %w", err)
		}
		if len(items) == 0 {
			fmt.Println("No tracked products.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tPRODUCT\tSIZE\tNAME\tENABLED\tSTATUS\tLAST CHECKED")
		for i := range items {
			it := &items[i]
			checked := "-"
			if !it.LastCheckedAt.IsZero() {
				checked = it.LastCheckedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\t%s\n",
				it.ID, it.ProductKey, it.TargetSize, it.Name, it.Enabled, it.Status, checked)
		}
		return tw.Flush()
	},
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
		Long: "Adds a product straight to the database, without validating it " +
			"upstream. The first poll cycle establishes its baseline snapshot.",
		RunE: func(_ *cobra.Command, _ []string) error {
			st, cfg, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if country == "" {
				country = cfg.Zara.Country
			}
			if lang == "" {
				lang = cfg.Zara.Lang
			}
			if !domain.SupportedRegion(country, lang) {
				return fmt.Errorf("unsupported region: %s/%s", country, lang)
			}

			item := &domain.TrackedItem{
				ProductKey: productKey,
				Name:       name,
				Country:    country,
				Lang:       lang,
				TargetSize: targetSize,
				Enabled:    true,
			}
			if err := st.CreateItem(context.Background(), item); err != nil {
				return fmt.Errorf("creating item: %w", err)
			}

			fmt.Printf("Product %s added (id %s).\n", item.ProductKey, item.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&productKey, "product", "", "Zara product/color variant id")
	cmd.Flags().StringVar(&targetSize, "size", "", "size label to watch, e.g. M")
	cmd.Flags().StringVar(&name, "name", "", "optional display name")
	cmd.Flags().StringVar(&country, "country", "", "storefront country (default from config)")
	cmd.Flags().StringVar(&lang, "lang", "", "storefront language (default from config)")
	cobra.CheckErr(cmd.MarkFlagRequired("product"))
	cobra.CheckErr(cmd.MarkFlagRequired("size"))
	return cmd
}

var productsEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Resume polling a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return setEnabled(args[0], true)
	},
}

var productsDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Pause polling a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return setEnabled(args[0], false)
	},
}

func setEnabled(id string, enabled bool) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SetItemEnabled(context.Background(), id, enabled); err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("Product %s %s.\n", id, state)
	return nil
}

var productsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Stop tracking a product",
	Long:    "Deletes a tracked product along with its stock snapshot and price history.",
	Args:    cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteItem(context.Background(), args[0]); err != nil {
			return fmt.Errorf("deleting item: %w", err)
		}
		fmt.Printf("Product %s deleted.\n", args[0])
		return nil
	},
}
