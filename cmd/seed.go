package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aovlift/aovlift/internal/factories"
)

var seedCmd = &cobra.Command{
	Use:   "seed [output-file]",
	Short: "Generate a synthetic order snapshot",
	Long:  `seed writes a newline-delimited JSON order snapshot with an embedded co-purchase pattern, so a demo analysis run produces non-trivial clusters, affinities and opportunities.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seed := viper.GetInt64("seed")
		orderCount := viper.GetInt("seed_orders")
		productCount := viper.GetInt("seed_products")
		bundleBias := viper.GetFloat64("seed_bundle_bias")

		factory := factories.NewOrderFactory(seed)
		catalog := factory.CreateCatalog(productCount)

		end := time.Now()
		start := end.AddDate(0, -3, 0)
		orders := factory.CreateOrders(catalog, orderCount, bundleBias, start, end)

		file, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()

		bar := progressbar.Default(int64(len(orders)), "writing orders")
		encoder := json.NewEncoder(file)
		for i := range orders {
			if err := encoder.Encode(orders[i]); err != nil {
				return fmt.Errorf("failed to write order %s: %w", orders[i].ID, err)
			}
			_ = bar.Add(1)
		}

		fmt.Fprintf(os.Stderr, "wrote %d orders across %d products to %s\n",
			len(orders), len(catalog), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().Int64("seed", 42, "Random seed for the generator")
	seedCmd.Flags().Int("orders", 500, "Number of orders to generate")
	seedCmd.Flags().Int("products", 30, "Number of catalog products")
	seedCmd.Flags().Float64("bundle-bias", 0.35, "Share of multi-item baskets anchored on a product pair")

	viper.BindPFlag("seed", seedCmd.Flags().Lookup("seed"))
	viper.BindPFlag("seed_orders", seedCmd.Flags().Lookup("orders"))
	viper.BindPFlag("seed_products", seedCmd.Flags().Lookup("products"))
	viper.BindPFlag("seed_bundle_bias", seedCmd.Flags().Lookup("bundle-bias"))
}
