package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aovlift/aovlift/internal/engine"
	"github.com/aovlift/aovlift/internal/loader"
	"github.com/aovlift/aovlift/internal/logger"
	"github.com/aovlift/aovlift/internal/models"
	"github.com/aovlift/aovlift/internal/output"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "aovlift",
	Short: "Order value analytics for e-commerce stores",
	Long:  `aovlift analyzes a store's historical orders: it clusters orders into value bands, finds products frequently purchased together, and produces ranked, evidence-backed opportunities for raising average order value.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		return runAnalysis(cfg)
	},
}

func runAnalysis(cfg *models.Config) error {
	log, err := logger.New()
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := orderSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer source.Close()

	orders, err := source.LoadOrders(ctx, cfg.StartDate, cfg.EndDate)
	if err != nil {
		return fmt.Errorf("error loading orders: %w", err)
	}
	log.Infof("loaded %d orders", len(orders))

	analyzer := engine.NewAnalyzer(cfg, log)
	result, err := analyzer.Run(ctx, orders)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	dest, err := output.ForConfig(cfg, log)
	if err != nil {
		return fmt.Errorf("error creating output destination: %w", err)
	}

	runID, err := output.NewPublisher(dest).Publish(result)
	if err != nil {
		dest.Close()
		return fmt.Errorf("error publishing analysis result: %w", err)
	}
	if err := dest.Close(); err != nil {
		return fmt.Errorf("error closing output destination: %w", err)
	}

	log.Infof("analysis run %s published", runID)
	return nil
}

func orderSource(ctx context.Context, cfg *models.Config) (loader.OrderSource, error) {
	if cfg.OrdersFile != "" {
		return loader.NewFileSource(cfg.OrdersFile, true), nil
	}
	if cfg.Database.Host != "" {
		return loader.NewPostgresSource(ctx, cfg.Database.ConnString())
	}
	return nil, fmt.Errorf("no order source configured: set orders_file or database settings")
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.json)")

	rootCmd.Flags().String("orders-file", "", "Path to a newline-delimited JSON order snapshot")
	rootCmd.Flags().String("start-date", "", "Start of the analysis period (RFC3339)")
	rootCmd.Flags().String("end-date", time.Now().Format(time.RFC3339), "End of the analysis period (RFC3339)")
	rootCmd.Flags().Float64("min-confidence", models.DefaultMinConfidence, "Minimum confidence for product affinity pairs")
	rootCmd.Flags().Int("cluster-band-count", models.DefaultClusterBandCount, "Number of order value bands")
	rootCmd.Flags().Int("max-affinity-pairs", models.DefaultMaxAffinityPairs, "Maximum number of affinity pairs to keep")
	rootCmd.Flags().Int("min-pair-orders", models.DefaultMinPairOrders, "Minimum co-occurrence count for a pair")
	rootCmd.Flags().Int("affinity-workers", 0, "Worker count for pair counting (0 = NumCPU)")
	rootCmd.Flags().String("output-format", "console", "Output format: console, json or parquet")
	rootCmd.Flags().String("output-path", "", "Output base path for file formats")
	rootCmd.Flags().String("output-folder", "aov_analysis", "Output folder name")
	rootCmd.Flags().Bool("kafka-enabled", false, "Publish analysis records to Kafka")
	rootCmd.Flags().String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	rootCmd.Flags().Bool("postgres-enabled", false, "Persist analysis records to Postgres")

	flagKeys := map[string]string{
		"orders_file":        "orders-file",
		"start_date":         "start-date",
		"end_date":           "end-date",
		"min_confidence":     "min-confidence",
		"cluster_band_count": "cluster-band-count",
		"max_affinity_pairs": "max-affinity-pairs",
		"min_pair_orders":    "min-pair-orders",
		"affinity_workers":   "affinity-workers",
		"output_format":      "output-format",
		"output_path":        "output-path",
		"output_folder":      "output-folder",
		"kafka_enabled":      "kafka-enabled",
		"kafka_broker_list":  "kafka-broker-list",
		"postgres_enabled":   "postgres-enabled",
	}
	for key, flag := range flagKeys {
		viper.BindPFlag(key, rootCmd.Flags().Lookup(flag))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
