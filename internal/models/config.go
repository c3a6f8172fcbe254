package models

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	DefaultMinConfidence    = 0.3
	DefaultClusterBandCount = 5
	DefaultMaxAffinityPairs = 20
	DefaultMinPairOrders    = 3
)

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	Region     string `mapstructure:"region"`
	BucketName string `mapstructure:"bucket_name"`
}

type Config struct {
	StartDate        time.Time `mapstructure:"start_date"`
	EndDate          time.Time `mapstructure:"end_date"`
	MinConfidence    float64   `mapstructure:"min_confidence"`
	ClusterBandCount int       `mapstructure:"cluster_band_count"`
	MaxAffinityPairs int       `mapstructure:"max_affinity_pairs"`
	MinPairOrders    int       `mapstructure:"min_pair_orders"`
	AffinityWorkers  int       `mapstructure:"affinity_workers"`

	// Input source: a newline-delimited JSON snapshot or a Postgres database.
	OrdersFile string         `mapstructure:"orders_file"`
	Database   DatabaseConfig `mapstructure:"database"`

	// Output settings
	OutputFormat      string             `mapstructure:"output_format"` // console, json, parquet
	OutputPath        string             `mapstructure:"output_path"`
	OutputFolder      string             `mapstructure:"output_folder"`
	OutputDestination string             `mapstructure:"output_destination"` // local, s3
	CloudStorage      CloudStorageConfig `mapstructure:"cloud_storage"`
	KafkaEnabled      bool               `mapstructure:"kafka_enabled"`
	KafkaBrokerList   string             `mapstructure:"kafka_broker_list"`
	PostgresEnabled   bool               `mapstructure:"postgres_enabled"`

	// Seed command settings
	Seed           int     `mapstructure:"seed"`
	SeedOrders     int     `mapstructure:"seed_orders"`
	SeedProducts   int     `mapstructure:"seed_products"`
	SeedBundleBias float64 `mapstructure:"seed_bundle_bias"`
}

// LoadConfig initializes and reads the configuration using Viper
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("examples")
		viper.SetConfigName("config")
		viper.SetConfigType("json")
	}

	viper.AutomaticEnv() // Read in environment variables that match

	viper.SetDefault("min_confidence", DefaultMinConfidence)
	viper.SetDefault("cluster_band_count", DefaultClusterBandCount)
	viper.SetDefault("max_affinity_pairs", DefaultMaxAffinityPairs)
	viper.SetDefault("min_pair_orders", DefaultMinPairOrders)
	viper.SetDefault("output_format", "console")
	viper.SetDefault("output_destination", "local")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		)
	})
	if err := viper.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (cfg *Config) normalize() error {
	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be between 0 and 1, got %v", cfg.MinConfidence)
	}
	if cfg.ClusterBandCount <= 0 {
		cfg.ClusterBandCount = DefaultClusterBandCount
	}
	if cfg.MaxAffinityPairs <= 0 {
		cfg.MaxAffinityPairs = DefaultMaxAffinityPairs
	}
	if cfg.MinPairOrders <= 0 {
		cfg.MinPairOrders = DefaultMinPairOrders
	}
	if !cfg.EndDate.IsZero() && !cfg.StartDate.IsZero() && cfg.EndDate.Before(cfg.StartDate) {
		return fmt.Errorf("end_date %s is before start_date %s",
			cfg.EndDate.Format(time.RFC3339), cfg.StartDate.Format(time.RFC3339))
	}
	return nil
}
