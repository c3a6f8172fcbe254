package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aovlift/aovlift/internal/logger"
	"github.com/aovlift/aovlift/internal/models"
)

// Destination receives serialized analysis records keyed by topic.
type Destination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

type ConsoleOutput struct{}

func (c *ConsoleOutput) WriteMessage(topic string, msg []byte) error {
	out := fmt.Sprintf("[%s] %s\n", topic, string(msg))

	_, err := os.Stdout.Write([]byte(out))
	if err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	_ = os.Stdout.Sync()
	return nil
}

func (c *ConsoleOutput) Close() error {
	return nil
}

// JSONOutput appends one JSON record per line to a file per topic.
type JSONOutput struct {
	basePath string
	folder   string
	files    map[string]*os.File
}

func NewJSONOutput(basePath, folder string) *JSONOutput {
	return &JSONOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*os.File),
	}
}

func (j *JSONOutput) WriteMessage(topic string, msg []byte) error {
	file, ok := j.files[topic]
	if !ok {
		fullPath := filepath.Join(j.basePath, j.folder, topic)
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return err
		}
		var err error
		file, err = os.Create(filepath.Join(fullPath, "data.json"))
		if err != nil {
			return err
		}
		j.files[topic] = file
	}

	if _, err := file.Write(msg); err != nil {
		return err
	}
	_, err := file.WriteString("\n")
	return err
}

func (j *JSONOutput) Close() error {
	for _, file := range j.files {
		if err := file.Close(); err != nil {
			return err
		}
	}
	return nil
}

// ForConfig picks the destination the configuration asks for. Postgres and
// Kafka take precedence over file formats; the fallback is the console.
func ForConfig(cfg *models.Config, log *logger.Logger) (Destination, error) {
	if cfg.PostgresEnabled {
		return NewPostgresOutput(cfg.Database)
	}
	if cfg.KafkaEnabled {
		return NewKafkaOutput(cfg.KafkaBrokerList, log)
	}
	if cfg.OutputPath != "" {
		switch cfg.OutputFormat {
		case "parquet":
			return NewParquetOutput(cfg)
		case "json":
			return NewJSONOutput(cfg.OutputPath, cfg.OutputFolder), nil
		case "console", "":
			return &ConsoleOutput{}, nil
		default:
			return nil, fmt.Errorf("unsupported output format: %s", cfg.OutputFormat)
		}
	}
	return &ConsoleOutput{}, nil
}
