package loader

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/aovlift/aovlift/internal/models"
)

// FileSource reads a newline-delimited JSON order snapshot, one order per
// line. Blank lines are skipped; a malformed line aborts the load with its
// line number.
type FileSource struct {
	path     string
	progress bool
}

func NewFileSource(path string, progress bool) *FileSource {
	return &FileSource{path: path, progress: progress}
}

func (f *FileSource) LoadOrders(ctx context.Context, start, end time.Time) ([]models.Order, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open orders file: %w", err)
	}
	defer file.Close()

	var bar *progressbar.ProgressBar
	if f.progress {
		if info, err := file.Stat(); err == nil {
			bar = progressbar.DefaultBytes(info.Size(), "loading orders")
		}
	}

	var orders []models.Order
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := scanner.Bytes()
		if bar != nil {
			_ = bar.Add(len(line) + 1)
		}
		if len(line) == 0 {
			continue
		}

		var order models.Order
		if err := json.Unmarshal(line, &order); err != nil {
			return nil, fmt.Errorf("failed to parse order on line %d: %w", lineNo, err)
		}
		if inRange(order.CreatedAt, start, end) {
			orders = append(orders, order)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders file: %w", err)
	}
	return orders, nil
}

func (f *FileSource) Close() error {
	return nil
}
