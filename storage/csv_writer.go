package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"funda-scraper/models"
)

// CSVWriter exports assembled result tables to a directory.
// It is safe for concurrent use.
type CSVWriter struct {
	mu  sync.Mutex
	dir string
}

// NewCSVWriter creates the output directory if needed.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{dir: dir}, nil
}

// Filename derives the export name for one run:
// houseprice_{date}_{area}_{buy|rent}_{availability}_{links}.csv
func Filename(area, intent, status string, linkCount int) string {
	date := time.Now().Format("20060102")
	return fmt.Sprintf("houseprice_%s_%s_%s_%s_%d.csv", date, area, intent, status, linkCount)
}

// WriteTable writes the table (header plus every row) to name inside the
// output directory and returns the full path.
func (c *CSVWriter) WriteTable(table *models.ResultTable, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := filepath.Join(c.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Columns); err != nil {
		return "", fmt.Errorf("csv: write header: %w", err)
	}
	for _, row := range table.Rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("csv: flush: %w", err)
	}
	return path, nil
}
