package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"funda-scraper/models"
	"funda-scraper/utils"
)

// PostgresWriter persists cleaned listings to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id           SERIAL PRIMARY KEY,
			url          TEXT          UNIQUE NOT NULL,
			city         TEXT          NOT NULL DEFAULT '',
			address      TEXT          NOT NULL DEFAULT '',
			postal_code  VARCHAR(10)   NOT NULL DEFAULT '',
			price        NUMERIC(12,2) NOT NULL DEFAULT 0,
			living_area  INT           NOT NULL DEFAULT 0,
			plot_size    INT           NOT NULL DEFAULT 0,
			rooms        INT           NOT NULL DEFAULT 0,
			bathrooms    INT           NOT NULL DEFAULT 0,
			energy_label VARCHAR(8)    NOT NULL DEFAULT '',
			listed_since TEXT          NOT NULL DEFAULT '',
			log_id       VARCHAR(20)   NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_city   ON listings(city);
		CREATE INDEX IF NOT EXISTS idx_listings_price  ON listings(price);
		CREATE INDEX IF NOT EXISTS idx_listings_log_id ON listings(log_id);
	`)
	return err
}

// Write batch-inserts cleaned listings. Already-known URLs are left as is,
// so repeated runs accumulate history without clobbering earlier batches.
func (pw *PostgresWriter) Write(listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := pw.insertBatch(listings[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.Listing) error {
	const cols = 12
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			l.URL, l.City, l.Address, l.PostalCode, l.Price,
			l.LivingArea, l.PlotSize, l.Rooms, l.Bathrooms,
			l.EnergyLabel, l.ListedSince, l.LogID)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (url, city, address, postal_code, price,
			living_area, plot_size, rooms, bathrooms,
			energy_label, listed_since, log_id)
		VALUES %s
		ON CONFLICT (url) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

// Close releases the database connection.
func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
