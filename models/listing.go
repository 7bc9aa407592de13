package models

import "time"

// NA is the placeholder value for a field whose selector matched nothing.
const NA = "na"

// ScrapeResult is the tagged outcome of one detail-page task: either a
// populated record or a failure carrying the originating link and cause.
type ScrapeResult struct {
	Link   string
	Values map[string]string
	Photos []string
	Err    error
}

// Failed reports whether the task produced no record.
func (r *ScrapeResult) Failed() bool {
	return r.Err != nil
}

// ResultTable is the raw tabular output of one run. Every row carries a
// value for every column.
type ResultTable struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex maps each column name to its position.
func (t *ResultTable) ColumnIndex() map[string]int {
	idx := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		idx[c] = i
	}
	return idx
}

// Listing is the cleaned, typed record ready for PostgreSQL storage.
type Listing struct {
	ID          int64
	URL         string
	City        string
	Address     string
	PostalCode  string
	Price       float64
	LivingArea  int
	PlotSize    int
	Rooms       int
	Bathrooms   int
	EnergyLabel string
	ListedSince string
	LogID       string
	CreatedAt   time.Time
}

// InsightReport holds the computed summary over the cleaned dataset.
type InsightReport struct {
	TotalListings  int
	AveragePrice   float64
	MinPrice       float64
	MaxPrice       float64
	MostExpensive  *Listing
	ListingsByCity map[string]int
}
