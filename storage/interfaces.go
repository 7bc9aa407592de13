package storage

import "funda-scraper/models"

// TableWriter persists the raw assembled table.
type TableWriter interface {
	WriteTable(table *models.ResultTable, name string) (string, error)
}

// ListingWriter is the interface any cleaned-listing backend must satisfy.
type ListingWriter interface {
	Write(listings []*models.Listing) error
	Close() error
}
