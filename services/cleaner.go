package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"funda-scraper/models"
	"funda-scraper/utils"
)

var (
	// intRegexp captures the first bare number in a value
	intRegexp = regexp.MustCompile(`\d+`)
	// areaRegexp captures square-metre figures like "124 m²"
	areaRegexp = regexp.MustCompile(`(\d+)\s*m²`)
	// energyRegexp captures a Dutch energy label, optionally with plusses
	energyRegexp = regexp.MustCompile(`^[A-G]\+*`)
	// postcodeRegexp captures a Dutch postcode embedded in the subtitle
	postcodeRegexp = regexp.MustCompile(`\d{4}\s*[A-Z]{2}`)
)

// Cleaner turns raw table rows into typed, storage-ready listings.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean converts result-table rows into Listing records. Rows without a
// URL or a parseable price are dropped; duplicate URLs are skipped.
func (c *Cleaner) Clean(table *models.ResultTable) []*models.Listing {
	col := table.ColumnIndex()
	seen := make(map[string]struct{})
	result := make([]*models.Listing, 0, len(table.Rows))

	for _, row := range table.Rows {
		url := value(row, col, "url")
		if url == "" || url == models.NA {
			c.logger.Warn("[cleaner] Dropping row without URL")
			continue
		}
		if _, dup := seen[url]; dup {
			c.logger.Debug("[cleaner] Duplicate URL skipped: %s", url)
			continue
		}
		seen[url] = struct{}{}

		price := c.parsePrice(value(row, col, "price"))
		if price == 0 {
			c.logger.Debug("[cleaner] Dropping %s: no parseable price", url)
			continue
		}

		listing := &models.Listing{
			URL:         url,
			City:        value(row, col, "city"),
			Address:     value(row, col, "address"),
			PostalCode:  parsePostcode(value(row, col, "zip_code")),
			Price:       price,
			LivingArea:  parseArea(value(row, col, "living_area")),
			PlotSize:    parseArea(value(row, col, "size")),
			Rooms:       parseCount(value(row, col, "num_of_rooms")),
			Bathrooms:   parseCount(value(row, col, "num_of_bathrooms")),
			EnergyLabel: parseEnergyLabel(value(row, col, "energy_label")),
			ListedSince: value(row, col, "listed_since"),
			LogID:       value(row, col, "log_id"),
			CreatedAt:   time.Now(),
		}
		result = append(result, listing)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(table.Rows), len(result), len(table.Rows)-len(result))
	return result
}

// parsePrice extracts a numeric price from values like "€ 350.000 k.k."
// where the dot is a thousands separator.
func (c *Cleaner) parsePrice(raw string) float64 {
	raw = strings.ReplaceAll(raw, ".", "")
	match := intRegexp.FindString(raw)
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseArea(raw string) int {
	raw = strings.ReplaceAll(raw, ".", "")
	m := areaRegexp.FindStringSubmatch(raw)
	if len(m) < 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func parseCount(raw string) int {
	m := intRegexp.FindString(raw)
	if m == "" {
		return 0
	}
	n, _ := strconv.Atoi(m)
	return n
}

func parseEnergyLabel(raw string) string {
	return energyRegexp.FindString(strings.TrimSpace(raw))
}

func parsePostcode(raw string) string {
	return postcodeRegexp.FindString(raw)
}

func value(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
