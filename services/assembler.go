package services

import (
	"strings"
	"time"

	"funda-scraper/config"
	"funda-scraper/models"
	"funda-scraper/utils"
)

// Columns only present for historical (sold/unavailable) listings.
var historicalOnly = map[string]struct{}{
	config.FieldDateSold:  {},
	config.FieldTerm:      {},
	config.FieldPriceSold: {},
}

// Assembler merges per-listing scrape results into one table with a fixed
// column schema.
type Assembler struct {
	profile *config.SelectorProfile
	logger  *utils.Logger
}

// NewAssembler creates an Assembler bound to a selector profile.
func NewAssembler(profile *config.SelectorProfile, logger *utils.Logger) *Assembler {
	return &Assembler{profile: profile, logger: logger}
}

// Assemble builds the result table: the url column, the field schema in
// profile order (minus the historical-only columns unless findPast), then
// the derived city, the shared batch id, and the comma-joined photo list.
// Failed results are dropped, so every emitted row has the full column set.
func (a *Assembler) Assemble(results []*models.ScrapeResult, findPast bool) *models.ResultTable {
	logID := time.Now().Format("200601-0215-0405")

	fields := make([]config.Field, 0, len(a.profile.Fields))
	for _, f := range a.profile.Fields {
		if _, hist := historicalOnly[f.Name]; hist && !findPast {
			continue
		}
		fields = append(fields, f)
	}

	columns := make([]string, 0, len(fields)+4)
	columns = append(columns, "url")
	for _, f := range fields {
		columns = append(columns, f.Name)
	}
	columns = append(columns, "city", "log_id", "photos")

	table := &models.ResultTable{Columns: columns}
	var dropped int
	for _, r := range results {
		if r == nil || r.Failed() {
			dropped++
			continue
		}

		row := make([]string, 0, len(columns))
		row = append(row, r.Link)
		for _, f := range fields {
			v, ok := r.Values[f.Name]
			if !ok {
				v = models.NA
			}
			row = append(row, v)
		}
		row = append(row, cityFromLink(r.Link), logID, strings.Join(r.Photos, ", "))
		table.Rows = append(table.Rows, row)
	}

	if dropped > 0 {
		a.logger.Warn("[assembler] Dropped %d failed listings", dropped)
	}
	a.logger.Info("[assembler] Assembled %d rows × %d columns", len(table.Rows), len(columns))
	return table
}

// cityFromLink reads the city segment of a listing URL,
// e.g. https://www.funda.nl/koop/amsterdam/huis-1234/ yields "amsterdam".
func cityFromLink(link string) string {
	parts := strings.Split(link, "/")
	if len(parts) > 4 && parts[4] != "" {
		return parts[4]
	}
	return models.NA
}
