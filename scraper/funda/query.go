package funda

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Configuration errors surface synchronously before any request is made.
var (
	ErrInvalidWantTo     = errors.New("want-to must resolve to buy or rent")
	ErrDaysSinceWithPast = errors.New("days-since can only be set when find-past is off")
	ErrInvalidDaysSince  = errors.New("days-since must be one of 1, 3, 5, 10 or 30")
)

var allowedDaysSince = map[int]struct{}{1: {}, 3: {}, 5: {}, 10: {}, 30: {}}

// SearchQuery defines the scope of one scraping run. A zero MinPrice,
// MaxPrice or DaysSince means unset.
type SearchQuery struct {
	Area         string
	WantTo       string
	PropertyType string
	FindPast     bool
	PageStart    int
	NPages       int
	MinPrice     int
	MaxPrice     int
	DaysSince    int
}

// NewSearchQuery builds a normalised query for the given area and intent.
func NewSearchQuery(area, wantTo string) *SearchQuery {
	q := &SearchQuery{Area: area, WantTo: wantTo, PageStart: 1, NPages: 1}
	q.Normalise()
	return q
}

// Normalise lowercases the area, replaces spaces with hyphens and clamps
// the page range to valid values.
func (q *SearchQuery) Normalise() {
	q.Area = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(q.Area)), " ", "-")
	if q.PageStart < 1 {
		q.PageStart = 1
	}
	if q.NPages < 1 {
		q.NPages = 1
	}
}

// QueryUpdate patches a SearchQuery: nil fields leave the current value
// untouched.
type QueryUpdate struct {
	Area         *string
	WantTo       *string
	PropertyType *string
	FindPast     *bool
	PageStart    *int
	NPages       *int
	MinPrice     *int
	MaxPrice     *int
	DaysSince    *int
}

// Reset overwrites only the supplied fields and renormalises the query.
func (q *SearchQuery) Reset(u QueryUpdate) {
	if u.Area != nil {
		q.Area = *u.Area
	}
	if u.WantTo != nil {
		q.WantTo = *u.WantTo
	}
	if u.PropertyType != nil {
		q.PropertyType = *u.PropertyType
	}
	if u.FindPast != nil {
		q.FindPast = *u.FindPast
	}
	if u.PageStart != nil {
		q.PageStart = *u.PageStart
	}
	if u.NPages != nil {
		q.NPages = *u.NPages
	}
	if u.MinPrice != nil {
		q.MinPrice = *u.MinPrice
	}
	if u.MaxPrice != nil {
		q.MaxPrice = *u.MaxPrice
	}
	if u.DaysSince != nil {
		q.DaysSince = *u.DaysSince
	}
	q.Normalise()
}

// ToBuy resolves the transaction intent. Dutch and single-letter aliases
// are accepted.
func (q *SearchQuery) ToBuy() (bool, error) {
	switch strings.ToLower(strings.TrimSpace(q.WantTo)) {
	case "buy", "koop", "b", "k":
		return true, nil
	case "rent", "huur", "r", "h":
		return false, nil
	}
	return false, fmt.Errorf("%w: got %q", ErrInvalidWantTo, q.WantTo)
}

func (q *SearchQuery) checkDaysSince() error {
	if q.DaysSince == 0 {
		return nil
	}
	if q.FindPast {
		return ErrDaysSinceWithPast
	}
	if _, ok := allowedDaysSince[q.DaysSince]; !ok {
		return fmt.Errorf("%w: got %d", ErrInvalidDaysSince, q.DaysSince)
	}
	return nil
}

// Validate runs every pre-flight configuration check.
func (q *SearchQuery) Validate() error {
	if _, err := q.ToBuy(); err != nil {
		return err
	}
	return q.checkDaysSince()
}

// IntentLabel returns "buy" or "rent", or "" for an unresolvable intent.
func (q *SearchQuery) IntentLabel() string {
	toBuy, err := q.ToBuy()
	if err != nil {
		return ""
	}
	if toBuy {
		return "buy"
	}
	return "rent"
}

// AvailabilityStatus names the availability mode for artifact naming.
func (q *SearchQuery) AvailabilityStatus() string {
	if q.FindPast {
		return "unavailable"
	}
	return "available"
}

// BuildURL composes the search-results URL. The optional clauses are
// appended in a fixed order; the percent-encoded brackets and quotes are
// literal tokens of the target's URL scheme.
func (q *SearchQuery) BuildURL(baseURL string) (string, error) {
	toBuy, err := q.ToBuy()
	if err != nil {
		return "", err
	}
	if err := q.checkDaysSince(); err != nil {
		return "", err
	}

	segment := "huur"
	if toBuy {
		segment = "koop"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s/zoeken/%s?selected_area=%%5B%%22%s%%22%%5D", baseURL, segment, q.Area)

	if q.PropertyType != "" {
		types := strings.Split(q.PropertyType, ",")
		for i, t := range types {
			types[i] = "%22" + strings.TrimSpace(t) + "%22"
		}
		fmt.Fprintf(&b, "&object_type=%%5B%s%%5D", strings.Join(types, ","))
	}

	if q.FindPast {
		b.WriteString("&availability=%22unavailable%22")
	}

	if q.MinPrice > 0 || q.MaxPrice > 0 {
		min, max := "", ""
		if q.MinPrice > 0 {
			min = strconv.Itoa(q.MinPrice)
		}
		if q.MaxPrice > 0 {
			max = strconv.Itoa(q.MaxPrice)
		}
		fmt.Fprintf(&b, "&price=%%22%s-%s%%22", min, max)
	}

	if q.DaysSince > 0 {
		fmt.Fprintf(&b, "&publication_date=%d", q.DaysSince)
	}

	return b.String(), nil
}

// PageURL appends the page index parameter to the main query URL.
func (q *SearchQuery) PageURL(mainURL string, page int) string {
	return fmt.Sprintf("%s&search_result=%d", mainURL, page)
}
