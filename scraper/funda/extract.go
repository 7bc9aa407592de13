package funda

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"funda-scraper/models"
)

// Indices probed for the listed-since field when its primary selector
// misses. The surrounding markup shifts the field around within this range.
const (
	listedSinceProbeStart = 6
	listedSinceProbeEnd   = 15
)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{1,2} (januari|februari|maart|april|mei|juni|juli|augustus|september|oktober|november|december) \d{4}$`),
	regexp.MustCompile(`^\d+\+? (dag|dagen|week|weken|maand|maanden) geleden$`),
	regexp.MustCompile(`^(Vandaag|Gisteren|Eergisteren)$`),
}

// extractValue returns the normalised text of the first element matched by
// selector, or the "na" sentinel when nothing matches.
func extractValue(doc *goquery.Document, selector string) string {
	raw, ok := rawValue(doc, selector)
	if !ok {
		return models.NA
	}
	return normaliseText(raw)
}

// extractFirstLine is extractValue cut at the first line break. Some value
// cells append unrelated text on a second line; note the HTML tokenizer
// already folds \r and \r\n into \n.
func extractFirstLine(doc *goquery.Document, selector string) string {
	raw, ok := rawValue(doc, selector)
	if !ok {
		return models.NA
	}
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, "\r\n"); i >= 0 {
		raw = raw[:i]
	}
	return normaliseText(raw)
}

func rawValue(doc *goquery.Document, selector string) (string, bool) {
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return "", false
	}
	return sel.First().Text(), true
}

// normaliseText removes embedded newlines and carriage returns and trims
// surrounding whitespace.
func normaliseText(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.TrimSpace(s)
}

// recogniseDate returns the value when it reads as a listing date, either
// absolute ("24 juni 2023") or relative ("3 weken geleden", "Vandaag").
// Anything else collapses to the sentinel.
func recogniseDate(v string) string {
	v = strings.TrimSpace(v)
	for _, p := range datePatterns {
		if p.MatchString(v) {
			return v
		}
	}
	return models.NA
}

// probeListedSince walks the fallback selectors in ascending index order
// and returns the first value that reads as a date, or the sentinel when
// every probe misses.
func probeListedSince(doc *goquery.Document, template string) string {
	for i := listedSinceProbeStart; i <= listedSinceProbeEnd; i++ {
		v := extractValue(doc, fmt.Sprintf(template, i))
		if recogniseDate(v) != models.NA {
			return v
		}
	}
	return models.NA
}

// extractPhotos collects the lazy-load source of every element matched by
// the photo selector, in document order.
func extractPhotos(doc *goquery.Document, selector string) []string {
	var photos []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("data-lazy-srcset"); ok {
			photos = append(photos, strings.TrimSpace(src))
		}
	})
	return photos
}
