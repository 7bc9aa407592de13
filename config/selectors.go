package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Names of fields the scraper treats specially. Every other field is plain
// first-match text extraction.
const (
	FieldListedSince    = "listed_since"
	FieldLastAskPriceM2 = "last_ask_price_m2"
	FieldDateSold       = "date_sold"
	FieldTerm           = "term"
	FieldPriceSold      = "price_sold"
)

// Field binds one output column name to its CSS selector.
type Field struct {
	Name     string
	Selector string
}

// ListedSinceSelectors holds the four primary selectors for the
// listed-since field, keyed by transaction intent and availability mode.
type ListedSinceSelectors struct {
	BuyCurrent  string `yaml:"buy_current"`
	BuyPast     string `yaml:"buy_past"`
	RentCurrent string `yaml:"rent_current"`
	RentPast    string `yaml:"rent_past"`
}

// SelectorProfile is the externally supplied scraping contract: the target
// base URL, the HTTP headers to send, and the ordered field-to-selector
// schema. It is loaded once and passed into components explicitly.
type SelectorProfile struct {
	BaseURL             string
	Headers             map[string]string
	ListedSince         ListedSinceSelectors
	ListedSinceFallback string
	Photo               string
	Fields              []Field
}

type profileFile struct {
	BaseURL             string               `yaml:"base_url"`
	Headers             map[string]string    `yaml:"headers"`
	ListedSince         ListedSinceSelectors `yaml:"listed_since"`
	ListedSinceFallback string               `yaml:"listed_since_fallback"`
	Photo               string               `yaml:"photo"`
	Fields              []yaml.MapSlice      `yaml:"fields"`
}

// LoadSelectors reads a selector profile from a YAML file. The field order
// in the file defines the output column order.
func LoadSelectors(path string) (*SelectorProfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("selectors: read %q: %w", path, err)
	}

	var pf profileFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("selectors: parse %q: %w", path, err)
	}

	profile := &SelectorProfile{
		BaseURL:             pf.BaseURL,
		Headers:             pf.Headers,
		ListedSince:         pf.ListedSince,
		ListedSinceFallback: pf.ListedSinceFallback,
		Photo:               pf.Photo,
	}

	for _, entry := range pf.Fields {
		for _, item := range entry {
			name, ok := item.Key.(string)
			if !ok {
				return nil, fmt.Errorf("selectors: non-string field name %v", item.Key)
			}
			selector, ok := item.Value.(string)
			if !ok {
				return nil, fmt.Errorf("selectors: field %q has non-string selector", name)
			}
			profile.Fields = append(profile.Fields, Field{Name: name, Selector: selector})
		}
	}

	if err := profile.validate(); err != nil {
		return nil, fmt.Errorf("selectors: %q: %w", path, err)
	}
	return profile, nil
}

func (p *SelectorProfile) validate() error {
	if p.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if len(p.Fields) == 0 {
		return fmt.Errorf("at least one field selector is required")
	}
	if p.Headers["User-Agent"] == "" {
		return fmt.Errorf("headers must include a User-Agent")
	}
	ls := p.ListedSince
	if ls.BuyCurrent == "" || ls.BuyPast == "" || ls.RentCurrent == "" || ls.RentPast == "" {
		return fmt.Errorf("all four listed_since variants are required")
	}
	return nil
}

// HasField reports whether the schema names the given field.
func (p *SelectorProfile) HasField(name string) bool {
	for _, f := range p.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
