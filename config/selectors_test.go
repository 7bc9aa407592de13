package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testProfileYAML = `
base_url: https://www.example.nl
headers:
  User-Agent: test-agent
listed_since:
  buy_current: "#bc"
  buy_past: "#bp"
  rent_current: "#rc"
  rent_past: "#rp"
listed_since_fallback: ".row:nth-child(%d) span"
photo: ".photo img"
fields:
  - price: ".price"
  - address: ".address"
  - listed_since: "#bc"
  - zip_code: ".zip"
`

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write test profile: %v", err)
	}
	return path
}

func TestLoadSelectorsPreservesFieldOrder(t *testing.T) {
	p, err := LoadSelectors(writeProfile(t, testProfileYAML))
	if err != nil {
		t.Fatalf("LoadSelectors: %v", err)
	}

	want := []string{"price", "address", "listed_since", "zip_code"}
	if len(p.Fields) != len(want) {
		t.Fatalf("got %d fields, want %d", len(p.Fields), len(want))
	}
	for i, name := range want {
		if p.Fields[i].Name != name {
			t.Errorf("field %d: got %q, want %q", i, p.Fields[i].Name, name)
		}
	}
	if p.Fields[0].Selector != ".price" {
		t.Errorf("price selector: got %q", p.Fields[0].Selector)
	}
}

func TestLoadSelectorsProfileValues(t *testing.T) {
	p, err := LoadSelectors(writeProfile(t, testProfileYAML))
	if err != nil {
		t.Fatalf("LoadSelectors: %v", err)
	}
	if p.BaseURL != "https://www.example.nl" {
		t.Errorf("BaseURL: got %q", p.BaseURL)
	}
	if p.Headers["User-Agent"] != "test-agent" {
		t.Errorf("User-Agent: got %q", p.Headers["User-Agent"])
	}
	if p.ListedSince.RentPast != "#rp" {
		t.Errorf("ListedSince.RentPast: got %q", p.ListedSince.RentPast)
	}
	if p.ListedSinceFallback != ".row:nth-child(%d) span" {
		t.Errorf("fallback template: got %q", p.ListedSinceFallback)
	}
	if !p.HasField("zip_code") || p.HasField("nope") {
		t.Error("HasField misreports schema membership")
	}
}

func TestLoadSelectorsRejectsMissingUserAgent(t *testing.T) {
	broken := `
base_url: https://www.example.nl
headers:
  Accept: text/html
listed_since:
  buy_current: "#bc"
  buy_past: "#bp"
  rent_current: "#rc"
  rent_past: "#rp"
fields:
  - price: ".price"
`
	if _, err := LoadSelectors(writeProfile(t, broken)); err == nil {
		t.Fatal("expected validation error, got nil")
	}
}

func TestLoadSelectorsRejectsMissingVariant(t *testing.T) {
	broken := `
base_url: https://www.example.nl
headers:
  User-Agent: test
listed_since:
  buy_current: "#bc"
fields:
  - price: ".price"
`
	if _, err := LoadSelectors(writeProfile(t, broken)); err == nil {
		t.Fatal("expected validation error, got nil")
	}
}

func TestLoadSelectorsMissingFile(t *testing.T) {
	if _, err := LoadSelectors("/nonexistent/selectors.yaml"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoadDefaultProfile(t *testing.T) {
	p, err := LoadSelectors("selectors.yaml")
	if err != nil {
		t.Fatalf("LoadSelectors on shipped profile: %v", err)
	}
	if !p.HasField("price") || !p.HasField("last_ask_price_m2") {
		t.Error("shipped profile is missing expected fields")
	}
	if p.Fields[0].Name != "price" {
		t.Errorf("shipped profile first field: got %q, want price", p.Fields[0].Name)
	}
}
