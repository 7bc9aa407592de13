package funda

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"funda-scraper/config"
	"funda-scraper/models"
	"funda-scraper/utils"
)

func testProfile() *config.SelectorProfile {
	return &config.SelectorProfile{
		BaseURL: "https://www.funda.nl",
		Headers: map[string]string{"User-Agent": "test-agent"},
		ListedSince: config.ListedSinceSelectors{
			BuyCurrent:  "#buy-current",
			BuyPast:     "#buy-past",
			RentCurrent: "#rent-current",
			RentPast:    "#rent-past",
		},
		ListedSinceFallback: ".fd-align-items-center:nth-child(%d) span",
		Photo:               ".photo img",
		Fields: []config.Field{
			{Name: "price", Selector: ".price"},
			{Name: "address", Selector: ".address"},
			{Name: "listed_since", Selector: "#rent-current"},
		},
	}
}

func testScraper(baseURL string) *Scraper {
	cfg := &config.Config{MaxConcurrency: 4, MaxRetries: 0, RequestTimeoutSec: 5}
	profile := testProfile()
	profile.BaseURL = baseURL
	return New(cfg, profile, utils.NewLogger(false))
}

// listPage renders a search-results page whose structured-data block lists
// the given urls.
func listPage(urls ...string) string {
	items := ""
	for i, u := range urls {
		if i > 0 {
			items += ","
		}
		items += fmt.Sprintf(`{"url":%q}`, u)
	}
	return fmt.Sprintf(
		`<html><body><script type="application/ld+json">{"itemListElement":[%s]}</script></body></html>`,
		items)
}

func TestFetchLinksDeduplicatesAcrossPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("search_result") {
		case "1":
			fmt.Fprint(w, listPage("https://l.test/a", "https://l.test/b"))
		case "2":
			fmt.Fprint(w, listPage("https://l.test/b", "https://l.test/c"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := testScraper(srv.URL)
	q := NewSearchQuery("amsterdam", "rent")
	q.NPages = 2

	links, err := s.FetchLinks(context.Background(), q)
	if err != nil {
		t.Fatalf("FetchLinks: %v", err)
	}
	if len(links) != 3 {
		t.Fatalf("got %d links, want 3: %v", len(links), links)
	}
	seen := make(map[string]bool)
	for _, l := range links {
		if seen[l] {
			t.Errorf("duplicate link in result: %s", l)
		}
		seen[l] = true
	}
	for _, want := range []string{"https://l.test/a", "https://l.test/b", "https://l.test/c"} {
		if !seen[want] {
			t.Errorf("missing link %s", want)
		}
	}
}

func TestFetchLinksSendsProfileHeaders(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, listPage("https://l.test/a"))
	}))
	defer srv.Close()

	s := testScraper(srv.URL)
	if _, err := s.FetchLinks(context.Background(), NewSearchQuery("amsterdam", "rent")); err != nil {
		t.Fatalf("FetchLinks: %v", err)
	}
	if gotAgent != "test-agent" {
		t.Errorf("User-Agent: got %q, want %q", gotAgent, "test-agent")
	}
}

func TestFetchLinksIsolatesPageFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("search_result") {
		case "1":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "2":
			fmt.Fprint(w, listPage("https://l.test/a", "https://l.test/b"))
		}
	}))
	defer srv.Close()

	s := testScraper(srv.URL)
	q := NewSearchQuery("amsterdam", "rent")
	q.NPages = 2

	links, err := s.FetchLinks(context.Background(), q)
	if err != nil {
		t.Fatalf("FetchLinks should absorb page failures, got %v", err)
	}
	if len(links) != 2 {
		t.Errorf("got %d links, want the 2 from the surviving page", len(links))
	}
}

func TestFetchLinksMissingStructuredData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>no scripts</p></body></html>`)
	}))
	defer srv.Close()

	s := testScraper(srv.URL)
	links, err := s.FetchLinks(context.Background(), NewSearchQuery("amsterdam", "rent"))
	if err != nil {
		t.Fatalf("missing block must not fail the run: %v", err)
	}
	if len(links) != 0 {
		t.Errorf("got %d links, want 0", len(links))
	}
}

func TestFetchLinksMalformedStructuredData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><script type="application/ld+json">{not json</script></body></html>`)
	}))
	defer srv.Close()

	s := testScraper(srv.URL)
	links, err := s.FetchLinks(context.Background(), NewSearchQuery("amsterdam", "rent"))
	if err != nil {
		t.Fatalf("malformed block must not fail the run: %v", err)
	}
	if len(links) != 0 {
		t.Errorf("got %d links, want 0", len(links))
	}
}

func TestFetchLinksInvalidQueryFailsFast(t *testing.T) {
	s := testScraper("http://unused.test")
	q := NewSearchQuery("amsterdam", "lease")
	if _, err := s.FetchLinks(context.Background(), q); err == nil {
		t.Fatal("expected configuration error, got nil")
	}
}

func TestScrapeLinksMissingFieldYieldsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<div class="address">Teststraat 1</div>
			<div id="rent-current">2 weken geleden</div>
			<div class="photo"><img data-lazy-srcset="https://img.test/1.jpg"></div>
		</body></html>`)
	}))
	defer srv.Close()

	s := testScraper(srv.URL)
	q := NewSearchQuery("amsterdam", "rent")
	results := s.ScrapeLinks(context.Background(), q, []string{srv.URL + "/huur/amsterdam/woning-1/"})

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.Failed() {
		t.Fatalf("unexpected failure: %v", r.Err)
	}
	if r.Values["price"] != models.NA {
		t.Errorf("price: got %q, want %q", r.Values["price"], models.NA)
	}
	if r.Values["address"] != "Teststraat 1" {
		t.Errorf("address: got %q, want %q", r.Values["address"], "Teststraat 1")
	}
	if r.Values["listed_since"] != "2 weken geleden" {
		t.Errorf("listed_since: got %q, want %q", r.Values["listed_since"], "2 weken geleden")
	}
	if len(r.Photos) != 1 || r.Photos[0] != "https://img.test/1.jpg" {
		t.Errorf("photos: got %v", r.Photos)
	}
}

func TestScrapeLinksIsolatesFailuresAndKeepsOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/huur/amsterdam/bad-2/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><body><div class="price">€ 1.500 per maand</div></body></html>`)
	}))
	defer srv.Close()

	s := testScraper(srv.URL)
	q := NewSearchQuery("amsterdam", "rent")
	links := []string{
		srv.URL + "/huur/amsterdam/goed-1/",
		srv.URL + "/huur/amsterdam/bad-2/",
		srv.URL + "/huur/amsterdam/goed-3/",
	}
	results := s.ScrapeLinks(context.Background(), q, links)

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, r := range results {
		if r.Link != links[i] {
			t.Errorf("result %d out of order: got %s, want %s", i, r.Link, links[i])
		}
	}
	if !results[1].Failed() {
		t.Error("expected failure marker for the 404 link")
	}
	if results[0].Failed() || results[2].Failed() {
		t.Error("sibling tasks must not fail with the broken one")
	}
	if results[0].Values["price"] != "€ 1.500 per maand" {
		t.Errorf("price: got %q", results[0].Values["price"])
	}
}

func TestScrapeOneLinkListedSinceFallback(t *testing.T) {
	page := `<html><body><div id="rent-current">4 slaapkamers</div><div>`
	for i := 1; i <= 16; i++ {
		v := ""
		if i == 9 {
			v = "3 weken geleden"
		}
		page += fmt.Sprintf(`<div class="fd-align-items-center"><span>%s</span></div>`, v)
	}
	page += `</div></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	s := testScraper(srv.URL)
	q := NewSearchQuery("amsterdam", "rent")
	results := s.ScrapeLinks(context.Background(), q, []string{srv.URL + "/huur/amsterdam/woning-1/"})

	if got := results[0].Values["listed_since"]; got != "3 weken geleden" {
		t.Errorf("listed_since: got %q, want fallback probe value", got)
	}
}
