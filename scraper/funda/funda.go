package funda

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"funda-scraper/config"
	"funda-scraper/models"
	"funda-scraper/utils"
)

// itemList mirrors the schema.org ItemList block embedded in a
// search-results page.
type itemList struct {
	ItemListElement []struct {
		URL string `json:"url"`
	} `json:"itemListElement"`
}

// Scraper drives the two-phase funda scrape: link discovery across the
// paginated search results, then detail extraction per listing. Both
// phases share the worker pool, the rate limiter and the jitter window.
type Scraper struct {
	cfg     *config.Config
	profile *config.SelectorProfile
	logger  *utils.Logger
	pool    *utils.WorkerPool
	seen    *utils.URLSet
	client  *retryablehttp.Client
	limiter *rate.Limiter
}

// New creates a ready-to-use Scraper.
func New(cfg *config.Config, profile *config.SelectorProfile, logger *utils.Logger) *Scraper {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = time.Duration(cfg.RequestTimeoutSec) * time.Second
	rc.Logger = nil

	limit := rate.Inf
	if cfg.RateLimitPerSecond > 0 {
		limit = rate.Limit(cfg.RateLimitPerSecond)
	}

	return &Scraper{
		cfg:     cfg,
		profile: profile,
		logger:  logger,
		pool:    utils.NewWorkerPool(cfg.MaxConcurrency),
		seen:    utils.NewURLSet(),
		client:  rc,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Run executes both phases and returns the discovered links together with
// the per-link scrape results, index-aligned with the links.
func (s *Scraper) Run(ctx context.Context, query *SearchQuery) ([]string, []*models.ScrapeResult, error) {
	links, err := s.FetchLinks(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	results := s.ScrapeLinks(ctx, query, links)
	return links, results, nil
}

// FetchLinks runs Phase 1: one task per search-results page, each page's
// contribution unioned into a deduplicated link list in first-seen order.
// A failing or empty page is logged and skipped; it never aborts the rest.
func (s *Scraper) FetchLinks(ctx context.Context, query *SearchQuery) ([]string, error) {
	mainURL, err := query.BuildURL(s.profile.BaseURL)
	if err != nil {
		return nil, err
	}
	s.logger.Info("[funda] Phase 1: main URL: %s", mainURL)

	var (
		mu    sync.Mutex
		links []string
	)

	for page := query.PageStart; page < query.PageStart+query.NPages; page++ {
		p := page
		pageURL := query.PageURL(mainURL, p)
		s.pool.Submit(func() {
			found, err := s.linksFromOnePage(ctx, pageURL)
			if err != nil {
				s.logger.Error("[funda] Page %d failed: %v", p, err)
				return
			}
			if len(found) == 0 {
				s.logger.Warn("[funda] Page %d yielded no listings", p)
				return
			}

			mu.Lock()
			for _, l := range found {
				if s.seen.Add(l) {
					links = append(links, l)
				}
			}
			mu.Unlock()
		})
	}
	s.pool.Wait()

	s.logger.Info("[funda] Phase 1 done: %d unique listings from pages %d to %d",
		len(links), query.PageStart, query.PageStart+query.NPages-1)
	return links, nil
}

// linksFromOnePage reads the listing URLs out of the structured-data block
// of one search-results page. A missing or malformed block counts as zero
// links, not as a failure.
func (s *Scraper) linksFromOnePage(ctx context.Context, url string) ([]string, error) {
	doc, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	script := doc.Find(`script[type="application/ld+json"]`).First()
	if script.Length() == 0 {
		s.logger.Warn("[funda] No structured-data block in %s", url)
		return nil, nil
	}

	var list itemList
	if err := json.Unmarshal([]byte(script.Text()), &list); err != nil {
		s.logger.Warn("[funda] Malformed structured data in %s: %v", url, err)
		return nil, nil
	}

	urls := make([]string, 0, len(list.ItemListElement))
	for _, item := range list.ItemListElement {
		if item.URL != "" {
			urls = append(urls, item.URL)
		}
	}
	return urls, nil
}

// ScrapeLinks runs Phase 2: one task per listing link. The returned slice
// is index-aligned with links, so downstream tables preserve discovery
// order regardless of completion order.
func (s *Scraper) ScrapeLinks(ctx context.Context, query *SearchQuery, links []string) []*models.ScrapeResult {
	s.logger.Info("[funda] Phase 2: scraping %d listings", len(links))

	toBuy, _ := query.ToBuy() // validated before Phase 1 ran

	results := make([]*models.ScrapeResult, len(links))
	for i, link := range links {
		i, link := i, link
		s.pool.Submit(func() {
			results[i] = s.scrapeOneLink(ctx, query, toBuy, link)
		})
	}
	s.pool.Wait()

	var failed int
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	s.logger.Info("[funda] Phase 2 done: %d scraped, %d failed", len(results)-failed, failed)
	return results
}

// scrapeOneLink extracts every configured field from one listing page.
// Fetch and parse failures tag the result; a missing field only yields the
// sentinel for that field.
func (s *Scraper) scrapeOneLink(ctx context.Context, query *SearchQuery, toBuy bool, link string) *models.ScrapeResult {
	doc, err := s.fetch(ctx, link)
	if err != nil {
		s.logger.Error("[funda] Scraping %s failed: %v", link, err)
		return &models.ScrapeResult{Link: link, Err: err}
	}

	values := make(map[string]string, len(s.profile.Fields))
	for _, f := range s.profile.Fields {
		switch f.Name {
		case config.FieldListedSince:
			values[f.Name] = s.extractListedSince(doc, toBuy, query.FindPast)
		case config.FieldLastAskPriceM2:
			values[f.Name] = extractFirstLine(doc, f.Selector)
		default:
			values[f.Name] = extractValue(doc, f.Selector)
		}
	}

	return &models.ScrapeResult{
		Link:   link,
		Values: values,
		Photos: extractPhotos(doc, s.profile.Photo),
	}
}

// extractListedSince applies the variant selector for the current intent
// and availability mode, falling back to the positional probe when the
// primary value does not read as a date.
func (s *Scraper) extractListedSince(doc *goquery.Document, toBuy, findPast bool) string {
	v := extractValue(doc, s.listedSinceSelector(toBuy, findPast))
	if recogniseDate(v) != models.NA {
		return v
	}
	return probeListedSince(doc, s.profile.ListedSinceFallback)
}

func (s *Scraper) listedSinceSelector(toBuy, findPast bool) string {
	ls := s.profile.ListedSince
	switch {
	case toBuy && findPast:
		return ls.BuyPast
	case toBuy:
		return ls.BuyCurrent
	case findPast:
		return ls.RentPast
	default:
		return ls.RentCurrent
	}
}

// fetch performs one rate-limited GET with the profile headers and parses
// the response body. The jitter delay applies after every successful
// request, search and detail pages alike.
func (s *Scraper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range s.profile.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	s.jitter()
	return doc, nil
}

// jitter sleeps a random duration inside the configured window to spread
// out request bursts.
func (s *Scraper) jitter() {
	min, max := s.cfg.DelayMinMs, s.cfg.DelayMaxMs
	if max <= min {
		return
	}
	time.Sleep(time.Duration(min+rand.Intn(max-min)) * time.Millisecond)
}
