package scraper

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the catalog site this scraper understands the page
// structure of.
const DefaultBaseURL = "https://www.rophim.me"

// Catalog is what the sync layer sees of the scraper.
type Catalog interface {
	FetchListingPage(ctx context.Context, page int) ([]RawListing, error)
	FetchDetail(ctx context.Context, itemURL string) (RawDetail, error)
}

// CatalogScraper composes the source client and the page parser: one GET
// plus one parse per call. It never retries; that policy lives one layer up.
type CatalogScraper struct {
	client  Fetcher
	parser  *PageParser
	baseURL string
	log     zerolog.Logger
}

func NewCatalogScraper(client Fetcher, parser *PageParser, baseURL string, logger zerolog.Logger) *CatalogScraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CatalogScraper{
		client:  client,
		parser:  parser,
		baseURL: baseURL,
		log:     logger.With().Str("component", "scraper").Logger(),
	}
}

// FetchListingPage fetches and parses one listing page. Page 1 has no
// suffix; later pages append a page-number segment.
func (s *CatalogScraper) FetchListingPage(ctx context.Context, page int) ([]RawListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	url := s.listingURL(page)
	s.log.Info().Str("url", url).Int("page", page).Msg("fetching listing page")

	body, err := s.client.Get(url)
	if err != nil {
		return nil, err
	}

	listings, err := s.parser.ParseListingPage(body, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing page %d: %w", page, err)
	}

	s.log.Info().Int("page", page).Int("items", len(listings)).Msg("parsed listing page")
	return listings, nil
}

// FetchDetail fetches and parses one detail page.
func (s *CatalogScraper) FetchDetail(ctx context.Context, itemURL string) (RawDetail, error) {
	if err := ctx.Err(); err != nil {
		return RawDetail{}, err
	}

	s.log.Debug().Str("url", itemURL).Msg("fetching detail page")

	body, err := s.client.Get(itemURL)
	if err != nil {
		return RawDetail{}, err
	}

	return s.parser.ParseDetailPage(body)
}

func (s *CatalogScraper) listingURL(page int) string {
	if page > 1 {
		return fmt.Sprintf("%s/phimhay/trang-%d", s.baseURL, page)
	}
	return s.baseURL + "/phimhay"
}
