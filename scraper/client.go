package scraper

import (
	"fmt"
	"time"

	"github.com/gocolly/colly"
	"github.com/rs/zerolog"
)

// FetchError wraps a transport failure or non-success status from the
// catalog site. Callers decide the retry policy; the client never retries.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// The catalog site rejects clients without a browser-looking identity, so
// every request carries this fixed header set.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var defaultHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
	"Connection":      "keep-alive",
}

// Fetcher issues one GET and returns the raw body.
type Fetcher interface {
	Get(url string) ([]byte, error)
}

// SourceClient fetches pages from the external catalog site with a fixed
// identity and request timeout.
type SourceClient struct {
	base *colly.Collector
	log  zerolog.Logger
}

func NewSourceClient(timeout time.Duration, logger zerolog.Logger) *SourceClient {
	c := colly.NewCollector(
		colly.UserAgent(defaultUserAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(timeout)

	return &SourceClient{
		base: c,
		log:  logger.With().Str("component", "source_client").Logger(),
	}
}

// Get issues a single GET against the catalog site. A clone of the base
// collector is used per request so response handlers never stack up.
func (c *SourceClient) Get(pageURL string) ([]byte, error) {
	collector := c.base.Clone()

	var body []byte
	statusCode := 0

	collector.OnRequest(func(r *colly.Request) {
		for k, v := range defaultHeaders {
			r.Headers.Set(k, v)
		}
		c.log.Debug().Str("url", r.URL.String()).Msg("visiting")
	})

	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	if err := collector.Visit(pageURL); err != nil {
		return nil, &FetchError{URL: pageURL, StatusCode: statusCode, Err: err}
	}

	return body, nil
}
