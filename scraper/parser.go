package scraper

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"movie-pulse/storage"
)

// RawListing is one item of a listing page, as scraped. Transient; merged
// into a canonical record before anything is persisted.
type RawListing struct {
	Title        string
	Slug         string
	URL          string
	ThumbnailURL string
	Quality      string
	Meta         string
	Rating       float64
}

// RawDetail is the scraped content of one detail page.
type RawDetail struct {
	Description  string
	Genres       []string
	Year         int
	Actors       []string
	Directors    []string
	Country      string
	Duration     string
	PlaybackURL  string
	Episodes     []storage.Episode
	VideoSources []storage.VideoSource
}

var (
	sourcesPattern = regexp.MustCompile(`(?s)sources:\s*(\[.*?\])`)
	digitsPattern  = regexp.MustCompile(`\d+`)
)

// PageParser turns raw catalog markup into structured records. It performs
// no I/O; every parse is best effort, with numeric fields falling back to
// defaults instead of failing the page.
type PageParser struct {
	log zerolog.Logger
}

func NewPageParser(logger zerolog.Logger) *PageParser {
	return &PageParser{log: logger.With().Str("component", "parser").Logger()}
}

// ParseListingPage extracts one RawListing per visible item. Items missing
// a title or an item URL carry no stable identity and are dropped.
func (p *PageParser) ParseListingPage(html []byte, baseURL string) ([]RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	var listings []RawListing
	doc.Find(".film-item").Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find(".film-title").First().Text())
		href, _ := sel.Find("a").First().Attr("href")
		if title == "" || href == "" {
			return
		}

		thumbnail, _ := sel.Find("img").First().Attr("src")
		itemURL := absoluteURL(baseURL, href)

		listings = append(listings, RawListing{
			Title:        title,
			Slug:         slugFromURL(itemURL),
			URL:          itemURL,
			ThumbnailURL: absoluteURL(baseURL, thumbnail),
			Quality:      strings.TrimSpace(sel.Find(".film-quality").First().Text()),
			Meta:         strings.TrimSpace(sel.Find(".film-meta").First().Text()),
			Rating:       parseRating(sel.Find(".film-rating").First().Text()),
		})
	})

	return listings, nil
}

// ParseDetailPage extracts the detail record for one item. Fields that fail
// to parse get defaults; a script block whose video-source literal does not
// decode is skipped and extraction continues with the remaining blocks.
func (p *PageParser) ParseDetailPage(html []byte) (RawDetail, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return RawDetail{}, err
	}

	detail := RawDetail{
		Description: strings.TrimSpace(doc.Find(".film-description").First().Text()),
		Year:        parseYear(doc.Find(".film-info .year").First().Text()),
		Country:     strings.TrimSpace(doc.Find(".film-info .country").First().Text()),
		Duration:    strings.TrimSpace(doc.Find(".film-info .duration").First().Text()),
	}

	doc.Find(".film-info .genres a").Each(func(_ int, sel *goquery.Selection) {
		if g := strings.TrimSpace(sel.Text()); g != "" {
			detail.Genres = append(detail.Genres, g)
		}
	})
	doc.Find(".film-info .actors a").Each(func(_ int, sel *goquery.Selection) {
		if a := strings.TrimSpace(sel.Text()); a != "" {
			detail.Actors = append(detail.Actors, a)
		}
	})
	doc.Find(".film-info .directors a").Each(func(_ int, sel *goquery.Selection) {
		if d := strings.TrimSpace(sel.Text()); d != "" {
			detail.Directors = append(detail.Directors, d)
		}
	})

	if src, ok := doc.Find(".film-player iframe").First().Attr("src"); ok {
		detail.PlaybackURL = strings.TrimSpace(src)
	}

	doc.Find(".episodes .episode").Each(func(i int, sel *goquery.Selection) {
		episodeURL, _ := sel.Attr("href")
		episodeTitle, _ := sel.Attr("title")

		number, err := strconv.Atoi(strings.TrimSpace(digitsPattern.FindString(sel.Text())))
		if err != nil || number <= 0 {
			// No parseable episode number on the site; fall back to the
			// 1-based listing position.
			number = i + 1
		}

		detail.Episodes = append(detail.Episodes, storage.Episode{
			Number: number,
			URL:    episodeURL,
			Title:  episodeTitle,
		})
	})

	detail.VideoSources = p.extractVideoSources(doc)

	return detail, nil
}

// extractVideoSources scans embedded script payloads for a sources: [...]
// shaped literal. Blocks that fail to decode are skipped; no decodable
// block at all yields an empty list, never an error.
func (p *PageParser) extractVideoSources(doc *goquery.Document) []storage.VideoSource {
	var sources []storage.VideoSource

	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		match := sourcesPattern.FindStringSubmatch(sel.Text())
		if match == nil {
			return
		}

		var decoded []storage.VideoSource
		if err := json.Unmarshal([]byte(match[1]), &decoded); err != nil {
			p.log.Warn().Err(err).Msg("skipping undecodable video source block")
			return
		}
		sources = append(sources, decoded...)
	})

	return sources
}

func parseRating(text string) float64 {
	rating, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || rating < 0 {
		return 0
	}
	return rating
}

func parseYear(text string) int {
	year, err := strconv.Atoi(digitsPattern.FindString(text))
	if err != nil {
		return time.Now().Year()
	}
	return year
}

func slugFromURL(itemURL string) string {
	trimmed := strings.TrimRight(itemURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

func absoluteURL(baseURL, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http") {
		return ref
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(ref, "/")
}
