package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"movie-pulse/scraper"
	"movie-pulse/storage"
)

// Summary reports what one sync run did.
type Summary struct {
	ItemsSeen     int `json:"items_seen"`
	ItemsUpserted int `json:"items_upserted"`
	ItemsFailed   int `json:"items_failed"`
}

// MovieWriter is the single store operation the sync path needs.
type MovieWriter interface {
	UpsertMovieBySourceID(movie storage.Movie) (int64, error)
}

// Config tunes a sync run. Zero values pick the defaults.
type Config struct {
	// ItemDelay paces successive detail fetches so the catalog site is not
	// overwhelmed. Backpressure, not correctness.
	ItemDelay time.Duration
	// ListingRetries is the extra attempts for a page listing fetch before
	// the page is declared failed.
	ListingRetries uint64
	// ListingRetryBase is the first fibonacci backoff step between listing
	// retries.
	ListingRetryBase time.Duration
}

const (
	defaultItemDelay        = time.Second
	defaultListingRetries   = 2
	defaultListingRetryBase = 500 * time.Millisecond
)

// Orchestrator drives one full or partial sync: listing pages in ascending
// order, items within a page in listing order, one canonical upsert per item.
type Orchestrator struct {
	catalog scraper.Catalog
	store   MovieWriter
	cfg     Config
	log     zerolog.Logger
}

func NewOrchestrator(catalog scraper.Catalog, store MovieWriter, cfg Config, logger zerolog.Logger) *Orchestrator {
	if cfg.ItemDelay == 0 {
		cfg.ItemDelay = defaultItemDelay
	}
	if cfg.ListingRetries == 0 {
		cfg.ListingRetries = defaultListingRetries
	}
	if cfg.ListingRetryBase == 0 {
		cfg.ListingRetryBase = defaultListingRetryBase
	}

	return &Orchestrator{
		catalog: catalog,
		store:   store,
		cfg:     cfg,
		log:     logger.With().Str("component", "syncer").Logger(),
	}
}

// RunSync walks pages 1..pageCount sequentially. A single item failing to
// fetch, parse or upsert never aborts the run: the failure is counted and
// logged with enough context to diagnose, and the loop moves on. A page
// whose listing fetch fails (after the retry budget) is recorded in the
// returned error, but later pages are still attempted.
func (o *Orchestrator) RunSync(ctx context.Context, pageCount int) (Summary, error) {
	o.log.Info().Int("pages", pageCount).Msg("starting sync run")
	started := time.Now()

	var summary Summary
	var runErr error

	for page := 1; page <= pageCount; page++ {
		listings, err := o.fetchListing(ctx, page)
		if err != nil {
			o.log.Error().Err(err).Int("page", page).Msg("listing fetch failed, skipping page")
			runErr = multierr.Append(runErr, fmt.Errorf("page %d: %w", page, err))
			continue
		}

		o.log.Info().Int("page", page).Int("items", len(listings)).Msg("syncing page")

		for _, listing := range listings {
			if summary.ItemsSeen > 0 {
				time.Sleep(o.cfg.ItemDelay)
			}
			summary.ItemsSeen++

			detail, err := o.catalog.FetchDetail(ctx, listing.URL)
			if err != nil {
				summary.ItemsFailed++
				o.log.Error().Err(err).
					Str("title", listing.Title).
					Str("url", listing.URL).
					Msg("failed to fetch detail")
				continue
			}

			movie := MergeToCanonical(listing, detail)
			if _, err := o.store.UpsertMovieBySourceID(movie); err != nil {
				summary.ItemsFailed++
				o.log.Error().Err(err).
					Str("title", listing.Title).
					Str("source_id", movie.SourceID).
					Msg("failed to upsert movie")
				continue
			}

			summary.ItemsUpserted++
		}
	}

	o.log.Info().
		Int("seen", summary.ItemsSeen).
		Int("upserted", summary.ItemsUpserted).
		Int("failed", summary.ItemsFailed).
		Dur("took", time.Since(started)).
		Msg("sync run finished")

	return summary, runErr
}

func (o *Orchestrator) fetchListing(ctx context.Context, page int) ([]scraper.RawListing, error) {
	backoff := retry.WithMaxRetries(o.cfg.ListingRetries, retry.NewFibonacci(o.cfg.ListingRetryBase))

	var listings []scraper.RawListing
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		l, err := o.catalog.FetchListingPage(ctx, page)
		if err != nil {
			return retry.RetryableError(err)
		}
		listings = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listings, nil
}
