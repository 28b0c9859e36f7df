package syncer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-pulse/scraper"
	"movie-pulse/storage"
)

// fakeCatalog serves a fixed set of listing pages and detail records,
// with optional per-URL and per-page failures.
type fakeCatalog struct {
	pages        map[int][]scraper.RawListing
	details      map[string]scraper.RawDetail
	failDetails  map[string]bool
	failListings map[int]int // page -> number of failures before success
	listingCalls map[int]int
}

func (c *fakeCatalog) FetchListingPage(_ context.Context, page int) ([]scraper.RawListing, error) {
	if c.listingCalls == nil {
		c.listingCalls = make(map[int]int)
	}
	c.listingCalls[page]++
	if c.failListings[page] >= c.listingCalls[page] {
		return nil, &scraper.FetchError{URL: fmt.Sprintf("page-%d", page), Err: errors.New("connection reset")}
	}
	return c.pages[page], nil
}

func (c *fakeCatalog) FetchDetail(_ context.Context, itemURL string) (scraper.RawDetail, error) {
	if c.failDetails[itemURL] {
		return scraper.RawDetail{}, &scraper.FetchError{URL: itemURL, Err: errors.New("timeout")}
	}
	return c.details[itemURL], nil
}

// fakeStore records upserts keyed by source id, like the real store.
type fakeStore struct {
	movies  map[string]storage.Movie
	upserts int
	failFor map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{movies: make(map[string]storage.Movie)}
}

func (s *fakeStore) UpsertMovieBySourceID(movie storage.Movie) (int64, error) {
	if s.failFor[movie.SourceID] {
		return 0, errors.New("disk full")
	}
	s.upserts++
	s.movies[movie.SourceID] = movie
	return int64(len(s.movies)), nil
}

func listing(slug string) scraper.RawListing {
	return scraper.RawListing{
		Title: slug,
		Slug:  slug,
		URL:   "https://www.example.com/phim/" + slug,
	}
}

func fastConfig() Config {
	return Config{
		ItemDelay:        time.Millisecond,
		ListingRetries:   1,
		ListingRetryBase: time.Millisecond,
	}
}

func TestRunSyncHappyPath(t *testing.T) {
	catalog := &fakeCatalog{
		pages: map[int][]scraper.RawListing{
			1: {listing("alpha"), listing("beta")},
			2: {listing("gamma")},
		},
		details: map[string]scraper.RawDetail{
			"https://www.example.com/phim/alpha": {Genres: []string{"Action"}},
			"https://www.example.com/phim/beta":  {Genres: []string{"Drama"}},
			"https://www.example.com/phim/gamma": {},
		},
	}
	store := newFakeStore()
	o := NewOrchestrator(catalog, store, fastConfig(), zerolog.Nop())

	summary, err := o.RunSync(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, Summary{ItemsSeen: 3, ItemsUpserted: 3, ItemsFailed: 0}, summary)
	assert.Len(t, store.movies, 3)
	assert.Equal(t, []string{"Action"}, store.movies["alpha"].Genres)
}

func TestRunSyncIsRepeatable(t *testing.T) {
	catalog := &fakeCatalog{
		pages:   map[int][]scraper.RawListing{1: {listing("alpha"), listing("beta")}},
		details: map[string]scraper.RawDetail{},
	}
	store := newFakeStore()
	o := NewOrchestrator(catalog, store, fastConfig(), zerolog.Nop())

	first, err := o.RunSync(context.Background(), 1)
	require.NoError(t, err)
	second, err := o.RunSync(context.Background(), 1)
	require.NoError(t, err)

	// Same unchanged source, same summary, and still exactly one record per
	// source id: the upsert is keyed on identity, not appended.
	assert.Equal(t, first, second)
	assert.Len(t, store.movies, 2)
	assert.Equal(t, 4, store.upserts)
}

func TestRunSyncItemFailureIsolation(t *testing.T) {
	catalog := &fakeCatalog{
		pages: map[int][]scraper.RawListing{
			1: {listing("alpha"), listing("broken"), listing("beta")},
			2: {listing("gamma")},
		},
		details:     map[string]scraper.RawDetail{},
		failDetails: map[string]bool{"https://www.example.com/phim/broken": true},
	}
	store := newFakeStore()
	o := NewOrchestrator(catalog, store, fastConfig(), zerolog.Nop())

	summary, err := o.RunSync(context.Background(), 2)
	require.NoError(t, err, "a single item failure never aborts the run")

	assert.Equal(t, Summary{ItemsSeen: 4, ItemsUpserted: 3, ItemsFailed: 1}, summary)
	assert.NotContains(t, store.movies, "broken")
	assert.Contains(t, store.movies, "beta", "items after the failed one are still synced")
	assert.Contains(t, store.movies, "gamma", "pages after the failure are still synced")
}

func TestRunSyncUpsertFailureIsolation(t *testing.T) {
	catalog := &fakeCatalog{
		pages:   map[int][]scraper.RawListing{1: {listing("alpha"), listing("beta")}},
		details: map[string]scraper.RawDetail{},
	}
	store := newFakeStore()
	store.failFor = map[string]bool{"alpha": true}
	o := NewOrchestrator(catalog, store, fastConfig(), zerolog.Nop())

	summary, err := o.RunSync(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, Summary{ItemsSeen: 2, ItemsUpserted: 1, ItemsFailed: 1}, summary)
	assert.Contains(t, store.movies, "beta")
}

func TestRunSyncPageFailureSkipsPageOnly(t *testing.T) {
	catalog := &fakeCatalog{
		pages: map[int][]scraper.RawListing{
			1: {listing("alpha")},
			3: {listing("gamma")},
		},
		details:      map[string]scraper.RawDetail{},
		failListings: map[int]int{2: 10},
	}
	store := newFakeStore()
	o := NewOrchestrator(catalog, store, fastConfig(), zerolog.Nop())

	summary, err := o.RunSync(context.Background(), 3)

	require.Error(t, err, "a failed listing page is reported")
	assert.Contains(t, err.Error(), "page 2")
	assert.Equal(t, Summary{ItemsSeen: 2, ItemsUpserted: 2, ItemsFailed: 0}, summary)
	assert.Contains(t, store.movies, "gamma", "pages after a failed page are still attempted")
}

func TestRunSyncListingRetry(t *testing.T) {
	catalog := &fakeCatalog{
		pages:        map[int][]scraper.RawListing{1: {listing("alpha")}},
		details:      map[string]scraper.RawDetail{},
		failListings: map[int]int{1: 1}, // first attempt fails, retry succeeds
	}
	store := newFakeStore()
	o := NewOrchestrator(catalog, store, fastConfig(), zerolog.Nop())

	summary, err := o.RunSync(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ItemsUpserted)
	assert.Equal(t, 2, catalog.listingCalls[1])
}
