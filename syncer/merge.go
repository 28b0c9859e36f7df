package syncer

import (
	"movie-pulse/scraper"
	"movie-pulse/storage"
)

// MergeToCanonical folds one listing item and its detail record into the
// canonical movie. Total over its inputs: missing fields stay at their zero
// values, there are no partial states. The listing slug is the stable
// external identity, so it doubles as the source id.
func MergeToCanonical(listing scraper.RawListing, detail scraper.RawDetail) storage.Movie {
	movieType := "single"
	if len(detail.Episodes) > 1 {
		movieType = "series"
	}

	return storage.Movie{
		SourceID:     listing.Slug,
		Slug:         listing.Slug,
		Title:        listing.Title,
		Description:  detail.Description,
		Type:         movieType,
		Quality:      listing.Quality,
		Genres:       detail.Genres,
		Year:         detail.Year,
		ThumbnailURL: listing.ThumbnailURL,
		PlaybackURL:  detail.PlaybackURL,
		Actors:       detail.Actors,
		Directors:    detail.Directors,
		Country:      detail.Country,
		Duration:     detail.Duration,
		Episodes:     detail.Episodes,
		VideoSources: detail.VideoSources,
		Rating:       listing.Rating,
	}
}
