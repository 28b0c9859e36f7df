package storage

import (
	"errors"
	"time"
)

// ErrMovieNotFound is returned when a lookup by id or slug matches nothing.
var ErrMovieNotFound = errors.New("movie not found")

// Movie is the canonical record for one catalog entry. It is created and
// overwritten only by sync upserts keyed on SourceID; Views is bumped by the
// read path and is never part of the synced field set.
type Movie struct {
	ID            int64         `json:"id"`
	SourceID      string        `json:"source_id"`
	Slug          string        `json:"slug"`
	Title         string        `json:"title"`
	OriginalTitle string        `json:"original_title,omitempty"`
	Description   string        `json:"description"`
	Type          string        `json:"type"` // "single" or "series"
	Quality       string        `json:"quality,omitempty"`
	Genres        []string      `json:"genres"`
	Year          int           `json:"year"`
	ThumbnailURL  string        `json:"thumbnail_url"`
	PlaybackURL   string        `json:"playback_url,omitempty"`
	Actors        []string      `json:"actors,omitempty"`
	Directors     []string      `json:"directors,omitempty"`
	Country       string        `json:"country,omitempty"`
	Duration      string        `json:"duration,omitempty"`
	Episodes      []Episode     `json:"episodes,omitempty"`
	VideoSources  []VideoSource `json:"video_sources,omitempty"`
	Rating        float64       `json:"rating"`
	Views         int64         `json:"views"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Episode is one entry of a series. Number is 1-based.
type Episode struct {
	Number int    `json:"episode"`
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
}

// VideoSource is one playable stream extracted from the detail page scripts.
type VideoSource struct {
	File  string `json:"file"`
	Label string `json:"label,omitempty"`
	Type  string `json:"type,omitempty"`
}

// WatchEntry is one append-only watch-history row. The recommendation
// engine only ever reads these.
type WatchEntry struct {
	UserID    string    `json:"user_id"`
	MovieID   int64     `json:"movie_id"`
	WatchedAt time.Time `json:"watched_at"`
}

// MovieFilter narrows ListMovies. Zero values mean "no constraint".
type MovieFilter struct {
	Genre string
	Year  int
	Type  string
}
