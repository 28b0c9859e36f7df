package recommend

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"movie-pulse/storage"
)

// DefaultLimit matches the number of tiles the catalog read API renders.
const DefaultLimit = 6

// MovieReader is the read-only slice of the store the rankers need. Each
// invocation loads a full snapshot, so a sync writing concurrently never
// changes a ranking mid-computation.
type MovieReader interface {
	GetMovieByID(id int64) (*storage.Movie, error)
	AllMovies() ([]storage.Movie, error)
}

// ContentRanker ranks movies by shared genres with a source movie.
type ContentRanker struct {
	movies MovieReader
	log    zerolog.Logger
}

func NewContentRanker(movies MovieReader, logger zerolog.Logger) *ContentRanker {
	return &ContentRanker{
		movies: movies,
		log:    logger.With().Str("component", "content_ranker").Logger(),
	}
}

// Rank returns up to limit movies sharing at least one genre with movieID,
// ordered by the size of the genre intersection, then by views. The source
// movie itself is never part of the result. Returns
// storage.ErrMovieNotFound when movieID is absent.
func (r *ContentRanker) Rank(movieID int64, limit int) ([]storage.Movie, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	source, err := r.movies.GetMovieByID(movieID)
	if err != nil {
		return nil, fmt.Errorf("load source movie %d: %w", movieID, err)
	}

	sourceGenres := make(map[string]bool, len(source.Genres))
	for _, g := range source.Genres {
		sourceGenres[g] = true
	}

	all, err := r.movies.AllMovies()
	if err != nil {
		return nil, err
	}

	type candidate struct {
		movie storage.Movie
		score int
	}

	var candidates []candidate
	for _, movie := range all {
		if movie.ID == movieID {
			continue
		}
		score := 0
		for _, g := range movie.Genres {
			if sourceGenres[g] {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, candidate{movie: movie, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].movie.Views > candidates[j].movie.Views
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	result := make([]storage.Movie, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, c.movie)
	}

	r.log.Debug().Int64("movie_id", movieID).Int("results", len(result)).Msg("content ranking computed")
	return result, nil
}
