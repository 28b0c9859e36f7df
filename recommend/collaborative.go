package recommend

import (
	"sort"

	"github.com/rs/zerolog"

	"movie-pulse/storage"
)

// neighborCount caps how many similar users contribute to a collaborative
// ranking.
const neighborCount = 5

// HistoryReader is the read-only view of the watch-history store.
type HistoryReader interface {
	WatchedMovieIDs(userID string) ([]int64, error)
	AllWatchEntries() ([]storage.WatchEntry, error)
}

// CollaborativeRanker ranks movies by behavioral co-occurrence: the top
// users overlapping the subject's watch history vote for the movies they
// watched and the subject has not.
type CollaborativeRanker struct {
	movies  MovieReader
	history HistoryReader
	log     zerolog.Logger
}

func NewCollaborativeRanker(movies MovieReader, history HistoryReader, logger zerolog.Logger) *CollaborativeRanker {
	return &CollaborativeRanker{
		movies:  movies,
		history: history,
		log:     logger.With().Str("component", "collaborative_ranker").Logger(),
	}
}

// Rank returns up to limit movies the user has not watched, scored by how
// many of their nearest neighbors watched each one, with views breaking
// ties. An empty watch history or an absence of neighbors yields an empty
// result, never an error.
func (r *CollaborativeRanker) Rank(userID string, limit int) ([]storage.Movie, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	watchedIDs, err := r.history.WatchedMovieIDs(userID)
	if err != nil {
		return nil, err
	}
	if len(watchedIDs) == 0 {
		return nil, nil
	}

	watched := make(map[int64]bool, len(watchedIDs))
	for _, id := range watchedIDs {
		watched[id] = true
	}

	neighbors, err := r.findNeighbors(userID, watched)
	if err != nil {
		return nil, err
	}
	if len(neighbors) == 0 {
		return nil, nil
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
		if watched[movie.ID] {
			continue
		}
		score := 0
		for _, n := range neighbors {
			if n.watched[movie.ID] {
				score++
			}
		}
		candidates = append(candidates, candidate{movie: movie, score: score})
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

	r.log.Debug().Str("user_id", userID).Int("neighbors", len(neighbors)).
		Int("results", len(result)).Msg("collaborative ranking computed")
	return result, nil
}

type neighbor struct {
	userID  string
	common  int
	watched map[int64]bool
}

// findNeighbors picks the top users by watch-history overlap with the
// subject. Equal overlap counts are broken by user id so the selection is
// deterministic.
func (r *CollaborativeRanker) findNeighbors(userID string, watched map[int64]bool) ([]neighbor, error) {
	entries, err := r.history.AllWatchEntries()
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]map[int64]bool)
	for _, e := range entries {
		if e.UserID == userID {
			continue
		}
		if byUser[e.UserID] == nil {
			byUser[e.UserID] = make(map[int64]bool)
		}
		byUser[e.UserID][e.MovieID] = true
	}

	var neighbors []neighbor
	for id, theirWatched := range byUser {
		common := 0
		for movieID := range theirWatched {
			if watched[movieID] {
				common++
			}
		}
		if common > 0 {
			neighbors = append(neighbors, neighbor{userID: id, common: common, watched: theirWatched})
		}
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].common != neighbors[j].common {
			return neighbors[i].common > neighbors[j].common
		}
		return neighbors[i].userID < neighbors[j].userID
	})

	if len(neighbors) > neighborCount {
		neighbors = neighbors[:neighborCount]
	}
	return neighbors, nil
}
