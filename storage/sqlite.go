package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	dataPath string
	log      zerolog.Logger
}

// MovieStore is the canonical store contract the sync and read paths depend on.
type MovieStore interface {
	Initialize() error
	UpsertMovieBySourceID(movie Movie) (int64, error)
	GetMovieByID(id int64) (*Movie, error)
	GetMovieBySlug(slug string) (*Movie, error)
	ListMovies(page, pageSize int, filter MovieFilter) ([]Movie, int, error)
	SearchMovies(query string) ([]Movie, error)
	IncrementViews(id int64) error
	AllMovies() ([]Movie, error)
	AddWatchEntry(entry WatchEntry) error
	WatchedMovieIDs(userID string) ([]int64, error)
	AllWatchEntries() ([]WatchEntry, error)
	Close() error
}

func NewSQLiteStorage(dataPath string, logger zerolog.Logger) *SQLiteStorage {
	dbPath := filepath.Join(dataPath, "movie_pulse.db")
	return &SQLiteStorage{
		dbPath:   dbPath,
		dataPath: dataPath,
		log:      logger.With().Str("component", "storage").Logger(),
	}
}

func (s *SQLiteStorage) Initialize() error {
	if err := os.MkdirAll(s.dataPath, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	s.db = db

	migrationManager := NewMigrationManager(s.db, s.log)
	if err := migrationManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	if err := migrationManager.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.log.Info().Str("path", s.dbPath).Msg("sqlite database initialized")
	return nil
}

const movieColumns = `id, source_id, slug, title, original_title, description, type, quality,
	genres, year, thumbnail_url, playback_url, actors, directors, country, duration,
	episodes, video_sources, rating, views, created_at, updated_at`

// UpsertMovieBySourceID is a pure replace-or-insert keyed by source_id.
// Running it twice with the same input leaves the row unchanged except for
// updated_at; views and created_at are never touched by an update because
// they are not part of the synced field set.
func (s *SQLiteStorage) UpsertMovieBySourceID(movie Movie) (int64, error) {
	genres, err := marshalField(movie.Genres)
	if err != nil {
		return 0, err
	}
	actors, err := marshalField(movie.Actors)
	if err != nil {
		return 0, err
	}
	directors, err := marshalField(movie.Directors)
	if err != nil {
		return 0, err
	}
	episodes, err := marshalField(movie.Episodes)
	if err != nil {
		return 0, err
	}
	sources, err := marshalField(movie.VideoSources)
	if err != nil {
		return 0, err
	}

	query := `
	INSERT INTO movies (source_id, slug, title, original_title, description, type, quality,
		genres, year, thumbnail_url, playback_url, actors, directors, country, duration,
		episodes, video_sources, rating, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(source_id) DO UPDATE SET
		slug = excluded.slug,
		title = excluded.title,
		original_title = excluded.original_title,
		description = excluded.description,
		type = excluded.type,
		quality = excluded.quality,
		genres = excluded.genres,
		year = excluded.year,
		thumbnail_url = excluded.thumbnail_url,
		playback_url = excluded.playback_url,
		actors = excluded.actors,
		directors = excluded.directors,
		country = excluded.country,
		duration = excluded.duration,
		episodes = excluded.episodes,
		video_sources = excluded.video_sources,
		rating = excluded.rating,
		updated_at = CURRENT_TIMESTAMP
	RETURNING id
	`

	var id int64
	err = s.db.QueryRow(query,
		movie.SourceID, movie.Slug, movie.Title, movie.OriginalTitle, movie.Description,
		movie.Type, movie.Quality, genres, movie.Year, movie.ThumbnailURL, movie.PlaybackURL,
		actors, directors, movie.Country, movie.Duration, episodes, sources, movie.Rating,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert movie %s: %w", movie.SourceID, err)
	}

	return id, nil
}

func (s *SQLiteStorage) GetMovieByID(id int64) (*Movie, error) {
	row := s.db.QueryRow(`SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
	return scanMovie(row)
}

func (s *SQLiteStorage) GetMovieBySlug(slug string) (*Movie, error) {
	row := s.db.QueryRow(`SELECT `+movieColumns+` FROM movies WHERE slug = ?`, slug)
	return scanMovie(row)
}

// ListMovies returns one page of movies ordered by most recently updated,
// plus the total count matching the filter.
func (s *SQLiteStorage) ListMovies(page, pageSize int, filter MovieFilter) ([]Movie, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	where, args := buildFilter(filter)

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM movies`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count movies: %w", err)
	}

	query := `SELECT ` + movieColumns + ` FROM movies` + where +
		` ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	movies, err := s.queryMovies(query, args...)
	if err != nil {
		return nil, 0, err
	}
	return movies, total, nil
}

func (s *SQLiteStorage) SearchMovies(query string) ([]Movie, error) {
	like := "%" + query + "%"
	q := `SELECT ` + movieColumns + ` FROM movies
	WHERE title LIKE ? OR original_title LIKE ? OR description LIKE ?
		OR actors LIKE ? OR directors LIKE ?
	ORDER BY views DESC, updated_at DESC`

	return s.queryMovies(q, like, like, like, like, like)
}

func (s *SQLiteStorage) IncrementViews(id int64) error {
	res, err := s.db.Exec(`UPDATE movies SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	if affected == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// AllMovies loads the full catalog in one query so rankers operate over a
// consistent snapshot rather than a live-updating view.
func (s *SQLiteStorage) AllMovies() ([]Movie, error) {
	return s.queryMovies(`SELECT ` + movieColumns + ` FROM movies ORDER BY id`)
}

func (s *SQLiteStorage) AddWatchEntry(entry WatchEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO watch_history (user_id, movie_id, watched_at) VALUES (?, ?, ?)`,
		entry.UserID, entry.MovieID, entry.WatchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add watch entry: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) WatchedMovieIDs(userID string) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT movie_id FROM watch_history WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watch history: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan watch history: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStorage) AllWatchEntries() ([]WatchEntry, error) {
	rows, err := s.db.Query(
		`SELECT user_id, movie_id, watched_at FROM watch_history ORDER BY user_id, watched_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watch history: %w", err)
	}
	defer rows.Close()

	var entries []WatchEntry
	for rows.Next() {
		var e WatchEntry
		if err := rows.Scan(&e.UserID, &e.MovieID, &e.WatchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watch entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStorage) GetStats() (map[string]int, error) {
	stats := make(map[string]int)

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM movies`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}
	stats["total"] = total

	var singles int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM movies WHERE type = 'single'`).Scan(&singles); err != nil {
		return nil, fmt.Errorf("failed to get singles count: %w", err)
	}
	stats["singles"] = singles

	var series int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM movies WHERE type = 'series'`).Scan(&series); err != nil {
		return nil, fmt.Errorf("failed to get series count: %w", err)
	}
	stats["series"] = series

	return stats, nil
}

func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStorage) GetDB() (*sql.DB, error) {
	if s.db == nil {
		db, err := sql.Open("sqlite3", s.dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.db = db
	}
	return s.db, nil
}

// Migration management methods
func (s *SQLiteStorage) GetMigrationManager() *MigrationManager {
	return NewMigrationManager(s.db, s.log)
}

func (s *SQLiteStorage) GetDatabaseVersion() (int64, error) {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return 0, err
	}
	return migrationManager.Version()
}

func (s *SQLiteStorage) RunMigrations() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Up()
}

func (s *SQLiteStorage) RollbackMigration() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Down()
}

func (s *SQLiteStorage) ResetDatabase() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Reset()
}

func (s *SQLiteStorage) queryMovies(query string, args ...any) ([]Movie, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	var movies []Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, *movie)
	}
	return movies, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*Movie, error) {
	var (
		m        Movie
		genres   string
		actors   string
		dirs     string
		episodes string
		sources  string
	)

	err := row.Scan(
		&m.ID, &m.SourceID, &m.Slug, &m.Title, &m.OriginalTitle, &m.Description,
		&m.Type, &m.Quality, &genres, &m.Year, &m.ThumbnailURL, &m.PlaybackURL,
		&actors, &dirs, &m.Country, &m.Duration, &episodes, &sources,
		&m.Rating, &m.Views, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan movie: %w", err)
	}

	if err := unmarshalField(genres, &m.Genres); err != nil {
		return nil, err
	}
	if err := unmarshalField(actors, &m.Actors); err != nil {
		return nil, err
	}
	if err := unmarshalField(dirs, &m.Directors); err != nil {
		return nil, err
	}
	if err := unmarshalField(episodes, &m.Episodes); err != nil {
		return nil, err
	}
	if err := unmarshalField(sources, &m.VideoSources); err != nil {
		return nil, err
	}

	return &m, nil
}

func buildFilter(filter MovieFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.Genre != "" {
		// genres is a JSON array column, so match the quoted element.
		clauses = append(clauses, `genres LIKE ?`)
		args = append(args, `%"`+filter.Genre+`"%`)
	}
	if filter.Year != 0 {
		clauses = append(clauses, `year = ?`)
		args = append(args, filter.Year)
	}
	if filter.Type != "" {
		clauses = append(clauses, `type = ?`)
		args = append(args, filter.Type)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func marshalField(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode field: %w", err)
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}

func unmarshalField[T any](raw string, dst *T) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("failed to decode field: %w", err)
	}
	return nil
}
