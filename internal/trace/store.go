package trace

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3" driver
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const maxJobs = 100

// Store persists trace data to a local SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite trace database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("trace open: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace ping: %w", err)
	}
	if err = migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return err
	}

	var current int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), -1) FROM schema_version`)
	if err = row.Scan(&current); err != nil {
		return err
	}

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	for i := current + 1; i < len(entries); i++ {
		data, readErr := migrationFS.ReadFile("migrations/" + entries[i].Name())
		if readErr != nil {
			return fmt.Errorf("read migration %d: %w", i, readErr)
		}
		if _, execErr := db.Exec(string(data)); execErr != nil {
			return fmt.Errorf("migration %d: %w", i, execErr)
		}
		if _, execErr := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i); execErr != nil {
			return fmt.Errorf("migration %d record: %w", i, execErr)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateJob inserts a new job and prunes old ones beyond maxJobs.
func (s *Store) CreateJob(id, sourceURL string) error {
	_, err := s.db.Exec(
		`INSERT INTO jobs (id, source_url, started_at, status) VALUES (?, ?, ?, 'running')`,
		id, sourceURL, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`DELETE FROM jobs WHERE id NOT IN (SELECT id FROM jobs ORDER BY started_at DESC LIMIT ?)`,
		maxJobs,
	)
	return err
}

// EndJob finalizes a job's terminal state and duration.
func (s *Store) EndJob(id string, durationMs float64, status string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE jobs SET ended_at = ?, duration_ms = ?, status = ? WHERE id = ?`,
		now, durationMs, status, id,
	)
	return err
}

// CreateSpan inserts a completed stage span.
func (s *Store) CreateSpan(sp Span) error {
	_, err := s.db.Exec(
		`INSERT INTO spans (id, job_id, stage, started_at, duration_ms, detail, status, error_msg)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sp.ID, sp.JobID, sp.Stage, sp.StartedAt.UTC(),
		sp.DurationMs, sp.Detail, sp.Status, sp.Error,
	)
	return err
}

// ListJobs returns jobs ordered newest first, with span counts.
func (s *Store) ListJobs(limit, offset int) ([]Job, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM jobs`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(`
		SELECT id, source_url, started_at, ended_at, status, duration_ms
		FROM jobs
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var endedAt sql.NullTime
		var durationMs sql.NullFloat64
		if err = rows.Scan(&j.ID, &j.SourceURL, &j.StartedAt, &endedAt, &j.Status, &durationMs); err != nil {
			return nil, 0, err
		}
		if endedAt.Valid {
			j.EndedAt = &endedAt.Time
		}
		j.DurationMs = durationMs.Float64
		jobs = append(jobs, j)
	}
	return jobs, total, rows.Err()
}

// GetJob returns a single job with its spans, ordered by start time.
func (s *Store) GetJob(id string) (*Job, []Span, error) {
	var j Job
	var endedAt sql.NullTime
	var durationMs sql.NullFloat64
	err := s.db.QueryRow(
		`SELECT id, source_url, started_at, ended_at, status, duration_ms FROM jobs WHERE id = ?`, id,
	).Scan(&j.ID, &j.SourceURL, &j.StartedAt, &endedAt, &j.Status, &durationMs)
	if err != nil {
		return nil, nil, err
	}
	if endedAt.Valid {
		j.EndedAt = &endedAt.Time
	}
	j.DurationMs = durationMs.Float64

	rows, err := s.db.Query(
		`SELECT id, job_id, stage, started_at, duration_ms, detail, status, error_msg
		 FROM spans WHERE job_id = ? ORDER BY started_at ASC`,
		id,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var spans []Span
	for rows.Next() {
		var sp Span
		if err = rows.Scan(&sp.ID, &sp.JobID, &sp.Stage, &sp.StartedAt, &sp.DurationMs, &sp.Detail, &sp.Status, &sp.Error); err != nil {
			return nil, nil, err
		}
		spans = append(spans, sp)
	}
	return &j, spans, rows.Err()
}
