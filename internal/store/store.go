// Package store is the durable record store: a leads table keyed by
// canonical profile URL, an append-only action log used for daily budget
// accounting, and a small settings table.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/example/prospector/internal/models"
)

// ErrInvalidTransition is returned when a status update would move a lead
// backwards in its lifecycle.
var ErrInvalidTransition = errors.New("invalid status transition")

type Store struct{ db *sql.DB }

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() { _ = s.db.Close() }

// Migrate creates the schema idempotently and seeds the daily action limit
// setting if absent.
func (s *Store) Migrate(ctx context.Context, dailyLimit int) error {
	stmt := `
CREATE TABLE IF NOT EXISTS leads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	linkedin_url TEXT NOT NULL UNIQUE,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	full_name TEXT NOT NULL DEFAULT '',
	job_title TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	bio TEXT NOT NULL DEFAULT '',
	company TEXT NOT NULL DEFAULT '',
	industry TEXT NOT NULL DEFAULT '',
	last_post_topic TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'new',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS action_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	target_url TEXT NOT NULL,
	timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('daily_action_limit', ?)`,
		strconv.Itoa(dailyLimit))
	return err
}

// InsertLeadIfAbsent inserts a lead keyed by its canonical URL. A duplicate
// is a silent no-op, never an error and never an overwrite. Reports whether
// a new row was created.
func (s *Store) InsertLeadIfAbsent(ctx context.Context, l *models.Lead) (bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO leads
		(linkedin_url, first_name, last_name, full_name, job_title, location, bio, company, industry, last_post_topic)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.LinkedInURL, l.FirstName, l.LastName, l.FullName, l.JobTitle, l.Location,
		l.Bio, l.Company, l.Industry, l.LastPostTopic)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const leadColumns = `id, linkedin_url, first_name, last_name, full_name, job_title,
	location, bio, company, industry, last_post_topic, status, created_at`

func scanLead(row interface{ Scan(...any) error }) (*models.Lead, error) {
	var l models.Lead
	err := row.Scan(&l.ID, &l.LinkedInURL, &l.FirstName, &l.LastName, &l.FullName,
		&l.JobTitle, &l.Location, &l.Bio, &l.Company, &l.Industry, &l.LastPostTopic,
		&l.Status, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLeadByURL returns the lead for a canonical URL, or nil if none exists.
func (s *Store) GetLeadByURL(ctx context.Context, url string) (*models.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE linkedin_url = ?`, url)
	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return l, err
}

func (s *Store) ListLeadsByStatus(ctx context.Context, status models.Status, limit int) ([]models.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE status = ? ORDER BY id LIMIT ?`,
		status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// UpdateStatus moves a lead to a new status, enforcing forward-only
// transitions.
func (s *Store) UpdateStatus(ctx context.Context, id int64, to models.Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	var from models.Status
	if err := s.db.QueryRowContext(ctx, `SELECT status FROM leads WHERE id = ?`, id).Scan(&from); err != nil {
		return fmt.Errorf("load lead %d: %w", id, err)
	}
	if !models.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	_, err := s.db.ExecContext(ctx, `UPDATE leads SET status = ? WHERE id = ?`, to, id)
	return err
}

// LogAction appends one audit entry. The timestamp is assigned by the store;
// entries are never updated or deleted.
func (s *Store) LogAction(ctx context.Context, typ models.ActionType, targetURL string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO action_logs (type, target_url) VALUES (?, ?)`, typ, targetURL)
	return err
}

// HasAction reports whether an action of the given type was ever logged
// against the target URL.
func (s *Store) HasAction(ctx context.Context, typ models.ActionType, targetURL string) (bool, error) {
	var c int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM action_logs WHERE type = ? AND target_url = ?`, typ, targetURL).Scan(&c)
	return c > 0, err
}

// CountActionsToday counts audit entries logged since the start of the
// current calendar day.
func (s *Store) CountActionsToday(ctx context.Context) (int, error) {
	var c int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM action_logs WHERE timestamp >= datetime('now', 'start of day')`).Scan(&c)
	return c, err
}

// DailyActionLimit reads the configured daily budget from the settings table.
func (s *Store) DailyActionLimit(ctx context.Context) (int, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'daily_action_limit'`).Scan(&v)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

func (s *Store) CountLeadsByStatus(ctx context.Context, status models.Status) (int, error) {
	var c int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leads WHERE status = ?`, status).Scan(&c)
	return c, err
}

func (s *Store) CountLeads(ctx context.Context) (int, error) {
	var c int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&c)
	return c, err
}

// RecentActions returns the newest audit entries, most recent first.
func (s *Store) RecentActions(ctx context.Context, limit int) ([]models.ActionLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, target_url, timestamp FROM action_logs ORDER BY timestamp DESC, id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.ActionLogEntry
	for rows.Next() {
		var e models.ActionLogEntry
		if err := rows.Scan(&e.ID, &e.Type, &e.TargetURL, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
