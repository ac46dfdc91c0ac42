// Package store persists reminders and intake profiles in SQLite. Sessions
// are process-scoped; this is the state that must survive restarts.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/skinbuddy/concierge/internal/model/profile"
	"github.com/skinbuddy/concierge/internal/model/reminder"
)

// Store wraps the SQLite database behind the reminder and profile
// operations the agents need.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and migrates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL keeps concurrent readers from blocking the writer.
	dsn := path + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS reminders (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		scheduled_at INTEGER NOT NULL,
		recurrence TEXT NOT NULL DEFAULT 'NONE',
		event_id TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reminders_title ON reminders(title);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		profile_json TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---------- reminders ----------

// ListReminders returns all stored reminders ordered by creation time.
func (s *Store) ListReminders(ctx context.Context) ([]reminder.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, scheduled_at, recurrence, event_id, created_at
		FROM reminders ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	return scanReminders(rows)
}

// AddReminder persists a reminder, assigning an id and creation timestamp
// when absent, and returns the stored record.
func (s *Store) AddReminder(ctx context.Context, r reminder.Reminder) (reminder.Reminder, error) {
	if r.ID == "" {
		r.ID = "rem_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Recurrence == "" {
		r.Recurrence = reminder.None
	}

	var eventID interface{}
	if r.EventID != "" {
		eventID = r.EventID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (id, title, description, scheduled_at, recurrence, event_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.Description, r.ScheduledAt.Unix(), string(r.Recurrence), eventID, r.CreatedAt.Unix(),
	)
	if err != nil {
		return reminder.Reminder{}, fmt.Errorf("insert reminder: %w", err)
	}
	return r, nil
}

// FindByTitles returns reminders whose title exactly equals one of titles.
// Matching here is deliberately strict: callers pass already-resolved title
// strings, not fuzzy text.
func (s *Store) FindByTitles(ctx context.Context, titles []string) ([]reminder.Reminder, error) {
	if len(titles) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, title, description, scheduled_at, recurrence, event_id, created_at
		FROM reminders WHERE title IN (` + placeholders(len(titles)) + `) ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, titleArgs(titles)...)
	if err != nil {
		return nil, fmt.Errorf("find reminders by title: %w", err)
	}
	defer rows.Close()

	return scanReminders(rows)
}

// DeleteByTitles removes reminders whose title exactly equals one of titles
// and returns the removed records.
func (s *Store) DeleteByTitles(ctx context.Context, titles []string) ([]reminder.Reminder, error) {
	removed, err := s.FindByTitles(ctx, titles)
	if err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		return nil, nil
	}

	query := `DELETE FROM reminders WHERE title IN (` + placeholders(len(titles)) + `)`
	if _, err := s.db.ExecContext(ctx, query, titleArgs(titles)...); err != nil {
		return nil, fmt.Errorf("delete reminders by title: %w", err)
	}
	return removed, nil
}

// ---------- profiles ----------

// GetProfile loads a user's intake profile. A missing profile returns nil,
// not an error.
func (s *Store) GetProfile(ctx context.Context, userID string) (profile.Profile, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile_json FROM profiles WHERE user_id = ?`, userID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var p profile.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}

// SaveProfile stores a profile, replacing any previous one.
func (s *Store) SaveProfile(ctx context.Context, userID string, p profile.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, profile_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			profile_json = excluded.profile_json,
			updated_at = excluded.updated_at`,
		userID, string(raw), time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// UpdateProfile merges the given fields into the stored profile, creating
// it when absent.
func (s *Store) UpdateProfile(ctx context.Context, userID string, fields profile.Profile) error {
	existing, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		existing = profile.Profile{}
	}
	for k, v := range fields {
		existing[k] = v
	}
	return s.SaveProfile(ctx, userID, existing)
}

// ---------- helpers ----------

func scanReminders(rows *sql.Rows) ([]reminder.Reminder, error) {
	var reminders []reminder.Reminder
	for rows.Next() {
		var (
			r           reminder.Reminder
			recurrence  string
			eventID     sql.NullString
			scheduledAt int64
			createdAt   int64
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Description, &scheduledAt, &recurrence, &eventID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reminder row: %w", err)
		}
		r.ScheduledAt = time.Unix(scheduledAt, 0).UTC()
		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		r.Recurrence = reminder.ParseRecurrence(recurrence)
		r.EventID = eventID.String
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func titleArgs(titles []string) []interface{} {
	args := make([]interface{}, len(titles))
	for i, t := range titles {
		args[i] = t
	}
	return args
}
