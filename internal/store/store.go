// Package store implements the persistent storage layer for alignd.
//
// It uses SQLite to hold the user, their identities, identity traits,
// daily behavior logs, and AI-generated daily reflections. One Store
// (and one *sql.DB pool) is created at startup and injected into every
// handler — there is no per-call connection juggling.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Sentinel errors for the boundary layer to classify.
var (
	// ErrNotFound reports that a row expected to exist is absent,
	// e.g. a fetch-by-id right after a write.
	ErrNotFound = errors.New("not found")

	// ErrInvalidScore reports an alignment score outside 1..10.
	ErrInvalidScore = errors.New("alignment_score must be between 1 and 10")
)

// ─── Types ───────────────────────────────────────────────────────────────────

// User is the root entity. The app assumes a single active user; see
// CurrentUser and EnsureUser.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// Identity is a persona the user wants to behave consistently with.
type Identity struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UserID      int64  `json:"user_id"`
	CreatedAt   string `json:"created_at"`
}

// Trait is a named attribute of an Identity (e.g. "disciplined").
type Trait struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	IdentityID int64  `json:"identity_id"`
	CreatedAt  string `json:"created_at"`
}

// BehaviorLog is a dated record of an observed action scored 1–10 for
// alignment with an Identity.
type BehaviorLog struct {
	ID             int64  `json:"id"`
	Date           string `json:"date"`
	Description    string `json:"description"`
	IdentityID     int64  `json:"identity_id"`
	AlignmentScore int    `json:"alignment_score"`
	CreatedAt      string `json:"created_at"`
}

// DailyReflection holds one day's AI-generated reflection for an Identity.
// Content is the model's JSON payload stored as a string. At most one row
// exists per (date, identity_id); regeneration replaces the prior row.
type DailyReflection struct {
	ID         int64  `json:"id"`
	Date       string `json:"date"`
	Content    string `json:"content"`
	IdentityID int64  `json:"identity_id"`
	CreatedAt  string `json:"created_at"`
}

// DayAlignment is one aggregated day in a weekly alignment report.
type DayAlignment struct {
	Date     string  `json:"date"`
	AvgScore float64 `json:"avg_score"`
	Count    int64   `json:"count"`
}

// AlignmentTrend is one aggregated day in a rolling trend window.
type AlignmentTrend struct {
	Date          string  `json:"date"`
	AvgAlignment  float64 `json:"avg_alignment"`
	BehaviorCount int64   `json:"behavior_count"`
}

// UpdateIdentityParams holds partial update fields for an identity.
// Nil fields are left untouched.
type UpdateIdentityParams struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// LogBehaviorParams holds the input for logging a behavior.
type LogBehaviorParams struct {
	Date           string `json:"date"`
	Description    string `json:"description"`
	IdentityID     int64  `json:"identity_id"`
	AlignmentScore int    `json:"alignment_score"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds storage configuration.
type Config struct {
	DataDir string
}

// DefaultConfig returns the default configuration, rooted at ~/.alignd.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir: filepath.Join(home, ".alignd"),
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent storage engine backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New creates a new Store with the given configuration.
// It creates the data directory if needed, opens SQLite with WAL mode,
// and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	// Pragmas ride in the DSN so the driver applies them to every pool
	// connection. Executing them once via db.Exec would configure only
	// whichever connection ran them, and foreign_keys defaults to OFF,
	// which would break the ON DELETE CASCADE relationships on any other
	// connection.
	dbPath := filepath.Join(cfg.DataDir, "identity_habit.db")
	dsn := "file:" + dbPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(1)"
	db, err := openDB("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("store: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS user (
			id         INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS identity (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			user_id     INTEGER NOT NULL,
			created_at  TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (user_id) REFERENCES user(id)
		);

		CREATE TABLE IF NOT EXISTS trait (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL,
			identity_id INTEGER NOT NULL,
			created_at  TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (identity_id) REFERENCES identity(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS behavior_log (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			date            TEXT NOT NULL,
			description     TEXT NOT NULL,
			identity_id     INTEGER NOT NULL,
			alignment_score INTEGER NOT NULL CHECK (alignment_score >= 1 AND alignment_score <= 10),
			created_at      TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (identity_id) REFERENCES identity(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS daily_reflection (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			date        TEXT NOT NULL,
			content     TEXT NOT NULL,
			identity_id INTEGER NOT NULL,
			created_at  TEXT NOT NULL DEFAULT (datetime('now')),
			UNIQUE(date, identity_id),
			FOREIGN KEY (identity_id) REFERENCES identity(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_behavior_date       ON behavior_log(date);
		CREATE INDEX IF NOT EXISTS idx_behavior_identity   ON behavior_log(identity_id);
		CREATE INDEX IF NOT EXISTS idx_reflection_date     ON daily_reflection(date);
		CREATE INDEX IF NOT EXISTS idx_reflection_identity ON daily_reflection(identity_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// ─── User ────────────────────────────────────────────────────────────────────

// CreateUser inserts a new user and returns the stored row.
func (s *Store) CreateUser(name string) (*User, error) {
	res, err := s.db.Exec(`INSERT INTO user (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.userByID(id)
}

// CurrentUser returns the single active user — the most recently created
// row — or (nil, nil) when no user exists yet.
func (s *Store) CurrentUser() (*User, error) {
	row := s.db.QueryRow(`SELECT id, name, created_at FROM user ORDER BY id DESC LIMIT 1`)
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// EnsureUser returns the current user, creating one with the given name
// when none exists. This is the creation-or-fetch operation behind the
// single-user assumption.
func (s *Store) EnsureUser(name string) (*User, error) {
	u, err := s.CurrentUser()
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	return s.CreateUser(name)
}

func (s *Store) userByID(id int64) (*User, error) {
	row := s.db.QueryRow(`SELECT id, name, created_at FROM user WHERE id = ?`, id)
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

// ─── Identity ────────────────────────────────────────────────────────────────

// CreateIdentity inserts a new identity for a user and returns the stored row.
// An empty description is stored as-is (the column defaults to '').
func (s *Store) CreateIdentity(userID int64, name, description string) (*Identity, error) {
	res, err := s.db.Exec(
		`INSERT INTO identity (name, description, user_id) VALUES (?, ?, ?)`,
		name, description, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return s.identityByID(id)
}

// ListIdentities returns a user's identities, newest first.
func (s *Store) ListIdentities(userID int64) ([]Identity, error) {
	rows, err := s.db.Query(
		`SELECT id, name, description, user_id, created_at
		 FROM identity
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Identity
	for rows.Next() {
		var ident Identity
		if err := rows.Scan(&ident.ID, &ident.Name, &ident.Description, &ident.UserID, &ident.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, ident)
	}
	return results, rows.Err()
}

// GetIdentity retrieves an identity by ID, returning (nil, nil) when absent.
func (s *Store) GetIdentity(id int64) (*Identity, error) {
	ident, err := s.identityByID(id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return ident, err
}

// UpdateIdentity patches an identity's name and/or description. Each
// provided field is updated independently; nil fields are left untouched.
// Updating a nonexistent id surfaces as ErrNotFound from the final fetch.
func (s *Store) UpdateIdentity(id int64, p UpdateIdentityParams) (*Identity, error) {
	if p.Name != nil {
		if _, err := s.db.Exec(`UPDATE identity SET name = ? WHERE id = ?`, *p.Name, id); err != nil {
			return nil, fmt.Errorf("update identity name: %w", err)
		}
	}
	if p.Description != nil {
		if _, err := s.db.Exec(`UPDATE identity SET description = ? WHERE id = ?`, *p.Description, id); err != nil {
			return nil, fmt.Errorf("update identity description: %w", err)
		}
	}
	return s.identityByID(id)
}

// DeleteIdentity removes an identity. Traits, behavior logs, and
// reflections owned by it are removed by the schema's ON DELETE CASCADE.
func (s *Store) DeleteIdentity(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM identity WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}

func (s *Store) identityByID(id int64) (*Identity, error) {
	row := s.db.QueryRow(
		`SELECT id, name, description, user_id, created_at FROM identity WHERE id = ?`, id,
	)
	var ident Identity
	if err := row.Scan(&ident.ID, &ident.Name, &ident.Description, &ident.UserID, &ident.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("identity %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get identity %d: %w", id, err)
	}
	return &ident, nil
}

// ─── Trait ───────────────────────────────────────────────────────────────────

// CreateTrait adds a trait to an identity and returns the stored row.
func (s *Store) CreateTrait(identityID int64, name string) (*Trait, error) {
	res, err := s.db.Exec(
		`INSERT INTO trait (name, identity_id) VALUES (?, ?)`,
		name, identityID,
	)
	if err != nil {
		return nil, fmt.Errorf("create trait: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create trait: %w", err)
	}

	row := s.db.QueryRow(
		`SELECT id, name, identity_id, created_at FROM trait WHERE id = ?`, id,
	)
	var tr Trait
	if err := row.Scan(&tr.ID, &tr.Name, &tr.IdentityID, &tr.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("trait %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get trait %d: %w", id, err)
	}
	return &tr, nil
}

// ListTraits returns an identity's traits in creation order.
func (s *Store) ListTraits(identityID int64) ([]Trait, error) {
	rows, err := s.db.Query(
		`SELECT id, name, identity_id, created_at
		 FROM trait
		 WHERE identity_id = ?
		 ORDER BY created_at, id`,
		identityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list traits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Trait
	for rows.Next() {
		var tr Trait
		if err := rows.Scan(&tr.ID, &tr.Name, &tr.IdentityID, &tr.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, tr)
	}
	return results, rows.Err()
}

// DeleteTrait removes a trait by ID. Deleting a nonexistent trait is not
// an error.
func (s *Store) DeleteTrait(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM trait WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete trait: %w", err)
	}
	return nil
}

// ─── Behavior log ────────────────────────────────────────────────────────────

// LogBehavior validates and inserts a behavior log entry, returning the
// stored row. The score range is checked here and again by the schema's
// CHECK constraint.
func (s *Store) LogBehavior(p LogBehaviorParams) (*BehaviorLog, error) {
	if p.AlignmentScore < 1 || p.AlignmentScore > 10 {
		return nil, ErrInvalidScore
	}

	res, err := s.db.Exec(
		`INSERT INTO behavior_log (date, description, identity_id, alignment_score)
		 VALUES (?, ?, ?, ?)`,
		p.Date, p.Description, p.IdentityID, p.AlignmentScore,
	)
	if err != nil {
		return nil, fmt.Errorf("log behavior: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("log behavior: %w", err)
	}

	row := s.db.QueryRow(
		`SELECT id, date, description, identity_id, alignment_score, created_at
		 FROM behavior_log WHERE id = ?`, id,
	)
	var b BehaviorLog
	if err := row.Scan(&b.ID, &b.Date, &b.Description, &b.IdentityID, &b.AlignmentScore, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("behavior %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get behavior %d: %w", id, err)
	}
	return &b, nil
}

// BehaviorsForDate returns an identity's behaviors for one date in
// creation order.
func (s *Store) BehaviorsForDate(identityID int64, date string) ([]BehaviorLog, error) {
	return s.queryBehaviors(
		`SELECT id, date, description, identity_id, alignment_score, created_at
		 FROM behavior_log
		 WHERE identity_id = ? AND date = ?
		 ORDER BY created_at, id`,
		identityID, date,
	)
}

// ListBehaviors returns an identity's behaviors, optionally bounded by
// from/to dates (inclusive), newest date first. Nil bounds are open.
func (s *Store) ListBehaviors(identityID int64, fromDate, toDate *string) ([]BehaviorLog, error) {
	query := `SELECT id, date, description, identity_id, alignment_score, created_at
		 FROM behavior_log
		 WHERE identity_id = ?`
	args := []any{identityID}

	if fromDate != nil {
		query += " AND date >= ?"
		args = append(args, *fromDate)
	}
	if toDate != nil {
		query += " AND date <= ?"
		args = append(args, *toDate)
	}

	query += " ORDER BY date DESC, created_at, id"
	return s.queryBehaviors(query, args...)
}

func (s *Store) queryBehaviors(query string, args ...any) ([]BehaviorLog, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query behaviors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []BehaviorLog
	for rows.Next() {
		var b BehaviorLog
		if err := rows.Scan(&b.ID, &b.Date, &b.Description, &b.IdentityID, &b.AlignmentScore, &b.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, b)
	}
	return results, rows.Err()
}

// ─── Analytics ───────────────────────────────────────────────────────────────

// WeeklyAlignment aggregates behaviors per day over an inclusive date
// range: average score and count, ordered ascending by date.
func (s *Store) WeeklyAlignment(identityID int64, fromDate, toDate string) ([]DayAlignment, error) {
	rows, err := s.db.Query(
		`SELECT date, AVG(alignment_score) AS avg_score, COUNT(*) AS count
		 FROM behavior_log
		 WHERE identity_id = ? AND date >= ? AND date <= ?
		 GROUP BY date
		 ORDER BY date`,
		identityID, fromDate, toDate,
	)
	if err != nil {
		return nil, fmt.Errorf("weekly alignment: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []DayAlignment
	for rows.Next() {
		var d DayAlignment
		if err := rows.Scan(&d.Date, &d.AvgScore, &d.Count); err != nil {
			return nil, err
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

// AlignmentTrends aggregates behaviors per day over a rolling window of
// the last `days` days (default 14), ordered ascending by date. The
// window is bound as a date modifier parameter, never interpolated.
func (s *Store) AlignmentTrends(identityID int64, days int) ([]AlignmentTrend, error) {
	if days <= 0 {
		days = 14
	}

	rows, err := s.db.Query(
		`SELECT date, AVG(alignment_score), COUNT(*)
		 FROM behavior_log
		 WHERE identity_id = ? AND date >= date('now', ?)
		 GROUP BY date
		 ORDER BY date`,
		identityID, trendWindowExpression(days),
	)
	if err != nil {
		return nil, fmt.Errorf("alignment trends: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []AlignmentTrend
	for rows.Next() {
		var tr AlignmentTrend
		if err := rows.Scan(&tr.Date, &tr.AvgAlignment, &tr.BehaviorCount); err != nil {
			return nil, err
		}
		results = append(results, tr)
	}
	return results, rows.Err()
}

// trendWindowExpression builds the SQLite date modifier for a rolling
// window, e.g. 14 → "-14 days".
func trendWindowExpression(days int) string {
	return "-" + strconv.Itoa(days) + " days"
}

// ─── Daily reflection ────────────────────────────────────────────────────────

// SaveReflection upserts a reflection by (date, identity_id): generating a
// second reflection for the same day replaces the prior row. Returns the
// stored row.
func (s *Store) SaveReflection(date, content string, identityID int64) (*DailyReflection, error) {
	res, err := s.db.Exec(
		`INSERT OR REPLACE INTO daily_reflection (date, content, identity_id) VALUES (?, ?, ?)`,
		date, content, identityID,
	)
	if err != nil {
		return nil, fmt.Errorf("save reflection: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("save reflection: %w", err)
	}

	row := s.db.QueryRow(
		`SELECT id, date, content, identity_id, created_at FROM daily_reflection WHERE id = ?`, id,
	)
	var r DailyReflection
	if err := row.Scan(&r.ID, &r.Date, &r.Content, &r.IdentityID, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reflection %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get reflection %d: %w", id, err)
	}
	return &r, nil
}

// ReflectionForDate returns the reflection for one identity and date, or
// (nil, nil) when none exists.
func (s *Store) ReflectionForDate(identityID int64, date string) (*DailyReflection, error) {
	row := s.db.QueryRow(
		`SELECT id, date, content, identity_id, created_at
		 FROM daily_reflection
		 WHERE identity_id = ? AND date = ?`,
		identityID, date,
	)
	var r DailyReflection
	if err := row.Scan(&r.ID, &r.Date, &r.Content, &r.IdentityID, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reflection for date: %w", err)
	}
	return &r, nil
}

// ListReflections returns an identity's reflections, newest date first,
// capped at limit (default 30).
func (s *Store) ListReflections(identityID int64, limit int) ([]DailyReflection, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := s.db.Query(
		`SELECT id, date, content, identity_id, created_at
		 FROM daily_reflection
		 WHERE identity_id = ?
		 ORDER BY date DESC, id DESC
		 LIMIT ?`,
		identityID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []DailyReflection
	for rows.Next() {
		var r DailyReflection
		if err := rows.Scan(&r.ID, &r.Date, &r.Content, &r.IdentityID, &r.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
