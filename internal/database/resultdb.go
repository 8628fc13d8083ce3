package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/selvaggiesteban/form-tester/internal/model"
)

// ResultDB provides SQLite-based storage for result entries and the
// suppression list. It manages connection pooling and provides methods
// for the operations the pipeline and CLI need.
//
// Design decision: We use a single database file for both results and
// suppressions rather than separate files. The suppression check runs
// inside result processing, so keeping them in one connection avoids a
// second pool and makes backup a single-file copy.
type ResultDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ResultDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ResultDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ResultDB, error) {
	dbPath := filepath.Join(dbDir, "form-tester.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY under concurrent domain processing.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ResultDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *ResultDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *ResultDB) createTables() error {
	schema := `
	-- Result entries record every action taken against a domain
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		domain TEXT NOT NULL,
		action TEXT NOT NULL,
		status TEXT NOT NULL,
		reason_code TEXT NOT NULL,
		reason_description TEXT,
		details TEXT,
		evidence_path TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_results_domain ON results(domain);
	CREATE INDEX IF NOT EXISTS idx_results_timestamp ON results(timestamp);
	CREATE INDEX IF NOT EXISTS idx_results_status ON results(status);

	-- Suppression list: addresses that must never be emailed again
	CREATE TABLE IF NOT EXISTS suppressions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		reason TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_suppressions_email ON suppressions(email);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// InsertResult stores one result entry.
func (rdb *ResultDB) InsertResult(ctx context.Context, entry *model.ResultEntry) (int64, error) {
	query := `
	INSERT INTO results (timestamp, domain, action, status, reason_code, reason_description, details, evidence_path)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := rdb.db.ExecContext(ctx, query,
		entry.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		entry.Domain,
		entry.Action,
		entry.Status,
		string(entry.Code),
		entry.Code.Description(),
		entry.Details,
		entry.EvidencePath,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert result: %w", err)
	}

	return result.LastInsertId()
}

// InsertReport stores every entry of a domain report.
func (rdb *ResultDB) InsertReport(ctx context.Context, report *model.DomainReport) error {
	for i := range report.Entries {
		if _, err := rdb.InsertResult(ctx, &report.Entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// ListResults returns stored result entries, newest first. When domain
// is non-empty, only that domain's entries are returned.
func (rdb *ResultDB) ListResults(ctx context.Context, domain string) ([]model.ResultEntry, error) {
	query := `
	SELECT timestamp, domain, action, status, reason_code, details, evidence_path
	FROM results
	WHERE 1=1
	`
	args := make([]any, 0)

	if domain != "" {
		query += " AND domain = ?"
		args = append(args, domain)
	}

	query += " ORDER BY timestamp DESC, id DESC"

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var entries []model.ResultEntry
	for rows.Next() {
		var entry model.ResultEntry
		var timestamp, code string
		var details, evidence sql.NullString

		err := rows.Scan(
			&timestamp,
			&entry.Domain,
			&entry.Action,
			&entry.Status,
			&code,
			&details,
			&evidence,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}

		entry.Timestamp = parseTimestamp(timestamp)
		entry.Code = model.ReasonCode(code)
		entry.Details = details.String
		entry.EvidencePath = evidence.String
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Suppression is one suppressed email address.
type Suppression struct {
	// Email is the suppressed address, lowercased.
	Email string

	// Reason explains why the address was suppressed, typically a
	// hard-bounce reason code.
	Reason string

	// CreatedAt is when the suppression was recorded.
	CreatedAt time.Time
}

// AddSuppression records an email address that must not be contacted
// again. Re-adding an existing address updates its reason.
func (rdb *ResultDB) AddSuppression(ctx context.Context, email, reason string) error {
	query := `
	INSERT INTO suppressions (email, reason)
	VALUES (?, ?)
	ON CONFLICT(email) DO UPDATE SET
		reason = excluded.reason
	`

	_, err := rdb.db.ExecContext(ctx, query, normalizeEmail(email), reason)
	if err != nil {
		return fmt.Errorf("failed to add suppression: %w", err)
	}

	return nil
}

// IsSuppressed reports whether an email address is on the suppression list.
func (rdb *ResultDB) IsSuppressed(ctx context.Context, email string) (bool, error) {
	query := `SELECT COUNT(*) FROM suppressions WHERE email = ?`

	var count int
	if err := rdb.db.QueryRowContext(ctx, query, normalizeEmail(email)).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check suppression: %w", err)
	}

	return count > 0, nil
}

// RemoveSuppression deletes an address from the suppression list.
// Removing an absent address is not an error.
func (rdb *ResultDB) RemoveSuppression(ctx context.Context, email string) error {
	query := `DELETE FROM suppressions WHERE email = ?`

	if _, err := rdb.db.ExecContext(ctx, query, normalizeEmail(email)); err != nil {
		return fmt.Errorf("failed to remove suppression: %w", err)
	}

	return nil
}

// ListSuppressions returns all suppressed addresses, oldest first.
func (rdb *ResultDB) ListSuppressions(ctx context.Context) ([]Suppression, error) {
	query := `
	SELECT email, reason, created_at FROM suppressions
	ORDER BY created_at ASC, id ASC
	`

	rows, err := rdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppressions: %w", err)
	}
	defer rows.Close()

	var suppressions []Suppression
	for rows.Next() {
		var s Suppression
		var createdAt string

		if err := rows.Scan(&s.Email, &s.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan suppression: %w", err)
		}

		s.CreatedAt = parseTimestamp(createdAt)
		suppressions = append(suppressions, s)
	}

	return suppressions, rows.Err()
}

// normalizeEmail lowercases and trims an address so the UNIQUE
// constraint catches case variants.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
