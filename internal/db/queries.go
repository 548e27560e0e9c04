package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abdulachik/crossbot/internal/account"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// DBTX is the subset of *sql.DB and *sql.Tx the queries need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the prepared query layer.
type Queries struct {
	db DBTX
}

// New creates a query layer on top of db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// CreateAccount inserts acct and fills in its ID and timestamps.
func (q *Queries) CreateAccount(ctx context.Context, acct *account.Account) error {
	settings, err := json.Marshal(acct.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	now := time.Now().UTC()
	result, err := q.db.ExecContext(ctx, `
		INSERT INTO accounts (platform, name, encrypted_token, settings, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, string(acct.Platform), acct.Name, acct.EncryptedToken, string(settings), acct.Active, now, now)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("account id: %w", err)
	}
	acct.ID = id
	acct.CreatedAt = now
	acct.UpdatedAt = now
	return nil
}

// GetAccount returns one account by ID, ErrNotFound if it doesn't exist.
func (q *Queries) GetAccount(ctx context.Context, id int64) (*account.Account, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, platform, name, encrypted_token, settings, active, created_at, updated_at
		FROM accounts WHERE id = ?
	`, id)
	return scanAccount(row)
}

// ListAccounts returns every account ordered by platform then name.
func (q *Queries) ListAccounts(ctx context.Context) ([]*account.Account, error) {
	return q.listAccounts(ctx, `
		SELECT id, platform, name, encrypted_token, settings, active, created_at, updated_at
		FROM accounts ORDER BY platform, name
	`)
}

// ListActiveAccounts returns the accounts eligible for dispatch.
func (q *Queries) ListActiveAccounts(ctx context.Context) ([]*account.Account, error) {
	return q.listAccounts(ctx, `
		SELECT id, platform, name, encrypted_token, settings, active, created_at, updated_at
		FROM accounts WHERE active = 1 ORDER BY platform, name
	`)
}

func (q *Queries) listAccounts(ctx context.Context, query string, args ...any) ([]*account.Account, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

// UpdateAccount stores the mutable fields of acct back to the database.
func (q *Queries) UpdateAccount(ctx context.Context, acct *account.Account) error {
	settings, err := json.Marshal(acct.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	now := time.Now().UTC()
	result, err := q.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, encrypted_token = ?, settings = ?, active = ?, updated_at = ?
		WHERE id = ?
	`, acct.Name, acct.EncryptedToken, string(settings), acct.Active, now, acct.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	acct.UpdatedAt = now
	return nil
}

// SetAccountActive flips the active flag on one account.
func (q *Queries) SetAccountActive(ctx context.Context, id int64, active bool) error {
	result, err := q.db.ExecContext(ctx, `
		UPDATE accounts SET active = ?, updated_at = ? WHERE id = ?
	`, active, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set account active: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAccount removes one account and its statistics.
func (q *Queries) DeleteAccount(ctx context.Context, id int64) error {
	result, err := q.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*account.Account, error) {
	var acct account.Account
	var platform, settings string
	err := row.Scan(&acct.ID, &platform, &acct.Name, &acct.EncryptedToken,
		&settings, &acct.Active, &acct.CreatedAt, &acct.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}

	acct.Platform = account.Platform(platform)
	if err := json.Unmarshal([]byte(settings), &acct.Settings); err != nil {
		return nil, fmt.Errorf("decode settings for account %d: %w", acct.ID, err)
	}
	return &acct, nil
}

// Post statuses. A journaled post starts pending and ends in one of the
// terminal states once its dispatch batch finishes.
const (
	PostStatusPending = "pending"
	PostStatusPosted  = "posted"
	PostStatusPartial = "partial"
	PostStatusFailed  = "failed"
)

// JournalEntry is one source post already seen and dispatched. The
// journal is what keeps the poller from re-dispatching the same post.
type JournalEntry struct {
	ID           int64
	Source       string
	SourcePostID string
	Text         string
	MediaURLs    []string
	Status       string
	CreatedAt    time.Time
}

// RecordPost journals a source post. Recording the same (source, id)
// pair twice is an error; check HasPost first.
func (q *Queries) RecordPost(ctx context.Context, source, sourcePostID, text string, mediaURLs []string) (int64, error) {
	if mediaURLs == nil {
		mediaURLs = []string{}
	}
	urls, err := json.Marshal(mediaURLs)
	if err != nil {
		return 0, fmt.Errorf("encode media urls: %w", err)
	}

	result, err := q.db.ExecContext(ctx, `
		INSERT INTO posts (source, source_post_id, text, media_urls, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, source, sourcePostID, text, string(urls), PostStatusPending, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("record post: %w", err)
	}
	return result.LastInsertId()
}

// HasPost reports whether a source post is already journaled.
func (q *Queries) HasPost(ctx context.Context, source, sourcePostID string) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx,
		"SELECT 1 FROM posts WHERE source = ? AND source_post_id = ?",
		source, sourcePostID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check post: %w", err)
	}
	return true, nil
}

// UpdatePostStatus moves a journaled post to a new status.
func (q *Queries) UpdatePostStatus(ctx context.Context, id int64, status string) error {
	result, err := q.db.ExecContext(ctx, "UPDATE posts SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("update post status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRecentPosts returns the newest journal entries, newest first.
func (q *Queries) ListRecentPosts(ctx context.Context, limit int64) ([]JournalEntry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, source, source_post_id, text, media_urls, status, created_at
		FROM posts ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var urls string
		if err := rows.Scan(&e.ID, &e.Source, &e.SourcePostID, &e.Text, &urls, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		if err := json.Unmarshal([]byte(urls), &e.MediaURLs); err != nil {
			return nil, fmt.Errorf("decode media urls for post %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpsertStatistic bumps the per-account counter for one calendar date
// (formatted YYYY-MM-DD).
func (q *Queries) UpsertStatistic(ctx context.Context, accountID int64, date string, succeeded bool) error {
	ok, failed := 0, 1
	if succeeded {
		ok, failed = 1, 0
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO statistics (account_id, date, posts_ok, posts_failed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id, date) DO UPDATE SET
			posts_ok = posts_ok + excluded.posts_ok,
			posts_failed = posts_failed + excluded.posts_failed
	`, accountID, date, ok, failed)
	if err != nil {
		return fmt.Errorf("upsert statistic: %w", err)
	}
	return nil
}

// AccountStats is the per-account dispatch total over some period.
type AccountStats struct {
	AccountID   int64
	AccountName string
	Platform    account.Platform
	PostsOK     int64
	PostsFailed int64
}

// StatsSince sums statistics per account from the given date (inclusive,
// YYYY-MM-DD; empty means all time).
func (q *Queries) StatsSince(ctx context.Context, since string) ([]AccountStats, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.platform,
		       COALESCE(SUM(s.posts_ok), 0), COALESCE(SUM(s.posts_failed), 0)
		FROM accounts a
		LEFT JOIN statistics s ON s.account_id = a.id AND (? = '' OR s.date >= ?)
		GROUP BY a.id, a.name, a.platform
		ORDER BY a.platform, a.name
	`, since, since)
	if err != nil {
		return nil, fmt.Errorf("query statistics: %w", err)
	}
	defer rows.Close()

	var stats []AccountStats
	for rows.Next() {
		var s AccountStats
		var platform string
		if err := rows.Scan(&s.AccountID, &s.AccountName, &platform, &s.PostsOK, &s.PostsFailed); err != nil {
			return nil, fmt.Errorf("scan statistic: %w", err)
		}
		s.Platform = account.Platform(platform)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
