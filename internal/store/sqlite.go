package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/draftmate/draftmate/internal/logging"
	"github.com/draftmate/draftmate/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS email_templates (
	template_id TEXT PRIMARY KEY,
	intent      TEXT NOT NULL,
	tone        TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL,
	meta        TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_templates_pair ON email_templates (intent, tone);

CREATE TABLE IF NOT EXISTS user_profiles (
	user_id    TEXT PRIMARY KEY,
	profile    TEXT NOT NULL DEFAULT '{}',
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS email_summaries (
	user_id       TEXT NOT NULL,
	recipient_key TEXT NOT NULL,
	summary       TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	PRIMARY KEY (user_id, recipient_key)
);
`

// SQLiteStores backs all three store interfaces with a single embedded
// SQLite database. The driver is pure Go; no cgo is required.
type SQLiteStores struct {
	db     *sql.DB
	logger *logging.Logger
}

var (
	_ TemplateStore   = (*SQLiteStores)(nil)
	_ ProfileStore    = (*SQLiteStores)(nil)
	_ ContinuityStore = (*SQLiteStores)(nil)
)

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema. Use ":memory:" for an ephemeral database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStores, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite serializes writes; a single connection avoids SQLITE_BUSY
	// under concurrent turns while reads stay cheap.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStores{
		db:     db,
		logger: logging.GetLogger("store.sqlite"),
	}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStores) Close() error {
	return s.db.Close()
}

// BestTemplate implements TemplateStore. The fallback chain is resolved
// in a single query per candidate pair, exact match first.
func (s *SQLiteStores) BestTemplate(ctx context.Context, intent types.Intent, tone types.Tone) (*Template, error) {
	const q = `SELECT template_id, intent, tone, name, body, meta
		FROM email_templates WHERE intent = ? AND tone = ?
		ORDER BY template_id LIMIT 1`

	for _, pair := range fallbackChain(intent, tone) {
		var tpl Template
		var metaJSON string
		err := s.db.QueryRowContext(ctx, q, pair[0], pair[1]).
			Scan(&tpl.ID, &tpl.Intent, &tpl.Tone, &tpl.Name, &tpl.Body, &metaJSON)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query template for (%s, %s): %w", pair[0], pair[1], err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &tpl.Meta); err != nil {
			s.logger.Warn("Dropping unreadable template meta for %s: %v", tpl.ID, err)
			tpl.Meta = nil
		}
		return &tpl, nil
	}
	return nil, nil
}

// UpsertTemplate implements TemplateStore.
func (s *SQLiteStores) UpsertTemplate(ctx context.Context, tpl Template) error {
	if tpl.ID == "" {
		return errors.New("template id is required")
	}
	meta := tpl.Meta
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode template meta: %w", err)
	}

	const q = `INSERT INTO email_templates (template_id, intent, tone, name, body, meta)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (template_id) DO UPDATE SET
			intent = excluded.intent,
			tone   = excluded.tone,
			name   = excluded.name,
			body   = excluded.body,
			meta   = excluded.meta`
	if _, err := s.db.ExecContext(ctx, q, tpl.ID, string(tpl.Intent), string(tpl.Tone), tpl.Name, tpl.Body, string(metaJSON)); err != nil {
		return fmt.Errorf("failed to upsert template %s: %w", tpl.ID, err)
	}
	return nil
}

// Profile implements ProfileStore.
func (s *SQLiteStores) Profile(ctx context.Context, userID string) (types.Profile, error) {
	const q = `SELECT profile FROM user_profiles WHERE user_id = ?`

	var raw string
	err := s.db.QueryRowContext(ctx, q, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile for %s: %w", userID, err)
	}

	profile := types.Profile{}
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile for %s: %w", userID, err)
	}
	return profile, nil
}

// UpsertProfile implements ProfileStore.
func (s *SQLiteStores) UpsertProfile(ctx context.Context, userID string, profile types.Profile) error {
	if userID == "" {
		return errors.New("user id is required")
	}
	if profile == nil {
		profile = types.Profile{}
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	const q = `INSERT INTO user_profiles (user_id, profile, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			profile    = excluded.profile,
			updated_at = excluded.updated_at`
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, q, userID, string(raw), now); err != nil {
		return fmt.Errorf("failed to upsert profile for %s: %w", userID, err)
	}
	return nil
}

// Summary implements ContinuityStore.
func (s *SQLiteStores) Summary(ctx context.Context, userID, recipientKey string) (*types.Summary, error) {
	const q = `SELECT summary FROM email_summaries WHERE user_id = ? AND recipient_key = ?`

	var raw string
	err := s.db.QueryRowContext(ctx, q, userID, recipientKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query summary for (%s, %s): %w", userID, recipientKey, err)
	}

	var summary types.Summary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary for (%s, %s): %w", userID, recipientKey, err)
	}
	return &summary, nil
}

// Upsert implements ContinuityStore. The composite primary key keeps
// concurrent upserts for distinct pairs independent.
func (s *SQLiteStores) Upsert(ctx context.Context, userID, recipientKey string, summary types.Summary) error {
	if userID == "" || recipientKey == "" {
		return errors.New("user id and recipient key are required")
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	const q = `INSERT INTO email_summaries (user_id, recipient_key, summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, recipient_key) DO UPDATE SET
			summary    = excluded.summary,
			updated_at = excluded.updated_at`
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, q, userID, recipientKey, string(raw), now, now); err != nil {
		return fmt.Errorf("failed to upsert summary for (%s, %s): %w", userID, recipientKey, err)
	}
	return nil
}
