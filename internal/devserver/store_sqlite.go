package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/util"
	_ "modernc.org/sqlite"
)

const timestampLayout = "2006-01-02T15:04:05.000000"

const schema = `
CREATE TABLE IF NOT EXISTS event_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	team TEXT NOT NULL,
	event_type TEXT NOT NULL,
	payload TEXT,
	result TEXT,
	timestamp TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS workflows (
	name TEXT PRIMARY KEY,
	document TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	document TEXT NOT NULL
);`

// SQLiteStore persists history, workflows and settings in a SQLite file
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteStore opens (creating if needed) the database at path. Use
// ":memory:" for a throwaway database.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = util.ExpandPath(path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) RecordEvent(ctx context.Context, rec model.ActivityRecord) (model.ActivityRecord, error) {
	if rec.Timestamp == "" {
		rec.Timestamp = s.now().UTC().Format(timestampLayout)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO event_history (team, event_type, payload, result, timestamp) VALUES (?, ?, ?, ?, ?)`,
		rec.Team, rec.EventType, nullableJSON(rec.Payload), nullableJSON(rec.Result), rec.Timestamp)
	if err != nil {
		return rec, fmt.Errorf("failed to record event: %w", err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return rec, fmt.Errorf("failed to read event id: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) History(ctx context.Context, limit, offset int) ([]model.ActivityRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, team, event_type, payload, result, timestamp FROM event_history ORDER BY id DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	out := make([]model.ActivityRecord, 0, limit)
	for rows.Next() {
		var (
			rec             model.ActivityRecord
			payload, result sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Team, &rec.EventType, &payload, &result, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if payload.Valid {
			rec.Payload = []byte(payload.String)
		}
		if result.Valid {
			rec.Result = []byte(result.String)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveWorkflow(ctx context.Context, wf model.Workflow) (string, error) {
	doc, err := sonic.MarshalString(wf)
	if err != nil {
		return "", fmt.Errorf("failed to encode workflow: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workflows (name, document, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		wf.Name, doc, s.now().UTC().Format(timestampLayout))
	if err != nil {
		return "", fmt.Errorf("failed to save workflow: %w", err)
	}
	return "sqlite://workflows/" + wf.Name, nil
}

func (s *SQLiteStore) LoadWorkflow(ctx context.Context, name string) (*model.Workflow, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM workflows WHERE name = ?`, name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWorkflowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}

	var wf model.Workflow
	if err := sonic.UnmarshalString(doc, &wf); err != nil {
		return nil, fmt.Errorf("failed to decode workflow %s: %w", name, err)
	}
	return &wf, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, settings model.Settings) error {
	doc, err := sonic.MarshalString(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (id, document) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET document = excluded.document`, doc)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Settings(ctx context.Context) (*model.Settings, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM settings WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.Settings{DisabledTeams: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	var settings model.Settings
	if err := sonic.UnmarshalString(doc, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &settings, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullableJSON(raw []byte) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}
