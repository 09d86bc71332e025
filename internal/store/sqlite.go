package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-research-pipeline/internal/model"
)

// fixed-width so that text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite keeps cache entries and the run log in one sqlite database.
// Each Store is a single upsert inside a transaction.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at dbPath.
func OpenSQLite(dbPath string) (*SQLite, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create cache dir: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// one connection keeps :memory: databases coherent and writes serialized
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	entryTable := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		topic TEXT PRIMARY KEY,
		report TEXT NOT NULL,
		records TEXT,
		has_records INTEGER NOT NULL,
		run_id TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	runTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		topic TEXT,
		status TEXT,
		error TEXT,
		started_at TEXT,
		finished_at TEXT
	);
	`
	stageTable := `
	CREATE TABLE IF NOT EXISTS stage_progress (
		run_id TEXT,
		stage TEXT,
		status TEXT,
		started_at TEXT,
		finished_at TEXT,
		output_chars INTEGER,
		error TEXT,
		PRIMARY KEY (run_id, stage)
	);
	`
	for _, ddl := range []string{entryTable, runTable, stageTable} {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLite) Lookup(ctx context.Context, topic string) (*model.CacheEntry, error) {
	var reportJSON, createdAt, updatedAt string
	var recordsJSON, runID sql.NullString
	var hasRecords bool

	err := s.db.QueryRowContext(ctx,
		`SELECT report, records, has_records, run_id, created_at, updated_at FROM cache_entries WHERE topic = ?`, topic).
		Scan(&reportJSON, &recordsJSON, &hasRecords, &runID, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entry := &model.CacheEntry{Topic: topic, HasRecords: hasRecords, RunID: runID.String}
	if err := json.Unmarshal([]byte(reportJSON), &entry.Report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if recordsJSON.Valid {
		if entry.Records, err = decodeRecords([]byte(recordsJSON.String)); err != nil {
			return nil, err
		}
	}
	entry.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	entry.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return entry, nil
}

func (s *SQLite) Store(ctx context.Context, entry *model.CacheEntry) error {
	reportJSON, err := json.Marshal(entry.Report)
	if err != nil {
		return err
	}
	var recordsJSON sql.NullString
	if entry.Records != nil {
		b, err := json.Marshal(entry.Records)
		if err != nil {
			return err
		}
		recordsJSON = sql.NullString{String: string(b), Valid: true}
	}

	now := time.Now().UTC()
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = entry.UpdatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cache_entries (topic, report, records, has_records, run_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(topic) DO UPDATE SET
			report = excluded.report,
			records = excluded.records,
			has_records = excluded.has_records,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at`,
		entry.Topic, string(reportJSON), recordsJSON, entry.HasRecords, entry.RunID,
		entry.CreatedAt.UTC().Format(timeLayout), entry.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) List(ctx context.Context) ([]model.CacheSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT topic, report, records, has_records, updated_at FROM cache_entries ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CacheSummary
	for rows.Next() {
		var topic, reportJSON, updatedAt string
		var recordsJSON sql.NullString
		var hasRecords bool
		if err := rows.Scan(&topic, &reportJSON, &recordsJSON, &hasRecords, &updatedAt); err != nil {
			return nil, err
		}
		entry := &model.CacheEntry{Topic: topic, HasRecords: hasRecords}
		if err := json.Unmarshal([]byte(reportJSON), &entry.Report); err != nil {
			return nil, fmt.Errorf("decode report for %q: %w", topic, err)
		}
		if recordsJSON.Valid {
			if entry.Records, err = decodeRecords([]byte(recordsJSON.String)); err != nil {
				return nil, err
			}
		}
		entry.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
		out = append(out, Summarize(entry))
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error { return s.db.Close() }

// ------------------- Run log -------------------

func (s *SQLite) StartRun(ctx context.Context, run model.RunInfo) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, topic, status, error, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Topic, run.Status, run.Error, run.StartedAt.UTC().Format(timeLayout), formatTimePtr(run.FinishedAt))
	return err
}

func (s *SQLite) FinishRun(ctx context.Context, runID, status, errMsg string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, errMsg, at.UTC().Format(timeLayout), runID)
	return err
}

func (s *SQLite) SaveStageProgress(ctx context.Context, runID string, p model.StageProgress) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stage_progress (run_id, stage, status, started_at, finished_at, output_chars, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, stage) DO UPDATE SET
			status = excluded.status,
			finished_at = excluded.finished_at,
			output_chars = excluded.output_chars,
			error = excluded.error`,
		runID, p.Stage, p.Status, p.StartedAt.UTC().Format(timeLayout), formatTimePtr(p.FinishedAt), p.OutputChars, p.Error)
	return err
}

// ListRuns returns the most recent runs first, each with its stages.
func (s *SQLite) ListRuns(ctx context.Context, limit int) ([]model.RunInfo, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, status, error, started_at, finished_at FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	var runs []model.RunInfo
	for rows.Next() {
		var run model.RunInfo
		var errMsg, finished sql.NullString
		var started string
		if err := rows.Scan(&run.ID, &run.Topic, &run.Status, &errMsg, &started, &finished); err != nil {
			rows.Close()
			return nil, err
		}
		run.Error = errMsg.String
		run.StartedAt, _ = time.Parse(timeLayout, started)
		run.FinishedAt = parseTimePtr(finished)
		runs = append(runs, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		stages, err := s.stagesFor(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Stages = stages
	}
	return runs, nil
}

func (s *SQLite) stagesFor(ctx context.Context, runID string) ([]model.StageProgress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, status, started_at, finished_at, output_chars, error FROM stage_progress WHERE run_id = ? ORDER BY started_at`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StageProgress
	for rows.Next() {
		var p model.StageProgress
		var started string
		var finished, errMsg sql.NullString
		if err := rows.Scan(&p.Stage, &p.Status, &started, &finished, &p.OutputChars, &errMsg); err != nil {
			return nil, err
		}
		p.StartedAt, _ = time.Parse(timeLayout, started)
		p.FinishedAt = parseTimePtr(finished)
		p.Error = errMsg.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func decodeRecords(b []byte) ([]model.ExtractedRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var records []model.ExtractedRecord
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}
