package persistence

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MimeLyc/bulk-sub-translator/internal/jobs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore backs the job queue and chunk checkpoints with a single
// sqlite database file.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite is single-writer; one connection avoids lock churn
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var applied int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if applied > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration
// filename ("001_init.sql" gives 1)
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

func (s *SQLiteStore) LoadJobs(ctx context.Context) ([]*jobs.BatchJob, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, origin, fingerprint, media_file, subtitle_file, nfo_file,
		        target_language, chunk_size, state, fail_reason, created_at, updated_at
		 FROM jobs
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]*jobs.BatchJob, 0)
	for rows.Next() {
		var item jobs.BatchJob
		var state string
		if err := rows.Scan(
			&item.ID,
			&item.Origin,
			&item.Fingerprint,
			&item.Spec.MediaFile,
			&item.Spec.SubtitleFile,
			&item.Spec.NFOFile,
			&item.Spec.TargetLanguage,
			&item.Spec.ChunkSize,
			&state,
			&item.FailReason,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		item.State = jobs.State(state)
		ret = append(ret, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *SQLiteStore) UpsertJob(ctx context.Context, job *jobs.BatchJob) error {
	if job == nil {
		return fmt.Errorf("job is nil")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
			id, origin, fingerprint, media_file, subtitle_file, nfo_file,
			target_language, chunk_size, state, fail_reason, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			origin=excluded.origin,
			fingerprint=excluded.fingerprint,
			media_file=excluded.media_file,
			subtitle_file=excluded.subtitle_file,
			nfo_file=excluded.nfo_file,
			target_language=excluded.target_language,
			chunk_size=excluded.chunk_size,
			state=excluded.state,
			fail_reason=excluded.fail_reason,
			updated_at=excluded.updated_at`,
		job.ID,
		job.Origin,
		job.Fingerprint,
		job.Spec.MediaFile,
		job.Spec.SubtitleFile,
		job.Spec.NFOFile,
		job.Spec.TargetLanguage,
		job.Spec.ChunkSize,
		string(job.State),
		job.FailReason,
		job.CreatedAt,
		job.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) DeleteJob(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, jobID)
	return err
}

// DeleteJobData removes the chunk checkpoints of a job
func (s *SQLiteStore) DeleteJobData(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM job_chunk_checkpoints WHERE job_id = ?`, jobID)
	return err
}

func (s *SQLiteStore) SaveChunkCheckpoint(ctx context.Context, jobID string, chunkStart, chunkEnd int, translatedLines []string) error {
	payload, err := json.Marshal(translatedLines)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO job_chunk_checkpoints (job_id, chunk_start, chunk_end, translated_json, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(job_id, chunk_start, chunk_end) DO UPDATE SET
			translated_json=excluded.translated_json,
			updated_at=excluded.updated_at`,
		jobID,
		chunkStart,
		chunkEnd,
		string(payload),
		time.Now().UTC(),
	)
	return err
}

func (s *SQLiteStore) LoadChunkCheckpoints(ctx context.Context, jobID string) ([]ChunkCheckpoint, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT job_id, chunk_start, chunk_end, translated_json, updated_at
		 FROM job_chunk_checkpoints
		 WHERE job_id = ?
		 ORDER BY chunk_start ASC`,
		jobID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]ChunkCheckpoint, 0)
	for rows.Next() {
		var item ChunkCheckpoint
		var translatedJSON string
		if err := rows.Scan(&item.JobID, &item.ChunkStart, &item.ChunkEnd, &translatedJSON, &item.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(translatedJSON), &item.TranslatedLines); err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}
