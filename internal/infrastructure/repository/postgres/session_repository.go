package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
)

// SessionRepository is the append-only tag/plan store. Rows are never
// updated or deleted; append order (the serial id) is history order.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS tag_records (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	tag TEXT NOT NULL,
	idempotency_key TEXT,
	recorded_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tag_records_session ON tag_records(session_id, id);
CREATE UNIQUE INDEX IF NOT EXISTS uniq_tag_records_replay
	ON tag_records(session_id, idempotency_key, tag)
	WHERE idempotency_key IS NOT NULL;

CREATE TABLE IF NOT EXISTS plan_records (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	plan_text TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'ok',
	idempotency_key TEXT,
	recorded_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_plan_records_session ON plan_records(session_id, id);
CREATE UNIQUE INDEX IF NOT EXISTS uniq_plan_records_replay
	ON plan_records(session_id, idempotency_key)
	WHERE idempotency_key IS NOT NULL;
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// AppendTags writes one record per tag, all sharing recordedAt. Duplicate
// calls duplicate rows; only an identical non-empty idempotency key
// suppresses a replay.
func (r *SessionRepository) AppendTags(ctx context.Context, sessionID string, tags []string, recordedAt time.Time, idempotencyKey string) error {
	if sessionID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "append tags", errors.New("empty session id"))
	}
	if len(tags) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "append tags", errors.New("no tags to append"))
	}
	for _, tag := range tags {
		if !domain.IsShapeTag(tag) && tag != domain.UnknownTag {
			return domain.WrapError(domain.ErrInvalidInput, "append tags", fmt.Errorf("tag %q is not in the shape vocabulary", tag))
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tags tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, tag := range tags {
		_, err := tx.ExecContext(ctx, `
INSERT INTO tag_records (session_id, tag, idempotency_key, recorded_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (session_id, idempotency_key, tag) WHERE idempotency_key IS NOT NULL DO NOTHING
`, sessionID, tag, nullableString(idempotencyKey), recordedAt)
		if err != nil {
			return fmt.Errorf("insert tag record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append tags tx: %w", err)
	}
	return nil
}

func (r *SessionRepository) AppendPlan(ctx context.Context, sessionID, planText string, status domain.PlanStatus, recordedAt time.Time, idempotencyKey string) error {
	if sessionID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "append plan", errors.New("empty session id"))
	}
	if status == "" {
		status = domain.PlanStatusOK
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO plan_records (session_id, plan_text, status, idempotency_key, recorded_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (session_id, idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING
`, sessionID, planText, string(status), nullableString(idempotencyKey), recordedAt)
	if err != nil {
		return fmt.Errorf("insert plan record: %w", err)
	}
	return nil
}

func (r *SessionRepository) TagsFor(ctx context.Context, sessionID string) ([]domain.TagRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, session_id, tag, recorded_at
FROM tag_records
WHERE session_id = $1
ORDER BY id ASC
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list tag records: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TagRecord, 0)
	for rows.Next() {
		var rec domain.TagRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Tag, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan tag record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag records: %w", err)
	}
	return out, nil
}

func (r *SessionRepository) PlansFor(ctx context.Context, sessionID string) ([]domain.PlanRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, session_id, plan_text, status, recorded_at
FROM plan_records
WHERE session_id = $1
ORDER BY id ASC
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list plan records: %w", err)
	}
	defer rows.Close()

	out := make([]domain.PlanRecord, 0)
	for rows.Next() {
		var rec domain.PlanRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.PlanText, &status, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan plan record: %w", err)
		}
		rec.Status = domain.PlanStatus(status)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan records: %w", err)
	}
	return out, nil
}

// TagFrequency counts the session's tag history in Go rather than SQL so
// the first-seen tie-break stays deterministic.
func (r *SessionRepository) TagFrequency(ctx context.Context, sessionID string) ([]domain.TagCount, error) {
	records, err := r.TagsFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return domain.CountTags(records), nil
}

func (r *SessionRepository) HasTags(ctx context.Context, sessionID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM tag_records WHERE session_id = $1)`, sessionID)
}

func (r *SessionRepository) HasPlans(ctx context.Context, sessionID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM plan_records WHERE session_id = $1)`, sessionID)
}

func (r *SessionRepository) exists(ctx context.Context, query, sessionID string) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&found); err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	return found, nil
}

func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
