package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of a pgx connection the recorder needs.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
}

const createActivityTable = `
CREATE TABLE IF NOT EXISTS sweeper_activity (
	id          UUID PRIMARY KEY,
	action      TEXT        NOT NULL,
	severity    TEXT        NOT NULL,
	session_id  TEXT        NOT NULL,
	file_name   TEXT        NOT NULL,
	rows        INTEGER     NOT NULL DEFAULT 0,
	detail      TEXT,
	ip_address  TEXT,
	user_agent  TEXT,
	created_at  TIMESTAMPTZ NOT NULL
)`

const insertActivity = `
INSERT INTO sweeper_activity
	(id, action, severity, session_id, file_name, rows, detail, ip_address, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// PGRecorder stores events in the sweeper_activity table.
type PGRecorder struct {
	db DBTX
}

// NewPGRecorder creates a recorder on db. Call EnsureSchema once at startup.
func NewPGRecorder(db DBTX) *PGRecorder {
	return &PGRecorder{db: db}
}

// EnsureSchema creates the activity table if it does not exist.
func (r *PGRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createActivityTable); err != nil {
		return fmt.Errorf("create sweeper_activity: %w", err)
	}
	return nil
}

// Record implements Recorder.
func (r *PGRecorder) Record(ctx context.Context, ev Event) error {
	var id pgtype.UUID
	if err := id.Scan(ev.ID); err != nil {
		return fmt.Errorf("activity id %q: %w", ev.ID, err)
	}

	_, err := r.db.Exec(ctx, insertActivity,
		id,
		string(ev.Action),
		string(ev.Severity),
		ev.SessionID,
		ev.FileName,
		ev.Rows,
		toPgText(ev.Detail),
		toPgText(ev.IPAddress),
		toPgText(ev.UserAgent),
		ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// toPgText stores empty strings as NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
