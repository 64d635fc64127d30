// Package sqlite persists escalation tickets for human operators.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/ports"
	_ "github.com/mattn/go-sqlite3"
)

const defaultListLimit = 50

const schemaSQL = `
CREATE TABLE IF NOT EXISTS escalations (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id     TEXT NOT NULL,
	category       TEXT NOT NULL,
	priority       TEXT NOT NULL,
	customer_email TEXT NOT NULL,
	payload        TEXT NOT NULL,
	created_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_escalations_session ON escalations (session_id);
`

var _ ports.EscalationQueue = (*Queue)(nil)

// Queue implements ports.EscalationQueue on a SQLite database.
type Queue struct {
	db *sql.DB
}

// Open creates the database file and its parent directory when missing.
// ":memory:" opens a private in-memory queue.
func Open(path string) (*Queue, error) {
	if path == "" {
		return nil, errors.New("escalation queue path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create escalation queue directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open escalation queue: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, errors.Join(fmt.Errorf("initialize escalation schema: %w", err), db.Close())
	}

	return &Queue{db: db}, nil
}

func (q *Queue) Close() error {
	return q.db.Close()
}

// Publish records one escalation ticket.
func (q *Queue) Publish(ctx context.Context, sessionID string, payload domain.EscalationPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode escalation payload: %w", err)
	}

	createdAt := payload.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = q.db.ExecContext(ctx,
		`INSERT INTO escalations (session_id, category, priority, customer_email, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, string(payload.Category), string(payload.Priority), payload.CustomerEmail,
		string(raw), createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert escalation: %w", err)
	}

	return nil
}

// List returns the newest tickets first.
func (q *Queue) List(ctx context.Context, limit int) ([]ports.EscalationTicket, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := q.db.QueryContext(ctx,
		"SELECT id, session_id, payload FROM escalations ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query escalations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tickets []ports.EscalationTicket
	for rows.Next() {
		var (
			ticket ports.EscalationTicket
			raw    string
		)
		if err := rows.Scan(&ticket.ID, &ticket.SessionID, &raw); err != nil {
			return nil, fmt.Errorf("scan escalation: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &ticket.Payload); err != nil {
			return nil, fmt.Errorf("decode escalation %d: %w", ticket.ID, err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate escalations: %w", err)
	}

	return tickets, nil
}
