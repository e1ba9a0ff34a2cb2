package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action kinds recorded per dispatch.
const (
	ActionReply = "reply"
	ActionDM    = "dm"
)

// Entry is one recorded dispatch action.
type Entry struct {
	ID         string
	DeliveryID string
	CommentID  string
	PostID     string
	Username   string
	Action     string
	Success    bool
	Detail     string
	CreatedAt  time.Time
}

// DeliveryLog records dispatch action outcomes.
type DeliveryLog struct {
	db *sql.DB
}

// NewDeliveryLog wraps an opened database.
func NewDeliveryLog(db *sql.DB) *DeliveryLog {
	return &DeliveryLog{db: db}
}

// Record inserts one action outcome.
func (l *DeliveryLog) Record(ctx context.Context, e Entry) error {
	if e.Action != ActionReply && e.Action != ActionDM {
		return fmt.Errorf("unknown action %q", e.Action)
	}

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := l.db.ExecContext(ctx, `
INSERT INTO delivery_log(id, delivery_id, comment_id, post_id, username, action, success, detail, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?);
`, id, e.DeliveryID, e.CommentID, e.PostID, e.Username, e.Action, boolToInt(e.Success), e.Detail, now)
	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (l *DeliveryLog) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx, `
SELECT id, delivery_id, comment_id, post_id, username, action, success, detail, created_at
FROM delivery_log
ORDER BY created_at DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query delivery log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			success   int
			detail    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.DeliveryID, &e.CommentID, &e.PostID, &e.Username,
			&e.Action, &success, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan delivery log: %w", err)
		}
		e.Success = success != 0
		if detail.Valid {
			e.Detail = detail.String
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
