package domain

import (
	"context"
	"time"
)

// AuditEntry records one enforcement decision. Message bodies are
// intentionally absent: deleting a message and persisting it elsewhere
// would defeat the deletion.
type AuditEntry struct {
	ID        int64
	Channel   string
	ChatID    int64
	SenderID  int64
	Source    string // verdict source that triggered the action
	Term      string
	Outcome   string // deleted | delete_failed | warned | warn_failed
	CreatedAt time.Time
}

// AuditStore persists enforcement decisions.
type AuditStore interface {
	Record(ctx context.Context, entry AuditEntry) error
	Recent(ctx context.Context, limit int) ([]AuditEntry, error)
	Close() error
}
