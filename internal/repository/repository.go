package repository

import (
	"context"

	"relay-chat/internal/model"
)

// SessionStore keeps the live sessions of the process. Sessions are never
// written anywhere durable.
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, sessionID string) (*model.Session, error)
	Delete(ctx context.Context, sessionID string) error
	Count(ctx context.Context) int
}

// DebugRepository stores troubleshooting records of chat API exchanges.
type DebugRepository interface {
	SaveEntry(ctx context.Context, entry *model.DebugEntry) error
	ListEntries(ctx context.Context, sessionID string, limit int) ([]model.DebugEntry, error)
	DeleteSession(ctx context.Context, sessionID string) error
}
