package ports

import (
	"context"

	"github.com/worktrack/attendance-bot/internal/core/domain"
)

// SessionStore holds per-conversation workflow state. Implementations must
// isolate conversations from each other and must not corrupt a session under
// concurrent mutation; ordering of events within one conversation is the
// dispatcher's job, not the store's.
type SessionStore interface {
	// Get returns the conversation's session, or an idle session with an
	// empty bag when none exists.
	Get(ctx context.Context, conversationID int64) (domain.Session, error)

	// SetState moves the conversation to the given workflow state.
	SetState(ctx context.Context, conversationID int64, state domain.State) error

	// UpdateData merges fields into the data bag, last write wins per key.
	UpdateData(ctx context.Context, conversationID int64, data map[string]string) error

	// Clear resets the conversation to idle and discards the data bag.
	Clear(ctx context.Context, conversationID int64) error
}
