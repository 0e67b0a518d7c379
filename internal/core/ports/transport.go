package ports

import (
	"context"

	"github.com/worktrack/attendance-bot/internal/core/domain"
)

// Sender is the outbound half of the chat transport. Step handlers emit
// reply intents through it; the binding owns rendering and delivery.
type Sender interface {
	Send(ctx context.Context, conversationID int64, reply domain.Reply) error

	// Delete removes a message from the visible transcript.
	Delete(ctx context.Context, conversationID int64, messageID int) error

	// SendDocument delivers the file at path as a named attachment.
	SendDocument(ctx context.Context, conversationID int64, path string) error

	// AckCallback acknowledges an inline selection, optionally with a
	// short notice.
	AckCallback(ctx context.Context, callbackID, notice string) error
}

// EventProcessor consumes one inbound event end-to-end: enrichment, routing,
// handler execution. The queue dispatcher feeds it.
type EventProcessor interface {
	Process(ctx context.Context, event domain.Event) error
}
