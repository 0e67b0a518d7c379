package domain

import "strings"

// EventKind distinguishes the transport event shapes the core routes on.
type EventKind int

const (
	KindMessage EventKind = iota
	KindCallback
)

// Event is one inbound transport event, already stripped of transport
// specifics. ConversationID is the opaque transport-assigned identity: it
// keys the session store and the identity lookup.
type Event struct {
	Kind           EventKind
	ConversationID int64
	MessageID      int

	// Text carries the message body for KindMessage events.
	Text string

	// CallbackID and CallbackData describe inline selections for
	// KindCallback events.
	CallbackID   string
	CallbackData string
}

// IsCommand reports whether a message event carries a slash command.
func (e Event) IsCommand() bool {
	return e.Kind == KindMessage && strings.HasPrefix(strings.TrimSpace(e.Text), "/")
}

// Command returns the bare command name ("/start" → "start"), or "" when the
// event is not a command.
func (e Event) Command() string {
	if !e.IsCommand() {
		return ""
	}
	cmd := strings.Fields(strings.TrimSpace(e.Text))[0]
	cmd = strings.TrimPrefix(cmd, "/")
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}

// EventContext is the enriched, per-event view handed to the router and step
// handlers. Built once by the enrichment stage, read-only afterwards.
type EventContext struct {
	Event         Event
	Employee      *Employee
	Authenticated bool
	Admin         bool
}
