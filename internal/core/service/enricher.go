package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/worktrack/attendance-bot/internal/core/domain"
	"github.com/worktrack/attendance-bot/internal/core/ports"
)

// Enricher is the per-event context enrichment stage. It resolves the
// conversation identity through the backend before routing; no handler runs
// without it.
type Enricher struct {
	backend ports.Backend
	log     zerolog.Logger
}

// NewEnricher returns an Enricher backed by the given directory service.
func NewEnricher(backend ports.Backend, log zerolog.Logger) *Enricher {
	return &Enricher{backend: backend, log: log}
}

// Enrich resolves the caller's account and builds the immutable event
// context. A resolver failure degrades to an anonymous context instead of
// dropping the event; that fail-open decision lives only here.
func (e *Enricher) Enrich(ctx context.Context, ev domain.Event) domain.EventContext {
	emp, err := e.backend.LookupByIdentity(ctx, ev.ConversationID)
	if err != nil {
		e.log.Warn().Err(err).
			Int64("conversation_id", ev.ConversationID).
			Msg("identity lookup failed, proceeding as anonymous")
		emp = nil
	}

	return domain.EventContext{
		Event:         ev,
		Employee:      emp,
		Authenticated: emp != nil,
		Admin:         emp.IsAdmin(),
	}
}
