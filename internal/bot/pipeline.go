package bot

import (
	"context"

	"github.com/worktrack/attendance-bot/internal/core/domain"
	"github.com/worktrack/attendance-bot/internal/core/ports"
	"github.com/worktrack/attendance-bot/internal/core/service"
)

// Pipeline is the per-event processing chain: context enrichment first, then
// routing. It implements ports.EventProcessor for the queue dispatcher and is
// the only path into the router, so enrichment cannot be bypassed.
type Pipeline struct {
	enricher *service.Enricher
	router   *Router
}

var _ ports.EventProcessor = (*Pipeline)(nil)

// NewPipeline chains the enrichment stage and the router.
func NewPipeline(enricher *service.Enricher, router *Router) *Pipeline {
	return &Pipeline{enricher: enricher, router: router}
}

// Process enriches one inbound event and dispatches it.
func (p *Pipeline) Process(ctx context.Context, ev domain.Event) error {
	ec := p.enricher.Enrich(ctx, ev)
	return p.router.Dispatch(ctx, &ec)
}
