// Package bot contains the workflow engine: the route table, the two state
// machines (authentication and overtime registration), and the stateless
// staff actions. Handlers read and write session state through the injected
// store and talk to the outside world only through the ports interfaces.
package bot

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/worktrack/attendance-bot/internal/api/metrics"
	"github.com/worktrack/attendance-bot/internal/core/domain"
	"github.com/worktrack/attendance-bot/internal/core/ports"
)

// Handler is one step handler bound to a (event shape, state) pair.
type Handler func(ctx context.Context, ec *domain.EventContext, sess domain.Session) error

// Predicate decides whether a route matches the enriched event and the
// conversation's current session.
type Predicate func(ec *domain.EventContext, sess domain.Session) bool

type route struct {
	name   string
	match  Predicate
	handle Handler
}

// Router dispatches each enriched event to the first matching route in
// registration order. Events matching no route are silently dropped.
type Router struct {
	sessions ports.SessionStore
	routes   []route
	log      zerolog.Logger
}

// NewRouter returns a Router reading session state from the given store.
func NewRouter(sessions ports.SessionStore, log zerolog.Logger) *Router {
	return &Router{sessions: sessions, log: log}
}

// Handle registers a route. Registration order is priority order:
// cancellation and escape routes for a state must be registered ahead of
// that state's generic input step, or a literal "cancel" would be consumed
// as input.
func (r *Router) Handle(name string, match Predicate, handle Handler) {
	r.routes = append(r.routes, route{name: name, match: match, handle: handle})
}

// Dispatch looks up the conversation's session and invokes the first
// matching handler. A handler error is logged and counted but never fatal;
// the event loop keeps serving other conversations.
func (r *Router) Dispatch(ctx context.Context, ec *domain.EventContext) error {
	sess, err := r.sessions.Get(ctx, ec.Event.ConversationID)
	if err != nil {
		r.log.Error().Err(err).
			Int64("conversation_id", ec.Event.ConversationID).
			Msg("session lookup failed")
		return err
	}

	for _, rt := range r.routes {
		if !rt.match(ec, sess) {
			continue
		}
		r.log.Debug().
			Str("route", rt.name).
			Int64("conversation_id", ec.Event.ConversationID).
			Str("state", string(sess.State)).
			Msg("dispatching event")
		if err := rt.handle(ctx, ec, sess); err != nil {
			metrics.HandlerErrorsTotal.WithLabelValues(rt.name).Inc()
			r.log.Error().Err(err).
				Str("route", rt.name).
				Int64("conversation_id", ec.Event.ConversationID).
				Msg("handler failed")
			return err
		}
		return nil
	}

	metrics.EventsDroppedTotal.Inc()
	r.log.Debug().
		Int64("conversation_id", ec.Event.ConversationID).
		Str("state", string(sess.State)).
		Msg("event matched no route, dropped")
	return nil
}

// ── Predicate combinators ────────────────────────────────────────────────────

func all(ps ...Predicate) Predicate {
	return func(ec *domain.EventContext, sess domain.Session) bool {
		for _, p := range ps {
			if !p(ec, sess) {
				return false
			}
		}
		return true
	}
}

// onCommand matches a message event carrying the given slash command.
func onCommand(name string) Predicate {
	return func(ec *domain.EventContext, _ domain.Session) bool {
		return ec.Event.Command() == name
	}
}

// onText matches a message whose trimmed text equals the given label.
func onText(label string) Predicate {
	return func(ec *domain.EventContext, _ domain.Session) bool {
		return ec.Event.Kind == domain.KindMessage && strings.TrimSpace(ec.Event.Text) == label
	}
}

// anyText matches any non-empty message.
func anyText() Predicate {
	return func(ec *domain.EventContext, _ domain.Session) bool {
		return ec.Event.Kind == domain.KindMessage && strings.TrimSpace(ec.Event.Text) != ""
	}
}

// onCallback matches an inline selection with the exact payload.
func onCallback(data string) Predicate {
	return func(ec *domain.EventContext, _ domain.Session) bool {
		return ec.Event.Kind == domain.KindCallback && ec.Event.CallbackData == data
	}
}

// onCallbackPrefix matches an inline selection whose payload starts with
// the given prefix.
func onCallbackPrefix(prefix string) Predicate {
	return func(ec *domain.EventContext, _ domain.Session) bool {
		return ec.Event.Kind == domain.KindCallback && strings.HasPrefix(ec.Event.CallbackData, prefix)
	}
}

// inState matches when the conversation is in the given workflow state.
func inState(state domain.State) Predicate {
	return func(_ *domain.EventContext, sess domain.Session) bool {
		return sess.State == state
	}
}

// inAnyState matches any of the given workflow states.
func inAnyState(states ...domain.State) Predicate {
	return func(_ *domain.EventContext, sess domain.Session) bool {
		for _, st := range states {
			if sess.State == st {
				return true
			}
		}
		return false
	}
}

// idle matches when no workflow is in flight.
func idle() Predicate {
	return func(_ *domain.EventContext, sess domain.Session) bool {
		return sess.Idle()
	}
}

// adminOnly is a role requirement: a caller lacking the admin role makes the
// route a no-match, falling through to lower-priority routes or to a silent
// drop. It never produces an error or a reply by itself.
func adminOnly() Predicate {
	return func(ec *domain.EventContext, _ domain.Session) bool {
		return ec.Admin
	}
}
