package bot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/worktrack/attendance-bot/internal/core/domain"
	"github.com/worktrack/attendance-bot/internal/core/ports"
)

// reservedCommands are control strings never consumed as workflow input.
var reservedCommands = map[string]bool{
	"start": true,
	"help":  true,
}

func isReservedCommand() Predicate {
	return func(ec *domain.EventContext, _ domain.Session) bool {
		return reservedCommands[ec.Event.Command()]
	}
}

// AuthFlow implements the authentication state machine:
// idle → awaiting-login → awaiting-password → idle.
type AuthFlow struct {
	backend  ports.Backend
	sessions ports.SessionStore
	sender   ports.Sender
	log      zerolog.Logger
}

func NewAuthFlow(backend ports.Backend, sessions ports.SessionStore, sender ports.Sender, log zerolog.Logger) *AuthFlow {
	return &AuthFlow{backend: backend, sessions: sessions, sender: sender, log: log}
}

// Start handles /start in the idle state. Authenticated callers short-circuit
// to a welcome message and stay idle; everyone else enters the login step.
func (f *AuthFlow) Start(ctx context.Context, ec *domain.EventContext, _ domain.Session) error {
	id := ec.Event.ConversationID

	if ec.Authenticated {
		text := fmt.Sprintf("👋 Welcome back, %s!\nRole: %s", ec.Employee.Name, ec.Employee.RoleID.Name())
		return f.sender.Send(ctx, id, domain.Reply{Text: text, Keyboard: mainMenu(ec)})
	}

	if err := f.sessions.SetState(ctx, id, domain.StateAwaitingLogin); err != nil {
		return err
	}
	return f.sender.Send(ctx, id, domain.Reply{
		Text:     "👋 Welcome to the overtime tracking system!\n\n🔐 Please sign in to continue.\nEnter your login:",
		Keyboard: removeKeyboard(),
	})
}

// Escape fires when a reserved command arrives mid-authentication: the
// message is scrubbed and the flow stays where it is instead of consuming
// the command as a login or password.
func (f *AuthFlow) Escape(ctx context.Context, ec *domain.EventContext, _ domain.Session) error {
	return f.sender.Delete(ctx, ec.Event.ConversationID, ec.Event.MessageID)
}

// ProcessLogin accepts any text as the login value and advances to the
// password step. The backend is the authority on login format, so no
// client-side validation happens here.
func (f *AuthFlow) ProcessLogin(ctx context.Context, ec *domain.EventContext, _ domain.Session) error {
	id := ec.Event.ConversationID

	if err := f.sessions.UpdateData(ctx, id, map[string]string{domain.DataLogin: ec.Event.Text}); err != nil {
		return err
	}
	if err := f.sessions.SetState(ctx, id, domain.StateAwaitingPassword); err != nil {
		return err
	}
	return f.sender.Send(ctx, id, domain.Reply{Text: "🔑 Now enter your password:"})
}

// ProcessPassword reads the password, scrubs it from the transcript, and
// runs the two-step login: authenticate, then link the conversation identity
// to the returned account.
func (f *AuthFlow) ProcessPassword(ctx context.Context, ec *domain.EventContext, sess domain.Session) error {
	id := ec.Event.ConversationID
	login := sess.Value(domain.DataLogin)
	password := ec.Event.Text

	// Displayed-history hygiene: the password message must not stay
	// visible, whatever happens next.
	if err := f.sender.Delete(ctx, id, ec.Event.MessageID); err != nil {
		f.log.Warn().Err(err).Int64("conversation_id", id).Msg("failed to scrub password message")
	}

	emp, err := f.backend.Authenticate(ctx, login, password)
	if err != nil {
		// Backend down: clear rather than loop, so a broken dependency
		// is not hammered with retries.
		if clearErr := f.sessions.Clear(ctx, id); clearErr != nil {
			return clearErr
		}
		if sendErr := f.sender.Send(ctx, id, domain.Reply{Text: "❌ Sign-in is temporarily unavailable. Please try again later."}); sendErr != nil {
			f.log.Warn().Err(sendErr).Int64("conversation_id", id).Msg("failed to send error reply")
		}
		return err
	}

	if emp == nil {
		// Invalid credentials: loop back to the login step. A new login
		// overwrites the old one.
		if err := f.sessions.SetState(ctx, id, domain.StateAwaitingLogin); err != nil {
			return err
		}
		return f.sender.Send(ctx, id, domain.Reply{Text: "❌ Wrong login or password.\nTry again. Enter your login:"})
	}

	if err := f.backend.LinkIdentity(ctx, emp.ID, id); err != nil {
		f.log.Error().Err(err).Int64("employee_id", emp.ID).Msg("identity link failed")
		if clearErr := f.sessions.Clear(ctx, id); clearErr != nil {
			return clearErr
		}
		return f.sender.Send(ctx, id, domain.Reply{Text: "❌ Could not link your account. Please try again later."})
	}

	if err := f.sessions.Clear(ctx, id); err != nil {
		return err
	}

	text := fmt.Sprintf(
		"✅ Signed in successfully!\n\n👤 %s\n📋 Position: %s\n🏢 Department: %s\n👔 Role: %s",
		emp.FullName(), emp.PostName(), emp.DepartmentName(), emp.RoleID.Name(),
	)
	return f.sender.Send(ctx, id, domain.Reply{Text: text, Keyboard: profileMenu()})
}
