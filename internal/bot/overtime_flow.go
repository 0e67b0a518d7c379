package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/worktrack/attendance-bot/internal/core/domain"
	"github.com/worktrack/attendance-bot/internal/core/ports"
)

// OvertimeFlow implements the admin-only overtime registration state
// machine: idle → selecting-employee → entering-date → entering-hours → idle.
// A cancel control is honoured in every non-idle state.
type OvertimeFlow struct {
	backend  ports.Backend
	sessions ports.SessionStore
	sender   ports.Sender
	log      zerolog.Logger

	// now is injectable for date-validation tests.
	now func() time.Time
}

func NewOvertimeFlow(backend ports.Backend, sessions ports.SessionStore, sender ports.Sender, log zerolog.Logger) *OvertimeFlow {
	return &OvertimeFlow{
		backend:  backend,
		sessions: sessions,
		sender:   sender,
		log:      log,
		now:      time.Now,
	}
}

// Start begins the registration. Non-admins get a rejection reply and no
// state change; the employee list is fetched fresh from the backend every
// time.
func (f *OvertimeFlow) Start(ctx context.Context, ec *domain.EventContext, _ domain.Session) error {
	id := ec.Event.ConversationID

	if !ec.Admin {
		return f.sender.Send(ctx, id, domain.Reply{Text: "❌ This feature is available to administrators only."})
	}

	employees, err := f.backend.ListEmployees(ctx)
	if err != nil || len(employees) == 0 {
		if err != nil {
			f.log.Error().Err(err).Msg("employee list fetch failed")
		}
		return f.sender.Send(ctx, id, domain.Reply{Text: "❌ Could not load the employee list."})
	}

	if err := f.sessions.SetState(ctx, id, domain.StateSelectingEmployee); err != nil {
		return err
	}
	return f.sender.Send(ctx, id, domain.Reply{
		Text:     "👥 Select an employee to register overtime for:",
		Keyboard: employeeListKeyboard(employees),
	})
}

// SelectEmployee handles the inline employee selection and advances to the
// date step.
func (f *OvertimeFlow) SelectEmployee(ctx context.Context, ec *domain.EventContext, _ domain.Session) error {
	id := ec.Event.ConversationID

	employeeID, err := parseCallbackID(ec.Event.CallbackData, callbackEmployeePrefix)
	if err != nil {
		// Malformed payload: acknowledge and stay put, the list remains
		// usable.
		return f.sender.AckCallback(ctx, ec.Event.CallbackID, "")
	}

	if err := f.sessions.UpdateData(ctx, id, map[string]string{
		domain.DataEmployeeID: strconv.FormatInt(employeeID, 10),
	}); err != nil {
		return err
	}
	if err := f.sessions.SetState(ctx, id, domain.StateEnteringDate); err != nil {
		return err
	}

	// The selection list is stale once a choice is made.
	if err := f.sender.Delete(ctx, id, ec.Event.MessageID); err != nil {
		f.log.Warn().Err(err).Int64("conversation_id", id).Msg("failed to remove employee list")
	}
	if err := f.sender.Send(ctx, id, domain.Reply{
		Text:     "📅 Enter the overtime date\n\nFormat: DD.MM.YYYY (e.g. 25.10.2025)\nor just DD.MM for the current year",
		Keyboard: cancelKeyboard(),
	}); err != nil {
		return err
	}
	return f.sender.AckCallback(ctx, ec.Event.CallbackID, "")
}

// Cancel aborts the registration from any of its states, clearing the
// conversation to idle. Issued via the inline cancel button or the cancel
// reply button; idempotent across states.
func (f *OvertimeFlow) Cancel(ctx context.Context, ec *domain.EventContext, _ domain.Session) error {
	id := ec.Event.ConversationID

	if err := f.sessions.Clear(ctx, id); err != nil {
		return err
	}

	if ec.Event.Kind == domain.KindCallback {
		if err := f.sender.Delete(ctx, id, ec.Event.MessageID); err != nil {
			f.log.Warn().Err(err).Int64("conversation_id", id).Msg("failed to remove employee list")
		}
	}

	var kb *domain.Keyboard
	if ec.Admin {
		kb = adminMenu()
	}
	if err := f.sender.Send(ctx, id, domain.Reply{Text: "❌ Overtime registration cancelled.", Keyboard: kb}); err != nil {
		return err
	}
	if ec.Event.Kind == domain.KindCallback {
		return f.sender.AckCallback(ctx, ec.Event.CallbackID, "")
	}
	return nil
}

// ProcessDate validates the date input. Bad input re-prompts without
// advancing; a valid date is normalized to ISO form before storage.
func (f *OvertimeFlow) ProcessDate(ctx context.Context, ec *domain.EventContext, _ domain.Session) error {
	id := ec.Event.ConversationID

	date, err := domain.ParseActionDate(ec.Event.Text, f.now())
	if err != nil {
		if errors.Is(err, domain.ErrFutureDate) {
			return f.sender.Send(ctx, id, domain.Reply{Text: "❌ The date cannot be in the future. Try again:"})
		}
		return f.sender.Send(ctx, id, domain.Reply{Text: "❌ Invalid date format.\nUse DD.MM.YYYY or DD.MM\nFor example: 25.10.2025 or 25.10"})
	}

	if err := f.sessions.UpdateData(ctx, id, map[string]string{domain.DataDate: date}); err != nil {
		return err
	}
	if err := f.sessions.SetState(ctx, id, domain.StateEnteringHours); err != nil {
		return err
	}
	return f.sender.Send(ctx, id, domain.Reply{
		Text: "⏰ Enter the number of overtime hours\n\n⚠️ At most 4 hours at a time\nEnter a number from 1 to 4:",
	})
}

// ProcessHours validates the hours input and submits the accumulated record.
// State clears to idle whether or not the create call succeeds; a failed
// create is reported but never retried automatically.
func (f *OvertimeFlow) ProcessHours(ctx context.Context, ec *domain.EventContext, sess domain.Session) error {
	id := ec.Event.ConversationID

	hours, err := domain.ParseHours(ec.Event.Text)
	if err != nil {
		return f.sender.Send(ctx, id, domain.Reply{Text: "❌ Enter a whole number from 1 to 4:"})
	}

	employeeID, err := strconv.ParseInt(sess.Value(domain.DataEmployeeID), 10, 64)
	if err != nil {
		// Corrupt bag; nothing sensible to submit.
		if clearErr := f.sessions.Clear(ctx, id); clearErr != nil {
			return clearErr
		}
		return f.sender.Send(ctx, id, domain.Reply{Text: "❌ Something went wrong. Please start over."})
	}
	date := sess.Value(domain.DataDate)

	created, err := f.backend.CreateAction(ctx, ports.CreateActionInput{
		EmployeeID: employeeID,
		Hours:      hours,
		Date:       date,
		Type:       domain.ActionTypeOvertime,
	})

	if clearErr := f.sessions.Clear(ctx, id); clearErr != nil {
		f.log.Error().Err(clearErr).Int64("conversation_id", id).Msg("failed to clear session")
	}

	if err != nil || created == nil {
		if err != nil {
			f.log.Error().Err(err).Int64("employee_id", employeeID).Msg("overtime create failed")
		}
		return f.sender.Send(ctx, id, domain.Reply{Text: "❌ Could not register the overtime entry.\nPlease try again later."})
	}

	// Best-effort display lookup: fall back to the raw id when the fetch
	// fails, never fail the whole operation over it.
	name := fmt.Sprintf("ID %d", employeeID)
	if emp, err := f.backend.GetEmployee(ctx, employeeID); err == nil && emp != nil {
		name = emp.ShortName()
	}

	var kb *domain.Keyboard
	if ec.Admin {
		kb = adminMenu()
	}
	text := fmt.Sprintf(
		"✅ Overtime registered!\n\n👤 Employee: %s\n📅 Date: %s\n⏰ Hours: %d",
		name, domain.FormatActionDate(date), hours,
	)
	return f.sender.Send(ctx, id, domain.Reply{Text: text, Keyboard: kb})
}
