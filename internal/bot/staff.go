package bot

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/worktrack/attendance-bot/internal/core/domain"
	"github.com/worktrack/attendance-bot/internal/core/ports"
)

// StaffHandlers are the stateless menu actions available to authenticated
// callers: attendance listings, hour totals, day-off certificates, profile
// and logout. None of them start a workflow.
type StaffHandlers struct {
	backend ports.Backend
	sender  ports.Sender
	log     zerolog.Logger
	now     func() time.Time

	// tempDir overrides the document staging directory; "" means the
	// system default.
	tempDir string
}

func NewStaffHandlers(backend ports.Backend, sender ports.Sender, log zerolog.Logger) *StaffHandlers {
	return &StaffHandlers{backend: backend, sender: sender, log: log, now: time.Now}
}

const notAuthenticatedText = "❌ You are not signed in. Use /start"

// MyActions lists all of the caller's attendance records grouped by month,
// newest first.
func (h *StaffHandlers) MyActions(ctx context.Context, ec *domain.EventContext, _ domain.Session) error {
	id := ec.Event.ConversationID

	actions, err := h.backend.ListActions(ctx, ec.Employee.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("employee_id", ec.Employee.ID).Msg("action list fetch failed")
		return h.sender.Send(ctx, id, domain.Reply{Text: "❌ Could not load your records. Please try again later."})
	}
	if len(actions) == 0 {
		return h.sender.Send(ctx, id, domain.Reply{Text: "📊 You have no recorded actions yet."})
	}

	return h.sender.Send(ctx, id, domain.Reply{Text: renderActionsByMonth(actions)})
}

// renderActionsByMonth groups actions by calendar month, newest month and
// newest entry first.
func renderActionsByMonth(actions []domain.Action) string {
	byMonth := make(map[string][]domain.Action)
	for _, a := range actions {
		byMonth[a.Month()] = append(byMonth[a.Month()], a)
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	var b strings.Builder
	b.WriteString("📊 Your actions:\n\n")
	for _, m := range months {
		b.WriteString(monthTitle(m) + "\n")
		entries := byMonth[m]
		sort.Slice(entries, func(i, j int) bool { return entries[i].Date > entries[j].Date })
		for _, a := range entries {
			fmt.Fprintf(&b, "  📅 %s\n  📝 %s\n  ⏰ %d h\n\n", a.Date, a.TypeName, a.Hours)
		}
	}
	return b.String()
}

func monthTitle(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return month
	}
	return t.Format("January 2006")
}

// MyHours shows the caller's overtime total for the current calendar month
// plus the accrued idle hours from the account record.
func (h *StaffHandlers) MyHours(ctx context.Context, ec *domain.EventContext, _ domain.Session) error {
	id := ec.Event.ConversationID

	actions, err := h.backend.ListActions(ctx, ec.Employee.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("employee_id", ec.Employee.ID).Msg("action list fetch failed")
		return h.sender.Send(ctx, id, domain.Reply{Text: "❌ Could not load your records. Please try again later."})
	}

	currentMonth := h.now().Format("2006-01")
	monthHours := 0
	for _, a := range actions {
		if a.Month() == currentMonth && !a.IsDayOff() {
			monthHours += a.Hours
		}
	}

	text := fmt.Sprintf(
		"⏰ Hours summary\n\n📅 Overtime this month: %d h\n💤 Unused hours: %d h\n\nℹ️ Unused hours can be spent on days off.",
		monthHours, ec.Employee.IdleHours,
	)
	return h.sender.Send(ctx, id, domain.Reply{Text: text})
}

// MyDaysOff lists the caller's day-off records as an inline keyboard;
// selecting an entry requests its certificate.
func (h *StaffHandlers) MyDaysOff(ctx context.Context, ec *domain.EventContext, _ domain.Session) error {
	id := ec.Event.ConversationID

	actions, err := h.backend.ListActions(ctx, ec.Employee.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("employee_id", ec.Employee.ID).Msg("action list fetch failed")
		return h.sender.Send(ctx, id, domain.Reply{Text: "❌ Could not load your records. Please try again later."})
	}

	var daysOff []domain.Action
	for _, a := range actions {
		if a.IsDayOff() {
			daysOff = append(daysOff, a)
		}
	}
	if len(daysOff) == 0 {
		return h.sender.Send(ctx, id, domain.Reply{Text: "📅 You have no registered days off yet."})
	}

	return h.sender.Send(ctx, id, domain.Reply{
		Text:     "📅 Your days off:\n\nTap a date to request a day-off certificate:",
		Keyboard: daysOffKeyboard(daysOff),
	})
}

// RequestDocument is the stateless document retrieval side action: fetch the
// certificate for the selected action and deliver it as a named file
// attachment. The staging file is removed on every exit path.
func (h *StaffHandlers) RequestDocument(ctx context.Context, ec *domain.EventContext, _ domain.Session) error {
	id := ec.Event.ConversationID

	actionID, err := parseCallbackID(ec.Event.CallbackData, callbackDocumentPrefix)
	if err != nil {
		return h.sender.AckCallback(ctx, ec.Event.CallbackID, "")
	}

	if err := h.sender.AckCallback(ctx, ec.Event.CallbackID, "📄 Preparing your certificate..."); err != nil {
		h.log.Warn().Err(err).Msg("callback ack failed")
	}

	data, err := h.backend.FetchDocument(ctx, actionID)
	if err != nil || data == nil {
		if err != nil {
			h.log.Error().Err(err).Int64("action_id", actionID).Msg("document fetch failed")
		}
		return h.sender.Send(ctx, id, domain.Reply{Text: "❌ Could not fetch the certificate. Please try again later."})
	}

	tmp, err := os.CreateTemp(h.tempDir, fmt.Sprintf("dayoff-%d-*.pdf", actionID))
	if err != nil {
		return fmt.Errorf("stage document: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("stage document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("stage document: %w", err)
	}

	return h.sender.SendDocument(ctx, id, tmp.Name())
}

// Profile shows the caller's account summary.
func (h *StaffHandlers) Profile(ctx context.Context, ec *domain.EventContext, _ domain.Session) error {
	emp := ec.Employee
	linked := "not linked"
	if emp.TelegramID != nil {
		linked = fmt.Sprintf("%d", *emp.TelegramID)
	}
	text := fmt.Sprintf(
		"👤 Your profile\n\nName: %s\nLogin: %s\nRole: %s\nTelegram ID: %s",
		emp.FullName(), emp.Login, emp.RoleID.Name(), linked,
	)
	return h.sender.Send(ctx, ec.Event.ConversationID, domain.Reply{Text: text, Keyboard: profileMenu()})
}

// Logout unlinks the conversation identity from the account. Failure is
// reported and leaves the link in place.
func (h *StaffHandlers) Logout(ctx context.Context, ec *domain.EventContext, _ domain.Session) error {
	id := ec.Event.ConversationID

	if err := h.backend.UnlinkIdentity(ctx, ec.Employee.ID); err != nil {
		h.log.Error().Err(err).Int64("employee_id", ec.Employee.ID).Msg("identity unlink failed")
		return h.sender.Send(ctx, id, domain.Reply{Text: "❌ Could not sign you out. Please try again later."})
	}

	return h.sender.Send(ctx, id, domain.Reply{
		Text:     "👋 You are signed out.\nUse /start to sign in again.",
		Keyboard: removeKeyboard(),
	})
}

// BackToMenu returns to the main menu.
func (h *StaffHandlers) BackToMenu(ctx context.Context, ec *domain.EventContext, _ domain.Session) error {
	return h.sender.Send(ctx, ec.Event.ConversationID, domain.Reply{Text: "📋 Main menu:", Keyboard: mainMenu(ec)})
}

// NotAuthenticated replies to menu labels arriving from anonymous callers.
func (h *StaffHandlers) NotAuthenticated(ctx context.Context, ec *domain.EventContext, _ domain.Session) error {
	return h.sender.Send(ctx, ec.Event.ConversationID, domain.Reply{Text: notAuthenticatedText})
}

// Help renders the command overview, with the admin section appended for
// admins and a sign-in hint for anonymous callers.
func (h *StaffHandlers) Help(ctx context.Context, ec *domain.EventContext, _ domain.Session) error {
	id := ec.Event.ConversationID

	if !ec.Authenticated {
		return h.sender.Send(ctx, id, domain.Reply{Text: "ℹ️ Help\n\nYou are not signed in. Use /start to sign in."})
	}

	var b strings.Builder
	b.WriteString("ℹ️ Available actions:\n\n")
	b.WriteString(btnMyActions + " — all your records\n")
	b.WriteString(btnMyHours + " — hours summary\n")
	b.WriteString(btnMyDaysOff + " — day-off list and certificates\n")
	b.WriteString(btnProfile + " — account details\n")
	if ec.Admin {
		b.WriteString("\nAdministrator actions:\n")
		b.WriteString(btnRegisterOvertime + "\n")
	}
	return h.sender.Send(ctx, id, domain.Reply{Text: b.String()})
}
