package bot

import (
	"context"

	"github.com/worktrack/attendance-bot/internal/core/domain"
)

// RegisterRoutes builds the route table. Registration order is priority
// order, so the invariants live here:
//
//   - reserved-command escapes precede the auth text steps, so /start and
//     /help are never consumed as login or password;
//   - cancellation routes precede the overtime input steps, so a literal
//     cancel is never swallowed as a date or hours value;
//   - the in-flight overtime steps carry an admin requirement and fall
//     through (to a silent drop) for anyone else;
//   - staff menu routes come last and double as catch-alls in states whose
//     steps did not claim the event.
func RegisterRoutes(r *Router, auth *AuthFlow, overtime *OvertimeFlow, staff *StaffHandlers) {
	overtimeStates := []domain.State{
		domain.StateSelectingEmployee,
		domain.StateEnteringDate,
		domain.StateEnteringHours,
	}
	authStates := []domain.State{
		domain.StateAwaitingLogin,
		domain.StateAwaitingPassword,
	}

	// Authentication flow.
	r.Handle("auth.start", all(onCommand("start"), idle()), auth.Start)
	r.Handle("auth.escape", all(isReservedCommand(), inAnyState(authStates...)), auth.Escape)
	r.Handle("auth.login", all(anyText(), inState(domain.StateAwaitingLogin)), auth.ProcessLogin)
	r.Handle("auth.password", all(anyText(), inState(domain.StateAwaitingPassword)), auth.ProcessPassword)

	// Overtime registration flow. Cancellation first: it must win against
	// the generic text steps in every non-idle state. No role gate on
	// cancel, so even a stale session can always be cleared.
	r.Handle("overtime.cancel", all(onCallback(callbackCancel), inAnyState(overtimeStates...)), overtime.Cancel)
	r.Handle("overtime.cancel_button", all(onText(btnCancel), inAnyState(overtimeStates...)), overtime.Cancel)
	r.Handle("overtime.start", all(onText(btnRegisterOvertime), idle()), overtime.Start)
	r.Handle("overtime.select", all(onCallbackPrefix(callbackEmployeePrefix), inState(domain.StateSelectingEmployee), adminOnly()), overtime.SelectEmployee)
	r.Handle("overtime.date", all(anyText(), inState(domain.StateEnteringDate), adminOnly()), overtime.ProcessDate)
	r.Handle("overtime.hours", all(anyText(), inState(domain.StateEnteringHours), adminOnly()), overtime.ProcessHours)

	// Stateless staff actions and the document side action.
	r.Handle("staff.actions", onText(btnMyActions), requireAuth(staff, staff.MyActions))
	r.Handle("staff.hours", onText(btnMyHours), requireAuth(staff, staff.MyHours))
	r.Handle("staff.days_off", onText(btnMyDaysOff), requireAuth(staff, staff.MyDaysOff))
	r.Handle("staff.profile", onText(btnProfile), requireAuth(staff, staff.Profile))
	r.Handle("staff.logout", onText(btnLogout), requireAuth(staff, staff.Logout))
	r.Handle("staff.back", onText(btnBack), requireAuth(staff, staff.BackToMenu))
	r.Handle("staff.document", onCallbackPrefix(callbackDocumentPrefix), requireAuth(staff, staff.RequestDocument))
	r.Handle("common.help", onCommand("help"), staff.Help)
}

// requireAuth redirects anonymous callers to the sign-in hint instead of
// running the handler.
func requireAuth(staff *StaffHandlers, next Handler) Handler {
	return func(ctx context.Context, ec *domain.EventContext, sess domain.Session) error {
		if !ec.Authenticated {
			return staff.NotAuthenticated(ctx, ec, sess)
		}
		return next(ctx, ec, sess)
	}
}
