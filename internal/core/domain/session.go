package domain

// State tags the position of a conversation inside a workflow. The zero
// value means idle (no workflow in flight).
type State string

const (
	StateIdle State = ""

	// Authentication flow.
	StateAwaitingLogin    State = "auth:awaiting_login"
	StateAwaitingPassword State = "auth:awaiting_password"

	// Overtime registration flow (admin only).
	StateSelectingEmployee State = "overtime:selecting_employee"
	StateEnteringDate      State = "overtime:entering_date"
	StateEnteringHours     State = "overtime:entering_hours"
)

// Data bag keys. Only fields of the active workflow's schema may appear in a
// session's bag.
const (
	DataLogin      = "login"
	DataEmployeeID = "employee_id"
	DataDate       = "date"
)

// Session holds the workflow position and accumulated input of one
// conversation. At most one workflow is active per conversation at a time.
type Session struct {
	ConversationID int64
	State          State
	Data           map[string]string
}

// Idle reports whether no workflow is in flight.
func (s Session) Idle() bool {
	return s.State == StateIdle
}

// Value returns a data bag field, or "" when absent.
func (s Session) Value(key string) string {
	if s.Data == nil {
		return ""
	}
	return s.Data[key]
}
