package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/worktrack/attendance-bot/internal/core/domain"
)

const adminConv = int64(2002)

// adminEnv returns an env whose conversation resolves to an admin, with two
// selectable employees.
func adminEnv() *env {
	e := newEnv()
	e.backend.lookup[adminConv] = adminAccount(1)
	e.backend.employees = []domain.Employee{*staffAccount(7), *adminAccount(1)}
	e.backend.byID[7] = staffAccount(7)
	return e
}

// pastDate returns a valid DD.MM input and its expected ISO form.
func pastDate() (input, iso string) {
	d := time.Now().AddDate(0, 0, -1)
	return d.Format("02.01.2006"), d.Format("2006-01-02")
}

func TestOvertimeFlow_NonAdminRejected(t *testing.T) {
	e := newEnv()
	e.backend.lookup[adminConv] = staffAccount(7)

	e.message(t, adminConv, btnRegisterOvertime)

	if st := e.state(t, adminConv); !st.Idle() {
		t.Fatalf("non-admin must never leave idle, state = %q", st.State)
	}
	if !strings.Contains(e.sender.lastReply(t).Text, "administrators only") {
		t.Fatalf("expected rejection reply, got %q", e.sender.lastReply(t).Text)
	}
}

func TestOvertimeFlow_AnonymousTriggerRejected(t *testing.T) {
	e := newEnv()

	e.message(t, adminConv, btnRegisterOvertime)

	if st := e.state(t, adminConv); !st.Idle() {
		t.Fatalf("anonymous caller must never leave idle, state = %q", st.State)
	}
}

func TestOvertimeFlow_StartRendersEmployeeList(t *testing.T) {
	e := adminEnv()

	e.message(t, adminConv, btnRegisterOvertime)

	if st := e.state(t, adminConv); st.State != domain.StateSelectingEmployee {
		t.Fatalf("state = %q, want selecting employee", st.State)
	}
	reply := e.sender.lastReply(t)
	if reply.Keyboard == nil || !reply.Keyboard.Inline {
		t.Fatalf("expected inline employee list")
	}
	// One row per employee plus the cancel row.
	if len(reply.Keyboard.Rows) != 3 {
		t.Fatalf("expected 3 keyboard rows, got %d", len(reply.Keyboard.Rows))
	}
	last := reply.Keyboard.Rows[2][0]
	if last.CallbackData != callbackCancel {
		t.Fatalf("last row must be cancel, got %+v", last)
	}
}

func TestOvertimeFlow_ListFetchFailureStaysIdle(t *testing.T) {
	e := adminEnv()
	e.backend.employeesErr = errors.New("backend down")

	e.message(t, adminConv, btnRegisterOvertime)

	if st := e.state(t, adminConv); !st.Idle() {
		t.Fatalf("list failure must not enter the flow, state = %q", st.State)
	}
}

func TestOvertimeFlow_SelectEmployee(t *testing.T) {
	e := adminEnv()
	e.message(t, adminConv, btnRegisterOvertime)

	e.callback(t, adminConv, "emp_7")

	st := e.state(t, adminConv)
	if st.State != domain.StateEnteringDate {
		t.Fatalf("state = %q, want entering date", st.State)
	}
	if st.Value(domain.DataEmployeeID) != "7" {
		t.Fatalf("employee_id = %q", st.Value(domain.DataEmployeeID))
	}
	if len(e.sender.acks) == 0 {
		t.Fatalf("selection must be acknowledged")
	}
}

func TestOvertimeFlow_DateValidation(t *testing.T) {
	for _, input := range []string{"not a date", "2025-03-05", "31.02", "31.12.2099"} {
		t.Run(input, func(t *testing.T) {
			e := adminEnv()
			e.message(t, adminConv, btnRegisterOvertime)
			e.callback(t, adminConv, "emp_7")

			e.message(t, adminConv, input)

			st := e.state(t, adminConv)
			if st.State != domain.StateEnteringDate {
				t.Fatalf("bad date %q must re-prompt without advancing, state = %q", input, st.State)
			}
			if st.Value(domain.DataDate) != "" {
				t.Fatalf("bad date %q must not be stored", input)
			}
		})
	}
}

func TestOvertimeFlow_ValidDateAdvances(t *testing.T) {
	e := adminEnv()
	e.message(t, adminConv, btnRegisterOvertime)
	e.callback(t, adminConv, "emp_7")

	input, iso := pastDate()
	e.message(t, adminConv, input)

	st := e.state(t, adminConv)
	if st.State != domain.StateEnteringHours {
		t.Fatalf("state = %q, want entering hours", st.State)
	}
	if st.Value(domain.DataDate) != iso {
		t.Fatalf("date = %q, want %q", st.Value(domain.DataDate), iso)
	}
}

func TestOvertimeFlow_HoursValidation(t *testing.T) {
	for _, input := range []string{"0", "5", "abc", "-1"} {
		t.Run(input, func(t *testing.T) {
			e := adminEnv()
			e.message(t, adminConv, btnRegisterOvertime)
			e.callback(t, adminConv, "emp_7")
			date, _ := pastDate()
			e.message(t, adminConv, date)

			e.message(t, adminConv, input)

			if st := e.state(t, adminConv); st.State != domain.StateEnteringHours {
				t.Fatalf("bad hours %q must re-prompt without advancing, state = %q", input, st.State)
			}
			if len(e.backend.created) != 0 {
				t.Fatalf("bad hours %q must not create an action", input)
			}
		})
	}
}

func TestOvertimeFlow_HappyPath(t *testing.T) {
	e := adminEnv()
	e.message(t, adminConv, btnRegisterOvertime)
	e.callback(t, adminConv, "emp_7")
	input, iso := pastDate()
	e.message(t, adminConv, input)

	e.message(t, adminConv, "3")

	if len(e.backend.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(e.backend.created))
	}
	in := e.backend.created[0]
	if in.EmployeeID != 7 || in.Hours != 3 || in.Date != iso || in.Type != domain.ActionTypeOvertime {
		t.Fatalf("unexpected create input: %+v", in)
	}

	st := e.state(t, adminConv)
	if !st.Idle() || len(st.Data) != 0 {
		t.Fatalf("flow must clear after submission, got %+v", st)
	}

	reply := e.sender.lastReply(t)
	if !strings.Contains(reply.Text, "Doe Jane") {
		t.Fatalf("confirmation should use the employee name, got %q", reply.Text)
	}
}

func TestOvertimeFlow_ConfirmationFallsBackToID(t *testing.T) {
	e := adminEnv()
	e.backend.getErr = errors.New("lookup down")
	e.message(t, adminConv, btnRegisterOvertime)
	e.callback(t, adminConv, "emp_7")
	date, _ := pastDate()
	e.message(t, adminConv, date)

	e.message(t, adminConv, "2")

	// Partial success: the create landed, only the display lookup failed.
	if len(e.backend.created) != 1 {
		t.Fatalf("create must not be affected by the display lookup")
	}
	if !strings.Contains(e.sender.lastReply(t).Text, "ID 7") {
		t.Fatalf("confirmation should fall back to the raw id, got %q", e.sender.lastReply(t).Text)
	}
}

func TestOvertimeFlow_CreateFailureClearsWithoutRetry(t *testing.T) {
	e := adminEnv()
	e.backend.createErr = errors.New("backend down")
	e.message(t, adminConv, btnRegisterOvertime)
	e.callback(t, adminConv, "emp_7")
	date, _ := pastDate()
	e.message(t, adminConv, date)

	e.message(t, adminConv, "2")

	st := e.state(t, adminConv)
	if !st.Idle() || len(st.Data) != 0 {
		t.Fatalf("state must clear even when create fails, got %+v", st)
	}
	if !strings.Contains(e.sender.lastReply(t).Text, "Could not register") {
		t.Fatalf("expected failure reply, got %q", e.sender.lastReply(t).Text)
	}
}

func TestOvertimeFlow_CancelFromEveryState(t *testing.T) {
	date, _ := pastDate()
	scenarios := []struct {
		name  string
		setup func(t *testing.T, e *env)
		fire  func(t *testing.T, e *env)
	}{
		{
			name:  "selecting employee, inline cancel",
			setup: func(t *testing.T, e *env) {},
			fire:  func(t *testing.T, e *env) { e.callback(t, adminConv, callbackCancel) },
		},
		{
			name: "entering date, cancel button",
			setup: func(t *testing.T, e *env) {
				e.callback(t, adminConv, "emp_7")
			},
			fire: func(t *testing.T, e *env) { e.message(t, adminConv, btnCancel) },
		},
		{
			name: "entering hours, cancel button",
			setup: func(t *testing.T, e *env) {
				e.callback(t, adminConv, "emp_7")
				e.message(t, adminConv, date)
			},
			fire: func(t *testing.T, e *env) { e.message(t, adminConv, btnCancel) },
		},
	}

	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			e := adminEnv()
			e.message(t, adminConv, btnRegisterOvertime)
			sc.setup(t, e)

			sc.fire(t, e)

			st := e.state(t, adminConv)
			if !st.Idle() || len(st.Data) != 0 {
				t.Fatalf("cancel must always yield idle with empty bag, got %+v", st)
			}
			if len(e.backend.created) != 0 {
				t.Fatalf("cancel must not create anything")
			}
		})
	}
}

func TestOvertimeFlow_CancelNeverSwallowedByInputSteps(t *testing.T) {
	// A literal cancel while the date step is active must hit the cancel
	// route, not be parsed as a date.
	e := adminEnv()
	e.message(t, adminConv, btnRegisterOvertime)
	e.callback(t, adminConv, "emp_7")

	e.message(t, adminConv, btnCancel)

	if !strings.Contains(e.sender.lastReply(t).Text, "cancelled") {
		t.Fatalf("cancel was consumed by the date step: %q", e.sender.lastReply(t).Text)
	}
}

func TestOvertimeFlow_DoubleSubmitCreatesOneRecord(t *testing.T) {
	e := adminEnv()
	e.message(t, adminConv, btnRegisterOvertime)
	e.callback(t, adminConv, "emp_7")
	date, _ := pastDate()
	e.message(t, adminConv, date)

	// Back-to-back submissions from a double-tap: the first clears the
	// session, so the second finds idle state and matches no input step.
	e.message(t, adminConv, "3")
	e.message(t, adminConv, "3")

	if got := len(e.backend.created); got != 1 {
		t.Fatalf("double submit must create exactly one record, got %d", got)
	}
}

func TestOvertimeFlow_StaleSessionStateNotReachableByNonAdmin(t *testing.T) {
	// A non-admin somehow carrying an overtime state tag (e.g. role revoked
	// mid-flow) must not drive the admin steps, but can still cancel out.
	e := newEnv()
	e.backend.lookup[adminConv] = staffAccount(7)
	if err := e.sessions.SetState(context.Background(), adminConv, domain.StateEnteringHours); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	e.message(t, adminConv, "3")
	if len(e.backend.created) != 0 {
		t.Fatalf("non-admin input must not reach the hours step")
	}

	e.message(t, adminConv, btnCancel)
	if st := e.state(t, adminConv); !st.Idle() {
		t.Fatalf("cancel must still work for stale sessions, state = %q", st.State)
	}
}
