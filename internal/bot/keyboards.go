package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/worktrack/attendance-bot/internal/core/domain"
)

// Menu labels. These are the fixed trigger strings the router matches on;
// changing one changes the wire contract with existing chats.
const (
	btnMyActions        = "📊 My actions"
	btnMyHours          = "⏰ My hours"
	btnMyDaysOff        = "📅 My days off"
	btnProfile          = "👤 Profile"
	btnLogout           = "🚪 Log out"
	btnBack             = "◀️ Back"
	btnRegisterOvertime = "➕ Register overtime"
	btnCancel           = "❌ Cancel"
)

// Callback payload prefixes for inline selections.
const (
	callbackEmployeePrefix = "emp_"
	callbackDocumentPrefix = "document_"
	callbackCancel         = "cancel"
)

func employeeMenu() *domain.Keyboard {
	return &domain.Keyboard{Rows: [][]domain.Button{
		{{Label: btnMyActions}, {Label: btnMyHours}},
		{{Label: btnMyDaysOff}, {Label: btnProfile}},
	}}
}

func adminMenu() *domain.Keyboard {
	return &domain.Keyboard{Rows: [][]domain.Button{
		{{Label: btnRegisterOvertime}, {Label: btnMyActions}},
		{{Label: btnMyHours}, {Label: btnMyDaysOff}},
		{{Label: btnProfile}},
	}}
}

// mainMenu picks the menu matching the caller's role.
func mainMenu(ec *domain.EventContext) *domain.Keyboard {
	if ec.Admin {
		return adminMenu()
	}
	return employeeMenu()
}

func profileMenu() *domain.Keyboard {
	return &domain.Keyboard{Rows: [][]domain.Button{
		{{Label: btnLogout}},
		{{Label: btnBack}},
	}}
}

func cancelKeyboard() *domain.Keyboard {
	return &domain.Keyboard{Rows: [][]domain.Button{
		{{Label: btnCancel}},
	}}
}

func removeKeyboard() *domain.Keyboard {
	return &domain.Keyboard{Remove: true}
}

// employeeListKeyboard renders one inline row per account plus a cancel row.
func employeeListKeyboard(employees []domain.Employee) *domain.Keyboard {
	rows := make([][]domain.Button, 0, len(employees)+1)
	for _, emp := range employees {
		rows = append(rows, []domain.Button{{
			Label:        emp.FullName(),
			CallbackData: callbackEmployeePrefix + strconv.FormatInt(emp.ID, 10),
		}})
	}
	rows = append(rows, []domain.Button{{Label: btnCancel, CallbackData: callbackCancel}})
	return &domain.Keyboard{Inline: true, Rows: rows}
}

// daysOffKeyboard renders one inline row per day-off action; selecting one
// requests its certificate document.
func daysOffKeyboard(actions []domain.Action) *domain.Keyboard {
	rows := make([][]domain.Button, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, []domain.Button{{
			Label:        fmt.Sprintf("📅 %s (%s)", a.Date, a.TypeName),
			CallbackData: callbackDocumentPrefix + strconv.FormatInt(a.ID, 10),
		}})
	}
	return &domain.Keyboard{Inline: true, Rows: rows}
}

// parseCallbackID extracts the numeric suffix of an inline payload like
// "emp_17" or "document_3".
func parseCallbackID(data, prefix string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
}
