package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ActionType discriminates attendance action records. The ids mirror the
// backend's actiontype table; nothing else may hard-code the numeric values.
type ActionType int

const (
	ActionTypeOvertime ActionType = 1
	ActionTypeDayOff   ActionType = 2
)

// Action is a backend-owned attendance record. The bot only constructs
// creation requests and displays returned fields.
type Action struct {
	ID         int64      `json:"action_id" validate:"required,gt=0"`
	EmployeeID int64      `json:"employee_id"`
	TypeID     ActionType `json:"actiontype_id"`
	TypeName   string     `json:"action_type_name"`
	Date       string     `json:"date_action" validate:"required"`
	Hours      int        `json:"hours"`
}

// IsDayOff reports whether the record represents a day off.
func (a Action) IsDayOff() bool {
	return a.TypeID == ActionTypeDayOff || strings.Contains(strings.ToLower(a.TypeName), "day off")
}

// Month returns the YYYY-MM prefix of the action date, used for grouping.
func (a Action) Month() string {
	if len(a.Date) >= 7 {
		return a.Date[:7]
	}
	return a.Date
}

const (
	isoDate      = "2006-01-02"
	dayMonthYear = "02.01.2006"

	MinActionHours = 1
	MaxActionHours = 4
)

var (
	ErrInvalidDate  = fmt.Errorf("invalid date")
	ErrFutureDate   = fmt.Errorf("date is in the future")
	ErrInvalidHours = fmt.Errorf("hours must be an integer between %d and %d", MinActionHours, MaxActionHours)
)

// ParseActionDate parses a user-entered date in DD.MM (current year assumed)
// or DD.MM.YYYY form and normalizes it to YYYY-MM-DD. Dates strictly after
// now are rejected.
func ParseActionDate(input string, now time.Time) (string, error) {
	s := strings.TrimSpace(input)

	var t time.Time
	var err error
	switch strings.Count(s, ".") {
	case 1:
		t, err = time.Parse(dayMonthYear, fmt.Sprintf("%s.%d", s, now.Year()))
	case 2:
		t, err = time.Parse(dayMonthYear, s)
	default:
		return "", ErrInvalidDate
	}
	if err != nil {
		return "", ErrInvalidDate
	}
	if t.After(now) {
		return "", ErrFutureDate
	}
	return t.Format(isoDate), nil
}

// FormatActionDate renders an ISO date back in DD.MM.YYYY form for display.
// Unparseable input is returned as-is.
func FormatActionDate(iso string) string {
	t, err := time.Parse(isoDate, iso)
	if err != nil {
		return iso
	}
	return t.Format(dayMonthYear)
}

// ParseHours parses and validates an overtime hours value.
func ParseHours(input string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < MinActionHours || n > MaxActionHours {
		return 0, ErrInvalidHours
	}
	return n, nil
}
