package domain

import "strings"

// Role identifies the access level assigned to an employee by the backend.
type Role int

const (
	RoleAdmin Role = 1
	RoleStaff Role = 2
)

// Name returns a human-readable role label.
func (r Role) Name() string {
	if r == RoleAdmin {
		return "Administrator"
	}
	return "Staff"
}

// Post is the employee's position, as reported by the directory service.
type Post struct {
	Name string `json:"name_post"`
}

// Department is the organizational unit the employee belongs to.
type Department struct {
	Name string `json:"name_otdel"`
}

// Employee models a directory account record. The backend owns and mutates
// it; the bot fetches it fresh on every event and treats it as read-only.
// TelegramID is the linked transport identity, nil while unlinked.
type Employee struct {
	ID         int64       `json:"employee_id" validate:"required,gt=0"`
	Login      string      `json:"login"`
	Surname    string      `json:"surname"`
	Name       string      `json:"name"`
	Patronymic string      `json:"patronymic"`
	RoleID     Role        `json:"role_id"`
	TelegramID *int64      `json:"tg_id"`
	IdleHours  int         `json:"idle_hours"`
	Post       *Post       `json:"post"`
	Department *Department `json:"otdel"`
}

// IsAdmin reports whether the account carries the admin role.
func (e *Employee) IsAdmin() bool {
	return e != nil && e.RoleID == RoleAdmin
}

// FullName renders "Surname Name Patronymic", skipping absent parts.
func (e *Employee) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Surname, e.Name, e.Patronymic} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// ShortName renders "Surname Name" for compact confirmations.
func (e *Employee) ShortName() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{e.Surname, e.Name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// PostName returns the position name or a placeholder when absent.
func (e *Employee) PostName() string {
	if e.Post == nil || e.Post.Name == "" {
		return "not set"
	}
	return e.Post.Name
}

// DepartmentName returns the department name or a placeholder when absent.
func (e *Employee) DepartmentName() string {
	if e.Department == nil || e.Department.Name == "" {
		return "not set"
	}
	return e.Department.Name
}
