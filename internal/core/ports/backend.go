package ports

import (
	"context"

	"github.com/worktrack/attendance-bot/internal/core/domain"
)

// CreateActionInput is the DTO for registering a new attendance action.
type CreateActionInput struct {
	EmployeeID int64
	Hours      int
	Date       string // YYYY-MM-DD
	Type       domain.ActionType
}

// Backend is the directory/attendance service contract consumed by the core.
// Lookup-style operations return (nil, nil) when the backend answers with a
// 404-equivalent; any other failure is a structured error.
type Backend interface {
	// Authenticate verifies credentials; nil employee means they were
	// rejected or unknown.
	Authenticate(ctx context.Context, login, password string) (*domain.Employee, error)

	// LinkIdentity binds a conversation identity to an account.
	LinkIdentity(ctx context.Context, employeeID, conversationID int64) error

	// UnlinkIdentity removes the account's transport binding.
	UnlinkIdentity(ctx context.Context, employeeID int64) error

	// LookupByIdentity resolves a conversation identity to its account.
	LookupByIdentity(ctx context.Context, conversationID int64) (*domain.Employee, error)

	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	GetEmployee(ctx context.Context, employeeID int64) (*domain.Employee, error)
	ListActions(ctx context.Context, employeeID int64) ([]domain.Action, error)
	CreateAction(ctx context.Context, in CreateActionInput) (*domain.Action, error)

	// FetchDocument retrieves the generated certificate for an action.
	// nil bytes mean the document does not exist.
	FetchDocument(ctx context.Context, actionID int64) ([]byte, error)
}
