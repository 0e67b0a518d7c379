package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/worktrack/attendance-bot/internal/core/domain"
	"github.com/worktrack/attendance-bot/internal/core/ports"
)

type stubResolver struct {
	ports.Backend
	employees map[int64]*domain.Employee
	err       error
}

func (s *stubResolver) LookupByIdentity(_ context.Context, conversationID int64) (*domain.Employee, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.employees[conversationID], nil
}

func TestEnrich_KnownAdmin(t *testing.T) {
	backend := &stubResolver{employees: map[int64]*domain.Employee{
		42: {ID: 7, Name: "Alice", RoleID: domain.RoleAdmin},
	}}
	e := NewEnricher(backend, zerolog.Nop())

	ec := e.Enrich(context.Background(), domain.Event{ConversationID: 42})
	if !ec.Authenticated {
		t.Fatalf("expected authenticated context")
	}
	if !ec.Admin {
		t.Fatalf("expected admin context")
	}
	if ec.Employee == nil || ec.Employee.ID != 7 {
		t.Fatalf("unexpected employee: %+v", ec.Employee)
	}
}

func TestEnrich_KnownStaff(t *testing.T) {
	backend := &stubResolver{employees: map[int64]*domain.Employee{
		42: {ID: 9, RoleID: domain.RoleStaff},
	}}
	e := NewEnricher(backend, zerolog.Nop())

	ec := e.Enrich(context.Background(), domain.Event{ConversationID: 42})
	if !ec.Authenticated || ec.Admin {
		t.Fatalf("expected authenticated non-admin, got auth=%v admin=%v", ec.Authenticated, ec.Admin)
	}
}

func TestEnrich_UnknownIdentity(t *testing.T) {
	e := NewEnricher(&stubResolver{}, zerolog.Nop())

	ec := e.Enrich(context.Background(), domain.Event{ConversationID: 42})
	if ec.Authenticated || ec.Admin || ec.Employee != nil {
		t.Fatalf("expected anonymous context, got %+v", ec)
	}
}

func TestEnrich_ResolverErrorFailsOpen(t *testing.T) {
	e := NewEnricher(&stubResolver{err: errors.New("backend down")}, zerolog.Nop())

	ec := e.Enrich(context.Background(), domain.Event{ConversationID: 42})
	if ec.Authenticated || ec.Admin || ec.Employee != nil {
		t.Fatalf("resolver error must degrade to anonymous, got %+v", ec)
	}
}
