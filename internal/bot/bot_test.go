package bot

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/worktrack/attendance-bot/internal/core/domain"
	"github.com/worktrack/attendance-bot/internal/core/ports"
	"github.com/worktrack/attendance-bot/internal/core/service"
	"github.com/worktrack/attendance-bot/internal/infrastructure/session"
)

// stubBackend is a hand-rolled test double for the directory service.
type stubBackend struct {
	lookup    map[int64]*domain.Employee
	lookupErr error

	credentials map[string]*domain.Employee // login:password → employee
	authErr     error

	linkErr   error
	linked    []int64
	unlinkErr error
	unlinked  []int64

	employees    []domain.Employee
	employeesErr error

	byID   map[int64]*domain.Employee
	getErr error

	actions    []domain.Action
	actionsErr error

	created   []ports.CreateActionInput
	createErr error
	createNil bool

	doc    []byte
	docErr error
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		lookup:      make(map[int64]*domain.Employee),
		credentials: make(map[string]*domain.Employee),
		byID:        make(map[int64]*domain.Employee),
	}
}

func (b *stubBackend) Authenticate(_ context.Context, login, password string) (*domain.Employee, error) {
	if b.authErr != nil {
		return nil, b.authErr
	}
	return b.credentials[login+":"+password], nil
}

func (b *stubBackend) LinkIdentity(_ context.Context, employeeID, _ int64) error {
	if b.linkErr != nil {
		return b.linkErr
	}
	b.linked = append(b.linked, employeeID)
	return nil
}

func (b *stubBackend) UnlinkIdentity(_ context.Context, employeeID int64) error {
	if b.unlinkErr != nil {
		return b.unlinkErr
	}
	b.unlinked = append(b.unlinked, employeeID)
	return nil
}

func (b *stubBackend) LookupByIdentity(_ context.Context, conversationID int64) (*domain.Employee, error) {
	if b.lookupErr != nil {
		return nil, b.lookupErr
	}
	return b.lookup[conversationID], nil
}

func (b *stubBackend) ListEmployees(_ context.Context) ([]domain.Employee, error) {
	return b.employees, b.employeesErr
}

func (b *stubBackend) GetEmployee(_ context.Context, employeeID int64) (*domain.Employee, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	return b.byID[employeeID], nil
}

func (b *stubBackend) ListActions(_ context.Context, _ int64) ([]domain.Action, error) {
	return b.actions, b.actionsErr
}

func (b *stubBackend) CreateAction(_ context.Context, in ports.CreateActionInput) (*domain.Action, error) {
	if b.createErr != nil {
		return nil, b.createErr
	}
	b.created = append(b.created, in)
	if b.createNil {
		return nil, nil
	}
	return &domain.Action{ID: 100, EmployeeID: in.EmployeeID, TypeID: in.Type, Date: in.Date, Hours: in.Hours}, nil
}

func (b *stubBackend) FetchDocument(_ context.Context, _ int64) ([]byte, error) {
	return b.doc, b.docErr
}

// recordingSender captures outbound effects instead of talking to a chat
// transport.
type recordingSender struct {
	replies []domain.Reply
	deleted []int
	acks    []string

	docPaths []string
	// docExisted records whether the staged file was present at send time.
	docExisted []bool
	docErr     error
}

func (s *recordingSender) Send(_ context.Context, _ int64, reply domain.Reply) error {
	s.replies = append(s.replies, reply)
	return nil
}

func (s *recordingSender) Delete(_ context.Context, _ int64, messageID int) error {
	s.deleted = append(s.deleted, messageID)
	return nil
}

func (s *recordingSender) SendDocument(_ context.Context, _ int64, path string) error {
	s.docPaths = append(s.docPaths, path)
	_, err := os.Stat(path)
	s.docExisted = append(s.docExisted, err == nil)
	return s.docErr
}

func (s *recordingSender) AckCallback(_ context.Context, callbackID, _ string) error {
	s.acks = append(s.acks, callbackID)
	return nil
}

func (s *recordingSender) lastReply(t *testing.T) domain.Reply {
	t.Helper()
	if len(s.replies) == 0 {
		t.Fatalf("expected at least one reply")
	}
	return s.replies[len(s.replies)-1]
}

// env wires the full pipeline (enricher → router → flows) against stubs and
// a real in-memory session store.
type env struct {
	backend  *stubBackend
	sender   *recordingSender
	sessions *session.MemoryStore
	pipeline *Pipeline
}

func newEnv() *env {
	backend := newStubBackend()
	sender := &recordingSender{}
	sessions := session.NewMemoryStore()
	log := zerolog.Nop()

	router := NewRouter(sessions, log)
	RegisterRoutes(router,
		NewAuthFlow(backend, sessions, sender, log),
		NewOvertimeFlow(backend, sessions, sender, log),
		NewStaffHandlers(backend, sender, log),
	)

	return &env{
		backend:  backend,
		sender:   sender,
		sessions: sessions,
		pipeline: NewPipeline(service.NewEnricher(backend, log), router),
	}
}

func (e *env) message(t *testing.T, conversationID int64, text string) {
	t.Helper()
	e.messageID(t, conversationID, 1, text)
}

func (e *env) messageID(t *testing.T, conversationID int64, messageID int, text string) {
	t.Helper()
	err := e.pipeline.Process(context.Background(), domain.Event{
		Kind:           domain.KindMessage,
		ConversationID: conversationID,
		MessageID:      messageID,
		Text:           text,
	})
	if err != nil {
		t.Fatalf("process message %q: %v", text, err)
	}
}

func (e *env) callback(t *testing.T, conversationID int64, data string) {
	t.Helper()
	err := e.pipeline.Process(context.Background(), domain.Event{
		Kind:           domain.KindCallback,
		ConversationID: conversationID,
		MessageID:      2,
		CallbackID:     "cb-1",
		CallbackData:   data,
	})
	if err != nil {
		t.Fatalf("process callback %q: %v", data, err)
	}
}

func (e *env) state(t *testing.T, conversationID int64) domain.Session {
	t.Helper()
	sess, err := e.sessions.Get(context.Background(), conversationID)
	if err != nil {
		t.Fatalf("session get: %v", err)
	}
	return sess
}

func adminAccount(id int64) *domain.Employee {
	return &domain.Employee{ID: id, Login: "boss", Surname: "Barnes", Name: "Ada", RoleID: domain.RoleAdmin}
}

func staffAccount(id int64) *domain.Employee {
	return &domain.Employee{ID: id, Login: "jdoe", Surname: "Doe", Name: "Jane", RoleID: domain.RoleStaff, IdleHours: 3}
}
