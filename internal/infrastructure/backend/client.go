// Package backend implements the REST client for the directory/attendance
// service. It is the single shared connection resource: one http.Client
// created at startup, safe for concurrent requests from all conversations.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/worktrack/attendance-bot/internal/api/metrics"
	"github.com/worktrack/attendance-bot/internal/core/domain"
	"github.com/worktrack/attendance-bot/internal/core/ports"
)

const (
	defaultTimeout  = 15 * time.Second
	tokenTTL        = 5 * time.Minute
	tokenRefreshGap = 30 * time.Second
)

// Config captures the settings for the directory service connection.
type Config struct {
	BaseURL string
	// JWTSecret enables an HS256 service token on outbound requests when
	// non-empty.
	JWTSecret string
	Timeout   time.Duration
}

// Client talks to the directory service. Lookup operations map a 404 to
// (nil, nil); all other failures are structured errors wrapping
// domain.ErrBackendUnavailable.
type Client struct {
	base     string
	http     *http.Client
	secret   string
	validate *validator.Validate
	log      zerolog.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

var _ ports.Backend = (*Client)(nil)

// NewClient builds a Client with a dedicated http.Client. A default timeout
// is applied when none is provided.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		base:     cfg.BaseURL,
		http:     &http.Client{Timeout: timeout},
		secret:   cfg.JWTSecret,
		validate: validator.New(),
		log:      log,
	}
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type linkRequest struct {
	TelegramID *int64 `json:"tg_id"`
}

type createActionRequest struct {
	EmployeeID int64             `json:"employee_id"`
	Hours      int               `json:"hours"`
	Date       string            `json:"date_action"`
	TypeID     domain.ActionType `json:"actiontype_id"`
}

// Authenticate verifies credentials. Rejected or unknown credentials return
// (nil, nil); only transport or server failures return an error.
func (c *Client) Authenticate(ctx context.Context, login, password string) (*domain.Employee, error) {
	var emp domain.Employee
	status, err := c.do(ctx, "authenticate", http.MethodPost, "/employees/login", loginRequest{Login: login, Password: password}, &emp)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK, http.StatusCreated:
		return c.validEmployee(&emp)
	case http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden:
		return nil, nil
	default:
		return nil, c.statusErr("authenticate", status)
	}
}

// LinkIdentity binds the conversation identity to the account.
func (c *Client) LinkIdentity(ctx context.Context, employeeID, conversationID int64) error {
	path := fmt.Sprintf("/employees/%d/set_tg_id", employeeID)
	status, err := c.do(ctx, "link_identity", http.MethodPut, path, linkRequest{TelegramID: &conversationID}, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return c.statusErr("link_identity", status)
	}
	return nil
}

// UnlinkIdentity removes the account's transport binding.
func (c *Client) UnlinkIdentity(ctx context.Context, employeeID int64) error {
	path := fmt.Sprintf("/employees/%d/unset_tg_id", employeeID)
	status, err := c.do(ctx, "unlink_identity", http.MethodPut, path, linkRequest{}, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return c.statusErr("unlink_identity", status)
	}
	return nil
}

// LookupByIdentity resolves a conversation identity to its account, or
// (nil, nil) when no account is linked to it.
func (c *Client) LookupByIdentity(ctx context.Context, conversationID int64) (*domain.Employee, error) {
	var emp domain.Employee
	path := fmt.Sprintf("/employees/telegram/%d", conversationID)
	status, err := c.do(ctx, "lookup_by_identity", http.MethodGet, path, nil, &emp)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return c.validEmployee(&emp)
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, c.statusErr("lookup_by_identity", status)
	}
}

// ListEmployees returns all directory accounts.
func (c *Client) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	var employees []domain.Employee
	status, err := c.do(ctx, "list_employees", http.MethodGet, "/employees", nil, &employees)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return employees, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, c.statusErr("list_employees", status)
	}
}

// GetEmployee fetches one account by id, or (nil, nil) when absent.
func (c *Client) GetEmployee(ctx context.Context, employeeID int64) (*domain.Employee, error) {
	var emp domain.Employee
	path := fmt.Sprintf("/employees/%d", employeeID)
	status, err := c.do(ctx, "get_employee", http.MethodGet, path, nil, &emp)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return c.validEmployee(&emp)
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, c.statusErr("get_employee", status)
	}
}

// ListActions returns the employee's attendance records.
func (c *Client) ListActions(ctx context.Context, employeeID int64) ([]domain.Action, error) {
	var actions []domain.Action
	path := fmt.Sprintf("/employees/%d/actions", employeeID)
	status, err := c.do(ctx, "list_actions", http.MethodGet, path, nil, &actions)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return actions, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, c.statusErr("list_actions", status)
	}
}

// CreateAction registers a new attendance action and returns the created
// record, or (nil, nil) when the backend rejects it as not found.
func (c *Client) CreateAction(ctx context.Context, in ports.CreateActionInput) (*domain.Action, error) {
	body := createActionRequest{
		EmployeeID: in.EmployeeID,
		Hours:      in.Hours,
		Date:       in.Date,
		TypeID:     in.Type,
	}
	var action domain.Action
	status, err := c.do(ctx, "create_action", http.MethodPost, "/actions", body, &action)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK, http.StatusCreated:
		if err := c.validate.Struct(&action); err != nil {
			return nil, fmt.Errorf("%w: create_action: %v", domain.ErrInvalidPayload, err)
		}
		return &action, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, c.statusErr("create_action", status)
	}
}

// FetchDocument retrieves the certificate bytes for an action, or (nil, nil)
// when no document exists for it.
func (c *Client) FetchDocument(ctx context.Context, actionID int64) ([]byte, error) {
	path := fmt.Sprintf("/documents/holiday/%d", actionID)
	req, err := c.newRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}

	timer := metrics.BackendRequestTimer("fetch_document")
	resp, err := c.http.Do(req)
	timer.ObserveDuration()
	if err != nil {
		return nil, fmt.Errorf("%w: fetch_document: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: fetch_document: read body: %v", domain.ErrBackendUnavailable, err)
		}
		return data, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, c.statusErr("fetch_document", resp.StatusCode)
	}
}

// Ping reports whether the directory service is reachable at all. Any HTTP
// response counts; only transport failures are errors.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/employees", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ping: %v", domain.ErrBackendUnavailable, err)
	}
	_ = resp.Body.Close()
	return nil
}

// do executes a JSON request and decodes 2xx bodies into out (when non-nil).
// It returns the HTTP status for the caller to classify; the error covers
// transport and decode failures only.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	timer := metrics.BackendRequestTimer(op)
	resp, err := c.http.Do(req)
	timer.ObserveDuration()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrBackendUnavailable, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return resp.StatusCode, fmt.Errorf("%w: %s: decode response: %v", domain.ErrInvalidPayload, op, err)
			}
		}
		return resp.StatusCode, nil
	}

	// Drain so the connection can be reused; log the first bytes for
	// troubleshooting non-2xx answers.
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode != http.StatusNotFound {
		c.log.Error().
			Str("op", op).
			Int("status", resp.StatusCode).
			Bytes("body", snippet).
			Msg("backend request failed")
	}
	return resp.StatusCode, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	if c.secret != "" {
		token, err := c.serviceToken()
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// serviceToken returns a cached HS256 token identifying this bot to the
// backend, re-minted shortly before expiry.
func (c *Client) serviceToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.token != "" && now.Before(c.tokenExp.Add(-tokenRefreshGap)) {
		return c.token, nil
	}

	exp := now.Add(tokenTTL)
	claims := jwt.MapClaims{
		"iss": "attendance-bot",
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.secret))
	if err != nil {
		return "", fmt.Errorf("sign service token: %w", err)
	}

	c.token = token
	c.tokenExp = exp
	return token, nil
}

func (c *Client) validEmployee(emp *domain.Employee) (*domain.Employee, error) {
	if err := c.validate.Struct(emp); err != nil {
		return nil, fmt.Errorf("%w: employee record: %v", domain.ErrInvalidPayload, err)
	}
	return emp, nil
}

func (c *Client) statusErr(op string, status int) error {
	return fmt.Errorf("%w: %s: status %d", domain.ErrBackendUnavailable, op, status)
}
