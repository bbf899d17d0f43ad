// Snippet REST API [SnippetAPI] implementation
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/snipx/internal/models"
	"github.com/desertthunder/snipx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "http://localhost:8080"

	// HeaderUserName identifies the acting user to the snippet API.
	HeaderUserName = "X-User-Name"
)

// APIError is a non-2xx response from the snippet API.
type APIError struct {
	StatusCode int
	Status     string // reason phrase, e.g. "Not Found"
	Message    string // "message" field of a JSON error body, if any
	Path       string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: status %d %s", shared.ErrAPIRequest, e.StatusCode, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap exposes [shared.ErrAPIRequest], plus [shared.ErrSnippetNotFound] for 404s on snippet paths.
func (e *APIError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	if e.StatusCode == http.StatusNotFound && strings.HasPrefix(e.Path, "/api/snippets/") {
		errs = append(errs, shared.ErrSnippetNotFound)
	}
	return errs
}

// ServerMessage extracts the server-provided message from err, if it carries one.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

var _ SnippetAPI = (*SnippetService)(nil)

// Options configures a [SnippetService].
type Options struct {
	BaseURL           string
	HTTPClient        *http.Client
	APIToken          string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// OptionsFromConfig maps the [shared.ServerConfig] section onto [Options].
func OptionsFromConfig(cfg shared.ServerConfig) Options {
	return Options{
		BaseURL:           cfg.BaseURL,
		APIToken:          cfg.APIToken,
		Timeout:           time.Duration(cfg.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}
}

// SnippetService implements [SnippetAPI] over HTTP.
type SnippetService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSnippetService creates a client for the API at opts.BaseURL.
//
// A zero RequestsPerSecond disables rate limiting.
func NewSnippetService(opts Options) *SnippetService {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	if opts.APIToken != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.APIToken, TokenType: "Bearer"})
		client = oauth2.NewClient(ctx, src)
	}

	if opts.Timeout > 0 {
		withTimeout := *client
		withTimeout.Timeout = opts.Timeout
		client = &withTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &SnippetService{baseURL: baseURL, httpClient: client, limiter: limiter}
}

// BaseURL returns the API root this service talks to.
func (s *SnippetService) BaseURL() string {
	return s.baseURL
}

func (s *SnippetService) doRequest(ctx context.Context, method, endpoint, userName string, body, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userName != "" {
		req.Header.Set(HeaderUserName, userName)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp, endpoint, data)
	}

	if result != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func newAPIError(resp *http.Response, path string, body []byte) *APIError {
	status := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if status == "" {
		status = http.StatusText(resp.StatusCode)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Status: status, Path: path}

	var errBody struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errBody); err == nil {
		apiErr.Message = strings.TrimSpace(errBody.Message)
	}
	return apiErr
}

// Login checks credentials. The API issues no token; success is the whole result.
func (s *SnippetService) Login(ctx context.Context, creds Credentials) error {
	return s.doRequest(ctx, http.MethodPost, "/api/auth/login", "", creds, nil)
}

// Register creates an account.
func (s *SnippetService) Register(ctx context.Context, creds Credentials) error {
	return s.doRequest(ctx, http.MethodPost, "/api/auth/register", "", creds, nil)
}

// Users lists registered user names.
//
// Accepts either ["ada", ...] or [{"name": "ada"}, ...].
func (s *SnippetService) Users(ctx context.Context) ([]string, error) {
	var raw json.RawMessage
	if err := s.doRequest(ctx, http.MethodGet, "/api/auth/users", "", nil, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []string{}, nil
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		return names, nil
	}

	var users []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	names = make([]string, 0, len(users))
	for _, u := range users {
		if u.Name != "" {
			names = append(names, u.Name)
		}
	}
	return names, nil
}

func (s *SnippetService) list(ctx context.Context, endpoint, userName string, origin models.Origin) ([]models.Snippet, error) {
	var snippets []models.Snippet
	if err := s.doRequest(ctx, http.MethodGet, endpoint, userName, nil, &snippets); err != nil {
		return nil, err
	}
	return models.WithOrigin(snippets, origin), nil
}

// Guest lists snippets visible without authentication.
func (s *SnippetService) Guest(ctx context.Context) ([]models.Snippet, error) {
	return s.list(ctx, "/api/snippets/guest", "", models.OriginGuest)
}

// Mine lists the snippets owned by userName.
func (s *SnippetService) Mine(ctx context.Context, userName string) ([]models.Snippet, error) {
	if userName == "" {
		return nil, fmt.Errorf("%w: user name required", shared.ErrNotAuthenticated)
	}
	return s.list(ctx, "/api/snippets/me", userName, models.OriginMine)
}

// SharedWithMe lists the snippets other users shared with userName.
func (s *SnippetService) SharedWithMe(ctx context.Context, userName string) ([]models.Snippet, error) {
	if userName == "" {
		return nil, fmt.Errorf("%w: user name required", shared.ErrNotAuthenticated)
	}
	return s.list(ctx, "/api/snippets/shared/me", userName, models.OriginShared)
}

// Languages lists the language enum values accepted by the server.
func (s *SnippetService) Languages(ctx context.Context) ([]models.Language, error) {
	var langs []models.Language
	if err := s.doRequest(ctx, http.MethodGet, "/api/snippets/languages", "", nil, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// Create submits form as a new snippet, owned by userName when it is non-empty.
func (s *SnippetService) Create(ctx context.Context, userName string, form models.Form) (*models.Snippet, error) {
	var created models.Snippet
	if err := s.doRequest(ctx, http.MethodPost, "/api/snippets", userName, form, &created); err != nil {
		return nil, err
	}
	if userName != "" {
		created.Origin = models.OriginMine
	} else {
		created.Origin = models.OriginGuest
	}
	return &created, nil
}

// Update replaces title, code and language of the snippet id.
func (s *SnippetService) Update(ctx context.Context, userName, id string, form models.Form) (*models.Snippet, error) {
	id, err := shared.ValidateID(id)
	if err != nil {
		return nil, err
	}

	var updated models.Snippet
	if err := s.doRequest(ctx, http.MethodPut, "/api/snippets/"+id, userName, form, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the snippet id.
func (s *SnippetService) Delete(ctx context.Context, id string) error {
	id, err := shared.ValidateID(id)
	if err != nil {
		return err
	}
	return s.doRequest(ctx, http.MethodDelete, "/api/snippets/"+id, "", nil, nil)
}

// ShareTo shares the snippet id with userNames. The server rejects an empty list.
func (s *SnippetService) ShareTo(ctx context.Context, id string, userNames []string) error {
	id, err := shared.ValidateID(id)
	if err != nil {
		return err
	}
	if len(userNames) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", shared.ErrMissingArgument)
	}

	body := struct {
		UserNames []string `json:"userNames"`
	}{UserNames: userNames}

	return s.doRequest(ctx, http.MethodPost, "/api/snippets/"+id+"/share-to", "", body, nil)
}
