package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tu "github.com/desertthunder/snipx/internal/testing"
)

type capturedRequest struct {
	method      string
	path        string
	userName    string
	contentType string
	body        string
}

// captureServer records the last request and answers with status and body.
func captureServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	got := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		*got = capturedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			userName:    r.Header.Get(HeaderUserName),
			contentType: r.Header.Get("Content-Type"),
			body:        string(data),
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestAPIService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewAPIService", func(t *testing.T) {
		tests := []struct {
			name    string
			baseURL string
			want    string
		}{
			{"empty uses default", "", "http://localhost:8080"},
			{"trailing slash trimmed", "http://snippets.test/", "http://snippets.test"},
			{"several slashes trimmed", "http://snippets.test///", "http://snippets.test"},
			{"kept as is", "http://snippets.test/v1", "http://snippets.test/v1"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := NewAPIService(tt.baseURL, nil).baseURL; got != tt.want {
					t.Errorf("baseURL = %q, want %q", got, tt.want)
				}
			})
		}

		if NewAPIService("", nil).httpClient != http.DefaultClient {
			t.Error("expected http.DefaultClient when client is nil")
		}
	})

	t.Run("trailing slash does not double the path separator", func(t *testing.T) {
		srv, got := captureServer(t, http.StatusOK, `[]`)

		if _, err := NewAPIService(srv.URL+"/", nil).Get(ctx, "/api/snippets/guest"); err != nil {
			t.Fatal(err)
		}
		if got.path != "/api/snippets/guest" {
			t.Errorf("path = %q", got.path)
		}
	})

	t.Run("WithUser", func(t *testing.T) {
		srv, got := captureServer(t, http.StatusOK, `[]`)
		anon := NewAPIService(srv.URL, nil)
		ada := anon.WithUser("ada")

		if _, err := ada.Get(ctx, "/api/snippets/me"); err != nil {
			t.Fatal(err)
		}
		if got.userName != "ada" {
			t.Errorf("%s = %q, want ada", HeaderUserName, got.userName)
		}

		if _, err := anon.Get(ctx, "/api/snippets/guest"); err != nil {
			t.Fatal(err)
		}
		if got.userName != "" {
			t.Errorf("original service sent %s = %q", HeaderUserName, got.userName)
		}
	})

	t.Run("Get sends no Content-Type", func(t *testing.T) {
		srv, got := captureServer(t, http.StatusOK, `["GO"]`)

		if _, err := NewAPIService(srv.URL, nil).Get(ctx, "/api/snippets/languages"); err != nil {
			t.Fatal(err)
		}
		if got.method != http.MethodGet || got.contentType != "" || got.body != "" {
			t.Errorf("request = %+v", *got)
		}
	})

	t.Run("Post sends JSON body", func(t *testing.T) {
		srv, got := captureServer(t, http.StatusCreated, `{"id":"x"}`)
		body := `{"title":"t","code":"c","language":"GO"}`

		resp, err := NewAPIService(srv.URL, nil).WithUser("ada").Post(ctx, "/api/snippets", []byte(body))
		if err != nil {
			t.Fatal(err)
		}
		if got.method != http.MethodPost || got.contentType != "application/json" || got.body != body {
			t.Errorf("request = %+v", *got)
		}
		if got.userName != "ada" {
			t.Errorf("%s = %q", HeaderUserName, got.userName)
		}
		if !resp.OK() || resp.StatusCode != http.StatusCreated {
			t.Errorf("status = %d", resp.StatusCode)
		}
	})

	t.Run("OK", func(t *testing.T) {
		tests := []struct {
			status int
			want   bool
		}{
			{http.StatusOK, true},
			{http.StatusCreated, true},
			{http.StatusNoContent, true},
			{299, true},
			{199, false},
			{http.StatusMovedPermanently, false},
			{http.StatusBadRequest, false},
			{http.StatusNotFound, false},
			{http.StatusInternalServerError, false},
		}
		for _, tt := range tests {
			if got := (&APIResponse{StatusCode: tt.status}).OK(); got != tt.want {
				t.Errorf("OK() for %d = %v, want %v", tt.status, got, tt.want)
			}
		}
	})

	t.Run("non-2xx responses are returned, not errors", func(t *testing.T) {
		srv, _ := captureServer(t, http.StatusConflict, `{"message":"user already exists"}`)

		resp, err := NewAPIService(srv.URL, nil).Post(ctx, "/api/auth/register", []byte(`{}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.OK() || resp.StatusCode != http.StatusConflict {
			t.Errorf("status = %d, OK = %v", resp.StatusCode, resp.OK())
		}
		data, ok := resp.JSONData.(map[string]any)
		if !resp.IsJSON || !ok || data["message"] != "user already exists" {
			t.Errorf("JSONData = %#v", resp.JSONData)
		}
	})

	t.Run("body that is not JSON", func(t *testing.T) {
		srv, _ := captureServer(t, http.StatusOK, "pong")

		resp, err := NewAPIService(srv.URL, nil).Get(ctx, "/health")
		if err != nil {
			t.Fatal(err)
		}
		if resp.IsJSON || resp.JSONData != nil || string(resp.Body) != "pong" {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}

		_, err := NewAPIService("http://snippets.test", client).Get(ctx, "/api/snippets/guest")
		if err == nil || !strings.Contains(err.Error(), "request failed") {
			t.Errorf("expected request error, got %v", err)
		}
	})

	t.Run("unreadable body", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}

		_, err := NewAPIService("http://snippets.test", client).Get(ctx, "/api/snippets/guest")
		if err == nil || !strings.Contains(err.Error(), "failed to read response") {
			t.Errorf("expected read error, got %v", err)
		}
	})
}

// The raw client against the endpoints listed by `snipx api get|post|dump`.
func TestAPIServiceSnippetEndpoints(t *testing.T) {
	ctx := context.Background()
	srv := tu.NewSnippetServer(t)
	srv.AddUser("ada", "pw")
	srv.AddUser("bob", "pw")
	srv.Seed("", "guest snippet", "SELECT 1", "SQL")
	mine := srv.Seed("ada", "ada's snippet", "fmt.Println()", "GO")

	api := NewAPIService(srv.URL, nil).WithUser("ada")

	t.Run("dump endpoints answer with JSON arrays", func(t *testing.T) {
		for _, path := range []string{
			"/api/snippets/languages",
			"/api/snippets/guest",
			"/api/auth/users",
			"/api/snippets/me",
			"/api/snippets/shared/me",
		} {
			resp, err := api.Get(ctx, path)
			if err != nil {
				t.Fatalf("%s: %v", path, err)
			}
			if !resp.OK() {
				t.Errorf("%s: status %d", path, resp.StatusCode)
				continue
			}
			if _, ok := resp.JSONData.([]any); !ok {
				t.Errorf("%s: JSONData = %#v, want array", path, resp.JSONData)
			}
		}
	})

	t.Run("me is scoped to the user header", func(t *testing.T) {
		resp, err := api.Get(ctx, "/api/snippets/me")
		if err != nil {
			t.Fatal(err)
		}
		list := resp.JSONData.([]any)
		if len(list) != 1 || list[0].(map[string]any)["id"] != mine.ID {
			t.Errorf("me = %#v", list)
		}

		anon, err := NewAPIService(srv.URL, nil).Get(ctx, "/api/snippets/me")
		if err != nil {
			t.Fatal(err)
		}
		if anon.StatusCode != http.StatusUnauthorized {
			t.Errorf("anonymous me status = %d", anon.StatusCode)
		}
	})

	t.Run("share-to then shared/me for the recipient", func(t *testing.T) {
		resp, err := api.Post(ctx, "/api/snippets/"+mine.ID+"/share-to", []byte(`{"userNames":["bob"]}`))
		if err != nil || !resp.OK() {
			t.Fatalf("share: resp = %+v, err = %v", resp, err)
		}

		shared, err := api.WithUser("bob").Get(ctx, "/api/snippets/shared/me")
		if err != nil {
			t.Fatal(err)
		}
		list := shared.JSONData.([]any)
		if len(list) != 1 || list[0].(map[string]any)["title"] != "ada's snippet" {
			t.Errorf("shared = %#v", list)
		}
	})

	t.Run("post creates a guest snippet", func(t *testing.T) {
		before := srv.Count()
		resp, err := NewAPIService(srv.URL, nil).Post(ctx, "/api/snippets", []byte(`{"title":"raw","code":"x","language":"GO"}`))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusCreated || srv.Count() != before+1 {
			t.Errorf("status = %d, count = %d", resp.StatusCode, srv.Count())
		}
	})
}
