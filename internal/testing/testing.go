// Package testing holds fixtures and fakes shared by snipx tests: snippet builders, an in-memory
// snippet API ([SnippetServer]), failing writers and transports, and filesystem assertions.
package testing

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/desertthunder/snipx/internal/models"
)

// FixtureTime is the creation time of the first fixture snippet; later ones are a minute apart.
var FixtureTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// NewSnippet builds a PYTHON snippet created minutes after [FixtureTime].
func NewSnippet(id, title string, minutes int) models.Snippet {
	return models.Snippet{
		ID:        id,
		Title:     title,
		Code:      "print(" + title + ")",
		Language:  "PYTHON",
		CreatedAt: FixtureTime.Add(time.Duration(minutes) * time.Minute),
	}
}

// SampleSnippets returns n snippets with ids "id-a", "id-b", ... in ascending creation order.
func SampleSnippets(n int) []models.Snippet {
	out := make([]models.Snippet, n)
	for i := range out {
		out[i] = NewSnippet(fmt.Sprintf("id-%c", 'a'+i), fmt.Sprintf("Snippet %c", 'A'+i), i)
	}
	return out
}

// FWriter fails every write.
type FWriter struct{}

func (f *FWriter) Write(p []byte) (int, error) {
	return 0, errors.New("write failed")
}

// LimitedWriter passes writes through to target until maxWrites is reached, then fails.
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func (l *LimitedWriter) Write(p []byte) (int, error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

// MockRoundTripper answers every request with a fixed response or error.
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser is a response body whose reads fail.
type FCloser struct{}

func (f *FCloser) Read(p []byte) (int, error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error { return nil }

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change directory to %s: %v", dir, err)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file %s: %v", path, err)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory %s: %v", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", path)
	}
}
