package session

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/desertthunder/snipx/internal/services"
	"github.com/desertthunder/snipx/internal/shared"
	tu "github.com/desertthunder/snipx/internal/testing"
)

type failingStorage struct{ MemoryStorage }

func (*failingStorage) GetItem(string) (string, bool, error) {
	return "", false, errors.New("disk gone")
}
func (*failingStorage) RemoveItem(string) error { return errors.New("disk gone") }

func newStore(t *testing.T) (*Store, *MemoryStorage, *tu.SnippetServer) {
	t.Helper()
	srv := tu.NewSnippetServer(t)
	storage := NewMemoryStorage()
	api := services.NewSnippetService(services.Options{BaseURL: srv.URL})
	return NewStore(storage, api, nil), storage, srv
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty Session", func(t *testing.T) {
		store, _, _ := newStore(t)

		sess := store.Session()
		if sess.IsLoggedIn || sess.UserName != "" || sess.Active() {
			t.Errorf("expected signed-out session, got %+v", sess)
		}
	})

	t.Run("Login", func(t *testing.T) {
		store, storage, srv := newStore(t)
		srv.AddUser("ada", "pw")

		msg, err := store.Login(ctx, "ada", "pw")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if msg != "Login successful" {
			t.Errorf("unexpected message %q", msg)
		}

		if v, _, _ := storage.GetItem(KeyLoggedIn); v != "true" {
			t.Errorf("expected isLoggedIn=true, got %q", v)
		}
		if v, _, _ := storage.GetItem(KeyUserName); v != "ada" {
			t.Errorf("expected userName=ada, got %q", v)
		}
		if !store.Session().Active() {
			t.Error("expected active session")
		}
	})

	t.Run("Login Failure", func(t *testing.T) {
		store, storage, srv := newStore(t)
		srv.AddUser("ada", "pw")

		msg, err := store.Login(ctx, "ada", "wrong")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		var apiErr *services.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected *services.APIError with status 401, got %v", err)
		}
		if msg != "Login failed: invalid credentials" {
			t.Errorf("unexpected message %q", msg)
		}
		if _, ok, _ := storage.GetItem(KeyLoggedIn); ok {
			t.Error("failed login must not persist a session")
		}
	})

	t.Run("Register", func(t *testing.T) {
		tests := []struct {
			name     string
			user     string
			password string
			setup    func(*tu.SnippetServer)
			wantMsg  string
			wantErr  error
		}{
			{
				name:     "Success",
				user:     "grace",
				password: "pw",
				wantMsg:  "Registration successful. Please login.",
			},
			{
				name:     "Missing Fields",
				user:     " ",
				password: "",
				wantMsg:  "Registration failed! Please enter both name and password",
				wantErr:  shared.ErrMissingArgument,
			},
			{
				name:     "Server Message",
				user:     "ada",
				password: "pw",
				setup:    func(s *tu.SnippetServer) { s.AddUser("ada", "x") },
				wantMsg:  "Registration failed: user already exists",
				wantErr:  shared.ErrRegisterFailed,
			},
			{
				name:     "No Server Message",
				user:     "ada",
				password: "pw",
				setup: func(s *tu.SnippetServer) {
					s.Fail("POST /api/auth/register", http.StatusInternalServerError, "")
				},
				wantMsg: "Registration failed! Please enter both name and password",
				wantErr: shared.ErrRegisterFailed,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				store, storage, srv := newStore(t)
				if tt.setup != nil {
					tt.setup(srv)
				}

				msg, err := store.Register(ctx, tt.user, tt.password)
				if msg != tt.wantMsg {
					t.Errorf("expected %q, got %q", tt.wantMsg, msg)
				}
				if tt.wantErr == nil && err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if tt.wantErr == shared.ErrRegisterFailed && !errors.Is(err, shared.ErrAPIRequest) {
					t.Errorf("expected ErrAPIRequest in chain, got %v", err)
				}
				if _, ok, _ := storage.GetItem(KeyLoggedIn); ok {
					t.Error("register must not log in")
				}
			})
		}
	})

	t.Run("SignOut", func(t *testing.T) {
		t.Run("With Name", func(t *testing.T) {
			store, storage, _ := newStore(t)
			storage.SetItem(KeyLoggedIn, "true")
			storage.SetItem(KeyUserName, "ada")

			msg, err := store.SignOut()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if msg != "ada signed out successfully" {
				t.Errorf("unexpected message %q", msg)
			}
			for _, key := range []string{KeyLoggedIn, KeyUserName} {
				if _, ok, _ := storage.GetItem(key); ok {
					t.Errorf("expected %s to be removed", key)
				}
			}
		})

		t.Run("Without Name", func(t *testing.T) {
			store, _, _ := newStore(t)

			msg, err := store.SignOut()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if msg != "Signed out successfully" {
				t.Errorf("unexpected message %q", msg)
			}
		})

		t.Run("Storage Failure Still Confirms", func(t *testing.T) {
			store := NewStore(&failingStorage{}, nil, nil)

			msg, err := store.SignOut()
			if msg != "Signed out successfully" {
				t.Errorf("unexpected message %q", msg)
			}
			if err == nil {
				t.Error("expected storage error to be reported")
			}
			if sess := store.Session(); sess.IsLoggedIn {
				t.Error("unreadable storage should yield a signed-out session")
			}
		})
	})
}
