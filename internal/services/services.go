package services

import (
	"context"

	"github.com/desertthunder/snipx/internal/models"
)

// Credentials is the body of the login and register endpoints.
type Credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// SnippetAPI defines the REST operations consumed by the client.
//
// Methods taking a userName send it as the X-User-Name header; an empty name omits the header.
type SnippetAPI interface {
	// Login checks credentials via POST /api/auth/login.
	Login(ctx context.Context, creds Credentials) error

	// Register creates an account via POST /api/auth/register.
	Register(ctx context.Context, creds Credentials) error

	// Users lists every registered user name via GET /api/auth/users.
	Users(ctx context.Context) ([]string, error)

	// Guest lists snippets without an owner via GET /api/snippets/guest.
	Guest(ctx context.Context) ([]models.Snippet, error)

	// Mine lists snippets owned by userName via GET /api/snippets/me.
	Mine(ctx context.Context, userName string) ([]models.Snippet, error)

	// SharedWithMe lists snippets shared to userName via GET /api/snippets/shared/me.
	SharedWithMe(ctx context.Context, userName string) ([]models.Snippet, error)

	// Languages lists the language enum via GET /api/snippets/languages.
	Languages(ctx context.Context) ([]models.Language, error)

	// Create submits a new snippet via POST /api/snippets and returns the stored entity.
	Create(ctx context.Context, userName string, form models.Form) (*models.Snippet, error)

	// Update replaces an existing snippet's fields via PUT /api/snippets/{id}.
	Update(ctx context.Context, userName, id string, form models.Form) (*models.Snippet, error)

	// Delete removes a snippet via DELETE /api/snippets/{id}.
	Delete(ctx context.Context, id string) error

	// ShareTo shares a snippet with the named users via POST /api/snippets/{id}/share-to.
	ShareTo(ctx context.Context, id string, userNames []string) error
}
