package service

//go:generate mockgen -destination=../../mocks/service.go -package=mocks . URLServiceIface,AuthIface,OAuthProvider,UserStore

import (
	"context"
	"net/http"

	"github.com/atinyakov/go-shortage/internal/models"
	"github.com/atinyakov/go-shortage/internal/registry"
)

// URLServiceIface is what the HTTP and gRPC surfaces need from the URL service.
type URLServiceIface interface {
	Register(ctx context.Context, owner registry.Owner, req models.RegisterRequest) (*models.Registered, error)
	Edit(ctx context.Context, owner registry.Owner, req models.RegisterRequest) error
	Remove(ctx context.Context, owner registry.Owner, name string) error
	List(ctx context.Context, owner registry.Owner) ([]models.Entry, error)
	Resolve(ctx context.Context, name string) (string, error)
	ShortURL(name string) string
	Stats(ctx context.Context) models.Stats
}

// AuthIface issues and checks session tokens.
type AuthIface interface {
	Login(ctx context.Context, u models.User) (string, error)
	ParseClaims(c *http.Cookie) (*Claims, error)
	ParseRawJWT(tokenString string) (*Claims, error)
	Lookup(ctx context.Context, id string) (*models.User, error)
}

// OAuthProvider is an external identity provider.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (*models.User, error)
}

// UserStore keeps the users that logged in.
type UserStore interface {
	Save(ctx context.Context, u models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	PingContext(ctx context.Context) error
}
