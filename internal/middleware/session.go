package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/atinyakov/go-shortage/internal/app/service"
	"github.com/atinyakov/go-shortage/internal/models"
	"github.com/atinyakov/go-shortage/internal/registry"
	"github.com/atinyakov/go-shortage/internal/storage"
)

// ContextKey is a custom type used for keys in the context.
type ContextKey string

const (
	// UserKey holds the logged in models.User.
	UserKey ContextKey = "user"
	// OwnerKey holds the registry.Owner the request acts as.
	OwnerKey ContextKey = "owner"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "token"

// InjectUser attaches u, and the owner it acts as, to the request context.
func InjectUser(req *http.Request, u models.User) *http.Request {
	return req.WithContext(ContextWithUser(req.Context(), u))
}

// ContextWithUser returns a copy of ctx carrying u and its owner.
func ContextWithUser(ctx context.Context, u models.User) context.Context {
	ctx = context.WithValue(ctx, UserKey, u)
	return context.WithValue(ctx, OwnerKey, registry.UserOwner(u.ID))
}

// ContextWithAnonymous returns a copy of ctx acting as the anonymous owner.
func ContextWithAnonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, OwnerKey, registry.Anonymous)
}

// UserFromContext returns the logged in user, if any.
func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(UserKey).(models.User)
	return u, ok
}

// OwnerFromContext returns the owner capability of the caller, if any.
func OwnerFromContext(ctx context.Context) (registry.Owner, bool) {
	o, ok := ctx.Value(OwnerKey).(registry.Owner)
	return o, ok
}

// WithSession reads the session cookie and, when it names a known user,
// injects that user into the request context. Requests without a valid
// session pass through untouched.
func WithSession(auth service.AuthIface, log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseClaims(cookie)
			if err != nil {
				log.Debug("ignoring session", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			u, err := auth.Lookup(r.Context(), claims.UserID)
			if errors.Is(err, storage.ErrUserNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				log.Error("session lookup", zap.String("user_id", claims.UserID), zap.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, InjectUser(r, *u))
		})
	}
}

// RequireUser sends callers without an owner to the login page, remembering
// where they wanted to go.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := OwnerFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithAnonymous makes every caller act as the anonymous owner.
func WithAnonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(ContextWithAnonymous(r.Context())))
	})
}
