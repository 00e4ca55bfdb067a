package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/go-shortage/internal/app/service"
	"github.com/atinyakov/go-shortage/internal/app/templates"
	"github.com/atinyakov/go-shortage/internal/middleware"
)

const (
	stateCookie = "oauth_state"
	nextCookie  = "oauth_next"

	// The login flow has this long to come back to the callback.
	loginFlowTTL = 10 * time.Minute
)

// AuthHandler drives the OAuth login flow and owns the session cookie.
type AuthHandler struct {
	auth   service.AuthIface
	oauth  service.OAuthProvider
	pages  *templates.Templates
	logger *zap.Logger
	secure bool
}

// NewAuth creates the login handlers. secure marks cookies HTTPS only.
func NewAuth(a service.AuthIface, p service.OAuthProvider, pages *templates.Templates, l *zap.Logger, secure bool) *AuthHandler {
	return &AuthHandler{
		auth:   a,
		oauth:  p,
		pages:  pages,
		logger: l,
		secure: secure,
	}
}

// Login handles GET /login. It remembers a fresh CSRF state and the page to
// return to, then offers the provider's authorization link.
func (h *AuthHandler) Login(res http.ResponseWriter, req *http.Request) {
	state := uuid.NewString()

	http.SetCookie(res, h.flowCookie(stateCookie, state))
	if next := req.URL.Query().Get("next"); isLocalPath(next) {
		http.SetCookie(res, h.flowCookie(nextCookie, next))
	}

	render(res, req, h.pages, http.StatusOK, templates.Login, templates.Page{
		RedirectURL: h.oauth.AuthCodeURL(state),
	}, h.logger)
}

// Callback handles GET /login/callback.
func (h *AuthHandler) Callback(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 10*time.Second)
	defer cancel()

	saved, err := req.Cookie(stateCookie)
	if err != nil || saved.Value == "" {
		http.Error(res, "missing OAuth state", http.StatusBadRequest)
		return
	}

	query := req.URL.Query()
	if query.Get("state") != saved.Value {
		http.Error(res, "invalid CSRF state", http.StatusUnauthorized)
		return
	}

	user, err := h.oauth.Identify(ctx, query.Get("code"))
	if err != nil {
		h.logger.Error("authentication failed", zap.Error(err))
		http.Error(res, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	token, err := h.auth.Login(ctx, *user)
	if err != nil {
		h.logger.Error("login failed", zap.String("login", user.Login), zap.Error(err))
		http.Error(res, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(res, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(service.TokenExp),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(res, h.expiredCookie(stateCookie, "/login"))

	next := "/"
	if c, err := req.Cookie(nextCookie); err == nil && isLocalPath(c.Value) {
		next = c.Value
		http.SetCookie(res, h.expiredCookie(nextCookie, "/login"))
	}

	h.logger.Info("logged in", zap.String("login", user.Login))
	http.Redirect(res, req, next, http.StatusSeeOther)
}

// Logout handles GET /logout.
func (h *AuthHandler) Logout(res http.ResponseWriter, req *http.Request) {
	http.SetCookie(res, h.expiredCookie(middleware.SessionCookie, "/"))

	// Rendered without the header user: the session is gone.
	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages.Render(res, templates.Message, templates.Page{Content: "Logged out."}); err != nil {
		h.logger.Error("render page", zap.Error(err))
	}
}

func (h *AuthHandler) flowCookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/login",
		MaxAge:   int(loginFlowTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) expiredCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
	}
}

// isLocalPath rejects anything that would leave the site, including
// protocol-relative "//host" paths.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
