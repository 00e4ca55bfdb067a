// Package server assembles the HTTP router of the shortener.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atinyakov/go-shortage/internal/app/handler"
	"github.com/atinyakov/go-shortage/internal/app/service"
	"github.com/atinyakov/go-shortage/internal/app/templates"
	"github.com/atinyakov/go-shortage/internal/middleware"
)

// Options changes how the router is assembled.
type Options struct {
	// Anonymous drops the login routes and lets every caller act as the
	// anonymous owner.
	Anonymous bool
	// TrustedSubnet may read /metrics.
	TrustedSubnet string
	// SecureCookies marks session cookies HTTPS only.
	SecureCookies bool
}

// Init builds the router. auth and provider may be nil in anonymous mode;
// users backs the /ping health check.
func Init(logger *zap.Logger, opts Options, s service.URLServiceIface, users service.UserStore, auth service.AuthIface, provider service.OAuthProvider) (*chi.Mux, error) {
	pages, err := templates.New()
	if err != nil {
		return nil, err
	}

	get := handler.NewGet(s, pages, logger)
	post := handler.NewPost(s, pages, logger)
	del := handler.NewDelete(s, pages, logger)
	health := handler.NewHealth(users, logger)

	r := chi.NewRouter()
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.WithMetrics)
	if opts.Anonymous {
		r.Use(middleware.WithAnonymous)
	} else {
		r.Use(middleware.WithSession(auth, logger))
	}
	r.Use(middleware.WithGZIPBody)

	r.With(middleware.WithSubnet(opts.TrustedSubnet)).Handle("/metrics", promhttp.Handler())
	r.Get("/ping", health.PingDB)

	if !opts.Anonymous {
		login := handler.NewAuth(auth, provider, pages, logger, opts.SecureCookies)
		r.Get("/login", login.Login)
		r.Get("/login/callback", login.Callback)
		r.Get("/logout", login.Logout)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Get("/", get.Index)
		r.Post("/register", post.Register)
		r.Patch("/edit", post.Edit)
		r.Post("/edit", post.Edit)
		r.Delete("/remove/{name}", del.Remove)
		r.Post("/remove", del.RemoveForm)
		r.With(middleware.WithGZIP).Get("/list", get.List)
		r.Get("/qr/{name}", get.QRCode)
	})

	r.Get("/{short}", get.Redirect)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "404 Not Found", http.StatusNotFound)
	})

	return r, nil
}
