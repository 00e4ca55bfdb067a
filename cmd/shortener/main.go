package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/go-shortage/internal/app/server"
	shortgrpc "github.com/atinyakov/go-shortage/internal/app/server/grpc"
	"github.com/atinyakov/go-shortage/internal/app/service"
	"github.com/atinyakov/go-shortage/internal/config"
	"github.com/atinyakov/go-shortage/internal/logger"
	"github.com/atinyakov/go-shortage/internal/registry"
	"github.com/atinyakov/go-shortage/internal/repository"
	"github.com/atinyakov/go-shortage/internal/storage"
	"github.com/atinyakov/go-shortage/internal/worker"

	_ "net/http/pprof"
)

var buildVersion string
var buildDate string
var buildCommit string

const shutdownTimeout = 10 * time.Second

func main() {
	printBuildInfo(os.Stdout)

	options, err := config.Parse()
	if err != nil {
		panic(err)
	}

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, options, log); err != nil {
		log.Log.Fatal("shortener stopped", zap.Error(err))
	}
}

func printBuildInfo(w io.Writer) {
	orNA := func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	}

	fmt.Fprintf(w, "Build version: %s\n", orNA(buildVersion))
	fmt.Fprintf(w, "Build date: %s\n", orNA(buildDate))
	fmt.Fprintf(w, "Build commit: %s\n", orNA(buildCommit))
}

// app is everything run starts, built ahead so it can be inspected.
type app struct {
	router  *chi.Mux
	urls    *service.URLService
	grpc    *shortgrpc.Server
	sweeper *worker.ExpirySweeper
	db      *sql.DB
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func build(ctx context.Context, options *config.Options, logs *logger.Logger) (*app, error) {
	a := &app{}
	log := logs.Log

	var users service.UserStore
	if options.DatabaseDSN != "" {
		log.Info("using db for users")
		db, err := repository.InitDB(ctx, options.DatabaseDSN, log)
		if err != nil {
			return nil, fmt.Errorf("init db: %w", err)
		}
		a.db = db
		users = repository.CreateUserRepository(db, logs.Component("users"))
	} else {
		log.Info("using in memory user storage")
		users = storage.CreateMemoryStorage()
	}

	baseURL := strings.TrimSuffix(options.ResultHostname, "/")
	a.urls = service.NewURL(registry.New(), logs.Component("urls"), baseURL)

	var (
		auth     service.AuthIface
		provider service.OAuthProvider
	)
	if !options.Anonymous {
		auth = service.NewAuth(options.SessionSecret, users)
		provider = service.NewGitHubOAuth(options.GitHubClientID, options.GitHubClientSecret, baseURL+"/login/callback")
	}

	router, err := server.Init(log, server.Options{
		Anonymous:     options.Anonymous,
		TrustedSubnet: options.TrustedSubnet,
		SecureCookies: options.EnableHTTPS,
	}, a.urls, users, auth, provider)
	if err != nil {
		a.close()
		return nil, err
	}
	a.router = router

	if options.GRPCPort > 0 {
		a.grpc = shortgrpc.New(logs.Component("grpc"), shortgrpc.Options{
			Port:          options.GRPCPort,
			Anonymous:     options.Anonymous,
			TrustedSubnet: options.TrustedSubnet,
		}, a.urls, auth)
	}

	if options.SweepInterval > 0 {
		a.sweeper = worker.NewExpirySweeper(logs.Component("sweeper"), a.urls, options.SweepInterval)
	}

	return a, nil
}

func run(ctx context.Context, options *config.Options, logs *logger.Logger) error {
	a, err := build(ctx, options, logs)
	if err != nil {
		return err
	}
	log := logs.Log
	defer a.close()

	g, ctx := errgroup.WithContext(ctx)

	if options.EnablePprof {
		go func() {
			log.Info("Starting pprof server", zap.String("addr", "localhost:6060"))
			if err := http.ListenAndServe("localhost:6060", nil); err != nil {
				log.Error("pprof server error", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:    options.Port,
		Handler: a.router,
	}

	if options.EnableHTTPS {
		host := hostOf(options.ResultHostname)
		manager := &autocert.Manager{
			Cache:      autocert.DirCache("cache-dir"),
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(host),
		}
		srv.Addr = ":443"
		srv.TLSConfig = manager.TLSConfig()
	}

	g.Go(func() error {
		log.Info("Server is running", zap.String("addr", srv.Addr), zap.Bool("tls", options.EnableHTTPS))

		var err error
		if options.EnableHTTPS {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	if a.grpc != nil {
		g.Go(a.grpc.Start)
	}

	if a.sweeper != nil {
		g.Go(func() error {
			a.sweeper.Run(ctx)
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		if a.grpc != nil {
			a.grpc.GracefulStop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// hostOf returns the host part of a base URL such as https://sho.rt:8443.
func hostOf(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
