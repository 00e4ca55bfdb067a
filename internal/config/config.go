// Package config provides functionality for managing configuration options
// for the application using a JSON file, command-line flags and environment
// variables. A .env file in the working directory is loaded into the
// environment first.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address"`

	// ResultHostname is the base URL used for result links.
	ResultHostname string `json:"base_url"`

	// DatabaseDSN is the Postgres connection string of the user store.
	// Users are kept in memory when it is empty.
	DatabaseDSN string `json:"database_dsn"`

	// EnablePprof indicates whether to enable pprof for performance profiling.
	EnablePprof bool `json:"enable_pprof"`

	// EnableHTTPS indicates whether to enable https.
	EnableHTTPS bool `json:"enable_https"`

	// TrustedSubnet is the CIDR allowed to read /metrics. Empty denies everyone.
	TrustedSubnet string `json:"trusted_subnet"`

	// GRPCPort is the port of the gRPC server, 0 disables it.
	GRPCPort int `json:"grpc_port"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`

	// SessionSecret signs session tokens.
	SessionSecret string `json:"session_secret"`

	// Anonymous disables login; every caller shares the anonymous owner.
	Anonymous bool `json:"anonymous"`

	// SweepInterval enables the expiry sweeper when positive. The config
	// file spells it as a duration string under "sweep_interval".
	SweepInterval time.Duration `json:"-"`

	// GitHubClientID and GitHubClientSecret identify the OAuth application.
	GitHubClientID     string `json:"github_client_id"`
	GitHubClientSecret string `json:"github_client_secret"`

	// Config is the path of the JSON configuration file.
	Config string `json:"-"`
}

// ErrMissingOAuth is returned when login is enabled without GitHub credentials.
var ErrMissingOAuth = errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are required unless anonymous mode is enabled")

// ErrMissingSecret is returned when login is enabled without a session secret.
var ErrMissingSecret = errors.New("SESSION_SECRET is required unless anonymous mode is enabled")

func defaults() *Options {
	return &Options{
		Port:           "localhost:8080",
		ResultHostname: "http://localhost:8080",
		LogLevel:       "info",
		Config:         "config.json",
	}
}

// Parse reads the configuration from os.Args and the environment.
func Parse() (*Options, error) {
	// .env is optional
	_ = godotenv.Load()

	return ParseArgs(os.Args[1:])
}

// ParseArgs applies, in increasing priority, the defaults, the JSON config
// file, the given command-line arguments and the environment.
func ParseArgs(args []string) (*Options, error) {
	options := defaults()

	fs := flag.NewFlagSet("shortener", flag.ContinueOnError)
	configPath := fs.String("c", options.Config, "path to json config")
	port := fs.String("a", options.Port, "run on ip:port server")
	baseURL := fs.String("b", options.ResultHostname, "result base url")
	dsn := fs.String("d", "", "user store db address")
	pprof := fs.Bool("p", false, "enable pprof")
	https := fs.Bool("s", false, "enable https")
	subnet := fs.String("t", "", "trusted subnet for /metrics")
	grpcPort := fs.Int("g", 0, "grpc port, 0 disables grpc")
	logLevel := fs.String("l", options.LogLevel, "log level")
	secret := fs.String("k", "", "session signing secret")
	anonymous := fs.Bool("anon", false, "disable login")
	sweep := fs.Duration("sweep", 0, "expiry sweep interval, 0 disables")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if path := os.Getenv("CONFIG"); path != "" {
		*configPath = path
	}
	options.Config = *configPath
	if err := options.loadFile(*configPath); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			options.Port = *port
		case "b":
			options.ResultHostname = *baseURL
		case "d":
			options.DatabaseDSN = *dsn
		case "p":
			options.EnablePprof = *pprof
		case "s":
			options.EnableHTTPS = *https
		case "t":
			options.TrustedSubnet = *subnet
		case "g":
			options.GRPCPort = *grpcPort
		case "l":
			options.LogLevel = *logLevel
		case "k":
			options.SessionSecret = *secret
		case "anon":
			options.Anonymous = *anonymous
		case "sweep":
			options.SweepInterval = *sweep
		}
	})

	if err := options.loadEnv(); err != nil {
		return nil, err
	}

	if !options.Anonymous && (options.GitHubClientID == "" || options.GitHubClientSecret == "") {
		return nil, ErrMissingOAuth
	}
	if !options.Anonymous && options.SessionSecret == "" {
		return nil, ErrMissingSecret
	}

	return options, nil
}

// loadFile fills options from a JSON file. A missing file is not an error.
func (o *Options) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	file := struct {
		*Options
		SweepInterval string `json:"sweep_interval"`
	}{Options: o}

	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if file.SweepInterval != "" {
		d, err := time.ParseDuration(file.SweepInterval)
		if err != nil {
			return fmt.Errorf("parse config %s: sweep_interval: %w", path, err)
		}
		o.SweepInterval = d
	}

	return nil
}

func (o *Options) loadEnv() error {
	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		o.Port = serverAddress
	}

	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		o.ResultHostname = baseURL
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		o.DatabaseDSN = dsn
	}

	if subnet := os.Getenv("TRUSTED_SUBNET"); subnet != "" {
		o.TrustedSubnet = subnet
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		o.LogLevel = level
	}

	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		o.SessionSecret = secret
	}

	if id := os.Getenv("GITHUB_CLIENT_ID"); id != "" {
		o.GitHubClientID = id
	}

	if secret := os.Getenv("GITHUB_CLIENT_SECRET"); secret != "" {
		o.GitHubClientSecret = secret
	}

	if enableHTTPS := os.Getenv("ENABLE_HTTPS"); enableHTTPS != "" {
		httpMode, err := strconv.ParseBool(enableHTTPS)
		if err != nil {
			return fmt.Errorf("ENABLE_HTTPS: %w", err)
		}
		o.EnableHTTPS = httpMode
	}

	if anonymous := os.Getenv("ANONYMOUS"); anonymous != "" {
		anon, err := strconv.ParseBool(anonymous)
		if err != nil {
			return fmt.Errorf("ANONYMOUS: %w", err)
		}
		o.Anonymous = anon
	}

	if port := os.Getenv("GRPC_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("GRPC_PORT: %w", err)
		}
		o.GRPCPort = p
	}

	if interval := os.Getenv("SWEEP_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("SWEEP_INTERVAL: %w", err)
		}
		o.SweepInterval = d
	}

	return nil
}
