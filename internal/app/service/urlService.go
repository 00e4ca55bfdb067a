// Package service sits between the transports and the registry. It
// validates requests, formats short URLs, issues session tokens and talks to
// the OAuth identity provider.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/go-shortage/internal/metrics"
	"github.com/atinyakov/go-shortage/internal/models"
	"github.com/atinyakov/go-shortage/internal/registry"
)

// ErrInvalidInput marks requests that are well formed but cannot be served.
var ErrInvalidInput = errors.New("invalid input")

// datetime-local values carry no zone and are read as UTC.
var expirationLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// ParseExpiration reads an RFC3339 timestamp or an HTML datetime-local value.
func ParseExpiration(s string) (*time.Time, error) {
	for _, layout := range expirationLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}

	return nil, fmt.Errorf("%w: could not parse expiration %q", ErrInvalidInput, s)
}

type URLService struct {
	registry *registry.Registry
	logger   *zap.Logger
	baseURL  string
}

func NewURL(reg *registry.Registry, logger *zap.Logger, baseURL string) *URLService {
	return &URLService{
		registry: reg,
		logger:   logger,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// ShortURL returns the public address of name.
func (s *URLService) ShortURL(name string) string {
	return s.baseURL + "/" + name
}

func (s *URLService) Register(ctx context.Context, owner registry.Owner, req models.RegisterRequest) (*models.Registered, error) {
	fields, err := toFields(req)
	if err != nil {
		return nil, err
	}

	var name string
	if req.Name != nil {
		name = *req.Name
		if err := validName(name); err != nil {
			return nil, err
		}
	}

	name, err = s.registry.Register(owner, name, fields)
	if err != nil {
		s.logger.Error("register", zap.String("owner", owner.ID()), zap.Error(err))
		return nil, err
	}

	metrics.RegistrationsTotal.Inc()
	s.updateSize()
	s.logger.Debug("registered", zap.String("name", name), zap.String("owner", owner.ID()))

	return &models.Registered{Name: name, ShortURL: s.ShortURL(name)}, nil
}

func (s *URLService) Edit(ctx context.Context, owner registry.Owner, req models.RegisterRequest) error {
	if req.Name == nil || *req.Name == "" {
		return fmt.Errorf("%w: field `name` is required", ErrInvalidInput)
	}

	fields, err := toFields(req)
	if err != nil {
		return err
	}

	return s.registry.Update(*req.Name, owner, fields)
}

func (s *URLService) Remove(ctx context.Context, owner registry.Owner, name string) error {
	if err := s.registry.Remove(name, owner); err != nil {
		return err
	}

	s.updateSize()
	return nil
}

func (s *URLService) List(ctx context.Context, owner registry.Owner) ([]models.Entry, error) {
	entries := s.registry.List(owner)

	result := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		result = append(result, models.Entry{
			Name:       e.Name,
			ShortURL:   s.ShortURL(e.Name),
			Target:     e.Target,
			Owner:      e.Owner,
			Uses:       e.Uses,
			Expiration: e.Expiration,
			MaxUses:    e.MaxUses,
		})
	}

	return result, nil
}

// Resolve counts a use of name and returns the target to redirect to.
func (s *URLService) Resolve(ctx context.Context, name string) (string, error) {
	res, err := s.registry.Resolve(name)
	if errors.Is(err, registry.ErrExpired) {
		s.logger.Info("expired", zap.String("name", name))
		metrics.RecordExpired(metrics.ReasonTime)
		s.updateSize()
	}
	if err != nil {
		return "", err
	}

	if res.Evicted {
		s.logger.Info("usage limit reached", zap.String("name", name), zap.Uint64("uses", res.Uses))
		metrics.RecordExpired(metrics.ReasonMaxUses)
		s.updateSize()
	}

	metrics.RedirectsTotal.Inc()
	return res.Target, nil
}

// Sweep drops mappings past their expiration.
func (s *URLService) Sweep() int {
	n := s.registry.Sweep()
	if n > 0 {
		metrics.RecordSwept(n)
		s.updateSize()
	}
	return n
}

func (s *URLService) Stats(ctx context.Context) models.Stats {
	return models.Stats{URLs: s.registry.Len()}
}

func (s *URLService) updateSize() {
	metrics.RegistrySize.Set(float64(s.registry.Len()))
}

func toFields(req models.RegisterRequest) (registry.Fields, error) {
	if req.Target == "" {
		return registry.Fields{}, fmt.Errorf("%w: field `target` is required", ErrInvalidInput)
	}

	f := registry.Fields{
		Target:  req.Target,
		MaxUses: req.MaxUses,
	}

	if req.Expiration != nil && *req.Expiration != "" {
		exp, err := ParseExpiration(*req.Expiration)
		if err != nil {
			return registry.Fields{}, err
		}
		f.Expiration = exp
	}

	return f, nil
}

// Names become a single path segment.
func validName(name string) error {
	if strings.ContainsAny(name, "/?#") {
		return fmt.Errorf("%w: name %q is not a valid path segment", ErrInvalidInput, name)
	}
	return nil
}
