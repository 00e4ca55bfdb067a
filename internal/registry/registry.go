// Package registry holds the process-wide table of short names and the
// targets they redirect to. It enforces ownership on edits and removals and
// applies the expiration and usage limits lazily, on lookup.
package registry

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"
)

// NameLength is the length of generated short names.
const NameLength = 8

// maxNameAttempts bounds the rejection sampling in GenerateName.
const maxNameAttempts = 10

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	// ErrNotFound is returned for unknown names and for names the caller does not own.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned by Resolve when the entry was past its expiration.
	// It wraps ErrNotFound.
	ErrExpired = fmt.Errorf("%w: expired", ErrNotFound)

	// ErrNameExhausted is returned when every generated name collided.
	ErrNameExhausted = errors.New("could not generate a free name")
)

// ShortenedURL is a single registered mapping.
type ShortenedURL struct {
	// Owner is the user id of the creator, empty when registered anonymously.
	Owner      string
	Target     string
	Uses       uint64
	Expiration *time.Time
	MaxUses    *uint64
}

// Fields are the caller-supplied parts of a mapping.
type Fields struct {
	Target     string
	Expiration *time.Time
	MaxUses    *uint64
}

// Entry is a named copy of a mapping, as returned by List.
type Entry struct {
	Name string
	ShortenedURL
}

// Resolution is the outcome of a successful Resolve.
type Resolution struct {
	Target string
	Uses   uint64
	// Evicted reports that this use exhausted the mapping and it was removed.
	Evicted bool
}

// Registry maps short names to ShortenedURL records. The zero value is not
// usable; construct it with New.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*ShortenedURL

	now     func() time.Time
	newName func() string
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithNameSource replaces the random name generator.
func WithNameSource(f func() string) Option {
	return func(r *Registry) {
		r.newName = f
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*ShortenedURL),
		now:     time.Now,
		newName: randomName,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Insert stores u under name, replacing whatever was there.
func (r *Registry) Insert(name string, u ShortenedURL) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[name] = &u
}

// GenerateName returns a random name that is not currently registered.
// A later Insert may still race with another caller; Register avoids that by
// generating under the write lock.
func (r *Registry) GenerateName() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.freeName()
}

// Register creates a mapping owned by owner. An empty name asks for a
// generated one. The assigned name is returned.
func (r *Registry) Register(owner Owner, name string, f Fields) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		var err error
		if name, err = r.freeName(); err != nil {
			return "", err
		}
	}

	r.entries[name] = &ShortenedURL{
		Owner:      owner.id,
		Target:     f.Target,
		Expiration: f.Expiration,
		MaxUses:    f.MaxUses,
	}

	return name, nil
}

// Update replaces the target, expiration and usage limit of an owned mapping.
// The use counter and the owner are kept.
func (r *Registry) Update(name string, owner Owner, f Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.entries[name]
	if !ok || !owner.owns(u) {
		return ErrNotFound
	}

	u.Target = f.Target
	u.Expiration = f.Expiration
	u.MaxUses = f.MaxUses

	return nil
}

// Remove deletes an owned mapping.
func (r *Registry) Remove(name string, owner Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.entries[name]
	if !ok || !owner.owns(u) {
		return ErrNotFound
	}

	delete(r.entries, name)

	return nil
}

// Resolve counts a use of name and returns its target.
//
// The use is counted before the limits are checked. A mapping past its
// expiration is removed and reported as ErrExpired. A mapping whose use
// counter now exceeds MaxUses is removed as well, but the use that exhausted
// it is still answered with the target.
func (r *Registry) Resolve(name string) (Resolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.entries[name]
	if !ok {
		return Resolution{}, ErrNotFound
	}

	u.Uses++

	if u.expiredAt(r.now()) {
		delete(r.entries, name)
		return Resolution{}, ErrExpired
	}

	res := Resolution{Target: u.Target, Uses: u.Uses}

	if u.MaxUses != nil && u.Uses > *u.MaxUses {
		delete(r.entries, name)
		res.Evicted = true
	}

	return res, nil
}

// List returns copies of the mappings owned by owner, sorted by name.
// The anonymous owner sees every mapping.
func (r *Registry) List(owner Owner) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Entry, 0, len(r.entries))
	for name, u := range r.entries {
		if !owner.IsAnonymous() && !owner.owns(u) {
			continue
		}
		list = append(list, Entry{Name: name, ShortenedURL: *u})
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})

	return list
}

// Sweep removes every mapping whose expiration has passed and returns how
// many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for name, u := range r.entries {
		if u.expiredAt(now) {
			delete(r.entries, name)
			removed++
		}
	}

	return removed
}

// Len returns the number of registered mappings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// freeName must be called with r.mu held.
func (r *Registry) freeName() (string, error) {
	for i := 0; i < maxNameAttempts; i++ {
		name := r.newName()
		if _, taken := r.entries[name]; !taken {
			return name, nil
		}
	}

	return "", ErrNameExhausted
}

func (u *ShortenedURL) expiredAt(now time.Time) bool {
	return u.Expiration != nil && u.Expiration.Before(now)
}

func randomName() string {
	b := make([]byte, NameLength)
	limit := big.NewInt(int64(len(alphabet)))

	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic(err)
		}
		b[i] = alphabet[n.Int64()]
	}

	return string(b)
}
