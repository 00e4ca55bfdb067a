// Package models defines the request and response data structures used
// for communication between clients and the shortener.
package models

import "time"

// RegisterRequest asks for a new mapping, or, on edit, for new fields of an
// existing one. Optional values are nil when absent.
type RegisterRequest struct {
	// Target is the URL the short name redirects to.
	Target string `json:"target"`

	// Name is the requested short name. Empty on register means generated.
	Name *string `json:"name,omitempty"`

	// Expiration is an RFC3339 timestamp or an HTML datetime-local value.
	Expiration *string `json:"expiration,omitempty"`

	// MaxUses caps the number of redirects.
	MaxUses *uint64 `json:"max_uses,omitempty"`
}

// RemoveRequest names the mapping to delete.
type RemoveRequest struct {
	Name string `json:"name"`
}

// Registered is the answer to a successful registration.
type Registered struct {
	Name     string `json:"name"`
	ShortURL string `json:"short_url"`
}

// Entry is one mapping as shown to its owner.
type Entry struct {
	Name       string     `json:"name"`
	ShortURL   string     `json:"short_url"`
	Target     string     `json:"target"`
	Owner      string     `json:"owner,omitempty"`
	Uses       uint64     `json:"uses"`
	Expiration *time.Time `json:"expiration,omitempty"`
	MaxUses    *uint64    `json:"max_uses,omitempty"`
}

// Stats summarizes the registry.
type Stats struct {
	URLs int `json:"urls"`
}
