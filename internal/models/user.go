package models

// User is an identity confirmed by the OAuth provider.
type User struct {
	// ID is the provider's stable user id.
	ID string `json:"id"`
	// Login is the provider's user name.
	Login string `json:"login"`
}
