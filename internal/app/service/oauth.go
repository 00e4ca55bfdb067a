package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/atinyakov/go-shortage/internal/models"
)

const gitHubUserURL = "https://api.github.com/user"

// GitHubOAuth logs users in with GitHub's web application flow.
type GitHubOAuth struct {
	config  *oauth2.Config
	userURL string
}

// OAuthOption configures GitHubOAuth.
type OAuthOption func(*GitHubOAuth)

// WithEndpoint points the flow at another authorization server.
func WithEndpoint(e oauth2.Endpoint) OAuthOption {
	return func(g *GitHubOAuth) {
		g.config.Endpoint = e
	}
}

// WithUserURL replaces the identity endpoint.
func WithUserURL(u string) OAuthOption {
	return func(g *GitHubOAuth) {
		g.userURL = u
	}
}

func NewGitHubOAuth(clientID, clientSecret, redirectURL string, opts ...OAuthOption) *GitHubOAuth {
	g := &GitHubOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     github.Endpoint,
		},
		userURL: gitHubUserURL,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// AuthCodeURL returns the address the browser is sent to.
func (g *GitHubOAuth) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

// Identify exchanges code for a token and fetches the user it belongs to.
func (g *GitHubOAuth) Identify(ctx context.Context, code string) (*models.User, error) {
	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "shortage")

	resp, err := g.config.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch user: unexpected status %d", resp.StatusCode)
	}

	var gh struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if gh.ID == 0 {
		return nil, fmt.Errorf("decode user: missing id")
	}

	return &models.User{ID: strconv.FormatInt(gh.ID, 10), Login: gh.Login}, nil
}
