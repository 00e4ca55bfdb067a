package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/atinyakov/go-shortage/internal/models"
)

// Claims represents the claims that are included in the session token.
type Claims struct {
	jwt.RegisteredClaims
	// UserID is the identity provider's id of the user.
	UserID string `json:"user_id"`
	Login  string `json:"login"`
}

// TokenExp defines the lifetime of a session token.
const TokenExp = time.Hour * 24 * 30

// Auth issues HS256 session tokens for users coming back from the identity
// provider and remembers those users in a UserStore.
type Auth struct {
	secret []byte
	users  UserStore
}

// NewAuth creates a new Auth signing with secret.
func NewAuth(secret string, users UserStore) *Auth {
	return &Auth{
		secret: []byte(secret),
		users:  users,
	}
}

// Login stores u and returns a signed session token for it.
func (a *Auth) Login(ctx context.Context, u models.User) (string, error) {
	if err := a.users.Save(ctx, u); err != nil {
		return "", fmt.Errorf("save user: %w", err)
	}

	return a.BuildJWTString(u)
}

// BuildJWTString signs a session token for u.
func (a *Auth) BuildJWTString(u models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExp)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: u.ID,
		Login:  u.Login,
	})

	return token.SignedString(a.secret)
}

// ParseClaims parses the session token stored in c.
func (a *Auth) ParseClaims(c *http.Cookie) (*Claims, error) {
	return a.ParseRawJWT(c.Value)
}

// ParseRawJWT verifies tokenString and returns its claims.
func (a *Auth) ParseRawJWT(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token or claims")
	}

	return claims, nil
}

// Lookup returns the stored user with id.
func (a *Auth) Lookup(ctx context.Context, id string) (*models.User, error) {
	return a.users.FindByID(ctx, id)
}
