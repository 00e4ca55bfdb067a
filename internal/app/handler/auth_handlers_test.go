package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/atinyakov/go-shortage/internal/app/handler"
	"github.com/atinyakov/go-shortage/internal/app/templates"
	"github.com/atinyakov/go-shortage/internal/middleware"
	"github.com/atinyakov/go-shortage/internal/mocks"
	"github.com/atinyakov/go-shortage/internal/models"
)

func setupAuthHandler(t *testing.T) (*handler.AuthHandler, *mocks.MockAuthIface, *mocks.MockOAuthProvider) {
	t.Helper()

	ctrl := gomock.NewController(t)
	auth := mocks.NewMockAuthIface(ctrl)
	provider := mocks.NewMockOAuthProvider(ctrl)

	pages, err := templates.New()
	require.NoError(t, err)

	return handler.NewAuth(auth, provider, pages, zap.NewNop(), false), auth, provider
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin(t *testing.T) {
	h, _, provider := setupAuthHandler(t)

	var state string
	provider.EXPECT().AuthCodeURL(gomock.Any()).DoAndReturn(func(s string) string {
		state = s
		return "https://github.com/login/oauth/authorize?state=" + s
	})

	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodGet, "/login?next=%2Flist", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://github.com/login/oauth/authorize?state="+state)

	cookies := w.Result().Cookies()
	stateC := cookieByName(cookies, "oauth_state")
	require.NotNil(t, stateC)
	assert.Equal(t, state, stateC.Value)
	assert.True(t, stateC.HttpOnly)

	nextC := cookieByName(cookies, "oauth_next")
	require.NotNil(t, nextC)
	assert.Equal(t, "/list", nextC.Value)
}

func TestLogin_ForeignNextIgnored(t *testing.T) {
	h, _, provider := setupAuthHandler(t)
	provider.EXPECT().AuthCodeURL(gomock.Any()).Return("https://github.com/login/oauth/authorize")

	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodGet, "/login?next=%2F%2Fevil.example", nil))

	assert.Nil(t, cookieByName(w.Result().Cookies(), "oauth_next"))
}

func TestCallback(t *testing.T) {
	user := &models.User{ID: "42", Login: "octocat"}

	tests := []struct {
		name         string
		url          string
		cookies      []*http.Cookie
		setup        func(a *mocks.MockAuthIface, p *mocks.MockOAuthProvider)
		wantStatus   int
		wantLocation string
	}{
		{
			name:       "missing state cookie",
			url:        "/login/callback?code=c&state=s",
			setup:      func(a *mocks.MockAuthIface, p *mocks.MockOAuthProvider) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "state mismatch",
			url:        "/login/callback?code=c&state=forged",
			cookies:    []*http.Cookie{{Name: "oauth_state", Value: "s"}},
			setup:      func(a *mocks.MockAuthIface, p *mocks.MockOAuthProvider) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:    "provider failure",
			url:     "/login/callback?code=c&state=s",
			cookies: []*http.Cookie{{Name: "oauth_state", Value: "s"}},
			setup: func(a *mocks.MockAuthIface, p *mocks.MockOAuthProvider) {
				p.EXPECT().Identify(gomock.Any(), "c").Return(nil, errors.New("bad code"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:    "success",
			url:     "/login/callback?code=c&state=s",
			cookies: []*http.Cookie{{Name: "oauth_state", Value: "s"}},
			setup: func(a *mocks.MockAuthIface, p *mocks.MockOAuthProvider) {
				p.EXPECT().Identify(gomock.Any(), "c").Return(user, nil)
				a.EXPECT().Login(gomock.Any(), *user).Return("signed-token", nil)
			},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/",
		},
		{
			name:    "success with next",
			url:     "/login/callback?code=c&state=s",
			cookies: []*http.Cookie{{Name: "oauth_state", Value: "s"}, {Name: "oauth_next", Value: "/list"}},
			setup: func(a *mocks.MockAuthIface, p *mocks.MockOAuthProvider) {
				p.EXPECT().Identify(gomock.Any(), "c").Return(user, nil)
				a.EXPECT().Login(gomock.Any(), *user).Return("signed-token", nil)
			},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/list",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, auth, provider := setupAuthHandler(t)
			tt.setup(auth, provider)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			for _, c := range tt.cookies {
				req.AddCookie(c)
			}

			w := httptest.NewRecorder()
			h.Callback(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantLocation == "" {
				return
			}

			assert.Equal(t, tt.wantLocation, w.Header().Get("Location"))
			session := cookieByName(w.Result().Cookies(), middleware.SessionCookie)
			require.NotNil(t, session)
			assert.Equal(t, "signed-token", session.Value)
		})
	}
}

func TestLogout(t *testing.T) {
	h, _, _ := setupAuthHandler(t)

	req := middleware.InjectUser(httptest.NewRequest(http.MethodGet, "/logout", nil), models.User{ID: "42", Login: "octocat"})
	w := httptest.NewRecorder()
	h.Logout(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Logged out.")
	assert.NotContains(t, w.Body.String(), "octocat")

	session := cookieByName(w.Result().Cookies(), middleware.SessionCookie)
	require.NotNil(t, session)
	assert.Empty(t, session.Value)
	assert.True(t, session.MaxAge < 0)
}
