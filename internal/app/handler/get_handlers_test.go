package handler_test

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/atinyakov/go-shortage/internal/app/handler"
	"github.com/atinyakov/go-shortage/internal/middleware"
	"github.com/atinyakov/go-shortage/internal/models"
	"github.com/atinyakov/go-shortage/internal/registry"
)

func TestRedirect(t *testing.T) {
	tests := []struct {
		name         string
		short        string
		target       string
		mockErr      error
		expectedCode int
	}{
		{
			name:         "Valid URL",
			short:        "abc",
			target:       "https://example.com/some/path?q=1",
			expectedCode: http.StatusTemporaryRedirect,
		},
		{
			name:         "Relative target kept as is",
			short:        "rel",
			target:       "elsewhere",
			expectedCode: http.StatusTemporaryRedirect,
		},
		{
			name:         "Unknown",
			short:        "unknown",
			mockErr:      registry.ErrNotFound,
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "Expired",
			short:        "old",
			mockErr:      registry.ErrExpired,
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService, pages := setupMockService(t)
			h := handler.NewGet(mockService, pages, zap.NewNop())

			mockService.EXPECT().Resolve(gomock.Any(), tt.short).Return(tt.target, tt.mockErr)

			req := muxRequestWithParam(httptest.NewRequest(http.MethodGet, "/"+tt.short, nil), "short", tt.short)
			w := httptest.NewRecorder()
			h.Redirect(w, req)

			resp := w.Result()
			defer resp.Body.Close()

			require.Equal(t, tt.expectedCode, resp.StatusCode)
			if tt.mockErr == nil {
				assert.Equal(t, tt.target, resp.Header.Get("Location"))
			}
		})
	}
}

func TestRedirect_EscapedName(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		param string
		want  string
	}{
		{name: "escaped semicolon", path: "/a%3Bb", param: "a%3Bb", want: "a;b"},
		{name: "escaped equals", path: "/a%3Db", param: "a%3Db", want: "a=b"},
		{name: "literal percent", path: "/a%25b", param: "a%b", want: "a%b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService, pages := setupMockService(t)
			h := handler.NewGet(mockService, pages, zap.NewNop())

			mockService.EXPECT().Resolve(gomock.Any(), tt.want).Return("https://example.com", nil)

			req := muxRequestWithParam(httptest.NewRequest(http.MethodGet, tt.path, nil), "short", tt.param)
			w := httptest.NewRecorder()
			h.Redirect(w, req)

			assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		})
	}
}

func TestIndex(t *testing.T) {
	mockService, pages := setupMockService(t)
	h := handler.NewGet(mockService, pages, zap.NewNop())

	w := httptest.NewRecorder()
	h.Index(w, middleware.InjectUser(httptest.NewRequest(http.MethodGet, "/", nil), testUser))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/register"`)
}

func TestList(t *testing.T) {
	entries := []models.Entry{
		{Name: "abc", ShortURL: "http://localhost:8080/abc", Target: "https://example.com", Owner: "user-123", Uses: 2},
	}

	t.Run("json", func(t *testing.T) {
		mockService, pages := setupMockService(t)
		h := handler.NewGet(mockService, pages, zap.NewNop())

		mockService.EXPECT().List(gomock.Any(), testOwner).Return(entries, nil)

		w := httptest.NewRecorder()
		h.List(w, middleware.InjectUser(httptest.NewRequest(http.MethodGet, "/list", nil), testUser))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var got []models.Entry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, entries, got)
	})

	t.Run("empty json", func(t *testing.T) {
		mockService, pages := setupMockService(t)
		h := handler.NewGet(mockService, pages, zap.NewNop())

		mockService.EXPECT().List(gomock.Any(), testOwner).Return([]models.Entry{}, nil)

		w := httptest.NewRecorder()
		h.List(w, middleware.InjectUser(httptest.NewRequest(http.MethodGet, "/list", nil), testUser))

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})

	t.Run("html", func(t *testing.T) {
		mockService, pages := setupMockService(t)
		h := handler.NewGet(mockService, pages, zap.NewNop())

		mockService.EXPECT().List(gomock.Any(), testOwner).Return(entries, nil)

		req := httptest.NewRequest(http.MethodGet, "/list", nil)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")

		w := httptest.NewRecorder()
		h.List(w, middleware.InjectUser(req, testUser))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "https://example.com")
	})
}

func TestQRCode(t *testing.T) {
	entries := []models.Entry{{Name: "abc", ShortURL: "http://localhost:8080/abc"}}

	t.Run("owned", func(t *testing.T) {
		mockService, pages := setupMockService(t)
		h := handler.NewGet(mockService, pages, zap.NewNop())

		mockService.EXPECT().List(gomock.Any(), testOwner).Return(entries, nil)
		mockService.EXPECT().ShortURL("abc").Return("http://localhost:8080/abc")

		req := httptest.NewRequest(http.MethodGet, "/qr/abc", nil)
		req = muxRequestWithParam(middleware.InjectUser(req, testUser), "name", "abc")

		w := httptest.NewRecorder()
		h.QRCode(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

		img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 256, img.Bounds().Dx())
	})

	t.Run("not owned", func(t *testing.T) {
		mockService, pages := setupMockService(t)
		h := handler.NewGet(mockService, pages, zap.NewNop())

		mockService.EXPECT().List(gomock.Any(), testOwner).Return(entries, nil)

		req := httptest.NewRequest(http.MethodGet, "/qr/xyz", nil)
		req = muxRequestWithParam(middleware.InjectUser(req, testUser), "name", "xyz")

		w := httptest.NewRecorder()
		h.QRCode(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
