package handler_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/atinyakov/go-shortage/internal/app/handler"
	"github.com/atinyakov/go-shortage/internal/middleware"
	"github.com/atinyakov/go-shortage/internal/models"
	"github.com/atinyakov/go-shortage/internal/registry"
)

func TestRemove(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"owned", nil, http.StatusNoContent},
		{"not owned", registry.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService, pages := setupMockService(t)
			h := handler.NewDelete(mockService, pages, zap.NewNop())

			mockService.EXPECT().Remove(gomock.Any(), testOwner, "abc").Return(tt.serviceErr)

			req := httptest.NewRequest(http.MethodDelete, "/remove/abc", nil)
			req = muxRequestWithParam(middleware.InjectUser(req, testUser), "name", "abc")

			rec := httptest.NewRecorder()
			h.Remove(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRemove_EscapedName(t *testing.T) {
	mockService, pages := setupMockService(t)
	h := handler.NewDelete(mockService, pages, zap.NewNop())

	mockService.EXPECT().Remove(gomock.Any(), testOwner, "a;b").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/remove/a%3Bb", nil)
	req = muxRequestWithParam(middleware.InjectUser(req, testUser), "name", "a%3Bb")

	rec := httptest.NewRecorder()
	h.Remove(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRemoveForm(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		mockService, pages := setupMockService(t)
		h := handler.NewDelete(mockService, pages, zap.NewNop())

		mockService.EXPECT().Remove(gomock.Any(), testOwner, "abc").Return(nil)

		rec := httptest.NewRecorder()
		h.RemoveForm(rec, jsonRequest(t, http.MethodPost, "/remove", models.RemoveRequest{Name: "abc"}))

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("form", func(t *testing.T) {
		mockService, pages := setupMockService(t)
		h := handler.NewDelete(mockService, pages, zap.NewNop())

		mockService.EXPECT().Remove(gomock.Any(), testOwner, "abc").Return(nil)

		rec := httptest.NewRecorder()
		h.RemoveForm(rec, formRequest(http.MethodPost, "/remove", url.Values{"name": {"abc"}}))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Successfully removed!")
	})

	t.Run("not owned", func(t *testing.T) {
		mockService, pages := setupMockService(t)
		h := handler.NewDelete(mockService, pages, zap.NewNop())

		mockService.EXPECT().Remove(gomock.Any(), testOwner, "abc").Return(registry.ErrNotFound)

		rec := httptest.NewRecorder()
		h.RemoveForm(rec, formRequest(http.MethodPost, "/remove", url.Values{"name": {"abc"}}))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "404 Not Found\n", rec.Body.String())
	})
}
