package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/go-shortage/internal/app/service"
	"github.com/atinyakov/go-shortage/internal/app/templates"
)

type DeleteHandler struct {
	service service.URLServiceIface
	pages   *templates.Templates
	logger  *zap.Logger
}

func NewDelete(s service.URLServiceIface, pages *templates.Templates, l *zap.Logger) *DeleteHandler {
	return &DeleteHandler{
		service: s,
		pages:   pages,
		logger:  l,
	}
}

// Remove handles DELETE /remove/{name}.
func (h *DeleteHandler) Remove(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	owner, ok := ownerOrFail(res, req, h.logger)
	if !ok {
		return
	}

	if err := h.service.Remove(ctx, owner, pathParam(req, "name")); err != nil {
		writeError(res, err, h.logger)
		return
	}

	res.WriteHeader(http.StatusNoContent)
}

// RemoveForm handles POST /remove with the name in the body.
func (h *DeleteHandler) RemoveForm(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	owner, ok := ownerOrFail(res, req, h.logger)
	if !ok {
		return
	}

	name, err := decodeName(res, req)
	if err != nil {
		writeError(res, err, h.logger)
		return
	}

	if err := h.service.Remove(ctx, owner, name); err != nil {
		writeError(res, err, h.logger)
		return
	}

	if isJSON(req) {
		res.WriteHeader(http.StatusNoContent)
		return
	}

	render(res, req, h.pages, http.StatusOK, templates.Message, templates.Page{Content: "Successfully removed!"}, h.logger)
}
