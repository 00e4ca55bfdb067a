package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/go-shortage/internal/app/service"
	"github.com/atinyakov/go-shortage/internal/app/templates"
)

type PostHandler struct {
	service service.URLServiceIface
	pages   *templates.Templates
	logger  *zap.Logger
}

func NewPost(s service.URLServiceIface, pages *templates.Templates, l *zap.Logger) *PostHandler {
	return &PostHandler{
		service: s,
		pages:   pages,
		logger:  l,
	}
}

// Register handles POST /register.
func (h *PostHandler) Register(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	owner, ok := ownerOrFail(res, req, h.logger)
	if !ok {
		return
	}

	request, err := decodeRegisterRequest(res, req)
	if err != nil {
		writeError(res, err, h.logger)
		return
	}

	registered, err := h.service.Register(ctx, owner, request)
	if err != nil {
		writeError(res, err, h.logger)
		return
	}

	if isJSON(req) {
		writeJSON(res, http.StatusCreated, registered, h.logger)
		return
	}

	render(res, req, h.pages, http.StatusCreated, templates.Registered, templates.Page{
		Name:     registered.Name,
		ShortURL: registered.ShortURL,
	}, h.logger)
}

// Edit handles PATCH and POST /edit.
func (h *PostHandler) Edit(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	owner, ok := ownerOrFail(res, req, h.logger)
	if !ok {
		return
	}

	request, err := decodeRegisterRequest(res, req)
	if err != nil {
		writeError(res, err, h.logger)
		return
	}

	if err := h.service.Edit(ctx, owner, request); err != nil {
		writeError(res, err, h.logger)
		return
	}

	if isJSON(req) {
		res.WriteHeader(http.StatusNoContent)
		return
	}

	render(res, req, h.pages, http.StatusOK, templates.Message, templates.Page{Content: "Successfully edited!"}, h.logger)
}
