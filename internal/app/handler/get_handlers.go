package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/atinyakov/go-shortage/internal/app/service"
	"github.com/atinyakov/go-shortage/internal/app/templates"
	"github.com/atinyakov/go-shortage/internal/registry"
)

const qrSize = 256

type GetHandler struct {
	service service.URLServiceIface
	pages   *templates.Templates
	logger  *zap.Logger
}

func NewGet(s service.URLServiceIface, pages *templates.Templates, l *zap.Logger) *GetHandler {
	return &GetHandler{
		service: s,
		pages:   pages,
		logger:  l,
	}
}

// Redirect handles GET /{short}. Every lookup that finds the name counts as
// a use, including the one that expires it.
func (h *GetHandler) Redirect(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	short := pathParam(req, "short")

	target, err := h.service.Resolve(ctx, short)
	if err != nil {
		writeError(res, err, h.logger)
		return
	}

	// Location is set verbatim; http.Redirect would rewrite relative targets.
	res.Header().Set("Location", target)
	res.WriteHeader(http.StatusTemporaryRedirect)
}

// Index renders the registration form.
func (h *GetHandler) Index(res http.ResponseWriter, req *http.Request) {
	if _, ok := ownerOrFail(res, req, h.logger); !ok {
		return
	}

	render(res, req, h.pages, http.StatusOK, templates.Index, templates.Page{}, h.logger)
}

// List handles GET /list.
func (h *GetHandler) List(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	owner, ok := ownerOrFail(res, req, h.logger)
	if !ok {
		return
	}

	entries, err := h.service.List(ctx, owner)
	if err != nil {
		writeError(res, err, h.logger)
		return
	}

	if wantsHTML(req) {
		render(res, req, h.pages, http.StatusOK, templates.List, templates.Page{Entries: entries}, h.logger)
		return
	}

	writeJSON(res, http.StatusOK, entries, h.logger)
}

// QRCode handles GET /qr/{name} with a PNG of the short URL. Only mappings
// visible in the caller's list are drawn.
func (h *GetHandler) QRCode(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	owner, ok := ownerOrFail(res, req, h.logger)
	if !ok {
		return
	}

	name := pathParam(req, "name")

	entries, err := h.service.List(ctx, owner)
	if err != nil {
		writeError(res, err, h.logger)
		return
	}

	found := false
	for _, e := range entries {
		if e.Name == name {
			found = true
			break
		}
	}
	if !found {
		writeError(res, registry.ErrNotFound, h.logger)
		return
	}

	png, err := qrcode.Encode(h.service.ShortURL(name), qrcode.Medium, qrSize)
	if err != nil {
		writeError(res, err, h.logger)
		return
	}

	res.Header().Set("Content-Type", "image/png")
	res.WriteHeader(http.StatusOK)
	if _, err := res.Write(png); err != nil {
		h.logger.Error("write qr code", zap.Error(err))
	}
}
