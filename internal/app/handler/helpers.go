// Package handler contains the HTTP handlers of the shortener. Handlers
// accept JSON or HTML form bodies and answer with JSON or rendered pages,
// depending on what the client sent and accepts.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/go-shortage/internal/app/service"
	"github.com/atinyakov/go-shortage/internal/app/templates"
	"github.com/atinyakov/go-shortage/internal/middleware"
	"github.com/atinyakov/go-shortage/internal/models"
	"github.com/atinyakov/go-shortage/internal/registry"
)

const maxBodySize = 1 << 20

// malformedRequest represents an error with a malformed HTTP request.
type malformedRequest struct {
	status int
	msg    string
}

func (mr *malformedRequest) Error() string {
	return mr.msg
}

func isJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// pathParam returns the decoded route parameter key. chi routes on the raw
// path when the request carries one, so its parameters stay escaped.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

// decodeJSONBody decodes a single JSON object from the request body into dst.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if !isJSON(r) {
		return &malformedRequest{status: http.StatusUnsupportedMediaType, msg: "Content-Type header is not application/json"}
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			msg := fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
			return &malformedRequest{status: http.StatusBadRequest, msg: msg}

		case errors.Is(err, io.ErrUnexpectedEOF):
			return &malformedRequest{status: http.StatusBadRequest, msg: "Request body contains badly-formed JSON"}

		case errors.As(err, &unmarshalTypeError):
			msg := fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset)
			return &malformedRequest{status: http.StatusUnprocessableEntity, msg: msg}

		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			msg := fmt.Sprintf("Request body contains unknown field %s", fieldName)
			return &malformedRequest{status: http.StatusBadRequest, msg: msg}

		case errors.Is(err, io.EOF):
			return &malformedRequest{status: http.StatusBadRequest, msg: "Request body must not be empty"}

		case errors.As(err, &maxBytesError):
			return &malformedRequest{status: http.StatusRequestEntityTooLarge, msg: "Request body must not be larger than 1MB"}

		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &malformedRequest{status: http.StatusBadRequest, msg: "Request body must only contain a single JSON object"}
	}

	return nil
}

// decodeRegisterRequest reads a register or edit request from a JSON body or
// from an HTML form. Empty form fields are treated as absent.
func decodeRegisterRequest(w http.ResponseWriter, r *http.Request) (models.RegisterRequest, error) {
	var req models.RegisterRequest

	if isJSON(r) {
		err := decodeJSONBody(w, r, &req)
		return req, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseForm(); err != nil {
		return req, &malformedRequest{status: http.StatusBadRequest, msg: "Request body is not a valid form"}
	}

	req.Target = r.PostForm.Get("target")
	if v := r.PostForm.Get("name"); v != "" {
		req.Name = &v
	}
	if v := r.PostForm.Get("expiration"); v != "" {
		req.Expiration = &v
	}
	if v := r.PostForm.Get("max_uses"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return req, &malformedRequest{status: http.StatusUnprocessableEntity, msg: "field `max_uses` must be a non-negative integer"}
		}
		req.MaxUses = &n
	}

	return req, nil
}

// decodeName reads the name of the mapping to remove from a JSON body or a form.
func decodeName(w http.ResponseWriter, r *http.Request) (string, error) {
	if isJSON(r) {
		var req models.RemoveRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			return "", err
		}
		return req.Name, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseForm(); err != nil {
		return "", &malformedRequest{status: http.StatusBadRequest, msg: "Request body is not a valid form"}
	}

	return r.PostForm.Get("name"), nil
}

// writeError maps err onto a status code and a short text body.
func writeError(w http.ResponseWriter, err error, log *zap.Logger) {
	var mr *malformedRequest

	switch {
	case errors.As(err, &mr):
		http.Error(w, mr.msg, mr.status)
	case errors.Is(err, service.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, registry.ErrNotFound):
		http.Error(w, "404 Not Found", http.StatusNotFound)
	default:
		log.Error("request failed", zap.Error(err))
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
	}
}

// ownerOrFail returns the owner the request acts as. Routes using it sit
// behind RequireUser, so a missing owner is a server bug.
func ownerOrFail(w http.ResponseWriter, r *http.Request, log *zap.Logger) (registry.Owner, bool) {
	owner, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		log.Error("user was not authenticated", zap.String("url", r.URL.Path))
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
	}
	return owner, ok
}

func writeJSON(w http.ResponseWriter, status int, v any, log *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("write response", zap.Error(err))
	}
}

func render(w http.ResponseWriter, r *http.Request, pages *templates.Templates, status int, name string, p templates.Page, log *zap.Logger) {
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		p.User = u.Login
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := pages.Render(w, name, p); err != nil {
		log.Error("render page", zap.String("page", name), zap.Error(err))
	}
}
