package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/go-shortage/internal/app/service"
)

type HealthHandler struct {
	users  service.UserStore
	logger *zap.Logger
}

func NewHealth(users service.UserStore, l *zap.Logger) *HealthHandler {
	return &HealthHandler{
		users:  users,
		logger: l,
	}
}

// PingDB handles GET /ping by checking the user store.
func (h *HealthHandler) PingDB(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	if err := h.users.PingContext(ctx); err != nil {
		h.logger.Error("ping user store", zap.Error(err))
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}

	res.WriteHeader(http.StatusOK)
}
