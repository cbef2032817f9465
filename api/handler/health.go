package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/habitflow/api/transport"
	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/internal/infrastructure/monitor"
	"github.com/fastygo/habitflow/pkg/httpcontext"
)

const errCodeDegraded domain.ErrorCode = "DEGRADED"

// StatusSource is satisfied by *monitor.Monitor.
type StatusSource interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
}

func NewHealthHandler(mon StatusSource, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	cache := map[string]interface{}{"enabled": status.CacheEnabled}
	if status.CacheEnabled {
		cache["online"] = status.Cache
	}
	payload := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"services": map[string]interface{}{
			"storage": map[string]interface{}{
				"driver": status.StorageDriver,
				"online": status.Storage,
			},
			"cache": cache,
			"buffer": map[string]interface{}{
				"online": status.Buffer,
				"size":   status.BufferSize,
			},
		},
	}

	// The streak cache is an optimisation; only the primary store decides health.
	if status.Storage {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError(errCodeDegraded, "dependencies unhealthy").WithMeta(payload))
}
