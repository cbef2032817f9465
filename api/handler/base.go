package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/habitflow/api/transport"
	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/pkg/httpcontext"
	appLogger "github.com/fastygo/habitflow/pkg/logger"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data))
}

// respondError maps err to a status. Store failures are logged in full and reported by message only.
func (h baseHandler) respondError(stdCtx context.Context, ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		appLogger.FromContext(stdCtx, h.logger).Error("request failed",
			zap.String("path", string(ctx.Path())),
			zap.String("code", string(code)),
			zap.Error(err))
		message = publicMessage(err)
	}
	h.respondJSON(ctx, status, transport.NewError(code, message).WithRequestID(string(ctx.Response.Header.Peek("X-Request-ID"))))
}

// userID returns the identity set by the auth middleware, answering 401 when there is none.
func (h baseHandler) userID(ctx *fasthttp.RequestCtx) string {
	userID := httpcontext.UserID(ctx)
	if userID == "" {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(domain.ErrCodeUnauthorized, "missing user id"))
	}
	return userID
}

func mapError(err error) (int, domain.ErrorCode) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, domain.ErrCodeUnauthorized
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, domain.ErrCodeInvalid
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, domain.ErrCodeNotFound
	case domain.IsDomainError(err, domain.ErrCodeInvalidTransition):
		return http.StatusConflict, domain.ErrCodeInvalidTransition
	case domain.IsDomainError(err, domain.ErrCodeDependencyFailure):
		return http.StatusServiceUnavailable, domain.ErrCodeDependencyFailure
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, domain.ErrCodeDependencyFailure
	default:
		return http.StatusInternalServerError, domain.ErrCodeInternal
	}
}

func publicMessage(err error) string {
	var dErr *domain.Error
	if errors.As(err, &dErr) && dErr.Message != "" {
		return dErr.Message
	}
	return "internal error"
}
