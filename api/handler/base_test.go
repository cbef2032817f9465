package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/internal/infrastructure/monitor"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   domain.ErrorCode
	}{
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, domain.ErrCodeUnauthorized},
		{"validation", domain.NewValidationError("bad"), http.StatusBadRequest, domain.ErrCodeInvalid},
		{"not found", domain.ErrTaskNotFound, http.StatusNotFound, domain.ErrCodeNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", domain.ErrProfileNotFound), http.StatusNotFound, domain.ErrCodeNotFound},
		{"transition", domain.NewTransitionError(domain.StatusPending, domain.StatusPending), http.StatusConflict, domain.ErrCodeInvalidTransition},
		{"dependency", domain.NewDependencyError("db down", errors.New("dial")), http.StatusServiceUnavailable, domain.ErrCodeDependencyFailure},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable, domain.ErrCodeDependencyFailure},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, domain.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := mapError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestRespondErrorHidesInternals(t *testing.T) {
	h := newBaseHandler(nil, nil)

	ctx := &fasthttp.RequestCtx{}
	h.respondError(context.Background(), ctx, domain.NewDependencyError("failed to save task", errors.New("pq: password authentication failed")))
	assert.Equal(t, http.StatusServiceUnavailable, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "failed to save task")
	assert.NotContains(t, string(ctx.Response.Body()), "password")

	ctx = &fasthttp.RequestCtx{}
	h.respondError(context.Background(), ctx, errors.New("secret detail"))
	assert.Contains(t, string(ctx.Response.Body()), "internal error")
	assert.NotContains(t, string(ctx.Response.Body()), "secret detail")
}

func TestParseWeekOffset(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"-1", -1, false},
		{"3", 3, false},
		{"520", 520, false},
		{"-521", 0, true},
		{"1.5", 0, true},
		{"next", 0, true},
	}
	for _, tt := range tests {
		got, err := parseWeekOffset(tt.in)
		if tt.wantErr {
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid), tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

type staticStatus monitor.Status

func (s staticStatus) GetStatus() monitor.Status { return monitor.Status(s) }

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		status monitor.Status
		want   int
	}{
		{"storage up", monitor.Status{Storage: true, CacheEnabled: true}, http.StatusOK},
		{"cache down only", monitor.Status{Storage: true, CacheEnabled: true, Cache: false}, http.StatusOK},
		{"storage down", monitor.Status{Storage: false, Cache: true, CacheEnabled: true}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(staticStatus(tt.status), nil, nil)
			ctx := &fasthttp.RequestCtx{}
			h.Check(ctx)
			assert.Equal(t, tt.want, ctx.Response.StatusCode())
			if tt.want == http.StatusServiceUnavailable {
				assert.Contains(t, string(ctx.Response.Body()), "DEGRADED")
			}
		})
	}
}

func TestMissingIdentity(t *testing.T) {
	h := NewTaskHandler(nil, nil, nil)
	ctx := &fasthttp.RequestCtx{}
	h.ListWeek(ctx)
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
}
