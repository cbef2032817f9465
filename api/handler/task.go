package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/habitflow/api/transport"
	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/pkg/httpcontext"
	taskUC "github.com/fastygo/habitflow/usecase/task"
)

// Week offsets outside this range are rejected.
const maxWeekOffset = 520

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List the tasks of one week
// @Tags tasks
// @Param week_offset query int false "0 is the current week, -1 the previous one"
// @Router /api/v1/tasks [get]
func (h *TaskHandler) ListWeek(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	offset, err := parseWeekOffset(string(ctx.QueryArgs().Peek("week_offset")))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	view, err := h.uc.GetWeekTasks(stdCtx, userID, offset)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.CreateTaskRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	created, err := h.uc.CreateTask(stdCtx, userID, taskUC.CreateInput{
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Priority:          req.Priority,
		EstimatedDuration: req.EstimatedDuration,
		WeekOf:            req.WeekOfDate(),
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	userID, taskID, ok := h.target(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.GetTask(stdCtx, userID, taskID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Task lifecycle history
// @Tags tasks
// @Router /api/v1/tasks/{id}/events [get]
func (h *TaskHandler) History(ctx *fasthttp.RequestCtx) {
	userID, taskID, ok := h.target(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	events, err := h.uc.TaskHistory(stdCtx, userID, taskID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, events)
}

// @Summary Suggest an approach
// @Description Always 200 for an existing task; data.available is false when no suggestion could be produced.
// @Tags tasks
// @Router /api/v1/tasks/{id}/suggestion [post]
func (h *TaskHandler) Suggest(ctx *fasthttp.RequestCtx) {
	userID, taskID, ok := h.target(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	suggestion, err := h.uc.SuggestApproach(stdCtx, userID, taskID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, suggestion)
}

// @Summary Start task
// @Tags tasks
// @Router /api/v1/tasks/{id}/start [post]
func (h *TaskHandler) Start(ctx *fasthttp.RequestCtx) {
	userID, taskID, ok := h.target(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.StartTaskRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	task, err := h.uc.StartTask(stdCtx, userID, taskID, domain.Approach{
		Suggested: req.SuggestedApproach,
		Accepted:  req.AcceptedApproach,
		Text:      req.UserApproach,
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Complete task
// @Tags tasks
// @Router /api/v1/tasks/{id}/complete [post]
func (h *TaskHandler) Complete(ctx *fasthttp.RequestCtx) {
	userID, taskID, ok := h.target(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.CompleteTaskRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	task, err := h.uc.CompleteTask(stdCtx, userID, taskID, taskUC.CompleteInput{
		Notes:             req.ResultNotes,
		Metrics:           req.MetricInputs(),
		ActualTimeMinutes: req.ActualTimeMinutes,
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Reopen a completed task
// @Tags tasks
// @Router /api/v1/tasks/{id}/uncomplete [post]
func (h *TaskHandler) Uncomplete(ctx *fasthttp.RequestCtx) {
	userID, taskID, ok := h.target(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.UncompleteTask(stdCtx, userID, taskID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Cancel a started task
// @Tags tasks
// @Router /api/v1/tasks/{id}/cancel [post]
func (h *TaskHandler) CancelStart(ctx *fasthttp.RequestCtx) {
	userID, taskID, ok := h.target(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.CancelStart(stdCtx, userID, taskID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

func (h *TaskHandler) target(ctx *fasthttp.RequestCtx) (string, string, bool) {
	userID := h.userID(ctx)
	if userID == "" {
		return "", "", false
	}
	taskID, _ := ctx.UserValue("id").(string)
	if taskID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(domain.ErrCodeInvalid, "missing task id"))
		return "", "", false
	}
	return userID, taskID, true
}

func parseWeekOffset(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(value)
	if err != nil {
		return 0, domain.NewValidationError("week_offset must be an integer")
	}
	if offset < -maxWeekOffset || offset > maxWeekOffset {
		return 0, domain.NewValidationError("week_offset must be between %d and %d", -maxWeekOffset, maxWeekOffset)
	}
	return offset, nil
}
