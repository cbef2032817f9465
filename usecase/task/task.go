package task

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/habitflow/domain"
	appLogger "github.com/fastygo/habitflow/pkg/logger"
	"github.com/fastygo/habitflow/repository"
	"github.com/fastygo/habitflow/usecase"
)

const defaultSuggestionTimeout = 15 * time.Second

// Dependencies wires the lifecycle controller. Cache, Recorder and Suggester are optional.
type Dependencies struct {
	Tasks      repository.TaskRepository
	Events     repository.EventRepository
	Transactor repository.Transactor
	Cache      repository.StreakCache
	Recorder   usecase.EventRecorder
	Suggester  usecase.SuggestionProvider
	Clock      domain.Clock
	Calendar   domain.Calendar

	SuggestionTimeout time.Duration
}

// UseCase owns the task lifecycle and keeps streak aggregates in step with it.
type UseCase struct {
	deps   Dependencies
	logger *zap.Logger
}

func New(deps Dependencies, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = domain.RealClock{}
	}
	if deps.SuggestionTimeout <= 0 {
		deps.SuggestionTimeout = defaultSuggestionTimeout
	}
	return &UseCase{
		deps:   deps,
		logger: logger,
	}
}

// CreateInput describes a new weekly task.
type CreateInput struct {
	Title             string
	Description       string
	Category          string
	Priority          string
	EstimatedDuration string
	// WeekOf is any day of the target week; the current week when nil.
	WeekOf *domain.Date
}

// CompleteInput carries the outcome of a finished task.
type CompleteInput struct {
	Notes             string
	Metrics           []domain.MetricInput
	ActualTimeMinutes *int
}

// Suggestion is the result of an approach request. Available is false when the provider failed.
type Suggestion struct {
	Available bool   `json:"available"`
	Text      string `json:"text,omitempty"`
	Message   string `json:"message,omitempty"`
}

// WeekView lists one week partition of a user's tasks.
type WeekView struct {
	Offset           int           `json:"offset"`
	WeekStart        domain.Date   `json:"week_start_date"`
	WeekEnd          domain.Date   `json:"week_end_date"`
	Tasks            []domain.Task `json:"tasks"`
	Total            int           `json:"total"`
	Pending          int           `json:"pending"`
	Started          int           `json:"started"`
	Completed        int           `json:"completed"`
	CompletionRate   float64       `json:"completion_rate"`
	EstimatedMinutes int           `json:"estimated_minutes"`
	ActualMinutes    int           `json:"actual_minutes"`
}

func (uc *UseCase) CreateTask(ctx context.Context, userID string, in CreateInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.NewValidationError("title is required")
	}
	priority, err := domain.ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}

	now := uc.deps.Clock.Now()
	weekOf := uc.deps.Calendar.DateOf(now)
	if in.WeekOf != nil && !in.WeekOf.IsZero() {
		weekOf = *in.WeekOf
	}

	task := &domain.Task{
		ID:                uuid.NewString(),
		UserID:            userID,
		Title:             title,
		Description:       strings.TrimSpace(in.Description),
		Category:          normalizeCategory(in.Category),
		Priority:          priority,
		EstimatedDuration: strings.TrimSpace(in.EstimatedDuration),
		Status:            domain.StatusPending,
		WeekStartDate:     domain.WeekStartFor(weekOf),
	}

	if err := uc.deps.Tasks.Create(ctx, task); err != nil {
		if domain.IsCallerError(err) {
			return nil, err
		}
		return nil, domain.NewDependencyError("failed to create task", err)
	}

	uc.record(ctx, task, domain.EventTaskCreated, "", nil)
	return task, nil
}

func (uc *UseCase) GetTask(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	task, err := uc.deps.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

// GetWeekTasks returns the tasks of the week offset weeks away from the current one.
func (uc *UseCase) GetWeekTasks(ctx context.Context, userID string, offset int) (*WeekView, error) {
	today := uc.deps.Calendar.Today(uc.deps.Clock)
	weekStart := domain.ResolveWeek(offset, today)

	tasks, err := uc.deps.Tasks.ListByUserAndWeek(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}

	view := &WeekView{
		Offset:    offset,
		WeekStart: weekStart,
		WeekEnd:   domain.WeekEndFor(weekStart),
		Tasks:     tasks,
		Total:     len(tasks),
	}
	if view.Tasks == nil {
		view.Tasks = []domain.Task{}
	}
	for i := range tasks {
		t := &tasks[i]
		switch t.Status {
		case domain.StatusPending:
			view.Pending++
		case domain.StatusStarted:
			view.Started++
		case domain.StatusCompleted:
			view.Completed++
		}
		if minutes, ok := t.EstimatedMinutes(); ok {
			view.EstimatedMinutes += minutes
		}
		if t.ActualTimeMinutes != nil {
			view.ActualMinutes += *t.ActualTimeMinutes
		}
	}
	if view.Total > 0 {
		view.CompletionRate = float64(view.Completed) / float64(view.Total)
	}
	return view, nil
}

// SuggestApproach asks the provider for an approach. It never changes the task.
// Provider failures are reported as an unavailable suggestion, not as an error.
func (uc *UseCase) SuggestApproach(ctx context.Context, userID, taskID string) (Suggestion, error) {
	task, err := uc.GetTask(ctx, userID, taskID)
	if err != nil {
		return Suggestion{}, err
	}
	if uc.deps.Suggester == nil {
		return unavailable(), nil
	}

	sc := usecase.SuggestionContext{WeekStart: task.WeekStartDate}
	if siblings, err := uc.deps.Tasks.ListByUserAndWeek(ctx, userID, task.WeekStartDate); err == nil {
		for _, s := range siblings {
			if s.ID == task.ID {
				continue
			}
			sc.WeekTasks = append(sc.WeekTasks, s.Title)
			if s.IsCompleted() && s.Category == task.Category && s.UserApproach != "" {
				sc.PastApproaches = append(sc.PastApproaches, s.UserApproach)
			}
		}
	}

	suggestCtx, cancel := context.WithTimeout(ctx, uc.deps.SuggestionTimeout)
	defer cancel()

	text, err := uc.deps.Suggester.SuggestApproach(suggestCtx, *task, sc)
	if err != nil {
		uc.logger.Warn("approach suggestion failed",
			zap.String("task_id", task.ID),
			zap.String("user_id", userID),
			zap.Error(err))
		return unavailable(), nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return unavailable(), nil
	}
	return Suggestion{Available: true, Text: text}, nil
}

func (uc *UseCase) StartTask(ctx context.Context, userID, taskID string, approach domain.Approach) (*domain.Task, error) {
	return uc.mutate(ctx, userID, taskID, mutation{
		event: domain.EventTaskStarted,
		apply: func(task *domain.Task, now time.Time, _ domain.Date) error {
			return task.Start(now, approach)
		},
	})
}

func (uc *UseCase) CompleteTask(ctx context.Context, userID, taskID string, in CompleteInput) (*domain.Task, error) {
	return uc.mutate(ctx, userID, taskID, mutation{
		event:          domain.EventTaskCompleted,
		syncStreaks:    true,
		completedDelta: 1,
		apply: func(task *domain.Task, now time.Time, today domain.Date) error {
			return task.Complete(now, today, domain.Outcome{
				Notes:             in.Notes,
				Metrics:           in.Metrics,
				ActualTimeMinutes: in.ActualTimeMinutes,
			})
		},
	})
}

func (uc *UseCase) UncompleteTask(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	return uc.mutate(ctx, userID, taskID, mutation{
		event:          domain.EventTaskUncompleted,
		syncStreaks:    true,
		completedDelta: -1,
		apply: func(task *domain.Task, _ time.Time, _ domain.Date) error {
			return task.Uncomplete()
		},
	})
}

func (uc *UseCase) CancelStart(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	return uc.mutate(ctx, userID, taskID, mutation{
		event: domain.EventTaskStartCancelled,
		apply: func(task *domain.Task, _ time.Time, _ domain.Date) error {
			return task.CancelStart()
		},
	})
}

// TaskHistory lists the recorded lifecycle events of a task.
func (uc *UseCase) TaskHistory(ctx context.Context, userID, taskID string) ([]domain.TaskEvent, error) {
	if _, err := uc.GetTask(ctx, userID, taskID); err != nil {
		return nil, err
	}
	if uc.deps.Events == nil {
		return []domain.TaskEvent{}, nil
	}
	events, err := uc.deps.Events.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []domain.TaskEvent{}
	}
	return events, nil
}

type mutation struct {
	event          string
	syncStreaks    bool
	completedDelta int
	apply          func(task *domain.Task, now time.Time, today domain.Date) error
}

// mutate applies m to the task and the streak aggregates in one transaction.
// A store failure rolls everything back and the whole transaction is attempted once more.
func (uc *UseCase) mutate(ctx context.Context, userID, taskID string, m mutation) (*domain.Task, error) {
	var (
		result *domain.Task
		from   domain.Status
	)
	log := appLogger.FromContext(ctx, uc.logger)

	attempt := func() error {
		return uc.deps.Transactor.WithinTransaction(ctx, func(ctx context.Context, stores repository.Stores) error {
			task, err := stores.Tasks.GetForUpdate(ctx, taskID)
			if err != nil {
				return err
			}
			if task.UserID != userID {
				return domain.ErrTaskNotFound
			}

			from = task.Status
			now := uc.deps.Clock.Now()
			today := uc.deps.Calendar.DateOf(now)
			if err := m.apply(task, now, today); err != nil {
				return err
			}
			if err := stores.Tasks.Update(ctx, task); err != nil {
				return err
			}
			if m.syncStreaks {
				if _, err := usecase.SyncStreaks(ctx, stores, userID, task.Category, today, m.completedDelta); err != nil {
					return err
				}
			}
			result = task
			return nil
		})
	}

	err := attempt()
	if err != nil && !domain.IsCallerError(err) && ctx.Err() == nil {
		log.Warn("lifecycle transaction failed, retrying",
			zap.String("task_id", taskID),
			zap.String("event", m.event),
			zap.Error(err))
		err = attempt()
	}
	if err != nil {
		if domain.IsCallerError(err) {
			return nil, err
		}
		log.Error("lifecycle transaction rolled back",
			zap.String("task_id", taskID),
			zap.String("event", m.event),
			zap.Error(err))
		return nil, domain.NewDependencyError("failed to persist task transition", err)
	}

	log.Info("task transition applied",
		zap.String("task_id", result.ID),
		zap.String("user_id", userID),
		zap.String("from", string(from)),
		zap.String("to", string(result.Status)))

	if m.syncStreaks {
		uc.invalidateStreaks(ctx, userID)
	}
	uc.record(ctx, result, m.event, from, eventPayload(result, m.event))
	return result, nil
}

func (uc *UseCase) invalidateStreaks(ctx context.Context, userID string) {
	if uc.deps.Cache == nil {
		return
	}
	if err := uc.deps.Cache.Invalidate(ctx, userID); err != nil {
		uc.logger.Warn("failed to invalidate streak cache", zap.String("user_id", userID), zap.Error(err))
	}
}

func (uc *UseCase) record(ctx context.Context, task *domain.Task, name string, from domain.Status, payload json.RawMessage) {
	if uc.deps.Recorder == nil {
		return
	}
	event := domain.TaskEvent{
		ID:         uuid.NewString(),
		TaskID:     task.ID,
		UserID:     task.UserID,
		Name:       name,
		From:       from,
		To:         task.Status,
		Payload:    payload,
		OccurredAt: uc.deps.Clock.Now(),
	}
	if err := uc.deps.Recorder.RecordEvent(ctx, event); err != nil {
		uc.logger.Warn("failed to record task event",
			zap.String("task_id", task.ID),
			zap.String("event", name),
			zap.Error(err))
	}
}

func eventPayload(task *domain.Task, name string) json.RawMessage {
	var payload any
	switch name {
	case domain.EventTaskStarted:
		payload = map[string]any{
			"accepted_approach": task.AcceptedApproach,
			"user_approach":     task.UserApproach,
		}
	case domain.EventTaskCompleted:
		payload = map[string]any{
			"actual_time_minutes": task.ActualTimeMinutes,
			"completed_on":        task.CompletedOn,
			"metrics_tracked":     task.MetricsTracked,
		}
	default:
		return nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return b
}

func unavailable() Suggestion {
	return Suggestion{Available: false, Message: domain.ErrSuggestionUnavailable.Message}
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}
