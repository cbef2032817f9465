package task_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/internal/testutil"
	"github.com/fastygo/habitflow/repository"
	taskUC "github.com/fastygo/habitflow/usecase/task"
)

const userID = "user-1"

// Wednesday 2025-03-12, week of Monday 2025-03-10.
var start = time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)

type harness struct {
	store     *testutil.MemoryStore
	clock     *testutil.MockClock
	cache     *testutil.MemoryCache
	recorder  *testutil.RecordingRecorder
	suggester *testutil.StubSuggester
	uc        *taskUC.UseCase
}

type option func(*taskUC.Dependencies)

func newHarness(t *testing.T, opts ...option) *harness {
	t.Helper()
	h := &harness{
		store:     testutil.NewMemoryStore(),
		clock:     testutil.NewMockClock(start),
		cache:     testutil.NewMemoryCache(),
		recorder:  &testutil.RecordingRecorder{},
		suggester: &testutil.StubSuggester{Text: "Write one post a day"},
	}
	deps := taskUC.Dependencies{
		Tasks:      h.store.Tasks(),
		Events:     h.store.Events(),
		Transactor: h.store,
		Cache:      h.cache,
		Recorder:   h.recorder,
		Suggester:  h.suggester,
		Clock:      h.clock,
		Calendar:   domain.NewCalendar(time.UTC),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	h.uc = taskUC.New(deps, zap.NewNop())
	return h
}

func (h *harness) create(t *testing.T, title, category string) *domain.Task {
	t.Helper()
	task, err := h.uc.CreateTask(context.Background(), userID, taskUC.CreateInput{
		Title:             title,
		Category:          category,
		EstimatedDuration: "30 min",
	})
	require.NoError(t, err)
	return task
}

func (h *harness) complete(t *testing.T, taskID string) *domain.Task {
	t.Helper()
	task, err := h.uc.CompleteTask(context.Background(), userID, taskID, taskUC.CompleteInput{})
	require.NoError(t, err)
	return task
}

func (h *harness) profile(t *testing.T) *domain.Profile {
	t.Helper()
	p := h.store.ProfileByID(userID)
	require.NotNil(t, p, "profile not created")
	return p
}

func TestCreateTask(t *testing.T) {
	h := newHarness(t)

	task, err := h.uc.CreateTask(context.Background(), userID, taskUC.CreateInput{
		Title:    "  Publish newsletter ",
		Category: " Email ",
		Priority: "high",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Publish newsletter", task.Title)
	assert.Equal(t, "email", task.Category)
	assert.Equal(t, domain.PriorityHigh, task.Priority)
	assert.Equal(t, domain.StatusPending, task.Status)
	assert.Equal(t, "2025-03-10", task.WeekStartDate.String())
	assert.Equal(t, []string{domain.EventTaskCreated}, h.recorder.Names())
}

func TestCreateTaskForAnotherWeek(t *testing.T) {
	h := newHarness(t)
	sunday := domain.MustParseDate("2025-03-23")

	task, err := h.uc.CreateTask(context.Background(), userID, taskUC.CreateInput{Title: "Plan", WeekOf: &sunday})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-17", task.WeekStartDate.String())
}

func TestCreateTaskValidation(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.CreateTask(context.Background(), userID, taskUC.CreateInput{Title: "   "})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = h.uc.CreateTask(context.Background(), userID, taskUC.CreateInput{Title: "x", Priority: "urgent"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.Empty(t, h.recorder.Names())
}

func TestGetTaskHidesOtherUsersTasks(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "Mine", "x")

	_, err := h.uc.GetTask(context.Background(), "intruder", task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = h.uc.StartTask(context.Background(), "intruder", task.ID, domain.Approach{})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.Equal(t, domain.StatusPending, h.store.TaskByID(task.ID).Status)
}

func TestUnknownTask(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.CompleteTask(context.Background(), userID, "missing", taskUC.CompleteInput{})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.Nil(t, h.store.ProfileByID(userID))
}

func TestStartAndCompleteUpdatesStreaks(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "Post", "linkedin")

	started, err := h.uc.StartTask(context.Background(), userID, task.ID, domain.Approach{Text: "carousel"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStarted, started.Status)
	assert.Equal(t, start, *started.StartedAt)

	h.clock.Advance(25 * time.Minute)
	done, err := h.uc.CompleteTask(context.Background(), userID, task.ID, taskUC.CompleteInput{
		Notes:   "went well",
		Metrics: []domain.MetricInput{{Name: "impressions", Value: "900"}},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, done.Status)
	assert.Equal(t, 25, *done.ActualTimeMinutes)
	assert.Equal(t, "2025-03-12", done.CompletedOn.String())

	profile := h.profile(t)
	assert.Equal(t, 1, profile.CurrentStreak)
	assert.Equal(t, 1, profile.BestStreak)
	assert.Equal(t, 1, profile.TotalTasksCompleted)
	assert.Equal(t, "2025-03-12", profile.LastActivityDate.String())

	platform := h.store.PlatformByKey(userID, "linkedin")
	require.NotNil(t, platform)
	assert.Equal(t, 1, platform.CurrentStreak)

	assert.Equal(t, []string{domain.EventTaskCreated, domain.EventTaskStarted, domain.EventTaskCompleted}, h.recorder.Names())
	completed := h.recorder.Events()[2]
	assert.Equal(t, domain.StatusStarted, completed.From)
	assert.Equal(t, domain.StatusCompleted, completed.To)
	assert.Contains(t, string(completed.Payload), `"actual_time_minutes":25`)
	assert.Equal(t, 1, h.cache.Invalidations)
}

func TestCompleteTwiceIsRejected(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "Post", "x")
	h.complete(t, task.ID)

	_, err := h.uc.CompleteTask(context.Background(), userID, task.ID, taskUC.CompleteInput{})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidTransition))
	assert.Contains(t, err.Error(), "task already completed")

	assert.Equal(t, 1, h.profile(t).TotalTasksCompleted)
	assert.Equal(t, 1, h.store.Rollbacks, "caller errors are not retried")
	assert.Len(t, h.recorder.Names(), 2)
}

func TestCompleteFromPending(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "Quick win", "x")

	done := h.complete(t, task.ID)
	assert.Equal(t, start, *done.StartedAt)
	assert.Equal(t, 1, *done.ActualTimeMinutes)
	assert.Equal(t, 1, h.profile(t).TotalTasksCompleted)
}

func TestCompleteRejectsZeroMinutes(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "Post", "x")
	zero := 0

	_, err := h.uc.CompleteTask(context.Background(), userID, task.ID, taskUC.CompleteInput{ActualTimeMinutes: &zero})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.Equal(t, domain.StatusPending, h.store.TaskByID(task.ID).Status)
	assert.Nil(t, h.store.ProfileByID(userID))
}

func TestStreakAcrossDays(t *testing.T) {
	h := newHarness(t)

	h.complete(t, h.create(t, "day 1", "blog").ID)
	h.clock.Advance(24 * time.Hour)
	h.complete(t, h.create(t, "day 2", "blog").ID)
	h.clock.Advance(24 * time.Hour)
	h.complete(t, h.create(t, "day 3a", "blog").ID)
	h.complete(t, h.create(t, "day 3b", "email").ID)

	profile := h.profile(t)
	assert.Equal(t, 3, profile.CurrentStreak)
	assert.Equal(t, 3, profile.BestStreak)
	assert.Equal(t, 4, profile.TotalTasksCompleted)
	assert.Equal(t, 3, h.store.PlatformByKey(userID, "blog").CurrentStreak)
	assert.Equal(t, 1, h.store.PlatformByKey(userID, "email").CurrentStreak)

	// Two idle days break the run.
	h.clock.Advance(72 * time.Hour)
	h.complete(t, h.create(t, "comeback", "blog").ID)

	profile = h.profile(t)
	assert.Equal(t, 1, profile.CurrentStreak)
	assert.Equal(t, 3, profile.BestStreak)
}

func TestUncompleteRevertsStreakAndCount(t *testing.T) {
	h := newHarness(t)
	h.complete(t, h.create(t, "yesterday", "x").ID)
	h.clock.Advance(24 * time.Hour)
	today := h.create(t, "today", "x")
	h.complete(t, today.ID)
	require.Equal(t, 2, h.profile(t).CurrentStreak)

	reopened, err := h.uc.UncompleteTask(context.Background(), userID, today.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStarted, reopened.Status)
	assert.Nil(t, reopened.CompletedAt)
	assert.Nil(t, reopened.ActualTimeMinutes)

	profile := h.profile(t)
	assert.Equal(t, 1, profile.TotalTasksCompleted)
	assert.Equal(t, 1, profile.CurrentStreak, "yesterday's activity still counts")
	assert.Equal(t, 1, profile.BestStreak, "best is recomputed from history")
	assert.Equal(t, "2025-03-12", profile.LastActivityDate.String())
}

func TestUncompleteKeepsDateSharedWithAnotherTask(t *testing.T) {
	h := newHarness(t)
	first := h.create(t, "first", "blog")
	second := h.create(t, "second", "blog")
	h.complete(t, first.ID)
	h.clock.Advance(time.Hour)
	h.complete(t, second.ID)

	before := h.profile(t)
	require.Equal(t, 2, before.TotalTasksCompleted)
	require.Equal(t, 1, before.CurrentStreak)

	_, err := h.uc.UncompleteTask(context.Background(), userID, first.ID)
	require.NoError(t, err)

	after := h.profile(t)
	assert.Equal(t, 1, after.TotalTasksCompleted)
	assert.Equal(t, 1, after.CurrentStreak, "second task keeps the day active")
	assert.Equal(t, 1, after.BestStreak)
	assert.Equal(t, before.LastActivityDate, after.LastActivityDate)

	blog := h.store.PlatformByKey(userID, "blog")
	require.NotNil(t, blog)
	assert.Equal(t, 1, blog.CurrentStreak)

	dates, err := h.store.Tasks().ListActivityDates(context.Background(), userID, "")
	require.NoError(t, err)
	assert.Equal(t, []domain.Date{domain.MustParseDate("2025-03-12")}, dates)

	_, err = h.uc.UncompleteTask(context.Background(), userID, second.ID)
	require.NoError(t, err)
	emptied := h.profile(t)
	assert.Zero(t, emptied.TotalTasksCompleted)
	assert.Zero(t, emptied.CurrentStreak)
	assert.Nil(t, emptied.LastActivityDate)
}

func TestCompleteUncompleteCompleteCountsOnce(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "flip", "x")

	h.complete(t, task.ID)
	_, err := h.uc.UncompleteTask(context.Background(), userID, task.ID)
	require.NoError(t, err)
	h.complete(t, task.ID)

	profile := h.profile(t)
	assert.Equal(t, 1, profile.TotalTasksCompleted)
	assert.Equal(t, 1, profile.CurrentStreak)
}

func TestUncompleteRequiresCompletedTask(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "pending", "x")

	_, err := h.uc.UncompleteTask(context.Background(), userID, task.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidTransition))
	assert.Nil(t, h.store.ProfileByID(userID))
}

func TestCancelStart(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "Post", "x")
	_, err := h.uc.StartTask(context.Background(), userID, task.ID, domain.Approach{Text: "plan"})
	require.NoError(t, err)

	cancelled, err := h.uc.CancelStart(context.Background(), userID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, cancelled.Status)
	assert.Nil(t, cancelled.StartedAt)
	assert.Empty(t, cancelled.UserApproach)

	_, err = h.uc.CancelStart(context.Background(), userID, task.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidTransition))
	assert.Equal(t, 0, h.cache.Invalidations, "start bookkeeping does not touch streaks")
}

func TestStartTwiceIsRejected(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "Post", "x")
	_, err := h.uc.StartTask(context.Background(), userID, task.ID, domain.Approach{})
	require.NoError(t, err)

	h.clock.Advance(time.Hour)
	_, err = h.uc.StartTask(context.Background(), userID, task.ID, domain.Approach{})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidTransition))
	assert.Equal(t, start, *h.store.TaskByID(task.ID).StartedAt)
}

func TestStartCompletedTaskIsRejected(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "Done", "x")
	h.complete(t, task.ID)
	invalidations := h.cache.Invalidations

	_, err := h.uc.StartTask(context.Background(), userID, task.ID, domain.Approach{Text: "again"})
	require.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidTransition), "got %v", err)
	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.StatusCompleted, te.From)
	assert.Equal(t, domain.StatusStarted, te.To)

	stored := h.store.TaskByID(task.ID)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedOn)
	assert.Equal(t, 1, h.profile(t).TotalTasksCompleted)
	assert.Equal(t, invalidations, h.cache.Invalidations)
}

func TestFailedTransactionRollsBackEverything(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "Post", "x")
	_, err := h.uc.StartTask(context.Background(), userID, task.ID, domain.Approach{})
	require.NoError(t, err)

	h.store.FailNext(testutil.OpProfileSave, 2)
	_, err = h.uc.CompleteTask(context.Background(), userID, task.ID, taskUC.CompleteInput{})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeDependencyFailure))
	assert.ErrorIs(t, err, testutil.ErrInjected)

	stored := h.store.TaskByID(task.ID)
	assert.Equal(t, domain.StatusStarted, stored.Status)
	assert.Nil(t, stored.CompletedAt)
	assert.Nil(t, h.store.ProfileByID(userID))
	assert.Nil(t, h.store.PlatformByKey(userID, "x"))
	assert.Equal(t, 2, h.store.Rollbacks)
	assert.NotContains(t, h.recorder.Names(), domain.EventTaskCompleted)
	assert.Equal(t, 0, h.cache.Invalidations)
}

func TestFailedPlatformWriteRollsBackTask(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "Post", "x")

	h.store.FailNext(testutil.OpPlatformSave, 2)
	_, err := h.uc.CompleteTask(context.Background(), userID, task.ID, taskUC.CompleteInput{})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeDependencyFailure))

	assert.Equal(t, domain.StatusPending, h.store.TaskByID(task.ID).Status)
	assert.Nil(t, h.store.ProfileByID(userID), "profile write made earlier in the transaction is undone")
}

func TestTransientFailureIsRetriedOnce(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "Post", "x")

	h.store.FailNext(testutil.OpTaskUpdate, 1)
	done, err := h.uc.CompleteTask(context.Background(), userID, task.ID, taskUC.CompleteInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)
	assert.Equal(t, 1, h.store.Rollbacks)
	assert.Equal(t, 1, h.store.Commits)
	assert.Equal(t, 1, h.profile(t).TotalTasksCompleted)
}

func TestConcurrentCompletionsCountOnce(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "Race", "x")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.uc.CompleteTask(context.Background(), userID, task.ID, taskUC.CompleteInput{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case domain.IsDomainError(err, domain.ErrCodeInvalidTransition):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, 1, h.profile(t).TotalTasksCompleted)
}

func TestCompletionDateFollowsCalendarZone(t *testing.T) {
	berlin, err := domain.LoadCalendar("Europe/Berlin")
	require.NoError(t, err)
	h := newHarness(t, func(d *taskUC.Dependencies) { d.Calendar = berlin })
	task := h.create(t, "Late post", "x")

	h.clock.Set(time.Date(2025, 3, 12, 23, 30, 0, 0, time.UTC))
	done := h.complete(t, task.ID)

	assert.Equal(t, "2025-03-13", done.CompletedOn.String())
	assert.Equal(t, "2025-03-13", h.profile(t).LastActivityDate.String())
}

func TestEventRecorderFailureDoesNotFailTransition(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "Post", "x")
	h.recorder.Err = errors.New("buffer full")

	done, err := h.uc.CompleteTask(context.Background(), userID, task.ID, taskUC.CompleteInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)
}

func TestSuggestApproach(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "Write blog post", "blog")
	sibling := h.create(t, "Older post", "blog")
	_, err := h.uc.StartTask(context.Background(), userID, sibling.ID, domain.Approach{Text: "outline first"})
	require.NoError(t, err)
	h.complete(t, sibling.ID)

	suggestion, err := h.uc.SuggestApproach(context.Background(), userID, task.ID)
	require.NoError(t, err)
	assert.True(t, suggestion.Available)
	assert.Equal(t, "Write one post a day", suggestion.Text)

	sc := h.suggester.LastContext()
	assert.Equal(t, task.WeekStartDate, sc.WeekStart)
	assert.Equal(t, []string{"Older post"}, sc.WeekTasks)
	assert.Equal(t, []string{"outline first"}, sc.PastApproaches)

	stored := h.store.TaskByID(task.ID)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Empty(t, stored.SuggestedApproach)
}

func TestSuggestApproachProviderFailure(t *testing.T) {
	h := newHarness(t)
	task := h.create(t, "Post", "x")
	h.suggester.Err = errors.New("rate limited")

	suggestion, err := h.uc.SuggestApproach(context.Background(), userID, task.ID)
	require.NoError(t, err)
	assert.False(t, suggestion.Available)
	assert.Equal(t, "no suggestion available", suggestion.Message)
	assert.Equal(t, domain.StatusPending, h.store.TaskByID(task.ID).Status)
}

func TestSuggestApproachTimeout(t *testing.T) {
	h := newHarness(t, func(d *taskUC.Dependencies) { d.SuggestionTimeout = 20 * time.Millisecond })
	task := h.create(t, "Post", "x")
	h.suggester.Delay = 2 * time.Second

	began := time.Now()
	suggestion, err := h.uc.SuggestApproach(context.Background(), userID, task.ID)
	require.NoError(t, err)
	assert.False(t, suggestion.Available)
	assert.Less(t, time.Since(began), time.Second)
}

func TestSuggestApproachWithoutProvider(t *testing.T) {
	h := newHarness(t, func(d *taskUC.Dependencies) { d.Suggester = nil })
	task := h.create(t, "Post", "x")

	suggestion, err := h.uc.SuggestApproach(context.Background(), userID, task.ID)
	require.NoError(t, err)
	assert.False(t, suggestion.Available)

	_, err = h.uc.SuggestApproach(context.Background(), userID, "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestGetWeekTasks(t *testing.T) {
	h := newHarness(t)
	lastWeek := domain.MustParseDate("2025-03-05")
	_, err := h.uc.CreateTask(context.Background(), userID, taskUC.CreateInput{Title: "old", WeekOf: &lastWeek})
	require.NoError(t, err)

	a := h.create(t, "a", "x")
	h.create(t, "b", "x")
	c := h.create(t, "c", "x")
	_, err = h.uc.StartTask(context.Background(), userID, c.ID, domain.Approach{})
	require.NoError(t, err)
	h.clock.Advance(40 * time.Minute)
	h.complete(t, a.ID)

	view, err := h.uc.GetWeekTasks(context.Background(), userID, 0)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", view.WeekStart.String())
	assert.Equal(t, "2025-03-16", view.WeekEnd.String())
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, 1, view.Pending)
	assert.Equal(t, 1, view.Started)
	assert.Equal(t, 1, view.Completed)
	assert.InDelta(t, 1.0/3.0, view.CompletionRate, 0.0001)
	assert.Equal(t, 90, view.EstimatedMinutes)
	assert.Equal(t, 1, view.ActualMinutes)

	previous, err := h.uc.GetWeekTasks(context.Background(), userID, -1)
	require.NoError(t, err)
	require.Len(t, previous.Tasks, 1)
	assert.Equal(t, "old", previous.Tasks[0].Title)

	empty, err := h.uc.GetWeekTasks(context.Background(), userID, 3)
	require.NoError(t, err)
	assert.NotNil(t, empty.Tasks)
	assert.Zero(t, empty.CompletionRate)
}

type storeRecorder struct{ events repository.EventRepository }

func (r storeRecorder) RecordEvent(ctx context.Context, event domain.TaskEvent) error {
	return r.events.Append(ctx, event)
}

func TestTaskHistory(t *testing.T) {
	store := testutil.NewMemoryStore()
	h := newHarness(t, func(d *taskUC.Dependencies) {
		d.Tasks = store.Tasks()
		d.Events = store.Events()
		d.Transactor = store
		d.Recorder = storeRecorder{events: store.Events()}
	})
	task := h.create(t, "Post", "x")
	_, err := h.uc.StartTask(context.Background(), userID, task.ID, domain.Approach{})
	require.NoError(t, err)
	h.clock.Advance(time.Minute)
	h.complete(t, task.ID)

	events, err := h.uc.TaskHistory(context.Background(), userID, task.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventTaskCreated, events[0].Name)
	assert.Equal(t, domain.EventTaskStarted, events[1].Name)
	assert.Equal(t, domain.EventTaskCompleted, events[2].Name)

	_, err = h.uc.TaskHistory(context.Background(), "intruder", task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
