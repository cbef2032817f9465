package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/internal/config"
	pginfra "github.com/fastygo/habitflow/internal/infrastructure/postgres"
	"github.com/fastygo/habitflow/repository"
	taskUC "github.com/fastygo/habitflow/usecase/task"
)

var week = domain.MustParseDate("2025-03-10")

// openTestPool migrates the database at TEST_DATABASE_URL and skips when it is unset.
// Tests share the schema, so each one works under fresh user and task ids.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	migrations, err := filepath.Abs(filepath.Join("..", "..", "assets", "migrations"))
	require.NoError(t, err)
	_, err = pginfra.RunMigrations(
		config.DatabaseConfig{URL: url, Name: "habitflow_test"},
		config.MigrationsConfig{Enabled: true, Path: migrations},
		zap.NewNop(),
	)
	require.NoError(t, err)

	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func newTask(userID, category string) *domain.Task {
	return &domain.Task{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         "task",
		Category:      category,
		Priority:      domain.PriorityMedium,
		Status:        domain.StatusPending,
		WeekStartDate: week,
	}
}

func completeOn(t *testing.T, task *domain.Task, day string) {
	t.Helper()
	on := domain.MustParseDate(day)
	require.NoError(t, task.Complete(on.Time().Add(10*time.Hour), on, domain.Outcome{
		Notes:   "done",
		Metrics: []domain.MetricInput{{Name: "views", Value: "12", Unit: "count"}},
	}))
}

func TestTaskRoundTrip(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	tasks := NewTaskRepository(pool)
	userID := uuid.NewString()

	task := newTask(userID, "blog")
	require.NoError(t, tasks.Create(ctx, task))
	assert.False(t, task.CreatedAt.IsZero())

	loaded, err := tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, loaded.Status)
	assert.Equal(t, week, loaded.WeekStartDate)

	require.NoError(t, loaded.Start(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), domain.Approach{Text: "plan"}))
	require.NoError(t, tasks.Update(ctx, loaded))
	completeOn(t, loaded, "2025-03-12")
	require.NoError(t, tasks.Update(ctx, loaded))

	got, err := tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, "2025-03-12", got.CompletedOn.String())
	assert.Equal(t, "plan", got.UserApproach)
	assert.Equal(t, map[string]domain.Metric{"views": {Value: "12", Unit: "count"}}, got.MetricsTracked)

	_, err = tasks.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestCorruptMetricsFailTheRead(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	tasks := NewTaskRepository(pool)

	task := newTask(uuid.NewString(), "")
	require.NoError(t, tasks.Create(ctx, task))
	_, err := pool.Exec(ctx, `UPDATE tasks SET metrics_tracked = '"broken"'::jsonb WHERE id = $1`, task.ID)
	require.NoError(t, err)

	_, err = tasks.GetByID(ctx, task.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode metrics of task")
}

func TestActivityDatesAndCount(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	tasks := NewTaskRepository(pool)
	userID := uuid.NewString()

	for _, c := range []struct{ category, day string }{
		{"blog", "2025-03-10"},
		{"email", "2025-03-10"},
		{"blog", "2025-03-12"},
	} {
		task := newTask(userID, c.category)
		completeOn(t, task, c.day)
		require.NoError(t, tasks.Create(ctx, task))
	}
	require.NoError(t, tasks.Create(ctx, newTask(userID, "blog")))

	all, err := tasks.ListActivityDates(ctx, userID, "")
	require.NoError(t, err)
	assert.Equal(t, []domain.Date{domain.MustParseDate("2025-03-10"), domain.MustParseDate("2025-03-12")}, all)

	email, err := tasks.ListActivityDates(ctx, userID, "email")
	require.NoError(t, err)
	assert.Equal(t, []domain.Date{domain.MustParseDate("2025-03-10")}, email)

	count, err := tasks.CountCompleted(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestProfileAndPlatformStreaks(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	profiles := NewProfileRepository(pool)
	userID := uuid.NewString()

	_, err := profiles.Get(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	last := domain.MustParseDate("2025-03-12")
	require.NoError(t, profiles.Save(ctx, &domain.Profile{UserID: userID, CurrentStreak: 2, BestStreak: 5, LastActivityDate: &last, TotalTasksCompleted: 7}))
	got, err := profiles.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.BestStreak)
	assert.Equal(t, &last, got.LastActivityDate)

	missing, err := profiles.GetPlatformStreak(ctx, userID, "blog")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, profiles.SavePlatformStreak(ctx, &domain.PlatformStreak{UserID: userID, Category: "blog", CurrentStreak: 1, BestStreak: 1, LastActivityDate: &last}))
	list, err := profiles.ListPlatformStreaks(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "blog", list[0].Category)
}

func TestTransactionRollsBack(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	userID := uuid.NewString()
	task := newTask(userID, "")
	require.NoError(t, NewTaskRepository(pool).Create(ctx, task))

	boom := errors.New("boom")
	err := NewTransactor(pool).WithinTransaction(ctx, func(ctx context.Context, stores repository.Stores) error {
		locked, err := stores.Tasks.GetForUpdate(ctx, task.ID)
		if err != nil {
			return err
		}
		completeOn(t, locked, "2025-03-12")
		if err := stores.Tasks.Update(ctx, locked); err != nil {
			return err
		}
		if err := stores.Profiles.Save(ctx, &domain.Profile{UserID: userID, TotalTasksCompleted: 1}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := NewTaskRepository(pool).GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	_, err = NewProfileRepository(pool).Get(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestUsersAndEvents(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	events := NewEventRepository(pool)
	userID := uuid.NewString()

	_, err := users.GetByID(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	require.NoError(t, users.Upsert(ctx, &domain.User{ID: userID, Email: "a@b.c", Status: "active", Metadata: map[string]string{"plan": "pro"}}))
	update := &domain.User{ID: userID, Status: "active", DisplayName: "Ann", Metadata: map[string]string{"tz": "UTC"}}
	require.NoError(t, users.Upsert(ctx, update))
	assert.Equal(t, "a@b.c", update.Email)
	assert.Equal(t, "Ann", update.DisplayName)
	assert.Equal(t, map[string]string{"plan": "pro", "tz": "UTC"}, update.Metadata)

	taskID := uuid.NewString()
	base := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	first := domain.TaskEvent{ID: uuid.NewString(), TaskID: taskID, UserID: userID, Name: domain.EventTaskCreated, To: domain.StatusPending, OccurredAt: base}
	second := domain.TaskEvent{ID: uuid.NewString(), TaskID: taskID, UserID: userID, Name: domain.EventTaskStarted, From: domain.StatusPending, To: domain.StatusStarted, OccurredAt: base.Add(time.Minute)}
	require.NoError(t, events.Append(ctx, second))
	require.NoError(t, events.Append(ctx, first))
	require.NoError(t, events.Append(ctx, first))

	history, err := events.ListByTask(ctx, taskID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[0].ID)
	assert.Equal(t, second.ID, history[1].ID)
}

func TestConcurrentCompletionsOfDifferentTasksAllCount(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	userID := uuid.NewString()
	uc := taskUC.New(taskUC.Dependencies{
		Tasks:      NewTaskRepository(pool),
		Events:     NewEventRepository(pool),
		Transactor: NewTransactor(pool),
		Clock:      domain.RealClock{},
		Calendar:   domain.NewCalendar(time.UTC),
	}, zap.NewNop())

	const workers = 6
	ids := make([]string, workers)
	for i := range ids {
		task, err := uc.CreateTask(ctx, userID, taskUC.CreateInput{Title: "parallel", Category: "blog"})
		require.NoError(t, err)
		ids[i] = task.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = uc.CompleteTask(ctx, userID, id, taskUC.CompleteInput{})
		}(i, id)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	profile, err := NewProfileRepository(pool).Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, workers, profile.TotalTasksCompleted)
	assert.Equal(t, 1, profile.CurrentStreak)
	assert.NotNil(t, profile.LastActivityDate)
}
