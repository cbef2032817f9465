package testutil

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/repository"
)

// ErrInjected is returned by operations armed with FailNext.
var ErrInjected = errors.New("injected store failure")

// Operations that accept injected failures.
const (
	OpTaskGet      = "tasks.get"
	OpTaskUpdate   = "tasks.update"
	OpTaskActivity = "tasks.activity"
	OpProfileLock  = "profiles.lock"
	OpProfileSave  = "profiles.save"
	OpPlatformSave = "platforms.save"
	OpEventAppend  = "events.append"
	OpBeginTx      = "tx.begin"
)

type memState struct {
	tasks     map[string]domain.Task
	profiles  map[string]domain.Profile
	platforms map[string]domain.PlatformStreak
	users     map[string]domain.User
}

// MemoryStore implements every repository port and repository.Transactor in memory.
// Transactions are serialised and roll back to a snapshot on error.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	state  memState
	events []domain.TaskEvent
	fail   map[string]int

	Commits   int
	Rollbacks int
	// Locks lists the users whose aggregates were locked, in call order.
	Locks []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: memState{
			tasks:     map[string]domain.Task{},
			profiles:  map[string]domain.Profile{},
			platforms: map[string]domain.PlatformStreak{},
			users:     map[string]domain.User{},
		},
		fail: map[string]int{},
	}
}

// FailNext makes the next n calls of op return ErrInjected.
func (s *MemoryStore) FailNext(op string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = n
}

func (s *MemoryStore) shouldFail(op string) bool {
	if s.fail[op] > 0 {
		s.fail[op]--
		return true
	}
	return false
}

func (s *MemoryStore) Tasks() repository.TaskRepository       { return memTasks{s} }
func (s *MemoryStore) Profiles() repository.ProfileRepository { return memProfiles{s} }
func (s *MemoryStore) Users() repository.UserRepository       { return memUsers{s} }
func (s *MemoryStore) Events() repository.EventRepository     { return memEvents{s} }

// WithinTransaction implements repository.Transactor.
func (s *MemoryStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, stores repository.Stores) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	if s.shouldFail(OpBeginTx) {
		s.mu.Unlock()
		return ErrInjected
	}
	snapshot := s.state.clone()
	s.mu.Unlock()

	if err := fn(ctx, repository.Stores{Tasks: memTasks{s}, Profiles: memProfiles{s}}); err != nil {
		s.mu.Lock()
		s.state = snapshot
		s.Rollbacks++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.Commits++
	s.mu.Unlock()
	return nil
}

// PutTask stores task as is, bypassing validation.
func (s *MemoryStore) PutTask(task domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.tasks[task.ID] = cloneTask(task)
}

// TaskByID returns the stored task or nil.
func (s *MemoryStore) TaskByID(id string) *domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.state.tasks[id]
	if !ok {
		return nil
	}
	c := cloneTask(t)
	return &c
}

// ProfileByID returns the stored profile or nil.
func (s *MemoryStore) ProfileByID(userID string) *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.profiles[userID]
	if !ok {
		return nil
	}
	return &p
}

// PlatformByKey returns the stored category streak or nil.
func (s *MemoryStore) PlatformByKey(userID, category string) *domain.PlatformStreak {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.platforms[platformKey(userID, category)]
	if !ok {
		return nil
	}
	return &p
}

// EventLog returns every appended event in order.
func (s *MemoryStore) EventLog() []domain.TaskEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TaskEvent(nil), s.events...)
}

func (st memState) clone() memState {
	out := memState{
		tasks:     make(map[string]domain.Task, len(st.tasks)),
		profiles:  maps.Clone(st.profiles),
		platforms: maps.Clone(st.platforms),
		users:     maps.Clone(st.users),
	}
	for id, t := range st.tasks {
		out.tasks[id] = cloneTask(t)
	}
	return out
}

type memTasks struct{ s *MemoryStore }

func (r memTasks) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.shouldFail(OpTaskGet) {
		return nil, ErrInjected
	}
	t, ok := r.s.state.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	c := cloneTask(t)
	return &c, nil
}

func (r memTasks) GetForUpdate(ctx context.Context, id string) (*domain.Task, error) {
	return r.GetByID(ctx, id)
}

func (r memTasks) Create(_ context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	if err := task.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	task.CreatedAt, task.UpdatedAt = now, now
	r.s.state.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (r memTasks) Update(_ context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidPayload
	}
	if err := task.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.shouldFail(OpTaskUpdate) {
		return ErrInjected
	}
	stored := cloneTask(*task)
	if existing, ok := r.s.state.tasks[task.ID]; ok {
		stored.UserID = existing.UserID
		stored.WeekStartDate = existing.WeekStartDate
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.UpdatedAt = time.Now().UTC()
	r.s.state.tasks[task.ID] = stored
	task.CreatedAt, task.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
	return nil
}

var priorityRank = map[domain.Priority]int{
	domain.PriorityHigh:   0,
	domain.PriorityMedium: 1,
	domain.PriorityLow:    2,
}

func (r memTasks) ListByUserAndWeek(_ context.Context, userID string, weekStart domain.Date) ([]domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Task
	for _, t := range r.s.state.tasks {
		if t.UserID == userID && t.WeekStartDate == weekStart {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if priorityRank[out[i].Priority] != priorityRank[out[j].Priority] {
			return priorityRank[out[i].Priority] < priorityRank[out[j].Priority]
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memTasks) ListActivityDates(_ context.Context, userID, category string) ([]domain.Date, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.shouldFail(OpTaskActivity) {
		return nil, ErrInjected
	}
	seen := map[domain.Date]bool{}
	var out []domain.Date
	for _, t := range r.s.state.tasks {
		if t.UserID != userID || t.Status != domain.StatusCompleted || t.CompletedOn == nil {
			continue
		}
		if category != "" && t.Category != category {
			continue
		}
		if !seen[*t.CompletedOn] {
			seen[*t.CompletedOn] = true
			out = append(out, *t.CompletedOn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (r memTasks) CountCompleted(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, t := range r.s.state.tasks {
		if t.UserID == userID && t.Status == domain.StatusCompleted {
			n++
		}
	}
	return n, nil
}

type memProfiles struct{ s *MemoryStore }

func (r memProfiles) LockUser(_ context.Context, userID string) error {
	if userID == "" {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.shouldFail(OpProfileLock) {
		return ErrInjected
	}
	r.s.Locks = append(r.s.Locks, userID)
	return nil
}

func (r memProfiles) Get(_ context.Context, userID string) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.state.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &p, nil
}

func (r memProfiles) Save(_ context.Context, profile *domain.Profile) error {
	if profile == nil || profile.UserID == "" {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.shouldFail(OpProfileSave) {
		return ErrInjected
	}
	profile.UpdatedAt = time.Now().UTC()
	r.s.state.profiles[profile.UserID] = *profile
	return nil
}

func (r memProfiles) GetPlatformStreak(_ context.Context, userID, category string) (*domain.PlatformStreak, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.state.platforms[platformKey(userID, category)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r memProfiles) SavePlatformStreak(_ context.Context, streak *domain.PlatformStreak) error {
	if streak == nil || streak.UserID == "" || streak.Category == "" {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.shouldFail(OpPlatformSave) {
		return ErrInjected
	}
	streak.UpdatedAt = time.Now().UTC()
	r.s.state.platforms[platformKey(streak.UserID, streak.Category)] = *streak
	return nil
}

func (r memProfiles) ListPlatformStreaks(_ context.Context, userID string) ([]domain.PlatformStreak, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.PlatformStreak
	for _, p := range r.s.state.platforms {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

type memUsers struct{ s *MemoryStore }

func (r memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.state.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r memUsers) Upsert(_ context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	merged := *user
	merged.Metadata = map[string]string{}
	if existing, ok := r.s.state.users[user.ID]; ok {
		merged.CreatedAt = existing.CreatedAt
		if merged.Email == "" {
			merged.Email = existing.Email
		}
		if merged.DisplayName == "" {
			merged.DisplayName = existing.DisplayName
		}
		for k, v := range existing.Metadata {
			merged.Metadata[k] = v
		}
	} else {
		merged.CreatedAt = now
	}
	for k, v := range user.Metadata {
		merged.Metadata[k] = v
	}
	if len(merged.Metadata) == 0 {
		merged.Metadata = nil
	}
	merged.UpdatedAt = now
	r.s.state.users[user.ID] = merged
	*user = merged
	return nil
}

type memEvents struct{ s *MemoryStore }

func (r memEvents) Append(_ context.Context, event domain.TaskEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.shouldFail(OpEventAppend) {
		return ErrInjected
	}
	for _, e := range r.s.events {
		if e.ID == event.ID {
			return nil
		}
	}
	r.s.events = append(r.s.events, event)
	return nil
}

func (r memEvents) ListByTask(_ context.Context, taskID string) ([]domain.TaskEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.TaskEvent
	for _, e := range r.s.events {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func platformKey(userID, category string) string {
	return userID + "|" + category
}

func cloneTask(t domain.Task) domain.Task {
	c := t
	if t.StartedAt != nil {
		v := *t.StartedAt
		c.StartedAt = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	if t.CompletedOn != nil {
		v := *t.CompletedOn
		c.CompletedOn = &v
	}
	if t.ActualTimeMinutes != nil {
		v := *t.ActualTimeMinutes
		c.ActualTimeMinutes = &v
	}
	c.MetricsTracked = maps.Clone(t.MetricsTracked)
	return c
}
