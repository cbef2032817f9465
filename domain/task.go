package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
)

// transitions defines the allowed status changes.
// pending → completed is accepted as "start now, complete now".
var transitions = map[Status][]Status{
	StatusPending:   {StatusStarted, StatusCompleted},
	StatusStarted:   {StatusCompleted, StatusPending},
	StatusCompleted: {StatusStarted},
}

// CanTransitionTo returns true if the status can change to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// Priority ranks weekly tasks.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority accepts an empty value as medium.
func ParsePriority(value string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(value))); p {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", NewValidationError("unknown priority %q", value)
	}
}

// Metric is one tracked outcome value.
type Metric struct {
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// MetricInput is a metric row as entered by the user.
type MetricInput struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// Approach is how the user intends to tackle a task.
type Approach struct {
	Suggested string `json:"suggested_approach,omitempty"`
	Accepted  bool   `json:"accepted"`
	Text      string `json:"text,omitempty"`
}

// Outcome holds the completion bookkeeping supplied by the user.
type Outcome struct {
	Notes             string
	Metrics           []MetricInput
	ActualTimeMinutes *int
}

// Task represents one unit of work assigned to a user for a specific week.
type Task struct {
	ID                string            `json:"id"`
	UserID            string            `json:"user_id"`
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	Category          string            `json:"category"`
	Priority          Priority          `json:"priority"`
	EstimatedDuration string            `json:"estimated_duration,omitempty"`
	Status            Status            `json:"status"`
	StartedAt         *time.Time        `json:"started_at,omitempty"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	CompletedOn       *Date             `json:"completed_on,omitempty"`
	ActualTimeMinutes *int              `json:"actual_time_minutes,omitempty"`
	SuggestedApproach string            `json:"suggested_approach,omitempty"`
	AcceptedApproach  bool              `json:"accepted_approach"`
	UserApproach      string            `json:"user_approach,omitempty"`
	ResultNotes       string            `json:"result_notes,omitempty"`
	MetricsTracked    map[string]Metric `json:"metrics_tracked,omitempty"`
	WeekStartDate     Date              `json:"week_start_date"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// Validate checks the field combinations allowed for the current status.
func (t *Task) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	if !t.Status.IsValid() {
		return NewValidationError("unknown status %q", t.Status)
	}
	if t.WeekStartDate.IsZero() || t.WeekStartDate.Weekday() != time.Monday {
		return NewValidationError("week_start_date %s is not a Monday", t.WeekStartDate)
	}
	started := t.Status == StatusStarted || t.Status == StatusCompleted
	if (t.StartedAt != nil) != started {
		return NewValidationError("started_at must be set only for started or completed tasks")
	}
	completed := t.Status == StatusCompleted
	if (t.CompletedAt != nil) != completed || (t.CompletedOn != nil) != completed {
		return NewValidationError("completed_at must be set only for completed tasks")
	}
	if completed && t.ActualTimeMinutes == nil {
		return NewValidationError("actual_time_minutes is required for completed tasks")
	}
	if t.ActualTimeMinutes != nil && *t.ActualTimeMinutes < 1 {
		return NewValidationError("actual_time_minutes must be at least 1")
	}
	return nil
}

// Start moves a pending task to started.
func (t *Task) Start(now time.Time, approach Approach) error {
	if t.Status != StatusPending {
		return NewTransitionError(t.Status, StatusStarted)
	}
	suggested := strings.TrimSpace(approach.Suggested)
	text := strings.TrimSpace(approach.Text)
	if approach.Accepted {
		if suggested == "" {
			return NewValidationError("cannot accept an empty suggestion")
		}
		text = suggested
	}

	t.Status = StatusStarted
	t.StartedAt = &now
	t.SuggestedApproach = suggested
	t.AcceptedApproach = approach.Accepted
	t.UserApproach = text
	return nil
}

// Complete finishes a started task. A pending task is started and completed at now.
func (t *Task) Complete(now time.Time, completedOn Date, outcome Outcome) error {
	if !t.Status.CanTransitionTo(StatusCompleted) {
		return NewTransitionError(t.Status, StatusCompleted)
	}
	if outcome.ActualTimeMinutes != nil && *outcome.ActualTimeMinutes < 1 {
		return NewValidationError("actual_time_minutes must be at least 1, got %d", *outcome.ActualTimeMinutes)
	}
	metrics, err := NormalizeMetrics(outcome.Metrics)
	if err != nil {
		return err
	}

	if t.Status == StatusPending || t.StartedAt == nil {
		t.StartedAt = &now
	}

	minutes := ElapsedMinutes(*t.StartedAt, now)
	if outcome.ActualTimeMinutes != nil {
		minutes = *outcome.ActualTimeMinutes
	}

	t.Status = StatusCompleted
	t.CompletedAt = &now
	t.CompletedOn = &completedOn
	t.ActualTimeMinutes = &minutes
	t.ResultNotes = strings.TrimSpace(outcome.Notes)
	t.MetricsTracked = metrics
	return nil
}

// Uncomplete reverts a completed task to started. Notes and metrics stay as history.
func (t *Task) Uncomplete() error {
	if t.Status != StatusCompleted {
		return NewTransitionError(t.Status, StatusStarted)
	}
	t.Status = StatusStarted
	t.CompletedAt = nil
	t.CompletedOn = nil
	t.ActualTimeMinutes = nil
	return nil
}

// CancelStart returns a started task to pending and clears the start bookkeeping.
func (t *Task) CancelStart() error {
	if t.Status != StatusStarted {
		return NewTransitionError(t.Status, StatusPending)
	}
	t.Status = StatusPending
	t.StartedAt = nil
	t.SuggestedApproach = ""
	t.AcceptedApproach = false
	t.UserApproach = ""
	return nil
}

// EstimatedMinutes parses the free-text estimate.
func (t *Task) EstimatedMinutes() (int, bool) {
	if t == nil {
		return 0, false
	}
	return ParseDurationMinutes(t.EstimatedDuration)
}

// ElapsedMinutes rounds the time between start and end to minutes, minimum 1.
func ElapsedMinutes(start, end time.Time) int {
	minutes := int(math.Round(end.Sub(start).Minutes()))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// NormalizeMetrics keeps rows with both a name and a value. Later rows win on duplicate names.
func NormalizeMetrics(inputs []MetricInput) (map[string]Metric, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	metrics := make(map[string]Metric, len(inputs))
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		value := strings.TrimSpace(in.Value)
		if name == "" && value != "" {
			return nil, NewValidationError("metric value %q has no name", value)
		}
		if name == "" || value == "" {
			continue
		}
		metrics[name] = Metric{Value: value, Unit: strings.TrimSpace(in.Unit)}
	}
	if len(metrics) == 0 {
		return nil, nil
	}
	return metrics, nil
}

var durationPattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)(?:\s*-\s*(\d+(?:\.\d+)?))?\s*(m|min|mins|minute|minutes|h|hr|hrs|hour|hours)?\s*$`)

// ParseDurationMinutes understands "30 min", "1h", "1.5 hours", "45" and ranges
// such as "1-2 hours", which resolve to the upper bound.
func ParseDurationMinutes(value string) (int, bool) {
	m := durationPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, false
	}
	raw := m[1]
	if m[2] != "" {
		raw = m[2]
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	if strings.HasPrefix(strings.ToLower(m[3]), "h") {
		amount *= 60
	}
	return int(math.Round(amount)), true
}
