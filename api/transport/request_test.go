package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/habitflow/domain"
)

func TestDecodeCreateTask(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "minimal", body: `{"title":"Write post"}`},
		{name: "full", body: `{"title":"Write post","category":"blog","priority":"high","estimated_duration":"1h","week_of":"2025-03-12"}`},
		{name: "missing title", body: `{"category":"blog"}`, wantErr: "field title failed required validation"},
		{name: "unknown priority", body: `{"title":"x","priority":"urgent"}`, wantErr: "field priority failed priority validation"},
		{name: "bad week", body: `{"title":"x","week_of":"12/03/2025"}`, wantErr: "field week_of failed isodate validation"},
		{name: "malformed json", body: `{"title":`, wantErr: "invalid payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateTaskRequest
			err := Decode([]byte(tt.body), &req)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecodeEmptyBody(t *testing.T) {
	var req CompleteTaskRequest
	require.NoError(t, Decode(nil, &req))
	assert.Nil(t, req.MetricInputs())
	assert.Nil(t, req.ActualTimeMinutes)

	var create CreateTaskRequest
	assert.Error(t, Decode([]byte("  "), &create))
}

func TestDecodeCompleteTask(t *testing.T) {
	var req CompleteTaskRequest
	body := `{"result_notes":"shipped","actual_time_minutes":45,"metrics":[{"name":"views","value":"120","unit":"count"}]}`
	require.NoError(t, Decode([]byte(body), &req))

	require.NotNil(t, req.ActualTimeMinutes)
	assert.Equal(t, 45, *req.ActualTimeMinutes)
	assert.Equal(t, []domain.MetricInput{{Name: "views", Value: "120", Unit: "count"}}, req.MetricInputs())

	var negative CompleteTaskRequest
	err := Decode([]byte(`{"actual_time_minutes":-5}`), &negative)
	assert.Contains(t, err.Error(), "field actual_time_minutes failed min validation")
}

func TestWeekOfDate(t *testing.T) {
	assert.Nil(t, CreateTaskRequest{}.WeekOfDate())
	got := CreateTaskRequest{WeekOf: "2025-03-12"}.WeekOfDate()
	require.NotNil(t, got)
	assert.Equal(t, domain.MustParseDate("2025-03-12"), *got)
}

func TestJSONName(t *testing.T) {
	assert.Equal(t, "title", jsonName("Title"))
	assert.Equal(t, "actual_time_minutes", jsonName("ActualTimeMinutes"))
	assert.Equal(t, "week_of", jsonName("WeekOf"))
}
