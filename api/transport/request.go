package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fastygo/habitflow/domain"
)

// Validate is the shared validator for request payloads.
var Validate *validator.Validate

func init() {
	Validate = validator.New()
	if err := Validate.RegisterValidation("priority", validatePriority); err != nil {
		panic(fmt.Sprintf("failed to register priority validator: %v", err))
	}
	if err := Validate.RegisterValidation("isodate", validateISODate); err != nil {
		panic(fmt.Sprintf("failed to register isodate validator: %v", err))
	}
}

type OnboardRequest struct {
	Email       string            `json:"email" validate:"omitempty,email,max=320"`
	DisplayName string            `json:"display_name" validate:"max=120"`
	Metadata    map[string]string `json:"metadata"`
}

type CreateTaskRequest struct {
	Title             string `json:"title" validate:"required,max=200"`
	Description       string `json:"description" validate:"max=4000"`
	Category          string `json:"category" validate:"max=64"`
	Priority          string `json:"priority" validate:"omitempty,priority"`
	EstimatedDuration string `json:"estimated_duration" validate:"max=64"`
	WeekOf            string `json:"week_of" validate:"omitempty,isodate"`
}

type StartTaskRequest struct {
	SuggestedApproach string `json:"suggested_approach" validate:"max=4000"`
	AcceptedApproach  bool   `json:"accepted_approach"`
	UserApproach      string `json:"user_approach" validate:"max=4000"`
}

type MetricRequest struct {
	Name  string `json:"name" validate:"max=64"`
	Value string `json:"value" validate:"max=64"`
	Unit  string `json:"unit" validate:"max=32"`
}

type CompleteTaskRequest struct {
	ResultNotes       string          `json:"result_notes" validate:"max=8000"`
	Metrics           []MetricRequest `json:"metrics" validate:"max=50,dive"`
	ActualTimeMinutes *int            `json:"actual_time_minutes" validate:"omitempty,min=1,max=10080"`
}

// Decode unmarshals body into dst and validates it. An empty body decodes as the zero value.
func Decode(body []byte, dst any) error {
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, dst); err != nil {
			return domain.NewValidationError("invalid payload: %v", err)
		}
	}
	if err := Validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return domain.NewValidationError("field %s failed %s validation", jsonName(fe.Field()), fe.Tag())
		}
		return domain.NewValidationError("invalid payload: %v", err)
	}
	return nil
}

// WeekOfDate parses the optional week_of field.
func (r CreateTaskRequest) WeekOfDate() *domain.Date {
	if r.WeekOf == "" {
		return nil
	}
	d, err := domain.ParseDate(r.WeekOf)
	if err != nil {
		return nil
	}
	return &d
}

// MetricInputs converts the request rows for the controller.
func (r CompleteTaskRequest) MetricInputs() []domain.MetricInput {
	if len(r.Metrics) == 0 {
		return nil
	}
	out := make([]domain.MetricInput, 0, len(r.Metrics))
	for _, m := range r.Metrics {
		out = append(out, domain.MetricInput{Name: m.Name, Value: m.Value, Unit: m.Unit})
	}
	return out
}

func validatePriority(fl validator.FieldLevel) bool {
	_, err := domain.ParsePriority(fl.Field().String())
	return err == nil
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := domain.ParseDate(fl.Field().String())
	return err == nil
}

// jsonName turns a Go field name into the snake_case key clients send.
func jsonName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
