package transport

import (
	"encoding/json"

	"github.com/fastygo/habitflow/domain"
)

// Envelope wraps every API response, successful or not.
type Envelope struct {
	Status string     `json:"status"`
	Code   string     `json:"code,omitempty"`
	Data   any        `json:"data,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
	Meta   any        `json:"meta,omitempty"`
}

// ErrorBody is the client-facing part of a failed request.
type ErrorBody struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func NewSuccess(data any) Envelope {
	return Envelope{Status: "success", Data: data}
}

func NewError(code domain.ErrorCode, message string) Envelope {
	return Envelope{
		Status: "error",
		Code:   string(code),
		Error:  &ErrorBody{Message: message},
	}
}

// WithMeta attaches out-of-band data such as dependency status.
func (e Envelope) WithMeta(meta any) Envelope {
	e.Meta = meta
	return e
}

// WithRequestID lets clients quote the failing request when reporting it.
func (e Envelope) WithRequestID(id string) Envelope {
	if e.Error != nil && id != "" {
		body := *e.Error
		body.RequestID = id
		e.Error = &body
	}
	return e
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
