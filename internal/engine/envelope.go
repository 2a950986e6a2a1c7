package engine

import "resource-backend/internal/metadata"

// Envelope is the uniform top-level wrapper for single-item and delete
// responses, and for every error response. Notifications and Error are
// mutually exclusive: a corrected-input notification only ever rides on a
// success envelope.
type Envelope struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	Data          any            `json:"data,omitempty"`
	Notifications []Notification `json:"notifications,omitempty"`
	Error         *ErrorBody     `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details"`
}

// ListEnvelope is the wrapper for list responses. The metadata keys are
// always present, null when not negotiated, so clients can rely on the shape.
type ListEnvelope struct {
	Success       bool                   `json:"success"`
	Message       string                 `json:"message"`
	Data          []map[string]any       `json:"data"`
	Pagination    *PageInfo              `json:"pagination"`
	Search        *string                `json:"search"`
	Sort          *Sort                  `json:"sort"`
	Filters       *FilterMeta            `json:"filters"`
	Schema        []metadata.SchemaGroup `json:"schema"`
	Columns       []metadata.Column      `json:"columns"`
	Notifications []Notification         `json:"notifications,omitempty"`
}

// SuccessEnvelope wraps a single record.
func SuccessEnvelope(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

// DeleteEnvelope is the minimal success shape: no data, no metadata.
func DeleteEnvelope(message string) Envelope {
	return Envelope{Success: true, Message: message}
}

// ErrorEnvelope converts a typed error into the terminal error shape.
// Details is always an object or array, never a stack trace or driver text.
func ErrorEnvelope(appErr *AppError) Envelope {
	details := appErr.Details
	if details == nil {
		details = map[string]any{}
	}
	return Envelope{
		Success: false,
		Message: appErr.Message,
		Error: &ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	}
}

// NewListEnvelope assembles the list success shape from query results,
// pagination and composed metadata.
func NewListEnvelope(message string, data []map[string]any, page *PageInfo, meta ListMetadata, notes []Notification) ListEnvelope {
	if data == nil {
		data = []map[string]any{}
	}
	return ListEnvelope{
		Success:       true,
		Message:       message,
		Data:          data,
		Pagination:    page,
		Search:        meta.Search,
		Sort:          meta.Sort,
		Filters:       meta.Filters,
		Schema:        meta.Schema,
		Columns:       meta.Columns,
		Notifications: notes,
	}
}
