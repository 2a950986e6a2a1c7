package engine

// Notification is a non-fatal, user-facing message describing an automatic
// correction applied to malformed request input. Notifications accumulate
// across the interpreter pipeline and are attached to success responses only;
// an error response never carries them.
type Notification struct {
	Type    string `json:"type"` // "info", "warning" or "success"
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

const NoticeWarning = "warning"

func warning(field, message string) Notification {
	return Notification{Type: NoticeWarning, Message: message, Field: field}
}
