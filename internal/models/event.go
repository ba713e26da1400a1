package models

import "time"

// Event types recorded in the audit log.
const (
	EventUserSignup    = "user.signup"
	EventLoginFailed   = "user.login.fail"
	EventRenderSuccess = "image.render.success"
	EventRenderFailure = "image.render.fail"
	EventImagesPruned  = "image.prune"
)

// Event represents a loggable action in the system.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "user.signup", "image.render.fail"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	Username  *string   `json:"username,omitempty"` // Nullable for anonymous events
	CreatedAt time.Time `json:"created_at"`
}
