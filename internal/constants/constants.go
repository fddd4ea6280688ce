package constants

import "time"

// Gin context keys
const (
	ContextKeyUserID = "user_id"
)

const (
	// ClerkEventPrefix namespaces identity provider events inside the workflow engine.
	ClerkEventPrefix = "clerk/"

	// EventTaskAssigned is emitted after a task has been created.
	EventTaskAssigned = "app/task.assigned"
)

const (
	MaxAIGeneratedTasks = 20
	MaxBulkDeleteTasks  = 100
	MaxCommentLength    = 5000
)

// WebhookTolerance bounds the clock skew accepted on signed webhook deliveries.
const WebhookTolerance = 5 * time.Minute

// WebhookDedupeTTL is how long a delivery id is remembered.
const WebhookDedupeTTL = 24 * time.Hour
