package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware/auth.go keys)
	FieldUserID   = "user_id"
	FieldUsername = "username"
	FieldActorID  = "actor_id"

	// Service
	FieldService = "service"

	// Relation
	FieldRelation  = "relation"
	FieldDirection = "direction"
	FieldTargetID  = "target_id"
	FieldCacheKey  = "cache_key"
	FieldEvent     = "event"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
