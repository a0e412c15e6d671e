package constants

// HTTP header and gin context keys
const (
	HeaderAuthorization = "Authorization"
	ContextKeyUser      = "user"

	ResponseError = "error"
	FieldMessage  = "message"
)

// Environment variable names
const (
	EnvPort               = "PORT"
	EnvJWTSecret          = "JWT_SECRET"
	EnvDBHost             = "DB_HOST"
	EnvDBPort             = "DB_PORT"
	EnvDBUser             = "DB_USER"
	EnvDBPassword         = "DB_PASSWORD"
	EnvDBDatabase         = "DB_DATABASE"
	EnvEscalationInterval = "ESCALATION_INTERVAL_MINUTES"
)
