package constants

// Session
const (
	SessionCookieName = "stockinfo_session"
	ContextKeyUserID  = "user_id"
	ContextKeyRole    = "user_role"

	// SessionMaxAge is the session TTL in seconds (1 day).
	SessionMaxAge = 86400
)

// Context keys set by resource-access middleware
const (
	ContextKeyPortfolio = "portfolio"
)

// Validation
const (
	MinPasswordLength = 8
	MaxSymbolLength   = 10
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
