package api

// Error codes produced by the HTTP layer itself.
const (
	codeRateLimited = "RATE_LIMITED"
	codeUnavailable = "UNAVAILABLE"
)

const requestIDHeader = "X-Request-Id"

// Health statuses.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)
