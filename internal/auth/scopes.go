package auth

// Known OAuth scopes used by the time tracking endpoints.
const (
	ScopeTimeTrackingRead  = "time-tracking:read"
	ScopeTimeTrackingWrite = "time-tracking:write"
	// ScopeTimeTrackingAll grants cross-employee visibility: without it every
	// query and ingestion collapses to the caller's own employee.
	ScopeTimeTrackingAll = "time-tracking:all"
)
