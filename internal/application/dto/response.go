package dto

import (
	"time"
)

// TokenResponse represents the response from /api/v1/tokens/{tokenID}
// @Description Classification and price buffer of a single token
type TokenResponse struct {
	TokenID  string `json:"token_id" example:"71321045679252212594626385532706912750332728571942532289631379312455583992563"` // CLOB token id
	Category string `json:"category" example:"tennis" enums:"unclassified,tennis"`                                            // Category in the active snapshot
	IsTennis bool   `json:"is_tennis" example:"true"`                                                                         // Whether the token belongs to a tennis market
	Buffer   string `json:"buffer" example:"0.01"`                                                                            // Price buffer as an exact decimal string
	CycleID  string `json:"cycle_id,omitempty" example:"6f1c1f5e-8a53-4a4c-9f0c-3d0f6f2a9b11"`                                // Refresh cycle that built the snapshot
}

// SnapshotResponse represents the response from /api/v1/snapshot
// @Description Active snapshot statistics and refresh status
type SnapshotResponse struct {
	Size       int            `json:"size" example:"48210"`                                              // Number of classified tokens
	Categories map[string]int `json:"categories"`                                                        // Token count per category
	CycleID    string         `json:"cycle_id,omitempty" example:"6f1c1f5e-8a53-4a4c-9f0c-3d0f6f2a9b11"` // Cycle that built the snapshot
	Source     string         `json:"source,omitempty" example:"gamma"`                                  // Market source name
	BuiltAt    *time.Time     `json:"built_at,omitempty" example:"2024-06-01T10:30:00Z"`                 // When the snapshot was built
	Version    uint64         `json:"version" example:"12"`                                              // Number of swaps performed
	Refresh    *RefreshStatus `json:"refresh,omitempty"`                                                 // Scheduler status, absent for static handles
}

// RefreshStatus describes the refresh loop state
// @Description Refresh scheduler status
type RefreshStatus struct {
	Running             bool       `json:"running" example:"true"`
	Source              string     `json:"source" example:"gamma"`
	LastAttempt         *time.Time `json:"last_attempt,omitempty"`
	LastSuccess         *time.Time `json:"last_success,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures" example:"0"`
	Escalated           bool       `json:"escalated" example:"false"`
	LastError           string     `json:"last_error,omitempty"`
}

// RefreshResponse represents the response from POST /api/v1/refresh
// @Description Outcome of a forced refresh cycle
type RefreshResponse struct {
	CycleID        string  `json:"cycle_id" example:"6f1c1f5e-8a53-4a4c-9f0c-3d0f6f2a9b11"`
	Source         string  `json:"source" example:"gamma"`
	Trigger        string  `json:"trigger" example:"manual"`
	Installed      bool    `json:"installed" example:"true"`
	AcceptedShrink bool    `json:"accepted_shrink,omitempty" example:"false"`
	Records        int     `json:"records" example:"48350"`
	Skipped        int     `json:"skipped" example:"3"`
	Size           int     `json:"size" example:"48210"`
	TennisTokens   int     `json:"tennis_tokens" example:"1204"`
	PreviousSize   int     `json:"previous_size" example:"48190"`
	DurationMs     float64 `json:"duration_ms" example:"812.4"`
	Error          string  `json:"error,omitempty"`
}

// ErrorResponse represents a standard error response for endpoints
// @Description Standard error response for endpoints
type ErrorResponse struct {
	Error   string `json:"error" example:"INVALID_PARAMETER" validate:"required"` // Main error message
	Message string `json:"message,omitempty" example:"token id is required"`      // Detailed error description
	Code    string `json:"code,omitempty" example:"400"`                          // HTTP error code or internal code
}

// HealthResponse represents the health check response with service status
// @Description Health check response with service status
type HealthResponse struct {
	Status    string            `json:"status" example:"healthy" validate:"required" enums:"healthy,ready,degraded,not_ready"` // Overall service status
	Timestamp time.Time         `json:"timestamp" example:"2023-12-01T10:30:00Z" validate:"required"`                          // When the health check was performed
	Services  map[string]string `json:"services,omitempty" example:"snapshot:ready,scheduler:running"`                         // Individual service statuses
}

// NewErrorResponse creates a new error response
func NewErrorResponse(error string, message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   error,
		Message: message,
	}
}

// NewErrorResponseWithCode creates an error response with code
func NewErrorResponseWithCode(error string, message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:   error,
		Message: message,
		Code:    code,
	}
}

// NewHealthResponse creates a health check response
func NewHealthResponse(status string, services map[string]string) *HealthResponse {
	return &HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
	}
}
