package model

import "time"

// Alert types.
const (
	AlertCategoryRequest    = "category_request"
	AlertVoteFraudSuspected = "vote_fraud_suspected"
)

// Alert severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Alert status filters.
const (
	AlertStatusPending  = "pending"
	AlertStatusResolved = "resolved"
	AlertStatusAll      = "all"
)

// AdminAlert is an append-only record flagged for moderator review.
type AdminAlert struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Severity     string         `json:"severity"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	TargetUserID *string        `json:"targetUserId,omitempty"`
	Metadata     map[string]any `json:"metadata"`
	Resolved     bool           `json:"resolved"`
	ResolvedAt   *time.Time     `json:"resolvedAt,omitempty"`
	ResolvedBy   *string        `json:"resolvedBy,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// AlertInput describes an alert to raise.
type AlertInput struct {
	Type         string         `validate:"required,oneof=category_request vote_fraud_suspected"`
	Severity     string         `validate:"required,oneof=low medium high critical"`
	Title        string         `validate:"required,max=200"`
	Description  string         `validate:"max=2000"`
	TargetUserID string         `validate:"omitempty,uuid"`
	Metadata     map[string]any `validate:"-"`
}

// AlertFilter selects a page of alerts.
type AlertFilter struct {
	Status string
	Type   string
	Page   int
	Limit  int
}

// AlertPage is a page of alerts, newest first.
type AlertPage struct {
	Alerts     []AdminAlert `json:"alerts"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	Total      int          `json:"total"`
	TotalPages int          `json:"totalPages"`
}

// CategoryRequest is the body of POST /api/categories/requests.
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Description string `json:"description" validate:"max=500"`
}
