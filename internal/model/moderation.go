package model

import "time"

// Moderation actions recorded in the audit trail.
const (
	ActionNullifyVotes  = "nullify_votes"
	ActionFreezeTrust   = "freeze_trust"
	ActionUnfreezeTrust = "unfreeze_trust"
)

// ModerationEntry is one audit-trail record of an admin action.
type ModerationEntry struct {
	ID            string    `json:"id"`
	Action        string    `json:"action"`
	ActorID       string    `json:"actorId"`
	TargetPostID  *string   `json:"targetPostId,omitempty"`
	TargetUserID  *string   `json:"targetUserId,omitempty"`
	Reason        string    `json:"reason"`
	AffectedCount int       `json:"affectedCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NullifyScope selects the votes a nullification removes. An empty UserID
// selects every vote on the post.
type NullifyScope struct {
	PostID string
	UserID string
}

// NullifyRequest is the body of DELETE /api/admin/posts/:id/votes.
type NullifyRequest struct {
	Reason string `json:"reason" validate:"max=500"`
	UserID string `json:"userId" validate:"omitempty,uuid"`
}

// NullifyResponse reports how many votes a nullification removed.
type NullifyResponse struct {
	Success        bool `json:"success"`
	NullifiedCount int  `json:"nullifiedCount"`
}

// ModerationFilter selects a page of audit entries.
type ModerationFilter struct {
	Action string
	PostID string
	UserID string
	Page   int
	Limit  int
}

// ModerationPage is a page of audit entries, newest first.
type ModerationPage struct {
	Entries    []ModerationEntry `json:"entries"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	Total      int               `json:"total"`
	TotalPages int               `json:"totalPages"`
}
