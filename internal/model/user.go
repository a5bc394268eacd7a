package model

import "time"

// Roles understood by the session provider.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Trust score bounds. Users start at the neutral score.
const (
	MinTrustScore     = 0.0
	MaxTrustScore     = 100.0
	DefaultTrustScore = 50.0
)

// User holds the trust-relevant fields of an Inkraft account.
type User struct {
	ID                string     `json:"id"`
	Username          string     `json:"username"`
	Role              string     `json:"role"`
	TrustScore        float64    `json:"trustScore"`
	TrustFrozen       bool       `json:"trustFrozen"`
	TrustFrozenAt     *time.Time `json:"trustFrozenAt,omitempty"`
	TrustFrozenBy     *string    `json:"trustFrozenBy,omitempty"`
	TrustFrozenReason *string    `json:"trustFrozenReason,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// TrustFreeze carries the audit stamp written when trust is frozen.
type TrustFreeze struct {
	FrozenAt time.Time
	FrozenBy string
	Reason   string
}

// TrustInputs are the activity figures the trust score is derived from.
type TrustInputs struct {
	UserID         string
	CreatedAt      time.Time
	VotesCast      int
	PublishedPosts int
	NetKarma       float64
}

// TrustResponse is the API response for a user's trust state.
type TrustResponse struct {
	UserID      string  `json:"userId"`
	TrustScore  float64 `json:"trustScore"`
	TrustFrozen bool    `json:"trustFrozen"`
	VoteWeight  float64 `json:"voteWeight"`
}

// TrustActionRequest is the body of PATCH /api/admin/users/:id/trust.
type TrustActionRequest struct {
	Action string `json:"action" validate:"required"`
	Reason string `json:"reason" validate:"max=500"`
}

// Identity is the acting user as resolved from the session.
type Identity struct {
	ID   string
	Role string
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
