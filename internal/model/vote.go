package model

import "time"

// Direction is the polarity of a vote.
type Direction string

const (
	Upvote   Direction = "upvote"
	Downvote Direction = "downvote"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Upvote || d == Downvote
}

// Vote weight bounds. New votes carry the caster's trust-derived weight.
const (
	MinVoteWeight     = 0.5
	MaxVoteWeight     = 2.0
	DefaultVoteWeight = 1.0
)

// Vote is one ledger entry. There is at most one per (PostID, UserID).
type Vote struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Direction Direction `json:"direction"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Signed returns the vote's contribution to a post score.
func (v Vote) Signed() float64 {
	if v.Direction == Downvote {
		return -v.Weight
	}
	return v.Weight
}

// VoteRequest is the API request body for casting a vote.
type VoteRequest struct {
	Direction Direction `json:"direction" validate:"required,oneof=upvote downvote"`
}

// CastResult is the outcome of a vote cast. CurrentDirection is empty when
// the cast toggled an existing vote off.
type CastResult struct {
	Accepted         bool      `json:"accepted"`
	CurrentDirection Direction `json:"currentDirection"`
	CurrentWeight    float64   `json:"currentWeight"`
	Score            float64   `json:"score"`
}
