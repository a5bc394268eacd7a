package model

import "time"

// Post statuses. Only published posts accept votes.
const (
	PostDraft     = "draft"
	PostPublished = "published"
	PostArchived  = "archived"
)

// Post holds the score-relevant fields of a post. Score, Upvotes and
// Downvotes are a cache of the vote ledger.
type Post struct {
	ID        string     `json:"id"`
	AuthorID  string     `json:"authorId"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	Score     float64    `json:"score"`
	Upvotes   int        `json:"upvotes"`
	Downvotes int        `json:"downvotes"`
	ScoredAt  *time.Time `json:"scoredAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Tally is the aggregate of a post's current votes.
type Tally struct {
	Score     float64
	Upvotes   int
	Downvotes int
}

// TallyVotes folds a vote set into a Tally.
func TallyVotes(votes []Vote) Tally {
	var t Tally
	for _, v := range votes {
		t.Score += v.Signed()
		if v.Direction == Downvote {
			t.Downvotes++
		} else {
			t.Upvotes++
		}
	}
	return t
}

// ScoreResponse is the API response for post score lookups.
type ScoreResponse struct {
	PostID string  `json:"postId"`
	Score  float64 `json:"score"`
}
