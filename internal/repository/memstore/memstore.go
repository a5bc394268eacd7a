// Package memstore is an in-memory implementation of every store interface
// the services depend on. It backs tests and local runs without PostgreSQL.
package memstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/inkraft/inkraft-go/internal/model"
	"github.com/inkraft/inkraft-go/internal/repository"
)

type voteKey struct {
	postID string
	userID string
}

// Store implements the vote, post, user, alert and moderation stores using
// maps guarded by one mutex, so multi-record operations are atomic.
type Store struct {
	mu         sync.RWMutex
	users      map[string]model.User
	posts      map[string]model.Post
	votes      map[voteKey]model.Vote
	alerts     map[string]model.AdminAlert
	moderation []model.ModerationEntry

	// Fail, when set, is returned by every call. Tests use it to simulate a
	// storage outage.
	Fail error
}

// New constructs an empty store.
func New() *Store {
	return &Store{
		users:  make(map[string]model.User),
		posts:  make(map[string]model.Post),
		votes:  make(map[voteKey]model.Vote),
		alerts: make(map[string]model.AdminAlert),
	}
}

func (s *Store) fail() error {
	if s.Fail != nil {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, s.Fail)
	}
	return nil
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// PutPost inserts or replaces a post.
func (s *Store) PutPost(p model.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.ID] = p
}

// PutVote inserts or replaces a ledger entry directly, bypassing the
// uniqueness check.
func (s *Store) PutVote(v model.Vote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes[voteKey{v.PostID, v.UserID}] = v
}

// VoteCount returns the number of ledger entries for (postID, userID); an
// empty userID counts every entry on the post.
func (s *Store) VoteCount(postID, userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k := range s.votes {
		if k.postID == postID && (userID == "" || k.userID == userID) {
			n++
		}
	}
	return n
}

// --- votes ---

func (s *Store) GetVote(_ context.Context, postID, userID string) (*model.Vote, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.votes[voteKey{postID, userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (s *Store) InsertVote(_ context.Context, v *model.Vote) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[v.PostID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.users[v.UserID]; !ok {
		return repository.ErrNotFound
	}
	k := voteKey{v.PostID, v.UserID}
	if _, ok := s.votes[k]; ok {
		return fmt.Errorf("%w: votes_post_id_user_id_key", repository.ErrConflict)
	}
	now := time.Now()
	v.CreatedAt, v.UpdatedAt = now, now
	s.votes[k] = *v
	return nil
}

func (s *Store) UpdateVote(_ context.Context, v *model.Vote) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := voteKey{v.PostID, v.UserID}
	existing, ok := s.votes[k]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Direction = v.Direction
	existing.Weight = v.Weight
	existing.UpdatedAt = time.Now()
	s.votes[k] = existing
	*v = existing
	return nil
}

func (s *Store) DeleteVote(_ context.Context, postID, userID string) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := voteKey{postID, userID}
	if _, ok := s.votes[k]; !ok {
		return repository.ErrNotFound
	}
	delete(s.votes, k)
	return nil
}

func (s *Store) CountVotesSince(_ context.Context, postID string, since time.Time) (int, error) {
	if err := s.fail(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k, v := range s.votes {
		if k.postID == postID && v.UpdatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

// --- posts ---

func (s *Store) GetPost(_ context.Context, postID string) (*model.Post, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *Store) votesFor(postID string) []model.Vote {
	var out []model.Vote
	for k, v := range s.votes {
		if k.postID == postID {
			out = append(out, v)
		}
	}
	return out
}

func (s *Store) TallyPost(_ context.Context, postID string) (model.Tally, error) {
	if err := s.fail(); err != nil {
		return model.Tally{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.TallyVotes(s.votesFor(postID)), nil
}

func (s *Store) SavePostScore(_ context.Context, postID string, t model.Tally, at time.Time) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Score, p.Upvotes, p.Downvotes = t.Score, t.Upvotes, t.Downvotes
	p.ScoredAt = &at
	s.posts[postID] = p
	return nil
}

func (s *Store) ListDriftedPosts(_ context.Context, limit int) ([]string, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, p := range s.posts {
		t := model.TallyVotes(s.votesFor(id))
		if math.Abs(p.Score-t.Score) > 1e-9 || p.Upvotes != t.Upvotes || p.Downvotes != t.Downvotes {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// --- users ---

func (s *Store) GetUser(_ context.Context, userID string) (*model.User, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) ListTrustInputs(_ context.Context) ([]model.TrustInputs, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.TrustInputs
	for _, u := range s.users {
		if u.TrustFrozen {
			continue
		}
		in := model.TrustInputs{UserID: u.ID, CreatedAt: u.CreatedAt}
		for k := range s.votes {
			if k.userID == u.ID {
				in.VotesCast++
			}
		}
		for _, p := range s.posts {
			if p.AuthorID == u.ID && p.Status == model.PostPublished {
				in.PublishedPosts++
				in.NetKarma += p.Score
			}
		}
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) SetTrustScore(_ context.Context, userID string, score float64) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.TrustFrozen {
		return nil
	}
	u.TrustScore = score
	s.users[userID] = u
	return nil
}

// --- moderation ---

func (s *Store) NullifyVotes(_ context.Context, scope model.NullifyScope, entry model.ModerationEntry) (int, error) {
	if err := s.fail(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[scope.PostID]; !ok {
		return 0, repository.ErrNotFound
	}
	n := 0
	for k := range s.votes {
		if k.postID == scope.PostID && (scope.UserID == "" || k.userID == scope.UserID) {
			delete(s.votes, k)
			n++
		}
	}
	entry.AffectedCount = n
	s.moderation = append(s.moderation, entry)
	return n, nil
}

func (s *Store) FreezeTrust(_ context.Context, userID string, f model.TrustFreeze, entry model.ModerationEntry) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	at, by, reason := f.FrozenAt, f.FrozenBy, f.Reason
	u.TrustFrozen = true
	u.TrustFrozenAt, u.TrustFrozenBy, u.TrustFrozenReason = &at, &by, &reason
	s.users[userID] = u
	entry.AffectedCount = 1
	s.moderation = append(s.moderation, entry)
	return nil
}

func (s *Store) UnfreezeTrust(_ context.Context, userID string, entry model.ModerationEntry) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.TrustFrozen = false
	u.TrustFrozenAt, u.TrustFrozenBy, u.TrustFrozenReason = nil, nil, nil
	s.users[userID] = u
	entry.AffectedCount = 1
	s.moderation = append(s.moderation, entry)
	return nil
}

func (s *Store) ListModeration(_ context.Context, filter model.ModerationFilter) ([]model.ModerationEntry, int, error) {
	if err := s.fail(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []model.ModerationEntry{}
	for i := len(s.moderation) - 1; i >= 0; i-- {
		e := s.moderation[i]
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.PostID != "" && (e.TargetPostID == nil || *e.TargetPostID != filter.PostID) {
			continue
		}
		if filter.UserID != "" && (e.TargetUserID == nil || *e.TargetUserID != filter.UserID) {
			continue
		}
		matched = append(matched, e)
	}
	return paginate(matched, filter.Page, filter.Limit), len(matched), nil
}

// --- alerts ---

func (s *Store) InsertAlert(_ context.Context, a *model.AdminAlert) error {
	if err := s.fail(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[a.ID]; ok {
		return repository.ErrConflict
	}
	s.alerts[a.ID] = *a
	return nil
}

func (s *Store) ListAlerts(_ context.Context, filter model.AlertFilter) ([]model.AdminAlert, int, error) {
	if err := s.fail(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []model.AdminAlert{}
	for _, a := range s.alerts {
		if filter.Status == model.AlertStatusPending && a.Resolved {
			continue
		}
		if filter.Status == model.AlertStatusResolved && !a.Resolved {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		matched = append(matched, a)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return paginate(matched, filter.Page, filter.Limit), len(matched), nil
}

func (s *Store) ResolveAlert(_ context.Context, alertID, actorID string, at time.Time) (*model.AdminAlert, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[alertID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if a.Resolved {
		return nil, fmt.Errorf("%w: alert already resolved", repository.ErrConflict)
	}
	a.Resolved = true
	a.ResolvedAt, a.ResolvedBy = &at, &actorID
	s.alerts[alertID] = a
	return &a, nil
}

func (s *Store) HasOpenAlert(_ context.Context, alertType, postID string) (bool, error) {
	if err := s.fail(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.alerts {
		if a.Type == alertType && !a.Resolved && a.Metadata["postId"] == postID {
			return true, nil
		}
	}
	return false, nil
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if limit <= 0 || start < 0 || start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
