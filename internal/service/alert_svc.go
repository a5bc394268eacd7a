package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/inkraft/inkraft-go/internal/metrics"
	"github.com/inkraft/inkraft-go/internal/model"
	"github.com/inkraft/inkraft-go/internal/validation"
)

// AlertService records events that need a moderator's attention. Alerts are
// append-only; the only mutation is the one-way pending -> resolved step.
type AlertService struct {
	store   AlertStore
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

func NewAlertService(store AlertStore, m *metrics.Metrics, log zerolog.Logger) *AlertService {
	return &AlertService{store: store, metrics: m, log: log, now: time.Now}
}

// Raise appends an alert and returns its id.
func (s *AlertService) Raise(ctx context.Context, in model.AlertInput) (string, error) {
	if err := validation.Struct(in); err != nil {
		return "", invalidInput(validation.Message(err))
	}

	a := &model.AdminAlert{
		ID:          uuid.NewString(),
		Type:        in.Type,
		Severity:    in.Severity,
		Title:       in.Title,
		Description: in.Description,
		Metadata:    in.Metadata,
		CreatedAt:   s.now(),
	}
	if a.Metadata == nil {
		a.Metadata = map[string]any{}
	}
	if in.TargetUserID != "" {
		target := in.TargetUserID
		a.TargetUserID = &target
	}

	if err := s.store.InsertAlert(ctx, a); err != nil {
		return "", errors.Wrap(err, "insert alert")
	}
	s.metrics.AlertRaised(a.Type)

	s.log.Info().Str("alertId", a.ID).Str("type", a.Type).Str("severity", a.Severity).Msg("alert raised")
	return a.ID, nil
}

// List returns a page of alerts for an admin.
func (s *AlertService) List(ctx context.Context, actor *model.Identity, filter model.AlertFilter) (*model.AlertPage, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	switch filter.Status {
	case "", model.AlertStatusAll:
		filter.Status = model.AlertStatusAll
	case model.AlertStatusPending, model.AlertStatusResolved:
	default:
		return nil, invalidInput("status must be pending, resolved or all")
	}
	var err error
	if filter.Page, filter.Limit, err = normalizePage(filter.Page, filter.Limit); err != nil {
		return nil, err
	}

	alerts, total, err := s.store.ListAlerts(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "list alerts")
	}
	return &model.AlertPage{
		Alerts:     alerts,
		Page:       filter.Page,
		Limit:      filter.Limit,
		Total:      total,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

// Resolve marks a pending alert resolved. Resolving twice is a conflict.
func (s *AlertService) Resolve(ctx context.Context, actor *model.Identity, alertID string) (*model.AdminAlert, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	a, err := s.store.ResolveAlert(ctx, alertID, actor.ID, s.now())
	if err != nil {
		return nil, errors.Wrapf(err, "resolve alert %s", alertID)
	}
	s.log.Info().Str("alertId", alertID).Str("actorId", actor.ID).Msg("alert resolved")
	return a, nil
}

// RequestCategory files a user's request for a new post category as an
// alert for the admins.
func (s *AlertService) RequestCategory(ctx context.Context, actor *model.Identity, req model.CategoryRequest) (string, error) {
	if actor == nil || actor.ID == "" {
		return "", ErrUnauthenticated
	}
	name := strings.TrimSpace(req.Name)
	return s.Raise(ctx, model.AlertInput{
		Type:         model.AlertCategoryRequest,
		Severity:     model.SeverityLow,
		Title:        fmt.Sprintf("New category requested: %s", name),
		Description:  strings.TrimSpace(req.Description),
		TargetUserID: actor.ID,
		Metadata: map[string]any{
			"categoryName": name,
		},
	})
}

// FraudDetector raises a vote_fraud_suspected alert when a post receives
// Threshold or more votes within Window. One open alert per post at a time.
type FraudDetector struct {
	votes     VoteStore
	alerts    AlertStore
	raiser    *AlertService
	window    time.Duration
	threshold int
	log       zerolog.Logger
	now       func() time.Time
}

func NewFraudDetector(votes VoteStore, alerts AlertStore, raiser *AlertService, window time.Duration, threshold int, log zerolog.Logger) *FraudDetector {
	return &FraudDetector{
		votes:     votes,
		alerts:    alerts,
		raiser:    raiser,
		window:    window,
		threshold: threshold,
		log:       log,
		now:       time.Now,
	}
}

// Inspect checks the post's recent vote volume. Failures are logged and never
// reach the caller: detection must not block voting.
func (d *FraudDetector) Inspect(ctx context.Context, postID string) {
	if d.threshold <= 0 {
		return
	}
	n, err := d.votes.CountVotesSince(ctx, postID, d.now().Add(-d.window))
	if err != nil {
		d.log.Warn().Err(err).Str("postId", postID).Msg("fraud: count recent votes failed")
		return
	}
	if n < d.threshold {
		return
	}

	open, err := d.alerts.HasOpenAlert(ctx, model.AlertVoteFraudSuspected, postID)
	if err != nil {
		d.log.Warn().Err(err).Str("postId", postID).Msg("fraud: open alert lookup failed")
		return
	}
	if open {
		return
	}

	_, err = d.raiser.Raise(ctx, model.AlertInput{
		Type:     model.AlertVoteFraudSuspected,
		Severity: model.SeverityHigh,
		Title:    "Unusual voting activity on post",
		Description: fmt.Sprintf("Post received %d votes within %s (threshold %d).",
			n, d.window, d.threshold),
		Metadata: map[string]any{
			"postId":        postID,
			"votesInWindow": n,
			"windowSeconds": int(d.window.Seconds()),
		},
	})
	if err != nil {
		d.log.Error().Err(err).Str("postId", postID).Msg("fraud: raise alert failed")
	}
}
