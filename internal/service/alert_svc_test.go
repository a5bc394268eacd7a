package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/inkraft/inkraft-go/internal/model"
	"github.com/inkraft/inkraft-go/internal/repository"
)

func TestRequestCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.alerts.RequestCategory(ctx, actorA, model.CategoryRequest{Name: "  Rust  ", Description: "Systems posts"})
	if err != nil {
		t.Fatalf("RequestCategory: %v", err)
	}
	if id == "" {
		t.Fatal("RequestCategory returned an empty id")
	}

	page, err := f.alerts.List(ctx, admin, model.AlertFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("alerts = %d, want 1", page.Total)
	}
	a := page.Alerts[0]
	if a.ID != id || a.Type != model.AlertCategoryRequest || a.Severity != model.SeverityLow || a.Resolved {
		t.Errorf("alert = %+v", a)
	}
	if a.Title != "New category requested: Rust" || a.Metadata["categoryName"] != "Rust" {
		t.Errorf("alert title/metadata = %q / %v", a.Title, a.Metadata)
	}
	if a.TargetUserID == nil || *a.TargetUserID != userA {
		t.Errorf("alert target = %v, want %s", a.TargetUserID, userA)
	}
	if got := testutil.ToFloat64(f.metrics.AlertsRaised.WithLabelValues(model.AlertCategoryRequest)); got != 1 {
		t.Errorf("alerts raised metric = %v, want 1", got)
	}

	if _, err := f.alerts.RequestCategory(ctx, nil, model.CategoryRequest{Name: "Go"}); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("RequestCategory without session error = %v, want ErrUnauthenticated", err)
	}
}

func TestRaiseValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	valid := model.AlertInput{Type: model.AlertCategoryRequest, Severity: model.SeverityLow, Title: "ok"}

	tests := []struct {
		name   string
		mutate func(*model.AlertInput)
	}{
		{"unknown type", func(in *model.AlertInput) { in.Type = "spam" }},
		{"unknown severity", func(in *model.AlertInput) { in.Severity = "urgent" }},
		{"missing title", func(in *model.AlertInput) { in.Title = "" }},
		{"title too long", func(in *model.AlertInput) { in.Title = strings.Repeat("x", 201) }},
		{"target not a uuid", func(in *model.AlertInput) { in.TargetUserID = "alice" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			if _, err := f.alerts.Raise(ctx, in); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Raise error = %v, want ErrInvalidInput", err)
			}
		})
	}

	if _, err := f.alerts.Raise(ctx, valid); err != nil {
		t.Errorf("Raise(valid): %v", err)
	}
}

func TestListAlerts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 25; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		f.alerts.now = func() time.Time { return at }
		id, err := f.alerts.Raise(ctx, model.AlertInput{
			Type:     model.AlertCategoryRequest,
			Severity: model.SeverityLow,
			Title:    fmt.Sprintf("request %d", i),
		})
		if err != nil {
			t.Fatalf("Raise %d: %v", i, err)
		}
		ids = append(ids, id)
	}
	for _, id := range ids[:5] {
		if _, err := f.alerts.Resolve(ctx, admin, id); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
	}

	tests := []struct {
		name      string
		filter    model.AlertFilter
		wantLen   int
		wantTotal int
		wantPages int
		wantFirst string
	}{
		{"defaults", model.AlertFilter{}, 20, 25, 2, "request 24"},
		{"second page", model.AlertFilter{Page: 2}, 5, 25, 2, "request 4"},
		{"pending", model.AlertFilter{Status: model.AlertStatusPending, Limit: 100}, 20, 20, 1, "request 24"},
		{"resolved", model.AlertFilter{Status: model.AlertStatusResolved}, 5, 5, 1, "request 4"},
		{"by type", model.AlertFilter{Type: model.AlertVoteFraudSuspected}, 0, 0, 0, ""},
		{"limit capped", model.AlertFilter{Limit: 500}, 25, 25, 1, "request 24"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.alerts.List(ctx, admin, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(page.Alerts) != tt.wantLen || page.Total != tt.wantTotal || page.TotalPages != tt.wantPages {
				t.Errorf("page = {len %d, total %d, pages %d}, want {%d, %d, %d}",
					len(page.Alerts), page.Total, page.TotalPages, tt.wantLen, tt.wantTotal, tt.wantPages)
			}
			if tt.wantFirst != "" && len(page.Alerts) > 0 && page.Alerts[0].Title != tt.wantFirst {
				t.Errorf("first alert = %q, want %q", page.Alerts[0].Title, tt.wantFirst)
			}
		})
	}

	if _, err := f.alerts.List(ctx, admin, model.AlertFilter{Page: math.MaxInt, Limit: 100}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("List(huge page) error = %v, want ErrInvalidInput", err)
	}
	if _, err := f.alerts.List(ctx, admin, model.AlertFilter{Status: "open"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("List(bad status) error = %v, want ErrInvalidInput", err)
	}
	if _, err := f.alerts.List(ctx, actorA, model.AlertFilter{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("List(non-admin) error = %v, want ErrForbidden", err)
	}
}

func TestResolveAlert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.alerts.RequestCategory(ctx, actorB, model.CategoryRequest{Name: "Databases"})
	if err != nil {
		t.Fatalf("RequestCategory: %v", err)
	}

	if _, err := f.alerts.Resolve(ctx, actorB, id); !errors.Is(err, ErrForbidden) {
		t.Errorf("Resolve(non-admin) error = %v, want ErrForbidden", err)
	}

	a, err := f.alerts.Resolve(ctx, admin, id)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !a.Resolved || a.ResolvedBy == nil || *a.ResolvedBy != adminID || a.ResolvedAt == nil {
		t.Errorf("resolved alert = %+v", a)
	}

	if _, err := f.alerts.Resolve(ctx, admin, id); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("second Resolve error = %v, want ErrConflict", err)
	}
	if _, err := f.alerts.Resolve(ctx, admin, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Resolve(missing) error = %v, want ErrNotFound", err)
	}
}
