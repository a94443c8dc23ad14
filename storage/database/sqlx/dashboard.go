package sqlxstore

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-dashboard/core"
	"github.com/trezcool/masomo-dashboard/core/dashboard"
)

var (
	metricsOrdering      = core.DBOrdering{Field: "position", Ascending: true}
	workItemsOrdering    = core.DBOrdering{Field: "due_at", Ascending: true}
	activityOrdering     = core.DBOrdering{Field: "occurred_at"}
	announcementOrdering = core.DBOrdering{Field: "published_at"}
)

type (
	metricRow struct {
		ID           string `db:"id"`
		Label        string `db:"label"`
		DisplayValue string `db:"display_value"`
		Description  string `db:"description"`
		Trend        string `db:"trend"`
		TrendLabel   string `db:"trend_label"`
	}

	assignmentRow struct {
		ID             string    `db:"id"`
		Title          string    `db:"title"`
		Description    string    `db:"description"`
		DueAt          time.Time `db:"due_at"`
		SubmittedCount int       `db:"submitted_count"`
		TotalExpected  int       `db:"total_expected"`
	}

	activityRow struct {
		ID          string      `db:"id"`
		Title       string      `db:"title"`
		Description null.String `db:"description"`
		OccurredAt  time.Time   `db:"occurred_at"`
		Category    string      `db:"category"`
	}

	announcementRow struct {
		ID          string      `db:"id"`
		Title       string      `db:"title"`
		Content     string      `db:"content"`
		PublishedAt time.Time   `db:"published_at"`
		Author      null.String `db:"author"`
		Priority    string      `db:"priority"`
	}
)

// Store reads dashboards from PostgreSQL.
type Store struct {
	db                core.Querier
	activityLimit     int
	announcementLimit int
	now               func() time.Time
}

func NewStore(db core.Querier, activityLimit, announcementLimit int) *Store {
	return &Store{
		db:                db,
		activityLimit:     activityLimit,
		announcementLimit: announcementLimit,
		now:               time.Now,
	}
}

// ProviderFor returns the dashboard Provider of a teacher; it satisfies dashboard.ProviderFactory.
func (s *Store) ProviderFor(teacherID string) dashboard.Provider {
	return dashboard.ProviderFunc(func(ctx context.Context) (dashboard.Snapshot, error) {
		return s.FetchSnapshot(ctx, teacherID)
	})
}

// withLimit appends a LIMIT bound to the next placeholder; a limit <= 0 means no limit.
func withLimit(q string, limit int, args ...interface{}) (string, []interface{}) {
	if limit <= 0 {
		return q, args
	}
	return q + " LIMIT $" + strconv.Itoa(len(args)+1), append(args, limit)
}

// FetchSnapshot runs the four dashboard queries concurrently.
func (s *Store) FetchSnapshot(ctx context.Context, teacherID string) (dashboard.Snapshot, error) {
	var (
		metrics       []metricRow
		assignments   []assignmentRow
		activity      []activityRow
		announcements []announcementRow
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := `SELECT id, label, display_value, description, trend, trend_label
			FROM summary_metrics WHERE teacher_id = $1 ORDER BY ` + metricsOrdering.String()
		return errors.Wrap(s.db.SelectContext(ctx, &metrics, q, teacherID), "selecting summary metrics")
	})
	g.Go(func() error {
		q := `SELECT id, title, description, due_at, submitted_count, total_expected
			FROM assignments WHERE teacher_id = $1 ORDER BY ` + workItemsOrdering.String()
		return errors.Wrap(s.db.SelectContext(ctx, &assignments, q, teacherID), "selecting assignments")
	})
	g.Go(func() error {
		q, args := withLimit(`SELECT id, title, description, occurred_at, category
			FROM activity_events WHERE teacher_id = $1 ORDER BY `+activityOrdering.String(), s.activityLimit, teacherID)
		return errors.Wrap(s.db.SelectContext(ctx, &activity, q, args...), "selecting activity")
	})
	g.Go(func() error {
		q, args := withLimit(`SELECT id, title, content, published_at, author, priority
			FROM announcements ORDER BY `+announcementOrdering.String(), s.announcementLimit)
		return errors.Wrap(s.db.SelectContext(ctx, &announcements, q, args...), "selecting announcements")
	})
	if err := g.Wait(); err != nil {
		return dashboard.Snapshot{}, err
	}

	snap := dashboard.Snapshot{
		Metrics:       make([]dashboard.SummaryMetric, 0, len(metrics)),
		WorkItems:     make([]dashboard.WorkItem, 0, len(assignments)),
		Activity:      make([]dashboard.ActivityEvent, 0, len(activity)),
		Announcements: make([]dashboard.Announcement, 0, len(announcements)),
		FetchedAt:     s.now().UTC(),
	}
	for _, r := range metrics {
		snap.Metrics = append(snap.Metrics, dashboard.SummaryMetric{
			ID:           r.ID,
			Label:        r.Label,
			DisplayValue: r.DisplayValue,
			Description:  r.Description,
			Trend:        dashboard.TrendDirection(r.Trend),
			TrendLabel:   r.TrendLabel,
		})
	}
	for _, r := range assignments {
		snap.WorkItems = append(snap.WorkItems, dashboard.WorkItem{
			ID:             r.ID,
			Title:          r.Title,
			Description:    r.Description,
			DueAt:          r.DueAt.UTC(),
			SubmittedCount: r.SubmittedCount,
			TotalExpected:  r.TotalExpected,
		})
	}
	for _, r := range activity {
		snap.Activity = append(snap.Activity, dashboard.ActivityEvent{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description.String,
			OccurredAt:  r.OccurredAt.UTC(),
			Category:    dashboard.Category(r.Category),
		})
	}
	for _, r := range announcements {
		snap.Announcements = append(snap.Announcements, dashboard.Announcement{
			ID:          r.ID,
			Title:       r.Title,
			Content:     r.Content,
			PublishedAt: r.PublishedAt.UTC(),
			Author:      r.Author.String,
			Priority:    dashboard.Priority(r.Priority),
		})
	}
	return snap, nil
}
