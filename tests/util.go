package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/masomo-dashboard/core"
	"github.com/trezcool/masomo-dashboard/core/dashboard"
	"github.com/trezcool/masomo-dashboard/core/user"
	"github.com/trezcool/masomo-dashboard/storage/database/inmem"
)

// Now is the fixed "current" time of the fixtures: 2024-01-10 08:00 UTC.
var Now = time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)

func Clock() time.Time { return Now }

// NewConfig returns the configuration the test servers and commands run with.
func NewConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		AppName:          "Masomo",
		SecretKey:        "test-secret",
		DefaultFromEmail: "noreply@masomo.test",
		FrontendBaseURL:  "https://masomo.test",
		Server: core.ServerConfig{
			Addr:               ":0",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: time.Hour,
		},
		Dashboard: core.DashboardConfig{
			Provider:            "memory",
			DefaultWindow:       "week",
			DateLayout:          dashboard.DefaultDateLayout,
			RefreshInterval:     time.Minute,
			RefreshTimeout:      time.Second,
			RecentActivityLimit: 20,
			AnnouncementLimit:   10,
		},
	}
}

func Teacher(id string) user.Profile {
	return user.NewProfile(id, "Amina Kabila", "amina", "amina@school.cd", []string{user.RoleTeacher})
}

func Student(id string) user.Profile {
	return user.NewProfile(id, "Joseph Ilunga", "joseph", "joseph@school.cd", []string{user.RoleStudent})
}

func Admin(id string) user.Profile {
	return user.NewProfile(id, "Grace Mbuyi", "grace", "grace@school.cd", []string{user.RoleAdminPrincipal})
}

// WorkItems are due tomorrow, 5 days ago and in 41 days, relative to Now.
func WorkItems() []dashboard.WorkItem {
	return []dashboard.WorkItem{
		{ID: "w1", Title: "Essay", DueAt: time.Date(2024, time.January, 11, 12, 0, 0, 0, time.UTC), SubmittedCount: 5, TotalExpected: 20},
		{ID: "w2", Title: "Lab report", DueAt: time.Date(2024, time.January, 5, 12, 0, 0, 0, time.UTC), SubmittedCount: 18, TotalExpected: 18},
		{ID: "w3", Title: "Science project", DueAt: time.Date(2024, time.February, 20, 12, 0, 0, 0, time.UTC), TotalExpected: 20},
	}
}

// Snapshot is a full dashboard built around WorkItems.
func Snapshot() dashboard.Snapshot {
	return dashboard.Snapshot{
		Metrics: []dashboard.SummaryMetric{
			{ID: "m1", Label: "Active Classes", DisplayValue: "4", Trend: dashboard.TrendUp, TrendLabel: "+1 this term"},
			{ID: "m2", Label: "Pending Reviews", DisplayValue: "12", Trend: dashboard.TrendDown},
		},
		WorkItems: WorkItems(),
		Activity: []dashboard.ActivityEvent{
			{ID: "a1", Title: "Grades posted", OccurredAt: Now.Add(-2 * time.Hour), Category: dashboard.CategoryGradeUpdate},
			{ID: "a2", Title: "Essay assigned", OccurredAt: Now.Add(-1 * time.Hour), Category: dashboard.CategoryNewAssignment},
		},
		Announcements: []dashboard.Announcement{
			{ID: "n1", Title: "Exams moved", Author: "Principal", PublishedAt: Now.Add(-24 * time.Hour), Priority: dashboard.PriorityHigh},
		},
		FetchedAt: Now,
	}
}

// SeedDashboard stores Snapshot as teacherID's dashboard.
func SeedDashboard(t *testing.T, db *inmemdb.DB, teacherID string) {
	t.Helper()
	snap := Snapshot()
	for _, m := range snap.Metrics {
		db.AddMetric(teacherID, m)
	}
	for _, item := range snap.WorkItems {
		if _, err := db.AddWorkItem(teacherID, item); err != nil {
			t.Fatalf("SeedDashboard() failed: %v", err)
		}
	}
	for _, evt := range snap.Activity {
		db.AddActivity(teacherID, evt)
	}
	for _, ann := range snap.Announcements {
		db.AddAnnouncement(ann)
	}
}

// StubProvider serves a fixed snapshot, or fails once FailWith was called. It counts the fetches.
type StubProvider struct {
	mu    sync.Mutex
	snap  dashboard.Snapshot
	err   error
	calls int
}

var _ dashboard.Provider = (*StubProvider)(nil)

func NewStubProvider(snap dashboard.Snapshot) *StubProvider {
	return &StubProvider{snap: snap}
}

func (p *StubProvider) FetchSnapshot(ctx context.Context) (dashboard.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return dashboard.Snapshot{}, p.err
	}
	return p.snap, ctx.Err()
}

func (p *StubProvider) FailWith(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func (p *StubProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
