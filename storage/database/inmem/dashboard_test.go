package inmemdb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-dashboard/core"
	"github.com/trezcool/masomo-dashboard/core/dashboard"
)

var now = time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)

func TestDB_AddWorkItem(t *testing.T) {
	db := Open(0, 0)

	item, err := db.AddWorkItem("t1", dashboard.WorkItem{Title: "Essay", DueAt: now, TotalExpected: 20})
	require.NoError(t, err)
	_, err = uuid.Parse(item.ID)
	assert.NoError(t, err, "generated IDs are UUIDs")

	kept, err := db.AddWorkItem("t1", dashboard.WorkItem{ID: "w2", Title: "Quiz", DueAt: now})
	require.NoError(t, err)
	assert.Equal(t, "w2", kept.ID)

	_, err = db.AddWorkItem("t1", dashboard.WorkItem{Title: "Bad", SubmittedCount: 21, TotalExpected: 20})
	require.Error(t, err)
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "submitted_count", vErr.Fields[0].Field)

	assert.Len(t, db.Snapshot("t1").WorkItems, 2)
	assert.Empty(t, db.Snapshot("t2").WorkItems)
}

func TestDB_Snapshot(t *testing.T) {
	db := Open(2, 1)
	db.now = func() time.Time { return now }

	db.AddMetric("t1", dashboard.SummaryMetric{ID: "m1", Label: "Active Classes", DisplayValue: "4"})
	_, _ = db.AddWorkItem("t1", dashboard.WorkItem{ID: "later", DueAt: now.AddDate(0, 0, 9)})
	_, _ = db.AddWorkItem("t1", dashboard.WorkItem{ID: "sooner", DueAt: now.AddDate(0, 0, 1)})
	db.AddActivity("t1", dashboard.ActivityEvent{ID: "a1", OccurredAt: now.Add(-3 * time.Hour)})
	db.AddActivity("t1", dashboard.ActivityEvent{ID: "a2", OccurredAt: now.Add(-1 * time.Hour)})
	db.AddActivity("t1", dashboard.ActivityEvent{ID: "a3", OccurredAt: now.Add(-2 * time.Hour)})
	db.AddAnnouncement(dashboard.Announcement{ID: "n1", PublishedAt: now.Add(-48 * time.Hour)})
	db.AddAnnouncement(dashboard.Announcement{ID: "n2", PublishedAt: now.Add(-24 * time.Hour)})

	snap, err := db.ProviderFor("t1").FetchSnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, now, snap.FetchedAt)
	assert.Len(t, snap.Metrics, 1)
	assert.Equal(t, "sooner", snap.WorkItems[0].ID)
	assert.Equal(t, "later", snap.WorkItems[1].ID)
	require.Len(t, snap.Activity, 2)
	assert.Equal(t, "a2", snap.Activity[0].ID)
	assert.Equal(t, "a3", snap.Activity[1].ID)
	require.Len(t, snap.Announcements, 1)
	assert.Equal(t, "n2", snap.Announcements[0].ID)

	// snapshots are copies
	snap.WorkItems[0].Title = "changed"
	assert.Equal(t, "", db.Snapshot("t1").WorkItems[0].Title)
}

func TestDB_ProviderFor_canceled(t *testing.T) {
	db := Open(0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := db.ProviderFor("t1").FetchSnapshot(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

const seedJSON = `{
	"teachers": {
		"t1": {
			"metrics": [{"id": "m1", "label": "Active Classes", "display_value": "4", "trend": "up"}],
			"work_items": [
				{"id": "w2", "title": "Lab report", "due_at": "2024-01-15T12:00:00Z", "submitted_count": 3, "total_expected": 18},
				{"id": "w1", "title": "Essay", "due_at": "2024-01-11T12:00:00Z", "total_expected": 20}
			],
			"activity": [{"title": "Grades posted", "occurred_at": "2024-01-09T10:00:00Z", "category": "gradeUpdate"}]
		},
		"t2": {}
	},
	"announcements": [{"id": "n1", "title": "Exams moved", "author": "Principal", "published_at": "2024-01-08T09:00:00Z", "priority": "high"}]
}`

func TestDB_LoadSeed(t *testing.T) {
	tests := []struct {
		name    string
		seed    string
		wantErr bool
	}{
		{name: "valid", seed: seedJSON},
		{name: "malformed", seed: `{"teachers": [`, wantErr: true},
		{name: "unknown field", seed: `{"students": {}}`, wantErr: true},
		{name: "invalid work item", seed: `{
			"teachers": {"t1": {"work_items": [{"id": "w1", "submitted_count": 21, "total_expected": 20}]}},
			"announcements": [{"id": "n1", "title": "Exams moved"}]
		}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := Open(0, 0)
			db.now = func() time.Time { return now }

			err := db.LoadSeed(strings.NewReader(tt.seed))
			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, db.Snapshot("t1").WorkItems, "nothing is stored")
				assert.Empty(t, db.Snapshot("t1").Announcements, "nothing is stored")
				return
			}
			require.NoError(t, err)

			snap := db.Snapshot("t1")
			require.Len(t, snap.WorkItems, 2)
			assert.Equal(t, "w1", snap.WorkItems[0].ID, "sorted by due date")
			assert.Equal(t, 3, snap.WorkItems[1].SubmittedCount)
			require.Len(t, snap.Metrics, 1)
			assert.Equal(t, dashboard.TrendUp, snap.Metrics[0].Trend)
			require.Len(t, snap.Activity, 1)
			assert.NotEmpty(t, snap.Activity[0].ID, "missing IDs are generated")
			assert.Equal(t, dashboard.CategoryGradeUpdate, snap.Activity[0].Category)
			require.Len(t, snap.Announcements, 1)
			assert.Equal(t, dashboard.PriorityHigh, snap.Announcements[0].Priority)

			assert.Empty(t, db.Snapshot("t2").WorkItems)
			assert.Len(t, db.Snapshot("t2").Announcements, 1, "announcements are school-wide")
		})
	}
}

func TestDB_LoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboards.json")
	require.NoError(t, os.WriteFile(path, []byte(seedJSON), 0o600))

	db := Open(0, 0)
	require.NoError(t, db.LoadSeedFile(path))
	assert.Len(t, db.Snapshot("t1").WorkItems, 2)

	assert.Error(t, db.LoadSeedFile(filepath.Join(t.TempDir(), "missing.json")))
}
