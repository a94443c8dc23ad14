package sqlxstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-dashboard/core/dashboard"
)

var now = time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	mock.MatchExpectationsInOrder(false)

	store := NewStore(sqlx.NewDb(mockDB, "sqlmock"), 20, 10)
	store.now = func() time.Time { return now }
	return store, mock
}

func TestStore_FetchSnapshot(t *testing.T) {
	store, mock := setup(t)

	mock.ExpectQuery("FROM summary_metrics WHERE teacher_id = \\$1 ORDER BY position ASC").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "label", "display_value", "description", "trend", "trend_label"}).
			AddRow("m1", "Active Classes", "4", "this term", "up", "+1").
			AddRow("m2", "Students", "112", "", "none", ""))
	mock.ExpectQuery("FROM assignments WHERE teacher_id = \\$1 ORDER BY due_at ASC").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "due_at", "submitted_count", "total_expected"}).
			AddRow("w1", "Essay", "", now.AddDate(0, 0, 1), 5, 20))
	mock.ExpectQuery("FROM activity_events WHERE teacher_id = \\$1 ORDER BY occurred_at DESC LIMIT \\$2").
		WithArgs("t1", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "occurred_at", "category"}).
			AddRow("a1", "Grades posted", nil, now.Add(-time.Hour), "gradeUpdate").
			AddRow("a2", "New student", "Joined 6B", now.Add(-2*time.Hour), "studentUpdate"))
	mock.ExpectQuery("FROM announcements ORDER BY published_at DESC LIMIT \\$1").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content", "published_at", "author", "priority"}).
			AddRow("n1", "Exams moved", "to next week", now.Add(-24*time.Hour), "Principal", "high").
			AddRow("n2", "Bake sale", "", now.Add(-48*time.Hour), nil, "normal"))

	snap, err := store.ProviderFor("t1").FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, now, snap.FetchedAt)
	assert.Equal(t, []dashboard.SummaryMetric{
		{ID: "m1", Label: "Active Classes", DisplayValue: "4", Description: "this term", Trend: dashboard.TrendUp, TrendLabel: "+1"},
		{ID: "m2", Label: "Students", DisplayValue: "112", Trend: dashboard.TrendNone},
	}, snap.Metrics)
	assert.Equal(t, []dashboard.WorkItem{
		{ID: "w1", Title: "Essay", DueAt: now.AddDate(0, 0, 1), SubmittedCount: 5, TotalExpected: 20},
	}, snap.WorkItems)
	require.Len(t, snap.Activity, 2)
	assert.Equal(t, "", snap.Activity[0].Description)
	assert.Equal(t, "Joined 6B", snap.Activity[1].Description)
	assert.Equal(t, dashboard.CategoryStudentUpdate, snap.Activity[1].Category)
	require.Len(t, snap.Announcements, 2)
	assert.Equal(t, "Principal", snap.Announcements[0].Author)
	assert.Equal(t, dashboard.PriorityHigh, snap.Announcements[0].Priority)
	assert.Equal(t, "", snap.Announcements[1].Author)
}

func TestStore_FetchSnapshot_empty(t *testing.T) {
	store, mock := setup(t)
	mock.ExpectQuery("FROM summary_metrics").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("FROM assignments").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("FROM activity_events").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("FROM announcements").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	snap, err := store.FetchSnapshot(context.Background(), "t1")
	require.NoError(t, err)
	assert.NotNil(t, snap.Metrics)
	assert.Empty(t, snap.Metrics)
	assert.Empty(t, snap.WorkItems)
	assert.Empty(t, snap.Activity)
	assert.Empty(t, snap.Announcements)
}

func TestStore_FetchSnapshot_error(t *testing.T) {
	store, mock := setup(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM summary_metrics").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("FROM assignments").WillReturnError(boom)
	mock.ExpectQuery("FROM activity_events").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("FROM announcements").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.FetchSnapshot(context.Background(), "t1")
	require.Error(t, err)
	assert.Equal(t, boom, pkgerrors.Cause(err))
	assert.Contains(t, err.Error(), "selecting assignments")
}

func Test_withLimit(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		args     []interface{}
		wantQ    string
		wantArgs []interface{}
	}{
		{name: "limited", limit: 20, args: []interface{}{"t1"}, wantQ: "SELECT 1 LIMIT $2", wantArgs: []interface{}{"t1", 20}},
		{name: "limited, no args", limit: 10, wantQ: "SELECT 1 LIMIT $1", wantArgs: []interface{}{10}},
		{name: "zero is unlimited", limit: 0, args: []interface{}{"t1"}, wantQ: "SELECT 1", wantArgs: []interface{}{"t1"}},
		{name: "negative is unlimited", limit: -1, wantQ: "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := withLimit("SELECT 1", tt.limit, tt.args...)
			assert.Equal(t, tt.wantQ, q)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestStore_FetchSnapshot_unlimited(t *testing.T) {
	store, mock := setup(t)
	store.activityLimit, store.announcementLimit = 0, 0

	mock.ExpectQuery("FROM summary_metrics").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("FROM assignments").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("FROM activity_events WHERE teacher_id = \\$1 ORDER BY occurred_at DESC").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "occurred_at", "category"}).
			AddRow("a1", "Grades posted", nil, now.Add(-time.Hour), "gradeUpdate"))
	mock.ExpectQuery("FROM announcements ORDER BY published_at DESC").
		WithArgs().
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content", "published_at", "author", "priority"}).
			AddRow("n1", "Exams moved", "", now.Add(-24*time.Hour), nil, "high"))

	snap, err := store.FetchSnapshot(context.Background(), "t1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Len(t, snap.Activity, 1)
	assert.Len(t, snap.Announcements, 1)
}
