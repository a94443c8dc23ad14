package inmemdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/masomo-dashboard/core/dashboard"
)

type (
	// DB is an in-memory dashboard store, for development and tests.
	DB struct {
		mutex sync.RWMutex

		metrics       map[string][]dashboard.SummaryMetric
		workItems     map[string][]dashboard.WorkItem
		activity      map[string][]dashboard.ActivityEvent
		announcements []dashboard.Announcement

		activityLimit     int
		announcementLimit int
		now               func() time.Time
	}
)

func Open(activityLimit, announcementLimit int) *DB {
	return &DB{
		metrics:           make(map[string][]dashboard.SummaryMetric),
		workItems:         make(map[string][]dashboard.WorkItem),
		activity:          make(map[string][]dashboard.ActivityEvent),
		activityLimit:     activityLimit,
		announcementLimit: announcementLimit,
		now:               time.Now,
	}
}

func newID(id string) string {
	if id == "" {
		return uuid.New().String()
	}
	return id
}

func (db *DB) AddMetric(teacherID string, m dashboard.SummaryMetric) dashboard.SummaryMetric {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	m.ID = newID(m.ID)
	db.metrics[teacherID] = append(db.metrics[teacherID], m)
	return m
}

func (db *DB) AddWorkItem(teacherID string, item dashboard.WorkItem) (dashboard.WorkItem, error) {
	if err := item.Validate(); err != nil {
		return dashboard.WorkItem{}, err
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	item.ID = newID(item.ID)
	db.workItems[teacherID] = append(db.workItems[teacherID], item)
	return item, nil
}

func (db *DB) AddActivity(teacherID string, evt dashboard.ActivityEvent) dashboard.ActivityEvent {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	evt.ID = newID(evt.ID)
	db.activity[teacherID] = append(db.activity[teacherID], evt)
	return evt
}

func (db *DB) AddAnnouncement(ann dashboard.Announcement) dashboard.Announcement {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	ann.ID = newID(ann.ID)
	db.announcements = append(db.announcements, ann)
	return ann
}

// ProviderFor returns the dashboard Provider of a teacher; it satisfies dashboard.ProviderFactory.
func (db *DB) ProviderFor(teacherID string) dashboard.Provider {
	return dashboard.ProviderFunc(func(ctx context.Context) (dashboard.Snapshot, error) {
		if err := ctx.Err(); err != nil {
			return dashboard.Snapshot{}, err
		}
		return db.Snapshot(teacherID), nil
	})
}

// Snapshot copies the teacher's collections, work items by due date, activity and announcements newest first.
func (db *DB) Snapshot(teacherID string) dashboard.Snapshot {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	snap := dashboard.Snapshot{
		Metrics:       append([]dashboard.SummaryMetric{}, db.metrics[teacherID]...),
		WorkItems:     append([]dashboard.WorkItem{}, db.workItems[teacherID]...),
		Activity:      append([]dashboard.ActivityEvent{}, db.activity[teacherID]...),
		Announcements: append([]dashboard.Announcement{}, db.announcements...),
		FetchedAt:     db.now().UTC(),
	}

	sort.SliceStable(snap.WorkItems, func(i, j int) bool { return snap.WorkItems[i].DueAt.Before(snap.WorkItems[j].DueAt) })
	sort.SliceStable(snap.Activity, func(i, j int) bool { return snap.Activity[i].OccurredAt.After(snap.Activity[j].OccurredAt) })
	sort.SliceStable(snap.Announcements, func(i, j int) bool {
		return snap.Announcements[i].PublishedAt.After(snap.Announcements[j].PublishedAt)
	})

	if db.activityLimit > 0 && len(snap.Activity) > db.activityLimit {
		snap.Activity = snap.Activity[:db.activityLimit]
	}
	if db.announcementLimit > 0 && len(snap.Announcements) > db.announcementLimit {
		snap.Announcements = snap.Announcements[:db.announcementLimit]
	}
	return snap
}
