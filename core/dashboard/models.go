package dashboard

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-dashboard/core"
)

type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
	TrendNone TrendDirection = "none"
)

func (td TrendDirection) Valid() bool {
	switch td {
	case TrendUp, TrendDown, TrendFlat, TrendNone:
		return true
	}
	return false
}

type Category string

const (
	CategoryGradeUpdate   Category = "gradeUpdate"
	CategoryNewAssignment Category = "newAssignment"
	CategoryStudentUpdate Category = "studentUpdate"
	CategorySystemNotice  Category = "systemNotice"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryGradeUpdate, CategoryNewAssignment, CategoryStudentUpdate, CategorySystemNotice:
		return true
	}
	return false
}

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityNormal || p == PriorityHigh
}

// SummaryMetric is one headline number of the dashboard (eg. "Active Classes: 4").
type SummaryMetric struct {
	ID           string         `json:"id"`
	Label        string         `json:"label"`
	DisplayValue string         `json:"display_value"`
	Description  string         `json:"description"`
	Trend        TrendDirection `json:"trend"`
	TrendLabel   string         `json:"trend_label"`
}

// WorkItem is an assignment-like task shown on the dashboard.
type WorkItem struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	DueAt          time.Time `json:"due_at"`
	SubmittedCount int       `json:"submitted_count"`
	TotalExpected  int       `json:"total_expected"`
}

// Validate checks the submission counters.
func (wi WorkItem) Validate() error {
	var flds []core.FieldError
	if wi.SubmittedCount < 0 {
		flds = append(flds, core.FieldError{Field: "submitted_count", Error: "must not be negative"})
	}
	if wi.TotalExpected < 0 {
		flds = append(flds, core.FieldError{Field: "total_expected", Error: "must not be negative"})
	}
	if wi.TotalExpected > 0 && wi.SubmittedCount > wi.TotalExpected {
		flds = append(flds, core.FieldError{
			Field: "submitted_count",
			Error: fmt.Sprintf("cannot exceed total_expected (%d)", wi.TotalExpected),
		})
	}
	if flds != nil {
		return core.NewValidationError(errors.Errorf("invalid work item %q", wi.ID), flds...)
	}
	return nil
}

type ActivityEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
	Category    Category  `json:"category"`
}

type Announcement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	PublishedAt time.Time `json:"published_at"`
	Author      string    `json:"author"`
	Priority    Priority  `json:"priority"`
}

// Snapshot is the set of the four dashboard collections as returned by a Provider.
type Snapshot struct {
	Metrics       []SummaryMetric
	WorkItems     []WorkItem
	Activity      []ActivityEvent
	Announcements []Announcement
	FetchedAt     time.Time
}
