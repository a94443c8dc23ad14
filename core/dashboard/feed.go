package dashboard

import (
	"fmt"
	"time"
)

// DefaultDateLayout is used for due dates outside of the one-week range.
const DefaultDateLayout = "Jan 2, 2006"

type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyWarning  Urgency = "warning"
	UrgencyNotice   Urgency = "notice"
	UrgencyNormal   Urgency = "normal"
)

// FeedEntry is a WorkItem decorated with everything a screen needs to display it.
type FeedEntry struct {
	WorkItem
	DaysRemaining  int     `json:"days_remaining"`
	DueLabel       string  `json:"due_label"`
	Urgency        Urgency `json:"urgency"`
	SubmissionRate float64 `json:"submission_rate"`
	Color          string  `json:"color"`
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the number of calendar days from now to t, in now's location.
// Time of day is ignored: 23:59 today and 00:01 tomorrow are 1 day apart. Negative when t is in the past.
func DaysBetween(now, t time.Time) int {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.In(now.Location()).Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC).Unix()
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC).Unix()
	return int(to/secondsPerDay - from/secondsPerDay)
}

// FilterWorkItemsByWindow returns the items due within w days of now, in input order.
//
// NOTE: items already past due always pass, whatever the window: their day difference is negative.
func FilterWorkItemsByWindow(w TimeWindow, items []WorkItem, now time.Time) []WorkItem {
	filtered := make([]WorkItem, 0, len(items))
	for _, item := range items {
		if DaysBetween(now, item.DueAt) <= w.Days() {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// FormatDueLabel formats the due date of item relative to now, eg. "Due tomorrow".
func FormatDueLabel(item WorkItem, now time.Time) string {
	return FormatDueLabelLayout(item, now, DefaultDateLayout)
}

// FormatDueLabelLayout is FormatDueLabel with a custom layout for absolute dates.
func FormatDueLabelLayout(item WorkItem, now time.Time, layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	days := DaysBetween(now, item.DueAt)
	switch {
	case days == 0:
		return "Due today!"
	case days == 1:
		return "Due tomorrow"
	case days >= 2 && days <= 7:
		return fmt.Sprintf("Due in %d days", days)
	default:
		return "Due " + item.DueAt.In(now.Location()).Format(layout)
	}
}

// UrgencyOf classifies item for display priority. Overdue items are critical.
func UrgencyOf(item WorkItem, now time.Time) Urgency {
	return urgencyForDays(DaysBetween(now, item.DueAt))
}

func urgencyForDays(days int) Urgency {
	switch {
	case days <= 1:
		return UrgencyCritical
	case days <= 3:
		return UrgencyWarning
	case days <= 7:
		return UrgencyNotice
	default:
		return UrgencyNormal
	}
}

// SubmissionRate returns the share of expected submissions received, in [0, 1].
// Items without expected submissions have a rate of 0.
func SubmissionRate(item WorkItem) float64 {
	if item.TotalExpected <= 0 || item.SubmittedCount <= 0 {
		return 0
	}
	if item.SubmittedCount >= item.TotalExpected {
		return 1
	}
	return float64(item.SubmittedCount) / float64(item.TotalExpected)
}

// BuildFeed filters items by w and decorates them for display.
func BuildFeed(w TimeWindow, items []WorkItem, now time.Time, layout string) []FeedEntry {
	filtered := FilterWorkItemsByWindow(w, items, now)
	entries := make([]FeedEntry, 0, len(filtered))
	for _, item := range filtered {
		days := DaysBetween(now, item.DueAt)
		entries = append(entries, FeedEntry{
			WorkItem:       item,
			DaysRemaining:  days,
			DueLabel:       FormatDueLabelLayout(item, now, layout),
			Urgency:        urgencyForDays(days),
			SubmissionRate: SubmissionRate(item),
			Color:          ColorFor(item.Title),
		})
	}
	return entries
}
