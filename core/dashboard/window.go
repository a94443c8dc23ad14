package dashboard

import (
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-dashboard/core"
)

// TimeWindow bounds which work items are considered upcoming.
type TimeWindow string

const (
	WindowWeek     TimeWindow = "week"
	WindowMonth    TimeWindow = "month"
	WindowSemester TimeWindow = "semester"
	WindowYear     TimeWindow = "year"
)

var (
	TimeWindows = []TimeWindow{WindowWeek, WindowMonth, WindowSemester, WindowYear}

	windowDays = map[TimeWindow]int{
		WindowWeek:     7,
		WindowMonth:    30,
		WindowSemester: 120,
		WindowYear:     365,
	}

	ErrUnknownTimeWindow = errors.New("unknown time window")
)

// Days returns the window length in days; 0 for an unknown window.
func (w TimeWindow) Days() int {
	return windowDays[w]
}

func (w TimeWindow) Valid() bool {
	_, ok := windowDays[w]
	return ok
}

func (w TimeWindow) String() string { return string(w) }

// ParseTimeWindow parses a window name, case-insensitively.
func ParseTimeWindow(s string) (TimeWindow, error) {
	w := TimeWindow(core.CleanString(s, true /* lower */))
	if !w.Valid() {
		return "", errors.Wrapf(ErrUnknownTimeWindow, "%q", s)
	}
	return w, nil
}
