package inmemdb

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-dashboard/core/dashboard"
)

type (
	// Seed is the JSON layout of a dashboard fixture file.
	Seed struct {
		Teachers      map[string]TeacherSeed   `json:"teachers"`
		Announcements []dashboard.Announcement `json:"announcements"`
	}

	TeacherSeed struct {
		Metrics   []dashboard.SummaryMetric `json:"metrics"`
		WorkItems []dashboard.WorkItem      `json:"work_items"`
		Activity  []dashboard.ActivityEvent `json:"activity"`
	}
)

// LoadSeedFile stores the dashboards of the JSON fixture at path.
func (db *DB) LoadSeedFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening seed file")
	}
	defer f.Close()
	return errors.Wrapf(db.LoadSeed(f), "loading %s", path)
}

// LoadSeed stores the dashboards read from r. Work items are validated first: nothing is stored when one is invalid.
func (db *DB) LoadSeed(r io.Reader) error {
	var seed Seed
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&seed); err != nil {
		return errors.Wrap(err, "decoding seed")
	}

	for _, ts := range seed.Teachers {
		for _, item := range ts.WorkItems {
			if err := item.Validate(); err != nil {
				return err
			}
		}
	}

	for teacherID, ts := range seed.Teachers {
		for _, m := range ts.Metrics {
			db.AddMetric(teacherID, m)
		}
		for _, item := range ts.WorkItems {
			if _, err := db.AddWorkItem(teacherID, item); err != nil {
				return err
			}
		}
		for _, evt := range ts.Activity {
			db.AddActivity(teacherID, evt)
		}
	}
	for _, ann := range seed.Announcements {
		db.AddAnnouncement(ann)
	}
	return nil
}
