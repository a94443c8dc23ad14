package dashboard

import (
	"net/mail"
	texttmpl "text/template"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-dashboard/core"
	"github.com/trezcool/masomo-dashboard/core/user"
)

var (
	ErrNoRecipient = errors.New("digest recipient has no email address")

	digestTmpl = texttmpl.Must(texttmpl.New("digest").Parse(`Hi {{ .Data.FirstName }},

Here is your {{ .Data.Window }} overview as of {{ .Data.Date }}.
{{ if .Data.Entries }}
Needs your attention:
{{ range .Data.Entries }}  - {{ .Title }}: {{ .DueLabel }} ({{ .SubmittedCount }}/{{ .TotalExpected }} submitted)
{{ end }}{{ else }}
Nothing urgent on your plate.
{{ end }}{{ if .Data.Announcements }}
Important announcements:
{{ range .Data.Announcements }}  - {{ .Title }}{{ if .Author }} ({{ .Author }}){{ end }}
{{ end }}{{ end }}
Open your dashboard: {{ .FrontendBaseURL }}/dashboard
`))
)

type digestData struct {
	FirstName     string
	Window        TimeWindow
	Date          string
	Entries       []FeedEntry
	Announcements []Announcement
}

// BuildDigest prepares the e-mail summarizing the critical and warning work items of the window,
// plus the high-priority announcements of st.
func BuildDigest(prof user.Profile, st State, w TimeWindow, now time.Time, layout string) (*core.EmailMessage, error) {
	if prof.Email == "" {
		return nil, ErrNoRecipient
	}
	if !w.Valid() {
		return nil, errors.Wrapf(ErrUnknownTimeWindow, "%q", w)
	}
	if layout == "" {
		layout = DefaultDateLayout
	}

	data := digestData{
		FirstName: prof.FirstName(),
		Window:    w,
		Date:      now.Format(layout),
	}
	for _, entry := range BuildFeed(w, st.WorkItems, now, layout) {
		if entry.Urgency == UrgencyCritical || entry.Urgency == UrgencyWarning {
			data.Entries = append(data.Entries, entry)
		}
	}
	for _, ann := range st.Announcements {
		if ann.Priority == PriorityHigh {
			data.Announcements = append(data.Announcements, ann)
		}
	}

	return &core.EmailMessage{
		To:           []mail.Address{{Name: prof.DisplayName(), Address: prof.Email}},
		Subject:      "Your dashboard digest",
		Template:     digestTmpl,
		TemplateData: data,
	}, nil
}
