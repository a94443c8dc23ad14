package dashboard

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-dashboard/core"
	"github.com/trezcool/masomo-dashboard/core/user"
)

func TestBuildDigest(t *testing.T) {
	prof := user.NewProfile("42", "Amina Kabila", "amina", "Amina@School.cd", []string{user.RoleTeacher})
	st := State{
		WorkItems: []WorkItem{
			{ID: "1", Title: "Essay", DueAt: jan10.AddDate(0, 0, 1), SubmittedCount: 5, TotalExpected: 20},
			{ID: "2", Title: "Quiz", DueAt: jan10.AddDate(0, 0, 3), SubmittedCount: 1, TotalExpected: 20},
			{ID: "3", Title: "Reading log", DueAt: jan10.AddDate(0, 0, 6), TotalExpected: 20},
			{ID: "4", Title: "Project", DueAt: jan10.AddDate(0, 0, 40), TotalExpected: 20},
		},
		Announcements: []Announcement{
			{ID: "a", Title: "Exams moved", Author: "Principal", Priority: PriorityHigh},
			{ID: "b", Title: "Bake sale", Priority: PriorityNormal},
		},
	}

	msg, err := BuildDigest(prof, st, WindowWeek, jan10, "")
	require.NoError(t, err)
	require.True(t, msg.HasRecipients())
	assert.Equal(t, "amina@school.cd", msg.To[0].Address)
	assert.Equal(t, "Amina Kabila", msg.To[0].Name)

	require.NoError(t, msg.Render("https://masomo.test"))
	assert.True(t, msg.HasContent())
	body := msg.TextContent
	assert.Contains(t, body, "Hi Amina,")
	assert.Contains(t, body, "week overview as of Jan 10, 2024")
	assert.Contains(t, body, "- Essay: Due tomorrow (5/20 submitted)")
	assert.Contains(t, body, "- Quiz: Due in 3 days (1/20 submitted)")
	assert.NotContains(t, body, "Reading log") // notice only
	assert.NotContains(t, body, "Project")     // outside the window
	assert.Contains(t, body, "- Exams moved (Principal)")
	assert.NotContains(t, body, "Bake sale")
	assert.Contains(t, body, "https://masomo.test/dashboard")
}

func TestBuildDigest_nothingUrgent(t *testing.T) {
	prof := user.NewProfile("1", "", "teach", "teach@school.cd", nil)
	msg, err := BuildDigest(prof, State{}, WindowMonth, jan10, "2006-01-02")
	require.NoError(t, err)
	require.NoError(t, msg.Render(""))
	assert.Contains(t, msg.TextContent, "Hi teach,")
	assert.Contains(t, msg.TextContent, "as of 2024-01-10")
	assert.Contains(t, msg.TextContent, "Nothing urgent on your plate.")
	assert.NotContains(t, msg.TextContent, "Important announcements")
}

func TestBuildDigest_errors(t *testing.T) {
	_, err := BuildDigest(user.Profile{Name: "No Mail"}, State{}, WindowWeek, time.Now(), "")
	assert.Equal(t, ErrNoRecipient, err)

	_, err = BuildDigest(user.Profile{Email: "a@b.cd"}, State{}, "decade", time.Now(), "")
	assert.Error(t, err)
}

func TestInitValidators(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	type query struct {
		Window string `query:"window" validate:"omitempty,timewindow"`
	}

	tests := []struct {
		window  string
		wantErr bool
	}{
		{window: ""},
		{window: "week"},
		{window: "Semester"},
		{window: "decade", wantErr: true},
	}
	for _, tt := range tests {
		err := validate.Struct(query{Window: tt.window})
		if (err != nil) != tt.wantErr {
			t.Errorf("validate(%q) error = %v, wantErr %v", tt.window, err, tt.wantErr)
			continue
		}
		if err != nil {
			errs := core.TranslateErrors(err.(validator.ValidationErrors), translator)
			assert.Equal(t, map[string]string{"window": "must be one of: week, month, semester, year"}, errs)
		}
	}
}
