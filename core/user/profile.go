package user

import (
	"strings"

	"github.com/trezcool/masomo-dashboard/core"
)

// Roles
const (
	// Admin
	RoleAdmin          = "admin:"
	RoleAdminOwner     = "admin:owner"
	RoleAdminPrincipal = "admin:principal"

	// Teacher
	RoleTeacher = "teacher:"

	// Student
	RoleStudent = "student:"
)

// Profile is the signed-in user as seen by the dashboard.
// It is built once, when the session is authenticated, and carries everything the screens need to display.
type Profile struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

func NewProfile(id, name, username, email string, roles []string) Profile {
	return Profile{
		ID:       core.CleanString(id),
		Name:     core.CleanString(name),
		Username: core.CleanString(username, true /* lower */),
		Email:    core.CleanString(email, true /* lower */),
		Roles:    roles,
	}
}

// DisplayName returns the first non-empty of Name, Username and Email.
func (p Profile) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Username != "":
		return p.Username
	default:
		return p.Email
	}
}

// FirstName is used for greetings.
func (p Profile) FirstName() string {
	name := p.DisplayName()
	if p.Name == "" {
		return name
	}
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	if p.Username != "" {
		return p.Username
	}
	return p.Email
}

func (p Profile) RoleStartsWith(prefix string) bool {
	for _, role := range p.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (p Profile) IsAdmin() bool {
	return p.RoleStartsWith(RoleAdmin)
}

func (p Profile) IsTeacher() bool {
	return p.RoleStartsWith(RoleTeacher)
}

func (p Profile) IsStudent() bool {
	return p.RoleStartsWith(RoleStudent)
}

// CanViewDashboard reports whether the profile may open the teacher dashboard.
func (p Profile) CanViewDashboard() bool {
	return p.IsTeacher() || p.IsAdmin()
}
