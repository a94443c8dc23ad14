package user

import "testing"

func TestProfile_DisplayName(t *testing.T) {
	tests := []struct {
		name      string
		profile   Profile
		want      string
		wantFirst string
	}{
		{name: "name", profile: NewProfile("1", " Grace Hopper ", "ghopper", "grace@test.cd", nil), want: "Grace Hopper", wantFirst: "Grace"},
		{name: "username", profile: NewProfile("1", "", " GHopper", "grace@test.cd", nil), want: "ghopper", wantFirst: "ghopper"},
		{name: "email", profile: NewProfile("1", "", "", "Grace@Test.cd", nil), want: "grace@test.cd", wantFirst: "grace@test.cd"},
		{name: "nothing", profile: Profile{}, want: "", wantFirst: ""},
		{name: "blank name", profile: Profile{Name: " \t", Username: "ghopper"}, want: " \t", wantFirst: "ghopper"},
		{name: "blank name, email only", profile: Profile{Name: "  ", Email: "grace@test.cd"}, want: "  ", wantFirst: "grace@test.cd"},
		{name: "blank everything", profile: Profile{Name: " "}, want: " ", wantFirst: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
			if got := tt.profile.FirstName(); got != tt.wantFirst {
				t.Errorf("FirstName() = %q, want %q", got, tt.wantFirst)
			}
		})
	}
}

func TestProfile_Roles(t *testing.T) {
	tests := []struct {
		name    string
		roles   []string
		teacher bool
		admin   bool
		student bool
		canView bool
	}{
		{name: "no roles"},
		{name: "teacher", roles: []string{RoleTeacher}, teacher: true, canView: true},
		{name: "principal", roles: []string{RoleAdminPrincipal}, admin: true, canView: true},
		{name: "student", roles: []string{RoleStudent}, student: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProfile("1", "T", "t", "t@test.cd", tt.roles)
			if p.IsTeacher() != tt.teacher || p.IsAdmin() != tt.admin || p.IsStudent() != tt.student {
				t.Errorf("roles %v: teacher=%v admin=%v student=%v", tt.roles, p.IsTeacher(), p.IsAdmin(), p.IsStudent())
			}
			if got := p.CanViewDashboard(); got != tt.canView {
				t.Errorf("CanViewDashboard() = %v, want %v", got, tt.canView)
			}
		})
	}
}
