package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		actual   Role
		required Role
		want     bool
	}{
		{RoleUser, RoleUser, true},
		{RoleUser, RoleModerator, false},
		{RoleUser, RoleAdmin, false},
		{RoleModerator, RoleUser, true},
		{RoleModerator, RoleModerator, true},
		{RoleModerator, RoleAdmin, false},
		{RoleAdmin, RoleUser, true},
		{RoleAdmin, RoleModerator, true},
		{RoleAdmin, RoleAdmin, true},
		{Role("unknown"), RoleUser, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RoleAtLeast(tt.actual, tt.required),
			"RoleAtLeast(%q, %q)", tt.actual, tt.required)
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"user", "moderator", "admin"} {
		role, ok := ParseRole(valid)
		assert.True(t, ok)
		assert.Equal(t, Role(valid), role)
	}

	_, ok := ParseRole("superuser")
	assert.False(t, ok)

	_, ok = ParseRole("")
	assert.False(t, ok)
}
