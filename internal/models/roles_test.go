package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserRole(t *testing.T) {
	tests := []struct {
		role       string
		valid      bool
		privileged bool
	}{
		{"user", true, false},
		{"volunteer", true, true},
		{"admin", true, true},
		{"superadmin", false, false},
		{"ADMIN", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			r, ok := RoleFromString(tt.role)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.privileged, UserRole(tt.role).IsPrivileged())
			if ok {
				assert.Equal(t, tt.role, r.String())
			}
		})
	}
}
