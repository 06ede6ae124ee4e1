package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccess(t *testing.T) {
	var nobody *User
	assert.False(t, nobody.Active())
	assert.False(t, nobody.IsAdmin())

	assert.False(t, (&User{Status: StatusPending, Role: RoleAdmin}).IsAdmin())
	assert.True(t, (&User{Status: StatusApproved}).Active())
	assert.False(t, (&User{Status: StatusApproved, Role: RoleStaff}).IsAdmin())
	assert.True(t, (&User{Status: StatusApproved, Role: RoleAdmin}).IsAdmin())
}
