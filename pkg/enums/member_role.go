package enums

import "fmt"

// MemberRole is the vendor-level permissions role carried in access tokens.
// Roles are ordered: an owner can do anything a manager can, and a manager
// anything staff can.
type MemberRole string

const (
	MemberRoleOwner   MemberRole = "owner"
	MemberRoleManager MemberRole = "manager"
	MemberRoleStaff   MemberRole = "staff"
)

var memberRoleRank = map[MemberRole]int{
	MemberRoleStaff:   1,
	MemberRoleManager: 2,
	MemberRoleOwner:   3,
}

func (m MemberRole) String() string { return string(m) }

func (m MemberRole) IsValid() bool {
	_, ok := memberRoleRank[m]
	return ok
}

// AtLeast reports whether m grants everything min grants. Unknown roles
// grant nothing.
func (m MemberRole) AtLeast(min MemberRole) bool {
	have, ok := memberRoleRank[m]
	return ok && have >= memberRoleRank[min]
}

// ParseMemberRole converts raw input into a MemberRole.
func ParseMemberRole(value string) (MemberRole, error) {
	role := MemberRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid member role %q", value)
	}
	return role, nil
}
