package models

import "strconv"

// PermissionLevel is the ordered role set gating access to pages.
// Values match the privilege numbers used by the backend.
type PermissionLevel int

const (
	PermissionGuest     PermissionLevel = 1
	PermissionUser      PermissionLevel = 10
	PermissionEditor    PermissionLevel = 25
	PermissionModerator PermissionLevel = 50
	PermissionAdmin     PermissionLevel = 100
)

// PermissionLevels lists every known level from least to most privileged.
var PermissionLevels = []PermissionLevel{
	PermissionGuest,
	PermissionUser,
	PermissionEditor,
	PermissionModerator,
	PermissionAdmin,
}

// AtLeast reports whether p grants at least the privilege of required.
func (p PermissionLevel) AtLeast(required PermissionLevel) bool {
	return p >= required
}

func (p PermissionLevel) String() string {
	switch p {
	case PermissionGuest:
		return "guest"
	case PermissionUser:
		return "user"
	case PermissionEditor:
		return "editor"
	case PermissionModerator:
		return "moderator"
	case PermissionAdmin:
		return "admin"
	default:
		return "level_" + strconv.Itoa(int(p))
	}
}
