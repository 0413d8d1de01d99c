// Package guard decides whether a viewer may see a page.
package guard

import (
	"strconv"

	"github.com/hongminglow/gbans-web/internal/models"
)

// Decision is the outcome of a permission check.
type Decision int

const (
	Allow Decision = iota
	// DenyLogin asks an unauthenticated viewer to log in.
	DenyLogin
	// DenyPermission tells a logged-in viewer their role is insufficient.
	DenyPermission
	// RedirectBan sends a banned viewer to their ban page.
	RedirectBan
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyLogin:
		return "deny_login"
	case DenyPermission:
		return "deny_permission"
	case RedirectBan:
		return "redirect_ban"
	default:
		return "unknown"
	}
}

// Requirement describes what a protected route demands of its viewer.
type Requirement struct {
	Permission models.PermissionLevel
	// RedirectBanned sends banned viewers to their ban page before the role
	// check. Set on routes that file reports.
	RedirectBanned bool
}

// Require returns a requirement for the given minimum level.
func Require(level models.PermissionLevel) *Requirement {
	return &Requirement{Permission: level}
}

// RequireUnbanned returns a requirement that also diverts banned viewers.
func RequireUnbanned(level models.PermissionLevel) *Requirement {
	return &Requirement{Permission: level, RedirectBanned: true}
}

// Check compares the viewer's level against required.
func Check(required models.PermissionLevel, user models.UserProfile) Decision {
	if user.PermissionLevel.AtLeast(required) {
		return Allow
	}
	if !user.SteamID.Valid() {
		return DenyLogin
	}
	return DenyPermission
}

// Evaluate applies req to user. A nil requirement marks a public route.
func Evaluate(req *Requirement, user models.UserProfile) Decision {
	if req == nil {
		return Allow
	}
	if req.RedirectBanned && user.SteamID.Valid() && user.Banned() {
		return RedirectBan
	}
	return Check(req.Permission, user)
}

// BanPath is where RedirectBan sends the viewer.
func BanPath(user models.UserProfile) string {
	return "/ban/" + strconv.FormatInt(user.BanID, 10)
}
