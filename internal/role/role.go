package role

import "storefront-service/internal/model"

// Level maps a role name onto the strict hierarchy user(1) < store_admin(2)
// < owner(3). Unknown roles map to 0 and outrank nothing.
func Level(role string) int {
	switch role {
	case model.RoleUser:
		return 1
	case model.RoleStoreAdmin:
		return 2
	case model.RoleOwner:
		return 3
	}
	return 0
}

// IsStoreAdmin reports whether the role is store_admin or above
func IsStoreAdmin(role string) bool {
	return Level(role) >= Level(model.RoleStoreAdmin)
}

// IsOwner reports whether the role is owner
func IsOwner(role string) bool {
	return Level(role) >= Level(model.RoleOwner)
}

// CanManage reports whether an actor may manage (ban, promote, demote) a
// target. The actor must strictly outrank the target and an owner can never
// be targeted.
func CanManage(actorRole, targetRole string) bool {
	if targetRole == model.RoleOwner {
		return false
	}
	return Level(actorRole) > Level(targetRole)
}
