// AngelaMos | 2026
// level.go

package access

// Level is the protection attached to a route.
type Level int

const (
	LevelNone Level = iota
	LevelAuthenticated
	LevelApproved
	LevelManager
	LevelAdmin
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelAuthenticated:
		return "authenticated"
	case LevelApproved:
		return "approved"
	case LevelManager:
		return "manager"
	case LevelAdmin:
		return "admin"
	}
	return "unknown"
}

type Decision int

const (
	Allow Decision = iota
	Unauthenticated
	Pending
	Forbidden
)

// Check is the route level capability check. It is coarse: services still
// check the data scope of each row they touch.
func Check(actor *Actor, level Level) Decision {
	if level == LevelNone {
		return Allow
	}

	if actor == nil || actor.ID == "" {
		return Unauthenticated
	}

	if level == LevelAuthenticated {
		return Allow
	}

	switch actor.Status {
	case StatusPending:
		return Pending
	case StatusApproved:
	default:
		return Forbidden
	}

	switch level {
	case LevelManager:
		if actor.Role != RoleManager && actor.Role != RoleAdmin {
			return Forbidden
		}
	case LevelAdmin:
		if actor.Role != RoleAdmin {
			return Forbidden
		}
	}

	return Allow
}
