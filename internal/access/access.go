// AngelaMos | 2026
// access.go

// Package access holds the authorization table for profile workflow
// transitions and the capability checks used by routes and services.
package access

import "slices"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleStoreUser Role = "store_user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleStoreUser
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Actor is the authenticated caller for the lifetime of one request. It is
// rebuilt from the stored profile on every request so status and role
// changes take effect without a new sign-in.
type Actor struct {
	ID          string
	Email       string
	Role        Role
	Status      Status
	FranchiseID string
	StoreID     string
	StoreIDs    []string

	// TokenVersion is bumped on sign-out everywhere and password changes.
	TokenVersion int
}

func (a *Actor) IsApproved() bool {
	return a != nil && a.Status == StatusApproved
}

func (a *Actor) IsAdmin() bool {
	return a.IsApproved() && a.Role == RoleAdmin
}

func (a *Actor) IsManagerOf(franchiseID string) bool {
	return a.IsApproved() &&
		a.Role == RoleManager &&
		franchiseID != "" &&
		a.FranchiseID == franchiseID
}

// LinkedTo reports whether the actor is attached to storeID either as the
// default store or through a link record.
func (a *Actor) LinkedTo(storeID string) bool {
	if a == nil || storeID == "" {
		return false
	}
	return a.StoreID == storeID || slices.Contains(a.StoreIDs, storeID)
}

// HasStore reports whether a store user has anywhere to work yet.
func (a *Actor) HasStore() bool {
	return a != nil && (a.StoreID != "" || len(a.StoreIDs) > 0)
}

type Action string

const (
	ActionApprove     Action = "approve"
	ActionReject      Action = "reject"
	ActionPromote     Action = "promote"
	ActionDemote      Action = "demote"
	ActionAssignStore Action = "assign_store"
	ActionUnlinkStore Action = "unlink_store"
	ActionEditProfile Action = "edit_profile"
)

// Target is the profile an action is applied to.
type Target struct {
	ID          string
	Role        Role
	Status      Status
	FranchiseID string
}

type rule struct {
	adminOnly       bool
	franchiseScoped bool
	allow           func(t Target) bool
}

var rules = map[Action]rule{
	ActionApprove: {
		franchiseScoped: true,
		allow: func(t Target) bool {
			return t.Status == StatusPending
		},
	},
	ActionReject: {
		franchiseScoped: true,
		allow: func(t Target) bool {
			return t.Role != RoleAdmin &&
				(t.Status == StatusPending || t.Status == StatusApproved)
		},
	},
	ActionPromote: {
		adminOnly: true,
		allow: func(t Target) bool {
			return t.Status == StatusApproved && t.Role == RoleStoreUser
		},
	},
	ActionDemote: {
		adminOnly: true,
		allow: func(t Target) bool {
			return t.Role == RoleManager
		},
	},
	ActionAssignStore: {
		franchiseScoped: true,
		allow: func(t Target) bool {
			return t.Role == RoleStoreUser && t.Status == StatusApproved
		},
	},
	ActionUnlinkStore: {
		franchiseScoped: true,
		allow: func(t Target) bool {
			return t.Role == RoleStoreUser
		},
	},
	ActionEditProfile: {
		franchiseScoped: true,
		allow: func(t Target) bool {
			return t.Role != RoleAdmin
		},
	},
}

// Can decides whether actor may apply action to target.
//
// Only approved managers and admins act on other profiles. Admins are never
// franchise scoped. Managers only reach targets inside their own franchise
// and only store users, since creating or removing a manager is reserved to
// admins. Editing one's own profile is always allowed once approved.
func Can(actor *Actor, action Action, target Target) bool {
	if !actor.IsApproved() {
		return false
	}

	r, ok := rules[action]
	if !ok {
		return false
	}

	if action == ActionEditProfile && actor.ID == target.ID {
		return true
	}

	switch actor.Role {
	case RoleAdmin:
		return r.allow(target)
	case RoleManager:
		if r.adminOnly {
			return false
		}
		if r.franchiseScoped && !actor.IsManagerOf(target.FranchiseID) {
			return false
		}
		if action != ActionApprove && target.Role != RoleStoreUser {
			return false
		}
		return r.allow(target)
	default:
		return false
	}
}

// CanViewFranchise covers reading a franchise's stores, users and dashboard.
func CanViewFranchise(actor *Actor, franchiseID string) bool {
	return actor.IsAdmin() || actor.IsManagerOf(franchiseID)
}

// CanManageFranchise covers creating, editing and deleting its stores.
func CanManageFranchise(actor *Actor, franchiseID string) bool {
	return CanViewFranchise(actor, franchiseID)
}

// CanAccessStore covers reading and writing a store's inventory.
func CanAccessStore(actor *Actor, storeID, storeFranchiseID string) bool {
	if !actor.IsApproved() {
		return false
	}

	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		return actor.IsManagerOf(storeFranchiseID)
	case RoleStoreUser:
		return actor.LinkedTo(storeID)
	}

	return false
}

// CanJoinStore is the self-service join: a store user with nowhere to work
// picks a store on their own.
func CanJoinStore(actor *Actor) bool {
	return actor.IsApproved() &&
		actor.Role == RoleStoreUser &&
		!actor.HasStore()
}
