// Package access holds the authorization policy for the workshop: pure
// decision functions over (actor, resource), no I/O. A denied action is
// always ErrDenied, never masked as not-found — handlers keep the two
// outcomes distinct.
package access

import (
	"errors"

	"souvenir/internal/domain"
)

var ErrDenied = errors.New("access denied")

// Actor is the decoded identity a request acts under. It comes from the
// verified token; the policy itself never touches tokens.
type Actor struct {
	ID   int64
	Role domain.Role
}

// CanCreateOrder: clients open orders for themselves, staff on behalf of
// any client, masters not at all.
func CanCreateOrder(actor Actor, clientID int64) error {
	if actor.Role.IsStaff() {
		return nil
	}
	if actor.Role == domain.RoleClient && actor.ID == clientID {
		return nil
	}
	return ErrDenied
}

// CanViewOrder: staff see everything, a client their own orders, a master
// the orders assigned to them.
func CanViewOrder(actor Actor, o *domain.Order) error {
	if actor.Role.IsStaff() {
		return nil
	}
	if actor.Role == domain.RoleClient && o.ClientID == actor.ID {
		return nil
	}
	if actor.Role == domain.RoleMaster && o.AssignedToID != nil && *o.AssignedToID == actor.ID {
		return nil
	}
	return ErrDenied
}

// OrderScope is the repository filter a role is allowed to list with.
// Nil fields mean unrestricted.
type OrderScope struct {
	ClientID     *int64
	AssignedToID *int64
}

func ScopeOrders(actor Actor) OrderScope {
	switch actor.Role {
	case domain.RoleClient:
		id := actor.ID
		return OrderScope{ClientID: &id}
	case domain.RoleMaster:
		id := actor.ID
		return OrderScope{AssignedToID: &id}
	default:
		return OrderScope{}
	}
}

// CanUpdateOrder gates field mutation (status, price, deadline,
// description). Staff update any order; a master only one assigned to
// them — an existing but foreign order is a denial, not a not-found.
// Reassignment is gated separately by CanAssignMaster.
func CanUpdateOrder(actor Actor, o *domain.Order) error {
	if actor.Role.IsStaff() {
		return nil
	}
	if actor.Role == domain.RoleMaster && o.AssignedToID != nil && *o.AssignedToID == actor.ID {
		return nil
	}
	return ErrDenied
}

// CanAssignMaster: only staff assign or reassign work.
func CanAssignMaster(actor Actor) error {
	if actor.Role.IsStaff() {
		return nil
	}
	return ErrDenied
}

// CanManagePhotos: the order's client manages its photos, staff may step
// in; masters never touch them.
func CanManagePhotos(actor Actor, o *domain.Order) error {
	if actor.Role.IsStaff() {
		return nil
	}
	if actor.Role == domain.RoleClient && o.ClientID == actor.ID {
		return nil
	}
	return ErrDenied
}

// CanListUsers: staff only.
func CanListUsers(actor Actor) error {
	if actor.Role.IsStaff() {
		return nil
	}
	return ErrDenied
}

// CanChangeRole: staff change roles, but an admin's role can only be
// touched by an admin — a manager cannot demote one.
func CanChangeRole(actor Actor, target *domain.User) error {
	if !actor.Role.IsStaff() {
		return ErrDenied
	}
	if target.Role == domain.RoleAdmin && actor.Role != domain.RoleAdmin {
		return ErrDenied
	}
	return nil
}
