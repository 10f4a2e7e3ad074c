// Package access decides which actors may run which operations. The policy
// is a pure function of the current role set; it keeps no state of its own.
package access

import "context"

type Operation string

const (
	OpUpload      Operation = "upload"
	OpResolve     Operation = "resolve"
	OpDestroyLink Operation = "destroy-link"
	OpListLinks   Operation = "list-links"
	OpListAdmins  Operation = "list-admins"
	OpAddAdmin    Operation = "add-admin"
	OpRemoveAdmin Operation = "remove-admin"
)

type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleRegular Role = "regular"
)

// Roster answers whether a user is in the admin set; the store implements it.
type Roster interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

type Policy struct {
	ownerID int64
	roster  Roster
}

func New(ownerID int64, roster Roster) *Policy {
	return &Policy{ownerID: ownerID, roster: roster}
}

func (p *Policy) OwnerID() int64 {
	return p.ownerID
}

func (p *Policy) Role(ctx context.Context, userID int64) (Role, error) {
	if userID == p.ownerID {
		return RoleOwner, nil
	}
	isAdmin, err := p.roster.IsAdmin(ctx, userID)
	if err != nil {
		return RoleRegular, err
	}
	if isAdmin {
		return RoleAdmin, nil
	}
	return RoleRegular, nil
}

// Allows reports whether the actor may run the operation, ignoring any
// target. Target-dependent denials live in AllowsTarget.
func (p *Policy) Allows(ctx context.Context, actorID int64, op Operation) (bool, error) {
	if op == OpResolve {
		return true, nil
	}

	role, err := p.Role(ctx, actorID)
	if err != nil {
		return false, err
	}

	switch op {
	case OpUpload, OpDestroyLink, OpListLinks, OpListAdmins:
		return role == RoleOwner || role == RoleAdmin, nil
	case OpAddAdmin, OpRemoveAdmin:
		return role == RoleOwner, nil
	default:
		return false, nil
	}
}

// AllowsTarget applies the target-dependent rules: nobody removes the owner,
// nobody removes themselves.
func (p *Policy) AllowsTarget(ctx context.Context, actorID, targetID int64, op Operation) (bool, error) {
	if op == OpRemoveAdmin {
		if targetID == p.ownerID || targetID == actorID {
			return false, nil
		}
	}
	return p.Allows(ctx, actorID, op)
}
