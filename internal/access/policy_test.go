package access

import (
	"context"
	"errors"
	"testing"
)

const (
	ownerID   = int64(1000)
	adminID   = int64(2000)
	regularID = int64(3000)
)

type fakeRoster struct {
	admins map[int64]bool
	err    error
}

func (r *fakeRoster) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	return r.admins[userID], nil
}

func newTestPolicy() *Policy {
	return New(ownerID, &fakeRoster{admins: map[int64]bool{adminID: true}})
}

func TestRole(t *testing.T) {
	p := newTestPolicy()
	ctx := context.Background()

	tests := []struct {
		userID int64
		want   Role
	}{
		{ownerID, RoleOwner},
		{adminID, RoleAdmin},
		{regularID, RoleRegular},
	}
	for _, tt := range tests {
		got, err := p.Role(ctx, tt.userID)
		if err != nil {
			t.Fatalf("Role(%d) error = %v", tt.userID, err)
		}
		if got != tt.want {
			t.Errorf("Role(%d) = %q, want %q", tt.userID, got, tt.want)
		}
	}
}

func TestRoleOwnerSkipsRoster(t *testing.T) {
	// Owner status comes from config alone; a broken roster must not matter.
	p := New(ownerID, &fakeRoster{err: errors.New("store down")})

	role, err := p.Role(context.Background(), ownerID)
	if err != nil || role != RoleOwner {
		t.Errorf("Role(owner) = (%q, %v), want (owner, nil)", role, err)
	}
}

func TestAllows(t *testing.T) {
	p := newTestPolicy()
	ctx := context.Background()

	tests := []struct {
		name    string
		actorID int64
		op      Operation
		want    bool
	}{
		{"owner upload", ownerID, OpUpload, true},
		{"admin upload", adminID, OpUpload, true},
		{"regular upload", regularID, OpUpload, false},
		{"owner destroy", ownerID, OpDestroyLink, true},
		{"admin destroy", adminID, OpDestroyLink, true},
		{"regular destroy", regularID, OpDestroyLink, false},
		{"admin list links", adminID, OpListLinks, true},
		{"regular list links", regularID, OpListLinks, false},
		{"admin list admins", adminID, OpListAdmins, true},
		{"owner add admin", ownerID, OpAddAdmin, true},
		{"admin add admin", adminID, OpAddAdmin, false},
		{"regular add admin", regularID, OpAddAdmin, false},
		{"owner remove admin", ownerID, OpRemoveAdmin, true},
		{"admin remove admin", adminID, OpRemoveAdmin, false},
		{"regular resolve", regularID, OpResolve, true},
		{"owner resolve", ownerID, OpResolve, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Allows(ctx, tt.actorID, tt.op)
			if err != nil {
				t.Fatalf("Allows() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Allows(%d, %s) = %v, want %v", tt.actorID, tt.op, got, tt.want)
			}
		})
	}
}

func TestAllowsTarget(t *testing.T) {
	p := newTestPolicy()
	ctx := context.Background()

	tests := []struct {
		name     string
		actorID  int64
		targetID int64
		op       Operation
		want     bool
	}{
		{"owner removes admin", ownerID, adminID, OpRemoveAdmin, true},
		{"owner removes self", ownerID, ownerID, OpRemoveAdmin, false},
		{"owner removed as target", ownerID, ownerID, OpRemoveAdmin, false},
		{"admin targets owner", adminID, ownerID, OpRemoveAdmin, false},
		{"target rule ignored for add", ownerID, ownerID, OpAddAdmin, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.AllowsTarget(ctx, tt.actorID, tt.targetID, tt.op)
			if err != nil {
				t.Fatalf("AllowsTarget() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("AllowsTarget(%d, %d, %s) = %v, want %v",
					tt.actorID, tt.targetID, tt.op, got, tt.want)
			}
		})
	}
}
