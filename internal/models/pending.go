package models

// PendingKind tags the multi-step admin flow an actor is in the middle of.
type PendingKind string

const (
	PendingAddAdmin    PendingKind = "add_admin"
	PendingRemoveAdmin PendingKind = "remove_admin"
	PendingDeleteLink  PendingKind = "delete_link"
)

// PendingAction is the ephemeral per-actor slot: at most one per actor,
// overwritten by a newer request, consumed by the next free-text reply.
type PendingAction struct {
	ActorID int64       `json:"actor_id"`
	Kind    PendingKind `json:"kind"`
}
