package entrystore

import (
	"sort"
	"time"
)

// OpKind is the kind of optimistic mutation awaiting its durable write.
type OpKind string

const (
	OpAdd    OpKind = "add"
	OpRemove OpKind = "remove"
)

// PendingOp is an optimistic mutation whose durable write has not resolved.
type PendingOp struct {
	ID        string    `json:"operation_id"`
	Kind      OpKind    `json:"kind"`
	EntryID   string    `json:"entry_id"`
	StartedAt time.Time `json:"started_at"`

	// rollback restores the snapshot as it was before the mutation. Called
	// with the store lock held.
	rollback func()
}

// pendingSet tracks in-flight operations. Not safe for concurrent use; the
// store's mutex guards it.
type pendingSet map[string]PendingOp

func (p pendingSet) add(op PendingOp) { p[op.ID] = op }

// resolve drops the operation and returns it.
func (p pendingSet) resolve(id string) (PendingOp, bool) {
	op, ok := p[id]
	delete(p, id)
	return op, ok
}

// hasAdd reports whether an add for entryID is still in flight.
func (p pendingSet) hasAdd(entryID string) bool {
	for _, op := range p {
		if op.Kind == OpAdd && op.EntryID == entryID {
			return true
		}
	}
	return false
}

// hasRemove reports whether a delete of entryID is still in flight.
func (p pendingSet) hasRemove(entryID string) bool {
	for _, op := range p {
		if op.Kind == OpRemove && op.EntryID == entryID {
			return true
		}
	}
	return false
}

func (p pendingSet) list() []PendingOp {
	out := make([]PendingOp, 0, len(p))
	for _, op := range p {
		op.rollback = nil
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}
