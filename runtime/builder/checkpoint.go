package builder

import "github.com/aledsdavies/svelteparse/core/invariant"

// Checkpoint is a restore/marker pair used by grammars that may need to retry
// a region from just before a tentative node. Restore is the rollback target;
// Marker is the real node boundary.
type Checkpoint struct {
	Restore Marker
	Marker  Marker
}

// NewCheckpoint pairs two distinct markers.
func NewCheckpoint(restore, marker Marker) Checkpoint {
	invariant.Precondition(restore.IsValid() && marker.IsValid(), "checkpoint markers must be valid")
	invariant.Precondition(restore != marker, "checkpoint restore and marker must differ, both are %s", restore)
	return Checkpoint{Restore: restore, Marker: marker}
}

// CheckpointStack is the explicit backtracking stack of a speculative
// grammar. The zero value is ready to use.
type CheckpointStack struct {
	pairs []Checkpoint
}

// Push adds a checkpoint.
func (s *CheckpointStack) Push(cp Checkpoint) {
	s.pairs = append(s.pairs, cp)
}

// Pop removes and returns the newest checkpoint.
func (s *CheckpointStack) Pop() Checkpoint {
	invariant.Precondition(len(s.pairs) > 0, "pop from empty checkpoint stack")
	cp := s.pairs[len(s.pairs)-1]
	s.pairs = s.pairs[:len(s.pairs)-1]
	return cp
}

// Len returns the number of outstanding checkpoints.
func (s *CheckpointStack) Len() int { return len(s.pairs) }

// DropCheckpoint discards both markers of cp, the node boundary first.
func (b *Builder) DropCheckpoint(cp Checkpoint) {
	b.Drop(cp.Marker)
	b.Drop(cp.Restore)
}

// Unwind drops every outstanding checkpoint, newest first.
func (b *Builder) Unwind(s *CheckpointStack) {
	for s.Len() > 0 {
		b.DropCheckpoint(s.Pop())
	}
}
