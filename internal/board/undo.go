package board

// UndoCapacity bounds the per-board history. Oldest records are evicted
// first; this is best-effort memory-only undo, not a durable log.
const UndoCapacity = 20

// UndoKind tags an undo record with the edit it reverses.
type UndoKind int

const (
	// UndoAdd reverses an insert: undo deletes the object.
	UndoAdd UndoKind = iota
	// UndoRemove reverses a removal: undo re-inserts the objects.
	UndoRemove
	// UndoModify reverses an overwrite: undo restores the previous values.
	UndoModify
)

// UndoRecord stores only the prior state needed to reverse one edit.
type UndoRecord struct {
	Kind    UndoKind
	Objects []Object
}

// UndoStacks holds one bounded LIFO stack per board. A board has no stack
// entry until its first push. Not self-locking.
type UndoStacks struct {
	stacks map[int64][]UndoRecord
}

func NewUndoStacks() *UndoStacks {
	return &UndoStacks{stacks: make(map[int64][]UndoRecord)}
}

// Push appends a record for the board, evicting the oldest when the stack
// exceeds UndoCapacity.
func (u *UndoStacks) Push(wbID int64, r UndoRecord) {
	st := append(u.stacks[wbID], r)
	if len(st) > UndoCapacity {
		st = st[len(st)-UndoCapacity:]
	}
	u.stacks[wbID] = st
}

// Pop removes and returns the most recent record for the board.
func (u *UndoStacks) Pop(wbID int64) (UndoRecord, bool) {
	st := u.stacks[wbID]
	if len(st) == 0 {
		return UndoRecord{}, false
	}
	r := st[len(st)-1]
	u.stacks[wbID] = st[:len(st)-1]
	return r, true
}

// Len returns the stack depth for the board.
func (u *UndoStacks) Len(wbID int64) int {
	return len(u.stacks[wbID])
}

// Drop discards the board's history, used when the board is removed.
func (u *UndoStacks) Drop(wbID int64) {
	delete(u.stacks, wbID)
}
