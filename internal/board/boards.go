package board

import (
	"fmt"

	"github.com/google/uuid"
)

// Localized default board names, keyed by language id. Unknown languages
// fall back to English.
var boardLabels = map[int64]string{
	1: "Whiteboard",
	6: "Pizarra",
	7: "Tableau blanc",
	8: "Whiteboard",
}

// DefaultName returns the default name for the n-th board in a room.
func DefaultName(languageID, n int64) string {
	label, ok := boardLabels[languageID]
	if !ok {
		label = boardLabels[1]
	}
	return fmt.Sprintf("%s %d", label, n)
}

// Whiteboards owns all boards of one room in creation order, the active
// board pointer and the room-session correlation uid. Not self-locking.
type Whiteboards struct {
	roomID int64
	uid    string

	boards map[int64]*Whiteboard
	order  []int64
	active int64
	nextID int64
}

func NewWhiteboards(roomID int64) *Whiteboards {
	return &Whiteboards{
		roomID: roomID,
		uid:    uuid.NewString(),
		boards: make(map[int64]*Whiteboard),
	}
}

func (s *Whiteboards) RoomID() int64 { return s.roomID }

// UID is the room-session correlation token; it disambiguates broadcasts
// from the same room across reconnects.
func (s *Whiteboards) UID() string { return s.uid }

func (s *Whiteboards) Len() int { return len(s.boards) }

// Add creates the next board; the first board created becomes active.
func (s *Whiteboards) Add(languageID int64) *Whiteboard {
	s.nextID++
	wb := NewWhiteboard(s.nextID, DefaultName(languageID, s.nextID))
	s.boards[wb.ID()] = wb
	s.order = append(s.order, wb.ID())
	if len(s.boards) == 1 {
		s.active = wb.ID()
	}
	return wb
}

// Remove deletes the board. When the active board is removed the active
// pointer moves to the lowest remaining id, or becomes absent.
func (s *Whiteboards) Remove(id int64) bool {
	if _, ok := s.boards[id]; !ok {
		return false
	}
	delete(s.boards, id)
	for i, bid := range s.order {
		if bid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.active == id {
		s.active = 0
		for bid := range s.boards {
			if s.active == 0 || bid < s.active {
				s.active = bid
			}
		}
	}
	return true
}

// Activate makes id the active board; unknown ids are a no-op.
func (s *Whiteboards) Activate(id int64) bool {
	if _, ok := s.boards[id]; !ok {
		return false
	}
	s.active = id
	return true
}

// Active returns the active board id; false when the room has no boards.
func (s *Whiteboards) Active() (int64, bool) {
	return s.active, s.active != 0
}

func (s *Whiteboards) Get(id int64) (*Whiteboard, bool) {
	wb, ok := s.boards[id]
	return wb, ok
}

// List returns all boards in creation order.
func (s *Whiteboards) List() []*Whiteboard {
	out := make([]*Whiteboard, 0, len(s.boards))
	for _, id := range s.order {
		out = append(out, s.boards[id])
	}
	return out
}
