package recorder

import (
	"sort"
	"time"

	"fpl-strategy-mcp/internal/model"
)

// Plan kinds.
const (
	KindTransfers = "transfers"
	KindChips     = "chips"
)

// PlanRecord is one stored plan.
type PlanRecord struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	EntryID   int       `json:"entry_id"`
	Cycle     int       `json:"cycle"`
	Body      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmark is a manager's chosen cycle for a chip. Locked bookmarks are
// excluded from re-planning.
type Bookmark struct {
	EntryID   int            `json:"entry_id"`
	Chip      model.ChipType `json:"chip"`
	Cycle     int            `json:"cycle"`
	Locked    bool           `json:"locked"`
	UpdatedAt time.Time      `json:"updated_at"`
}

var (
	_ Recorder = (*SQLiteRecorder)(nil)
	_ Recorder = (*NoopRecorder)(nil)
)

// Recorder persists plans and chip bookmarks.
type Recorder interface {
	RecordPlan(kind string, entryID, cycle int, body []byte) (string, error)
	Plans(entryID, limit int) ([]PlanRecord, error)
	SaveBookmark(b Bookmark) error
	DeleteBookmark(entryID int, chip model.ChipType, cycle int) error
	Bookmarks(entryID int) ([]Bookmark, error)
	Close() error
}

// ApplyLocked copies locked bookmark cycles into the matching allotments and
// returns the result. Each newly locked cycle takes one allotment out of
// Remaining, since a locked chip is already spoken for. Bookmarks on a cycle
// the chip was already played in are ignored.
func ApplyLocked(allotments []model.ChipAllotment, bookmarks []Bookmark) []model.ChipAllotment {
	locked := make(map[model.ChipType][]int)
	for _, b := range bookmarks {
		if b.Locked {
			locked[b.Chip] = append(locked[b.Chip], b.Cycle)
		}
	}
	out := make([]model.ChipAllotment, len(allotments))
	for i, a := range allotments {
		played := make(map[int]bool, len(a.Used))
		for _, c := range a.Used {
			played[c] = true
		}
		merged := append([]int{}, a.Locked...)
		for _, c := range locked[a.Type] {
			if !played[c] {
				merged = append(merged, c)
			}
		}
		before := len(dedupe(sorted(a.Locked)))
		a.Locked = dedupe(sorted(merged))
		a.Remaining -= len(a.Locked) - before
		if a.Remaining < 0 {
			a.Remaining = 0
		}
		out[i] = a
	}
	return out
}

func sorted(v []int) []int {
	out := append([]int{}, v...)
	sort.Ints(out)
	return out
}

func dedupe(vals []int) []int {
	if len(vals) == 0 {
		return nil
	}
	out := vals[:1]
	for _, v := range vals[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
