package model

import (
	"fmt"
	"strings"
)

// ChipType is one of the four season-long special actions.
type ChipType int

const (
	Wildcard ChipType = iota + 1
	BenchBoost
	TripleCaptain
	FreeHit
)

// ChipTypes lists chip types in scheduling priority order.
var ChipTypes = []ChipType{Wildcard, BenchBoost, TripleCaptain, FreeHit}

// String returns the FPL API chip name.
func (c ChipType) String() string {
	switch c {
	case Wildcard:
		return "wildcard"
	case BenchBoost:
		return "bboost"
	case TripleCaptain:
		return "3xc"
	case FreeHit:
		return "freehit"
	default:
		return "unknown"
	}
}

// Label is the human-readable action name.
func (c ChipType) Label() string {
	switch c {
	case Wildcard:
		return "full restructure"
	case BenchBoost:
		return "bench score"
	case TripleCaptain:
		return "captain multiplier"
	case FreeHit:
		return "squad swap"
	default:
		return "unknown"
	}
}

// Rank is the priority of the type in schedule output, 1 first.
func (c ChipType) Rank() int {
	return int(c)
}

func (c ChipType) MarshalText() ([]byte, error) {
	if c < Wildcard || c > FreeHit {
		return nil, fmt.Errorf("invalid chip type %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *ChipType) UnmarshalText(b []byte) error {
	t, err := ParseChipType(string(b))
	if err != nil {
		return err
	}
	*c = t
	return nil
}

// ParseChipType accepts FPL API names and the descriptive aliases.
func ParseChipType(s string) (ChipType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wildcard", "wc", "full-restructure", "full_restructure":
		return Wildcard, nil
	case "bboost", "bench_boost", "bb", "bench-score", "bench_score":
		return BenchBoost, nil
	case "3xc", "triple_captain", "tc", "captain-multiplier", "captain_multiplier":
		return TripleCaptain, nil
	case "freehit", "free_hit", "fh", "squad-swap", "squad_swap":
		return FreeHit, nil
	}
	return 0, fmt.Errorf("unknown chip %q", s)
}

// ChipAllotment is the remaining count for one chip type plus the cycles
// already committed to it, which planning must not reassign. Used holds the
// cycles the chip was already played in; Remaining counts neither Used nor
// Locked.
type ChipAllotment struct {
	Type      ChipType `json:"type"`
	Remaining int      `json:"remaining"`
	Used      []int    `json:"used,omitempty"`
	Locked    []int    `json:"locked,omitempty"`
}

// ChipAssignment is a planned use of one allotment.
type ChipAssignment struct {
	Type      ChipType `json:"type"`
	Cycle     int      `json:"cycle"`
	Priority  int      `json:"priority"`
	Allotment int      `json:"allotment"`
	Score     float64  `json:"score"`
	Rationale string   `json:"rationale"`
}
