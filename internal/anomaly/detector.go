package anomaly

import (
	"fmt"
	"sort"

	"fpl-strategy-mcp/internal/config"
	"fpl-strategy-mcp/internal/fixtures"
	"fpl-strategy-mcp/internal/model"
)

// Class is the fixture density of a cycle.
type Class int

const (
	Normal Class = iota
	Congested
	Sparse
)

func (c Class) String() string {
	switch c {
	case Congested:
		return "congested"
	case Sparse:
		return "sparse"
	default:
		return "normal"
	}
}

func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Class) UnmarshalText(b []byte) error {
	switch string(b) {
	case "normal", "":
		*c = Normal
	case "congested":
		*c = Congested
	case "sparse":
		*c = Sparse
	default:
		return fmt.Errorf("unknown cycle class %q", string(b))
	}
	return nil
}

// Signals that can produce a non-normal class.
const (
	SignalCount  = "count"
	SignalWindow = "window"
)

// CycleInfo describes one classified cycle.
type CycleInfo struct {
	Cycle          int     `json:"cycle"`
	Class          Class   `json:"class"`
	Signal         string  `json:"signal,omitempty"`
	Fixtures       int     `json:"fixtures"`
	MeanDifficulty float64 `json:"mean_difficulty"`
	Provisional    bool    `json:"provisional"`
	Doubles        []int   `json:"doubles"`
	Blanks         []int   `json:"blanks"`
}

// TeamClass is the class of the cycle from one team's point of view.
func (ci CycleInfo) TeamClass(team int) Class {
	for _, t := range ci.Doubles {
		if t == team {
			return Congested
		}
	}
	for _, t := range ci.Blanks {
		if t == team {
			return Sparse
		}
	}
	return Normal
}

// Detector classifies cycles from a fixture calendar.
type Detector struct {
	cfg        config.AnomalyConfig
	difficulty config.DifficultyConfig
}

func NewDetector(cfg config.AnomalyConfig, difficulty config.DifficultyConfig) *Detector {
	return &Detector{cfg: cfg, difficulty: difficulty}
}

// Classify labels each cycle in [fromCycle, fromCycle+horizon). The league
// fixture count decides first; for provisional cycles that count as normal,
// the configured likely windows may still mark them.
func (d *Detector) Classify(calendar []model.Fixture, fromCycle, horizon int) (map[int]CycleInfo, error) {
	if horizon <= 0 {
		return nil, model.InvalidHorizon("anomaly detector", horizon)
	}
	idx := fixtures.NewIndex(d.difficulty, calendar)
	teams := idx.Teams()

	last := 0
	for _, f := range calendar {
		if f.Cycle > last {
			last = f.Cycle
		}
	}

	out := make(map[int]CycleInfo, horizon)
	for cycle := fromCycle; cycle < fromCycle+horizon; cycle++ {
		info := CycleInfo{
			Cycle:          cycle,
			Fixtures:       idx.CycleFixtures(cycle),
			MeanDifficulty: idx.LeagueMean(cycle),
			Provisional:    idx.Unscheduled() > 0 || cycle > fromCycle+d.cfg.ProvisionalAfter,
			Doubles:        []int{},
			Blanks:         []int{},
		}
		scheduled := cycle <= last
		if scheduled {
			for _, t := range teams {
				switch n := idx.FixtureCount(t, cycle); {
				case n > 1:
					info.Doubles = append(info.Doubles, t)
				case n == 0:
					info.Blanks = append(info.Blanks, t)
				}
			}
			switch {
			case info.Fixtures > d.cfg.CongestedThreshold:
				info.Class, info.Signal = Congested, SignalCount
			case info.Fixtures < d.cfg.SparseThreshold:
				info.Class, info.Signal = Sparse, SignalCount
			}
		}
		if info.Class == Normal && info.Provisional {
			switch {
			case inWindows(d.cfg.LikelySparse, cycle):
				info.Class, info.Signal = Sparse, SignalWindow
			case inWindows(d.cfg.LikelyCongested, cycle):
				info.Class, info.Signal = Congested, SignalWindow
			}
		}
		out[cycle] = info
	}
	return out, nil
}

// Ordered returns the classified cycles sorted by cycle number.
func Ordered(classes map[int]CycleInfo) []CycleInfo {
	out := make([]CycleInfo, 0, len(classes))
	for _, ci := range classes {
		out = append(out, ci)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cycle < out[j].Cycle })
	return out
}

func inWindows(windows []config.CycleWindow, cycle int) bool {
	for _, w := range windows {
		if w.Contains(cycle) {
			return true
		}
	}
	return false
}
