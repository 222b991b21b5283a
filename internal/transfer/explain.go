package transfer

import (
	"fmt"
	"strings"

	"fpl-strategy-mcp/internal/fixtures"
	"fpl-strategy-mcp/internal/model"
)

// Rationale explains a candidate from the same numbers that scored it.
func Rationale(c model.TransferCandidate, horizon int, hitCost float64) string {
	parts := []string{
		fmt.Sprintf("projected %+.1f points over %d cycles (%.1f -> %.1f)", c.ProjectedGain, horizon, c.OutProjection, c.InProjection),
	}
	switch {
	case c.InDifficulty < c.OutDifficulty:
		parts = append(parts, fmt.Sprintf("fixture difficulty improves from %.1f to %.1f", c.OutDifficulty, c.InDifficulty))
	case c.InDifficulty > c.OutDifficulty:
		parts = append(parts, fmt.Sprintf("fixture difficulty worsens from %.1f to %.1f", c.OutDifficulty, c.InDifficulty))
	default:
		parts = append(parts, fmt.Sprintf("fixture difficulty unchanged at %.1f", c.OutDifficulty))
	}
	switch {
	case c.CostDelta > 0:
		parts = append(parts, fmt.Sprintf("costs %.1fm", c.CostDelta))
	case c.CostDelta < 0:
		parts = append(parts, fmt.Sprintf("frees %.1fm", -c.CostDelta))
	}
	if c.Hit {
		parts = append(parts, fmt.Sprintf("takes a %.0f-point hit", hitCost))
	}
	return strings.Join(parts, "; ")
}

// Timing finds the cycle within lookahead where the incoming member's fixture
// is most favourable relative to the outgoing member's. Ties keep the earliest.
func Timing(c model.TransferCandidate, index *fixtures.Index, fromCycle, lookahead int) model.TransferTiming {
	best := model.TransferTiming{Cycle: fromCycle}
	for i := 0; i < lookahead; i++ {
		cycle := fromCycle + i
		adv := index.DifficultyFor(c.OutTeam, cycle) - index.DifficultyFor(c.InTeam, cycle)
		if adv > best.Advantage {
			best.Advantage = adv
			best.Cycle = cycle
		}
	}
	best.Immediate = best.Cycle == fromCycle
	if best.Immediate {
		best.Reason = "make the transfer now"
	} else {
		best.Reason = fmt.Sprintf("fixture swing peaks in GW%d (+%d)", best.Cycle, best.Advantage)
	}
	return best
}
