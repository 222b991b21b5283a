package transfer

import (
	"sort"

	"fpl-strategy-mcp/internal/config"
	"fpl-strategy-mcp/internal/model"
)

// Selection is the outcome of one greedy pass.
type Selection struct {
	Accepted  []model.TransferCandidate `json:"accepted"`
	FreeUsed  int                       `json:"free_used"`
	Hits      int                       `json:"hits"`
	HitCost   float64                   `json:"hit_cost"`
	Spent     float64                   `json:"spent"`
	Remaining float64                   `json:"remaining"`
}

// Selector picks a non-overlapping subset of candidates by value ratio.
type Selector struct {
	cfg config.TransferConfig
}

func NewSelector(cfg config.TransferConfig) *Selector {
	return &Selector{cfg: cfg}
}

// Select walks candidates in descending value-ratio order (ties keep input
// order) and accepts each one whose members are unused, whose cost fits the
// remaining funds, and which clears the hit threshold once free transfers
// run out. The input slice is not modified.
func (s *Selector) Select(candidates []model.TransferCandidate, budget model.BudgetState, maxSubstitutions int, allowHitCost bool) Selection {
	sel := Selection{
		Accepted:  make([]model.TransferCandidate, 0),
		Remaining: budget.Bank,
	}
	if maxSubstitutions <= 0 || len(candidates) == 0 {
		return sel
	}

	ordered := make([]model.TransferCandidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ValueRatio > ordered[j].ValueRatio
	})

	free := budget.FreeTransfers
	if free < 0 {
		free = 0
	}
	if free > s.cfg.FreeTransferCap {
		free = s.cfg.FreeTransferCap
	}

	usedOut := make(map[int]bool)
	usedIn := make(map[int]bool)
	for _, c := range ordered {
		if len(sel.Accepted) >= maxSubstitutions {
			break
		}
		if usedOut[c.OutID] || usedIn[c.InID] {
			continue
		}
		if c.CostDelta > sel.Remaining+1e-9 {
			continue
		}
		hit := len(sel.Accepted) >= free
		if hit && (!allowHitCost || c.ProjectedGain <= s.cfg.HitCost) {
			continue
		}

		c.Hit = hit
		c.Priority = len(sel.Accepted) + 1
		sel.Accepted = append(sel.Accepted, c)
		usedOut[c.OutID] = true
		usedIn[c.InID] = true
		sel.Remaining = roundTenth(sel.Remaining - c.CostDelta)
		sel.Spent = roundTenth(sel.Spent + c.CostDelta)
		if hit {
			sel.Hits++
			sel.HitCost += s.cfg.HitCost
		} else {
			sel.FreeUsed++
		}
	}
	return sel
}
