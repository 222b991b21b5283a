package planner

import (
	"github.com/rs/zerolog"

	"fpl-strategy-mcp/internal/anomaly"
	"fpl-strategy-mcp/internal/chips"
	"fpl-strategy-mcp/internal/config"
	"fpl-strategy-mcp/internal/fixtures"
	"fpl-strategy-mcp/internal/model"
	"fpl-strategy-mcp/internal/projection"
	"fpl-strategy-mcp/internal/transfer"
)

// Error identifies the component that rejected a request and the input at fault.
type Error = model.ComponentError

var (
	ErrInvalidHorizon = model.ErrInvalidHorizon
	ErrInvalidBudget  = model.ErrInvalidBudget
)

// TransferRequest is everything one transfer plan is computed from.
// CurrentCycle 0 means derive it from the calendar.
type TransferRequest struct {
	Roster           []model.RosterMember `json:"roster"`
	Pool             []model.RosterMember `json:"pool"`
	Calendar         []model.Fixture      `json:"calendar"`
	Budget           model.BudgetState    `json:"budget"`
	MaxSubstitutions int                  `json:"max_substitutions"`
	AllowHitCost     bool                 `json:"allow_hit_cost"`
	Horizon          int                  `json:"horizon"`
	CurrentCycle     int                  `json:"current_cycle,omitempty"`
}

type TransferPlan struct {
	CurrentCycle int                       `json:"current_cycle"`
	Horizon      int                       `json:"horizon"`
	Considered   int                       `json:"candidates_considered"`
	Transfers    []model.TransferCandidate `json:"transfers"`
	FreeUsed     int                       `json:"free_used"`
	Hits         int                       `json:"hits"`
	HitCost      float64                   `json:"hit_cost"`
	Spent        float64                   `json:"spent"`
	Remaining    float64                   `json:"remaining"`
}

// ChipRequest is everything one chip plan is computed from. FocusTeams is
// optional; when set, difficulty is judged from those teams' fixtures.
type ChipRequest struct {
	Allotments   []model.ChipAllotment `json:"allotments"`
	Calendar     []model.Fixture       `json:"calendar"`
	Horizon      int                   `json:"horizon"`
	CurrentCycle int                   `json:"current_cycle,omitempty"`
	FocusTeams   []int                 `json:"focus_teams,omitempty"`
}

type ChipPlan struct {
	CurrentCycle int                    `json:"current_cycle"`
	Horizon      int                    `json:"horizon"`
	Assignments  []model.ChipAssignment `json:"assignments"`
	Cycles       []anomaly.CycleInfo    `json:"cycles"`
}

// Engine runs both planning pipelines. It keeps no state between calls, so a
// single Engine may serve concurrent requests.
type Engine struct {
	cfg config.Config
	log zerolog.Logger
}

func New(cfg config.Config, logger zerolog.Logger) *Engine {
	return &Engine{cfg: cfg, log: logger.With().Str("component", "planner").Logger()}
}

// Config returns the heuristics the engine was built with.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// PlanTransfers searches the pool for upgrades and greedily selects the
// substitutions to make this cycle.
func (e *Engine) PlanTransfers(req TransferRequest) (TransferPlan, error) {
	if req.Horizon <= 0 {
		return TransferPlan{}, model.InvalidHorizon("transfer planner", req.Horizon)
	}
	if req.Budget.Bank < 0 {
		return TransferPlan{}, &Error{Component: "transfer planner", Input: "budget", Err: ErrInvalidBudget}
	}

	current := req.CurrentCycle
	if current <= 0 {
		current = CurrentCycle(req.Calendar)
	}
	idx := fixtures.NewIndex(e.cfg.Difficulty, req.Calendar)
	search := transfer.NewSearch(e.cfg, projection.New(e.cfg.Projection, idx, current), req.Horizon)

	candidates, err := search.FindCandidates(req.Roster, req.Pool, req.Budget)
	if err != nil {
		return TransferPlan{}, err
	}
	e.log.Debug().
		Int("cycle", current).
		Int("roster", len(req.Roster)).
		Int("pool", len(req.Pool)).
		Int("candidates", len(candidates)).
		Msg("candidate search complete")

	sel := transfer.NewSelector(e.cfg.Transfers).Select(candidates, req.Budget, req.MaxSubstitutions, req.AllowHitCost)
	for i := range sel.Accepted {
		c := &sel.Accepted[i]
		c.Rationale = transfer.Rationale(*c, req.Horizon, e.cfg.Transfers.HitCost)
		timing := transfer.Timing(*c, idx, current, e.cfg.Transfers.TimingLookahead)
		c.Timing = &timing
	}
	e.log.Debug().
		Int("accepted", len(sel.Accepted)).
		Int("hits", sel.Hits).
		Float64("remaining", sel.Remaining).
		Msg("transfer selection complete")

	return TransferPlan{
		CurrentCycle: current,
		Horizon:      req.Horizon,
		Considered:   len(candidates),
		Transfers:    sel.Accepted,
		FreeUsed:     sel.FreeUsed,
		Hits:         sel.Hits,
		HitCost:      sel.HitCost,
		Spent:        sel.Spent,
		Remaining:    sel.Remaining,
	}, nil
}

// PlanChips classifies the cycles ahead and assigns each remaining chip.
// The scan never runs past the end of the season.
func (e *Engine) PlanChips(req ChipRequest) (ChipPlan, error) {
	if req.Horizon <= 0 {
		return ChipPlan{}, model.InvalidHorizon("chip planner", req.Horizon)
	}

	current := req.CurrentCycle
	if current <= 0 {
		current = CurrentCycle(req.Calendar)
	}
	plan := ChipPlan{
		CurrentCycle: current,
		Horizon:      req.Horizon,
		Assignments:  []model.ChipAssignment{},
		Cycles:       []anomaly.CycleInfo{},
	}
	horizon := req.Horizon
	if left := e.cfg.Chips.SeasonLength - current; horizon > left {
		horizon = left
	}
	if horizon <= 0 {
		return plan, nil
	}

	classes, err := e.Detector().Classify(req.Calendar, current+1, horizon)
	if err != nil {
		return ChipPlan{}, err
	}
	idx := fixtures.NewIndex(e.cfg.Difficulty, req.Calendar)
	plan.Assignments = chips.NewScheduler(e.cfg.Chips).Schedule(req.Allotments, classes, idx, current, req.FocusTeams)
	plan.Cycles = anomaly.Ordered(classes)

	e.log.Debug().
		Int("cycle", current).
		Int("horizon", horizon).
		Int("assignments", len(plan.Assignments)).
		Msg("chip schedule complete")
	return plan, nil
}

// Detector returns an anomaly detector configured like the engine's.
func (e *Engine) Detector() *anomaly.Detector {
	return anomaly.NewDetector(e.cfg.Anomaly, e.cfg.Difficulty)
}

// Projections returns a projection model for calendar starting at fromCycle.
func (e *Engine) Projections(calendar []model.Fixture, fromCycle int) *projection.Model {
	if fromCycle <= 0 {
		fromCycle = CurrentCycle(calendar)
	}
	return projection.New(e.cfg.Projection, fixtures.NewIndex(e.cfg.Difficulty, calendar), fromCycle)
}

// CurrentCycle is the earliest cycle that still has an unfinished fixture.
// A fully finished calendar yields the cycle after the last one; an empty
// calendar yields 1.
func CurrentCycle(calendar []model.Fixture) int {
	current, last := 0, 0
	for _, f := range calendar {
		if f.Cycle <= 0 {
			continue
		}
		if f.Cycle > last {
			last = f.Cycle
		}
		if !f.Finished && (current == 0 || f.Cycle < current) {
			current = f.Cycle
		}
	}
	if current == 0 {
		current = last + 1
	}
	return current
}
