package main

import (
	"fmt"

	"fpl-strategy-mcp/internal/anomaly"
	"fpl-strategy-mcp/internal/fixtures"
	"fpl-strategy-mcp/internal/planner"
	"fpl-strategy-mcp/internal/projection"
	"fpl-strategy-mcp/internal/snapshot"
)

type FixtureOutlookOutput struct {
	FromGW  int               `json:"from_gw"`
	Horizon int               `json:"horizon"`
	Teams   []TeamOutlookItem `json:"teams"`
}

type TeamOutlookItem struct {
	TeamID         int     `json:"team_id"`
	TeamShort      string  `json:"team_short"`
	MeanDifficulty float64 `json:"mean_difficulty"`
	Difficulties   []int   `json:"difficulties"`
	FixtureCounts  []int   `json:"fixture_counts"`
}

type CycleAnomaliesOutput struct {
	FromGW  int                 `json:"from_gw"`
	Horizon int                 `json:"horizon"`
	Cycles  []anomaly.CycleInfo `json:"cycles"`
	Teams   map[int]string      `json:"teams"`
}

type PlayerProjectionOutput struct {
	ElementID int                  `json:"element_id"`
	Name      string               `json:"name"`
	TeamShort string               `json:"team_short"`
	Position  string               `json:"position"`
	Price     float64              `json:"price"`
	Breakdown projection.Breakdown `json:"breakdown"`
}

func (a *app) fromGW(season *snapshot.Season, gw int) int {
	if gw > 0 {
		return gw
	}
	return planner.CurrentCycle(season.Calendar)
}

func (a *app) buildFixtureOutlook(args FixtureOutlookArgs) ([]byte, error) {
	season, err := snapshot.LoadSeason(a.store)
	if err != nil {
		return nil, err
	}
	h := args.Horizon
	if h <= 0 {
		h = a.cfg.Transfers.DefaultHorizon
	}
	from := a.fromGW(season, args.FromGW)
	idx := fixtures.NewIndex(a.cfg.Difficulty, season.Calendar)

	teams := idx.Teams()
	if args.TeamID != 0 {
		if _, ok := season.TeamNames[args.TeamID]; !ok {
			return nil, fmt.Errorf("team not found: %d", args.TeamID)
		}
		teams = []int{args.TeamID}
	}

	out := FixtureOutlookOutput{FromGW: from, Horizon: h, Teams: make([]TeamOutlookItem, 0, len(teams))}
	for _, t := range teams {
		p := idx.ProfileFor(t, from, h)
		out.Teams = append(out.Teams, TeamOutlookItem{
			TeamID:         t,
			TeamShort:      season.TeamNames[t],
			MeanDifficulty: p.Mean(float64(idx.Neutral())),
			Difficulties:   p.Difficulties,
			FixtureCounts:  p.FixtureCounts,
		})
	}
	return marshalIndent(out)
}

func (a *app) buildCycleAnomalies(args CycleAnomaliesArgs) ([]byte, error) {
	season, err := snapshot.LoadSeason(a.store)
	if err != nil {
		return nil, err
	}
	h := args.Horizon
	if h <= 0 {
		h = 10
	}
	from := a.fromGW(season, args.FromGW)
	classes, err := a.engine.Detector().Classify(season.Calendar, from, h)
	if err != nil {
		return nil, err
	}
	return marshalIndent(CycleAnomaliesOutput{
		FromGW:  from,
		Horizon: h,
		Cycles:  anomaly.Ordered(classes),
		Teams:   season.TeamNames,
	})
}

func (a *app) buildPlayerProjection(args PlayerProjectionArgs) ([]byte, error) {
	if args.ElementID <= 0 {
		return nil, fmt.Errorf("element_id is required")
	}
	season, err := snapshot.LoadSeason(a.store)
	if err != nil {
		return nil, err
	}
	m, ok := season.Member(args.ElementID)
	if !ok {
		return nil, fmt.Errorf("player not found: %d", args.ElementID)
	}
	h := args.Horizon
	if h == 0 {
		h = a.cfg.Transfers.DefaultHorizon
	}
	b, err := a.engine.Projections(season.Calendar, a.fromGW(season, args.FromGW)).Breakdown(m, h)
	if err != nil {
		return nil, err
	}
	return marshalIndent(PlayerProjectionOutput{
		ElementID: m.ID,
		Name:      m.Name,
		TeamShort: season.TeamNames[m.TeamID],
		Position:  m.Role.String(),
		Price:     m.Price,
		Breakdown: b,
	})
}
