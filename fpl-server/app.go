package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fpl-strategy-mcp/internal/config"
	"fpl-strategy-mcp/internal/fetch"
	"fpl-strategy-mcp/internal/metrics"
	"fpl-strategy-mcp/internal/model"
	"fpl-strategy-mcp/internal/plancache"
	"fpl-strategy-mcp/internal/planner"
	"fpl-strategy-mcp/internal/recorder"
	"fpl-strategy-mcp/internal/snapshot"
	"fpl-strategy-mcp/internal/store"
)

// app wires the planner to the snapshot store, persistence and metrics.
type app struct {
	cfg     *config.Config
	store   *store.JSONStore
	engine  *planner.Engine
	rec     recorder.Recorder
	cache   *plancache.Cache
	metrics *metrics.Registry
	client  *fetch.Client
	log     zerolog.Logger
}

func newApp(cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cache, err := plancache.New(cfg.Server.CacheSize)
	if err != nil {
		return nil, err
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Server.SQLitePath != "" {
		sqlite, err := recorder.NewSQLiteRecorder(cfg.Server.SQLitePath)
		if err != nil {
			return nil, err
		}
		rec = sqlite
	}

	st := store.NewJSONStore(cfg.Server.RawRoot)
	return &app{
		cfg:     cfg,
		store:   st,
		engine:  planner.New(*cfg, log.Logger),
		rec:     rec,
		cache:   cache,
		metrics: metrics.NewRegistry(),
		client:  fetch.NewClient(st, cfg.Server.BaseURL, cfg.Server.RateLimit),
		log:     log.With().Str("component", "app").Logger(),
	}, nil
}

func (a *app) Close() error {
	return a.rec.Close()
}

func (a *app) rules() snapshot.Rules {
	return snapshot.Rules{
		FreeTransferCap: a.cfg.Transfers.FreeTransferCap,
		ChipsPerSeason:  a.cfg.Chips.PerSeason,
	}
}

// loadEntry reads the season snapshot and the entry's squad as of gw
// (0 = the current gameweek).
func (a *app) loadEntry(entryID, gw int) (*snapshot.Season, *snapshot.Entry, error) {
	if entryID <= 0 {
		return nil, nil, fmt.Errorf("entry_id is required")
	}
	season, err := snapshot.LoadSeason(a.store)
	if err != nil {
		return nil, nil, err
	}
	gw, err = resolveGW(season, gw)
	if err != nil {
		return nil, nil, err
	}
	entry, err := season.LoadEntry(a.store, entryID, gw, a.rules())
	if err != nil {
		return nil, nil, err
	}
	return season, entry, nil
}

func resolveGW(season *snapshot.Season, gw int) (int, error) {
	if gw > 0 {
		return gw, nil
	}
	if season.CurrentCycle == 0 {
		return 0, fmt.Errorf("current gameweek unknown; pass gw")
	}
	return season.CurrentCycle, nil
}

// planOutput is a tool result that carries the id it was recorded under.
type planOutput interface {
	setPlanID(id string)
}

type TransferPlanOutput struct {
	PlanID  string               `json:"plan_id,omitempty"`
	EntryID int                  `json:"entry_id"`
	PicksGW int                  `json:"picks_gw"`
	Plan    planner.TransferPlan `json:"plan"`
}

func (o *TransferPlanOutput) setPlanID(id string) { o.PlanID = id }

type ChipPlanOutput struct {
	PlanID    string              `json:"plan_id,omitempty"`
	EntryID   int                 `json:"entry_id"`
	PicksGW   int                 `json:"picks_gw"`
	Bookmarks []recorder.Bookmark `json:"bookmarks"`
	Plan      planner.ChipPlan    `json:"plan"`
}

func (o *ChipPlanOutput) setPlanID(id string) { o.PlanID = id }

func (a *app) buildTransferPlan(args PlanTransfersArgs) ([]byte, error) {
	season, entry, err := a.loadEntry(args.EntryID, args.GW)
	if err != nil {
		return nil, err
	}
	budget := entry.Budget
	if args.FreeTransfers != nil {
		budget.FreeTransfers = *args.FreeTransfers
	}
	if args.Bank != nil {
		budget.Bank = *args.Bank
	}
	horizon := args.Horizon
	if horizon == 0 {
		horizon = a.cfg.Transfers.DefaultHorizon
	}
	maxSubs := args.MaxTransfers
	if maxSubs == 0 {
		maxSubs = a.cfg.Transfers.MaxSubstitutions
	}
	req := planner.TransferRequest{
		Roster:           entry.Roster,
		Pool:             entry.Pool,
		Calendar:         season.Calendar,
		Budget:           budget,
		MaxSubstitutions: maxSubs,
		AllowHitCost:     args.AllowHits,
		Horizon:          horizon,
		CurrentCycle:     planner.CurrentCycle(season.Calendar),
	}

	return a.cached(recorder.KindTransfers, args.EntryID, req, func() (int, planOutput, error) {
		start := time.Now()
		plan, err := a.engine.PlanTransfers(req)
		a.metrics.ObservePlan(recorder.KindTransfers, start, err)
		if err != nil {
			return 0, nil, err
		}
		a.metrics.Candidates.Observe(float64(plan.Considered))
		return plan.CurrentCycle, &TransferPlanOutput{EntryID: entry.EntryID, PicksGW: entry.Cycle, Plan: plan}, nil
	})
}

func (a *app) buildChipPlan(args PlanChipsArgs) ([]byte, error) {
	season, entry, err := a.loadEntry(args.EntryID, args.GW)
	if err != nil {
		return nil, err
	}
	bookmarks, err := a.rec.Bookmarks(entry.EntryID)
	if err != nil {
		return nil, err
	}
	horizon := args.Horizon
	if horizon == 0 {
		horizon = a.cfg.Chips.SeasonLength
	}
	req := planner.ChipRequest{
		Allotments:   recorder.ApplyLocked(entry.Chips, bookmarks),
		Calendar:     season.Calendar,
		Horizon:      horizon,
		CurrentCycle: planner.CurrentCycle(season.Calendar),
		FocusTeams:   entry.Teams(),
	}
	if bookmarks == nil {
		bookmarks = []recorder.Bookmark{}
	}

	return a.cached(recorder.KindChips, args.EntryID, req, func() (int, planOutput, error) {
		start := time.Now()
		plan, err := a.engine.PlanChips(req)
		a.metrics.ObservePlan(recorder.KindChips, start, err)
		if err != nil {
			return 0, nil, err
		}
		return plan.CurrentCycle, &ChipPlanOutput{EntryID: entry.EntryID, PicksGW: entry.Cycle, Bookmarks: bookmarks, Plan: plan}, nil
	})
}

// cached returns the stored output for an identical request, or computes,
// records and stores it. The recorded plan id is part of the cached output.
func (a *app) cached(kind string, entryID int, req any, compute func() (int, planOutput, error)) ([]byte, error) {
	key, err := plancache.Key(kind, req)
	if err != nil {
		return nil, err
	}
	if b, ok := a.cache.Get(key); ok {
		a.metrics.ObserveCache(kind, true)
		return b, nil
	}
	a.metrics.ObserveCache(kind, false)

	cycle, out, err := compute()
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	id, err := a.rec.RecordPlan(kind, entryID, cycle, body)
	if err != nil {
		a.log.Warn().Err(err).Str("kind", kind).Msg("record plan failed")
	}
	out.setPlanID(id)

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	a.cache.Add(key, b)
	return b, nil
}

// refresh downloads the shared snapshots and each entry's history and picks
// for the current gameweek, then drops cached plans.
func (a *app) refresh(ctx context.Context, entries []int) (err error) {
	defer func() { a.metrics.ObserveRefresh(err) }()

	if err := a.client.Refresh(ctx, 0, 0); err != nil {
		return err
	}
	season, err := snapshot.LoadSeason(a.store)
	if err != nil {
		return err
	}
	for _, id := range entries {
		if err := a.client.EntryHistory(ctx, id, true); err != nil {
			return fmt.Errorf("entry %d history: %w", id, err)
		}
		if season.CurrentCycle == 0 {
			continue
		}
		if err := a.client.EntryPicks(ctx, id, season.CurrentCycle, true); err != nil {
			return fmt.Errorf("entry %d picks: %w", id, err)
		}
	}
	a.cache.Purge()
	a.log.Info().Int("gw", season.CurrentCycle).Ints("entries", entries).Msg("snapshots refreshed")
	return nil
}

func (a *app) bookmark(args BookmarkChipArgs) ([]byte, error) {
	if args.EntryID <= 0 {
		return nil, fmt.Errorf("entry_id is required")
	}
	chip, err := model.ParseChipType(args.Chip)
	if err != nil {
		return nil, err
	}
	if args.GW < 1 || args.GW > a.cfg.Chips.SeasonLength {
		return nil, fmt.Errorf("gw must be between 1 and %d", a.cfg.Chips.SeasonLength)
	}
	if args.Remove {
		err = a.rec.DeleteBookmark(args.EntryID, chip, args.GW)
	} else {
		err = a.rec.SaveBookmark(recorder.Bookmark{EntryID: args.EntryID, Chip: chip, Cycle: args.GW, Locked: args.Locked})
	}
	if err != nil {
		return nil, err
	}
	// cached chip plans echo the bookmark list
	a.cache.Purge()

	bookmarks, err := a.rec.Bookmarks(args.EntryID)
	if err != nil {
		return nil, err
	}
	if bookmarks == nil {
		bookmarks = []recorder.Bookmark{}
	}
	return json.MarshalIndent(map[string]any{"entry_id": args.EntryID, "bookmarks": bookmarks}, "", "  ")
}
