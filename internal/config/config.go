package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the server settings and every tunable planning heuristic.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
	Projection ProjectionConfig `yaml:"projection"`
	Transfers  TransferConfig   `yaml:"transfers"`
	Anomaly    AnomalyConfig    `yaml:"anomaly"`
	Chips      ChipConfig       `yaml:"chips"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MCPPath     string `yaml:"mcp_path"`
	RawRoot     string `yaml:"raw_root"`
	SQLitePath  string `yaml:"sqlite_path"`
	APIKey      string `yaml:"api_key"`
	AuthHeader  string `yaml:"auth_header"`
	RequireAuth bool   `yaml:"require_auth"`
	LogLevel    string `yaml:"log_level"`
	RefreshCron string `yaml:"refresh_cron"` // six-field cron expression; empty disables scheduled refresh
	// RefreshEntries are the FPL entries whose picks and history the refresh job downloads.
	RefreshEntries []int   `yaml:"refresh_entries"`
	CacheSize      int     `yaml:"cache_size"`
	BaseURL        string  `yaml:"base_url"`
	RateLimit      float64 `yaml:"rate_limit"` // requests per second to the FPL API
}

// DifficultyConfig bounds fixture difficulty ratings.
type DifficultyConfig struct {
	Min     int `yaml:"min"`     // Default: 1
	Max     int `yaml:"max"`     // Default: 5
	Neutral int `yaml:"neutral"` // Default: 3, used when a team has no fixture
}

// ProjectionConfig holds the point projection weights.
type ProjectionConfig struct {
	FormWeight   float64 `yaml:"form_weight"`   // Default: 0.6
	SeasonWeight float64 `yaml:"season_weight"` // Default: 0.4
	BonusWeight  float64 `yaml:"bonus_weight"`  // Default: 0.1

	FixtureStep float64 `yaml:"fixture_step"` // multiplier change per rating step from neutral. Default: 0.1
	FixtureMin  float64 `yaml:"fixture_min"`  // Default: 0.8
	FixtureMax  float64 `yaml:"fixture_max"`  // Default: 1.2

	RoleBonusCap float64                `yaml:"role_bonus_cap"` // Default: 0.15
	Roles        map[string]RoleWeights `yaml:"roles"`

	FullAppearanceMinutes int     `yaml:"full_appearance_minutes"` // Default: 90
	MinutesWeight         float64 `yaml:"minutes_weight"`          // weight of minutes played over elapsed cycles on the base; 0 disables. Default: 1
	HalfAppearanceMinutes int     `yaml:"half_appearance_minutes"` // Default: 45
	LowMinutesPenalty     float64 `yaml:"low_minutes_penalty"`     // Default: 0.9
	AvailabilityFloor     float64 `yaml:"availability_floor"`      // Default: 0.7

	ConfidenceScale float64 `yaml:"confidence_scale"` // gain that maps to full confidence. Default: 10
	HorizonDecay    float64 `yaml:"horizon_decay"`    // confidence lost per cycle beyond the first. Default: 0.05
}

// RoleWeights are the secondary-signal weights for one role.
type RoleWeights struct {
	CleanSheet  float64 `yaml:"clean_sheet"`
	Involvement float64 `yaml:"involvement"`
	ICT         float64 `yaml:"ict"`
}

type TransferConfig struct {
	FreeTransferCap  int     `yaml:"free_transfer_cap"` // Default: 2
	HitCost          float64 `yaml:"hit_cost"`          // Default: 4
	CostEpsilon      float64 `yaml:"cost_epsilon"`      // Default: 0.1
	DefaultHorizon   int     `yaml:"default_horizon"`   // Default: 6
	MaxSubstitutions int     `yaml:"max_substitutions"` // Default: 2
	TimingLookahead  int     `yaml:"timing_lookahead"`  // Default: 4
}

// CycleWindow is an inclusive range of cycles.
type CycleWindow struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// Contains reports whether cycle lies in w.
func (w CycleWindow) Contains(cycle int) bool {
	return cycle >= w.From && cycle <= w.To
}

type AnomalyConfig struct {
	TeamCount          int           `yaml:"team_count"`          // Default: 20
	CongestedThreshold int           `yaml:"congested_threshold"` // congested when fixtures exceed this. Default: 10
	SparseThreshold    int           `yaml:"sparse_threshold"`    // sparse when fixtures fall below this. Default: 5
	ProvisionalAfter   int           `yaml:"provisional_after"`   // Default: 8
	LikelyCongested    []CycleWindow `yaml:"likely_congested"`
	LikelySparse       []CycleWindow `yaml:"likely_sparse"`
}

type ChipConfig struct {
	SeasonLength       int           `yaml:"season_length"`   // Default: 38
	PerSeason          int           `yaml:"per_season"`      // Default: 2
	MinLead            int           `yaml:"min_lead"`        // Default: 3
	RestructureRun     int           `yaml:"restructure_run"` // Default: 5
	CongestedBonus     float64       `yaml:"congested_bonus"` // Default: 1
	RestructureWindows []CycleWindow `yaml:"restructure_windows"`
	SquadSwapFallback  int           `yaml:"squad_swap_fallback"` // Default: 35
	SquadSwapReach     int           `yaml:"squad_swap_reach"`    // Default: 20
}

// Load decodes a YAML file over the defaults, then applies .env and
// environment overrides. Keys present in the file win over defaults, so an
// explicit zero is kept. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	// derived from team_count unless the file sets them
	cfg.Anomaly.CongestedThreshold, cfg.Anomaly.SparseThreshold = 0, 0
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if v := strings.TrimSpace(os.Getenv("FPL_MCP_API_KEY")); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("FPL_RAW_ROOT"); v != "" {
		cfg.Server.RawRoot = v
	}
	if v := os.Getenv("FPL_SQLITE_PATH"); v != "" {
		cfg.Server.SQLitePath = v
	}
	if v := os.Getenv("FPL_LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("FPL_REFRESH_CRON"); v != "" {
		cfg.Server.RefreshCron = v
	}

	cfg.Anomaly.deriveThresholds()
	return &cfg, nil
}

// Default returns a config with every field at its default.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields. Load decodes over Default instead,
// so it only matters for configs built in code.
func (c *Config) ApplyDefaults() {
	s := &c.Server
	if s.Addr == "" {
		s.Addr = ":8080"
	}
	if s.MCPPath == "" {
		s.MCPPath = "/mcp"
	}
	if s.RawRoot == "" {
		s.RawRoot = "data/raw"
	}
	if s.AuthHeader == "" {
		s.AuthHeader = "X-API-Key"
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	if s.CacheSize == 0 {
		s.CacheSize = 256
	}
	if s.BaseURL == "" {
		s.BaseURL = "https://fantasy.premierleague.com/api"
	}
	if s.RateLimit == 0 {
		s.RateLimit = 4
	}

	d := &c.Difficulty
	if d.Min == 0 {
		d.Min = 1
	}
	if d.Max == 0 {
		d.Max = 5
	}
	if d.Neutral == 0 {
		d.Neutral = 3
	}

	p := &c.Projection
	if p.FormWeight == 0 && p.SeasonWeight == 0 {
		p.FormWeight, p.SeasonWeight = 0.6, 0.4
	}
	if p.BonusWeight == 0 {
		p.BonusWeight = 0.1
	}
	if p.FixtureStep == 0 {
		p.FixtureStep = 0.1
	}
	if p.FixtureMin == 0 {
		p.FixtureMin = 0.8
	}
	if p.FixtureMax == 0 {
		p.FixtureMax = 1.2
	}
	if p.RoleBonusCap == 0 {
		p.RoleBonusCap = 0.15
	}
	if p.Roles == nil {
		p.Roles = map[string]RoleWeights{
			"GK":  {CleanSheet: 0.1},
			"DEF": {CleanSheet: 0.1, Involvement: 0.05},
			"MID": {Involvement: 0.1, ICT: 0.05},
			"FWD": {Involvement: 0.1},
		}
	}
	if p.FullAppearanceMinutes == 0 {
		p.FullAppearanceMinutes = 90
	}
	if p.MinutesWeight == 0 {
		p.MinutesWeight = 1
	}
	if p.HalfAppearanceMinutes == 0 {
		p.HalfAppearanceMinutes = 45
	}
	if p.LowMinutesPenalty == 0 {
		p.LowMinutesPenalty = 0.9
	}
	if p.AvailabilityFloor == 0 {
		p.AvailabilityFloor = 0.7
	}
	if p.ConfidenceScale == 0 {
		p.ConfidenceScale = 10
	}
	if p.HorizonDecay == 0 {
		p.HorizonDecay = 0.05
	}

	t := &c.Transfers
	if t.FreeTransferCap == 0 {
		t.FreeTransferCap = 2
	}
	if t.HitCost == 0 {
		t.HitCost = 4
	}
	if t.CostEpsilon == 0 {
		t.CostEpsilon = 0.1
	}
	if t.DefaultHorizon == 0 {
		t.DefaultHorizon = 6
	}
	if t.MaxSubstitutions == 0 {
		t.MaxSubstitutions = 2
	}
	if t.TimingLookahead == 0 {
		t.TimingLookahead = 4
	}

	a := &c.Anomaly
	if a.TeamCount == 0 {
		a.TeamCount = 20
	}
	a.deriveThresholds()
	if a.ProvisionalAfter == 0 {
		a.ProvisionalAfter = 8
	}
	if a.LikelyCongested == nil {
		// cup replays and rearranged backlog fixtures
		a.LikelyCongested = []CycleWindow{{From: 25, To: 26}, {From: 33, To: 34}, {From: 36, To: 37}}
	}
	if a.LikelySparse == nil {
		// cup quarter-final and semi-final weekends
		a.LikelySparse = []CycleWindow{{From: 29, To: 29}, {From: 31, To: 31}, {From: 33, To: 33}}
	}

	ch := &c.Chips
	if ch.SeasonLength == 0 {
		ch.SeasonLength = 38
	}
	if ch.PerSeason == 0 {
		ch.PerSeason = 2
	}
	if ch.MinLead == 0 {
		ch.MinLead = 3
	}
	if ch.RestructureRun == 0 {
		ch.RestructureRun = 5
	}
	if ch.CongestedBonus == 0 {
		ch.CongestedBonus = 1
	}
	if ch.RestructureWindows == nil {
		ch.RestructureWindows = []CycleWindow{{From: 2, To: 15}, {From: 25, To: 35}}
	}
	if ch.SquadSwapFallback == 0 {
		ch.SquadSwapFallback = 35
	}
	if ch.SquadSwapReach == 0 {
		ch.SquadSwapReach = 20
	}
}

func (a *AnomalyConfig) deriveThresholds() {
	if a.CongestedThreshold == 0 {
		a.CongestedThreshold = a.TeamCount / 2
	}
	if a.SparseThreshold == 0 {
		a.SparseThreshold = a.TeamCount / 4
	}
}

// Validate checks that the heuristics are internally consistent.
func (c *Config) Validate() error {
	d := c.Difficulty
	if d.Min < 1 || d.Max < d.Min {
		return fmt.Errorf("difficulty bounds [%d,%d] are invalid", d.Min, d.Max)
	}
	if d.Neutral < d.Min || d.Neutral > d.Max {
		return fmt.Errorf("difficulty.neutral %d outside [%d,%d]", d.Neutral, d.Min, d.Max)
	}
	p := c.Projection
	if p.FormWeight < 0 || p.SeasonWeight < 0 || p.FormWeight+p.SeasonWeight == 0 {
		return fmt.Errorf("projection blend weights must be non-negative and not both zero")
	}
	if p.MinutesWeight < 0 || p.MinutesWeight > 1 {
		return fmt.Errorf("projection.minutes_weight must be in [0,1]")
	}
	if p.FixtureMin > p.FixtureMax {
		return fmt.Errorf("projection.fixture_min %.2f exceeds fixture_max %.2f", p.FixtureMin, p.FixtureMax)
	}
	if p.AvailabilityFloor <= 0 || p.AvailabilityFloor > 1 {
		return fmt.Errorf("projection.availability_floor must be in (0,1]")
	}
	t := c.Transfers
	if t.FreeTransferCap < 0 {
		return fmt.Errorf("transfers.free_transfer_cap must be non-negative")
	}
	if t.HitCost < 0 {
		return fmt.Errorf("transfers.hit_cost must be non-negative")
	}
	if t.CostEpsilon <= 0 {
		return fmt.Errorf("transfers.cost_epsilon must be positive")
	}
	if t.MaxSubstitutions < 0 {
		return fmt.Errorf("transfers.max_substitutions must be non-negative")
	}
	if t.DefaultHorizon <= 0 {
		return fmt.Errorf("transfers.default_horizon must be positive")
	}
	a := c.Anomaly
	if a.TeamCount <= 0 {
		return fmt.Errorf("anomaly.team_count must be positive")
	}
	if a.SparseThreshold > a.CongestedThreshold {
		return fmt.Errorf("anomaly.sparse_threshold %d exceeds congested_threshold %d", a.SparseThreshold, a.CongestedThreshold)
	}
	if c.Chips.SeasonLength <= 0 || c.Chips.PerSeason < 0 {
		return fmt.Errorf("chips.season_length must be positive and chips.per_season non-negative")
	}
	if c.Server.CacheSize <= 0 {
		return fmt.Errorf("server.cache_size must be positive")
	}
	if c.Server.RateLimit <= 0 {
		return fmt.Errorf("server.rate_limit must be positive")
	}
	for _, w := range c.Chips.RestructureWindows {
		if w.From > w.To {
			return fmt.Errorf("chips.restructure_windows: from %d after to %d", w.From, w.To)
		}
	}
	if c.Server.RequireAuth && c.Server.APIKey == "" {
		return fmt.Errorf("FPL_MCP_API_KEY is required (set env var or disable server.require_auth)")
	}
	return nil
}
