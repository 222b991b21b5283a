package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PlanTransfersArgs struct {
	EntryID       int      `json:"entry_id" jsonschema:"FPL entry id (required)"`
	GW            int      `json:"gw" jsonschema:"Gameweek whose picks define the squad (0 = current)"`
	Horizon       int      `json:"horizon" jsonschema:"Projection horizon in GWs (default 6)"`
	MaxTransfers  int      `json:"max_transfers" jsonschema:"Maximum transfers to recommend (default 2)"`
	AllowHits     bool     `json:"allow_hits" jsonschema:"Allow transfers beyond the free ones at a points hit"`
	FreeTransfers *int     `json:"free_transfers,omitempty" jsonschema:"Override free transfers available"`
	Bank          *float64 `json:"bank,omitempty" jsonschema:"Override money in the bank (GBP m)"`
}

type PlanChipsArgs struct {
	EntryID int `json:"entry_id" jsonschema:"FPL entry id (required)"`
	GW      int `json:"gw" jsonschema:"Gameweek whose picks define the squad (0 = current)"`
	Horizon int `json:"horizon" jsonschema:"GWs to scan ahead (default rest of season)"`
}

type FixtureOutlookArgs struct {
	TeamID  int `json:"team_id" jsonschema:"Team id (0 = all teams)"`
	FromGW  int `json:"from_gw" jsonschema:"First gameweek (0 = next unfinished)"`
	Horizon int `json:"horizon" jsonschema:"How many GWs forward (default 6)"`
}

type CycleAnomaliesArgs struct {
	FromGW  int `json:"from_gw" jsonschema:"First gameweek (0 = next unfinished)"`
	Horizon int `json:"horizon" jsonschema:"How many GWs forward (default 10)"`
}

type PlayerProjectionArgs struct {
	ElementID int `json:"element_id" jsonschema:"Player element id (required)"`
	FromGW    int `json:"from_gw" jsonschema:"First gameweek (0 = next unfinished)"`
	Horizon   int `json:"horizon" jsonschema:"Projection horizon in GWs (default 6)"`
}

type BookmarkChipArgs struct {
	EntryID int    `json:"entry_id" jsonschema:"FPL entry id (required)"`
	Chip    string `json:"chip" jsonschema:"wildcard|bboost|3xc|freehit (required)"`
	GW      int    `json:"gw" jsonschema:"Gameweek to bookmark (required)"`
	Locked  bool   `json:"locked" jsonschema:"Lock the chip to this GW so planning will not move it"`
	Remove  bool   `json:"remove" jsonschema:"Delete the bookmark instead of saving it"`
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func newMCPServer(a *app) (*mcp.Server, []toolInfo) {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "fpl-strategy-mcp",
			Version: version,
		},
		nil,
	)

	registry := make([]toolInfo, 0, 8)

	addTool(server, &registry, &mcp.Tool{
		Name:        "plan_transfers",
		Description: "Recommended transfers for an entry with projected gain, cost, hits and timing",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlanTransfersArgs) (*mcp.CallToolResult, any, error) {
		return toolJSON(a.buildTransferPlan(args))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "plan_chips",
		Description: "Target gameweek for each remaining chip, honouring locked bookmarks",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlanChipsArgs) (*mcp.CallToolResult, any, error) {
		return toolJSON(a.buildChipPlan(args))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "fixture_outlook",
		Description: "Per-team fixture difficulty and fixture counts over the next gameweeks",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FixtureOutlookArgs) (*mcp.CallToolResult, any, error) {
		return toolJSON(a.buildFixtureOutlook(args))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "cycle_anomalies",
		Description: "Double and blank gameweek detection with the teams affected",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args CycleAnomaliesArgs) (*mcp.CallToolResult, any, error) {
		return toolJSON(a.buildCycleAnomalies(args))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "player_projection",
		Description: "Projected points for one player with every adjustment broken out",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlayerProjectionArgs) (*mcp.CallToolResult, any, error) {
		return toolJSON(a.buildPlayerProjection(args))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "bookmark_chip",
		Description: "Save, lock or remove a chip bookmark for an entry",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args BookmarkChipArgs) (*mcp.CallToolResult, any, error) {
		return toolJSON(a.bookmark(args))
	})

	return server, registry
}

func addTool[T any](server *mcp.Server, registry *[]toolInfo, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	*registry = append(*registry, toolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(server, tool, handler)
}

func toolJSON(res []byte, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSONBytes(res), nil, nil
}

func toolJSONBytes(res []byte) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(res)},
		},
	}
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}

func marshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
