package main

import (
	"github.com/spf13/cobra"

	"fpl-strategy-mcp/internal/config"
)

func newFetchCmd(load func() (*config.Config, error)) *cobra.Command {
	var entries []int

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download bootstrap, fixtures and entry snapshots into the raw root",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.refresh(cmd.Context(), mergeEntries(cfg.Server.RefreshEntries, entries))
		},
	}
	cmd.Flags().IntSliceVar(&entries, "entry", nil, "entry id to download (repeatable)")
	return cmd
}

func newTransfersCmd(load func() (*config.Config, error)) *cobra.Command {
	var args PlanTransfersArgs
	var freeTransfers int
	var bank float64

	cmd := &cobra.Command{
		Use:   "transfers",
		Short: "Print a transfer plan for one entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("free-transfers") {
				args.FreeTransfers = &freeTransfers
			}
			if cmd.Flags().Changed("bank") {
				args.Bank = &bank
			}
			b, err := a.buildTransferPlan(args)
			if err != nil {
				return err
			}
			printJSON(b)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&args.EntryID, "entry", 0, "FPL entry id")
	f.IntVar(&args.GW, "gw", 0, "gameweek whose picks define the squad (0 = current)")
	f.IntVar(&args.Horizon, "horizon", 0, "projection horizon in gameweeks")
	f.IntVar(&args.MaxTransfers, "max", 0, "maximum transfers")
	f.BoolVar(&args.AllowHits, "allow-hits", false, "allow transfers beyond the free ones at a points hit")
	f.IntVar(&freeTransfers, "free-transfers", 0, "override free transfers available")
	f.Float64Var(&bank, "bank", 0, "override money in the bank")
	_ = cmd.MarkFlagRequired("entry")
	return cmd
}

func newChipsCmd(load func() (*config.Config, error)) *cobra.Command {
	var args PlanChipsArgs

	cmd := &cobra.Command{
		Use:   "chips",
		Short: "Print a chip schedule for one entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.buildChipPlan(args)
			if err != nil {
				return err
			}
			printJSON(b)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&args.EntryID, "entry", 0, "FPL entry id")
	f.IntVar(&args.GW, "gw", 0, "gameweek whose picks define the squad (0 = current)")
	f.IntVar(&args.Horizon, "horizon", 0, "gameweeks to scan ahead")
	_ = cmd.MarkFlagRequired("entry")
	return cmd
}

// mergeEntries joins configured and flag entries, keeping first-seen order.
func mergeEntries(lists ...[]int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, l := range lists {
		for _, id := range l {
			if id <= 0 || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
