package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iceteam/icelist/internal/domain/types"
)

func newPlaceCmd(opts *rootOptions) *cobra.Command {
	var victor string
	cmd := &cobra.Command{
		Use:   "place <level> <rank>",
		Short: "Rank a level, crediting its staged submission if any",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rank, err := parseRank(args[1])
			if err != nil {
				return err
			}
			svc, _, err := opts.start(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Stop()
			res, err := svc.Place(cmd.Context(), args[0], victor, rank)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&victor, "victor", "", "first victor when no submission is staged")
	return cmd
}

func newMoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <level> <rank>",
		Short: "Move a ranked level",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rank, err := parseRank(args[1])
			if err != nil {
				return err
			}
			svc, _, err := opts.start(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Stop()
			res, err := svc.MoveTo(cmd.Context(), args[0], rank)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func newRankCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rank <level>",
		Short: "Print the rank and statistics of a level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := opts.start(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Stop()
			summary, ok, err := svc.LevelSummary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("level %q is not ranked", args[0])
			}
			return printJSON(cmd, summary)
		},
	}
}

func newStageCmd(opts *rootOptions) *cobra.Command {
	var (
		entry     types.WaitingEntry
		enjoyment int
		rating    int
	)
	cmd := &cobra.Command{
		Use:   "stage <level>",
		Short: "Add a submission to the waiting list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry.Level = args[0]
			if cmd.Flags().Changed("enjoyment") {
				entry.Enjoyment = &enjoyment
			}
			if cmd.Flags().Changed("rating") {
				entry.Rating = &rating
			}
			svc, _, err := opts.start(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Stop()
			staged, err := svc.Stage(cmd.Context(), entry)
			if err != nil {
				return err
			}
			return printJSON(cmd, staged)
		},
	}
	f := cmd.Flags()
	f.StringVar(&entry.Submitter, "submitter", "", "player who beat the level")
	f.BoolVar(&entry.IsExtreme, "extreme", false, "the level belongs to the extreme list")
	f.StringVar(&entry.PlacementOpinion, "placement", "", "where the submitter thinks it belongs")
	f.StringVar(&entry.Comment, "comment", "", "free-form comment")
	f.IntVar(&enjoyment, "enjoyment", 0, "enjoyment score, 1 to 100")
	f.IntVar(&rating, "rating", 0, "rating score, 1 to 100")
	f.StringVar(&entry.Link, "link", "", "video link")
	_ = cmd.MarkFlagRequired("submitter")
	return cmd
}

func parseRank(arg string) (int, error) {
	rank, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("rank %q: %w", arg, err)
	}
	return rank, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
