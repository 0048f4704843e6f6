package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/repowatch/internal/checkpoint"
	"github.com/nhle/repowatch/internal/store"
	"github.com/nhle/repowatch/internal/theme"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Recent int
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show checkpoint state and recent deliveries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Recent, "recent", 10, "number of recent deliveries to show")

	return cmd
}

func runStatus(cmd *cobra.Command, opts *StatusOptions) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	checkpoints := checkpoint.NewStore(cfg.CheckpointPath())

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, theme.HeaderStyle.Render(fmt.Sprintf("repowatch: %s", cfg.GitHub.Repo)))
	fmt.Fprintln(out, theme.DimStyle.Render("checkpoint: "+checkpoints.Path()))

	cp, err := checkpoints.Load()
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	printLane(cmd, "pull requests", cp.PullRequests)
	printLane(cmd, "releases", cp.Releases)

	sqlStore, err := store.NewSQLiteStore(cfg.HistoryPath())
	if err != nil {
		fmt.Fprintln(out, theme.DimStyle.Render("delivery history unavailable"))
		return nil
	}
	defer sqlStore.Close()

	total, err := sqlStore.CountDeliveries(cmd.Context())
	if err != nil {
		return err
	}
	recent, err := sqlStore.RecentDeliveries(cmd.Context(), opts.Recent)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.HeaderStyle.Render(fmt.Sprintf("deliveries: %d total", total)))
	for _, d := range recent {
		fmt.Fprintf(out, "  %s  %s %d  %s\n",
			theme.DimStyle.Render(d.DeliveredAt.UTC().Format(time.RFC3339)),
			theme.KindLabelStyle(d.Kind).Render(theme.KindLabel(d.Kind)), d.ItemID, d.Title,
		)
	}

	return nil
}

func printLane(cmd *cobra.Command, name string, lane checkpoint.Lane) {
	out := cmd.OutOrStdout()
	if lane.Pending() {
		fmt.Fprintf(out, "  %s: %s\n", name, theme.PendingStyle.Render("bootstrap pending"))
		return
	}
	fmt.Fprintf(out, "  %s: %s\n", name, theme.LaneStyle.Render(fmt.Sprintf(
		"watermark %s, %d id(s) at watermark",
		lane.Watermark.UTC().Format(time.RFC3339), len(lane.SeenIDs),
	)))
}
