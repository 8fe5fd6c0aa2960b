package cli

import (
	"time"

	"github.com/fieldline/sitebook/internal/domain/activity"
	"github.com/spf13/cobra"
)

func newActivityCmd(app *App) *cobra.Command {
	var (
		projectID    string
		recordID     string
		activityType string
		since        time.Duration
		limit        int
	)
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "List recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := activity.ListActivityOptions{ProjectID: projectID, Limit: limit}
			if recordID != "" {
				opts.RecordID = &recordID
			}
			if activityType != "" {
				t := activity.ActivityType(activityType)
				opts.ActivityType = &t
			}
			if since > 0 {
				opts.Since = time.Now().Add(-since)
			}
			return withServices(cmd, app, func(s *services) error {
				entries, err := s.activity.GetRecentActivity(cmd.Context(), opts)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": entries})
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Filter by project or catalog id")
	cmd.Flags().StringVar(&recordID, "record", "", "Filter by checklist item or node id")
	cmd.Flags().StringVar(&activityType, "type", "", "Filter by activity type")
	cmd.Flags().DurationVar(&since, "since", 0, "Only entries newer than this, e.g. 24h")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries")

	cmd.AddCommand(newActivityPruneCmd(app))
	return cmd
}

func newActivityPruneCmd(app *App) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old activity entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, app, func(s *services) error {
				n, err := s.activity.Prune(cmd.Context(), olderThan)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": n}})
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Delete entries older than this")
	return cmd
}
