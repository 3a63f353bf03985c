package main

import (
	"fmt"

	"github.com/blaisecz/smart-sleep/internal/statebus"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	var (
		redisURL string
		user     string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the live tracker state of a user through Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			ctx := cmd.Context()

			client, err := statebus.Connect(ctx, redisURL)
			if err != nil {
				return err
			}
			defer client.Close()
			bus := statebus.NewRedisBus(client, 0)

			out := cmd.OutOrStdout()
			if snap, err := bus.Latest(ctx, userID); err == nil {
				printSnapshot(out, *snap)
			}

			updates, err := bus.Follow(ctx, userID)
			if err != nil {
				return err
			}
			for snap := range updates {
				printSnapshot(out, snap)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&redisURL, "redis", "redis://localhost:6379/0", "Redis URL the server publishes snapshots to")
	cmd.Flags().StringVar(&user, "user", "", "user ID (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
