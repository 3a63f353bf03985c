package main

import (
	"fmt"
	"time"

	"github.com/blaisecz/smart-sleep/internal/alarm"
	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/blaisecz/smart-sleep/internal/seed"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func nightCmd() *cobra.Command {
	var (
		bedtime  string
		duration time.Duration
		target   string
		window   time.Duration
		interval time.Duration
		seedVal  uint64
		tz       string
	)

	cmd := &cobra.Command{
		Use:   "night",
		Short: "Simulate one night offline and print its hypnogram and metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("invalid timezone %q: %w", tz, err)
			}
			start, err := parseClock(bedtime, time.Now().In(loc).AddDate(0, 0, -1), loc)
			if err != nil {
				return err
			}

			session := &domain.SleepSession{
				ID:            uuid.New(),
				StartAt:       start.UTC(),
				LocalTimezone: tz,
			}
			end := session.StartAt.Add(duration)

			if target != "" {
				wake, err := parseClock(target, start, loc)
				if err != nil {
					return err
				}
				if !wake.After(start) {
					wake = wake.AddDate(0, 0, 1)
				}
				// Replayed nights are validated against bedtime, not the wall clock.
				clamped, err := alarm.Validate(wake, window, start)
				if err != nil {
					return err
				}
				wakeUTC := wake.UTC()
				session.TargetWakeAt = &wakeUTC
				session.PreWakeWindow = clamped
				end = wakeUTC
			}

			metrics := seed.Simulate(session, end, seedVal, interval)
			printNight(cmd.OutOrStdout(), session, metrics)
			return nil
		},
	}

	cmd.Flags().StringVar(&bedtime, "bedtime", "23:00", "local bedtime (HH:MM)")
	cmd.Flags().DurationVar(&duration, "duration", 8*time.Hour, "time in bed when no target wake time is set")
	cmd.Flags().StringVar(&target, "wake", "", "latest acceptable local wake time (HH:MM); enables the smart alarm")
	cmd.Flags().DurationVar(&window, "window", domain.DefaultPreWakeWindow, "smart alarm window before the wake time")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "sensor sampling interval")
	cmd.Flags().Uint64Var(&seedVal, "seed", 1, "random seed")
	cmd.Flags().StringVar(&tz, "tz", "UTC", "IANA timezone of the sleeper")
	return cmd
}

// parseClock returns the time HH:MM on the day of ref in loc.
func parseClock(v string, ref time.Time, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, want HH:MM", v)
	}
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
