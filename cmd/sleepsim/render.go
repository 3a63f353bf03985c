package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/fatih/color"
)

var stageColors = map[domain.SleepStage]*color.Color{
	domain.StageAwake: color.New(color.FgRed),
	domain.StageLight: color.New(color.FgCyan),
	domain.StageDeep:  color.New(color.FgBlue),
	domain.StageREM:   color.New(color.FgMagenta),
}

var stageGlyphs = map[domain.SleepStage]string{
	domain.StageAwake: "▀",
	domain.StageLight: "▄",
	domain.StageDeep:  "█",
	domain.StageREM:   "▒",
}

// hypnogram renders one glyph per stage window, one line per local hour.
func hypnogram(stages []domain.StageWindow, loc *time.Location) string {
	var b strings.Builder
	hour := -1
	for _, w := range stages {
		local := w.StartAt.In(loc)
		if local.Hour() != hour {
			if hour != -1 {
				b.WriteString("\n")
			}
			hour = local.Hour()
			b.WriteString(fmt.Sprintf("%02d:00 ", hour))
			// Pad the first line so columns line up with the minute of the hour.
			b.WriteString(strings.Repeat(" ", local.Minute()/windowMinutes(w)))
		}
		glyph, ok := stageGlyphs[w.Stage]
		if !ok {
			glyph = "?"
		}
		if c, ok := stageColors[w.Stage]; ok {
			glyph = c.Sprint(glyph)
		}
		b.WriteString(glyph)
	}
	if hour != -1 {
		b.WriteString("\n")
	}
	return b.String()
}

func windowMinutes(w domain.StageWindow) int {
	m := int(w.EndAt.Sub(w.StartAt) / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}

func legend() string {
	parts := make([]string, 0, len(stageGlyphs))
	for _, s := range []domain.SleepStage{domain.StageAwake, domain.StageLight, domain.StageDeep, domain.StageREM} {
		parts = append(parts, stageColors[s].Sprint(stageGlyphs[s])+" "+string(s))
	}
	return strings.Join(parts, "  ")
}

func printNight(w io.Writer, s *domain.SleepSession, m domain.SessionMetrics) {
	loc := s.Location()
	bold := color.New(color.Bold)

	bold.Fprintf(w, "Night of %s (%s)\n", s.StartAt.In(loc).Format("Mon 2 Jan 2006"), loc)
	fmt.Fprintln(w, strings.Repeat("─", 50))
	fmt.Fprint(w, hypnogram(s.Stages, loc))
	fmt.Fprintln(w, legend())
	fmt.Fprintln(w, strings.Repeat("─", 50))

	fmt.Fprintf(w, "In bed       %s → %s\n", s.StartAt.In(loc).Format("15:04"), s.EndAt.In(loc).Format("15:04"))
	fmt.Fprintf(w, "Total sleep  %s\n", formatDuration(m.TotalSleep))
	fmt.Fprintf(w, "Fell asleep  after %s\n", formatDuration(m.TimeToFallAsleep))
	fmt.Fprintf(w, "Stages       deep %s, rem %s, light %s, awake %s\n",
		formatDuration(m.Deep), formatDuration(m.REM), formatDuration(m.Light), formatDuration(m.Awake))
	fmt.Fprintf(w, "Efficiency   %.1f%%\n", m.Efficiency)
	fmt.Fprintf(w, "Awakenings   %d\n", m.Awakenings)
	fmt.Fprintf(w, "Restlessness %.1f\n", m.Restlessness)
	fmt.Fprintf(w, "Quality      %s\n", qualityColor(m.QualityScore).Sprintf("%.0f/100", m.QualityScore))

	if s.TargetWakeAt == nil {
		return
	}
	switch {
	case s.AlarmTriggered:
		fmt.Fprintf(w, "Smart alarm  %s (window %s–%s)\n",
			color.GreenString("woke at %s", s.ActualWakeAt.In(loc).Format("15:04")),
			s.PreWakeWindowStart().In(loc).Format("15:04"), s.TargetWakeAt.In(loc).Format("15:04"))
	default:
		fmt.Fprintf(w, "Smart alarm  %s\n",
			color.YellowString("no light sleep in window, woke at target %s", s.TargetWakeAt.In(loc).Format("15:04")))
	}
}

func printSnapshot(w io.Writer, snap domain.TrackerSnapshot) {
	ts := snap.UpdatedAt.Local().Format("15:04:05")
	if snap.Status != domain.TrackerTracking {
		fmt.Fprintf(w, "%s %s dropped=%d\n", ts, color.HiBlackString("idle"), snap.DroppedCount)
		return
	}

	stage := "-"
	if n := len(snap.Stages); n > 0 {
		last := snap.Stages[n-1].Stage
		stage = stageColors[last].Sprint(string(last))
	}
	line := fmt.Sprintf("%s %s stage=%s movement=%d sound=%d", ts, color.GreenString("tracking"), stage, snap.MovementCount, snap.SoundCount)
	if snap.LastIntensity != nil && snap.LastDecibels != nil {
		line += fmt.Sprintf(" last=%.2f/%.1fdB", *snap.LastIntensity, *snap.LastDecibels)
	}
	if snap.Alarm != nil {
		line += " alarm=" + alarmColor(snap.Alarm.State).Sprint(snap.Alarm.State)
	}
	fmt.Fprintln(w, line)
}

func qualityColor(score float64) *color.Color {
	switch {
	case score >= 75:
		return color.New(color.FgGreen)
	case score >= 50:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func alarmColor(state string) *color.Color {
	switch state {
	case "triggered":
		return color.New(color.FgRed, color.Bold)
	case "monitoring":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgHiBlack)
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
