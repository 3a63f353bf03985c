package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	sessionsSheet = "Sessions"
	stagesSheet   = "Stages"
	// MaxExportDays bounds the range of one export.
	MaxExportDays = 366
)

var (
	sessionHeaders = []string{
		"Session ID", "Start (local)", "End (local)", "Timezone", "Target Wake", "Actual Wake",
		"Smart Alarm", "Total Sleep (min)", "Deep (min)", "REM (min)", "Light (min)", "Awake (min)",
		"Efficiency (%)", "Awakenings", "Restlessness", "Quality Score", "Sync Status",
	}
	stageHeaders = []string{"Session ID", "Start (local)", "End (local)", "Stage"}
)

func (s *sessionService) Export(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]byte, error) {
	ctx, span := s.tracer().Start(ctx, "SessionService.Export")
	defer span.End()

	if !to.After(from) || to.Sub(from) > MaxExportDays*24*time.Hour {
		return nil, fmt.Errorf("%w: export range must be positive and at most %d days", domain.ErrInvalidInput, MaxExportDays)
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	sessions, err := s.repo.ListByEndRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	return buildWorkbook(sessions)
}

// buildWorkbook writes one row per session and one row per stage window.
func buildWorkbook(sessions []domain.SleepSession) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sessionsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(stagesSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	for sheet, headers := range map[string][]string{sessionsSheet: sessionHeaders, stagesSheet: stageHeaders} {
		if err := writeRow(f, sheet, 1, toAny(headers)); err != nil {
			return nil, err
		}
		last, _ := excelize.ColumnNumberToName(len(headers))
		if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		if err := f.SetColWidth(sheet, "A", last, 20); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	const layout = "2006-01-02 15:04"
	stageRow := 2
	for i := range sessions {
		session := &sessions[i]
		loc := session.Location()
		end := session.StartAt
		if session.EndAt != nil {
			end = *session.EndAt
		}
		m := storedMetrics(session, end)

		row := []any{
			session.ID.String(),
			session.StartAt.In(loc).Format(layout),
			end.In(loc).Format(layout),
			session.LocalTimezone,
			formatOptional(session.TargetWakeAt, loc, layout),
			formatOptional(session.ActualWakeAt, loc, layout),
			yesNo(session.AlarmTriggered),
			round1(m.TotalSleep.Minutes()),
			round1(m.Deep.Minutes()),
			round1(m.REM.Minutes()),
			round1(m.Light.Minutes()),
			round1(m.Awake.Minutes()),
			session.Efficiency,
			session.Awakenings,
			session.Restlessness,
			m.QualityScore,
			string(session.SyncStatus),
		}
		if err := writeRow(f, sessionsSheet, i+2, row); err != nil {
			return nil, err
		}

		for _, w := range session.Stages {
			err := writeRow(f, stagesSheet, stageRow, []any{
				session.ID.String(),
				w.StartAt.In(loc).Format(layout),
				w.EndAt.In(loc).Format(layout),
				string(w.Stage),
			})
			if err != nil {
				return nil, err
			}
			stageRow++
		}
	}

	if err := f.SetPanes(sessionsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func formatOptional(t *time.Time, loc *time.Location, layout string) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(layout)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
