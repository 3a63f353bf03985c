package analysis

import (
	"testing"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
)

func TestFindWakeTime(t *testing.T) {
	target := time.Date(2024, 1, 16, 7, 0, 0, 0, time.UTC)
	windowStart := target.Add(-30 * time.Minute)
	// Deep sleep from 06:00 with a light window at 06:50.
	stages := windowsOf(target.Add(-time.Hour),
		domain.StageDeep, domain.StageDeep, domain.StageLight, domain.StageDeep, // light at 06:10, before the window
		domain.StageDeep, domain.StageDeep, domain.StageDeep, domain.StageDeep,
		domain.StageDeep, domain.StageDeep, domain.StageLight, domain.StageDeep,
	)

	tests := []struct {
		name   string
		stages []domain.StageWindow
		limit  time.Time
		want   time.Time
		wantOK bool
	}{
		{
			name:   "light window inside the pre-wake window",
			stages: stages,
			limit:  target,
			want:   target.Add(-10 * time.Minute),
			wantOK: true,
		},
		{
			name:   "candidate after limit is not used",
			stages: stages,
			limit:  target.Add(-15 * time.Minute),
		},
		{
			name:   "windows before the pre-wake window are skipped",
			stages: stages[:4],
			limit:  target,
		},
		{
			name:   "awake also qualifies",
			stages: windowsOf(windowStart, domain.StageDeep, domain.StageAwake),
			limit:  target,
			want:   windowStart.Add(WindowLength),
			wantOK: true,
		},
		{
			name:   "no stages",
			limit:  target,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindWakeTime(tt.stages, windowStart, tt.limit)
			if ok != tt.wantOK {
				t.Fatalf("FindWakeTime() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("FindWakeTime() = %v, want %v", got, tt.want)
			}
		})
	}
}
