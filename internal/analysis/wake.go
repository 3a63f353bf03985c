package analysis

import (
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
)

// FindWakeTime searches the stage windows that start inside [windowStart, limit] for the
// first light or awake window and returns its start. Stages are expected in time order.
// limit is normally min(now, target wake time).
func FindWakeTime(stages []domain.StageWindow, windowStart, limit time.Time) (time.Time, bool) {
	for _, w := range stages {
		if w.StartAt.Before(windowStart) {
			continue
		}
		if w.StartAt.After(limit) {
			break
		}
		if w.Stage == domain.StageLight || w.Stage == domain.StageAwake {
			return w.StartAt, true
		}
	}
	return time.Time{}, false
}
