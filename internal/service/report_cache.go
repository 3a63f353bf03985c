package service

import (
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/google/uuid"
	"github.com/maypok86/otter/v2"
)

// ReportCache holds session detail reports of finalized sessions.
type ReportCache struct {
	cache *otter.Cache[uuid.UUID, domain.SessionDetailResponse]
}

func NewReportCache(size int, ttl time.Duration) *ReportCache {
	if size <= 0 {
		size = 1000
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ReportCache{
		cache: otter.Must(&otter.Options[uuid.UUID, domain.SessionDetailResponse]{
			MaximumSize:      size,
			ExpiryCalculator: otter.ExpiryWriting[uuid.UUID, domain.SessionDetailResponse](ttl),
		}),
	}
}

func (c *ReportCache) Get(id uuid.UUID) (*domain.SessionDetailResponse, bool) {
	if c == nil {
		return nil, false
	}
	detail, ok := c.cache.GetIfPresent(id)
	if !ok {
		return nil, false
	}
	return &detail, true
}

func (c *ReportCache) Set(detail *domain.SessionDetailResponse) {
	if c == nil {
		return
	}
	c.cache.Set(detail.ID, *detail)
}

func (c *ReportCache) Invalidate(id uuid.UUID) {
	if c == nil {
		return
	}
	c.cache.Invalidate(id)
}
