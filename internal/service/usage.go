package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/deefind/detector-server-go/internal/config"
	apperrors "github.com/deefind/detector-server-go/internal/errors"
	"github.com/deefind/detector-server-go/internal/model"
	"github.com/deefind/detector-server-go/internal/storage"
)

// UsageService enforces the rolling monthly quota of free detections.
//
// The persisted anchor is the time of the last write, not the period start:
// every increment refreshes it, so the rollover check effectively asks "has
// the month changed since the last increment". That sliding-window behavior
// is intentional compatibility with persisted records from earlier builds.
// Rollover is detected only inside Load, never by a timer.
type UsageService struct {
	mu    sync.Mutex
	store storage.Store
	limit int
	count int
}

func NewUsageService(ctx context.Context, store storage.Store, limit int) (*UsageService, error) {
	if limit <= 0 {
		limit = config.DefaultFreeDetectionLimit
	}
	s := &UsageService{store: store, limit: limit}
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the persisted record, resetting it when absent, unreadable, or
// anchored in a different month or year than the wall clock.
func (s *UsageService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.store.Get(ctx, storage.DetectionsKey)
	if err != nil {
		return apperrors.Storage(err)
	}
	if !ok {
		return s.resetLocked(ctx)
	}

	var record model.UsageRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		log.Warn().Err(err).Msg("usage record unreadable, starting fresh")
		return s.resetLocked(ctx)
	}

	now := time.Now()
	if now.Month() != record.PeriodAnchor.Month() || now.Year() != record.PeriodAnchor.Year() {
		return s.resetLocked(ctx)
	}

	s.count = record.Count
	return nil
}

// Increment adds one detection to the current period and refreshes the
// anchor. The in-memory count advances even when the write fails, matching
// the count the caller was just allowed to consume.
func (s *UsageService) Increment(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	return s.persistLocked(ctx)
}

func (s *UsageService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *UsageService) Limit() int {
	return s.limit
}

// CanDetect reports whether another detection is allowed. Premium always
// passes; the free tier is gated on the monthly count.
func (s *UsageService) CanDetect(isPremium bool) bool {
	if isPremium {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count < s.limit
}

func (s *UsageService) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if remaining := s.limit - s.count; remaining > 0 {
		return remaining
	}
	return 0
}

// Reset forces the count back to zero. Invoked on logout so a fresh visitor
// view does not inherit a stale count; the quota itself is shared across
// sessions since it is not keyed by account.
func (s *UsageService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked(ctx)
}

func (s *UsageService) resetLocked(ctx context.Context) error {
	s.count = 0
	return s.persistLocked(ctx)
}

func (s *UsageService) persistLocked(ctx context.Context) error {
	record := model.UsageRecord{
		Count:        s.count,
		PeriodAnchor: time.Now(),
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return apperrors.Storage(err)
	}
	if err := s.store.Set(ctx, storage.DetectionsKey, raw); err != nil {
		return apperrors.Storage(err)
	}
	return nil
}
