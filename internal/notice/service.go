package notice

import (
	"context"
	"log"
	"strconv"
	"time"
)

// Notice is the banner payload served to the page layer.
type Notice struct {
	Version   string `json:"version"`
	DetailURL string `json:"detailUrl"`
}

// Service implements the suppression decision on top of a Store.
type Service struct {
	store Store
}

// NewService creates a notice service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

func key(version string) string {
	return keyPrefix + version
}

// ShouldShow reports whether the notice for version should display at now.
// It is true unless a stored hide-until timestamp exists and still lies in
// the future. Suppression is scoped per version: a new version always shows
// regardless of older records.
func (s *Service) ShouldShow(ctx context.Context, version string, now time.Time) bool {
	value, err := s.store.Get(ctx, key(version))
	if err != nil {
		log.Printf("notice: read failed, showing notice: %v", err)
		return true
	}
	if value == "" {
		return true
	}

	hideUntil, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("notice: corrupt hide-until value %q, showing notice", value)
		return true
	}
	return now.UnixMilli() >= hideUntil
}

// SuppressUntilEndOfDay hides the notice for version until local end of day
// (23:59:59.999) computed from now. Write failures are swallowed; the worst
// case is the notice showing again.
func (s *Service) SuppressUntilEndOfDay(ctx context.Context, version string, now time.Time) {
	end := endOfDay(now)
	value := strconv.FormatInt(end.UnixMilli(), 10)

	if err := s.store.Set(ctx, key(version), value, end.Sub(now)); err != nil {
		log.Printf("notice: write failed, suppression skipped: %v", err)
	}
}

func endOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), now.Location())
}
