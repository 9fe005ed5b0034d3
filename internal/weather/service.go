package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Service fetches raw samples from a provider and turns them into day summaries.
type Service struct {
	provider ForecastProvider
	loc      *time.Location
	cache    *cache.Cache
	log      *zap.Logger
}

// NewService creates a new Service. A cacheTTL <= 0 disables caching.
func NewService(provider ForecastProvider, loc *time.Location, cacheTTL time.Duration, log *zap.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = zap.NewNop()
	}

	var c *cache.Cache
	if cacheTTL > 0 {
		c = cache.New(cacheTTL, 2*cacheTTL)
	}

	return &Service{
		provider: provider,
		loc:      loc,
		cache:    c,
		log:      log.Named("weather"),
	}
}

// Location returns the time zone used for calendar-day bucketing.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Forecast returns the ordered day summaries for a city, today first.
func (s *Service) Forecast(ctx context.Context, city string) ([]DaySummary, error) {
	key := cacheKey(city)
	if key == "" {
		return nil, ErrCityNotFound
	}

	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			s.log.Debug("forecast cache hit", zap.String("city", city))
			return cloneSummaries(v.([]DaySummary)), nil
		}
	}

	if s.provider == nil {
		return nil, fmt.Errorf("%w: no forecast provider configured", ErrForecastUnavailable)
	}

	samples, err := s.provider.FetchForecast(ctx, city)
	if err != nil {
		s.log.Warn("forecast fetch failed",
			zap.String("provider", s.provider.Name()),
			zap.String("city", city),
			zap.Error(err))
		if errors.Is(err, ErrCityNotFound) || errors.Is(err, ErrForecastUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrForecastUnavailable, err)
	}

	summaries := Summarize(samples, s.loc)
	s.log.Debug("forecast summarized",
		zap.String("city", city),
		zap.Int("samples", len(samples)),
		zap.Int("days", len(summaries)))

	if s.cache != nil {
		s.cache.SetDefault(key, cloneSummaries(summaries))
	}

	return summaries, nil
}

// Invalidate drops any cached summaries for a city.
func (s *Service) Invalidate(city string) {
	if s.cache != nil {
		s.cache.Delete(cacheKey(city))
	}
}

func cacheKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// cloneSummaries keeps cached slices private to the cache.
func cloneSummaries(in []DaySummary) []DaySummary {
	out := make([]DaySummary, len(in))
	copy(out, in)
	return out
}
