package weather

import (
	"context"
	"errors"
)

var (
	// ErrCityNotFound is returned when the provider rejects the requested city.
	ErrCityNotFound = errors.New("city not found")
	// ErrForecastUnavailable is returned when the provider cannot be reached or answers garbage.
	ErrForecastUnavailable = errors.New("forecast unavailable")
)

// ForecastProvider abstracts a source of raw 3-hour forecast samples.
type ForecastProvider interface {
	Name() string
	FetchForecast(ctx context.Context, city string) ([]ForecastSample, error)
}
