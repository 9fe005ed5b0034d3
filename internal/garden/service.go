package garden

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/waterwise/internal/weather"
)

var (
	ErrRainUnlikely         = errors.New("rain probability today is below 50%; water with the hose instead")
	ErrPlantNotFound        = errors.New("plant not found in collection")
	ErrPlantExists          = errors.New("plant already in collection")
	ErrCatalogEntryNotFound = errors.New("plant not found in catalog")
	ErrWateringInProgress   = errors.New("watering already in progress for this plant")
	ErrUnknownMethod        = errors.New("unknown watering method")
)

// ForecastSource provides ordered day summaries for a city.
type ForecastSource interface {
	Forecast(ctx context.Context, city string) ([]weather.DaySummary, error)
}

// Service implements the plant-care operations on top of a Store and a ForecastSource.
type Service struct {
	store     Store
	forecasts ForecastSource
	log       *zap.Logger
	loc       *time.Location
	now       func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the time zone that defines "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func NewService(store Store, forecasts ForecastSource, opts ...Option) *Service {
	s := &Service{
		store:     store,
		forecasts: forecasts,
		log:       zap.NewNop(),
		loc:       time.Local,
		now:       time.Now,
		inflight:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("garden")
	return s
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

// Dashboard is everything the home screen shows for a user.
type Dashboard struct {
	UserID           string               `json:"uid"`
	City             string               `json:"city"`
	Forecast         []weather.DaySummary `json:"forecast"`
	RainPercentToday *float64             `json:"rainPercentToday,omitempty"`
	CanWaterWithRain bool                 `json:"canWaterWithRain"`
	ForecastError    string               `json:"forecastError,omitempty"`
	Plants           []PlantStatus        `json:"plants"`
}

// Dashboard loads the user's city forecast and plant schedule.
// A forecast failure is reported in the result, not as an error.
func (s *Service) Dashboard(ctx context.Context, uid string) (Dashboard, error) {
	user, err := s.loadUser(ctx, uid)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		UserID:   uid,
		City:     user.City,
		Forecast: []weather.DaySummary{},
	}

	forecast, err := s.userForecast(ctx, user)
	if err != nil {
		d.ForecastError = err.Error()
	} else if forecast != nil {
		d.Forecast = forecast
	}

	if pct, ok := TodayRainPercent(forecast); ok {
		d.RainPercentToday = &pct
		d.CanWaterWithRain = CanWaterWithRain(pct)
	}

	d.Plants = s.schedule(user, forecast)
	return d, nil
}

// ListPlants returns the user's plants, sorted by name, with next-water recommendations.
func (s *Service) ListPlants(ctx context.Context, uid string) ([]PlantStatus, error) {
	user, err := s.loadUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	forecast, err := s.userForecast(ctx, user)
	if err != nil {
		s.log.Warn("scheduling without forecast", zap.String("uid", uid), zap.Error(err))
	}

	return s.schedule(user, forecast), nil
}

func (s *Service) schedule(user User, forecast []weather.DaySummary) []PlantStatus {
	now := s.clock()

	names := make([]string, 0, len(user.Plants))
	for name := range user.Plants {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]PlantStatus, 0, len(names))
	for _, name := range names {
		p := user.Plants[name]
		out = append(out, PlantStatus{
			Plant:     p,
			NextWater: NextWaterDate(p.LastWatered, p.Watering, forecast, now),
		})
	}
	return out
}

// AddPlant copies a catalog entry into the user's collection.
func (s *Service) AddPlant(ctx context.Context, uid, commonName string) (Plant, error) {
	entry, err := s.CatalogEntry(ctx, commonName)
	if err != nil {
		return Plant{}, err
	}

	user, err := s.loadUser(ctx, uid)
	if err != nil {
		return Plant{}, err
	}
	if _, exists := user.Plants[entry.CommonName]; exists {
		return Plant{}, ErrPlantExists
	}

	plant := NewPlant(entry)
	if err := s.store.AddPlant(ctx, uid, plant); err != nil {
		return Plant{}, fmt.Errorf("add plant: %w", err)
	}

	s.log.Info("plant added", zap.String("uid", uid), zap.String("plant", plant.CommonName))
	return plant, nil
}

// CatalogEntry finds a catalog entry by common name, ignoring case.
func (s *Service) CatalogEntry(ctx context.Context, commonName string) (CatalogEntry, error) {
	name := strings.TrimSpace(commonName)
	if name == "" {
		return CatalogEntry{}, ErrCatalogEntryNotFound
	}

	entries, err := s.store.ListCatalog(ctx)
	if err != nil {
		return CatalogEntry{}, fmt.Errorf("list catalog: %w", err)
	}

	for _, e := range entries {
		if strings.EqualFold(e.CommonName, name) {
			return e, nil
		}
	}
	return CatalogEntry{}, ErrCatalogEntryNotFound
}

// ImportCatalog stores catalog entries and returns how many were written.
func (s *Service) ImportCatalog(ctx context.Context, entries []CatalogEntry) (int, error) {
	n := 0
	for _, e := range entries {
		if strings.TrimSpace(e.CommonName) == "" {
			s.log.Warn("skipping catalog entry without common name")
			continue
		}
		if err := s.store.PutCatalogEntry(ctx, e); err != nil {
			return n, fmt.Errorf("put catalog entry %q: %w", e.CommonName, err)
		}
		n++
	}
	return n, nil
}

// SetCity checks the city against the forecast provider and stores it.
func (s *Service) SetCity(ctx context.Context, uid, city string) ([]weather.DaySummary, error) {
	city = strings.TrimSpace(city)
	if s.forecasts == nil {
		return nil, fmt.Errorf("%w: no forecast source", weather.ErrForecastUnavailable)
	}

	forecast, err := s.forecasts.Forecast(ctx, city)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetCity(ctx, uid, city); err != nil {
		return nil, fmt.Errorf("set city: %w", err)
	}

	s.log.Info("city changed", zap.String("uid", uid), zap.String("city", city))
	return forecast, nil
}

// WaterResult describes a completed watering.
type WaterResult struct {
	Plant  PlantStatus    `json:"plant"`
	Method WateringMethod `json:"method"`
	Event  *WateringEvent `json:"event,omitempty"`
}

// Water dispatches to WaterByRain or WaterByHose.
func (s *Service) Water(ctx context.Context, uid, plantName string, method WateringMethod) (WaterResult, error) {
	switch method {
	case MethodRain:
		return s.WaterByRain(ctx, uid, plantName)
	case MethodHose:
		return s.WaterByHose(ctx, uid, plantName)
	default:
		return WaterResult{}, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// WaterByRain records a rain watering if today's forecast allows it.
func (s *Service) WaterByRain(ctx context.Context, uid, plantName string) (WaterResult, error) {
	release, err := s.acquire(uid, plantName)
	if err != nil {
		return WaterResult{}, err
	}
	defer release()

	user, plant, err := s.loadPlant(ctx, uid, plantName)
	if err != nil {
		return WaterResult{}, err
	}

	forecast, err := s.userForecast(ctx, user)
	if err != nil {
		return WaterResult{}, err
	}
	if !RainGateOpen(forecast) {
		pct, _ := TodayRainPercent(forecast)
		s.log.Info("rain watering rejected",
			zap.String("uid", uid),
			zap.String("plant", plantName),
			zap.Float64("rainPercent", pct))
		return WaterResult{}, ErrRainUnlikely
	}

	now := s.clock()
	ev := WateringEvent{
		ID:               uuid.NewString(),
		PlantName:        plant.CommonName,
		WaterSavedLiters: WaterSavedPerRainEvent,
		Timestamp:        now.UTC(),
	}
	if err := s.store.RecordRainWatering(ctx, uid, ev); err != nil {
		return WaterResult{}, fmt.Errorf("record rain watering: %w", err)
	}
	plant.LastWatered = FormatTimestamp(now)

	s.log.Info("plant watered",
		zap.String("uid", uid),
		zap.String("plant", plant.CommonName),
		zap.String("method", string(MethodRain)))

	return WaterResult{
		Plant:  PlantStatus{Plant: plant, NextWater: NextWaterDate(plant.LastWatered, plant.Watering, forecast, now)},
		Method: MethodRain,
		Event:  &ev,
	}, nil
}

// WaterByHose always succeeds for an owned plant and records only the timestamp.
func (s *Service) WaterByHose(ctx context.Context, uid, plantName string) (WaterResult, error) {
	release, err := s.acquire(uid, plantName)
	if err != nil {
		return WaterResult{}, err
	}
	defer release()

	user, plant, err := s.loadPlant(ctx, uid, plantName)
	if err != nil {
		return WaterResult{}, err
	}

	now := s.clock()
	if err := s.store.SetLastWatered(ctx, uid, plant.CommonName, now); err != nil {
		return WaterResult{}, fmt.Errorf("set last watered: %w", err)
	}
	plant.LastWatered = FormatTimestamp(now)

	s.log.Info("plant watered",
		zap.String("uid", uid),
		zap.String("plant", plant.CommonName),
		zap.String("method", string(MethodHose)))

	forecast, err := s.userForecast(ctx, user)
	if err != nil {
		forecast = nil
	}

	return WaterResult{
		Plant:  PlantStatus{Plant: plant, NextWater: NextWaterDate(plant.LastWatered, plant.Watering, forecast, now)},
		Method: MethodHose,
	}, nil
}

// WaterUsage is the rain-watering history of a user.
type WaterUsage struct {
	Events          []WateringEvent `json:"events"`
	TotalWaterSaved float64         `json:"totalWaterSaved"`
}

// WaterUsage lists watering events, oldest first, and their summed credit.
func (s *Service) WaterUsage(ctx context.Context, uid string) (WaterUsage, error) {
	events, err := s.store.ListWateringEvents(ctx, uid)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return WaterUsage{}, fmt.Errorf("list watering events: %w", err)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	u := WaterUsage{Events: events}
	if u.Events == nil {
		u.Events = []WateringEvent{}
	}
	for _, ev := range events {
		u.TotalWaterSaved += ev.WaterSavedLiters
	}
	return u, nil
}

// loadUser treats a missing profile as an empty one: a freshly signed-up user
// has no document yet.
func (s *Service) loadUser(ctx context.Context, uid string) (User, error) {
	user, err := s.store.GetUser(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		return User{ID: uid, Plants: map[string]Plant{}}, nil
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	if user.Plants == nil {
		user.Plants = map[string]Plant{}
	}
	user.ID = uid
	return user, nil
}

func (s *Service) loadPlant(ctx context.Context, uid, plantName string) (User, Plant, error) {
	user, err := s.loadUser(ctx, uid)
	if err != nil {
		return User{}, Plant{}, err
	}
	plant, ok := user.Plants[plantName]
	if !ok {
		return User{}, Plant{}, ErrPlantNotFound
	}
	return user, plant, nil
}

// userForecast returns nil without error when the user has not picked a city.
func (s *Service) userForecast(ctx context.Context, user User) ([]weather.DaySummary, error) {
	if strings.TrimSpace(user.City) == "" || s.forecasts == nil {
		return nil, nil
	}
	return s.forecasts.Forecast(ctx, user.City)
}

// acquire marks a plant as being watered; the returned func clears the mark.
func (s *Service) acquire(uid, plantName string) (func(), error) {
	key := uid + "/" + plantName

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[key]; busy {
		return nil, ErrWateringInProgress
	}
	s.inflight[key] = struct{}{}

	return func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}, nil
}
