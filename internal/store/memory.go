package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/waterwise/internal/garden"
)

// ErrNotFound is returned when no data is available for a given key.
var ErrNotFound = garden.ErrNotFound

// userRecord holds everything stored under users/<uid>.
type userRecord struct {
	City       string
	Plants     map[string]garden.Plant
	WaterUsage []garden.WateringEvent
}

// MemoryStore is a concurrency-safe in-memory implementation of garden.Store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: uid
	users map[string]*userRecord

	// key: lower-cased common name
	catalog map[string]garden.CatalogEntry
}

var _ garden.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*userRecord),
		catalog: make(map[string]garden.CatalogEntry),
	}
}

func (s *MemoryStore) ListUserIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, uid string) (garden.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[uid]
	if !ok {
		return garden.User{}, ErrNotFound
	}

	u := garden.User{
		ID:     uid,
		City:   rec.City,
		Plants: make(map[string]garden.Plant, len(rec.Plants)),
	}
	for name, p := range rec.Plants {
		u.Plants[name] = p
	}
	return u, nil
}

// record returns the user's record, creating it. Callers hold s.mu.
func (s *MemoryStore) record(uid string) *userRecord {
	rec, ok := s.users[uid]
	if !ok {
		rec = &userRecord{Plants: make(map[string]garden.Plant)}
		s.users[uid] = rec
	}
	return rec
}

func (s *MemoryStore) SetCity(ctx context.Context, uid, city string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(uid).City = city
	return nil
}

func (s *MemoryStore) AddPlant(ctx context.Context, uid string, plant garden.Plant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(uid).Plants[plant.CommonName] = plant
	return nil
}

func (s *MemoryStore) SetLastWatered(ctx context.Context, uid, plantName string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[uid]
	if !ok {
		return ErrNotFound
	}
	p, ok := rec.Plants[plantName]
	if !ok {
		return ErrNotFound
	}
	p.LastWatered = garden.FormatTimestamp(ts)
	rec.Plants[plantName] = p
	return nil
}

func (s *MemoryStore) RecordRainWatering(ctx context.Context, uid string, ev garden.WateringEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[uid]
	if !ok {
		return ErrNotFound
	}
	p, ok := rec.Plants[ev.PlantName]
	if !ok {
		return ErrNotFound
	}
	p.LastWatered = garden.FormatTimestamp(ev.Timestamp)
	rec.Plants[ev.PlantName] = p
	rec.WaterUsage = append(rec.WaterUsage, ev)
	return nil
}

func (s *MemoryStore) ListWateringEvents(ctx context.Context, uid string) ([]garden.WateringEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]garden.WateringEvent(nil), rec.WaterUsage...), nil
}

func (s *MemoryStore) ListCatalog(ctx context.Context) ([]garden.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]garden.CatalogEntry, 0, len(s.catalog))
	for _, e := range s.catalog {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CommonName < out[j].CommonName
	})
	return out, nil
}

func (s *MemoryStore) PutCatalogEntry(ctx context.Context, entry garden.CatalogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalog[strings.ToLower(entry.CommonName)] = entry
	return nil
}
