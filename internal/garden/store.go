package garden

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores for unknown users, plants or catalog entries.
var ErrNotFound = errors.New("not found")

// Store is the contract every user/plant store backend must satisfy.
//
// Layout mirrors the hosted document store: users/<uid> holds the city and a
// map of plants keyed by common name, users/<uid>/waterusage is append-only,
// and plants/data is the shared catalog.
type Store interface {
	ListUserIDs(ctx context.Context) ([]string, error)
	GetUser(ctx context.Context, uid string) (User, error)
	SetCity(ctx context.Context, uid, city string) error

	AddPlant(ctx context.Context, uid string, plant Plant) error
	// SetLastWatered merges only the lastWatered field of one plant.
	SetLastWatered(ctx context.Context, uid, plantName string, ts time.Time) error

	// RecordRainWatering sets the plant's lastWatered to ev.Timestamp and appends
	// ev in one write. Nothing is written when the plant is unknown.
	RecordRainWatering(ctx context.Context, uid string, ev WateringEvent) error
	ListWateringEvents(ctx context.Context, uid string) ([]WateringEvent, error)

	ListCatalog(ctx context.Context) ([]CatalogEntry, error)
	PutCatalogEntry(ctx context.Context, entry CatalogEntry) error
}

// FormatTimestamp renders instants the way they are persisted.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
