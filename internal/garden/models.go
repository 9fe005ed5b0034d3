package garden

import (
	"strings"
	"time"
)

// WateringFrequency is the catalog's watering class for a plant.
type WateringFrequency string

const (
	WateringFrequent WateringFrequency = "frequent"
	WateringAverage  WateringFrequency = "average"
	WateringMinimum  WateringFrequency = "minimum"
)

// IntervalDays returns the base re-watering interval; unknown classes water like "average".
func (w WateringFrequency) IntervalDays() int {
	switch WateringFrequency(strings.ToLower(strings.TrimSpace(string(w)))) {
	case WateringFrequent:
		return 2
	case WateringMinimum:
		return 7
	default:
		return 4
	}
}

// WaterSavedPerRainEvent is the fixed credit recorded for every rain watering.
const WaterSavedPerRainEvent = 0.125

// WateringMethod is how a plant was watered.
type WateringMethod string

const (
	MethodRain WateringMethod = "rain"
	MethodHose WateringMethod = "hose"
)

// PlantImage holds catalog image URLs.
type PlantImage struct {
	Thumbnail string `json:"thumbnail,omitempty"`
	MediumURL string `json:"medium_url,omitempty"`
}

// CatalogEntry is a shared plant catalog record.
type CatalogEntry struct {
	CommonName     string            `json:"common_name" validate:"required"`
	ScientificName string            `json:"scientific_name"`
	Watering       WateringFrequency `json:"watering"`
	DefaultImage   PlantImage        `json:"default_image"`
	CareLevel      string            `json:"care_level,omitempty"`
	Sunlight       []string          `json:"sunlight,omitempty"`
	Description    string            `json:"description,omitempty"`
}

// Plant is a user's plant: a snapshot of the catalog entry taken when it was
// added, plus the last watering instant.
type Plant struct {
	CatalogEntry
	// LastWatered is an ISO-8601 instant; empty means never watered.
	LastWatered string `json:"lastWatered,omitempty"`
}

// NewPlant snapshots a catalog entry into a user's collection.
func NewPlant(entry CatalogEntry) Plant {
	p := Plant{CatalogEntry: entry}
	if entry.Sunlight != nil {
		p.Sunlight = append([]string(nil), entry.Sunlight...)
	}
	return p
}

// User is a user's stored profile.
type User struct {
	ID     string           `json:"uid"`
	City   string           `json:"city"`
	Plants map[string]Plant `json:"plants"`
}

// WateringEvent is an append-only rain-watering record.
type WateringEvent struct {
	ID               string    `json:"id"`
	PlantName        string    `json:"plantName"`
	WaterSavedLiters float64   `json:"waterSaved"`
	Timestamp        time.Time `json:"timestamp"`
}

// PlantStatus is a plant together with its next watering recommendation.
type PlantStatus struct {
	Plant
	NextWater string `json:"nextWater"`
}
