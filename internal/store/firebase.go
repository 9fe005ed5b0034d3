package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"github.com/i474232898/waterwise/internal/garden"
)

const (
	usersPath   = "users"
	catalogPath = "plants/data"
)

// FirebaseStore keeps users, plants and watering events in a Firebase
// Realtime Database using the same layout as the hosted web client.
type FirebaseStore struct {
	client *db.Client
}

var _ garden.Store = (*FirebaseStore)(nil)

// NewFirebaseStore connects to the database at databaseURL. An empty
// credentialsFile falls back to application default credentials.
func NewFirebaseStore(ctx context.Context, databaseURL, credentialsFile string) (*FirebaseStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase database: %w", err)
	}

	return &FirebaseStore{client: client}, nil
}

type firebaseUser struct {
	City       string                          `json:"city"`
	Plants     map[string]garden.Plant         `json:"plants"`
	WaterUsage map[string]garden.WateringEvent `json:"waterusage"`
}

func userRef(c *db.Client, uid string) *db.Ref {
	return c.NewRef(usersPath).Child(uid)
}

func (s *FirebaseStore) ListUserIDs(ctx context.Context) ([]string, error) {
	var shallow map[string]interface{}
	if err := s.client.NewRef(usersPath).GetShallow(ctx, &shallow); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(shallow))
	for id := range shallow {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FirebaseStore) GetUser(ctx context.Context, uid string) (garden.User, error) {
	var rec *firebaseUser
	if err := userRef(s.client, uid).Get(ctx, &rec); err != nil {
		return garden.User{}, err
	}
	if rec == nil {
		return garden.User{}, ErrNotFound
	}

	u := garden.User{
		ID:     uid,
		City:   rec.City,
		Plants: make(map[string]garden.Plant, len(rec.Plants)),
	}
	for key, p := range rec.Plants {
		name := p.CommonName
		if name == "" {
			name = key
			p.CommonName = key
		}
		u.Plants[name] = p
	}
	return u, nil
}

func (s *FirebaseStore) SetCity(ctx context.Context, uid, city string) error {
	return userRef(s.client, uid).Update(ctx, map[string]interface{}{"city": city})
}

func (s *FirebaseStore) AddPlant(ctx context.Context, uid string, plant garden.Plant) error {
	return userRef(s.client, uid).Child("plants").Child(firebaseKey(plant.CommonName)).Set(ctx, plant)
}

func (s *FirebaseStore) SetLastWatered(ctx context.Context, uid, plantName string, ts time.Time) error {
	ref := userRef(s.client, uid).Child("plants").Child(firebaseKey(plantName))

	var existing *garden.Plant
	if err := ref.Get(ctx, &existing); err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}

	return ref.Update(ctx, map[string]interface{}{"lastWatered": garden.FormatTimestamp(ts)})
}

// RecordRainWatering writes lastWatered and the new waterusage child in a
// single multi-path update.
func (s *FirebaseStore) RecordRainWatering(ctx context.Context, uid string, ev garden.WateringEvent) error {
	ref := userRef(s.client, uid)
	plantKey := firebaseKey(ev.PlantName)

	var existing *garden.Plant
	if err := ref.Child("plants").Child(plantKey).Get(ctx, &existing); err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}

	// A nil value only allocates the push id.
	child, err := ref.Child("waterusage").Push(ctx, nil)
	if err != nil {
		return err
	}

	return ref.Update(ctx, map[string]interface{}{
		"plants/" + plantKey + "/lastWatered": garden.FormatTimestamp(ev.Timestamp),
		"waterusage/" + child.Key:             ev,
	})
}

func (s *FirebaseStore) ListWateringEvents(ctx context.Context, uid string) ([]garden.WateringEvent, error) {
	var byKey map[string]garden.WateringEvent
	if err := userRef(s.client, uid).Child("waterusage").Get(ctx, &byKey); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	// Push ids sort chronologically.
	sort.Strings(keys)

	events := make([]garden.WateringEvent, 0, len(keys))
	for _, k := range keys {
		ev := byKey[k]
		if ev.ID == "" {
			ev.ID = k
		}
		events = append(events, ev)
	}
	return events, nil
}

func (s *FirebaseStore) ListCatalog(ctx context.Context) ([]garden.CatalogEntry, error) {
	var raw json.RawMessage
	if err := s.client.NewRef(catalogPath).Get(ctx, &raw); err != nil {
		return nil, err
	}
	return decodeCatalog(raw)
}

func (s *FirebaseStore) PutCatalogEntry(ctx context.Context, entry garden.CatalogEntry) error {
	return s.client.NewRef(catalogPath).Child(firebaseKey(strings.ToLower(entry.CommonName))).Set(ctx, entry)
}

// decodeCatalog accepts both shapes the database may hold under plants/data:
// an array (bulk import) or an object keyed by child id.
func decodeCatalog(raw json.RawMessage) ([]garden.CatalogEntry, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var entries []garden.CatalogEntry
	if strings.HasPrefix(trimmed, "[") {
		var list []*garden.CatalogEntry
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		for _, e := range list {
			if e != nil && e.CommonName != "" {
				entries = append(entries, *e)
			}
		}
	} else {
		var byKey map[string]garden.CatalogEntry
		if err := json.Unmarshal(raw, &byKey); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		for _, e := range byKey {
			if e.CommonName != "" {
				entries = append(entries, e)
			}
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CommonName < entries[j].CommonName
	})
	return entries, nil
}

// firebaseKey replaces characters the Realtime Database forbids in keys.
func firebaseKey(name string) string {
	return strings.NewReplacer(
		".", "_",
		"$", "_",
		"#", "_",
		"[", "_",
		"]", "_",
		"/", "_",
	).Replace(name)
}
