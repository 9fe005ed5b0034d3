package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/i474232898/waterwise/internal/garden"
)

type userRow struct {
	UID  string `gorm:"primaryKey"`
	City string
}

func (userRow) TableName() string { return "users" }

// PlantFields are the catalog columns shared by user plants and catalog entries.
type PlantFields struct {
	ScientificName string
	Watering       string
	ImageThumbnail string
	ImageMedium    string
	CareLevel      string
	Sunlight       string // JSON array
	Description    string
}

type plantRow struct {
	UID         string `gorm:"primaryKey"`
	CommonName  string `gorm:"primaryKey"`
	LastWatered string

	PlantFields `gorm:"embedded"`
}

func (plantRow) TableName() string { return "user_plants" }

type wateringEventRow struct {
	ID         string `gorm:"primaryKey"`
	UID        string `gorm:"index"`
	PlantName  string
	WaterSaved float64
	Timestamp  time.Time
}

func (wateringEventRow) TableName() string { return "watering_events" }

type catalogRow struct {
	NameKey    string `gorm:"primaryKey"`
	CommonName string

	PlantFields `gorm:"embedded"`
}

func (catalogRow) TableName() string { return "catalog_entries" }

// SQLiteStore persists users, plants, watering events and the catalog with gorm.
type SQLiteStore struct {
	db *gorm.DB
}

var _ garden.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path and migrates the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&userRow{}, &plantRow{}, &wateringEventRow{}, &catalogRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteStore) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&userRow{}).Order("uid").Pluck("uid", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, uid string) (garden.User, error) {
	db := s.db.WithContext(ctx)

	var u userRow
	if err := db.First(&u, "uid = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return garden.User{}, ErrNotFound
		}
		return garden.User{}, err
	}

	var rows []plantRow
	if err := db.Where("uid = ?", uid).Find(&rows).Error; err != nil {
		return garden.User{}, err
	}

	user := garden.User{
		ID:     uid,
		City:   u.City,
		Plants: make(map[string]garden.Plant, len(rows)),
	}
	for _, r := range rows {
		user.Plants[r.CommonName] = garden.Plant{
			CatalogEntry: r.PlantFields.toEntry(r.CommonName),
			LastWatered:  r.LastWatered,
		}
	}
	return user, nil
}

func (s *SQLiteStore) ensureUser(db *gorm.DB, uid string) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&userRow{UID: uid}).Error
}

func (s *SQLiteStore) SetCity(ctx context.Context, uid, city string) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"city"}),
	}).Create(&userRow{UID: uid, City: city}).Error
}

func (s *SQLiteStore) AddPlant(ctx context.Context, uid string, plant garden.Plant) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureUser(tx, uid); err != nil {
			return err
		}
		row := plantRow{
			UID:         uid,
			CommonName:  plant.CommonName,
			PlantFields: fieldsFromEntry(plant.CatalogEntry),
			LastWatered: plant.LastWatered,
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	})
}

func (s *SQLiteStore) SetLastWatered(ctx context.Context, uid, plantName string, ts time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&plantRow{}).
		Where("uid = ? AND common_name = ?", uid, plantName).
		Update("last_watered", garden.FormatTimestamp(ts))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) RecordRainWatering(ctx context.Context, uid string, ev garden.WateringEvent) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&plantRow{}).
			Where("uid = ? AND common_name = ?", uid, ev.PlantName).
			Update("last_watered", garden.FormatTimestamp(ev.Timestamp))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Create(&wateringEventRow{
			ID:         ev.ID,
			UID:        uid,
			PlantName:  ev.PlantName,
			WaterSaved: ev.WaterSavedLiters,
			Timestamp:  ev.Timestamp.UTC(),
		}).Error
	})
}

func (s *SQLiteStore) ListWateringEvents(ctx context.Context, uid string) ([]garden.WateringEvent, error) {
	var rows []wateringEventRow
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).Order("timestamp").Find(&rows).Error; err != nil {
		return nil, err
	}

	events := make([]garden.WateringEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, garden.WateringEvent{
			ID:               r.ID,
			PlantName:        r.PlantName,
			WaterSavedLiters: r.WaterSaved,
			Timestamp:        r.Timestamp.UTC(),
		})
	}
	return events, nil
}

func (s *SQLiteStore) ListCatalog(ctx context.Context) ([]garden.CatalogEntry, error) {
	var rows []catalogRow
	if err := s.db.WithContext(ctx).Order("common_name").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]garden.CatalogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.PlantFields.toEntry(r.CommonName))
	}
	return out, nil
}

func (s *SQLiteStore) PutCatalogEntry(ctx context.Context, entry garden.CatalogEntry) error {
	row := catalogRow{
		NameKey:     strings.ToLower(entry.CommonName),
		CommonName:  entry.CommonName,
		PlantFields: fieldsFromEntry(entry),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func fieldsFromEntry(e garden.CatalogEntry) PlantFields {
	sunlight := "[]"
	if len(e.Sunlight) > 0 {
		if b, err := json.Marshal(e.Sunlight); err == nil {
			sunlight = string(b)
		}
	}
	return PlantFields{
		ScientificName: e.ScientificName,
		Watering:       string(e.Watering),
		ImageThumbnail: e.DefaultImage.Thumbnail,
		ImageMedium:    e.DefaultImage.MediumURL,
		CareLevel:      e.CareLevel,
		Sunlight:       sunlight,
		Description:    e.Description,
	}
}

func (f PlantFields) toEntry(commonName string) garden.CatalogEntry {
	var sunlight []string
	if f.Sunlight != "" {
		_ = json.Unmarshal([]byte(f.Sunlight), &sunlight)
	}
	if len(sunlight) == 0 {
		sunlight = nil
	}
	return garden.CatalogEntry{
		CommonName:     commonName,
		ScientificName: f.ScientificName,
		Watering:       garden.WateringFrequency(f.Watering),
		DefaultImage: garden.PlantImage{
			Thumbnail: f.ImageThumbnail,
			MediumURL: f.ImageMedium,
		},
		CareLevel:   f.CareLevel,
		Sunlight:    sunlight,
		Description: f.Description,
	}
}
