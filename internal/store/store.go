// Package store implements the durable local store: whole-document
// persistence of the state snapshot, the offline request queue, per-resource
// read caches and stock notification throttle records.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aquaruse/laundrygo/internal/database"
	"github.com/aquaruse/laundrygo/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists documents in the local shop database. Every accessor reads
// or writes a document as a unit; callers never patch individual fields.
type Store struct {
	db *database.DB
}

// New creates a store over an established database connection.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the document tables.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&models.StateDocument{},
		&models.OfflineRequest{},
		&models.ResourceCache{},
		&models.StockNotificationRecord{},
	)
}

// SaveSnapshot writes the whole state snapshot document.
func (s *Store) SaveSnapshot(snapshot *models.StateSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	doc := models.StateDocument{
		Key:       models.DocumentStateSnapshot,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&doc).Error; err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the state snapshot document. Returns (nil, nil) when no
// snapshot has ever been written.
func (s *Store) LoadSnapshot() (*models.StateSnapshot, error) {
	var doc models.StateDocument
	err := s.db.First(&doc, "key = ?", models.DocumentStateSnapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snapshot models.StateSnapshot
	if err := json.Unmarshal(doc.Data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// SetClearedFlag records or removes the "data was cleared" marker consumed by
// the entity cache on its next initialization.
func (s *Store) SetClearedFlag(cleared bool) error {
	if !cleared {
		return s.db.Delete(&models.StateDocument{}, "key = ?", models.DocumentClearedFlag).Error
	}
	doc := models.StateDocument{
		Key:       models.DocumentClearedFlag,
		Data:      []byte(`true`),
		UpdatedAt: time.Now().UTC(),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&doc).Error
}

// ClearedFlag reports whether the cleared marker is set.
func (s *Store) ClearedFlag() bool {
	var count int64
	s.db.Model(&models.StateDocument{}).
		Where("key = ?", models.DocumentClearedFlag).
		Count(&count)
	return count > 0
}

// AppendOfflineRequest appends a deferred write to the queue.
func (s *Store) AppendOfflineRequest(req *models.OfflineRequest) error {
	if err := s.db.Create(req).Error; err != nil {
		return fmt.Errorf("failed to enqueue offline request: %w", err)
	}
	return nil
}

// LoadOfflineRequests returns the queue in enqueue order.
func (s *Store) LoadOfflineRequests() ([]models.OfflineRequest, error) {
	var requests []models.OfflineRequest
	if err := s.db.Order("id asc").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to load offline queue: %w", err)
	}
	return requests, nil
}

// ClearOfflineRequests drops the whole queue.
func (s *Store) ClearOfflineRequests() error {
	return s.db.Where("1 = 1").Delete(&models.OfflineRequest{}).Error
}

// PutResourceCache stores the last successful payload for a resource.
func (s *Store) PutResourceCache(resource string, payload json.RawMessage) error {
	entry := models.ResourceCache{
		Resource: resource,
		Payload:  []byte(payload),
		CachedAt: time.Now().UTC(),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "resource"}},
		UpdateAll: true,
	}).Create(&entry).Error
}

// GetResourceCache returns the cached payload for a resource, or (nil, nil)
// when none exists.
func (s *Store) GetResourceCache(resource string) (json.RawMessage, error) {
	var entry models.ResourceCache
	err := s.db.First(&entry, "resource = ?", resource).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read resource cache: %w", err)
	}
	return json.RawMessage(entry.Payload), nil
}

// LoadNotificationRecords returns every throttle record as signature -> time.
func (s *Store) LoadNotificationRecords() (map[string]time.Time, error) {
	var rows []models.StockNotificationRecord
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load notification records: %w", err)
	}
	records := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		records[row.Signature] = row.NotifiedAt
	}
	return records, nil
}

// SaveNotificationRecords replaces the throttle record document wholesale.
func (s *Store) SaveNotificationRecords(records map[string]time.Time) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.StockNotificationRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		rows := make([]models.StockNotificationRecord, 0, len(records))
		for signature, notifiedAt := range records {
			rows = append(rows, models.StockNotificationRecord{
				Signature:  signature,
				NotifiedAt: notifiedAt,
			})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Signature < rows[j].Signature })
		return tx.Create(&rows).Error
	})
}
