package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document keys used by the durable local store. All documents are read and
// written whole; there are no partial-field updates at the storage layer.
const (
	DocumentStateSnapshot = "state_snapshot"
	DocumentClearedFlag   = "data_cleared"
)

// StateSnapshot is the single JSON document holding the authoritative local
// copy of all business collections plus the order-id allocator.
type StateSnapshot struct {
	Orders         []Order             `json:"orders"`
	Customers      []Customer          `json:"customers"`
	Staff          []Staff             `json:"staff"`
	Supplies       map[string]Quantity `json:"supplies"`
	OrderIDCounter int                 `json:"order_id_counter"`
}

// StateDocument is a whole-document row in the local store.
type StateDocument struct {
	Key       string         `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Data      datatypes.JSON `json:"data"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName specifies the table name for StateDocument
func (StateDocument) TableName() string {
	return "state_documents"
}

// OfflineRequest is a deferred remote write, appended while the gateway is
// offline and replayed FIFO when connectivity returns.
type OfflineRequest struct {
	ID         int64          `gorm:"primaryKey;autoIncrement:false" json:"id"` // UnixNano at enqueue time
	Method     string         `gorm:"type:varchar(10);not null" json:"method"`
	Action     string         `gorm:"type:varchar(100);not null;index" json:"action"`
	Payload    datatypes.JSON `json:"payload"`
	EnqueuedAt time.Time      `gorm:"not null" json:"enqueued_at"`
}

// TableName specifies the table name for OfflineRequest
func (OfflineRequest) TableName() string {
	return "offline_requests"
}

// ResourceCache is the last successful remote payload for a resource,
// served read-through while offline.
type ResourceCache struct {
	Resource string         `gorm:"primaryKey;type:varchar(100)" json:"resource"`
	Payload  datatypes.JSON `json:"payload"`
	CachedAt time.Time      `json:"cached_at"`
}

// TableName specifies the table name for ResourceCache
func (ResourceCache) TableName() string {
	return "resource_caches"
}

// StockNotificationRecord remembers when a shortage signature was last
// surfaced, purely for throttling.
type StockNotificationRecord struct {
	Signature  string    `gorm:"primaryKey;type:varchar(512)" json:"signature"`
	NotifiedAt time.Time `gorm:"not null;index" json:"notified_at"`
}

// TableName specifies the table name for StockNotificationRecord
func (StockNotificationRecord) TableName() string {
	return "stock_notification_records"
}
