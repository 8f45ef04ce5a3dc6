// Package notify decides whether an already-true stock condition may surface
// to the user right now. It never decides business truth.
package notify

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aquaruse/laundrygo/internal/inventory"
	"github.com/aquaruse/laundrygo/internal/models"
)

const (
	// NotificationInterval suppresses repeats of the same shortage set.
	NotificationInterval = 4 * time.Hour

	// maxRecords bounds the throttle record document.
	maxRecords = 20
)

// Classification groups supply labels by stock condition.
type Classification struct {
	Low []string `json:"low"`
	Out []string `json:"out"`
}

// Empty reports whether no supply is low or out.
func (c Classification) Empty() bool {
	return len(c.Low) == 0 && len(c.Out) == 0
}

// Classify buckets every supply quantity into low/out using the engine's
// thresholds. Pure and idempotent; labels come out in display order.
func Classify(quantities map[string]int) Classification {
	var c Classification
	c.Low = []string{}
	c.Out = []string{}
	for _, key := range models.SupplyKeys {
		qty, tracked := quantities[key]
		if !tracked {
			continue
		}
		switch inventory.ClassifyQuantity(qty) {
		case inventory.StockOut:
			c.Out = append(c.Out, models.SupplyLabel(key))
		case inventory.StockLow:
			c.Low = append(c.Low, models.SupplyLabel(key))
		}
	}
	return c
}

// Signature canonicalizes a shortage set: each affected supply tagged
// out/low, sorted, comma-joined. A change in the affected set yields a new
// signature and therefore a fresh notification.
func Signature(c Classification) string {
	tagged := make([]string, 0, len(c.Low)+len(c.Out))
	for _, name := range c.Out {
		tagged = append(tagged, "out:"+name)
	}
	for _, name := range c.Low {
		tagged = append(tagged, "low:"+name)
	}
	sort.Strings(tagged)
	return strings.Join(tagged, ",")
}

// RecordStore persists throttle records as one whole document.
type RecordStore interface {
	LoadNotificationRecords() (map[string]time.Time, error)
	SaveNotificationRecords(map[string]time.Time) error
}

// Throttle suppresses repeated alerts for an unchanged shortage set within
// the notification interval.
type Throttle struct {
	mu      sync.RWMutex
	store   RecordStore
	records map[string]time.Time
	now     func() time.Time
}

// NewThrottle creates a throttle, hydrating past records from the store.
func NewThrottle(store RecordStore) *Throttle {
	records, err := store.LoadNotificationRecords()
	if err != nil {
		log.Printf("⚠️  Could not load stock notification records: %v", err)
		records = make(map[string]time.Time)
	}
	if records == nil {
		records = make(map[string]time.Time)
	}
	return &Throttle{
		store:   store,
		records: records,
		now:     time.Now,
	}
}

// ShouldNotify returns true iff the signature has no record or its last
// record is older than the notification interval.
func (t *Throttle) ShouldNotify(signature string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	last, ok := t.records[signature]
	if !ok {
		return true
	}
	return t.now().Sub(last) > NotificationInterval
}

// RecordNotified stamps the signature and prunes the record set to the most
// recent entries, evicting oldest-by-timestamp first.
func (t *Throttle) RecordNotified(signature string, at time.Time) {
	t.mu.Lock()
	t.records[signature] = at

	if len(t.records) > maxRecords {
		type entry struct {
			signature string
			at        time.Time
		}
		entries := make([]entry, 0, len(t.records))
		for sig, ts := range t.records {
			entries = append(entries, entry{sig, ts})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].at.After(entries[j].at) })
		pruned := make(map[string]time.Time, maxRecords)
		for _, e := range entries[:maxRecords] {
			pruned[e.signature] = e.at
		}
		t.records = pruned
	}

	snapshot := make(map[string]time.Time, len(t.records))
	for sig, ts := range t.records {
		snapshot[sig] = ts
	}
	t.mu.Unlock()

	if err := t.store.SaveNotificationRecords(snapshot); err != nil {
		log.Printf("⚠️  Could not persist stock notification records: %v", err)
	}
}

// OutMessage renders the out-of-stock alert text for a classification.
func OutMessage(c Classification) string {
	if len(c.Out) == 0 {
		return ""
	}
	if len(c.Out) == 1 {
		return fmt.Sprintf("%s is out of stock", c.Out[0])
	}
	return fmt.Sprintf("%d supplies are out of stock: %s", len(c.Out), strings.Join(c.Out, ", "))
}

// LowMessage renders the low-stock alert text for a classification.
func LowMessage(c Classification) string {
	if len(c.Low) == 0 {
		return ""
	}
	if len(c.Low) == 1 {
		return fmt.Sprintf("%s is running low", c.Low[0])
	}
	return fmt.Sprintf("%d supplies are running low: %s", len(c.Low), strings.Join(c.Low, ", "))
}
