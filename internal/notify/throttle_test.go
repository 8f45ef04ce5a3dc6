package notify

import (
	"fmt"
	"testing"
	"time"

	"github.com/aquaruse/laundrygo/internal/models"
)

// fakeRecordStore is an in-memory RecordStore
type fakeRecordStore struct {
	records map[string]time.Time
	saves   int
}

func (f *fakeRecordStore) LoadNotificationRecords() (map[string]time.Time, error) {
	return f.records, nil
}

func (f *fakeRecordStore) SaveNotificationRecords(records map[string]time.Time) error {
	f.records = records
	f.saves++
	return nil
}

func TestClassify(t *testing.T) {
	quantities := models.DefaultSupplies()
	quantities[models.SupplyDetergent] = 0
	quantities[models.SupplyBleach] = 3
	quantities[models.SupplyGarmentBag] = 5

	c := Classify(quantities)
	if len(c.Out) != 1 || c.Out[0] != "Detergent" {
		t.Errorf("out = %v, want [Detergent]", c.Out)
	}
	if len(c.Low) != 2 || c.Low[0] != "Bleach" || c.Low[1] != "Garment Bag" {
		t.Errorf("low = %v, want [Bleach Garment Bag]", c.Low)
	}

	// Pure on its input
	again := Classify(quantities)
	if Signature(again) != Signature(c) {
		t.Error("classification is not stable across calls")
	}
}

func TestSignatureIsCanonical(t *testing.T) {
	a := Classification{Out: []string{"Detergent"}, Low: []string{"Bleach", "Softener"}}
	b := Classification{Out: []string{"Detergent"}, Low: []string{"Softener", "Bleach"}}
	if Signature(a) != Signature(b) {
		t.Errorf("signatures differ for the same shortage set: %q vs %q", Signature(a), Signature(b))
	}
	if got, want := Signature(a), "low:Bleach,low:Softener,out:Detergent"; got != want {
		t.Errorf("signature = %q, want %q", got, want)
	}
	if Signature(Classification{}) != "" {
		t.Error("empty classification must have an empty signature")
	}
}

func TestThrottleSuppressesRepeatsWithinInterval(t *testing.T) {
	store := &fakeRecordStore{}
	throttle := NewThrottle(store)

	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	throttle.now = func() time.Time { return base }

	sig := "out:Detergent"
	if !throttle.ShouldNotify(sig) {
		t.Fatal("first occurrence must notify")
	}
	throttle.RecordNotified(sig, base)

	throttle.now = func() time.Time { return base.Add(2 * time.Hour) }
	if throttle.ShouldNotify(sig) {
		t.Error("repeat within the interval must be suppressed")
	}

	throttle.now = func() time.Time { return base.Add(NotificationInterval + time.Minute) }
	if !throttle.ShouldNotify(sig) {
		t.Error("notification must fire again after the interval elapses")
	}
}

func TestThrottleChangedSignatureNotifiesImmediately(t *testing.T) {
	store := &fakeRecordStore{}
	throttle := NewThrottle(store)

	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	throttle.now = func() time.Time { return base }
	throttle.RecordNotified("out:Detergent", base)

	if !throttle.ShouldNotify("low:Bleach,out:Detergent") {
		t.Error("a changed shortage set must not be throttled by the old one")
	}
}

func TestThrottleHydratesFromStore(t *testing.T) {
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	store := &fakeRecordStore{records: map[string]time.Time{"out:Fragrance": base}}

	throttle := NewThrottle(store)
	throttle.now = func() time.Time { return base.Add(time.Hour) }
	if throttle.ShouldNotify("out:Fragrance") {
		t.Error("persisted record must survive a restart")
	}
}

func TestRecordNotifiedPrunesOldest(t *testing.T) {
	store := &fakeRecordStore{}
	throttle := NewThrottle(store)

	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		throttle.RecordNotified(fmt.Sprintf("out:Supply%02d", i), base.Add(time.Duration(i)*time.Minute))
	}

	if len(store.records) != maxRecords {
		t.Fatalf("got %d records, want %d", len(store.records), maxRecords)
	}
	if _, ok := store.records["out:Supply00"]; ok {
		t.Error("oldest record must be evicted")
	}
	if _, ok := store.records["out:Supply24"]; !ok {
		t.Error("newest record must survive pruning")
	}
}

func TestAlertMessages(t *testing.T) {
	one := Classification{Out: []string{"Detergent"}, Low: []string{"Bleach"}}
	if got := OutMessage(one); got != "Detergent is out of stock" {
		t.Errorf("OutMessage = %q", got)
	}
	if got := LowMessage(one); got != "Bleach is running low" {
		t.Errorf("LowMessage = %q", got)
	}

	many := Classification{
		Out: []string{"Detergent", "Softener"},
		Low: []string{"Bleach", "Fragrance", "Steam Water"},
	}
	if got := OutMessage(many); got != "2 supplies are out of stock: Detergent, Softener" {
		t.Errorf("OutMessage = %q", got)
	}
	if got := LowMessage(many); got != "3 supplies are running low: Bleach, Fragrance, Steam Water" {
		t.Errorf("LowMessage = %q", got)
	}
}
