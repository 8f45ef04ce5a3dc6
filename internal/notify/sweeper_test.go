package notify

import (
	"testing"
	"time"

	"github.com/aquaruse/laundrygo/internal/models"
)

type fixedSupplies map[string]int

func (f fixedSupplies) GetSupplies() map[string]int { return f }

func TestSweepEmitsThrottledAlerts(t *testing.T) {
	supplies := fixedSupplies(models.DefaultSupplies())
	supplies[models.SupplyDetergent] = 0
	supplies[models.SupplySoftener] = 4

	throttle := NewThrottle(&fakeRecordStore{})
	base := time.Date(2020, 1, 1, 8, 0, 0, 0, time.UTC)
	throttle.now = func() time.Time { return base }

	var events []string
	sweeper := NewSweeper(supplies, throttle, func(eventType, title, message string) {
		events = append(events, eventType+": "+message)
	}, time.Hour)

	sweeper.Sweep()
	if len(events) != 2 {
		t.Fatalf("got %d events, want out + low: %v", len(events), events)
	}
	if events[0] != "stock_out: Detergent is out of stock" {
		t.Errorf("first event = %q", events[0])
	}
	if events[1] != "stock_low: Softener is running low" {
		t.Errorf("second event = %q", events[1])
	}

	// Same shortage set again: throttled
	sweeper.Sweep()
	if len(events) != 2 {
		t.Errorf("repeat sweep emitted %d extra events", len(events)-2)
	}
}

func TestSweepHealthyStockEmitsNothing(t *testing.T) {
	throttle := NewThrottle(&fakeRecordStore{})
	called := false
	sweeper := NewSweeper(fixedSupplies(models.DefaultSupplies()), throttle, func(string, string, string) {
		called = true
	}, time.Hour)

	sweeper.Sweep()
	if called {
		t.Error("healthy stock must not emit alerts")
	}
}
