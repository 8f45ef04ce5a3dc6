package inventory

import (
	"errors"
	"testing"

	"github.com/aquaruse/laundrygo/internal/models"
)

// fakeState is an in-memory SupplyState
type fakeState struct {
	supplies  map[string]int
	updateErr error
	updates   int
}

func newFakeState(overrides map[string]int) *fakeState {
	supplies := models.DefaultSupplies()
	for key, qty := range overrides {
		supplies[key] = qty
	}
	return &fakeState{supplies: supplies}
}

func (f *fakeState) GetSupplies() map[string]int {
	out := make(map[string]int, len(f.supplies))
	for k, v := range f.supplies {
		out[k] = v
	}
	return out
}

func (f *fakeState) UpdateSupplies(partial map[string]int) error {
	f.updates++
	for k, v := range partial {
		f.supplies[k] = v
	}
	return f.updateErr
}

func TestConsumeRegularLaundry(t *testing.T) {
	state := newFakeState(nil)
	engine := NewEngine(state)

	outcome, ok := engine.Consume(models.ServiceRegularLaundry, 3)
	if !ok {
		t.Fatal("expected consumption to succeed with default stock")
	}

	consumed := []string{
		models.SupplyDetergent, models.SupplySoftener, models.SupplyBleach,
		models.SupplyFragrance, models.SupplyStainRemover,
	}
	for _, key := range consumed {
		if got := state.supplies[key]; got != 12 {
			t.Errorf("%s = %d, want 12", key, got)
		}
		if outcome.Consumed[key] != 3 {
			t.Errorf("consumed[%s] = %d, want 3", key, outcome.Consumed[key])
		}
	}
	for _, key := range []string{models.SupplySteamWater, models.SupplyGarmentBag} {
		if got := state.supplies[key]; got != 15 {
			t.Errorf("%s = %d, want untouched 15", key, got)
		}
	}
	if len(outcome.Low) != 0 || len(outcome.Out) != 0 {
		t.Errorf("unexpected stock alerts: low=%v out=%v", outcome.Low, outcome.Out)
	}
}

func TestCheckSufficiencyReportsShortage(t *testing.T) {
	state := newFakeState(map[string]int{models.SupplyDetergent: 12})
	engine := NewEngine(state)

	result := engine.CheckSufficiency(models.ServiceRegularLaundry, 20)
	if result.Sufficient {
		t.Fatal("expected insufficient stock")
	}
	if len(result.Shortages) != 5 {
		t.Fatalf("got %d shortages, want 5", len(result.Shortages))
	}

	var detergent *Shortage
	for i := range result.Shortages {
		if result.Shortages[i].Supply == "Detergent" {
			detergent = &result.Shortages[i]
		}
	}
	if detergent == nil {
		t.Fatal("detergent shortage missing")
	}
	if detergent.Needed != 20 || detergent.Available != 12 || detergent.Shortage != 8 {
		t.Errorf("detergent shortage = %+v, want needed 20 available 12 shortage 8", *detergent)
	}
}

func TestConsumeInsufficientMutatesNothing(t *testing.T) {
	state := newFakeState(map[string]int{models.SupplyBleach: 2})
	engine := NewEngine(state)

	_, ok := engine.Consume(models.ServiceRegularLaundry, 5)
	if ok {
		t.Fatal("expected consumption to be rejected")
	}
	if state.updates != 0 {
		t.Errorf("state was updated %d times on a rejected consumption", state.updates)
	}
	if state.supplies[models.SupplyBleach] != 2 {
		t.Errorf("bleach = %d, want untouched 2", state.supplies[models.SupplyBleach])
	}
}

func TestConsumeClassifiesPostDecrementLevels(t *testing.T) {
	state := newFakeState(map[string]int{
		models.SupplyFragrance:  2,
		models.SupplySteamWater: 7,
	})
	engine := NewEngine(state)

	outcome, ok := engine.Consume(models.ServiceIronAndPress, 2)
	if !ok {
		t.Fatal("expected consumption to succeed")
	}
	if len(outcome.Out) != 1 || outcome.Out[0] != "Fragrance" {
		t.Errorf("out = %v, want [Fragrance]", outcome.Out)
	}
	if len(outcome.Low) != 1 || outcome.Low[0] != "Steam Water" {
		t.Errorf("low = %v, want [Steam Water]", outcome.Low)
	}
	if state.supplies[models.SupplyFragrance] != 0 {
		t.Errorf("fragrance = %d, want 0", state.supplies[models.SupplyFragrance])
	}
	if state.supplies[models.SupplySteamWater] != 5 {
		t.Errorf("steam water = %d, want 5", state.supplies[models.SupplySteamWater])
	}
}

func TestConsumeUnknownServiceType(t *testing.T) {
	state := newFakeState(nil)
	engine := NewEngine(state)

	outcome, ok := engine.Consume(models.ServiceType("Shoe Shine"), 4)
	if !ok {
		t.Fatal("unknown service type must not be rejected")
	}
	if len(outcome.Consumed) != 0 {
		t.Errorf("consumed = %v, want nothing", outcome.Consumed)
	}
	if state.updates != 0 {
		t.Error("unknown service type must not touch the inventory")
	}
}

func TestConsumeSurvivesPersistFailure(t *testing.T) {
	state := newFakeState(nil)
	state.updateErr = errors.New("disk full")
	engine := NewEngine(state)

	_, ok := engine.Consume(models.ServiceDryCleaning, 1)
	if !ok {
		t.Fatal("persist failure must not reject the consumption")
	}
	if state.supplies[models.SupplyGarmentBag] != 14 {
		t.Errorf("garment bag = %d, want 14", state.supplies[models.SupplyGarmentBag])
	}
}

func TestClassifyQuantity(t *testing.T) {
	cases := []struct {
		qty  int
		want StockLevel
	}{
		{-1, StockOut},
		{0, StockOut},
		{1, StockLow},
		{5, StockLow},
		{6, StockIn},
		{15, StockIn},
	}
	for _, tc := range cases {
		if got := ClassifyQuantity(tc.qty); got != tc.want {
			t.Errorf("ClassifyQuantity(%d) = %s, want %s", tc.qty, got, tc.want)
		}
	}
}
