// Package inventory implements the supply consumption engine: the per-service
// consumption table, the sufficiency check and the atomic check-then-consume
// protocol over the shared supply inventory.
package inventory

import (
	"log"
	"sync"

	"github.com/aquaruse/laundrygo/internal/models"
)

// ConsumptionTable defines per-load supply usage for each service type.
// Entries with zero usage are omitted.
var ConsumptionTable = map[models.ServiceType]map[string]int{
	models.ServiceRegularLaundry: {
		models.SupplyDetergent:    1,
		models.SupplySoftener:     1,
		models.SupplyBleach:       1,
		models.SupplyFragrance:    1,
		models.SupplyStainRemover: 1,
	},
	models.ServiceWashAndFold: {
		models.SupplyDetergent:    1,
		models.SupplySoftener:     1,
		models.SupplyBleach:       1,
		models.SupplyFragrance:    1,
		models.SupplyStainRemover: 1,
		models.SupplyGarmentBag:   1,
	},
	models.ServiceDryCleaning: {
		models.SupplyFragrance:    1,
		models.SupplyStainRemover: 1,
		models.SupplyGarmentBag:   1,
	},
	models.ServiceIronAndPress: {
		models.SupplyFragrance:  1,
		models.SupplySteamWater: 1,
	},
}

// Stock level thresholds
const (
	lowStockBelow = 6 // quantities 1..5 count as low stock
)

// StockLevel classifies a supply quantity
type StockLevel string

const (
	StockOut StockLevel = "out_of_stock"
	StockLow StockLevel = "low_stock"
	StockIn  StockLevel = "in_stock"
)

// ClassifyQuantity returns the stock level for a quantity.
func ClassifyQuantity(qty int) StockLevel {
	if qty <= 0 {
		return StockOut
	}
	if qty < lowStockBelow {
		return StockLow
	}
	return StockIn
}

// Shortage describes one insufficient supply for a requested order.
type Shortage struct {
	Supply    string `json:"supply"` // display label
	Needed    int    `json:"needed"`
	Available int    `json:"available"`
	Shortage  int    `json:"shortage"`
}

// SufficiencyResult is the outcome of a read-only sufficiency check.
type SufficiencyResult struct {
	Sufficient bool       `json:"sufficient"`
	Shortages  []Shortage `json:"shortages"`
}

// Outcome reports what an accepted consumption changed, for the caller to
// hand to the stock notification throttle.
type Outcome struct {
	Consumed map[string]int `json:"consumed"`  // supply key -> units consumed
	Low      []string       `json:"low_stock"` // labels now at low stock
	Out      []string       `json:"out_of_stock"`
}

// SupplyState is the slice of the entity cache the engine operates on.
type SupplyState interface {
	GetSupplies() map[string]int
	UpdateSupplies(partial map[string]int) error
}

// Engine validates and applies supply consumption. A mutex serializes
// check-then-consume so two rapid submissions cannot both pass the same
// sufficiency check.
type Engine struct {
	mu    sync.Mutex
	state SupplyState
}

// NewEngine creates a consumption engine over the given supply state.
func NewEngine(state SupplyState) *Engine {
	return &Engine{state: state}
}

// CheckSufficiency computes needed-vs-available for every supply the service
// type consumes. It never mutates state. An unknown service type reports
// sufficient with no shortages; the table simply has no requirements for it.
func (e *Engine) CheckSufficiency(serviceType models.ServiceType, loadCount int) SufficiencyResult {
	consumption, known := ConsumptionTable[serviceType]
	if !known {
		log.Printf("⚠️  Unknown service type %q: sufficiency check has nothing to verify", serviceType)
		return SufficiencyResult{Sufficient: true, Shortages: []Shortage{}}
	}

	supplies := e.state.GetSupplies()
	shortages := []Shortage{}
	for _, key := range models.SupplyKeys {
		perLoad := consumption[key]
		if perLoad <= 0 {
			continue
		}
		needed := perLoad * loadCount
		available := supplies[key]
		if available < needed {
			shortages = append(shortages, Shortage{
				Supply:    models.SupplyLabel(key),
				Needed:    needed,
				Available: available,
				Shortage:  needed - available,
			})
		}
	}

	return SufficiencyResult{Sufficient: len(shortages) == 0, Shortages: shortages}
}

// Consume re-verifies sufficiency and, if it holds, decrements every relevant
// supply (clamped at zero), persists the new quantities and classifies the
// post-decrement levels. An insufficient request mutates nothing and returns
// ok=false. The check and the decrement happen under one lock; an earlier
// CheckSufficiency result is never trusted.
func (e *Engine) Consume(serviceType models.ServiceType, loadCount int) (Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	consumption, known := ConsumptionTable[serviceType]
	if !known {
		log.Printf("⚠️  Unknown service type %q: consuming nothing", serviceType)
		return Outcome{Consumed: map[string]int{}, Low: []string{}, Out: []string{}}, true
	}

	if check := e.CheckSufficiency(serviceType, loadCount); !check.Sufficient {
		return Outcome{}, false
	}

	supplies := e.state.GetSupplies()
	outcome := Outcome{Consumed: map[string]int{}, Low: []string{}, Out: []string{}}
	updated := map[string]int{}

	for _, key := range models.SupplyKeys {
		perLoad := consumption[key]
		if perLoad <= 0 {
			continue
		}
		needed := perLoad * loadCount
		remaining := supplies[key] - needed
		if remaining < 0 {
			remaining = 0
		}
		updated[key] = remaining
		outcome.Consumed[key] = needed

		switch ClassifyQuantity(remaining) {
		case StockOut:
			outcome.Out = append(outcome.Out, models.SupplyLabel(key))
		case StockLow:
			outcome.Low = append(outcome.Low, models.SupplyLabel(key))
		}
	}

	if err := e.state.UpdateSupplies(updated); err != nil {
		// In-memory decrement is already applied by UpdateSupplies; the
		// durable copy reconverges on the next successful persist.
		log.Printf("⚠️  Supply persist failed after consumption: %v", err)
	}

	return outcome, true
}
