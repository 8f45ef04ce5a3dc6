package notify

import (
	"log"
	"sync"
	"time"
)

// SupplySource provides the current supply quantities to sweep over.
type SupplySource interface {
	GetSupplies() map[string]int
}

// EmitFunc delivers a throttled stock alert to connected dashboards.
type EmitFunc func(eventType, title, message string)

// Sweeper periodically re-checks supply levels so stock alerts still fire
// when levels drift without an order being placed, for example after a
// manual inventory correction.
type Sweeper struct {
	source   SupplySource
	throttle *Throttle
	emit     EmitFunc
	interval time.Duration

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewSweeper creates a stock sweeper. A non-positive interval falls back
// to a 30 minute cadence.
func NewSweeper(source SupplySource, throttle *Throttle, emit EmitFunc, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Sweeper{
		source:   source,
		throttle: throttle,
		emit:     emit,
		interval: interval,
	}
}

// Start launches the background sweep loop.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	go s.loop(s.stopChan)
	log.Printf("📦 Stock sweeper started (every %v)", s.interval)
}

// Stop halts the sweep loop.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopChan)
	log.Println("📦 Stock sweeper stopped")
}

func (s *Sweeper) loop(stop chan struct{}) {
	s.Sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-stop:
			return
		}
	}
}

// Sweep classifies the current supply levels and emits throttled alerts.
func (s *Sweeper) Sweep() {
	classification := Classify(s.source.GetSupplies())
	if classification.Empty() {
		return
	}

	signature := Signature(classification)
	if !s.throttle.ShouldNotify(signature) {
		return
	}

	if len(classification.Out) > 0 {
		s.emit("stock_out", "Critical Stock Alert", OutMessage(classification))
	}
	if len(classification.Low) > 0 {
		s.emit("stock_low", "Low Stock Alert", LowMessage(classification))
	}
	s.throttle.RecordNotified(signature, time.Now())
}
