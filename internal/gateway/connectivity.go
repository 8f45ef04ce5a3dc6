package gateway

import (
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// ConnectivityStatus tracks the health of the remote endpoint
type ConnectivityStatus struct {
	IsAvailable  bool
	LastCheck    time.Time
	LastSuccess  *time.Time
	LastFailure  *time.Time
	SuccessCount int
	FailureCount int
}

// Monitor watches the remote datastore with periodic health probes and fires
// a callback on the offline-to-online transition. It is the process-level
// stand-in for browser connectivity events.
type Monitor struct {
	mu sync.RWMutex

	baseURL  string
	interval time.Duration
	client   *http.Client

	isOnline bool
	status   ConnectivityStatus

	// OnReconnect runs outside the lock whenever the monitor observes an
	// offline-to-online transition.
	onReconnect func()

	running  bool
	stopChan chan struct{}
}

// NewMonitor creates a connectivity monitor for the remote endpoint.
func NewMonitor(baseURL string, interval time.Duration, timeout time.Duration, onReconnect func()) *Monitor {
	return &Monitor{
		baseURL:     baseURL,
		interval:    interval,
		client:      &http.Client{Timeout: timeout},
		onReconnect: onReconnect,
		stopChan:    make(chan struct{}),
	}
}

// Start begins health checking
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	go m.healthCheckLoop()
}

// Stop stops health checking
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false
	close(m.stopChan)
}

// IsOnline returns the last known connectivity state. Purely informational;
// no probe is forced.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isOnline
}

// Status returns a copy of the probe statistics.
func (m *Monitor) Status() ConnectivityStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// MarkOffline records an observed request failure so reads and writes see a
// consistent state between probes.
func (m *Monitor) MarkOffline() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isOnline {
		log.Println("📴 Remote datastore unreachable, switching to offline mode")
	}
	m.isOnline = false
}

// MarkOnline records an observed request success.
func (m *Monitor) MarkOnline() {
	m.mu.Lock()
	wasOffline := !m.isOnline
	m.isOnline = true
	m.mu.Unlock()

	if wasOffline {
		log.Println("🌐 Remote datastore reachable again")
		if m.onReconnect != nil {
			m.onReconnect()
		}
	}
}

// Probe checks the remote health action once and updates state.
func (m *Monitor) Probe() bool {
	healthURL := m.baseURL + "?" + url.Values{"action": {"health"}}.Encode()

	m.mu.Lock()
	m.status.LastCheck = time.Now()
	m.mu.Unlock()

	resp, err := m.client.Get(healthURL)
	if err != nil {
		m.recordFailure()
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️  Health probe returned status %d", resp.StatusCode)
		m.recordFailure()
		return false
	}

	m.recordSuccess()
	return true
}

func (m *Monitor) recordFailure() {
	m.mu.Lock()
	now := time.Now()
	m.status.IsAvailable = false
	m.status.FailureCount++
	m.status.LastFailure = &now
	wasOnline := m.isOnline
	m.isOnline = false
	m.mu.Unlock()

	if wasOnline {
		log.Println("📴 Remote datastore unreachable, switching to offline mode")
	}
}

func (m *Monitor) recordSuccess() {
	m.mu.Lock()
	now := time.Now()
	m.status.IsAvailable = true
	m.status.SuccessCount++
	m.status.LastSuccess = &now
	m.status.FailureCount = 0
	wasOffline := !m.isOnline
	m.isOnline = true
	m.mu.Unlock()

	if wasOffline {
		log.Println("🌐 Remote datastore reachable again")
		if m.onReconnect != nil {
			m.onReconnect()
		}
	}
}

// healthCheckLoop periodically probes the remote endpoint
func (m *Monitor) healthCheckLoop() {
	// Probe immediately so startup state is known
	m.Probe()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Probe()
		case <-m.stopChan:
			return
		}
	}
}
