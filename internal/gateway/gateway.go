// Package gateway talks to the remote datastore's HTTP+JSON action-dispatch
// API: read-through caching while offline, a write-behind queue replayed FIFO
// on reconnect, and a background worker pushing best-effort supply updates.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/aquaruse/laundrygo/internal/models"
)

// ErrOfflineNoCache is returned by Read when the remote is unreachable and
// no cached payload exists for the resource.
var ErrOfflineNoCache = errors.New("offline and no cached data available")

// RemoteError is a success=false response from the datastore. It is
// surfaced to the caller and never retried automatically.
type RemoteError struct {
	Action string
	Reason string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote rejected %s: %s", e.Action, e.Reason)
}

// Envelope is the uniform response wrapper of the action-dispatch API.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// WriteResult is the outcome of a write. Deferred means the remote was
// unreachable and the request was queued; the caller may proceed
// optimistically, accepting divergence until replay succeeds.
type WriteResult struct {
	Data     json.RawMessage `json:"data,omitempty"`
	Message  string          `json:"message,omitempty"`
	Deferred bool            `json:"deferred"`
}

// ReplayResult summarizes one replay pass over the offline queue. Items that
// fail are dropped with the rest of the queue (at-most-once delivery); the
// counts make the drop observable.
type ReplayResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// PushResult reports one background supply push, so best-effort sync is
// observable instead of silently swallowed.
type PushResult struct {
	Supply string
	Err    error
}

// QueueStore is the slice of the durable local store the gateway uses.
type QueueStore interface {
	AppendOfflineRequest(*models.OfflineRequest) error
	LoadOfflineRequests() ([]models.OfflineRequest, error)
	ClearOfflineRequests() error
	PutResourceCache(resource string, payload json.RawMessage) error
	GetResourceCache(resource string) (json.RawMessage, error)
}

// Gateway executes remote requests and owns the offline queue. It never
// mutates business state; it only proposes writes and reports outcomes.
type Gateway struct {
	baseURL string
	client  *http.Client
	store   QueueStore
	monitor *Monitor

	replayMu sync.Mutex

	pushChan    chan map[string]int
	pushResults chan PushResult
	stopChan    chan struct{}
	running     bool
	runMu       sync.Mutex
}

// New creates a gateway for the given action-dispatch endpoint.
func New(baseURL string, store QueueStore, healthInterval, timeout time.Duration) *Gateway {
	g := &Gateway{
		baseURL:     baseURL,
		client:      &http.Client{Timeout: timeout},
		store:       store,
		pushChan:    make(chan map[string]int, 16),
		pushResults: make(chan PushResult, 64),
		stopChan:    make(chan struct{}),
	}
	g.monitor = NewMonitor(baseURL, healthInterval, timeout, func() {
		result := g.SyncOfflineData(context.Background())
		if result.Attempted > 0 {
			log.Printf("🔄 Offline replay: %d attempted, %d succeeded, %d failed",
				result.Attempted, result.Succeeded, result.Failed)
		}
	})
	return g
}

// Start launches the connectivity monitor and the supply push worker.
func (g *Gateway) Start() {
	g.runMu.Lock()
	defer g.runMu.Unlock()

	if g.running {
		return
	}
	g.running = true
	log.Println("🔄 Remote sync gateway starting...")
	g.monitor.Start()
	go g.pushWorker()
	log.Println("✅ Remote sync gateway started")
}

// Stop halts the monitor and the push worker.
func (g *Gateway) Stop() {
	g.runMu.Lock()
	defer g.runMu.Unlock()

	if !g.running {
		return
	}
	g.running = false
	log.Println("🛑 Stopping remote sync gateway...")
	g.monitor.Stop()
	close(g.stopChan)
}

// IsConnected exposes the last known connectivity state.
func (g *Gateway) IsConnected() bool {
	return g.monitor.IsOnline()
}

// HealthCheck forces a single probe of the remote health action.
func (g *Gateway) HealthCheck() bool {
	return g.monitor.Probe()
}

// PushResults exposes background push outcomes for observers and tests.
func (g *Gateway) PushResults() <-chan PushResult {
	return g.pushResults
}

// Read fetches a resource. On success the payload is cached for that
// resource; on failure the last cached payload is served, else
// ErrOfflineNoCache.
func (g *Gateway) Read(ctx context.Context, resource string, params map[string]string) (json.RawMessage, error) {
	values := url.Values{"action": {resource}}
	for key, val := range params {
		values.Set(key, val)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	envelope, err := g.execute(req)
	if err != nil {
		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) {
			return nil, err
		}
		g.monitor.MarkOffline()
		if cached, cacheErr := g.store.GetResourceCache(resource); cacheErr == nil && cached != nil {
			log.Printf("📦 Serving %s from read-through cache", resource)
			return cached, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrOfflineNoCache, resource)
	}

	g.monitor.MarkOnline()
	if err := g.store.PutResourceCache(resource, envelope.Data); err != nil {
		log.Printf("⚠️  Could not cache %s payload: %v", resource, err)
	}
	return envelope.Data, nil
}

// Write executes a remote write. When the remote is unreachable, the request
// is appended to the offline queue and a synthetic accepted result is
// returned so the caller can proceed optimistically.
func (g *Gateway) Write(ctx context.Context, method, action string, payload interface{}) (*WriteResult, error) {
	envelope, err := g.send(ctx, method, action, payload)
	if err != nil {
		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) {
			return nil, err
		}

		g.monitor.MarkOffline()
		if err := g.enqueue(method, action, payload); err != nil {
			return nil, err
		}
		log.Printf("📦 Queued offline request: %s %s", method, action)
		return &WriteResult{
			Deferred: true,
			Message:  "Saved offline. Will sync when connection is restored.",
		}, nil
	}

	g.monitor.MarkOnline()
	return &WriteResult{Data: envelope.Data, Message: envelope.Message}, nil
}

// SyncOfflineData replays every queued request sequentially in enqueue
// order, then clears the queue unconditionally. Individual failures are
// logged and counted, not re-queued.
func (g *Gateway) SyncOfflineData(ctx context.Context) ReplayResult {
	g.replayMu.Lock()
	defer g.replayMu.Unlock()

	requests, err := g.store.LoadOfflineRequests()
	if err != nil {
		log.Printf("⚠️  Could not load offline queue: %v", err)
		return ReplayResult{}
	}
	if len(requests) == 0 {
		return ReplayResult{}
	}

	log.Printf("🔄 Syncing %d offline requests...", len(requests))
	result := ReplayResult{Attempted: len(requests)}

	for _, req := range requests {
		var payload interface{}
		if len(req.Payload) > 0 {
			payload = json.RawMessage(req.Payload)
		}
		if _, err := g.send(ctx, req.Method, req.Action, payload); err != nil {
			log.Printf("⚠️  Failed to replay %s %s: %v", req.Method, req.Action, err)
			result.Failed++
			continue
		}
		result.Succeeded++
	}

	if err := g.store.ClearOfflineRequests(); err != nil {
		log.Printf("⚠️  Could not clear offline queue: %v", err)
	}
	return result
}

// PushSupplies hands the supply map to the background worker. Non-blocking;
// when the worker is saturated the newest snapshot wins next round.
func (g *Gateway) PushSupplies(supplies map[string]int) {
	select {
	case g.pushChan <- supplies:
	default:
	}
}

// pushWorker pushes supply quantities one supply per request, mirroring the
// remote update_supply action.
func (g *Gateway) pushWorker() {
	for {
		select {
		case supplies := <-g.pushChan:
			for _, key := range models.SupplyKeys {
				qty, ok := supplies[key]
				if !ok {
					continue
				}
				_, err := g.Write(context.Background(), http.MethodPut, "update_supply", map[string]interface{}{
					"name":     key,
					"quantity": qty,
				})
				if err != nil {
					log.Printf("⚠️  Could not push supply %s: %v", key, err)
				}
				select {
				case g.pushResults <- PushResult{Supply: key, Err: err}:
				default:
				}
			}
		case <-g.stopChan:
			return
		}
	}
}

// remoteOrder is an order row as the datastore returns it: the customer
// name under "name", the date under "DATE", and numeric columns frequently
// serialized as strings.
type remoteOrder struct {
	OrderID     string        `json:"order_id"`
	Name        string        `json:"name"`
	Date        string        `json:"DATE"`
	ServiceType string        `json:"service_type"`
	Kg          models.Amount `json:"kg"`
	TotalAmount models.Amount `json:"total_amount"`
	AmountPaid  models.Amount `json:"amount_paid"`
	Balance     models.Amount `json:"balance"`
	Status      string        `json:"status"`
	Number      string        `json:"number"`
}

// remoteStaff is a staff row as the datastore returns it; the id comes back
// as a numeric string.
type remoteStaff struct {
	ID    models.Quantity `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Phone string          `json:"phone"`
}

// FetchOrders hydrates the order collection for the entity cache.
func (g *Gateway) FetchOrders(ctx context.Context) ([]models.Order, error) {
	data, err := g.Read(ctx, "orders", nil)
	if err != nil {
		return nil, err
	}
	var rows []remoteOrder
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	orders := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, models.Order{
			OrderID:        row.OrderID,
			CustomerName:   row.Name,
			CustomerNumber: row.Number,
			DateIssued:     row.Date,
			ServiceType:    models.ServiceType(row.ServiceType),
			LoadCount:      float64(row.Kg),
			TotalAmount:    float64(row.TotalAmount),
			AmountPaid:     float64(row.AmountPaid),
			Balance:        float64(row.Balance),
			Status:         models.OrderStatus(row.Status),
		})
	}
	return orders, nil
}

// FetchStaff hydrates the staff collection for the entity cache.
func (g *Gateway) FetchStaff(ctx context.Context) ([]models.Staff, error) {
	data, err := g.Read(ctx, "staff", nil)
	if err != nil {
		return nil, err
	}
	var rows []remoteStaff
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode staff: %w", err)
	}

	staff := make([]models.Staff, 0, len(rows))
	for _, row := range rows {
		staff = append(staff, models.Staff{
			ID:    int(row.ID),
			Name:  row.Name,
			Email: row.Email,
			Phone: row.Phone,
		})
	}
	return staff, nil
}

// send performs one request/response cycle against the dispatch endpoint.
func (g *Gateway) send(ctx context.Context, method, action string, payload interface{}) (*Envelope, error) {
	var body io.Reader
	if payload != nil && (method == http.MethodPost || method == http.MethodPut || method == http.MethodDelete) {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	values := url.Values{"action": {action}}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+"?"+values.Encode(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return g.execute(req)
}

// execute runs the request and decodes the envelope. A success=false
// envelope or a 4xx/5xx status surfaces as RemoteError; transport failures
// surface as plain errors so callers can treat them as offline.
func (g *Gateway) execute(req *http.Request) (*Envelope, error) {
	action := req.URL.Query().Get("action")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &RemoteError{Action: action, Reason: fmt.Sprintf("HTTP %d", resp.StatusCode)}
		}
		return nil, fmt.Errorf("invalid response for %s: %w", action, err)
	}

	if !envelope.Success {
		reason := envelope.Error
		if reason == "" {
			reason = envelope.Message
		}
		if reason == "" {
			reason = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return nil, &RemoteError{Action: action, Reason: reason}
	}
	return &envelope, nil
}

// enqueue appends an offline request with a timestamp-based id.
func (g *Gateway) enqueue(method, action string, payload interface{}) error {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal offline payload: %w", err)
		}
	}

	req := &models.OfflineRequest{
		ID:         time.Now().UnixNano(),
		Method:     method,
		Action:     action,
		Payload:    data,
		EnqueuedAt: time.Now().UTC(),
	}
	return g.store.AppendOfflineRequest(req)
}
