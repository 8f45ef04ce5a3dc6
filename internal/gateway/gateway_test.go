package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aquaruse/laundrygo/internal/models"
)

// fakeQueueStore is an in-memory QueueStore
type fakeQueueStore struct {
	mu       sync.Mutex
	requests []models.OfflineRequest
	cache    map[string]json.RawMessage
}

func newFakeQueueStore() *fakeQueueStore {
	return &fakeQueueStore{cache: make(map[string]json.RawMessage)}
}

func (f *fakeQueueStore) AppendOfflineRequest(req *models.OfflineRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, *req)
	return nil
}

func (f *fakeQueueStore) LoadOfflineRequests() ([]models.OfflineRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.OfflineRequest(nil), f.requests...), nil
}

func (f *fakeQueueStore) ClearOfflineRequests() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = nil
	return nil
}

func (f *fakeQueueStore) PutResourceCache(resource string, payload json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache[resource] = payload
	return nil
}

func (f *fakeQueueStore) GetResourceCache(resource string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cache[resource], nil
}

func (f *fakeQueueStore) queueLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// deadEndpoint returns a URL that refuses connections
func deadEndpoint(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestWriteQueuesWhileOffline(t *testing.T) {
	store := newFakeQueueStore()
	g := New(deadEndpoint(t), store, time.Hour, time.Second)

	payload := map[string]string{"customer_name": "Maria Santos"}
	result, err := g.Write(context.Background(), http.MethodPost, "add_order", payload)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !result.Deferred {
		t.Error("offline write must come back deferred")
	}
	if store.queueLen() != 1 {
		t.Fatalf("queue length = %d, want 1", store.queueLen())
	}

	queued := store.requests[0]
	if queued.Method != http.MethodPost || queued.Action != "add_order" {
		t.Errorf("queued %s %s, want POST add_order", queued.Method, queued.Action)
	}
	var decoded map[string]string
	if err := json.Unmarshal(queued.Payload, &decoded); err != nil {
		t.Fatalf("queued payload not JSON: %v", err)
	}
	if decoded["customer_name"] != "Maria Santos" {
		t.Errorf("queued payload = %v", decoded)
	}
	if g.IsConnected() {
		t.Error("a failed write must mark the gateway offline")
	}
}

func TestSyncOfflineDataReplaysAndClears(t *testing.T) {
	var mu sync.Mutex
	var replayed []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := r.URL.Query().Get("action")
		mu.Lock()
		replayed = append(replayed, action)
		mu.Unlock()
		if action == "update_order" {
			json.NewEncoder(w).Encode(Envelope{Success: false, Error: "Order not found"})
			return
		}
		json.NewEncoder(w).Encode(Envelope{Success: true})
	}))
	defer srv.Close()

	store := newFakeQueueStore()
	store.requests = []models.OfflineRequest{
		{ID: 1, Method: http.MethodPost, Action: "add_order", Payload: []byte(`{"kg":2}`)},
		{ID: 2, Method: http.MethodPut, Action: "update_order", Payload: []byte(`{"status":"completed"}`)},
		{ID: 3, Method: http.MethodPost, Action: "add_staff", Payload: []byte(`{"name":"Ana"}`)},
	}

	g := New(srv.URL, store, time.Hour, time.Second)
	result := g.SyncOfflineData(context.Background())

	if result.Attempted != 3 || result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("replay result = %+v, want 3 attempted, 2 succeeded, 1 failed", result)
	}
	mu.Lock()
	if len(replayed) != 3 || replayed[0] != "add_order" || replayed[2] != "add_staff" {
		t.Errorf("replay order = %v, want enqueue order", replayed)
	}
	mu.Unlock()
	if store.queueLen() != 0 {
		t.Error("queue must be cleared even when some replays fail")
	}
}

func TestSyncOfflineDataEmptyQueue(t *testing.T) {
	g := New(deadEndpoint(t), newFakeQueueStore(), time.Hour, time.Second)
	result := g.SyncOfflineData(context.Background())
	if result.Attempted != 0 {
		t.Errorf("empty queue replay = %+v", result)
	}
}

func TestReadCachesAndServesStalePayload(t *testing.T) {
	payload := json.RawMessage(`[{"order_id":"00001"}]`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Envelope{Success: true, Data: payload})
	}))

	store := newFakeQueueStore()
	g := New(srv.URL, store, time.Hour, time.Second)

	data, err := g.Read(context.Background(), "orders", nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("read = %s", data)
	}
	if !g.IsConnected() {
		t.Error("a successful read must mark the gateway online")
	}

	// Remote goes away; the cached payload must still serve
	srv.Close()
	data, err = g.Read(context.Background(), "orders", nil)
	if err != nil {
		t.Fatalf("offline read with cache: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("cached read = %s", data)
	}

	// No cache for this resource: explicit offline error
	if _, err := g.Read(context.Background(), "staff", nil); !errors.Is(err, ErrOfflineNoCache) {
		t.Errorf("err = %v, want ErrOfflineNoCache", err)
	}
}

func TestWriteRemoteRejectionIsNotQueued(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Envelope{Success: false, Error: "Duplicate order id"})
	}))
	defer srv.Close()

	store := newFakeQueueStore()
	g := New(srv.URL, store, time.Hour, time.Second)

	_, err := g.Write(context.Background(), http.MethodPost, "add_order", map[string]int{"kg": 1})
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("err = %v, want RemoteError", err)
	}
	if remoteErr.Action != "add_order" || remoteErr.Reason != "Duplicate order id" {
		t.Errorf("remote error = %+v", remoteErr)
	}
	if store.queueLen() != 0 {
		t.Error("a rejected write must not be queued for replay")
	}
}

func TestFetchOrdersDecodesRemoteRows(t *testing.T) {
	// The datastore serves database rows verbatim: customer name under
	// "name", date under "DATE", every numeric column as a string.
	row := `[{"order_id":"00001","name":"Maria Santos","DATE":"2026-08-30",` +
		`"service_type":"Regular Laundry","kg":"2","total_amount":"120.00",` +
		`"amount_paid":"50","balance":"70","status":"pending","number":"09171234567"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("action"); got != "orders" {
			t.Errorf("action = %q, want orders", got)
		}
		json.NewEncoder(w).Encode(Envelope{Success: true, Data: json.RawMessage(row)})
	}))
	defer srv.Close()

	g := New(srv.URL, newFakeQueueStore(), time.Hour, time.Second)
	orders, err := g.FetchOrders(context.Background())
	if err != nil {
		t.Fatalf("FetchOrders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("got %d orders, want 1", len(orders))
	}

	order := orders[0]
	if order.OrderID != "00001" || order.CustomerName != "Maria Santos" {
		t.Errorf("order = %+v, want name mapped from the row's name column", order)
	}
	if order.DateIssued != "2026-08-30" {
		t.Errorf("date = %q, want mapped from the DATE column", order.DateIssued)
	}
	if order.LoadCount != 2 || order.TotalAmount != 120 || order.AmountPaid != 50 || order.Balance != 70 {
		t.Errorf("numerics = %+v, want string columns decoded as numbers", order)
	}
	if order.ServiceType != models.ServiceRegularLaundry || order.Status != models.OrderStatusPending {
		t.Errorf("enums = %q/%q", order.ServiceType, order.Status)
	}
	if order.CustomerNumber != "09171234567" {
		t.Errorf("number = %q", order.CustomerNumber)
	}
}

func TestFetchStaffDecodesRemoteRows(t *testing.T) {
	row := `[{"id":"3","name":"Ana Cruz","email":"ana@aquaruse","phone":"09201112233"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Envelope{Success: true, Data: json.RawMessage(row)})
	}))
	defer srv.Close()

	g := New(srv.URL, newFakeQueueStore(), time.Hour, time.Second)
	staff, err := g.FetchStaff(context.Background())
	if err != nil {
		t.Fatalf("FetchStaff: %v", err)
	}
	if len(staff) != 1 || staff[0].ID != 3 || staff[0].Name != "Ana Cruz" {
		t.Errorf("staff = %+v", staff)
	}
}

func TestPushSuppliesWorker(t *testing.T) {
	var mu sync.Mutex
	pushed := map[string]float64{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") == "update_supply" {
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			pushed[body["name"].(string)] = body["quantity"].(float64)
			mu.Unlock()
		}
		json.NewEncoder(w).Encode(Envelope{Success: true})
	}))
	defer srv.Close()

	g := New(srv.URL, newFakeQueueStore(), time.Hour, time.Second)
	g.Start()
	defer g.Stop()

	g.PushSupplies(map[string]int{models.SupplyDetergent: 9, models.SupplyBleach: 3})

	results := map[string]error{}
	deadline := time.After(5 * time.Second)
	for len(results) < 2 {
		select {
		case res := <-g.PushResults():
			results[res.Supply] = res.Err
		case <-deadline:
			t.Fatalf("timed out waiting for push results, got %v", results)
		}
	}

	for supply, err := range results {
		if err != nil {
			t.Errorf("push %s failed: %v", supply, err)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if pushed[models.SupplyDetergent] != 9 || pushed[models.SupplyBleach] != 3 {
		t.Errorf("pushed = %v", pushed)
	}
}
