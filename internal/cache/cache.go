// Package cache holds the authoritative in-memory copy of orders, derived
// customers, staff, supply quantities and the order-id allocator, backed by
// the durable local store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/aquaruse/laundrygo/internal/models"
)

// ErrInvalidPayment rejects an order edit whose effective amount paid is
// negative or exceeds the effective total.
var ErrInvalidPayment = errors.New("amount paid must be between zero and the order total")

// SnapshotStore is the slice of the durable local store the cache uses.
type SnapshotStore interface {
	SaveSnapshot(*models.StateSnapshot) error
	LoadSnapshot() (*models.StateSnapshot, error)
	SetClearedFlag(bool) error
	ClearedFlag() bool
}

// RemoteSource hydrates collections from the remote datastore.
type RemoteSource interface {
	FetchOrders(ctx context.Context) ([]models.Order, error)
	FetchStaff(ctx context.Context) ([]models.Staff, error)
}

// SupplyPusher receives best-effort supply updates destined for the remote.
type SupplyPusher interface {
	PushSupplies(supplies map[string]int)
}

// Cache is the entity cache. All mutation entry points hold the mutex for
// their whole duration; Initialize is the only method that blocks on network
// I/O.
type Cache struct {
	mu sync.Mutex

	store  SnapshotStore
	remote RemoteSource
	pusher SupplyPusher

	orders         []models.Order
	customers      []models.Customer
	staff          []models.Staff
	supplies       map[string]int
	orderIDCounter int

	initialized bool
	now         func() time.Time
}

// New creates an entity cache. remote and pusher may be nil for a fully
// offline instance.
func New(store SnapshotStore, remote RemoteSource, pusher SupplyPusher) *Cache {
	return &Cache{
		store:    store,
		remote:   remote,
		pusher:   pusher,
		supplies: models.DefaultSupplies(),
		now:      time.Now,
	}
}

// Initialize is idempotent. It tries remote hydration first; on failure or
// emptiness it falls back to the local snapshot. If the cleared flag is set,
// both are bypassed and every collection resets to its documented default.
func (c *Cache) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	if c.store.ClearedFlag() {
		log.Println("🧹 Data was cleared, starting with default supplies")
		c.resetLocked()
		if err := c.store.SetClearedFlag(false); err != nil {
			log.Printf("⚠️  Could not reset cleared flag: %v", err)
		}
	} else {
		remoteLoaded := c.hydrateFromRemoteLocked(ctx)
		if !remoteLoaded || (len(c.orders) == 0 && len(c.staff) == 0) {
			log.Println("📦 No remote data, loading local snapshot")
			if err := c.hydrateLocked(); err != nil {
				log.Printf("⚠️  Local snapshot hydration failed, starting empty: %v", err)
			}
		}
	}

	c.dedupOrdersLocked()
	c.reconcileAllocatorLocked()
	c.normalizeOrdersLocked()
	c.deriveCustomersLocked()

	c.initialized = true
	if err := c.persistLocked(); err != nil {
		log.Printf("⚠️  Initial persist failed: %v", err)
	}

	log.Printf("✅ Entity cache initialized: %d orders, %d customers, %d staff",
		len(c.orders), len(c.customers), len(c.staff))
	return nil
}

// hydrateFromRemoteLocked loads orders and staff from the remote datastore.
// Supplies are never taken from the remote; the local copy is authoritative.
func (c *Cache) hydrateFromRemoteLocked(ctx context.Context) bool {
	if c.remote == nil {
		return false
	}

	loaded := false
	if orders, err := c.remote.FetchOrders(ctx); err != nil {
		log.Printf("⚠️  Remote order hydration failed: %v", err)
	} else {
		c.orders = orders
		loaded = true
	}

	if staff, err := c.remote.FetchStaff(ctx); err != nil {
		log.Printf("⚠️  Remote staff hydration failed: %v", err)
	} else if len(staff) > 0 {
		c.staff = staff
	}

	if loaded {
		c.hydrateSuppliesLocked()
	}
	return loaded
}

// hydrateSuppliesLocked loads only the supply map and allocator from the
// local snapshot, keeping remotely hydrated collections intact.
func (c *Cache) hydrateSuppliesLocked() {
	snapshot, err := c.store.LoadSnapshot()
	if err != nil {
		log.Printf("⚠️  Could not load local snapshot for supplies: %v", err)
		return
	}
	if snapshot == nil {
		return
	}
	c.supplies = coerceSupplies(snapshot.Supplies)
	if snapshot.OrderIDCounter > 0 {
		c.orderIDCounter = snapshot.OrderIDCounter
	}
}

func (c *Cache) resetLocked() {
	c.orders = nil
	c.customers = nil
	c.staff = nil
	c.supplies = models.DefaultSupplies()
	c.orderIDCounter = 1
}

// Hydrate replaces in-memory state with the local snapshot.
func (c *Cache) Hydrate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hydrateLocked()
}

func (c *Cache) hydrateLocked() error {
	snapshot, err := c.store.LoadSnapshot()
	if err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	if snapshot == nil {
		return nil
	}

	if len(c.orders) == 0 {
		c.orders = snapshot.Orders
	}
	if len(c.customers) == 0 {
		c.customers = snapshot.Customers
	}
	if len(c.staff) == 0 {
		c.staff = snapshot.Staff
	}
	c.supplies = coerceSupplies(snapshot.Supplies)
	if snapshot.OrderIDCounter > 0 {
		c.orderIDCounter = snapshot.OrderIDCounter
	}
	return nil
}

// Persist writes the whole snapshot to the durable local store. A failed
// write is reported but in-memory state stays applied; the next successful
// persist reconverges the durable copy.
func (c *Cache) Persist() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persistLocked()
}

func (c *Cache) persistLocked() error {
	supplies := make(map[string]models.Quantity, len(c.supplies))
	for key, qty := range c.supplies {
		supplies[key] = models.Quantity(qty)
	}
	snapshot := &models.StateSnapshot{
		Orders:         c.orders,
		Customers:      c.customers,
		Staff:          c.staff,
		Supplies:       supplies,
		OrderIDCounter: c.orderIDCounter,
	}
	if err := c.store.SaveSnapshot(snapshot); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}

// DedupOrders keeps the first occurrence of each order id, preserving
// relative order. Idempotent; must run after every bulk load.
func (c *Cache) DedupOrders() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dedupOrdersLocked()
	c.reconcileAllocatorLocked()
}

func (c *Cache) dedupOrdersLocked() {
	seen := make(map[string]bool, len(c.orders))
	deduped := c.orders[:0]
	for _, order := range c.orders {
		if seen[order.OrderID] {
			log.Printf("🧹 Removing duplicate order: %s", order.OrderID)
			continue
		}
		seen[order.OrderID] = true
		deduped = append(deduped, order)
	}
	c.orders = deduped
}

// ReconcileAllocator sets the counter to one above the highest numeric order
// id, or 1 when there are no orders.
func (c *Cache) ReconcileAllocator() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconcileAllocatorLocked()
}

func (c *Cache) reconcileAllocatorLocked() {
	if len(c.orders) == 0 {
		c.orderIDCounter = 1
		return
	}
	max := 0
	for i := range c.orders {
		if n := c.orders[i].NumericID(); n > max {
			max = n
		}
	}
	c.orderIDCounter = max + 1
}

// NormalizeOrders coerces amount fields to sane numbers. NaN and negative
// infinity cannot appear after JSON decoding, so normalization here clamps
// the remaining garbage: negative loads and balances.
func (c *Cache) NormalizeOrders() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.normalizeOrdersLocked()
}

func (c *Cache) normalizeOrdersLocked() {
	for i := range c.orders {
		o := &c.orders[i]
		if o.LoadCount < 0 {
			o.LoadCount = 0
		}
		if o.TotalAmount < 0 {
			o.TotalAmount = 0
		}
		if o.AmountPaid < 0 {
			o.AmountPaid = 0
		}
		if o.Balance < 0 {
			o.Balance = 0
		}
	}
}

// DeriveCustomers rebuilds the customer collection from scratch from the
// current orders, aggregated per (name, number) pair.
func (c *Cache) DeriveCustomers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deriveCustomersLocked()
}

func (c *Cache) deriveCustomersLocked() {
	now := c.now()
	keys := make([]string, 0)
	byKey := make(map[string]*models.Customer)

	for i := range c.orders {
		o := &c.orders[i]
		key := o.CustomerName + "_" + o.CustomerNumber
		days := daysSince(o.DateIssued, now)

		cust, ok := byKey[key]
		if !ok {
			cust = &models.Customer{
				Name:               o.CustomerName,
				Number:             o.CustomerNumber,
				DaysSinceLastOrder: days,
			}
			byKey[key] = cust
			keys = append(keys, key)
		} else if days < cust.DaysSinceLastOrder {
			cust.DaysSinceLastOrder = days
		}
		cust.TotalOrders++
	}

	customers := make([]models.Customer, 0, len(byKey))
	for _, key := range keys {
		cust := *byKey[key]
		cust.Status = models.CustomerActive
		if cust.DaysSinceLastOrder > models.InactiveAfterDays {
			cust.Status = models.CustomerInactive
		}
		customers = append(customers, cust)
	}
	c.customers = customers
}

// daysSince returns whole days between a YYYY-MM-DD date and now.
// Unparseable dates count as today so the customer stays active.
func daysSince(date string, now time.Time) int {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0
	}
	days := int(now.Sub(t).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// GetSupplies returns a defensive copy of the supply map with every quantity
// clamped to a non-negative integer.
func (c *Cache) GetSupplies() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	supplies := make(map[string]int, len(c.supplies))
	for key, qty := range c.supplies {
		if qty < 0 {
			qty = 0
		}
		supplies[key] = qty
	}
	return supplies
}

// UpdateSupplies merges a partial update into the supply map, persists, and
// hands the merged values to the pusher for best-effort remote sync.
func (c *Cache) UpdateSupplies(partial map[string]int) error {
	c.mu.Lock()
	for key, qty := range partial {
		if qty < 0 {
			qty = 0
		}
		c.supplies[key] = qty
	}
	err := c.persistLocked()

	pushed := make(map[string]int, len(c.supplies))
	for key, qty := range c.supplies {
		pushed[key] = qty
	}
	c.mu.Unlock()

	if c.pusher != nil {
		c.pusher.PushSupplies(pushed)
	}
	return err
}

// NextOrderID returns the zero-padded id the next order will receive,
// without claiming it. Purely informational; submissions go through
// ReserveOrderID.
func (c *Cache) NextOrderID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.FormatOrderID(c.orderIDCounter)
}

// ReserveOrderID claims the next order id and advances the allocator in one
// step, so an id handed to an in-flight submission can never be handed out
// again. A reservation abandoned by a rejected submission leaves a gap.
func (c *Cache) ReserveOrderID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := models.FormatOrderID(c.orderIDCounter)
	c.orderIDCounter++
	return id
}

// AddOrder appends an order, re-derives customers and persists. The
// allocator only moves forward here when the order carries an id from a
// foreign source that is ahead of it.
func (c *Cache) AddOrder(order models.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.orders = append(c.orders, order)
	if n := order.NumericID(); n >= c.orderIDCounter {
		c.orderIDCounter = n + 1
	}
	c.deriveCustomersLocked()
	return c.persistLocked()
}

// UpdateOrder applies a typed partial update to an order. An effective paid
// outside [0, total] is rejected with ErrInvalidPayment; otherwise the
// balance is recomputed as total-paid so paid+balance==total holds at write
// time.
func (c *Cache) UpdateOrder(orderID string, patch models.OrderPatch) (models.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.orders {
		if c.orders[i].OrderID != orderID {
			continue
		}
		o := &c.orders[i]

		// Validate against the effective values before mutating anything,
		// so a patch carrying only one of the pair cannot slip past.
		total := o.TotalAmount
		if patch.TotalAmount != nil {
			total = *patch.TotalAmount
		}
		paid := o.AmountPaid
		if patch.AmountPaid != nil {
			paid = *patch.AmountPaid
		}
		if paid < 0 || paid > total {
			return models.Order{}, ErrInvalidPayment
		}

		if patch.Status != nil {
			o.Status = *patch.Status
		}
		if patch.AmountPaid != nil || patch.TotalAmount != nil {
			o.TotalAmount = total
			o.AmountPaid = paid
			o.Balance = total - paid
		}
		updated := *o
		c.deriveCustomersLocked()
		return updated, c.persistLocked()
	}
	return models.Order{}, fmt.Errorf("order %s not found", orderID)
}

// Orders returns a copy of the order collection.
func (c *Cache) Orders() []models.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Order(nil), c.orders...)
}

// Customers returns a copy of the derived customer collection.
func (c *Cache) Customers() []models.Customer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Customer(nil), c.customers...)
}

// SearchCustomers matches the query case-insensitively against customer
// names and numbers.
func (c *Cache) SearchCustomers(query string) []models.Customer {
	c.mu.Lock()
	defer c.mu.Unlock()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]models.Customer(nil), c.customers...)
	}

	matches := []models.Customer{}
	for _, cust := range c.customers {
		if strings.Contains(strings.ToLower(cust.Name), query) ||
			strings.Contains(strings.ToLower(cust.Number), query) {
			matches = append(matches, cust)
		}
	}
	return matches
}

// Staff returns a copy of the staff collection.
func (c *Cache) Staff() []models.Staff {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Staff(nil), c.staff...)
}

// AddStaff assigns the next id and appends the staff member.
func (c *Cache) AddStaff(member models.Staff) (models.Staff, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := 1
	for _, s := range c.staff {
		if s.ID >= next {
			next = s.ID + 1
		}
	}
	member.ID = next
	c.staff = append(c.staff, member)
	return member, c.persistLocked()
}

// UpdateStaff replaces the staff member with the same id.
func (c *Cache) UpdateStaff(member models.Staff) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.staff {
		if c.staff[i].ID == member.ID {
			if member.PasswordHash == "" {
				member.PasswordHash = c.staff[i].PasswordHash
			}
			c.staff[i] = member
			return c.persistLocked()
		}
	}
	return fmt.Errorf("staff %d not found", member.ID)
}

// DeleteStaff removes a staff member by id or email.
func (c *Cache) DeleteStaff(id int, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.staff {
		if (id != 0 && c.staff[i].ID == id) || (email != "" && c.staff[i].Email == email) {
			c.staff = append(c.staff[:i], c.staff[i+1:]...)
			return c.persistLocked()
		}
	}
	return fmt.Errorf("staff not found")
}

// FindStaffByEmail looks up a staff member for login.
func (c *Cache) FindStaffByEmail(email string) (models.Staff, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.staff {
		if strings.EqualFold(s.Email, email) {
			return s, true
		}
	}
	return models.Staff{}, false
}

// ClearAll empties every collection, restores default supplies, resets the
// allocator and sets the cleared flag for the next initialization.
func (c *Cache) ClearAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked()
	if err := c.store.SetClearedFlag(true); err != nil {
		log.Printf("⚠️  Could not set cleared flag: %v", err)
	}
	return c.persistLocked()
}

// ResetToSample replaces collections with the provided sample data and
// re-runs the bulk-load pipeline.
func (c *Cache) ResetToSample(orders []models.Order, staff []models.Staff) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.orders = orders
	c.staff = staff
	c.supplies = models.DefaultSupplies()
	if err := c.store.SetClearedFlag(false); err != nil {
		log.Printf("⚠️  Could not reset cleared flag: %v", err)
	}

	c.dedupOrdersLocked()
	c.reconcileAllocatorLocked()
	c.normalizeOrdersLocked()
	c.deriveCustomersLocked()
	return c.persistLocked()
}

// coerceSupplies converts a snapshot supply map to integers, defaulting
// missing keys so all seven supplies always exist.
func coerceSupplies(raw map[string]models.Quantity) map[string]int {
	supplies := models.DefaultSupplies()
	for key, qty := range raw {
		n := int(qty)
		if n < 0 {
			n = 0
		}
		supplies[key] = n
	}
	return supplies
}
