package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ServiceType defines the laundry service of an order
type ServiceType string

const (
	ServiceRegularLaundry ServiceType = "Regular Laundry"
	ServiceWashAndFold    ServiceType = "Wash and Fold"
	ServiceDryCleaning    ServiceType = "Dry Cleaning"
	ServiceIronAndPress   ServiceType = "Iron and Press"
)

// ServicePrices maps each service type to its price per load
var ServicePrices = map[ServiceType]float64{
	ServiceRegularLaundry: 60,
	ServiceWashAndFold:    65,
	ServiceDryCleaning:    250,
	ServiceIronAndPress:   70,
}

// OrderStatus defines possible order statuses
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // Awaiting processing
	OrderStatusOngoing   OrderStatus = "ongoing"   // Currently being worked on
	OrderStatusCompleted OrderStatus = "completed" // Finished
)

// Order is a laundry order. Orders live inside the state snapshot document,
// not in their own table; the remote datastore becomes the system of record
// once a write replays successfully.
type Order struct {
	OrderID        string      `json:"order_id"`
	CustomerName   string      `json:"customer_name"`
	CustomerNumber string      `json:"number"`
	DateIssued     string      `json:"date"` // YYYY-MM-DD
	ServiceType    ServiceType `json:"service_type"`
	LoadCount      float64     `json:"kg"`
	TotalAmount    float64     `json:"total_amount"`
	AmountPaid     float64     `json:"amount_paid"`
	Balance        float64     `json:"balance"`
	Status         OrderStatus `json:"status"`
	Notes          string      `json:"notes,omitempty"`
}

// Amount is a money or load value that tolerates rows and snapshots where
// numerics were written as strings. Unparseable values decode to zero rather
// than failing the whole document.
type Amount float64

// UnmarshalJSON accepts numbers and numeric strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*a = 0
		return nil
	}
	*a = Amount(f)
	return nil
}

// UnmarshalJSON decodes the numeric fields through Amount so snapshots
// written by older clients, where amounts ended up as strings, still load.
func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	aux := struct {
		LoadCount   Amount `json:"kg"`
		TotalAmount Amount `json:"total_amount"`
		AmountPaid  Amount `json:"amount_paid"`
		Balance     Amount `json:"balance"`
		*plain
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	o.LoadCount = float64(aux.LoadCount)
	o.TotalAmount = float64(aux.TotalAmount)
	o.AmountPaid = float64(aux.AmountPaid)
	o.Balance = float64(aux.Balance)
	return nil
}

// NumericID returns the numeric value of the zero-padded order id,
// or 0 if the id is not numeric.
func (o *Order) NumericID() int {
	n, err := strconv.Atoi(o.OrderID)
	if err != nil {
		return 0
	}
	return n
}

// FormatOrderID renders an allocator counter value as a zero-padded order id.
func FormatOrderID(counter int) string {
	return fmt.Sprintf("%05d", counter)
}

// OrderPatch is a typed partial update applied by the edit flow.
// Nil fields are left untouched.
type OrderPatch struct {
	Status      *OrderStatus `json:"status,omitempty"`
	AmountPaid  *float64     `json:"amount_paid,omitempty"`
	TotalAmount *float64     `json:"total_amount,omitempty"`
}
