package models

// CustomerStatus marks a derived customer as active or inactive
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "active"
	CustomerInactive CustomerStatus = "inactive"
)

// InactiveAfterDays is the cutoff after which a customer counts as inactive.
const InactiveAfterDays = 30

// Customer is derived wholesale from the order collection, aggregated per
// (name, number) pair. It has no identity of its own and is regenerated
// whenever orders change.
type Customer struct {
	Name               string         `json:"name"`
	Number             string         `json:"number"`
	TotalOrders        int            `json:"total_orders"`
	DaysSinceLastOrder int            `json:"days_since_last_order"`
	Status             CustomerStatus `json:"status"`
}
