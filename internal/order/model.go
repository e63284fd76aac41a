package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Board is the order in which the dashboard lays out status columns.
var Board = []Status{StatusPending, StatusPreparing, StatusReady, StatusCompleted}

type Type string

const (
	TypeDineIn  Type = "dine_in"
	TypeTakeout Type = "takeout"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemCompleted ItemStatus = "completed"
)

// Order is the server's representation; the dashboard keeps a possibly
// stale copy and never recomputes the money fields.
type Order struct {
	ID                  string          `json:"id"`
	OrderNumber         string          `json:"order_number"`
	CustomerName        string          `json:"customer_name,omitempty"`
	CustomerPhone       string          `json:"customer_phone,omitempty"`
	OrderType           Type            `json:"order_type"`
	TableNumber         string          `json:"table_number,omitempty"`
	Status              Status          `json:"status"`
	Priority            Priority        `json:"priority"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	TaxAmount           decimal.Decimal `json:"tax_amount"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	PaymentStatus       PaymentStatus   `json:"payment_status"`
	Items               []Item          `json:"items"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	CreatedBy           string          `json:"created_by,omitempty"`
	UpdatedBy           string          `json:"updated_by,omitempty"`
}

// MenuItem is the snapshot embedded in an order line. It is nil when the
// referenced menu item was deleted.
type MenuItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	PrepTime int             `json:"prep_time"` // minutes
}

type Item struct {
	ID                  string          `json:"id"`
	MenuItem            *MenuItem       `json:"menu_item,omitempty"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	TotalPrice          decimal.Decimal `json:"total_price"`
	Customizations      string          `json:"customizations,omitempty"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	Status              ItemStatus      `json:"status"`
}

// Name returns the menu item name, or "" when the snapshot is missing.
func (it Item) Name() string {
	if it.MenuItem == nil {
		return ""
	}
	return it.MenuItem.Name
}

type HistoryEntry struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"order_id"`
	Status        Status    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	ChangedBy     string    `json:"changed_by,omitempty"`
	ChangedByName string    `json:"changed_by_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
