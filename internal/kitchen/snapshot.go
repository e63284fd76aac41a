package kitchen

import (
	"time"

	"github.com/MikeMC777/kitchen-dashboard/internal/inventory"
	"github.com/MikeMC777/kitchen-dashboard/internal/order"
)

// Snapshot is a consistent, read-only copy of the board for rendering.
type Snapshot struct {
	Columns       []Column               `json:"columns"`
	Stats         order.Stats            `json:"stats"`
	Ingredients   []inventory.Ingredient `json:"ingredients"`
	Detail        *Detail                `json:"detail,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Notifications []Notification         `json:"notifications"`
	Loading       bool                   `json:"loading"`
	LastRefresh   time.Time              `json:"last_refresh"`
}

type Column struct {
	Status order.Status `json:"status"`
	Title  string       `json:"title"`
	Count  int          `json:"count"`
	Orders []OrderView  `json:"orders"`
}

type OrderView struct {
	order.Order
	Next     *order.Action `json:"next,omitempty"`
	Updating bool          `json:"updating"`
	Lines    []LineView    `json:"lines"`
}

type LineView struct {
	order.Item
	Name       string   `json:"name"`
	Preparable bool     `json:"preparable"`
	Missing    []string `json:"missing,omitempty"`
}

type Detail struct {
	Order          OrderView            `json:"order"`
	History        []order.HistoryEntry `json:"history"`
	HistoryLoading bool                 `json:"history_loading"`
}

// Snapshot renders the current state. Expired notifications are pruned
// as a side effect.
func (c *Controller) Snapshot() Snapshot {
	notes := c.notes.Active()

	c.mu.Lock()
	defer c.mu.Unlock()

	eval := inventory.NewEvaluator(c.recipes, c.stock)
	snap := Snapshot{
		Stats:         c.stats,
		Ingredients:   append([]inventory.Ingredient(nil), c.stock...),
		Error:         c.errMsg,
		Notifications: notes,
		Loading:       c.ordersLoading > 0 || c.stockLoading > 0,
		LastRefresh:   c.lastRefresh,
	}
	for _, st := range order.Board {
		col := Column{Status: st, Title: st.Label(), Count: c.stats.Count(st), Orders: make([]OrderView, 0)}
		for _, o := range order.Filter(c.list, st) {
			col.Orders = append(col.Orders, c.viewLocked(eval, o))
		}
		snap.Columns = append(snap.Columns, col)
	}
	if c.detail != nil {
		snap.Detail = &Detail{
			Order:          c.viewLocked(eval, *c.detail),
			History:        append([]order.HistoryEntry(nil), c.history...),
			HistoryLoading: c.historyLoading,
		}
	}
	return snap
}

func (c *Controller) viewLocked(eval *inventory.Evaluator, o order.Order) OrderView {
	v := OrderView{Order: o, Updating: c.updating[o.ID] > 0}
	if a, ok := order.NextAction(o.Status); ok {
		v.Next = &a
	}
	for _, it := range o.Items {
		name := it.Name()
		if name == "" {
			name = "Unknown Item"
		}
		v.Lines = append(v.Lines, LineView{
			Item:       it,
			Name:       name,
			Preparable: eval.CanPrepare(it),
			Missing:    eval.Missing(it),
		})
	}
	return v
}
