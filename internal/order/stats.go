package order

import "github.com/shopspring/decimal"

// Stats is derived from the current order set and never patched.
type Stats struct {
	TotalOrders     int             `json:"total_orders"`
	Pending         int             `json:"pending"`
	Preparing       int             `json:"preparing"`
	Ready           int             `json:"ready"`
	Completed       int             `json:"completed"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	AveragePrepTime int             `json:"average_prep_time"` // not computed yet, always 0
}

// ComputeStats does one full scan over orders. Cancelled orders count
// towards the total and revenue but have no column of their own.
func ComputeStats(orders []Order) Stats {
	s := Stats{TotalRevenue: decimal.Zero}
	for _, o := range orders {
		s.TotalOrders++
		s.TotalRevenue = s.TotalRevenue.Add(o.TotalAmount)
		switch o.Status {
		case StatusPending:
			s.Pending++
		case StatusPreparing:
			s.Preparing++
		case StatusReady:
			s.Ready++
		case StatusCompleted:
			s.Completed++
		}
	}
	return s
}

// Count returns the per-status count for a board column.
func (s Stats) Count(st Status) int {
	switch st {
	case StatusPending:
		return s.Pending
	case StatusPreparing:
		return s.Preparing
	case StatusReady:
		return s.Ready
	case StatusCompleted:
		return s.Completed
	default:
		return 0
	}
}

// Filter returns the orders with the given status, preserving source order.
func Filter(orders []Order, st Status) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == st {
			out = append(out, o)
		}
	}
	return out
}
