// Package inventory derives ingredient stock status and decides whether a
// menu item can currently be prepared.
package inventory

import (
	"github.com/shopspring/decimal"
)

type StockStatus string

const (
	StockSufficient StockStatus = "sufficient"
	StockLow        StockStatus = "low"
	StockOut        StockStatus = "out"
)

// Record is an ingredient as returned by GET /api/inventory/ingredients.
type Record struct {
	Name         string          `json:"name"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	Unit         string          `json:"unit"`
}

type Ingredient struct {
	Record
	Status StockStatus `json:"status"`
}

// StatusOf: out at zero, low at or below the minimum, sufficient otherwise.
func StatusOf(current, minimum decimal.Decimal) StockStatus {
	switch {
	case current.Sign() <= 0:
		return StockOut
	case current.LessThanOrEqual(minimum):
		return StockLow
	default:
		return StockSufficient
	}
}

func FromRecord(r Record) Ingredient {
	return Ingredient{Record: r, Status: StatusOf(r.CurrentStock, r.MinimumStock)}
}

func FromRecords(rs []Record) []Ingredient {
	out := make([]Ingredient, 0, len(rs))
	for _, r := range rs {
		out = append(out, FromRecord(r))
	}
	return out
}

// FallbackSnapshot is shown in the stock panel when the inventory service
// cannot be reached and nothing has been loaded yet.
func FallbackSnapshot() []Ingredient {
	rec := func(name string, cur, min int64, unit string) Record {
		return Record{Name: name, CurrentStock: decimal.NewFromInt(cur), MinimumStock: decimal.NewFromInt(min), Unit: unit}
	}
	return FromRecords([]Record{
		rec("pizza dough", 40, 10, "pcs"),
		rec("tomato sauce", 12, 4, "l"),
		rec("mozzarella", 8, 3, "kg"),
		rec("basil", 2, 1, "bunch"),
		rec("pepperoni", 5, 2, "kg"),
		rec("burger bun", 30, 10, "pcs"),
		rec("beef patty", 25, 10, "pcs"),
		rec("lettuce", 6, 2, "head"),
		rec("tomato", 15, 5, "pcs"),
		rec("cheddar", 4, 2, "kg"),
		rec("chicken breast", 10, 4, "kg"),
		rec("romaine", 6, 2, "head"),
		rec("parmesan", 3, 1, "kg"),
		rec("croutons", 2, 1, "kg"),
		rec("pasta", 20, 5, "kg"),
		rec("cream", 6, 2, "l"),
		rec("bacon", 4, 2, "kg"),
		rec("egg", 60, 24, "pcs"),
		rec("potato", 30, 10, "kg"),
		rec("oil", 10, 3, "l"),
		rec("salt", 5, 1, "kg"),
		rec("pepper", 2, 1, "kg"),
	})
}
