package inventory

import "github.com/MikeMC777/kitchen-dashboard/internal/order"

// Evaluator answers preparability questions against one stock snapshot.
type Evaluator struct {
	recipes *RecipeBook
	stock   map[string]Ingredient
}

func NewEvaluator(recipes *RecipeBook, stock []Ingredient) *Evaluator {
	m := make(map[string]Ingredient, len(stock))
	for _, ing := range stock {
		m[ing.Name] = ing
	}
	return &Evaluator{recipes: recipes, stock: m}
}

// CanPrepare fails closed when the item has no menu item name and is open
// for dishes the recipe book does not know.
func (e *Evaluator) CanPrepare(it order.Item) bool {
	name := it.Name()
	if name == "" {
		return false
	}
	return len(e.missing(name)) == 0
}

// Missing lists the required ingredients that are absent or out of stock.
func (e *Evaluator) Missing(it order.Item) []string {
	return e.missing(it.Name())
}

func (e *Evaluator) missing(dish string) []string {
	reqs, ok := e.recipes.Requirements(dish)
	if !ok {
		return nil
	}
	var out []string
	for _, name := range reqs {
		ing, found := e.stock[name]
		if !found || ing.Status == StockOut {
			out = append(out, name)
		}
	}
	return out
}
