package inventory

import "strings"

// RecipeBook maps a dish name to the ingredient names it needs. Lookups are
// case-insensitive on the dish; ingredient names are matched exactly
// against the stock list.
type RecipeBook struct {
	dishes map[string][]string
}

func NewRecipeBook(dishes map[string][]string) *RecipeBook {
	b := &RecipeBook{dishes: make(map[string][]string, len(dishes))}
	for name, ings := range dishes {
		b.dishes[normalize(name)] = append([]string(nil), ings...)
	}
	return b
}

// Requirements returns the ingredients for dish and whether it is mapped.
func (b *RecipeBook) Requirements(dish string) ([]string, bool) {
	ings, ok := b.dishes[normalize(dish)]
	return ings, ok
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// DefaultRecipes is the built-in table of known dishes. Dishes missing
// from it are treated as always preparable.
// TODO: load this from the menu service once it exposes ingredient ids.
func DefaultRecipes() *RecipeBook {
	return NewRecipeBook(map[string][]string{
		"Margherita Pizza":     {"pizza dough", "tomato sauce", "mozzarella", "basil"},
		"Pepperoni Pizza":      {"pizza dough", "tomato sauce", "mozzarella", "pepperoni"},
		"Classic Burger":       {"burger bun", "beef patty", "lettuce", "tomato"},
		"Cheeseburger":         {"burger bun", "beef patty", "cheddar", "lettuce", "tomato"},
		"Caesar Salad":         {"romaine", "parmesan", "croutons"},
		"Chicken Caesar Salad": {"romaine", "parmesan", "croutons", "chicken breast"},
		"Spaghetti Carbonara":  {"pasta", "cream", "bacon", "egg", "parmesan", "pepper"},
		"French Fries":         {"potato", "oil", "salt"},
		"Grilled Chicken":      {"chicken breast", "oil", "salt", "pepper"},
	})
}
