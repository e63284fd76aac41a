package api

import (
	"context"
	"net/http"

	"github.com/MikeMC777/kitchen-dashboard/internal/inventory"
)

type InventoryAPI struct{ c *Client }

func (i *InventoryAPI) Ingredients(ctx context.Context) (*Envelope[[]inventory.Record], error) {
	return call[[]inventory.Record](ctx, i.c, http.MethodGet, "/api/inventory/ingredients", nil, "Failed to load ingredients")
}
