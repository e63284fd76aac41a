package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/MikeMC777/kitchen-dashboard/internal/order"
)

type OrdersAPI struct{ c *Client }

// Kitchen lists the orders the kitchen board shows.
func (o *OrdersAPI) Kitchen(ctx context.Context) (*Envelope[[]order.Order], error) {
	return call[[]order.Order](ctx, o.c, http.MethodGet, "/api/orders?view=kitchen", nil, "Failed to load orders")
}

func (o *OrdersAPI) UpdateStatus(ctx context.Context, id string, req order.UpdateStatusRequest) (*Envelope[order.Order], error) {
	return call[order.Order](ctx, o.c, http.MethodPut, "/api/orders/"+url.PathEscape(id)+"/status", req, "Failed to update order status")
}

func (o *OrdersAPI) History(ctx context.Context, id string) (*Envelope[[]order.HistoryEntry], error) {
	return call[[]order.HistoryEntry](ctx, o.c, http.MethodGet, "/api/orders/"+url.PathEscape(id)+"/history", nil, "Failed to load order history")
}
