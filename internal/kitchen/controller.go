// Package kitchen owns the dashboard's view of kitchen orders: it polls
// the order service, applies status transitions and derives the board.
package kitchen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MikeMC777/kitchen-dashboard/internal/api"
	"github.com/MikeMC777/kitchen-dashboard/internal/inventory"
	"github.com/MikeMC777/kitchen-dashboard/internal/metrics"
	"github.com/MikeMC777/kitchen-dashboard/internal/order"
)

const CompleteNote = "Order completed from kitchen dashboard"

const msgBadUpdate = "The order service accepted the change but did not return the order. Refresh to see its current status."

var (
	// ErrStale is returned when a response arrives after the dashboard it
	// belonged to was unmounted; the response is dropped.
	ErrStale = errors.New("response discarded: dashboard was unmounted")
	// ErrOrderNotFound is returned when opening an order that is not on the board.
	ErrOrderNotFound = errors.New("order not found")
)

type OrdersAPI interface {
	Kitchen(ctx context.Context) (*api.Envelope[[]order.Order], error)
	UpdateStatus(ctx context.Context, id string, req order.UpdateStatusRequest) (*api.Envelope[order.Order], error)
	History(ctx context.Context, id string) (*api.Envelope[[]order.HistoryEntry], error)
}

type InventoryAPI interface {
	Ingredients(ctx context.Context) (*api.Envelope[[]inventory.Record], error)
}

type Options struct {
	PollInterval    time.Duration
	NotificationTTL time.Duration
	Recipes         *inventory.RecipeBook
	Now             func() time.Time
}

type Controller struct {
	orders    OrdersAPI
	inventory InventoryAPI
	recipes   *inventory.RecipeBook
	interval  time.Duration
	notes     *Notifier
	now       func() time.Time

	life    sync.Mutex // serializes mount and unmount
	mu      sync.Mutex
	epoch   uint64
	pollers []*poller

	list           []order.Order
	stock          []inventory.Ingredient
	stats          order.Stats
	detail         *order.Order
	history        []order.HistoryEntry
	ordersLoading  int
	stockLoading   int
	historyLoading bool
	updating       map[string]int
	errMsg         string
	lastRefresh    time.Time
}

func NewController(orders OrdersAPI, inv InventoryAPI, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.NotificationTTL <= 0 {
		opts.NotificationTTL = 5 * time.Second
	}
	if opts.Recipes == nil {
		opts.Recipes = inventory.DefaultRecipes()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		orders:    orders,
		inventory: inv,
		recipes:   opts.Recipes,
		interval:  opts.PollInterval,
		notes:     NewNotifier(opts.NotificationTTL, opts.Now),
		now:       opts.Now,
		stats:     order.ComputeStats(nil),
		updating:  make(map[string]int),
	}
}

// Mount starts the order and inventory pollers. Mounting an already
// mounted controller restarts them.
func (c *Controller) Mount(ctx context.Context) {
	c.life.Lock()
	defer c.life.Unlock()
	c.unmount()
	c.mount(ctx)
}

// EnsureMounted mounts the controller unless it already is and reports
// whether it did.
func (c *Controller) EnsureMounted(ctx context.Context) bool {
	c.life.Lock()
	defer c.life.Unlock()
	if c.Mounted() {
		return false
	}
	c.mount(ctx)
	return true
}

// Unmount stops polling and forgets the board. Responses still in flight
// are discarded when they arrive; only unmounting starts a new epoch.
func (c *Controller) Unmount() {
	c.life.Lock()
	defer c.life.Unlock()
	c.unmount()
}

func (c *Controller) mount(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pollers = []*poller{
		startPoller(ctx, "orders", c.interval, func(ctx context.Context) { _ = c.RefreshOrders(ctx) }),
		startPoller(ctx, "inventory", c.interval, func(ctx context.Context) { _ = c.RefreshInventory(ctx) }),
	}
	log.Info().Str("component", "kitchen").Uint64("epoch", c.epoch).Msg("dashboard mounted")
}

func (c *Controller) unmount() {
	c.mu.Lock()
	pollers := c.pollers
	c.pollers = nil
	if pollers != nil {
		c.epoch++
		c.resetLocked()
	}
	c.mu.Unlock()

	for _, p := range pollers {
		p.stop()
	}
	if pollers != nil {
		log.Info().Str("component", "kitchen").Msg("dashboard unmounted")
	}
}

func (c *Controller) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pollers != nil
}

func (c *Controller) resetLocked() {
	c.list = nil
	c.stock = nil
	c.stats = order.ComputeStats(nil)
	c.detail = nil
	c.history = nil
	c.ordersLoading = 0
	c.stockLoading = 0
	c.historyLoading = false
	c.updating = make(map[string]int)
	c.errMsg = ""
	c.lastRefresh = time.Time{}
	c.notes.Reset()
}

// Refresh clears the banner and reloads orders and ingredients together.
// The first error is returned; both results are applied independently.
func (c *Controller) Refresh(ctx context.Context) error {
	c.DismissError()
	var wg sync.WaitGroup
	var ordersErr, stockErr error
	wg.Add(2)
	go func() { defer wg.Done(); ordersErr = c.RefreshOrders(ctx) }()
	go func() { defer wg.Done(); stockErr = c.RefreshInventory(ctx) }()
	wg.Wait()
	if ordersErr != nil {
		return ordersErr
	}
	return stockErr
}

// RefreshOrders replaces the local order set with the server's list.
// On failure the previous orders stay on the board.
func (c *Controller) RefreshOrders(ctx context.Context) error {
	c.mu.Lock()
	epoch := c.epoch
	c.ordersLoading++
	c.mu.Unlock()

	env, err := c.orders.Kitchen(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		metrics.RecordDiscarded("orders")
		return ErrStale
	}
	c.ordersLoading--
	metrics.RecordRefresh("orders", err == nil)
	if err != nil {
		c.errMsg = bannerMessage(err)
		log.Warn().Err(err).Str("component", "kitchen").Msg("order refresh failed")
		return err
	}

	list := env.Data
	if list == nil {
		list = []order.Order{}
	}
	c.list = list
	c.syncDetailLocked()
	c.recomputeLocked()
	c.lastRefresh = c.now()
	return nil
}

// RefreshInventory replaces the ingredient set. When the fetch fails and
// no stock has been loaded yet, the built-in snapshot is shown instead.
func (c *Controller) RefreshInventory(ctx context.Context) error {
	c.mu.Lock()
	epoch := c.epoch
	c.stockLoading++
	c.mu.Unlock()

	env, err := c.inventory.Ingredients(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		metrics.RecordDiscarded("inventory")
		return ErrStale
	}
	c.stockLoading--
	metrics.RecordRefresh("inventory", err == nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "kitchen").Msg("inventory refresh failed")
		if len(c.stock) == 0 {
			c.stock = inventory.FallbackSnapshot()
		}
		c.errMsg = bannerMessage(err)
		return err
	}
	c.stock = inventory.FromRecords(env.Data)
	return nil
}

// UpdateStatus asks the server to move an order to status. The server's
// answer replaces the local copy; on failure nothing local changes.
// Concurrent updates to one order are not serialized: the last response wins.
func (c *Controller) UpdateStatus(ctx context.Context, id string, status order.Status, notes string) (order.Order, error) {
	c.mu.Lock()
	if cur, ok := c.findLocked(id); ok {
		if err := order.CanTransition(cur.Status, status); err != nil {
			c.errMsg = fmt.Sprintf("Cannot move order #%s from %s to %s", displayNumber(cur), cur.Status, status)
			c.mu.Unlock()
			metrics.RecordStatusUpdate(string(status), false)
			return order.Order{}, err
		}
	} else if !status.Valid() {
		c.errMsg = fmt.Sprintf("Unknown status %q", status)
		c.mu.Unlock()
		metrics.RecordStatusUpdate(string(status), false)
		return order.Order{}, order.ErrUnknownStatus
	}
	epoch := c.epoch
	c.updating[id]++
	c.errMsg = ""
	c.mu.Unlock()

	env, err := c.orders.UpdateStatus(ctx, id, order.UpdateStatusRequest{Status: status, Notes: notes})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		metrics.RecordDiscarded("status")
		return order.Order{}, ErrStale
	}
	if c.updating[id]--; c.updating[id] <= 0 {
		delete(c.updating, id)
	}
	if err == nil && !env.Data.Status.Valid() {
		err = &api.TransportError{Msg: msgBadUpdate, Err: fmt.Errorf("status update for %s returned no order", id)}
	}
	metrics.RecordStatusUpdate(string(status), err == nil)
	if err != nil {
		c.errMsg = bannerMessage(err)
		log.Warn().Err(err).Str("component", "kitchen").Str("order_id", id).Str("status", string(status)).Msg("status update failed")
		return order.Order{}, err
	}

	updated := env.Data
	if updated.ID == "" {
		updated.ID = id
	}
	for i := range c.list {
		if c.list[i].ID == id {
			c.list[i] = updated
			break
		}
	}
	if c.detail != nil && c.detail.ID == id {
		d := updated
		c.detail = &d
	}
	c.recomputeLocked()
	c.notifyLocked(updated)
	log.Info().Str("component", "kitchen").Str("order_id", id).Str("status", string(updated.Status)).Msg("order status updated")
	return updated, nil
}

// Complete marks an order completed with the standard note.
func (c *Controller) Complete(ctx context.Context, id string) (order.Order, error) {
	return c.UpdateStatus(ctx, id, order.StatusCompleted, CompleteNote)
}

// OpenOrder shows the detail view for an order on the board and loads
// its status history.
func (c *Controller) OpenOrder(ctx context.Context, id string) error {
	c.mu.Lock()
	cur, ok := c.findLocked(id)
	if !ok {
		c.mu.Unlock()
		return ErrOrderNotFound
	}
	d := cur
	c.detail = &d
	c.history = nil
	c.historyLoading = true
	epoch := c.epoch
	c.mu.Unlock()

	env, err := c.orders.History(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		metrics.RecordDiscarded("history")
		return ErrStale
	}
	if c.detail == nil || c.detail.ID != id {
		// another order was opened meanwhile
		return nil
	}
	c.historyLoading = false
	metrics.RecordRefresh("history", err == nil)
	if err != nil {
		c.errMsg = bannerMessage(err)
		return err
	}
	c.history = env.Data
	return nil
}

func (c *Controller) CloseOrder() {
	c.mu.Lock()
	c.detail = nil
	c.history = nil
	c.historyLoading = false
	c.mu.Unlock()
}

// Filtered returns orders with the given status in board order.
func (c *Controller) Filtered(status order.Status) []order.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return order.Filter(c.list, status)
}

func (c *Controller) Stats() order.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Controller) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *Controller) DismissError() {
	c.mu.Lock()
	c.errMsg = ""
	c.mu.Unlock()
}

func (c *Controller) Notifications() []Notification { return c.notes.Active() }

func (c *Controller) DismissNotification(id string) { c.notes.Dismiss(id) }

func (c *Controller) findLocked(id string) (order.Order, bool) {
	for _, o := range c.list {
		if o.ID == id {
			return o, true
		}
	}
	return order.Order{}, false
}

// syncDetailLocked refreshes the open detail copy when the order is still
// on the board; an order that left the board stays visible as last seen.
func (c *Controller) syncDetailLocked() {
	if c.detail == nil {
		return
	}
	if cur, ok := c.findLocked(c.detail.ID); ok {
		c.detail = &cur
	}
}

func (c *Controller) recomputeLocked() {
	c.stats = order.ComputeStats(c.list)
	for _, st := range order.Board {
		metrics.SetOrders(string(st), c.stats.Count(st))
	}
}

func (c *Controller) notifyLocked(o order.Order) {
	num := displayNumber(o)
	switch o.Status {
	case order.StatusPreparing:
		c.notes.Push(NoticeInfo, fmt.Sprintf("Started preparing order #%s", num))
	case order.StatusReady:
		c.notes.Push(NoticeSuccess, fmt.Sprintf("Order #%s is ready for pickup", num))
	case order.StatusCompleted:
		c.notes.Push(NoticeSuccess, fmt.Sprintf("Order #%s completed", num))
	}
}

func displayNumber(o order.Order) string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return o.ID
}

// bannerMessage turns any failure into the single line shown to staff.
func bannerMessage(err error) string {
	var (
		te *api.TransportError
		he *api.HTTPError
		fe *api.Failure
	)
	switch {
	case errors.As(err, &fe):
		return fe.Message
	case errors.As(err, &he):
		return he.Error()
	case errors.As(err, &te):
		return te.Error()
	default:
		return err.Error()
	}
}
