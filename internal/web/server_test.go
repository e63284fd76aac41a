package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/kitchen-dashboard/internal/api"
	"github.com/MikeMC777/kitchen-dashboard/internal/kitchen"
	"github.com/MikeMC777/kitchen-dashboard/internal/order"
	"github.com/MikeMC777/kitchen-dashboard/internal/session"
)

// orderService fakes the backend: users log in with password "secret123"
// and get the role named by their username.
type orderService struct {
	mu     sync.Mutex
	status map[string]order.Status
	tokens []string
}

func newOrderService(t *testing.T) (*orderService, *httptest.Server) {
	t.Helper()
	s := &orderService{status: map[string]order.Status{"o-1": order.StatusPending}}
	srv := httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *orderService) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, r.Header.Get("Authorization"))
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)

	switch {
	case r.URL.Path == "/api/auth/login":
		var cred api.Credentials
		_ = json.NewDecoder(r.Body).Decode(&cred)
		if cred.Password != "secret123" {
			_ = enc.Encode(map[string]any{"success": false, "message": "Invalid username or password"})
			return
		}
		_ = enc.Encode(map[string]any{"success": true, "data": map[string]any{
			"token": "tok-" + cred.Username,
			"user":  map[string]any{"id": "u-" + cred.Username, "username": cred.Username, "role": cred.Username},
		}})
	case r.URL.Path == "/api/orders":
		_ = enc.Encode(map[string]any{"success": true, "data": []any{
			map[string]any{"id": "o-1", "order_number": "101", "status": s.status["o-1"], "total_amount": "9.99"},
		}})
	case r.URL.Path == "/api/orders/o-1/status":
		var req order.UpdateStatusRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.status["o-1"] = req.Status
		_ = enc.Encode(map[string]any{"success": true, "data": map[string]any{
			"id": "o-1", "order_number": "101", "status": req.Status, "total_amount": "9.99",
		}})
	case r.URL.Path == "/api/orders/o-1/history":
		_ = enc.Encode(map[string]any{"success": true, "data": []any{
			map[string]any{"id": "h-1", "order_id": "o-1", "status": "pending", "notes": "placed"},
		}})
	case r.URL.Path == "/api/inventory/ingredients":
		_ = enc.Encode(map[string]any{"success": true, "data": []any{
			map[string]any{"name": "potato", "current_stock": "4", "minimum_stock": "1", "unit": "kg"},
		}})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type harness struct {
	router *gin.Engine
	auth   *AuthProvider
	ctrl   *kitchen.Controller
	store  *session.Store
	svc    *orderService
}

func newHarness(t *testing.T, rehydrate bool) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, srv := newOrderService(t)

	store := session.NewStore(session.NewMemoryKV(), "test-secret")
	client := api.New(srv.URL, time.Second, store)
	ctrl := kitchen.NewController(client.Orders, client.Inventory, kitchen.Options{PollInterval: time.Hour})
	t.Cleanup(ctrl.Unmount)

	auth := NewAuthProvider(store, client.Auth)
	if rehydrate {
		_, err := auth.Rehydrate(context.Background())
		require.NoError(t, err)
	}
	r := NewRouter(Deps{Auth: auth, Kitchen: ctrl, Base: context.Background(), PollInterval: time.Hour})
	return &harness{router: r, auth: auth, ctrl: ctrl, store: store, svc: svc}
}

func (h *harness) do(method, target string, form url.Values, accept string) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) signIn(t *testing.T, username, from string) *httptest.ResponseRecorder {
	t.Helper()
	return h.do(http.MethodPost, "/signin", url.Values{"username": {username}, "password": {"secret123"}, "from": {from}}, "")
}

// settle waits for the first poll that signing in a kitchen user starts.
func (h *harness) settle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := h.ctrl.Snapshot()
		return !snap.LastRefresh.IsZero() && !snap.Loading
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLoadingBeforeRehydrate(t *testing.T) {
	h := newHarness(t, false)

	w := h.do(http.MethodGet, "/kitchen", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Loading")

	_, err := h.auth.Rehydrate(context.Background())
	require.NoError(t, err)
	w = h.do(http.MethodGet, "/kitchen", nil, "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestUnauthenticatedKitchenRedirectsToSignIn(t *testing.T) {
	h := newHarness(t, true)

	w := h.do(http.MethodGet, "/kitchen", nil, "")
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/signin", loc.Path)
	assert.Equal(t, "/kitchen", loc.Query().Get("from"))

	w = h.do(http.MethodGet, w.Header().Get("Location"), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="from" value="/kitchen"`)
}

func TestSignInReturnsToRequestedPage(t *testing.T) {
	h := newHarness(t, true)

	w := h.signIn(t, "kitchen", "/kitchen/orders/o-1")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/kitchen/orders/o-1", w.Header().Get("Location"))

	sess, err := h.store.Current(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "tok-kitchen", sess.Token)
}

func TestSignInIgnoresOffsiteRedirect(t *testing.T) {
	h := newHarness(t, true)

	w := h.signIn(t, "kitchen", "//evil.example/steal")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/kitchen", w.Header().Get("Location"))
}

func TestSignInValidation(t *testing.T) {
	h := newHarness(t, true)

	w := h.do(http.MethodPost, "/signin", url.Values{"username": {"kitchen"}, "password": {"abc"}}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Too short")

	w = h.do(http.MethodPost, "/signin", url.Values{"username": {"kitchen"}, "password": {"wrong-password"}}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password")
	assert.False(t, h.store.IsAuthenticated(context.Background()))
}

func TestSignUpPasswordMismatch(t *testing.T) {
	h := newHarness(t, true)

	w := h.do(http.MethodPost, "/signup", url.Values{
		"username":         {"newcook"},
		"email":            {"cook@example.com"},
		"password":         {"secret123"},
		"confirm_password": {"secret124"},
		"role":             {"kitchen"},
		"first_name":       {"New"},
		"last_name":        {"Cook"},
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Passwords do not match")
}

func TestCashierDeniedKitchen(t *testing.T) {
	h := newHarness(t, true)
	require.Equal(t, http.StatusSeeOther, h.signIn(t, "cashier", "").Code)

	w := h.do(http.MethodGet, "/kitchen", nil, "")
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc := w.Header().Get("Location")
	assert.Equal(t, "/cashier?error=Access+denied", loc)

	w = h.do(http.MethodGet, loc, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Access denied")
	assert.False(t, h.ctrl.Mounted())
}

func TestSignInMountsBoardForKitchenRoles(t *testing.T) {
	for _, tc := range []struct {
		username string
		mounted  bool
	}{
		{"kitchen", true},
		{"admin", true},
		{"cashier", false},
	} {
		t.Run(tc.username, func(t *testing.T) {
			h := newHarness(t, true)
			require.Equal(t, http.StatusSeeOther, h.signIn(t, tc.username, "").Code)
			assert.Equal(t, tc.mounted, h.ctrl.Mounted())
			if tc.mounted {
				h.settle(t)
				assert.Len(t, h.ctrl.Filtered(order.StatusPending), 1)
			}
		})
	}
}

func TestKitchenBoardFlow(t *testing.T) {
	h := newHarness(t, true)
	require.Equal(t, http.StatusSeeOther, h.signIn(t, "kitchen", "").Code)
	h.settle(t)

	w := h.do(http.MethodPost, "/kitchen/refresh", nil, "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var snap kitchen.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap.Columns, 4)
	require.Len(t, snap.Columns[0].Orders, 1)
	assert.Equal(t, "101", snap.Columns[0].Orders[0].OrderNumber)
	assert.Contains(t, w.Body.String(), `"next":{"label":"Start preparing","target":"preparing"}`)
	assert.Contains(t, w.Body.String(), `"orders":[]`)
	assert.NotContains(t, w.Body.String(), `"orders":null`)
	assert.Equal(t, "Bearer tok-kitchen", h.svc.tokens[len(h.svc.tokens)-1])

	w = h.do(http.MethodPost, "/kitchen/orders/o-1/status", url.Values{"status": {"ready"}}, "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated order.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, order.StatusReady, updated.Status)

	notes := h.ctrl.Notifications()
	require.NotEmpty(t, notes)
	assert.Equal(t, "Order #101 is ready for pickup", notes[len(notes)-1].Message)

	w = h.do(http.MethodPost, "/kitchen/orders/o-1/status", url.Values{"status": {"burnt"}}, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/kitchen/orders/o-1/complete", url.Values{}, "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/kitchen", w.Header().Get("Location"))
	assert.Len(t, h.ctrl.Filtered(order.StatusCompleted), 1)

	w = h.do(http.MethodPost, "/kitchen/orders/o-1/status", url.Values{"status": {"preparing"}}, "application/json")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestKitchenPageMountsBoard(t *testing.T) {
	h := newHarness(t, true)
	require.Equal(t, http.StatusSeeOther, h.signIn(t, "kitchen", "").Code)
	h.settle(t)
	require.NoError(t, h.ctrl.Refresh(context.Background()))

	w := h.do(http.MethodGet, "/kitchen", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "#101")
	assert.Contains(t, body, "Start preparing")
	assert.Contains(t, body, "potato")
	assert.True(t, h.ctrl.Mounted())
}

func TestOrderDetailPage(t *testing.T) {
	h := newHarness(t, true)
	require.Equal(t, http.StatusSeeOther, h.signIn(t, "kitchen", "").Code)
	h.settle(t)
	require.NoError(t, h.ctrl.RefreshOrders(context.Background()))

	w := h.do(http.MethodGet, "/kitchen/orders/o-1", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Order #101")
	assert.Contains(t, w.Body.String(), "placed")

	w = h.do(http.MethodGet, "/kitchen/orders/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSignOutUnmountsAndClears(t *testing.T) {
	h := newHarness(t, true)
	require.Equal(t, http.StatusSeeOther, h.signIn(t, "admin", "").Code)
	require.True(t, h.ctrl.Mounted())
	h.settle(t)
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/kitchen", nil, "").Code)

	w := h.do(http.MethodPost, "/signout", nil, "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/signin", w.Header().Get("Location"))
	assert.False(t, h.ctrl.Mounted())
	assert.False(t, h.store.IsAuthenticated(context.Background()))

	w = h.do(http.MethodGet, "/kitchen/state", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRootRedirectsToRoleHome(t *testing.T) {
	h := newHarness(t, true)
	require.Equal(t, http.StatusSeeOther, h.signIn(t, "admin", "").Code)

	w := h.do(http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))
}

func TestOpsEndpoints(t *testing.T) {
	h := newHarness(t, true)

	w := h.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = h.do(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "kitchen_dashboard_http_requests_total")
}
