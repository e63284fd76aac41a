package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/kitchen-dashboard/internal/order"
	"github.com/MikeMC777/kitchen-dashboard/internal/user"
)

// fakeServer records the last request and answers with a canned handler.
type fakeServer struct {
	*httptest.Server
	lastAuth   string
	lastRID    string
	lastPath   string
	lastMethod string
	lastBody   []byte
}

func newFakeServer(t *testing.T, h http.HandlerFunc) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.lastAuth = r.Header.Get("Authorization")
		fs.lastRID = r.Header.Get("X-Request-ID")
		fs.lastPath = r.URL.RequestURI()
		fs.lastMethod = r.Method
		fs.lastBody, _ = io.ReadAll(r.Body)
		h(w, r)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func staticToken(tok string) TokenSource {
	return TokenFunc(func(context.Context) string { return tok })
}

func TestLogin_HappyPath(t *testing.T) {
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "ok",
			"data": map[string]any{
				"token": "tok-1",
				"user":  map[string]any{"id": "u-1", "username": "chef", "role": "kitchen"},
			},
		})
	})
	c := New(srv.URL, time.Second, staticToken(""))

	env, err := c.Auth.Login(context.Background(), Credentials{Username: "chef", Password: "secret"})
	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.Equal(t, "tok-1", env.Data.Token)
	assert.Equal(t, user.RoleKitchen, env.Data.User.Role)

	assert.Equal(t, http.MethodPost, srv.lastMethod)
	assert.Equal(t, "/api/auth/login", srv.lastPath)
	assert.Empty(t, srv.lastAuth, "no bearer without a session")
	assert.JSONEq(t, `{"username":"chef","password":"secret"}`, string(srv.lastBody))
}

func TestRegister_SendsProfile(t *testing.T) {
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"data":    map[string]any{"token": "tok-2", "user": map[string]any{"id": "u-2", "role": "cashier"}},
		})
	})
	c := New(srv.URL, time.Second, nil)

	env, err := c.Auth.Register(context.Background(), Registration{
		Username: "cash", Email: "c@example.com", Password: "secret123",
		Role: user.RoleCashier, FirstName: "Cora", LastName: "Sh",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-2", env.Data.Token)
	assert.Equal(t, "/api/auth/register", srv.lastPath)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(srv.lastBody, &sent))
	assert.Equal(t, "cashier", sent["role"])
	assert.Equal(t, "Cora", sent["first_name"])
	_, hasPhone := sent["phone"]
	assert.False(t, hasPhone)
}

func TestKitchenOrders_AttachesBearerAndRequestID(t *testing.T) {
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": "ORD-1", "order_number": "101", "status": "pending", "total_amount": "12.50"},
			},
		})
	})
	c := New(srv.URL, time.Second, staticToken("tok-abc"))

	ctx := WithRequestID(context.Background(), "rid-7")
	env, err := c.Orders.Kitchen(ctx)
	require.NoError(t, err)
	require.Len(t, env.Data, 1)
	assert.Equal(t, order.StatusPending, env.Data[0].Status)

	assert.Equal(t, "Bearer tok-abc", srv.lastAuth)
	assert.Equal(t, "rid-7", srv.lastRID)
	assert.Equal(t, "/api/orders?view=kitchen", srv.lastPath)
}

func TestUpdateStatus_PathAndBody(t *testing.T) {
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": "ORD 1", "status": "ready"},
		})
	})
	c := New(srv.URL, time.Second, staticToken("t"))

	env, err := c.Orders.UpdateStatus(context.Background(), "ORD 1", order.UpdateStatusRequest{Status: order.StatusReady})
	require.NoError(t, err)
	assert.Equal(t, order.StatusReady, env.Data.Status)
	assert.Equal(t, http.MethodPut, srv.lastMethod)
	assert.Equal(t, "/api/orders/ORD%201/status", srv.lastPath)
	assert.JSONEq(t, `{"status":"ready"}`, string(srv.lastBody))
}

func TestHistoryAndIngredients(t *testing.T) {
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/orders/ORD-1/history":
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]any{
				{"id": "h1", "order_id": "ORD-1", "status": "pending"},
				{"id": "h2", "order_id": "ORD-1", "status": "preparing", "notes": "go"},
			}})
		case "/api/inventory/ingredients":
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]any{
				{"name": "pepper", "current_stock": 0, "minimum_stock": 2, "unit": "kg"},
			}})
		default:
			http.NotFound(w, r)
		}
	})
	c := New(srv.URL, time.Second, nil)

	h, err := c.Orders.History(context.Background(), "ORD-1")
	require.NoError(t, err)
	require.Len(t, h.Data, 2)
	assert.Equal(t, "go", h.Data[1].Notes)

	ings, err := c.Inventory.Ingredients(context.Background())
	require.NoError(t, err)
	require.Len(t, ings.Data, 1)
	assert.True(t, ings.Data[0].CurrentStock.IsZero())
}

func TestNon2xx_CapturesRawBody(t *testing.T) {
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>upstream down</html>")
	})
	c := New(srv.URL, time.Second, nil)

	env, err := c.Orders.Kitchen(context.Background())
	assert.Nil(t, env)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, "<html>upstream down</html>", httpErr.Body)
	assert.Contains(t, err.Error(), "502")
}

func TestNon2xx_JSONBodyIsNotParsed(t *testing.T) {
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": true, "message": "looks fine"})
	})
	c := New(srv.URL, time.Second, nil)

	_, err := c.Inventory.Ingredients(context.Background())
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
}

func TestSuccessFalse_UsesServerMessage(t *testing.T) {
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Order already completed", "error": "conflict"})
	})
	c := New(srv.URL, time.Second, nil)

	env, err := c.Orders.UpdateStatus(context.Background(), "ORD-1", order.UpdateStatusRequest{Status: order.StatusReady})
	require.NotNil(t, env)
	assert.False(t, env.Success)
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "Order already completed", f.Message)
	assert.Equal(t, "conflict", f.Detail)
}

func TestSuccessFalse_FallsBackToDefault(t *testing.T) {
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
	})
	c := New(srv.URL, time.Second, nil)

	_, err := c.Auth.Login(context.Background(), Credentials{Username: "x", Password: "y"})
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "Login failed", f.Message)
}

func TestMalformed2xxBody_IsTransportError(t *testing.T) {
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "not json at all")
	})
	c := New(srv.URL, time.Second, nil)

	_, err := c.Orders.Kitchen(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.NotEmpty(t, te.Error())
}

func TestUnreachableServer_IsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, 500*time.Millisecond, nil)
	_, err := c.Orders.Kitchen(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, msgUnreachable, te.Error())
	assert.NotNil(t, errors.Unwrap(err))
}
