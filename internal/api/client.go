// Package api is the dashboard's client for the order management server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxErrorBody = 64 << 10

// Envelope is the response shape shared by every endpoint.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TokenSource yields the bearer token for the signed-in session, or "".
type TokenSource interface {
	Token(ctx context.Context) string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) string

func (f TokenFunc) Token(ctx context.Context) string { return f(ctx) }

type Client struct {
	HTTP    *http.Client
	BaseURL string
	tokens  TokenSource

	Auth      *AuthAPI
	Orders    *OrdersAPI
	Inventory *InventoryAPI
}

func New(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
	}
	c.Auth = &AuthAPI{c: c}
	c.Orders = &OrdersAPI{c: c}
	c.Inventory = &InventoryAPI{c: c}
	return c
}

type ctxKey struct{}

// WithRequestID makes outgoing calls carry the incoming request's id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// call performs one request and normalizes every failure mode into one of
// TransportError, HTTPError or Failure. fallback is used when the server
// reports failure without a message.
func call[T any](ctx context.Context, c *Client, method, path string, body any, fallback string) (*Envelope[T], error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	if rid := requestID(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &TransportError{Msg: msgUnreachable, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: string(raw)}
	}

	var env Envelope[T]
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &TransportError{Msg: msgUnreachable, Err: err}
		}
		return nil, &TransportError{Msg: "The order service sent a response that could not be read.", Err: err}
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = fallback
		}
		return &env, &Failure{Message: msg, Detail: env.Error}
	}
	return &env, nil
}
