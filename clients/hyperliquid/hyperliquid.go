package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hlwatch/config"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Client talks to the Hyperliquid info API. All requests are POSTs to a
// single /info endpoint with a "type" discriminator in the body.
type Client struct {
	logger     *zap.Logger
	httpClient *http.Client
	baseURL    string
}

func NewClient(logger *zap.Logger, cfg *config.Config) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: cfg.Hyperliquid.APIURL,
	}
}

// ---- Info API types ----

// Order is a resting open order as returned by frontendOpenOrders.
// Size and price arrive as decimal strings.
type Order struct {
	Coin      string `json:"coin"`
	Side      string `json:"side"` // "A" = ask, "B" = bid
	Size      string `json:"sz"`
	LimitPx   string `json:"limitPx"`
	OrderID   int64  `json:"oid"`
	OrderType string `json:"orderType"`
	Timestamp int64  `json:"timestamp"` // epoch ms
}

// SizeFloat returns the order size as a float, 0 on parse failure.
func (o Order) SizeFloat() float64 {
	f, _ := strconv.ParseFloat(o.Size, 64)
	return f
}

// PriceFloat returns the limit price as a float, 0 on parse failure.
func (o Order) PriceFloat() float64 {
	f, _ := strconv.ParseFloat(o.LimitPx, 64)
	return f
}

// Notional returns size × limit price.
func (o Order) Notional() float64 {
	return o.SizeFloat() * o.PriceFloat()
}

// Fill is a trade execution as returned by userFillsByTime.
type Fill struct {
	Coin   string `json:"coin"`
	Side   string `json:"side"` // "B" = bought, otherwise sold
	Size   string `json:"sz"`
	Px     string `json:"px"`
	FillID int64  `json:"tid"`
	Time   int64  `json:"time"` // epoch ms
}

// SizeFloat returns the fill size as a float, 0 on parse failure.
func (f Fill) SizeFloat() float64 {
	v, _ := strconv.ParseFloat(f.Size, 64)
	return v
}

// PriceFloat returns the fill price as a float, 0 on parse failure.
func (f Fill) PriceFloat() float64 {
	v, _ := strconv.ParseFloat(f.Px, 64)
	return v
}

// Notional returns size × price.
func (f Fill) Notional() float64 {
	return f.SizeFloat() * f.PriceFloat()
}

// OrderStatusRecord is the flattened result of an orderStatus lookup.
type OrderStatusRecord struct {
	Status          string `json:"status"` // open, filled, canceled, rejected, marginCanceled, ...
	StatusTimestamp int64  `json:"statusTimestamp"`
	Coin            string `json:"coin"`
}

// orderStatusResponse mirrors the nested wire shape:
// {"status":"order","order":{"status":...,"statusTimestamp":...,"order":{"coin":...}}}
type orderStatusResponse struct {
	Status string `json:"status"`
	Order  struct {
		Status          string `json:"status"`
		StatusTimestamp int64  `json:"statusTimestamp"`
		Order           struct {
			Coin string `json:"coin"`
		} `json:"order"`
	} `json:"order"`
}

// ---- Requests ----

// GetOpenOrders fetches the open orders for a wallet address.
func (c *Client) GetOpenOrders(ctx context.Context, address string) ([]Order, error) {
	body := map[string]any{
		"type": "frontendOpenOrders",
		"user": address,
	}

	var orders []Order
	if err := c.postInfo(ctx, body, &orders); err != nil {
		return nil, fmt.Errorf("fetch open orders: %w", err)
	}
	return orders, nil
}

// GetFills fetches fills for a wallet address since startTime (epoch ms).
// Pass 0 for the full window the API will return.
func (c *Client) GetFills(ctx context.Context, address string, startTime int64) ([]Fill, error) {
	body := map[string]any{
		"type":            "userFillsByTime",
		"user":            address,
		"startTime":       startTime,
		"aggregateByTime": true,
	}

	var fills []Fill
	if err := c.postInfo(ctx, body, &fills); err != nil {
		return nil, fmt.Errorf("fetch fills: %w", err)
	}
	return fills, nil
}

// GetOrderStatus looks up the current status of an order.
// Returns (nil, nil) when the exchange has no record for the oid.
func (c *Client) GetOrderStatus(ctx context.Context, address string, orderID int64) (*OrderStatusRecord, error) {
	body := map[string]any{
		"type": "orderStatus",
		"user": address,
		"oid":  orderID, // the API expects a number, not a string
	}

	var resp orderStatusResponse
	if err := c.postInfo(ctx, body, &resp); err != nil {
		return nil, fmt.Errorf("fetch order status: %w", err)
	}

	if resp.Status != "order" {
		// "unknownOid" and friends - the order simply isn't there
		return nil, nil
	}

	return &OrderStatusRecord{
		Status:          resp.Order.Status,
		StatusTimestamp: resp.Order.StatusTimestamp,
		Coin:            resp.Order.Order.Coin,
	}, nil
}

func (c *Client) postInfo(ctx context.Context, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/info", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(data))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Debug("unparseable info response",
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
