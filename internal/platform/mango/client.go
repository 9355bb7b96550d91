// Package mango provides a REST client for the mango markets gateway. The
// mango side of a trade rests as a post-only limit order, so the client
// exposes the full orderbook and the resident-order management calls.
package mango

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/01protocol/drifting-01/internal/crypto"
	"github.com/01protocol/drifting-01/internal/domain"
)

// Venue is the venue identifier reported in domain types.
const Venue = "mango"

// Client is the REST client for the mango gateway API.
type Client struct {
	baseURL    string
	auth       *crypto.HMACAuth
	subAccount string
	httpClient *http.Client
}

// NewClient creates a new mango REST client.
//
// baseURL is the API root, e.g. "https://api.mango.markets".
func NewClient(baseURL string, auth *crypto.HMACAuth, subAccount string) *Client {
	return &Client{
		baseURL:    baseURL,
		auth:       auth,
		subAccount: subAccount,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetOrderbook returns the current orderbook for the given market.
func (c *Client) GetOrderbook(ctx context.Context, market string) (domain.OrderbookSnapshot, error) {
	path := fmt.Sprintf("/api/markets/%s/orderbook", url.PathEscape(market))

	body, err := c.doSignedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("mango: get orderbook %s: %w", market, err)
	}

	var resp orderbookResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("mango: decode orderbook: %w", err)
	}

	return resp.toDomainSnapshot(market), nil
}

// GetTopBid returns the best bid price for the given market.
func (c *Client) GetTopBid(ctx context.Context, market string) (float64, error) {
	snap, err := c.GetOrderbook(ctx, market)
	if err != nil {
		return 0, err
	}
	best := snap.BestBid()
	if best <= 0 {
		return 0, fmt.Errorf("mango: top bid %s: %w: empty book side", market, domain.ErrNotReady)
	}
	return best, nil
}

// GetTopAsk returns the best ask price for the given market.
func (c *Client) GetTopAsk(ctx context.Context, market string) (float64, error) {
	snap, err := c.GetOrderbook(ctx, market)
	if err != nil {
		return 0, err
	}
	best := snap.BestAsk()
	if best <= 0 {
		return 0, fmt.Errorf("mango: top ask %s: %w: empty book side", market, domain.ErrNotReady)
	}
	return best, nil
}

// GetPositions returns the signed base-unit position size per market.
// Markets with no open position are absent from the map.
func (c *Client) GetPositions(ctx context.Context) (map[string]float64, error) {
	body, err := c.doSignedRequest(ctx, http.MethodGet, "/api/positions", nil)
	if err != nil {
		return nil, fmt.Errorf("mango: get positions: %w", err)
	}

	var resp struct {
		Positions []positionEntry `json:"positions"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("mango: decode positions: %w", err)
	}

	out := make(map[string]float64, len(resp.Positions))
	for _, p := range resp.Positions {
		if p.BaseSize != 0 {
			out[p.Market] = p.BaseSize
		}
	}
	return out, nil
}

// GetBalances returns the value in quote units per token.
func (c *Client) GetBalances(ctx context.Context) (map[string]float64, error) {
	body, err := c.doSignedRequest(ctx, http.MethodGet, "/api/balances", nil)
	if err != nil {
		return nil, fmt.Errorf("mango: get balances: %w", err)
	}

	var resp struct {
		Balances []balanceEntry `json:"balances"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("mango: decode balances: %w", err)
	}

	out := make(map[string]float64, len(resp.Balances))
	for _, b := range resp.Balances {
		out[b.Token] = b.Value
	}
	return out, nil
}

// GetAccountValue returns the total account value in quote units.
func (c *Client) GetAccountValue(ctx context.Context) (float64, error) {
	body, err := c.doSignedRequest(ctx, http.MethodGet, "/api/account", nil)
	if err != nil {
		return 0, fmt.Errorf("mango: get account: %w", err)
	}

	var resp accountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("mango: decode account: %w", err)
	}

	return resp.AccountValue, nil
}

// GetOpenOrders returns the resident orders for the given market.
func (c *Client) GetOpenOrders(ctx context.Context, market string) ([]domain.ResidentOrder, error) {
	params := url.Values{}
	params.Set("market", market)
	path := "/api/orders?" + params.Encode()

	body, err := c.doSignedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("mango: get open orders %s: %w", market, err)
	}

	var resp struct {
		Orders []apiOrder `json:"orders"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("mango: decode open orders: %w", err)
	}

	orders := make([]domain.ResidentOrder, 0, len(resp.Orders))
	for i := range resp.Orders {
		orders = append(orders, resp.Orders[i].toDomainResident())
	}
	return orders, nil
}

// PlaceOrder submits a limit order and returns its resident form. The intent
// must carry a positive price and size.
func (c *Client) PlaceOrder(ctx context.Context, intent domain.OrderIntent) (domain.ResidentOrder, error) {
	if intent.Kind != domain.OrderKindLimit {
		return domain.ResidentOrder{}, fmt.Errorf("mango: place order: %w: expected limit intent", domain.ErrInvalidOrder)
	}
	if intent.Price <= 0 || intent.Size <= 0 {
		return domain.ResidentOrder{}, fmt.Errorf("mango: place order: %w: price and size must be positive", domain.ErrInvalidOrder)
	}

	req := orderRequest{
		ClientID:   uuid.NewString(),
		Market:     intent.Market,
		Side:       string(intent.Side),
		OrderType:  "limit",
		Price:      strconv.FormatFloat(intent.Price, 'f', -1, 64),
		Size:       strconv.FormatFloat(intent.Size, 'f', -1, 64),
		PostOnly:   intent.PostOnly,
		SubAccount: c.subAccount,
	}

	body, err := c.doSignedRequest(ctx, http.MethodPost, "/api/orders", req)
	if err != nil {
		return domain.ResidentOrder{}, fmt.Errorf("mango: place order: %w", err)
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.ResidentOrder{}, fmt.Errorf("mango: decode order response: %w", err)
	}

	if resp.Status == "rejected" {
		return domain.ResidentOrder{}, fmt.Errorf("mango: order rejected: %w", domain.ErrInvalidOrder)
	}

	return domain.ResidentOrder{
		ID:       resp.OrderID,
		Market:   intent.Market,
		Side:     intent.Side,
		Price:    intent.Price,
		Size:     intent.Size,
		PlacedAt: time.Now(),
	}, nil
}

// SubmitOrder submits a market order and returns the fill result. Used by the
// paired executor for the mango leg when immediate execution is required.
func (c *Client) SubmitOrder(ctx context.Context, intent domain.OrderIntent) (domain.OrderResult, error) {
	if intent.Kind != domain.OrderKindMarket {
		return domain.OrderResult{}, fmt.Errorf("mango: submit order: %w: expected market intent", domain.ErrInvalidOrder)
	}
	if intent.Size <= 0 {
		return domain.OrderResult{}, fmt.Errorf("mango: submit order: %w: size must be positive", domain.ErrInvalidOrder)
	}

	req := orderRequest{
		ClientID:   uuid.NewString(),
		Market:     intent.Market,
		Side:       string(intent.Side),
		OrderType:  "market",
		Size:       strconv.FormatFloat(intent.Size, 'f', -1, 64),
		SubAccount: c.subAccount,
	}

	body, err := c.doSignedRequest(ctx, http.MethodPost, "/api/orders", req)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("mango: submit order: %w", err)
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.OrderResult{}, fmt.Errorf("mango: decode order response: %w", err)
	}

	if resp.Status == "rejected" {
		return domain.OrderResult{}, fmt.Errorf("mango: order rejected: %w", domain.ErrInvalidOrder)
	}

	return domain.OrderResult{
		OrderID:     resp.OrderID,
		Status:      resp.Status,
		FilledPrice: resp.FilledPrice,
		FilledSize:  resp.FilledSize,
	}, nil
}

// ModifyOrder reprices and resizes an existing resident order in place.
func (c *Client) ModifyOrder(ctx context.Context, orderID string, newPrice, newSize float64) error {
	if newPrice <= 0 || newSize <= 0 {
		return fmt.Errorf("mango: modify order %s: %w: price and size must be positive", orderID, domain.ErrInvalidOrder)
	}

	path := fmt.Sprintf("/api/orders/%s", url.PathEscape(orderID))
	req := modifyRequest{
		Price: strconv.FormatFloat(newPrice, 'f', -1, 64),
		Size:  strconv.FormatFloat(newSize, 'f', -1, 64),
	}

	_, err := c.doSignedRequest(ctx, http.MethodPatch, path, req)
	if err != nil {
		return fmt.Errorf("mango: modify order %s: %w", orderID, err)
	}
	return nil
}

// CancelOrder cancels a resident order by its ID. Cancelling an order that no
// longer exists is not an error.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	path := fmt.Sprintf("/api/orders/%s", url.PathEscape(orderID))

	_, err := c.doSignedRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("mango: cancel order %s: %w", orderID, err)
	}
	return nil
}

// CancelAllOrders cancels every resident order in the given market.
func (c *Client) CancelAllOrders(ctx context.Context, market string) error {
	params := url.Values{}
	params.Set("market", market)
	path := "/api/orders?" + params.Encode()

	_, err := c.doSignedRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return fmt.Errorf("mango: cancel all orders %s: %w", market, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doSignedRequest builds, signs, sends, and reads an HTTP request against the
// mango gateway.
func (c *Client) doSignedRequest(ctx context.Context, method, path string, reqBody any) ([]byte, error) {
	var bodyReader io.Reader
	var bodyStr string
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyStr = string(jsonBody)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	for k, v := range c.auth.MangoHeaders(method, path, bodyStr) {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkStatus maps non-2xx HTTP status codes to domain sentinel errors.
func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s (%s)", domain.ErrNotFound, apiErr.Message, apiErr.Code)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s (%s)", domain.ErrUnauthorized, apiErr.Message, apiErr.Code)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s (%s)", domain.ErrRateLimited, apiErr.Message, apiErr.Code)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s (%s)", domain.ErrInvalidOrder, apiErr.Message, apiErr.Code)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w: %s (%s)", domain.ErrInsufficientFund, apiErr.Message, apiErr.Code)
	default:
		return fmt.Errorf("HTTP %d: %s (%s)", statusCode, apiErr.Message, apiErr.Code)
	}
}
