// Package drift provides REST and WebSocket clients for the drift perpetuals
// gateway. The drift side of a paired trade executes as a market order, so
// the client exposes mark price and slippage estimates rather than a full
// orderbook.
package drift

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
const Venue = "drift"

// Client is the REST client for the drift gateway API.
type Client struct {
	baseURL    string
	auth       *crypto.HMACAuth
	subAccount string
	httpClient *http.Client
}

// NewClient creates a new drift REST client.
//
// baseURL is the API root, e.g. "https://gateway.drift.trade".
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

// GetMarkPrice returns the current oracle mark price for the given market.
func (c *Client) GetMarkPrice(ctx context.Context, market string) (domain.MarkPriceUpdate, error) {
	path := fmt.Sprintf("/v1/markets/%s/markPrice", url.PathEscape(market))

	body, err := c.doSignedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.MarkPriceUpdate{}, fmt.Errorf("drift: get mark price %s: %w", market, err)
	}

	var resp markPriceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.MarkPriceUpdate{}, fmt.Errorf("drift: decode mark price: %w", err)
	}

	return domain.MarkPriceUpdate{
		Market:    market,
		RawPrice:  resp.MarkPrice,
		Timestamp: time.UnixMilli(resp.Ts),
	}, nil
}

// GetSlippage returns the gateway's fractional slippage estimates for entering
// long and short at the configured trade size, e.g. 0.0005 for 5 bps.
func (c *Client) GetSlippage(ctx context.Context, market string) (long, short float64, err error) {
	path := fmt.Sprintf("/v1/markets/%s/slippage", url.PathEscape(market))

	body, err := c.doSignedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("drift: get slippage %s: %w", market, err)
	}

	var resp slippageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, 0, fmt.Errorf("drift: decode slippage: %w", err)
	}

	return resp.LongSlippage, resp.ShortSlippage, nil
}

// SubmitOrder submits a market order on drift and returns the fill result.
// Limit intents are rejected: drift legs always take the market.
func (c *Client) SubmitOrder(ctx context.Context, intent domain.OrderIntent) (domain.OrderResult, error) {
	if intent.Kind != domain.OrderKindMarket {
		return domain.OrderResult{}, fmt.Errorf("drift: submit order: %w: only market orders supported", domain.ErrInvalidOrder)
	}
	if intent.Size <= 0 {
		return domain.OrderResult{}, fmt.Errorf("drift: submit order: %w: size must be positive", domain.ErrInvalidOrder)
	}

	req := orderRequest{
		ClientID:   uuid.NewString(),
		Market:     intent.Market,
		Side:       string(intent.Side),
		OrderType:  "market",
		Size:       strconv.FormatFloat(intent.Size, 'f', -1, 64),
		SubAccount: c.subAccount,
	}

	body, err := c.doSignedRequest(ctx, http.MethodPost, "/v1/orders", req)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("drift: submit order: %w", err)
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.OrderResult{}, fmt.Errorf("drift: decode order response: %w", err)
	}

	if resp.Status == "rejected" {
		return domain.OrderResult{}, fmt.Errorf("drift: order rejected: %w", domain.ErrInvalidOrder)
	}

	return domain.OrderResult{
		OrderID:     resp.OrderID,
		Status:      resp.Status,
		FilledPrice: resp.FilledPrice,
		FilledSize:  resp.FilledSize,
	}, nil
}

// GetPositionValue returns the signed notional value (quote units) of the
// open position in the given market. A flat position returns 0.
func (c *Client) GetPositionValue(ctx context.Context, market string) (float64, error) {
	path := fmt.Sprintf("/v1/positions/%s", url.PathEscape(market))

	body, err := c.doSignedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		// A missing position is a flat position, not a failure.
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("drift: get position %s: %w", market, err)
	}

	var resp positionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("drift: decode position: %w", err)
	}

	return resp.NotionalValue, nil
}

// GetPositionSize returns the signed base-unit size of the open position in
// the given market. A flat position returns 0.
func (c *Client) GetPositionSize(ctx context.Context, market string) (float64, error) {
	path := fmt.Sprintf("/v1/positions/%s", url.PathEscape(market))

	body, err := c.doSignedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("drift: get position %s: %w", market, err)
	}

	var resp positionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("drift: decode position: %w", err)
	}

	return resp.BaseSize, nil
}

// GetAccountValue returns the total account value in quote units.
func (c *Client) GetAccountValue(ctx context.Context) (float64, error) {
	body, err := c.doSignedRequest(ctx, http.MethodGet, "/v1/account", nil)
	if err != nil {
		return 0, fmt.Errorf("drift: get account: %w", err)
	}

	var resp accountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("drift: decode account: %w", err)
	}

	return resp.TotalValue, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doSignedRequest builds, signs, sends, and reads an HTTP request against the
// drift gateway.
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

	for k, v := range c.auth.DriftHeaders(method, path, bodyStr) {
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
	default:
		return fmt.Errorf("HTTP %d: %s (%s)", statusCode, apiErr.Message, apiErr.Code)
	}
}
