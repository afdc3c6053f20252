// Package backend is the HTTP client for the storefront's upstream REST API:
// products, business settings and order creation.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/telemetry"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultCacheTTL  = time.Minute
	defaultCacheSize = 512
	maxErrorBody     = 4 << 10
)

// ErrMissingBaseURL is returned when the client is built without a base URL.
var ErrMissingBaseURL = errors.New("backend base URL is required")

// Config contains configuration for the backend client.
type Config struct {
	BaseURL    string
	OwnerID    string
	BusinessID string
	Timeout    time.Duration
	CacheTTL   time.Duration
	CacheSize  int
	HTTPClient *http.Client // Optional: defaults to a client with Timeout
	Logger     *slog.Logger // Optional: defaults to slog.Default()
}

// Client talks to the upstream REST API. Catalog and business lookups are
// cached for CacheTTL; order creation never is.
type Client struct {
	baseURL    string
	ownerID    string
	businessID string
	http       *http.Client
	logger     *slog.Logger

	pages    *expirable.LRU[string, domain.ProductPage]
	products *expirable.LRU[string, domain.Product]
	business *expirable.LRU[string, domain.Business]
}

// envelope is the response wrapper used by every backend endpoint.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// New creates a backend client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = defaultCacheSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		ownerID:    cfg.OwnerID,
		businessID: cfg.BusinessID,
		http:       httpClient,
		logger:     logger,
		pages:      expirable.NewLRU[string, domain.ProductPage](cfg.CacheSize, nil, cfg.CacheTTL),
		products:   expirable.NewLRU[string, domain.Product](cfg.CacheSize, nil, cfg.CacheTTL),
		business:   expirable.NewLRU[string, domain.Business](1, nil, cfg.CacheTTL),
	}, nil
}

// ListProducts returns one page of the product listing.
func (c *Client) ListProducts(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error) {
	const op = "backend.ListProducts"

	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.ID != "" {
		params.Set("_id", q.ID)
	}
	if c.businessID != "" {
		params.Set("businessId", c.businessID)
	}
	key := params.Encode()

	if page, ok := c.pages.Get(key); ok {
		return page, nil
	}

	var env envelope[domain.ProductPage]
	if err := c.do(ctx, op, http.MethodGet, "/products?"+key, nil, &env); err != nil {
		return domain.ProductPage{}, err
	}
	if !env.Success {
		return domain.ProductPage{}, c.upstreamError(op, env.Message, domain.EUNAVAILABLE)
	}

	page := env.Data
	if page.Page == 0 {
		page.Page = max(q.Page, 1)
	}
	c.pages.Add(key, page)
	for _, p := range page.Products {
		c.products.Add(p.ID, p)
	}
	return page, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	const op = "backend.GetProduct"

	if p, ok := c.products.Get(id); ok {
		return p, nil
	}

	page, err := c.ListProducts(ctx, domain.ProductQuery{ID: id, Limit: 1})
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range page.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.NotFound(op, "product", id)
}

// GetBusiness fetches the storefront owner's business configuration.
func (c *Client) GetBusiness(ctx context.Context) (domain.Business, error) {
	const op = "backend.GetBusiness"
	key := c.ownerID + "/" + c.businessID

	if b, ok := c.business.Get(key); ok {
		return b, nil
	}

	var env envelope[domain.Business]
	path := "/" + url.PathEscape(c.ownerID) + "/" + url.PathEscape(c.businessID)
	if err := c.do(ctx, op, http.MethodGet, path, nil, &env); err != nil {
		return domain.Business{}, err
	}
	if !env.Success {
		return domain.Business{}, c.upstreamError(op, env.Message, domain.EUNAVAILABLE)
	}

	c.business.Add(key, env.Data)
	return env.Data, nil
}

// CreateOrder submits an order. Cash-on-delivery orders go to
// /online-order, gateway orders to /online-order-with-ssl.
func (c *Client) CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.OrderResult, error) {
	const op = "backend.CreateOrder"

	if payload.BusinessID == "" {
		payload.BusinessID = c.businessID
	}

	path := "/online-order"
	if payload.PaymentMethod == domain.PaymentCodeSSL {
		path = "/online-order-with-ssl"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.OrderResult{}, domain.Internal(err, op, "failed to encode order")
	}

	var env envelope[domain.OrderResult]
	if err := c.do(ctx, op, http.MethodPost, path, body, &env); err != nil {
		return domain.OrderResult{}, err
	}
	if !env.Success {
		return domain.OrderResult{}, c.upstreamError(op, env.Message, domain.EUNAVAILABLE)
	}
	if env.Data.OrderID == "" && env.Data.ID == "" {
		return domain.OrderResult{}, c.upstreamError(op, "", domain.EUNAVAILABLE)
	}
	return env.Data, nil
}

// do sends a request and decodes the JSON envelope into out. Non-2xx
// responses become domain errors carrying the backend's message when it
// sent one.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return domain.Internal(err, op, "failed to build backend request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	telemetry.Business.ObserveBackend(op, time.Since(start).Seconds())
	if err != nil {
		c.logger.Error("backend request failed",
			"op", op,
			"method", method,
			"path", path,
			"error", err,
		)
		return domain.WrapError(err, domain.EUNAVAILABLE, op, unavailableMessage(op))
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var env envelope[json.RawMessage]
		_ = json.Unmarshal(raw, &env)

		code := domain.EUNAVAILABLE
		switch {
		case resp.StatusCode == http.StatusNotFound:
			code = domain.ENOTFOUND
		case resp.StatusCode == http.StatusTooManyRequests:
			code = domain.ERATELIMIT
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			code = domain.EINVALID
		}
		c.logger.Warn("backend returned error status",
			"op", op,
			"status", resp.StatusCode,
			"message", env.Message,
		)
		return c.upstreamError(op, env.Message, code)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.WrapError(err, domain.EUNAVAILABLE, op, unavailableMessage(op))
	}
	return nil
}

func (c *Client) upstreamError(op, message, code string) error {
	if message == "" {
		switch code {
		case domain.ENOTFOUND:
			message = "The requested item could not be found."
		default:
			message = unavailableMessage(op)
		}
	}
	return &domain.Error{Code: code, Op: op, Message: message, Err: fmt.Errorf("backend: %s", message)}
}

// unavailableMessage is the generic failure shown when the backend gave no
// message of its own.
func unavailableMessage(op string) string {
	if op == "backend.CreateOrder" {
		return domain.ErrOrderCreationFailed.Message
	}
	return "The store is temporarily unavailable. Please try again."
}
