package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/thomas/eva-cart-go/internal/cache"
)

// ErrNotFound is returned when the feed has no product with the given id.
var ErrNotFound = errors.New("product not found")

// Client reads products from the storefront feed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cacheTTL   time.Duration

	lists    *cache.Cache[ListParams, []Product]
	products *cache.Cache[int, Product]
}

// ClientOption is a functional option for configuring the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCacheTTL sets how long responses are reused. Zero disables caching.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// NewClient creates a new feed client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cacheTTL: time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cacheTTL > 0 {
		c.lists = cache.New[ListParams, []Product](c.cacheTTL)
		c.products = cache.New[int, Product](c.cacheTTL)
	}
	return c
}

// ListParams holds parameters for listing products.
type ListParams struct {
	Page        int
	PerPage     int
	Search      string
	InStockOnly bool
}

// GetProducts fetches a page of products.
func (c *Client) GetProducts(ctx context.Context, params ListParams) ([]Product, error) {
	load := func() ([]Product, error) {
		query := url.Values{}
		if params.Page > 0 {
			query.Set("page", strconv.Itoa(params.Page))
		}
		if params.PerPage > 0 {
			query.Set("per_page", strconv.Itoa(params.PerPage))
		}
		if params.Search != "" {
			query.Set("search", params.Search)
		}
		if params.InStockOnly {
			query.Set("stock_status", "instock")
		}

		var products []Product
		if err := c.doRequest(ctx, "/api/products", query, &products); err != nil {
			return nil, err
		}
		return products, nil
	}

	if c.lists == nil {
		return load()
	}
	return c.lists.GetOrLoad(params, load)
}

// GetProduct fetches a single product.
func (c *Client) GetProduct(ctx context.Context, id int) (Product, error) {
	load := func() (Product, error) {
		var p Product
		endpoint := fmt.Sprintf("/api/products/%d", id)
		if err := c.doRequest(ctx, endpoint, url.Values{}, &p); err != nil {
			return Product{}, err
		}
		return p, nil
	}

	if c.products == nil {
		return load()
	}
	return c.products.GetOrLoad(id, load)
}

// Invalidate drops cached responses so the next call hits the feed.
func (c *Client) Invalidate() {
	if c.lists != nil {
		c.lists.Clear()
		c.products.Clear()
	}
}

// doRequest performs an HTTP GET request against the feed.
func (c *Client) doRequest(ctx context.Context, endpoint string, query url.Values, result any) error {
	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
