package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var testProducts = []Product{
	{
		ID:          1,
		Name:        "House Blend",
		Slug:        "house-blend",
		PriceUSD:    decimal.RequireFromString("12.99"),
		StockStatus: "instock",
	},
	{
		ID:             2,
		Name:           "Ethiopia Guji",
		PriceUSD:       decimal.RequireFromString("15.00"),
		StockStatus:    "instock",
		LocalizedNames: map[string]string{"de": "Äthiopien Guji"},
		Variants: []Variant{
			{ID: "2-250", Name: "250g", PriceUSD: decimal.RequireFromString("15.00")},
			{ID: "2-1000", Name: "1kg", PriceUSD: decimal.RequireFromString("48.00")},
		},
	},
}

func newTestServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(testProducts)
	})
	mux.HandleFunc("/api/products/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/api/products/2" {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(testProducts[1])
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestGetProducts(t *testing.T) {
	var hits atomic.Int32
	server := newTestServer(t, &hits)

	client := NewClient(server.URL, WithCacheTTL(0))
	products, err := client.GetProducts(context.Background(), ListParams{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("GetProducts failed: %v", err)
	}

	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].Name != "House Blend" {
		t.Errorf("expected name 'House Blend', got '%s'", products[0].Name)
	}
	if !products[1].HasVariants() {
		t.Error("expected second product to have variants")
	}
	if !products[0].PriceUSD.Equal(decimal.RequireFromString("12.99")) {
		t.Errorf("expected price 12.99, got %s", products[0].PriceUSD)
	}
}

func TestGetProductsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("search") != "guji" {
			t.Errorf("expected search=guji, got %s", query.Get("search"))
		}
		if query.Get("per_page") != "5" {
			t.Errorf("expected per_page=5, got %s", query.Get("per_page"))
		}
		if query.Get("stock_status") != "instock" {
			t.Errorf("expected stock_status=instock, got %s", query.Get("stock_status"))
		}
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	products, err := client.GetProducts(context.Background(), ListParams{PerPage: 5, Search: "guji", InStockOnly: true})
	if err != nil {
		t.Fatalf("GetProducts failed: %v", err)
	}
	if len(products) != 0 {
		t.Errorf("expected no products, got %d", len(products))
	}
}

func TestGetProductCachesResponses(t *testing.T) {
	var hits atomic.Int32
	server := newTestServer(t, &hits)

	client := NewClient(server.URL, WithCacheTTL(time.Minute))
	for i := 0; i < 3; i++ {
		p, err := client.GetProduct(context.Background(), 2)
		if err != nil {
			t.Fatalf("GetProduct failed: %v", err)
		}
		if p.ID != 2 {
			t.Fatalf("expected product 2, got %d", p.ID)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 request, got %d", hits.Load())
	}

	client.Invalidate()
	if _, err := client.GetProduct(context.Background(), 2); err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("expected 2 requests after invalidate, got %d", hits.Load())
	}
}

func TestGetProductNotFound(t *testing.T) {
	var hits atomic.Int32
	server := newTestServer(t, &hits)

	client := NewClient(server.URL)
	_, err := client.GetProduct(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.GetProducts(context.Background(), ListParams{}); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestCartProduct(t *testing.T) {
	p := testProducts[1]

	simple := p.CartProduct(nil)
	if simple.Key() != "2" {
		t.Errorf("expected key 2, got %s", simple.Key())
	}
	if simple.BasePriceUSD != 15 {
		t.Errorf("expected base price 15, got %v", simple.BasePriceUSD)
	}

	v, ok := p.Variant("2-1000")
	if !ok {
		t.Fatal("expected variant 2-1000")
	}
	cp := p.CartProduct(&v)
	if cp.Key() != "2-1000" {
		t.Errorf("expected key 2-1000, got %s", cp.Key())
	}
	if cp.VariantName != "1kg" || cp.BasePriceUSD != 48 {
		t.Errorf("unexpected variant product: %+v", cp)
	}
	if cp.LocalizedNames["de"] != "Äthiopien Guji" {
		t.Errorf("expected localized names to carry over")
	}

	if _, ok := p.Variant("nope"); ok {
		t.Error("expected missing variant")
	}
}

func TestStockStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"instock", true},
		{"", true},
		{"outofstock", false},
	}
	for _, tt := range tests {
		p := Product{StockStatus: tt.status}
		if got := p.IsInStock(); got != tt.want {
			t.Errorf("IsInStock(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
