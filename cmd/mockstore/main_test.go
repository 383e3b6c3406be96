package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/thomas/eva-cart-go/internal/catalog"
)

func TestFilterProducts(t *testing.T) {
	products := []catalog.Product{
		{ID: 1, Name: "Espresso", StockStatus: "instock"},
		{ID: 2, Name: "Decaf", StockStatus: "outofstock", LocalizedNames: map[string]string{"it": "Decaffeinato"}},
		{ID: 3, Name: "Mug", StockStatus: "instock"},
	}

	tests := []struct {
		name   string
		search string
		stock  string
		want   []int
	}{
		{"no filter", "", "", []int{1, 2, 3}},
		{"search", "esp", "", []int{1}},
		{"localized search", "caffein", "", []int{2}},
		{"in stock", "", "instock", []int{1, 3}},
		{"both", "decaf", "instock", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterProducts(products, tt.search, tt.stock)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d products, got %d", len(tt.want), len(got))
			}
			for i, p := range got {
				if p.ID != tt.want[i] {
					t.Errorf("Expected product %d at %d, got %d", tt.want[i], i, p.ID)
				}
			}
		})
	}
}

func TestEmbeddedProducts(t *testing.T) {
	products, err := loadProducts()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(products) == 0 {
		t.Fatal("Expected products in testdata")
	}
}

func TestHandlers(t *testing.T) {
	products, err := loadProducts()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	server := httptest.NewServer(newMux(products))
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/products?per_page=2&page=2")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer resp.Body.Close()

	var page []catalog.Product
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(page) != 2 || page[0].ID != products[2].ID {
		t.Errorf("Expected second page starting at %d, got %+v", products[2].ID, page)
	}
	if resp.Header.Get("X-Total") == "" {
		t.Error("Expected X-Total header")
	}

	resp, err = http.Get(server.URL + "/api/products/9999")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/api/products/101")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer resp.Body.Close()
	var p catalog.Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(p.Variants) != 2 {
		t.Errorf("Expected 2 variants, got %d", len(p.Variants))
	}
}
