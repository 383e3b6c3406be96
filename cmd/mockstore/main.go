// Package main implements a mock product feed server for local development.
package main

import (
	"embed"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/thomas/eva-cart-go/internal/catalog"
)

//go:embed testdata/*
var testdataFS embed.FS

func main() {
	addr := getEnv("MOCKSTORE_ADDR", ":18080")

	products, err := loadProducts()
	if err != nil {
		log.Fatal("Failed to load products", "err", err)
	}

	log.Info("Mock store listening", "addr", addr, "products", len(products))
	if err := http.ListenAndServe(addr, newMux(products)); err != nil {
		log.Fatal("Server error", "err", err)
	}
}

func loadProducts() ([]catalog.Product, error) {
	data, err := testdataFS.ReadFile("testdata/products.json")
	if err != nil {
		return nil, err
	}
	var products []catalog.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func newMux(products []catalog.Product) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", handleProducts(products))
	mux.HandleFunc("GET /api/products/{id}", handleProduct(products))
	return mux
}

func handleProducts(products []catalog.Product) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		// Parse pagination
		page, _ := strconv.Atoi(query.Get("page"))
		if page < 1 {
			page = 1
		}
		perPage, _ := strconv.Atoi(query.Get("per_page"))
		if perPage < 1 {
			perPage = 10
		}

		filtered := filterProducts(products, query.Get("search"), query.Get("stock_status"))
		total := len(filtered)

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Total", strconv.Itoa(total))
		w.Header().Set("X-Total-Pages", strconv.Itoa((total+perPage-1)/perPage))

		json.NewEncoder(w).Encode(paginate(filtered, page, perPage))
	}
}

func handleProduct(products []catalog.Product) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "Invalid product ID", http.StatusBadRequest)
			return
		}

		for _, p := range products {
			if p.ID == id {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(p)
				return
			}
		}

		http.Error(w, "Product not found", http.StatusNotFound)
	}
}

func paginate(products []catalog.Product, page, perPage int) []catalog.Product {
	start := (page - 1) * perPage
	if start >= len(products) {
		return []catalog.Product{}
	}
	end := min(start+perPage, len(products))
	return products[start:end]
}

func filterProducts(products []catalog.Product, search, stockStatus string) []catalog.Product {
	search = strings.ToLower(search)
	var result []catalog.Product
	for _, p := range products {
		if search != "" && !matches(p, search) {
			continue
		}
		if stockStatus != "" && p.StockStatus != stockStatus {
			continue
		}
		result = append(result, p)
	}
	return result
}

// matches reports whether any name of p contains the lowercased search term.
func matches(p catalog.Product, search string) bool {
	if strings.Contains(strings.ToLower(p.Name), search) {
		return true
	}
	for _, name := range p.LocalizedNames {
		if strings.Contains(strings.ToLower(name), search) {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
