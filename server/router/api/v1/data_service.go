package v1

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// The data endpoints simulate an expensive upstream: deterministic catalog
// content plus artificial latency, so cache hits are easy to observe.

const (
	productCatalogSize = 50
	simulatedLatency   = 400 * time.Millisecond
)

// Product is a demo catalog item.
type Product struct {
	ID       int     `json:"id"`
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

var productCategories = []string{"electronics", "books", "garden", "toys", "grocery"}

func buildProduct(id int) *Product {
	return &Product{
		ID:       id,
		SKU:      fmt.Sprintf("SKU-%05d", id),
		Name:     fmt.Sprintf("Product %d", id),
		Category: productCategories[id%len(productCategories)],
		Price:    float64(id%40)*2.5 + 4.99,
	}
}

// simulateExpensiveWork stands in for a slow upstream call. It respects
// request cancellation.
func simulateExpensiveWork(c echo.Context) error {
	select {
	case <-time.After(simulatedLatency):
		return nil
	case <-c.Request().Context().Done():
		return c.Request().Context().Err()
	}
}

// ListProducts returns the demo product catalog.
// GET /api/v1/products
func (s *APIV1Service) ListProducts(c echo.Context) error {
	if err := simulateExpensiveWork(c); err != nil {
		return err
	}

	products := make([]*Product, 0, productCatalogSize)
	for id := 1; id <= productCatalogSize; id++ {
		products = append(products, buildProduct(id))
	}
	return okResponse(c, http.StatusOK, map[string]any{
		"products":     products,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetProduct returns a single demo product.
// GET /api/v1/products/:id
func (s *APIV1Service) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 || id > productCatalogSize {
		return errResponse(c, http.StatusNotFound, "product not found")
	}

	if err := simulateExpensiveWork(c); err != nil {
		return err
	}
	return okResponse(c, http.StatusOK, buildProduct(id))
}

// Search scans the demo catalog for a term. Concurrency is bounded so a
// burst of uncached searches cannot pile up simulated work.
// GET /api/v1/search?q=term
func (s *APIV1Service) Search(c echo.Context) error {
	term := strings.ToLower(strings.TrimSpace(c.QueryParam("q")))
	if term == "" {
		return errResponse(c, http.StatusBadRequest, "missing query parameter q")
	}

	ctx := c.Request().Context()
	if err := s.searchSemaphore.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.searchSemaphore.Release(1)

	if err := simulateExpensiveWork(c); err != nil {
		return err
	}

	matches := make([]*Product, 0)
	for id := 1; id <= productCatalogSize; id++ {
		product := buildProduct(id)
		if strings.Contains(strings.ToLower(product.Name), term) || strings.Contains(product.Category, term) {
			matches = append(matches, product)
		}
	}
	return okResponse(c, http.StatusOK, map[string]any{
		"query":     term,
		"matches":   matches,
		"search_id": uuid.New().String(),
	})
}
