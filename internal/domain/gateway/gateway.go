// Package gateway provides the anti-corruption boundary to the product catalog
// service. The engine consults it only to validate identifiers when document
// lines are added; it never reads quantity data from the catalog and never
// caches catalog attributes beyond what a line stores.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/id"
)

// Item is the minimal catalog shape the engine needs.
type Item struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	IsVariant bool   `json:"isVariant"`
}

// Resolver resolves a product/variant id pair to its catalog identity.
type Resolver interface {
	// ResolveItem returns the item identity, or a NOT_FOUND AppError.
	ResolveItem(ctx context.Context, productID id.ID, variantID *id.ID) (Item, error)
}

// HTTPResolver calls the catalog service over HTTP.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
}

// NewHTTPResolver creates a resolver against the catalog service base URL.
func NewHTTPResolver(baseURL string) *HTTPResolver {
	return &HTTPResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// ResolveItem implements Resolver.
func (r *HTTPResolver) ResolveItem(ctx context.Context, productID id.ID, variantID *id.ID) (Item, error) {
	endpoint := fmt.Sprintf("%s/v1/items/%s", r.baseURL, productID)
	if variantID != nil {
		endpoint += "?variant=" + url.QueryEscape(variantID.String())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Item{}, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Item{}, fmt.Errorf("call catalog service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var item Item
		if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
			return Item{}, fmt.Errorf("decode catalog response: %w", err)
		}
		return item, nil
	case http.StatusNotFound:
		return Item{}, apperror.NewNotFound("catalog item", productID.String())
	default:
		return Item{}, fmt.Errorf("catalog service returned status %d", resp.StatusCode)
	}
}

// StaticResolver serves a fixed item set. Used by tests and the seeder.
type StaticResolver struct {
	items map[string]Item
}

// NewStaticResolver creates a resolver over a fixed map.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{items: make(map[string]Item)}
}

// Add registers an item under the product/variant pair.
func (r *StaticResolver) Add(productID id.ID, variantID *id.ID, item Item) {
	r.items[staticKey(productID, variantID)] = item
}

// ResolveItem implements Resolver.
func (r *StaticResolver) ResolveItem(ctx context.Context, productID id.ID, variantID *id.ID) (Item, error) {
	if item, ok := r.items[staticKey(productID, variantID)]; ok {
		return item, nil
	}
	return Item{}, apperror.NewNotFound("catalog item", productID.String())
}

func staticKey(productID id.ID, variantID *id.ID) string {
	if variantID == nil {
		return productID.String()
	}
	return productID.String() + "/" + variantID.String()
}
