package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// HTTPCartClient fetches resolved shipping state from the cart service.
type HTTPCartClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	logger     *logging.Logger
}

// NewHTTPCartClient creates a new HTTP-based cart client.
func NewHTTPCartClient(cfg config.ServiceConfig) *HTTPCartClient {
	return &HTTPCartClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
		logger: logging.NewLogger("cart-client"),
	}
}

// GetShippingState retrieves the shipping snapshot of a cart. A 404 from
// the cart service maps to apperrors.ErrNotFound.
func (c *HTTPCartClient) GetShippingState(ctx context.Context, cartID string) (*models.ShippingState, error) {
	c.logger.Debug("Fetching shipping state", logging.Fields{"cart_id": cartID})

	endpoint := fmt.Sprintf("%s/api/v2/carts/%s/shipping", c.baseURL, url.PathEscape(cartID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to fetch shipping state", logging.Fields{
			"cart_id": cartID,
			"error":   err.Error(),
		})
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cart service returned status %d", resp.StatusCode)
	}

	var state models.ShippingState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode shipping state: %w", err)
	}

	c.logger.Debug("Shipping state fetched", logging.Fields{
		"cart_id":  cartID,
		"packages": len(state.ShippingRates),
	})

	return &state, nil
}
