package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

func TestHTTPCartClient_GetShippingState(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/carts/cart_1/shipping", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))

		_ = json.NewEncoder(w).Encode(models.ShippingState{
			NeedsShipping: true,
			ShippingRates: []models.RatePackage{
				{PackageID: 0, ShippingRates: []models.ShippingRate{{RateID: "flat_rate:1", Price: "500"}}},
			},
		})
	}))
	defer ts.Close()

	c := NewHTTPCartClient(config.ServiceConfig{BaseURL: ts.URL, Timeout: time.Second, APIKey: "secret"})

	state, err := c.GetShippingState(context.Background(), "cart_1")
	require.NoError(t, err)
	assert.True(t, state.NeedsShipping)
	assert.Equal(t, 1, models.RateCount(state.ShippingRates))
}

func TestHTTPCartClient_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewHTTPCartClient(config.ServiceConfig{BaseURL: ts.URL, Timeout: time.Second})

	_, err := c.GetShippingState(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHTTPCartClient_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewHTTPCartClient(config.ServiceConfig{BaseURL: ts.URL, Timeout: time.Second})

	_, err := c.GetShippingState(context.Background(), "cart_1")
	require.Error(t, err)
	assert.False(t, apperrors.IsNotFound(err))
}
