package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/block"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/service"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func newTestHandlers(t *testing.T, includeTax bool) (*Handlers, *repository.MemoryShippingStateStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryShippingStateStore()
	svc := service.NewCheckoutService(
		store,
		repository.StaticSettingsRepository{Settings: models.DisplaySettings{IncludeTaxInDisplayedPrice: includeTax}},
		nil,
		nil,
		"",
	)
	return NewHandlers(svc, nil, nil), store
}

func sampleState() models.ShippingState {
	return models.ShippingState{
		NeedsShipping:         true,
		HasCalculatedShipping: true,
		ShippingRates: []models.RatePackage{
			{PackageID: 0, Name: "Shipment 1", ShippingRates: []models.ShippingRate{
				{RateID: "flat_rate:1", Name: "Flat rate", Price: "1000", Taxes: "250", CurrencyPrefix: "$"},
				{RateID: "local_pickup:2", Name: "Local pickup", Price: "0", Taxes: "0", CurrencyPrefix: "$"},
			}},
		},
	}
}

func jsonContext(t *testing.T, method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "checkout-service", resp["service"])
}

func TestReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{dependencies: map[string]Pinger{"redis": stubPinger{}}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = &Handlers{dependencies: map[string]Pinger{"redis": stubPinger{err: errors.New("connection refused")}}}
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestLive(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Live(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVersion_ReportsFeatures(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{config: &config.Config{Features: config.FeatureFlags{EnableRedisStore: true, EnableCartFallback: true}}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Version(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Service  string          `json:"service"`
		Features map[string]bool `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "checkout-service", resp.Service)
	assert.Equal(t, map[string]bool{
		"cart_events":       false,
		"settings_database": false,
		"redis_store":       true,
		"cart_fallback":     true,
	}, resp.Features)
}

func TestVersion_WithoutConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	(&Handlers{}).Version(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "features")
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", apperrors.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", errors.Join(errors.New("ctx"), apperrors.ErrNotFound), http.StatusNotFound},
		{"validation", apperrors.NewValidationError("cart_id", "cart ID is required"), http.StatusBadRequest},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			handleError(c, tt.err)

			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestGetShippingMethods(t *testing.T) {
	h, store := newTestHandlers(t, true)
	state := sampleState()
	require.NoError(t, store.Set(context.Background(), "cart_1", &state))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/carts/cart_1/shipping-methods", nil)
	c.Params = gin.Params{{Key: "cart_id", Value: "cart_1"}}

	h.GetShippingMethods(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, block.StateRates.String(), w.Header().Get(blockStateHeader))
	assert.Contains(t, w.Body.String(), "$12.50")
}

func TestGetShippingMethods_UnknownCart(t *testing.T) {
	h, _ := newTestHandlers(t, false)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/carts/nope/shipping-methods", nil)
	c.Params = gin.Params{{Key: "cart_id", Value: "nope"}}

	h.GetShippingMethods(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetShippingMethods_EditorPlaceholder(t *testing.T) {
	h, store := newTestHandlers(t, false)
	require.NoError(t, store.Set(context.Background(), "cart_1", &models.ShippingState{NeedsShipping: true}))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/carts/cart_1/shipping-methods?editor=true", nil)
	c.Params = gin.Params{{Key: "cart_id", Value: "cart_1"}}

	h.GetShippingMethods(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, block.StateEditorPlaceholder.String(), w.Header().Get(blockStateHeader))
}

func TestRenderShippingMethods(t *testing.T) {
	tests := []struct {
		name      string
		req       RenderRequest
		state     block.RenderState
		contains  string
		emptyBody bool
	}{
		{
			name:      "not needed",
			req:       RenderRequest{State: models.ShippingState{NeedsShipping: false}},
			state:     block.StateNotNeeded,
			emptyBody: true,
		},
		{
			name:     "calculated without rates",
			req:      RenderRequest{State: models.ShippingState{NeedsShipping: true, HasCalculatedShipping: true}},
			state:    block.StateNoResultsNotice,
			contains: block.NoResultsNoticeText,
		},
		{
			name:     "address missing",
			req:      RenderRequest{State: models.ShippingState{NeedsShipping: true}},
			state:    block.StateNoResultsMessage,
			contains: block.NoResultsMessageText,
		},
		{
			name:     "rates",
			req:      RenderRequest{State: sampleState()},
			state:    block.StateRates,
			contains: "Local pickup",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandlers(t, false)
			c, w := jsonContext(t, http.MethodPost, "/api/v1/shipping-methods/render", tt.req)

			h.RenderShippingMethods(c)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.state.String(), w.Header().Get(blockStateHeader))
			if tt.emptyBody {
				assert.Empty(t, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), tt.contains)
			}
		})
	}
}

func TestRenderShippingMethods_BadBody(t *testing.T) {
	h, _ := newTestHandlers(t, false)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/shipping-methods/render", bytes.NewReader([]byte("{")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.RenderShippingMethods(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFormatShippingRates(t *testing.T) {
	h, _ := newTestHandlers(t, true)
	packages := sampleState().ShippingRates
	packages[0].ShippingRates[1].Price = "free"

	c, w := jsonContext(t, http.MethodPost, "/api/v1/shipping-rates/format", FormatRequest{Packages: packages})

	h.FormatShippingRates(c)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Packages []FormattedPackage `json:"packages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Packages, 1)
	require.Len(t, resp.Packages[0].Options, 2)

	first := resp.Packages[0].Options[0]
	assert.Equal(t, "flat_rate:1", first.Value)
	assert.Equal(t, int64(1250), first.SecondaryLabel.Value)
	assert.Equal(t, "$12.50", first.SecondaryLabelFormatted)

	second := resp.Packages[0].Options[1]
	assert.False(t, second.SecondaryLabel.Valid)
	assert.Equal(t, "$NaN", second.SecondaryLabelFormatted)
}

func TestPutShippingState(t *testing.T) {
	h, store := newTestHandlers(t, false)
	c, w := jsonContext(t, http.MethodPut, "/api/v1/carts/cart_1/shipping", sampleState())
	c.Params = gin.Params{{Key: "cart_id", Value: "cart_1"}}

	h.PutShippingState(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	got, err := store.Get(context.Background(), "cart_1")
	require.NoError(t, err)
	assert.Equal(t, 2, models.RateCount(got.ShippingRates))
}

func TestPutShippingState_Invalid(t *testing.T) {
	h, _ := newTestHandlers(t, false)
	state := sampleState()
	state.ShippingRates[0].ShippingRates[0].RateID = ""

	c, w := jsonContext(t, http.MethodPut, "/api/v1/carts/cart_1/shipping", state)
	c.Params = gin.Params{{Key: "cart_id", Value: "cart_1"}}

	h.PutShippingState(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "shipping_rates")
}

func TestSelectShippingRate(t *testing.T) {
	h, store := newTestHandlers(t, false)
	state := sampleState()
	require.NoError(t, store.Set(context.Background(), "cart_1", &state))

	c, w := jsonContext(t, http.MethodPost, "/api/v1/carts/cart_1/shipping-rate", SelectRateRequest{PackageID: 0, RateID: "local_pickup:2"})
	c.Params = gin.Params{{Key: "cart_id", Value: "cart_1"}}

	h.SelectShippingRate(c)

	require.Equal(t, http.StatusOK, w.Code)
	got, err := store.Get(context.Background(), "cart_1")
	require.NoError(t, err)
	assert.Equal(t, "local_pickup:2", got.ShippingRates[0].SelectedRateID())
}

func TestSelectShippingRate_UnknownRate(t *testing.T) {
	h, store := newTestHandlers(t, false)
	state := sampleState()
	require.NoError(t, store.Set(context.Background(), "cart_1", &state))

	c, w := jsonContext(t, http.MethodPost, "/api/v1/carts/cart_1/shipping-rate", SelectRateRequest{PackageID: 0, RateID: "express:7"})
	c.Params = gin.Params{{Key: "cart_id", Value: "cart_1"}}

	h.SelectShippingRate(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
