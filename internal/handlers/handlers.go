package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/service"
)

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handlers for the checkout service.
type Handlers struct {
	checkoutService *service.CheckoutService
	config          *config.Config
	dependencies    map[string]Pinger
	logger          *logging.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	checkoutService *service.CheckoutService,
	cfg *config.Config,
	dependencies map[string]Pinger,
) *Handlers {
	return &Handlers{
		checkoutService: checkoutService,
		config:          cfg,
		dependencies:    dependencies,
		logger:          logging.NewLogger("handlers"),
	}
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if apperrors.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if validationErr, ok := apperrors.AsValidation(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   validationErr.Message,
			"details": validationErr.Details,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
