package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/pricing"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/service"
)

const blockStateHeader = "X-Shipping-Block-State"

// RenderRequest carries explicit state for POST /api/v1/shipping-methods/render.
type RenderRequest struct {
	Editor models.EditorState   `json:"editor"`
	State  models.ShippingState `json:"state"`
}

// FormatRequest is the body of POST /api/v1/shipping-rates/format.
type FormatRequest struct {
	Packages []models.RatePackage `json:"packages"`
}

// FormattedOption adds the printed amount to a rendered option.
type FormattedOption struct {
	models.RenderedOption
	SecondaryLabelFormatted string `json:"secondary_label_formatted"`
}

// FormattedPackage is a package in the format response.
type FormattedPackage struct {
	PackageID    int               `json:"package_id"`
	Name         string            `json:"name"`
	SelectedRate string            `json:"selected_rate,omitempty"`
	Options      []FormattedOption `json:"options"`
}

// SelectRateRequest is the body of POST /api/v1/carts/:cart_id/shipping-rate.
type SelectRateRequest struct {
	PackageID int    `json:"package_id"`
	RateID    string `json:"rate_id"`
}

// GetShippingMethods handles GET /api/v1/carts/:cart_id/shipping-methods
func (h *Handlers) GetShippingMethods(c *gin.Context) {
	cartID := c.Param("cart_id")
	editor := models.EditorState{IsEditor: queryBool(c, "editor")}

	out, err := h.checkoutService.RenderShippingBlock(c.Request.Context(), cartID, editor)
	if err != nil {
		handleError(c, err)
		return
	}

	h.writeBlock(c, out)
}

// RenderShippingMethods handles POST /api/v1/shipping-methods/render
func (h *Handlers) RenderShippingMethods(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind request", logging.Fields{"error": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	out, err := h.checkoutService.RenderFromState(c.Request.Context(), req.Editor, req.State)
	if err != nil {
		handleError(c, err)
		return
	}

	h.writeBlock(c, out)
}

func (h *Handlers) writeBlock(c *gin.Context, out *service.RenderedBlock) {
	c.Header(blockStateHeader, out.State.String())
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out.HTML))
}

// FormatShippingRates handles POST /api/v1/shipping-rates/format
func (h *Handlers) FormatShippingRates(c *gin.Context) {
	var req FormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	packages, err := h.checkoutService.FormatRates(c.Request.Context(), req.Packages)
	if err != nil {
		handleError(c, err)
		return
	}

	resp := make([]FormattedPackage, 0, len(packages))
	for _, p := range packages {
		fp := FormattedPackage{
			PackageID:    p.PackageID,
			Name:         p.Name,
			SelectedRate: p.SelectedRate,
			Options:      make([]FormattedOption, 0, len(p.Options)),
		}
		for _, o := range p.Options {
			fp.Options = append(fp.Options, FormattedOption{
				RenderedOption:          o,
				SecondaryLabelFormatted: pricing.FormatMonetaryAmount(o.SecondaryLabel),
			})
		}
		resp = append(resp, fp)
	}

	c.JSON(http.StatusOK, gin.H{"packages": resp})
}

// PutShippingState handles PUT /api/v1/carts/:cart_id/shipping
func (h *Handlers) PutShippingState(c *gin.Context) {
	var state models.ShippingState
	if err := c.ShouldBindJSON(&state); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	update := &service.ShippingUpdate{CartID: c.Param("cart_id"), State: state}
	if err := h.checkoutService.ApplyShippingUpdate(c.Request.Context(), update); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SelectShippingRate handles POST /api/v1/carts/:cart_id/shipping-rate
func (h *Handlers) SelectShippingRate(c *gin.Context) {
	var req SelectRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cartID := c.Param("cart_id")
	if _, err := h.checkoutService.SelectRate(c.Request.Context(), cartID, req.PackageID, req.RateID); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart_id":    cartID,
		"package_id": req.PackageID,
		"rate_id":    req.RateID,
	})
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}
