package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/qrdine/models"
	"github.com/yeremiapane/qrdine/services"
	"github.com/yeremiapane/qrdine/session"
	"github.com/yeremiapane/qrdine/utils"
)

type CartController struct {
	Carts    *services.CartService
	Resolver *session.Resolver
	Catalog  *services.CatalogService
	Gate     *services.FeatureGate
}

func NewCartController(carts *services.CartService, resolver *session.Resolver, catalog *services.CatalogService) *CartController {
	return &CartController{
		Carts:    carts,
		Resolver: resolver,
		Catalog:  catalog,
		Gate:     services.NewFeatureGate(),
	}
}

// requireIdentity resolves the caller's binding; without one every cart
// endpoint answers with the re-scan instruction.
func (cc *CartController) requireIdentity(c *gin.Context) (models.Identity, bool) {
	code := c.Param("code")
	res := cc.Resolver.Resolve(resolveParams(c, code), session.GinJar{C: c}, time.Now())
	if !res.Identity.IsBound() {
		utils.RespondError(c, http.StatusForbidden, ErrScanRequired)
		return models.Identity{}, false
	}
	return res.Identity, true
}

// GetCart -> the caller's cart for this tenant
func (cc *CartController) GetCart(c *gin.Context) {
	id, ok := cc.requireIdentity(c)
	if !ok {
		return
	}

	cart, err := cc.Carts.Load(id.Key(), id.TenantCode, time.Now())
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Cart contents", gin.H{
		"cart":     cart,
		"quantity": cart.TotalQuantity(),
		"subtotal": cart.Subtotal(),
	})
}

// AddItem -> adds or merges one order line
func (cc *CartController) AddItem(c *gin.Context) {
	id, ok := cc.requireIdentity(c)
	if !ok {
		return
	}

	// The basket gate runs on every write, not just on page load
	cfg, _ := cc.Catalog.GetConfig(id.TenantCode)
	caps := cc.Gate.Evaluate(cfg)
	if !caps.CanUseBasket {
		utils.RespondError(c, http.StatusForbidden, &CustomError{*caps.BasketDisabledReason})
		return
	}

	var req struct {
		ProductID    uint    `json:"product_id" binding:"required"`
		PortionLabel string  `json:"portion_label" binding:"required"`
		Quantity     int     `json:"quantity"`
		UnitPrice    float64 `json:"unit_price"`
		Note         string  `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	cart, err := cc.Carts.Load(id.Key(), id.TenantCode, time.Now())
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	line := cc.Carts.AddOrMerge(cart, req.ProductID, req.PortionLabel, req.Quantity, req.UnitPrice, req.Note)
	if err := cc.Carts.Save(cart); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Cart line saved: tenant=%s key=%s product=%d portion=%s qty=%d",
		id.TenantCode, id.Key(), line.ProductID, line.PortionLabel, line.Quantity)
	utils.RespondJSON(c, http.StatusCreated, "Item added to cart", gin.H{
		"line": line,
		"cart": cart,
	})
}

// ClearCart -> drops the whole cart for this identity
func (cc *CartController) ClearCart(c *gin.Context) {
	id, ok := cc.requireIdentity(c)
	if !ok {
		return
	}

	if err := cc.Carts.Clear(id.Key(), id.TenantCode); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart cleared", gin.H{
		"identity_key": id.Key(),
	})
}
