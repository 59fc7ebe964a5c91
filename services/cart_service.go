package services

import (
	"errors"
	"time"

	"github.com/yeremiapane/qrdine/models"
	"github.com/yeremiapane/qrdine/utils"
	"gorm.io/gorm"
)

// CartMaxAge is how long an untouched cart survives before it is evicted on
// the next load.
const CartMaxAge = 3 * time.Hour

// CartService is the sole mutator of cart lines. Carts are namespaced by
// (identity key, tenant code) so two tenants or two table sessions never see
// each other's lines, even from the same browser.
type CartService struct {
	DB *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{DB: db}
}

// Load returns the cart for this identity/tenant pair, evicting it first if
// it is stale or was written for a different tenant. The caller always gets
// a usable cart back.
func (cs *CartService) Load(identityKey, tenantCode string, now time.Time) (*models.Cart, error) {
	var cart models.Cart
	err := cs.DB.Preload("Lines").
		Where("identity_key = ? AND tenant_code = ?", identityKey, tenantCode).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Cart{IdentityKey: identityKey, TenantCode: tenantCode}, nil
		}
		return nil, err
	}

	if cart.TenantCode != tenantCode || now.Sub(cart.UpdatedAt) > CartMaxAge {
		if err := cs.DB.Select("Lines").Delete(&cart).Error; err != nil {
			utils.ErrorLogger.Printf("Failed to evict stale cart %d: %v", cart.ID, err)
		}
		utils.InfoLogger.Printf("Stale cart evicted: key=%s tenant=%s", identityKey, tenantCode)
		return &models.Cart{IdentityKey: identityKey, TenantCode: tenantCode}, nil
	}
	return &cart, nil
}

// AddOrMerge adds a line to the cart, merging on (product, portion): an
// existing line gets its quantity incremented instead of a duplicate line.
// The unit price is taken from the currently selected portion once, at
// insertion, and never recomputed.
func (cs *CartService) AddOrMerge(cart *models.Cart, productID uint, portionLabel string, quantity int, unitPrice float64, note string) *models.CartLine {
	if line := cart.FindLine(productID, portionLabel); line != nil {
		line.Quantity += quantity
		if note != "" {
			line.Note = note
		}
		return line
	}

	cart.Lines = append(cart.Lines, models.CartLine{
		ProductID:    productID,
		PortionLabel: portionLabel,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		Note:         note,
	})
	return &cart.Lines[len(cart.Lines)-1]
}

// Save persists the cart. Cross-tab writes are last-write-wins, there is no
// arbitration.
func (cs *CartService) Save(cart *models.Cart) error {
	return cs.DB.Session(&gorm.Session{FullSaveAssociations: true}).Save(cart).Error
}

// Clear drops the cart for this identity/tenant pair.
func (cs *CartService) Clear(identityKey, tenantCode string) error {
	var cart models.Cart
	err := cs.DB.Where("identity_key = ? AND tenant_code = ?", identityKey, tenantCode).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return cs.DB.Select("Lines").Delete(&cart).Error
}
