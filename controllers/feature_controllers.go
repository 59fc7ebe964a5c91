package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/qrdine/models"
	"github.com/yeremiapane/qrdine/services"
	"github.com/yeremiapane/qrdine/utils"
)

type FeatureController struct {
	Catalog    *services.CatalogService
	Gate       *services.FeatureGate
	HappyHours *services.HappyHourService
}

func NewFeatureController(catalog *services.CatalogService) *FeatureController {
	return &FeatureController{
		Catalog:    catalog,
		Gate:       services.NewFeatureGate(),
		HappyHours: services.NewHappyHourService(),
	}
}

// GetFeatures -> the tenant's capability flags with disablement reasons
func (fc *FeatureController) GetFeatures(c *gin.Context) {
	code := c.Param("code")

	cfg, err := fc.Catalog.GetConfig(code)
	if err != nil {
		utils.ErrorLogger.Printf("Tenant %s config unavailable: %v", code, err)
	}

	utils.RespondJSON(c, http.StatusOK, "Tenant capabilities", gin.H{
		"capabilities":  fc.Gate.Evaluate(cfg),
		"token_rewards": cfg.TokenRewards,
	})
}

// GetHappyHour -> today's window plus per-product orderability for every
// product linked to a happy-hour parent
func (fc *FeatureController) GetHappyHour(c *gin.Context) {
	code := c.Param("code")
	now := time.Now()

	cfg, err := fc.Catalog.GetConfig(code)
	if err != nil {
		utils.ErrorLogger.Printf("Tenant %s config unavailable: %v", code, err)
	}

	schedule := models.ParseHappyHourSchedule(cfg.HappyHours)

	linked := make([]gin.H, 0)
	for _, product := range cfg.Products {
		if !product.HappyHourLinked() {
			continue
		}
		linked = append(linked, gin.H{
			"product_id": product.ID,
			"name":       product.Name,
			"can_order":  fc.HappyHours.CanOrder(product, schedule, now),
		})
	}

	utils.RespondJSON(c, http.StatusOK, "Happy hour status", gin.H{
		"active":          fc.HappyHours.IsActive(schedule, now),
		"window":          fc.HappyHours.TodayWindowLabel(schedule, now),
		"linked_products": linked,
	})
}
