package services

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/yeremiapane/qrdine/models"
	"github.com/yeremiapane/qrdine/utils"
	"gorm.io/gorm"
)

// CatalogService fetches a tenant's feature payload from the catalog backend
// and normalizes it at the ingress boundary, so the rest of the core only
// ever sees one canonical shape. The last good payload is cached in the
// local database and served when the catalog endpoint is unreachable.
type CatalogService struct {
	BaseURL    string
	DB         *gorm.DB
	httpClient *http.Client
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{
		BaseURL: os.Getenv("CATALOG_BASE_URL"),
		DB:      db,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetConfig returns the normalized feature configuration for one tenant.
// Fetch failures fall back to the cached copy; with neither available the
// zero config is returned, which the feature gate evaluates as everything
// disabled (fail-closed).
func (cat *CatalogService) GetConfig(tenantCode string) (models.TenantFeatureConfig, error) {
	raw, err := cat.fetch(tenantCode)
	if err == nil {
		if cfg, perr := models.NormalizeTenantPayload(raw); perr == nil {
			if cfg.TenantCode == "" {
				cfg.TenantCode = tenantCode
			}
			cat.storeCache(tenantCode, raw)
			return cfg, nil
		} else {
			err = perr
		}
	}

	utils.ErrorLogger.Printf("Catalog fetch failed for tenant %s, trying cache: %v", tenantCode, err)

	var cached models.TenantConfigCache
	if cerr := cat.DB.Where("tenant_code = ?", tenantCode).First(&cached).Error; cerr == nil {
		if cfg, perr := models.NormalizeTenantPayload([]byte(cached.Payload)); perr == nil {
			if cfg.TenantCode == "" {
				cfg.TenantCode = tenantCode
			}
			return cfg, nil
		}
	}

	return models.TenantFeatureConfig{TenantCode: tenantCode}, err
}

func (cat *CatalogService) fetch(tenantCode string) ([]byte, error) {
	if cat.BaseURL == "" {
		return nil, fmt.Errorf("CATALOG_BASE_URL is not configured")
	}

	url := fmt.Sprintf("%s/tenants/%s/features", cat.BaseURL, tenantCode)
	resp, err := cat.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d for tenant %s", resp.StatusCode, tenantCode)
	}
	return io.ReadAll(resp.Body)
}

func (cat *CatalogService) storeCache(tenantCode string, raw []byte) {
	cache := models.TenantConfigCache{
		TenantCode: tenantCode,
		Payload:    string(raw),
		FetchedAt:  time.Now(),
	}

	var existing models.TenantConfigCache
	if err := cat.DB.Where("tenant_code = ?", tenantCode).First(&existing).Error; err == nil {
		existing.Payload = cache.Payload
		existing.FetchedAt = cache.FetchedAt
		if err := cat.DB.Save(&existing).Error; err != nil {
			utils.ErrorLogger.Printf("Failed to refresh catalog cache for %s: %v", tenantCode, err)
		}
		return
	}

	if err := cat.DB.Create(&cache).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to cache catalog payload for %s: %v", tenantCode, err)
	}
}
