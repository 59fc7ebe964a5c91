package models

import (
	"encoding/json"
	"time"
)

// TenantFeatureConfig is the canonical, already-normalized feature payload of
// one tenant. It is fetched once per page load from the catalog backend and
// treated as read-only by everything downstream.
//
// The self-service flags are pointers on purpose: the upstream payload may
// omit them entirely and "unset" must never be read as "allowed".
type TenantFeatureConfig struct {
	TenantCode           string        `json:"customerCode"`
	SubscriptionValid    bool          `json:"subscriptionValid"`
	HasBasketAccess      bool          `json:"hasBasketAccess"`
	BasketSystemEnabled  bool          `json:"basketSystemEnabled"`
	HasSelfServiceAccess *bool         `json:"hasSelfServiceAccess,omitempty"`
	IsSelfServiceEnabled *bool         `json:"isSelfServiceEnabled,omitempty"`
	HappyHours           string        `json:"happyHours,omitempty"`
	TokenRewards         []TokenReward `json:"tokenRewards,omitempty"`
	Products             []Product     `json:"products,omitempty"`
}

// TokenReward maps a product to the loyalty tokens awarded for ordering it.
type TokenReward struct {
	ProductID uint `json:"productId"`
	Tokens    int  `json:"tokens"`
}

// Product is the slice of the catalog the gating core cares about. A product
// with a happy-hour parent is only orderable while that window is active.
type Product struct {
	ID                uint    `json:"id"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	HappyHourParentID *uint   `json:"happyHourParentId,omitempty"`
}

func (p Product) HappyHourLinked() bool {
	return p.HappyHourParentID != nil
}

// TenantConfigCache keeps the last normalized payload per tenant so a tenant
// stays usable while the catalog endpoint is briefly unreachable.
type TenantConfigCache struct {
	ID         uint      `gorm:"primaryKey"`
	TenantCode string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Payload    string    `gorm:"type:text;not null"`
	FetchedAt  time.Time `gorm:"not null"`
}

// NormalizeTenantPayload folds the upstream's duplicated field spellings
// (capitalized and uncapitalized variants of the same flag) into one
// canonical TenantFeatureConfig. The uncapitalized spelling wins when both
// are present. Everything after this point branches on a single shape.
func NormalizeTenantPayload(raw []byte) (TenantFeatureConfig, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return TenantFeatureConfig{}, err
	}

	cfg := TenantFeatureConfig{
		TenantCode:           pickString(fields, "customerCode", "CustomerCode"),
		SubscriptionValid:    pickBool(fields, "subscriptionValid", "SubscriptionValid"),
		HasBasketAccess:      pickBool(fields, "hasBasketAccess", "HasBasketAccess"),
		BasketSystemEnabled:  pickBool(fields, "basketSystemEnabled", "BasketSystemEnabled"),
		HasSelfServiceAccess: pickBoolPtr(fields, "hasSelfServiceAccess", "HasSelfServiceAccess"),
		IsSelfServiceEnabled: pickBoolPtr(fields, "isSelfServiceEnabled", "IsSelfServiceEnabled"),
		HappyHours:           pickString(fields, "happyHours", "HappyHours"),
	}

	if msg := pickRaw(fields, "tokenRewards", "TokenRewards"); msg != nil {
		// Malformed reward lists are dropped, not fatal
		_ = json.Unmarshal(msg, &cfg.TokenRewards)
	}
	if msg := pickRaw(fields, "products", "Products"); msg != nil {
		_ = json.Unmarshal(msg, &cfg.Products)
	}
	return cfg, nil
}

func pickRaw(fields map[string]json.RawMessage, names ...string) json.RawMessage {
	for _, name := range names {
		if msg, ok := fields[name]; ok {
			return msg
		}
	}
	return nil
}

func pickString(fields map[string]json.RawMessage, names ...string) string {
	var s string
	if msg := pickRaw(fields, names...); msg != nil {
		_ = json.Unmarshal(msg, &s)
	}
	return s
}

func pickBool(fields map[string]json.RawMessage, names ...string) bool {
	var b bool
	if msg := pickRaw(fields, names...); msg != nil {
		_ = json.Unmarshal(msg, &b)
	}
	return b
}

func pickBoolPtr(fields map[string]json.RawMessage, names ...string) *bool {
	if msg := pickRaw(fields, names...); msg != nil {
		var b bool
		if err := json.Unmarshal(msg, &b); err == nil {
			return &b
		}
	}
	return nil
}
