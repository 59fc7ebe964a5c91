package services

import (
	"github.com/yeremiapane/qrdine/models"
)

// Disablement reasons surfaced to the page. Only the first applicable one is
// shown: an expired subscription outranks a switched-off feature, which
// outranks a feature the tenant never licensed.
const (
	ReasonSubscriptionExpired    = "Subscription expired - please contact your provider"
	ReasonBasketSwitchedOff      = "Ordering is currently switched off for this restaurant"
	ReasonBasketNotLicensed      = "Ordering is not included in this restaurant's plan"
	ReasonSelfServiceOff         = "Self-service is currently switched off for this restaurant"
	ReasonSelfServiceNotLicensed = "Self-service is not included in this restaurant's plan"
)

// CapabilitySet is derived from the tenant configuration on every change,
// never stored.
type CapabilitySet struct {
	CanUseBasket              bool    `json:"can_use_basket"`
	CanUseSelfService         bool    `json:"can_use_self_service"`
	BasketDisabledReason      *string `json:"basket_disabled_reason"`
	SelfServiceDisabledReason *string `json:"self_service_disabled_reason"`
}

// FeatureGate maps tenant configuration and subscription state to capability
// flags. Pure decision logic, no I/O.
type FeatureGate struct{}

func NewFeatureGate() *FeatureGate {
	return &FeatureGate{}
}

func (fg *FeatureGate) Evaluate(cfg models.TenantFeatureConfig) CapabilitySet {
	caps := CapabilitySet{
		CanUseBasket: cfg.SubscriptionValid && cfg.BasketSystemEnabled && cfg.HasBasketAccess,
		// Default-deny: a missing access or enablement flag disables
		// self-service, "unset" is never "unrestricted".
		CanUseSelfService: cfg.SubscriptionValid &&
			cfg.HasSelfServiceAccess != nil && *cfg.HasSelfServiceAccess &&
			cfg.IsSelfServiceEnabled != nil && *cfg.IsSelfServiceEnabled,
	}

	if !caps.CanUseBasket {
		caps.BasketDisabledReason = fg.basketReason(cfg)
	}
	if !caps.CanUseSelfService {
		caps.SelfServiceDisabledReason = fg.selfServiceReason(cfg)
	}
	return caps
}

func (fg *FeatureGate) basketReason(cfg models.TenantFeatureConfig) *string {
	switch {
	case !cfg.SubscriptionValid:
		return reason(ReasonSubscriptionExpired)
	case !cfg.BasketSystemEnabled:
		return reason(ReasonBasketSwitchedOff)
	default:
		return reason(ReasonBasketNotLicensed)
	}
}

func (fg *FeatureGate) selfServiceReason(cfg models.TenantFeatureConfig) *string {
	switch {
	case !cfg.SubscriptionValid:
		return reason(ReasonSubscriptionExpired)
	case cfg.IsSelfServiceEnabled == nil || !*cfg.IsSelfServiceEnabled:
		return reason(ReasonSelfServiceOff)
	default:
		return reason(ReasonSelfServiceNotLicensed)
	}
}

func reason(s string) *string {
	return &s
}
