package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/qrdine/models"
)

func boolPtr(b bool) *bool {
	return &b
}

func fullyEnabledConfig() models.TenantFeatureConfig {
	return models.TenantFeatureConfig{
		TenantCode:           "ABC",
		SubscriptionValid:    true,
		HasBasketAccess:      true,
		BasketSystemEnabled:  true,
		HasSelfServiceAccess: boolPtr(true),
		IsSelfServiceEnabled: boolPtr(true),
	}
}

func TestEvaluateAllEnabled(t *testing.T) {
	caps := NewFeatureGate().Evaluate(fullyEnabledConfig())

	assert.True(t, caps.CanUseBasket)
	assert.True(t, caps.CanUseSelfService)
	assert.Nil(t, caps.BasketDisabledReason)
	assert.Nil(t, caps.SelfServiceDisabledReason)
}

// An unset access flag must disable self-service even with enablement on:
// "unset" is never "unrestricted".
func TestSelfServiceDefaultDeny(t *testing.T) {
	cfg := fullyEnabledConfig()
	cfg.HasSelfServiceAccess = nil

	caps := NewFeatureGate().Evaluate(cfg)
	assert.False(t, caps.CanUseSelfService)
	if assert.NotNil(t, caps.SelfServiceDisabledReason) {
		assert.Equal(t, ReasonSelfServiceNotLicensed, *caps.SelfServiceDisabledReason)
	}

	cfg = fullyEnabledConfig()
	cfg.IsSelfServiceEnabled = nil
	caps = NewFeatureGate().Evaluate(cfg)
	assert.False(t, caps.CanUseSelfService)
}

func TestReasonOrdering(t *testing.T) {
	gate := NewFeatureGate()

	// Expired subscription outranks everything, even with every other
	// flag off as well
	cfg := models.TenantFeatureConfig{SubscriptionValid: false}
	caps := gate.Evaluate(cfg)
	assert.False(t, caps.CanUseBasket)
	assert.Equal(t, ReasonSubscriptionExpired, *caps.BasketDisabledReason)
	assert.Equal(t, ReasonSubscriptionExpired, *caps.SelfServiceDisabledReason)

	// Switched off by the tenant outranks not-licensed
	cfg = fullyEnabledConfig()
	cfg.BasketSystemEnabled = false
	cfg.HasBasketAccess = false
	caps = gate.Evaluate(cfg)
	assert.Equal(t, ReasonBasketSwitchedOff, *caps.BasketDisabledReason)

	// Licensed but switched off
	cfg = fullyEnabledConfig()
	cfg.IsSelfServiceEnabled = boolPtr(false)
	caps = gate.Evaluate(cfg)
	assert.Equal(t, ReasonSelfServiceOff, *caps.SelfServiceDisabledReason)

	// Enabled but never licensed
	cfg = fullyEnabledConfig()
	cfg.HasBasketAccess = false
	caps = gate.Evaluate(cfg)
	assert.Equal(t, ReasonBasketNotLicensed, *caps.BasketDisabledReason)
}
