// Package classify assigns a coarse business model to a merchant and
// filters out protocols that make no sense for that model.
package classify

import (
	"github.com/openmerchant/agentready/internal/signals"
)

// Model is the merchant's business model.
type Model string

// The closed business model set.
const (
	ModelRetail      Model = "retail"
	ModelMarketplace Model = "marketplace"
	ModelSaaS        Model = "saas"
	ModelAPIProvider Model = "api_provider"
)

// categoryModels maps an explicitly declared merchant category to a model.
// Unknown categories fall through to the next classification tier.
var categoryModels = map[string]Model{
	"saas":       ModelSaaS,
	"software":   ModelSaaS,
	"api":        ModelAPIProvider,
	"retail":     ModelRetail,
	"restaurant": ModelRetail,
	"grocery":    ModelRetail,
	"fashion":    ModelRetail,
	"marketplace": ModelMarketplace,
}

// platformModels maps a detected commerce platform to a model.
var platformModels = map[string]Model{
	signals.PlatformShopify:     ModelRetail,
	signals.PlatformWooCommerce: ModelRetail,
	signals.PlatformBigCommerce: ModelRetail,
	signals.PlatformMagento:     ModelRetail,
	signals.PlatformSquarespace: ModelRetail,
	signals.PlatformEtsy:        ModelMarketplace,
}

// Classify picks the business model by precedence: explicit merchant
// category, then commerce platform, then structured-data evidence, then
// HTML page signals, defaulting to retail. Later tiers are consulted only
// when every earlier tier is absent or inconclusive.
func Classify(b *signals.Bundle) Model {
	if m, ok := categoryModels[b.MerchantCategory]; ok {
		return m
	}
	if m, ok := platformModels[b.EcommercePlatform]; ok {
		return m
	}
	if b.HasSchemaProduct && b.HasSchemaOffer && b.ProductCount > 0 {
		return ModelRetail
	}
	if b.HTML.HasAPIDocs && b.HTML.HasPricingPage {
		return ModelAPIProvider
	}
	if b.HTML.HasPricingPage && b.HTML.HasSignup {
		return ModelSaaS
	}
	return ModelRetail
}
