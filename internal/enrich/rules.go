package enrich

import (
	"github.com/openmerchant/agentready/internal/protocol"
	"github.com/openmerchant/agentready/internal/signals"
)

// rule is one eligibility upgrade: when the precondition holds against the
// signal bundle, the protocol's status becomes candidate (subject to the
// monotonic merge in Apply) and the signal string is appended.
type rule struct {
	applies   func(*signals.Bundle) bool
	candidate protocol.Status
	signal    string
}

func onPlatform(names ...string) func(*signals.Bundle) bool {
	return func(b *signals.Bundle) bool {
		for _, n := range names {
			if b.EcommercePlatform == n {
				return true
			}
		}
		return false
	}
}

func withProcessor(name string) func(*signals.Bundle) bool {
	return func(b *signals.Bundle) bool { return b.HasProcessor(name) }
}

// ruleTable holds each protocol's ordered rule list; the first matching
// rule decides the candidate. Platform-enablement rules come before
// payment-processor eligibility rules throughout. Adding a protocol means
// adding an entry here, not touching the merge logic.
var ruleTable = map[protocol.Protocol][]rule{
	protocol.ACP: {
		{onPlatform(signals.PlatformEtsy), protocol.StatusPlatformEnabled,
			"Etsy has live ACP integration"},
		{onPlatform(signals.PlatformShopify), protocol.StatusPlatformEnabled,
			"Shopify supports ACP"},
		{withProcessor(signals.ProcessorStripe), protocol.StatusEligible,
			"Stripe detected - can enable ACP via Stripe"},
	},
	protocol.UCP: {
		// Etsy deliberately absent: it does not enable UCP for sellers.
		{onPlatform(signals.PlatformShopify), protocol.StatusPlatformEnabled,
			"Shopify supports UCP"},
		{onPlatform(signals.PlatformWooCommerce), protocol.StatusPlatformEnabled,
			"WooCommerce supports UCP"},
	},
	protocol.MCP: {
		{onPlatform(signals.PlatformShopify), protocol.StatusPlatformEnabled,
			"Shopify exposes a storefront MCP server"},
	},
	protocol.X402: {
		{withProcessor(signals.ProcessorCoinbase), protocol.StatusEligible,
			"Coinbase Commerce detected - can enable x402 payments"},
	},
	protocol.AP2: {
		{withProcessor(signals.ProcessorAdyen), protocol.StatusEligible,
			"Adyen detected - AP2 available through Adyen"},
		{withProcessor(signals.ProcessorPayPal), protocol.StatusEligible,
			"PayPal detected - PayPal backs the AP2 mandate network"},
	},
	protocol.NLWeb: {
		{func(b *signals.Bundle) bool {
			return b.HasSchemaProduct && b.HasSchemaOffer && b.ProductCount > 0
		}, protocol.StatusEligible,
			"Schema.org product markup present - NLWeb adoption is low-lift"},
	},
	protocol.VisaVIC: {
		{withProcessor(signals.ProcessorStripe), protocol.StatusEligible,
			"Stripe detected - network tokens can back Visa Intelligent Commerce"},
		{withProcessor(signals.ProcessorAdyen), protocol.StatusEligible,
			"Adyen detected - network tokens can back Visa Intelligent Commerce"},
	},
	protocol.MastercardAgentPay: {
		{withProcessor(signals.ProcessorAdyen), protocol.StatusEligible,
			"Adyen detected - Agent Pay available through Adyen tokenization"},
		{withProcessor(signals.ProcessorBraintree), protocol.StatusEligible,
			"Braintree detected - Agent Pay available through Mastercard tokenization"},
	},
}
