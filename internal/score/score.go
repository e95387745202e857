// Package score turns enriched probe results and page signals into a
// four-dimensional readiness score with a composite and a letter grade.
// Every sub-score is clamped to [0,100] after each additive step; the
// scorer is a pure function and never fails.
package score

import (
	"math"

	"github.com/openmerchant/agentready/internal/protocol"
	"github.com/openmerchant/agentready/internal/signals"
)

// Readiness is the scored output for one domain.
type Readiness struct {
	ProtocolScore      int    `json:"protocol_score"`
	DataScore          int    `json:"data_score"`
	AccessibilityScore int    `json:"accessibility_score"`
	CheckoutScore      int    `json:"checkout_score"`
	ReadinessScore     int    `json:"readiness_score"`
	Grade              string `json:"grade"`
}

// Per-protocol weights, counted when a protocol is detected and functional.
// The raw sum exceeds 100 on purpose; the cap rewards breadth without
// requiring every protocol.
var protocolWeights = map[protocol.Protocol]int{
	protocol.UCP:                30,
	protocol.ACP:                20,
	protocol.MCP:                15,
	protocol.X402:               10,
	protocol.AP2:                10,
	protocol.VisaVIC:            8,
	protocol.MastercardAgentPay: 8,
	protocol.NLWeb:              5,
}

// Composite weights over the four dimensions, summing to 1.
const (
	weightProtocol      = 0.40
	weightData          = 0.25
	weightAccessibility = 0.20
	weightCheckout      = 0.15
)

// Compute scores one domain from its filtered probe results and signals.
func Compute(results []protocol.ProbeResult, bundle *signals.Bundle, sd *signals.StructuredData, acc *signals.Accessibility) Readiness {
	r := Readiness{
		ProtocolScore:      protocolScore(results),
		DataScore:          dataScore(bundle, sd),
		AccessibilityScore: accessibilityScore(acc),
		CheckoutScore:      checkoutScore(acc),
	}
	composite := float64(r.ProtocolScore)*weightProtocol +
		float64(r.DataScore)*weightData +
		float64(r.AccessibilityScore)*weightAccessibility +
		float64(r.CheckoutScore)*weightCheckout
	r.ReadinessScore = clamp(int(math.Round(composite)))
	r.Grade = Grade(r.ReadinessScore)
	return r
}

// protocolScore sums the fixed weight of every detected, functional
// protocol, capped at 100.
func protocolScore(results []protocol.ProbeResult) int {
	score := 0
	for _, r := range results {
		if protocol.IsDetected(r.Status) && r.IsFunctional {
			score += protocolWeights[r.Protocol]
		}
	}
	return clamp(score)
}

// dataScore rewards structured-data presence plus proportional coverage of
// price, availability, SKU, and image across the product catalog. Fixed
// weights total 78 and the coverage bonuses 15, so full marks sit at 93.
func dataScore(bundle *signals.Bundle, sd *signals.StructuredData) int {
	score := 0
	if sd.HasJSONLD {
		score += 25
	}
	if bundle.HasSchemaProduct {
		score += 20
	}
	if bundle.HasSchemaOffer {
		score += 15
	}
	if sd.HasOpenGraph {
		score += 10
	}
	if sd.HasMicrodata {
		score += 5
	}
	if sd.HasSchemaOrganization {
		score += 3
	}
	if n := bundle.ProductCount; n > 0 {
		score += coverageBonus(sd.ProductsWithPrice, n, 5)
		score += coverageBonus(sd.ProductsWithAvail, n, 4)
		score += coverageBonus(sd.ProductsWithSKU, n, 3)
		score += coverageBonus(sd.ProductsWithImage, n, 3)
	}
	return clamp(score)
}

// coverageBonus scales a weight by covered/total, bounded so malformed
// upstream counts can never exceed the weight.
func coverageBonus(covered, total, weight int) int {
	if covered <= 0 || total <= 0 {
		return 0
	}
	if covered > total {
		covered = total
	}
	return int(math.Round(float64(weight) * float64(covered) / float64(total)))
}

// accessibilityScore starts at 100 and subtracts friction penalties.
func accessibilityScore(acc *signals.Accessibility) int {
	score := 100
	if !acc.RobotsTxtExists {
		score -= 5
	}
	if acc.RobotsBlocksAllBots {
		score -= 40
	}
	if acc.RobotsBlocksGPTBot {
		score -= 10
	}
	if acc.RobotsBlocksClaudeBot {
		score -= 10
	}
	if acc.HasCaptcha {
		score -= 25
	}
	if acc.RequiresJavaScript {
		score -= 15
	}
	if acc.RobotsAllowsAgents {
		score += 10
	}
	return clamp(score)
}

// checkoutScore accumulates bonuses for agent-friendly checkout.
func checkoutScore(acc *signals.Accessibility) int {
	score := 0
	if !acc.RequiresAccount {
		score += 20
	}
	if acc.GuestCheckoutAvailable {
		score += 25
	}
	switch {
	case acc.CheckoutStepsCount == 0:
		// unknown, no bonus
	case acc.CheckoutStepsCount <= 3:
		score += 15
	case acc.CheckoutStepsCount <= 5:
		score += 8
	}
	breadth := len(acc.PaymentProcessors) * 3
	if breadth > 15 {
		breadth = 15
	}
	score += breadth
	if acc.SupportsDigitalWallets {
		score += 10
	}
	if acc.SupportsCrypto {
		score += 5
	}
	if acc.SupportsPix {
		score += 3
	}
	if acc.SupportsSpei {
		score += 2
	}
	return clamp(score)
}

// Grade maps a composite score to a letter grade. Bands are closed on the
// lower bound: 80 is an A, 79 a B.
func Grade(score int) string {
	switch {
	case score >= 80:
		return "A"
	case score >= 60:
		return "B"
	case score >= 40:
		return "C"
	case score >= 20:
		return "D"
	default:
		return "F"
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
