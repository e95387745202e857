package classify

import (
	"github.com/openmerchant/agentready/internal/protocol"
)

// applicability is the fixed Protocol x Model matrix. A protocol missing a
// model is inapplicable for merchants of that model.
var applicability = map[protocol.Protocol]map[Model]bool{
	protocol.UCP:     {ModelRetail: true, ModelMarketplace: true},
	protocol.ACP:     {ModelRetail: true, ModelMarketplace: true, ModelSaaS: true, ModelAPIProvider: true},
	protocol.X402:    {ModelSaaS: true, ModelAPIProvider: true},
	protocol.AP2:     {ModelRetail: true, ModelMarketplace: true, ModelSaaS: true, ModelAPIProvider: true},
	protocol.MCP:     {ModelRetail: true, ModelMarketplace: true, ModelSaaS: true, ModelAPIProvider: true},
	protocol.NLWeb:   {ModelRetail: true, ModelMarketplace: true, ModelSaaS: true},
	protocol.VisaVIC: {ModelRetail: true, ModelMarketplace: true},
	protocol.MastercardAgentPay: {ModelRetail: true, ModelMarketplace: true},
}

// Applicable reports whether p is relevant for merchants with model m.
func Applicable(p protocol.Protocol, m Model) bool {
	return applicability[p][m]
}

// Filter marks protocols inapplicable to the business model. Only a
// not_detected result moves to not_applicable: a live detection of any
// rank stays untouched, the matrix is advisory once evidence exists.
// Returns a new slice; the input is not mutated.
func Filter(results []protocol.ProbeResult, m Model) []protocol.ProbeResult {
	out := protocol.Clone(results)
	for i := range out {
		if Applicable(out[i].Protocol, m) {
			continue
		}
		if out[i].Status == protocol.StatusNotDetected {
			out[i].Status = protocol.StatusNotApplicable
			out[i].EligibilitySignals = append(out[i].EligibilitySignals,
				"Not applicable for "+string(m)+" business model")
		}
	}
	return out
}
