// Package protocol defines the closed set of agentic-commerce protocols the
// scanner probes for, the detection status hierarchy, and the per-protocol
// probe result that flows through the enrichment and scoring pipeline.
package protocol

// Protocol identifies one agentic-commerce integration standard.
type Protocol string

// The closed protocol set. Adding a protocol requires a rule list in the
// enricher, a row in the applicability matrix, and a weight in the scorer.
const (
	UCP                Protocol = "ucp"
	ACP                Protocol = "acp"
	X402               Protocol = "x402"
	AP2                Protocol = "ap2"
	MCP                Protocol = "mcp"
	NLWeb              Protocol = "nlweb"
	VisaVIC            Protocol = "visa_vic"
	MastercardAgentPay Protocol = "mastercard_agentpay"
)

// All lists every protocol in canonical order. Pipeline stages preserve
// this order so per-domain output is deterministic.
var All = []Protocol{UCP, ACP, X402, AP2, MCP, NLWeb, VisaVIC, MastercardAgentPay}

// Valid reports whether p is a member of the closed protocol set.
func Valid(p Protocol) bool {
	for _, known := range All {
		if p == known {
			return true
		}
	}
	return false
}
