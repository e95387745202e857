package classify

import (
	"testing"

	"github.com/openmerchant/agentready/internal/protocol"
)

func statusOf(set []protocol.ProbeResult, p protocol.Protocol) protocol.Status {
	for _, r := range set {
		if r.Protocol == p {
			return r.Status
		}
	}
	return ""
}

func TestFilterRetail(t *testing.T) {
	// Scenario: retail merchant, ucp/acp/x402 all not_detected. Only x402
	// is inapplicable and moves to not_applicable.
	out := Filter(protocol.DefaultSet(), ModelRetail)

	if got := statusOf(out, protocol.X402); got != protocol.StatusNotApplicable {
		t.Errorf("x402 = %s, want not_applicable", got)
	}
	if got := statusOf(out, protocol.UCP); got != protocol.StatusNotDetected {
		t.Errorf("ucp = %s, want not_detected", got)
	}
	if got := statusOf(out, protocol.ACP); got != protocol.StatusNotDetected {
		t.Errorf("acp = %s, want not_detected", got)
	}
}

func TestFilterAPIProvider(t *testing.T) {
	out := Filter(protocol.DefaultSet(), ModelAPIProvider)

	for _, p := range []protocol.Protocol{protocol.UCP, protocol.NLWeb, protocol.VisaVIC, protocol.MastercardAgentPay} {
		if got := statusOf(out, p); got != protocol.StatusNotApplicable {
			t.Errorf("%s = %s, want not_applicable for api_provider", p, got)
		}
	}
	for _, p := range []protocol.Protocol{protocol.ACP, protocol.X402, protocol.AP2, protocol.MCP} {
		if got := statusOf(out, p); got != protocol.StatusNotDetected {
			t.Errorf("%s = %s, want not_detected for api_provider", p, got)
		}
	}
}

func TestFilterNeverOverridesDetection(t *testing.T) {
	// A live detection stays even when the matrix says inapplicable.
	for _, status := range []protocol.Status{
		protocol.StatusConfirmed, protocol.StatusPlatformEnabled, protocol.StatusEligible,
	} {
		in := protocol.DefaultSet()
		for i := range in {
			if in[i].Protocol == protocol.X402 {
				in[i].Status = status
			}
		}
		out := Filter(in, ModelRetail)
		if got := statusOf(out, protocol.X402); got != status {
			t.Errorf("x402 %s on retail = %s, want untouched", status, got)
		}
	}
}

func TestFilterOnlyTransitionsNotDetected(t *testing.T) {
	in := protocol.DefaultSet()
	out := Filter(in, ModelSaaS)

	for i := range out {
		before, after := in[i].Status, out[i].Status
		if before != after && !(before == protocol.StatusNotDetected && after == protocol.StatusNotApplicable) {
			t.Errorf("%s: %s -> %s, only not_detected -> not_applicable is legal",
				out[i].Protocol, before, after)
		}
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	in := protocol.DefaultSet()
	_ = Filter(in, ModelAPIProvider)

	for _, r := range in {
		if r.Status != protocol.StatusNotDetected {
			t.Fatalf("input mutated: %s = %s", r.Protocol, r.Status)
		}
	}
}

func TestApplicableMatrix(t *testing.T) {
	tests := []struct {
		p    protocol.Protocol
		m    Model
		want bool
	}{
		{protocol.X402, ModelSaaS, true},
		{protocol.X402, ModelAPIProvider, true},
		{protocol.X402, ModelRetail, false},
		{protocol.X402, ModelMarketplace, false},
		{protocol.UCP, ModelRetail, true},
		{protocol.UCP, ModelMarketplace, true},
		{protocol.UCP, ModelSaaS, false},
		{protocol.VisaVIC, ModelAPIProvider, false},
		{protocol.MastercardAgentPay, ModelSaaS, false},
		{protocol.ACP, ModelAPIProvider, true},
		{protocol.MCP, ModelAPIProvider, true},
		{protocol.AP2, ModelAPIProvider, true},
	}
	for _, tt := range tests {
		if got := Applicable(tt.p, tt.m); got != tt.want {
			t.Errorf("Applicable(%s, %s) = %v, want %v", tt.p, tt.m, got, tt.want)
		}
	}
}
