// Package enrich upgrades probe results using commerce-platform and
// payment-processor signals. For each protocol a fixed, ordered rule list
// is evaluated top-down; the first matching rule proposes a candidate
// status, and the candidate is applied only when it outranks the current
// status. A confirmed result is never altered, no rule ever lowers rank,
// and applying the enricher to its own output is a no-op.
package enrich

import (
	"github.com/openmerchant/agentready/internal/protocol"
	"github.com/openmerchant/agentready/internal/signals"
)

// Apply returns a new result slice, same protocols in the same order, with
// eligibility upgrades applied. The input slice is not mutated.
func Apply(results []protocol.ProbeResult, bundle *signals.Bundle) []protocol.ProbeResult {
	out := protocol.Clone(results)
	for i := range out {
		enrichOne(&out[i], bundle)
	}
	return out
}

// enrichOne runs the protocol's rule list and merges the first match.
// The merge is a lattice join by rank: status only moves up, never down,
// and confirmed is terminal.
func enrichOne(r *protocol.ProbeResult, bundle *signals.Bundle) {
	if r.Status == protocol.StatusConfirmed {
		return
	}
	for _, rule := range ruleTable[r.Protocol] {
		if !rule.applies(bundle) {
			continue
		}
		if protocol.Rank(rule.candidate) > protocol.Rank(r.Status) {
			r.Status = rule.candidate
			r.EligibilitySignals = append(r.EligibilitySignals, rule.signal)
		}
		return // first match wins, even when it cannot raise the rank
	}
}
