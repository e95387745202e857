package protocol

// ProbeResult is the outcome of probing one protocol on one domain. Probes
// create one per protocol; the enricher and filter may raise its status and
// append eligibility signals, and the scorer reads it without mutation.
type ProbeResult struct {
	Protocol           Protocol          `json:"protocol"`
	Status             Status            `json:"status"`
	Confidence         Confidence        `json:"confidence"`
	DetectionMethod    string            `json:"detection_method,omitempty"`
	EndpointURL        string            `json:"endpoint_url,omitempty"`
	Capabilities       map[string]string `json:"capabilities,omitempty"`
	IsFunctional       bool              `json:"is_functional,omitempty"`
	EligibilitySignals []string          `json:"eligibility_signals,omitempty"`
}

// NotDetected returns the safe default result for a protocol: the value a
// probe must report when it cannot complete (timeout, transport failure).
func NotDetected(p Protocol) ProbeResult {
	return ProbeResult{
		Protocol:   p,
		Status:     StatusNotDetected,
		Confidence: ConfidenceLow,
	}
}

// DefaultSet returns a complete result set covering every protocol, all at
// the safe default. The core pipeline assumes one result per protocol per
// domain, so failed scans still carry a full set.
func DefaultSet() []ProbeResult {
	results := make([]ProbeResult, len(All))
	for i, p := range All {
		results[i] = NotDetected(p)
	}
	return results
}

// Clone returns a deep copy so pipeline stages can upgrade results without
// aliasing the caller's slice.
func Clone(results []ProbeResult) []ProbeResult {
	out := make([]ProbeResult, len(results))
	for i, r := range results {
		out[i] = r
		if r.Capabilities != nil {
			caps := make(map[string]string, len(r.Capabilities))
			for k, v := range r.Capabilities {
				caps[k] = v
			}
			out[i].Capabilities = caps
		}
		if r.EligibilitySignals != nil {
			out[i].EligibilitySignals = append([]string(nil), r.EligibilitySignals...)
		}
	}
	return out
}
