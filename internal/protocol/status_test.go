package protocol

import "testing"

func TestRankOrdering(t *testing.T) {
	// confirmed > platform_enabled > eligible > not_detected
	ordered := []Status{StatusConfirmed, StatusPlatformEnabled, StatusEligible, StatusNotDetected}
	for i := 0; i < len(ordered)-1; i++ {
		if Rank(ordered[i]) <= Rank(ordered[i+1]) {
			t.Errorf("Rank(%s) = %d, want > Rank(%s) = %d",
				ordered[i], Rank(ordered[i]), ordered[i+1], Rank(ordered[i+1]))
		}
	}
}

func TestRankNotApplicable(t *testing.T) {
	if got := Rank(StatusNotApplicable); got != 0 {
		t.Errorf("Rank(not_applicable) = %d, want 0", got)
	}
	if got := Rank(Status("bogus")); got != 0 {
		t.Errorf("Rank(bogus) = %d, want 0", got)
	}
}

func TestIsDetected(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusConfirmed, true},
		{StatusPlatformEnabled, true},
		{StatusEligible, true},
		{StatusNotDetected, false},
		{StatusNotApplicable, false},
		{Status(""), false},
	}
	for _, tt := range tests {
		if got := IsDetected(tt.status); got != tt.want {
			t.Errorf("IsDetected(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestDefaultSetCoversAllProtocols(t *testing.T) {
	set := DefaultSet()
	if len(set) != len(All) {
		t.Fatalf("DefaultSet() has %d results, want %d", len(set), len(All))
	}
	for i, r := range set {
		if r.Protocol != All[i] {
			t.Errorf("DefaultSet()[%d].Protocol = %s, want %s", i, r.Protocol, All[i])
		}
		if r.Status != StatusNotDetected {
			t.Errorf("DefaultSet()[%d].Status = %s, want not_detected", i, r.Status)
		}
		if r.Confidence != ConfidenceLow {
			t.Errorf("DefaultSet()[%d].Confidence = %s, want low", i, r.Confidence)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := []ProbeResult{{
		Protocol:           UCP,
		Status:             StatusConfirmed,
		Capabilities:       map[string]string{"checkout": "true"},
		EligibilitySignals: []string{"found live endpoint"},
	}}
	cp := Clone(orig)
	cp[0].Capabilities["checkout"] = "false"
	cp[0].EligibilitySignals[0] = "mutated"
	cp[0].Status = StatusNotDetected

	if orig[0].Capabilities["checkout"] != "true" {
		t.Error("Clone shares the capabilities map")
	}
	if orig[0].EligibilitySignals[0] != "found live endpoint" {
		t.Error("Clone shares the eligibility signals slice")
	}
	if orig[0].Status != StatusConfirmed {
		t.Error("Clone shares status")
	}
}

func TestValid(t *testing.T) {
	for _, p := range All {
		if !Valid(p) {
			t.Errorf("Valid(%s) = false, want true", p)
		}
	}
	if Valid(Protocol("teleport")) {
		t.Error("Valid(teleport) = true, want false")
	}
}
