package protocol

// Status is the detection status for one protocol on one domain.
type Status string

// Detection statuses. The first four form a total order (see Rank);
// StatusNotApplicable is terminal and unranked, assigned only by the
// business model filter.
const (
	StatusConfirmed       Status = "confirmed"
	StatusPlatformEnabled Status = "platform_enabled"
	StatusEligible        Status = "eligible"
	StatusNotDetected     Status = "not_detected"
	StatusNotApplicable   Status = "not_applicable"
)

// Rank returns the position of s in the status hierarchy. Higher ranks
// never regress to lower ones during enrichment. StatusNotApplicable and
// unknown statuses rank zero, below every detected state.
func Rank(s Status) int {
	switch s {
	case StatusConfirmed:
		return 4
	case StatusPlatformEnabled:
		return 3
	case StatusEligible:
		return 2
	case StatusNotDetected:
		return 1
	default:
		return 0
	}
}

// IsDetected reports whether s represents a usable protocol: a live
// detection, a platform-provided integration, or upgrade eligibility.
func IsDetected(s Status) bool {
	switch s {
	case StatusConfirmed, StatusPlatformEnabled, StatusEligible:
		return true
	default:
		return false
	}
}

// Confidence grades how certain a probe is about its result.
type Confidence string

// Probe confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)
