// Package probe performs the per-protocol network checks for one domain.
// Every probe is total: a timeout, transport failure, or open circuit
// degrades to the safe default (not_detected, low confidence) instead of
// surfacing an error into the pipeline. The probe set is closed and fixed
// at build time, matching the protocol enumeration.
package probe

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/openmerchant/agentready/internal/protocol"
)

// Options configures a probe run.
type Options struct {
	Client       *http.Client // nil uses a default with sane timeouts
	UserAgent    string
	PerHostRPS   float64 // request pacing against one host, default 4
	MaxBodyBytes int64   // per-response read cap, default 2MB

	// Skip lists protocols to leave at the not_detected default without
	// sending any request.
	Skip []protocol.Protocol

	// Observe, when set, receives each probe outcome with its duration.
	Observe func(p protocol.Protocol, status protocol.Status, elapsed time.Duration)
}

// DefaultUserAgent identifies the scanner to probed hosts.
const DefaultUserAgent = "agentready-scanner/1.0 (+https://github.com/openmerchant/agentready)"

func (o Options) withDefaults() Options {
	if o.Client == nil {
		o.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = defaultMaxBodyBytes
	}
	return o
}

// probeFunc checks one protocol on one domain.
type probeFunc func(ctx context.Context, f *fetcher, domain string) protocol.ProbeResult

// registry maps each protocol to its probe, in protocol.All order.
var registry = map[protocol.Protocol]probeFunc{
	protocol.UCP:                probeUCP,
	protocol.ACP:                probeACP,
	protocol.X402:               probeX402,
	protocol.AP2:                probeAP2,
	protocol.MCP:                probeMCP,
	protocol.NLWeb:              probeNLWeb,
	protocol.VisaVIC:            probeVisaVIC,
	protocol.MastercardAgentPay: probeMastercard,
}

// Run probes every protocol on the domain and returns a complete result
// set in canonical order. Page and robots content fetched along the way
// are returned for the signal extractor so nothing is fetched twice.
func Run(ctx context.Context, domain string, opts Options) ([]protocol.ProbeResult, PageData) {
	opts = opts.withDefaults()
	f := newFetcher(domain, opts.Client, opts.UserAgent, opts.PerHostRPS, opts.MaxBodyBytes)

	skip := make(map[protocol.Protocol]bool, len(opts.Skip))
	for _, p := range opts.Skip {
		skip[p] = true
	}

	results := make([]protocol.ProbeResult, len(protocol.All))
	for i, p := range protocol.All {
		if skip[p] || ctx.Err() != nil {
			// Skipped, or the deadline already passed: the safe default.
			results[i] = protocol.NotDetected(p)
			continue
		}
		start := time.Now()
		results[i] = registry[p](ctx, f, domain)
		if opts.Observe != nil {
			opts.Observe(p, results[i].Status, time.Since(start))
		}
	}

	return results, fetchPageData(ctx, f, domain)
}

// PageData is the raw material for the signal extractor.
type PageData struct {
	HomeHTML    string
	RobotsTxt   string
	RobotsFound bool
	Unreachable bool // the home page could not be fetched at the transport level
}

// fetchPageData grabs the home page and robots.txt. Both are optional;
// a missing robots.txt is itself a signal.
func fetchPageData(ctx context.Context, f *fetcher, domain string) PageData {
	var pd PageData
	if res, err := f.get(ctx, "https://"+domain+"/"); err != nil {
		pd.Unreachable = true
	} else if res.status < 400 {
		pd.HomeHTML = string(res.body)
	}
	if res, err := f.get(ctx, "https://"+domain+"/robots.txt"); err == nil && res.status == http.StatusOK {
		pd.RobotsTxt = string(res.body)
		pd.RobotsFound = true
	}
	return pd
}

// jsonEndpointProbe implements the common well-known JSON manifest check:
// a 200 with parseable JSON confirms the protocol, and the manifest's
// capability keys decide functionality.
func jsonEndpointProbe(ctx context.Context, f *fetcher, p protocol.Protocol, urls []string, capsKey string) protocol.ProbeResult {
	for _, url := range urls {
		res, err := f.get(ctx, url)
		if err != nil || res.status != http.StatusOK {
			continue
		}
		var manifest map[string]any
		if err := json.Unmarshal(res.body, &manifest); err != nil || len(manifest) == 0 {
			continue
		}
		r := protocol.ProbeResult{
			Protocol:        p,
			Status:          protocol.StatusConfirmed,
			Confidence:      protocol.ConfidenceHigh,
			DetectionMethod: "well_known_manifest",
			EndpointURL:     url,
			Capabilities:    flattenCaps(manifest, capsKey),
		}
		r.IsFunctional = len(r.Capabilities) > 0
		return r
	}
	return protocol.NotDetected(p)
}

// flattenCaps extracts the manifest's capability section as string pairs.
func flattenCaps(manifest map[string]any, capsKey string) map[string]string {
	section, ok := manifest[capsKey]
	if !ok {
		return nil
	}
	out := make(map[string]string)
	switch v := section.(type) {
	case map[string]any:
		for k, val := range v {
			out[k] = stringify(val)
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out[s] = "true"
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func probeUCP(ctx context.Context, f *fetcher, domain string) protocol.ProbeResult {
	return jsonEndpointProbe(ctx, f, protocol.UCP, []string{
		wellKnown(domain, "ucp"),
		wellKnown(domain, "ucp.json"),
	}, "capabilities")
}

func probeACP(ctx context.Context, f *fetcher, domain string) protocol.ProbeResult {
	return jsonEndpointProbe(ctx, f, protocol.ACP, []string{
		wellKnown(domain, "agentic-commerce"),
		wellKnown(domain, "acp.json"),
	}, "capabilities")
}

func probeMCP(ctx context.Context, f *fetcher, domain string) protocol.ProbeResult {
	r := jsonEndpointProbe(ctx, f, protocol.MCP, []string{
		wellKnown(domain, "mcp.json"),
	}, "tools")
	if r.Status == protocol.StatusConfirmed {
		return r
	}
	// Some servers expose the endpoint itself without a manifest.
	res, err := f.get(ctx, "https://"+domain+"/mcp")
	if err == nil && res.status == http.StatusOK &&
		strings.Contains(res.header.Get("Content-Type"), "json") {
		return protocol.ProbeResult{
			Protocol:        protocol.MCP,
			Status:          protocol.StatusConfirmed,
			Confidence:      protocol.ConfidenceMedium,
			DetectionMethod: "endpoint_response",
			EndpointURL:     "https://" + domain + "/mcp",
		}
	}
	return protocol.NotDetected(protocol.MCP)
}

func probeNLWeb(ctx context.Context, f *fetcher, domain string) protocol.ProbeResult {
	return jsonEndpointProbe(ctx, f, protocol.NLWeb, []string{
		wellKnown(domain, "nlweb.json"),
		wellKnown(domain, "nlweb"),
	}, "endpoints")
}

func probeAP2(ctx context.Context, f *fetcher, domain string) protocol.ProbeResult {
	return jsonEndpointProbe(ctx, f, protocol.AP2, []string{
		wellKnown(domain, "ap2"),
		wellKnown(domain, "agent-payments.json"),
	}, "roles")
}

// probeX402 looks for the HTTP 402 payment challenge: either a dedicated
// discovery document or a 402 status with payment headers on the API root.
func probeX402(ctx context.Context, f *fetcher, domain string) protocol.ProbeResult {
	if r := jsonEndpointProbe(ctx, f, protocol.X402, []string{wellKnown(domain, "x402")}, "accepts"); r.Status == protocol.StatusConfirmed {
		return r
	}
	for _, url := range []string{"https://" + domain + "/api", "https://" + domain + "/"} {
		res, err := f.get(ctx, url)
		if err != nil {
			continue
		}
		if res.status == http.StatusPaymentRequired || res.header.Get("X-Payment-Required") != "" {
			return protocol.ProbeResult{
				Protocol:        protocol.X402,
				Status:          protocol.StatusConfirmed,
				Confidence:      protocol.ConfidenceMedium,
				DetectionMethod: "payment_required_challenge",
				EndpointURL:     url,
				IsFunctional:    res.header.Get("X-Payment-Required") != "",
			}
		}
	}
	return protocol.NotDetected(protocol.X402)
}

// Card-network enrollment shows up as meta markers on the storefront, not
// as a discovery endpoint. Low-cost check against the cached home page.
func probeVisaVIC(ctx context.Context, f *fetcher, domain string) protocol.ProbeResult {
	return metaMarkerProbe(ctx, f, domain, protocol.VisaVIC, "visa-intelligent-commerce")
}

func probeMastercard(ctx context.Context, f *fetcher, domain string) protocol.ProbeResult {
	return metaMarkerProbe(ctx, f, domain, protocol.MastercardAgentPay, "mastercard-agent-pay")
}

func metaMarkerProbe(ctx context.Context, f *fetcher, domain string, p protocol.Protocol, marker string) protocol.ProbeResult {
	res, err := f.get(ctx, "https://"+domain+"/")
	if err != nil || res.status >= 400 {
		return protocol.NotDetected(p)
	}
	if strings.Contains(strings.ToLower(string(res.body)), marker) {
		return protocol.ProbeResult{
			Protocol:        p,
			Status:          protocol.StatusConfirmed,
			Confidence:      protocol.ConfidenceMedium,
			DetectionMethod: "storefront_marker",
			EndpointURL:     "https://" + domain + "/",
		}
	}
	return protocol.NotDetected(p)
}
