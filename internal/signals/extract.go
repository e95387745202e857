package signals

import (
	"encoding/json"
	"strings"

	"golang.org/x/net/html"
)

// Platform name constants as reported in Bundle.EcommercePlatform.
const (
	PlatformShopify     = "shopify"
	PlatformWooCommerce = "woocommerce"
	PlatformEtsy        = "etsy"
	PlatformBigCommerce = "bigcommerce"
	PlatformMagento     = "magento"
	PlatformSquarespace = "squarespace"
)

// Payment processor name constants as reported in Bundle.PaymentProcessors.
const (
	ProcessorStripe    = "stripe"
	ProcessorPayPal    = "paypal"
	ProcessorAdyen     = "adyen"
	ProcessorSquare    = "square"
	ProcessorBraintree = "braintree"
	ProcessorCoinbase  = "coinbase_commerce"
	ProcessorKlarna    = "klarna"
)

// platformMarkers maps asset/markup substrings to platform identities.
// First match wins, checked in order.
var platformMarkers = []struct {
	marker   string
	platform string
}{
	{"cdn.shopify.com", PlatformShopify},
	{"shopify.theme", PlatformShopify},
	{"x-shopid", PlatformShopify},
	{"wp-content/plugins/woocommerce", PlatformWooCommerce},
	{"woocommerce-page", PlatformWooCommerce},
	{"etsystatic.com", PlatformEtsy},
	{"cdn11.bigcommerce.com", PlatformBigCommerce},
	{"mage/cookies", PlatformMagento},
	{"magento_", PlatformMagento},
	{"static1.squarespace.com", PlatformSquarespace},
}

// processorMarkers maps script/markup substrings to payment processors.
var processorMarkers = []struct {
	marker    string
	processor string
}{
	{"js.stripe.com", ProcessorStripe},
	{"checkout.stripe.com", ProcessorStripe},
	{"paypal.com/sdk", ProcessorPayPal},
	{"paypalobjects.com", ProcessorPayPal},
	{"checkoutshopper-live.adyen.com", ProcessorAdyen},
	{"adyen.com/checkout", ProcessorAdyen},
	{"web.squarecdn.com", ProcessorSquare},
	{"js.braintreegateway.com", ProcessorBraintree},
	{"commerce.coinbase.com", ProcessorCoinbase},
	{"x.klarnacdn.net", ProcessorKlarna},
}

var captchaMarkers = []string{
	"google.com/recaptcha",
	"hcaptcha.com/1/api.js",
	"challenges.cloudflare.com/turnstile",
	"cf-turnstile",
}

// ExtractHTML derives the signal bundle, structured-data coverage, and
// page-level accessibility flags from one fetched page. Robots fields of
// the returned Accessibility stay at their defaults; ParseRobots fills
// them from the separate robots.txt fetch.
//
// Extraction is best-effort: markup the parser cannot make sense of
// contributes nothing, it never fails.
func ExtractHTML(content string) (Bundle, StructuredData, Accessibility) {
	var bundle Bundle
	var sd StructuredData
	var acc Accessibility

	lower := strings.ToLower(content)

	for _, m := range platformMarkers {
		if strings.Contains(lower, m.marker) {
			bundle.EcommercePlatform = m.platform
			break
		}
	}
	for _, m := range processorMarkers {
		if strings.Contains(lower, m.marker) && !bundle.HasProcessor(m.processor) {
			bundle.PaymentProcessors = append(bundle.PaymentProcessors, m.processor)
		}
	}
	for _, m := range captchaMarkers {
		if strings.Contains(lower, m) {
			acc.HasCaptcha = true
			break
		}
	}

	acc.PaymentProcessors = bundle.PaymentProcessors
	acc.SupportsDigitalWallets = strings.Contains(lower, "apple-pay") ||
		strings.Contains(lower, "applepay") || strings.Contains(lower, "google pay") ||
		strings.Contains(lower, "googlepay")
	acc.SupportsCrypto = bundle.HasProcessor(ProcessorCoinbase) ||
		strings.Contains(lower, "bitpay.com")
	acc.SupportsPix = strings.Contains(lower, "pagamento via pix") || strings.Contains(lower, `"pix"`)
	acc.SupportsSpei = strings.Contains(lower, "spei")
	acc.GuestCheckoutAvailable = strings.Contains(lower, "guest checkout") ||
		strings.Contains(lower, "checkout as guest") || strings.Contains(lower, "continue as guest")
	acc.RequiresAccount = !acc.GuestCheckoutAvailable &&
		(strings.Contains(lower, "sign in to checkout") || strings.Contains(lower, "login to checkout") ||
			strings.Contains(lower, "account required"))

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		// Substring signals above still stand; structured data needs a tree.
		return bundle, sd, acc
	}

	var textLen int
	var noscriptWarns bool
	walk(doc, func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			textLen += len(strings.TrimSpace(n.Data))
		case html.ElementNode:
			switch n.Data {
			case "script":
				if strings.EqualFold(attr(n, "type"), "application/ld+json") && n.FirstChild != nil {
					parseJSONLD(n.FirstChild.Data, &bundle, &sd)
				}
			case "meta":
				if strings.HasPrefix(strings.ToLower(attr(n, "property")), "og:") {
					sd.HasOpenGraph = true
				}
			case "noscript":
				if n.FirstChild != nil && strings.Contains(strings.ToLower(textContent(n)), "javascript") {
					noscriptWarns = true
				}
			case "a":
				classifyLink(attr(n, "href"), &bundle.HTML)
			}
			if hasAttr(n, "itemscope") || attr(n, "itemtype") != "" {
				sd.HasMicrodata = true
				if strings.Contains(strings.ToLower(attr(n, "itemtype")), "schema.org/product") {
					bundle.HasSchemaProduct = true
				}
			}
		}
	})

	// App-shell pages render nothing without a JS runtime: a framework mount
	// point plus near-empty body text, or an explicit noscript warning.
	appShell := strings.Contains(lower, `id="root"`) || strings.Contains(lower, `id="__next"`) ||
		strings.Contains(lower, `id="app"`)
	acc.RequiresJavaScript = noscriptWarns || (appShell && textLen < 200)

	return bundle, sd, acc
}

// classifyLink updates coarse HTML signals from one anchor href.
func classifyLink(href string, h *HTMLSignals) {
	href = strings.ToLower(href)
	switch {
	case strings.Contains(href, "/api") && (strings.Contains(href, "doc") || strings.Contains(href, "developer")),
		strings.Contains(href, "developers."), strings.Contains(href, "/docs/api"):
		h.HasAPIDocs = true
	case strings.Contains(href, "/pricing"):
		h.HasPricingPage = true
	case strings.Contains(href, "/blog"):
		h.HasBlog = true
	case strings.Contains(href, "/signup"), strings.Contains(href, "/register"),
		strings.Contains(href, "/sign-up"):
		h.HasSignup = true
	}
}

// parseJSONLD inspects one JSON-LD block for Product, Offer, and
// Organization nodes and accumulates coverage counters. Invalid JSON is
// ignored.
func parseJSONLD(raw string, bundle *Bundle, sd *StructuredData) {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return
	}
	sd.HasJSONLD = true
	walkJSONLD(doc, bundle, sd)
}

func walkJSONLD(node any, bundle *Bundle, sd *StructuredData) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			walkJSONLD(item, bundle, sd)
		}
	case map[string]any:
		switch typeOf(v) {
		case "product":
			bundle.HasSchemaProduct = true
			bundle.ProductCount++
			countProductCoverage(v, sd)
		case "offer", "aggregateoffer":
			bundle.HasSchemaOffer = true
		case "organization":
			sd.HasSchemaOrganization = true
		}
		if graph, ok := v["@graph"]; ok {
			walkJSONLD(graph, bundle, sd)
		}
		if offers, ok := v["offers"]; ok {
			walkJSONLD(offers, bundle, sd)
		}
	}
}

// countProductCoverage bumps the products-with-* counters for one Product node.
func countProductCoverage(product map[string]any, sd *StructuredData) {
	if _, ok := product["sku"]; ok {
		sd.ProductsWithSKU++
	}
	if _, ok := product["image"]; ok {
		sd.ProductsWithImage++
	}
	offers, ok := product["offers"]
	if !ok {
		return
	}
	offerList, ok := offers.([]any)
	if !ok {
		offerList = []any{offers}
	}
	var hasPrice, hasAvail bool
	for _, o := range offerList {
		om, ok := o.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := om["price"]; ok {
			hasPrice = true
		}
		if _, ok := om["availability"]; ok {
			hasAvail = true
		}
	}
	if hasPrice {
		sd.ProductsWithPrice++
	}
	if hasAvail {
		sd.ProductsWithAvail++
	}
}

func typeOf(m map[string]any) string {
	switch t := m["@type"].(type) {
	case string:
		return strings.ToLower(t)
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok {
				return strings.ToLower(s)
			}
		}
	}
	return ""
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
