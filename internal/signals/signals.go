// Package signals defines the page-level signal bundles consumed by the
// enrichment, classification, and scoring stages, plus the extractors that
// build them from fetched HTML and robots.txt content.
//
// Every field is an explicit default-valued field: a signal the extractor
// could not determine is false or zero, never a missing-data error. The
// pipeline treats degraded bundles as valid input.
package signals

// Bundle carries commerce-platform, payment-processor, and page structure
// signals for one domain. Input to the eligibility enricher and the
// business model classifier.
type Bundle struct {
	EcommercePlatform string      `json:"ecommerce_platform,omitempty"`
	PaymentProcessors []string    `json:"payment_processors,omitempty"`
	MerchantCategory  string      `json:"merchant_category,omitempty"`
	HTML              HTMLSignals `json:"html_signals"`
	HasSchemaProduct  bool        `json:"has_schema_product"`
	HasSchemaOffer    bool        `json:"has_schema_offer"`
	ProductCount      int         `json:"product_count"`
}

// HasProcessor reports whether name appears in the detected processor set.
func (b *Bundle) HasProcessor(name string) bool {
	for _, p := range b.PaymentProcessors {
		if p == name {
			return true
		}
	}
	return false
}

// HTMLSignals are coarse page-structure flags used for business model
// classification.
type HTMLSignals struct {
	HasAPIDocs     bool `json:"has_api_docs"`
	HasPricingPage bool `json:"has_pricing_page"`
	HasBlog        bool `json:"has_blog"`
	HasSignup      bool `json:"has_signup"`
}

// StructuredData summarizes machine-readable markup coverage. The
// products-with-* counters are bounded by Bundle.ProductCount.
type StructuredData struct {
	HasJSONLD             bool `json:"has_json_ld"`
	HasOpenGraph          bool `json:"has_open_graph"`
	HasMicrodata          bool `json:"has_microdata"`
	HasSchemaOrganization bool `json:"has_schema_organization"`
	ProductsWithPrice     int  `json:"products_with_price"`
	ProductsWithAvail     int  `json:"products_with_availability"`
	ProductsWithSKU       int  `json:"products_with_sku"`
	ProductsWithImage     int  `json:"products_with_image"`
}

// Accessibility captures how reachable the site is for commerce agents:
// robots policy, friction on the page, and checkout characteristics.
type Accessibility struct {
	RobotsTxtExists        bool     `json:"robots_txt_exists"`
	RobotsBlocksGPTBot     bool     `json:"robots_blocks_gptbot"`
	RobotsBlocksClaudeBot  bool     `json:"robots_blocks_claudebot"`
	RobotsBlocksAllBots    bool     `json:"robots_blocks_all_bots"`
	RobotsAllowsAgents     bool     `json:"robots_allows_agents"`
	HasCaptcha             bool     `json:"has_captcha"`
	RequiresJavaScript     bool     `json:"requires_javascript"`
	GuestCheckoutAvailable bool     `json:"guest_checkout_available"`
	RequiresAccount        bool     `json:"requires_account"`
	CheckoutStepsCount     int      `json:"checkout_steps_count,omitempty"`
	PaymentProcessors      []string `json:"payment_processors,omitempty"`
	SupportsDigitalWallets bool     `json:"supports_digital_wallets"`
	SupportsCrypto         bool     `json:"supports_crypto"`
	SupportsPix            bool     `json:"supports_pix"`
	SupportsSpei           bool     `json:"supports_spei"`
}
