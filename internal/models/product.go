package models

// ProductLabels is the label engine's output, stored as JSON on the product
// row and returned as a value type so it composes cleanly with the rest of
// the extraction pipeline.
type ProductLabels struct {
	Detected   []string   `json:"detected"`
	Inferred   []string   `json:"inferred"`
	Confidence float64    `json:"confidence"`
	Sources    []string   `json:"sources"`
	Evidence   []Evidence `json:"evidence"`
}

// ProductExtraction is the core entity of the pipeline.
type ProductExtraction struct {
	// Identity
	BrandSlug   string `json:"brand_slug"`
	ProductURL  string `json:"product_url"`
	ProductName string `json:"product_name"`

	// Media
	ImageURLMain     string   `json:"image_url_main,omitempty"`
	ImageURLsGallery []string `json:"image_urls_gallery,omitempty"`

	// Classification
	GenderTarget          GenderTarget `json:"gender_target"`
	ProductTypeNormalized ProductType  `json:"product_type_normalized,omitempty"`
	ProductCategory       string       `json:"product_category,omitempty"`
	HairRelevanceReason   string       `json:"hair_relevance_reason,omitempty"`

	// Content
	Description       string   `json:"description,omitempty"`
	UsageInstructions string   `json:"usage_instructions,omitempty"`
	BenefitsClaims    []string `json:"benefits_claims,omitempty"`
	INCIIngredients   []string `json:"inci_ingredients,omitempty"`
	SizeVolume        string   `json:"size_volume,omitempty"`
	Price             float64  `json:"price,omitempty"`
	Currency          string   `json:"currency,omitempty"`

	// Quality
	Confidence       float64          `json:"confidence"`
	ExtractionMethod ExtractionMethod `json:"extraction_method,omitempty"`
	ProductLabels    ProductLabels    `json:"product_labels"`

	// Provenance
	Evidence []Evidence `json:"evidence"`
}

// QuarantineDetail owns the rejection context for a quarantined product.
// 1-to-1 with ProductExtraction, keyed by ProductID in storage.
type QuarantineDetail struct {
	RejectionReason string       `json:"rejection_reason"`
	RejectionCode   string       `json:"rejection_code"`
	ReviewStatus    ReviewStatus `json:"review_status"`
	ReviewerNotes   string       `json:"reviewer_notes,omitempty"`
}

// QualityVerdict bundles the quality gate's output for one product.
type QualityVerdict struct {
	Status     VerificationStatus
	Quarantine *QuarantineDetail // non-nil only when Status == StatusQuarantined
}
