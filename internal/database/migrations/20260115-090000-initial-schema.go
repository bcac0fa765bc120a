package migrations

func init() {
	Register(Migration{
		Timestamp:   "20260115-090000",
		Description: "create products, product_evidence, quarantine_details, brand_coverage tables",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS products (
				id TEXT PRIMARY KEY,
				brand_slug TEXT NOT NULL,
				product_url TEXT NOT NULL UNIQUE,
				product_name TEXT NOT NULL,
				image_url_main TEXT,
				image_urls_gallery TEXT NOT NULL DEFAULT '[]',
				gender_target TEXT NOT NULL DEFAULT 'unknown',
				product_type_normalized TEXT,
				product_category TEXT,
				hair_relevance_reason TEXT,
				description TEXT,
				usage_instructions TEXT,
				benefits_claims TEXT NOT NULL DEFAULT '[]',
				inci_ingredients TEXT NOT NULL DEFAULT '[]',
				size_volume TEXT,
				price REAL NOT NULL DEFAULT 0,
				currency TEXT,
				confidence REAL NOT NULL DEFAULT 0,
				extraction_method TEXT,
				product_labels TEXT NOT NULL DEFAULT '{}',
				verification_status TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_products_brand_slug ON products(brand_slug)`,
			`CREATE INDEX IF NOT EXISTS idx_products_verification_status ON products(verification_status)`,
			`CREATE INDEX IF NOT EXISTS idx_products_category ON products(product_category)`,

			`CREATE TABLE IF NOT EXISTS product_evidence (
				id TEXT PRIMARY KEY,
				product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
				field_name TEXT NOT NULL,
				source_url TEXT NOT NULL,
				evidence_locator TEXT NOT NULL,
				raw_source_text TEXT NOT NULL,
				extraction_method TEXT NOT NULL,
				extracted_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_product_evidence_product_id ON product_evidence(product_id)`,
			`CREATE INDEX IF NOT EXISTS idx_product_evidence_field_name ON product_evidence(field_name)`,

			`CREATE TABLE IF NOT EXISTS quarantine_details (
				product_id TEXT PRIMARY KEY REFERENCES products(id) ON DELETE CASCADE,
				rejection_reason TEXT NOT NULL,
				rejection_code TEXT NOT NULL,
				review_status TEXT NOT NULL DEFAULT 'pending',
				reviewer_notes TEXT
			)`,

			`CREATE TABLE IF NOT EXISTS brand_coverage (
				brand_slug TEXT PRIMARY KEY,
				discovered_total INTEGER NOT NULL DEFAULT 0,
				hair_total INTEGER NOT NULL DEFAULT 0,
				kits_total INTEGER NOT NULL DEFAULT 0,
				non_hair_total INTEGER NOT NULL DEFAULT 0,
				extracted_total INTEGER NOT NULL DEFAULT 0,
				verified_inci_total INTEGER NOT NULL DEFAULT 0,
				verified_inci_rate REAL NOT NULL DEFAULT 0,
				catalog_only_total INTEGER NOT NULL DEFAULT 0,
				quarantined_total INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL DEFAULT 'completed',
				errors TEXT NOT NULL DEFAULT '[]',
				coverage_report TEXT NOT NULL DEFAULT '{}',
				last_run TEXT NOT NULL
			)`,
		},
	})
}
