// Package repository defines the storage-agnostic contract the coverage
// engine persists through. All write operations are idempotent with
// respect to the unique product_url.
package repository

import (
	"context"

	"github.com/jmylchreest/hairlens/internal/models"
)

// ProductFilter narrows GetProducts/CountProducts.
type ProductFilter struct {
	BrandSlug    string
	VerifiedOnly bool
	Search       string
	Category     string
}

// Page is a 1-based page of results; Size <= 0 means "use the repository default".
type Page struct {
	Number int
	Size   int
}

// StoredProduct bundles a persisted ProductExtraction with its database
// identity and gate verdict, as returned by reads.
type StoredProduct struct {
	ID         string
	Extraction models.ProductExtraction
	Status     models.VerificationStatus
	Quarantine *models.QuarantineDetail
}

// ProductRepository is the product persistence contract.
type ProductRepository interface {
	// UpsertProduct creates or overwrites a product row by product_url. On
	// insert it appends all evidence and creates a QuarantineDetail when the
	// verdict is quarantined. On update it overwrites non-identity fields,
	// appends new evidence (never deleting historical evidence), and
	// upserts the quarantine row by product_id.
	UpsertProduct(ctx context.Context, extraction models.ProductExtraction, verdict models.QualityVerdict) (productID string, err error)

	GetProducts(ctx context.Context, filter ProductFilter, page Page) ([]StoredProduct, error)
	CountProducts(ctx context.Context, filter ProductFilter) (int, error)
	GetProductByID(ctx context.Context, id string) (StoredProduct, error)

	// UpdateProductLabels overwrites the product_labels JSON column for a
	// product without touching any other field.
	UpdateProductLabels(ctx context.Context, productID string, labels models.ProductLabels) error
}

// CoverageRepository is the per-brand rollup half of the contract.
type CoverageRepository interface {
	UpsertBrandCoverage(ctx context.Context, stats models.BrandCoverage) error
	GetBrandCoverage(ctx context.Context, brandSlug string) (models.BrandCoverage, bool, error)
	GetAllBrandCoverages(ctx context.Context) ([]models.BrandCoverage, error)
}

// Repository is the full persistence surface the coverage engine depends on.
type Repository interface {
	ProductRepository
	CoverageRepository
}
