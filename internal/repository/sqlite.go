package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/hairlens/internal/models"
)

// DefaultPageSize is used when Page.Size is unset.
const DefaultPageSize = 50

// ErrNotFound is returned when a lookup by ID finds no row.
var ErrNotFound = errors.New("repository: not found")

// SQLiteRepository implements Repository against the libsql/SQLite schema
// created by internal/database/migrations.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps an already-migrated *sql.DB.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// UpsertProduct implements ProductRepository.UpsertProduct.
func (r *SQLiteRepository) UpsertProduct(ctx context.Context, ex models.ProductExtraction, verdict models.QualityVerdict) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("repository: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)

	galleryJSON, _ := json.Marshal(ex.ImageURLsGallery)
	benefitsJSON, _ := json.Marshal(ex.BenefitsClaims)
	inciJSON, _ := json.Marshal(ex.INCIIngredients)
	labelsJSON, _ := json.Marshal(ex.ProductLabels)

	var productID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM products WHERE product_url = ?`, ex.ProductURL).Scan(&productID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		productID = ulid.Make().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO products (
				id, brand_slug, product_url, product_name,
				image_url_main, image_urls_gallery,
				gender_target, product_type_normalized, product_category, hair_relevance_reason,
				description, usage_instructions, benefits_claims, inci_ingredients,
				size_volume, price, currency,
				confidence, extraction_method, product_labels,
				verification_status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			productID, ex.BrandSlug, ex.ProductURL, ex.ProductName,
			nullString(ex.ImageURLMain), string(galleryJSON),
			string(ex.GenderTarget), nullString(string(ex.ProductTypeNormalized)), nullString(ex.ProductCategory), nullString(ex.HairRelevanceReason),
			nullString(ex.Description), nullString(ex.UsageInstructions), string(benefitsJSON), string(inciJSON),
			nullString(ex.SizeVolume), ex.Price, nullString(ex.Currency),
			ex.Confidence, string(ex.ExtractionMethod), string(labelsJSON),
			string(verdict.Status), now, now,
		)
		if err != nil {
			return "", fmt.Errorf("repository: insert product: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("repository: lookup product: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE products SET
				brand_slug = ?, product_name = ?,
				image_url_main = ?, image_urls_gallery = ?,
				gender_target = ?, product_type_normalized = ?, product_category = ?, hair_relevance_reason = ?,
				description = ?, usage_instructions = ?, benefits_claims = ?, inci_ingredients = ?,
				size_volume = ?, price = ?, currency = ?,
				confidence = ?, extraction_method = ?, product_labels = ?,
				verification_status = ?, updated_at = ?
			WHERE id = ?
		`,
			ex.BrandSlug, ex.ProductName,
			nullString(ex.ImageURLMain), string(galleryJSON),
			string(ex.GenderTarget), nullString(string(ex.ProductTypeNormalized)), nullString(ex.ProductCategory), nullString(ex.HairRelevanceReason),
			nullString(ex.Description), nullString(ex.UsageInstructions), string(benefitsJSON), string(inciJSON),
			nullString(ex.SizeVolume), ex.Price, nullString(ex.Currency),
			ex.Confidence, string(ex.ExtractionMethod), string(labelsJSON),
			string(verdict.Status), now,
			productID,
		)
		if err != nil {
			return "", fmt.Errorf("repository: update product: %w", err)
		}
	}

	// Evidence is append-only: every positive value from this extraction is
	// recorded, historical rows are never touched.
	for _, ev := range ex.Evidence {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO product_evidence (
				id, product_id, field_name, source_url, evidence_locator,
				raw_source_text, extraction_method, extracted_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			ulid.Make().String(), productID, ev.FieldName, ev.SourceURL, ev.EvidenceLocator,
			ev.RawSourceText, string(ev.ExtractionMethod), ev.ExtractedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return "", fmt.Errorf("repository: insert evidence: %w", err)
		}
	}
	for _, ev := range ex.ProductLabels.Evidence {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO product_evidence (
				id, product_id, field_name, source_url, evidence_locator,
				raw_source_text, extraction_method, extracted_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			ulid.Make().String(), productID, ev.FieldName, ev.SourceURL, ev.EvidenceLocator,
			ev.RawSourceText, string(ev.ExtractionMethod), ev.ExtractedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return "", fmt.Errorf("repository: insert label evidence: %w", err)
		}
	}

	if verdict.Status == models.StatusQuarantined && verdict.Quarantine != nil {
		q := verdict.Quarantine
		var existingCount int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM quarantine_details WHERE product_id = ?`, productID).Scan(&existingCount); err != nil {
			return "", fmt.Errorf("repository: lookup quarantine detail: %w", err)
		}
		reviewStatus := q.ReviewStatus
		if reviewStatus == "" {
			reviewStatus = models.ReviewPending
		}
		if existingCount > 0 {
			_, err = tx.ExecContext(ctx, `
				UPDATE quarantine_details SET rejection_reason = ?, rejection_code = ?, reviewer_notes = ?
				WHERE product_id = ?
			`, q.RejectionReason, q.RejectionCode, nullString(q.ReviewerNotes), productID)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO quarantine_details (
					product_id, rejection_reason, rejection_code, review_status, reviewer_notes
				) VALUES (?, ?, ?, ?, ?)
			`, productID, q.RejectionReason, q.RejectionCode, string(reviewStatus), nullString(q.ReviewerNotes))
		}
		if err != nil {
			return "", fmt.Errorf("repository: upsert quarantine detail: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `DELETE FROM quarantine_details WHERE product_id = ?`, productID); err != nil {
			return "", fmt.Errorf("repository: clear quarantine detail: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("repository: commit: %w", err)
	}
	return productID, nil
}

func (r *SQLiteRepository) applyFilter(where *strings.Builder, args *[]any, filter ProductFilter) {
	conds := []string{}
	if filter.BrandSlug != "" {
		conds = append(conds, "brand_slug = ?")
		*args = append(*args, filter.BrandSlug)
	}
	if filter.VerifiedOnly {
		conds = append(conds, "verification_status = ?")
		*args = append(*args, string(models.StatusVerifiedINCI))
	}
	if filter.Category != "" {
		conds = append(conds, "product_category = ?")
		*args = append(*args, filter.Category)
	}
	if filter.Search != "" {
		conds = append(conds, "(product_name LIKE ? OR description LIKE ?)")
		pattern := "%" + filter.Search + "%"
		*args = append(*args, pattern, pattern)
	}
	if len(conds) > 0 {
		where.WriteString(" WHERE ")
		where.WriteString(strings.Join(conds, " AND "))
	}
}

const productColumns = `
	id, brand_slug, product_url, product_name,
	image_url_main, image_urls_gallery,
	gender_target, product_type_normalized, product_category, hair_relevance_reason,
	description, usage_instructions, benefits_claims, inci_ingredients,
	size_volume, price, currency,
	confidence, extraction_method, product_labels,
	verification_status`

// GetProducts implements ProductRepository.GetProducts.
func (r *SQLiteRepository) GetProducts(ctx context.Context, filter ProductFilter, page Page) ([]StoredProduct, error) {
	size := page.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	number := page.Number
	if number < 1 {
		number = 1
	}

	var where strings.Builder
	var args []any
	r.applyFilter(&where, &args, filter)

	query := "SELECT " + productColumns + " FROM products" + where.String() + " ORDER BY updated_at DESC LIMIT ? OFFSET ?"
	args = append(args, size, (number-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: query products: %w", err)
	}
	defer rows.Close()

	var out []StoredProduct
	for rows.Next() {
		sp, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// CountProducts implements ProductRepository.CountProducts.
func (r *SQLiteRepository) CountProducts(ctx context.Context, filter ProductFilter) (int, error) {
	var where strings.Builder
	var args []any
	r.applyFilter(&where, &args, filter)

	query := "SELECT COUNT(1) FROM products" + where.String()
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("repository: count products: %w", err)
	}
	return count, nil
}

// GetProductByID implements ProductRepository.GetProductByID.
func (r *SQLiteRepository) GetProductByID(ctx context.Context, id string) (StoredProduct, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	sp, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredProduct{}, ErrNotFound
	}
	if err != nil {
		return StoredProduct{}, err
	}

	evRows, err := r.db.QueryContext(ctx, `
		SELECT field_name, source_url, evidence_locator, raw_source_text, extraction_method, extracted_at
		FROM product_evidence WHERE product_id = ? ORDER BY extracted_at ASC
	`, id)
	if err != nil {
		return StoredProduct{}, fmt.Errorf("repository: query evidence: %w", err)
	}
	defer evRows.Close()
	for evRows.Next() {
		var ev models.Evidence
		var method, extractedAt string
		if err := evRows.Scan(&ev.FieldName, &ev.SourceURL, &ev.EvidenceLocator, &ev.RawSourceText, &method, &extractedAt); err != nil {
			return StoredProduct{}, fmt.Errorf("repository: scan evidence: %w", err)
		}
		ev.ExtractionMethod = models.ExtractionMethod(method)
		ev.ExtractedAt, _ = time.Parse(time.RFC3339, extractedAt)
		sp.Extraction.Evidence = append(sp.Extraction.Evidence, ev)
	}

	if sp.Status == models.StatusQuarantined {
		var q models.QuarantineDetail
		var reviewStatus string
		var reviewerNotes sql.NullString
		err := r.db.QueryRowContext(ctx, `
			SELECT rejection_reason, rejection_code, review_status, reviewer_notes
			FROM quarantine_details WHERE product_id = ?
		`, id).Scan(&q.RejectionReason, &q.RejectionCode, &reviewStatus, &reviewerNotes)
		if err == nil {
			q.ReviewStatus = models.ReviewStatus(reviewStatus)
			q.ReviewerNotes = reviewerNotes.String
			sp.Quarantine = &q
		} else if !errors.Is(err, sql.ErrNoRows) {
			return StoredProduct{}, fmt.Errorf("repository: query quarantine detail: %w", err)
		}
	}

	return sp, nil
}

// UpdateProductLabels implements ProductRepository.UpdateProductLabels.
func (r *SQLiteRepository) UpdateProductLabels(ctx context.Context, productID string, labels models.ProductLabels) error {
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("repository: marshal labels: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE products SET product_labels = ?, updated_at = ? WHERE id = ?`,
		string(labelsJSON), time.Now().UTC().Format(time.RFC3339), productID)
	if err != nil {
		return fmt.Errorf("repository: update labels: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertBrandCoverage implements CoverageRepository.UpsertBrandCoverage.
func (r *SQLiteRepository) UpsertBrandCoverage(ctx context.Context, stats models.BrandCoverage) error {
	reportJSON, _ := json.Marshal(stats.CoverageReport)
	errorsJSON, _ := json.Marshal(stats.Errors)
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO brand_coverage (
			brand_slug, discovered_total, hair_total, kits_total, non_hair_total,
			extracted_total, verified_inci_total, verified_inci_rate,
			catalog_only_total, quarantined_total, status, errors, coverage_report, last_run
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(brand_slug) DO UPDATE SET
			discovered_total = excluded.discovered_total,
			hair_total = excluded.hair_total,
			kits_total = excluded.kits_total,
			non_hair_total = excluded.non_hair_total,
			extracted_total = excluded.extracted_total,
			verified_inci_total = excluded.verified_inci_total,
			verified_inci_rate = excluded.verified_inci_rate,
			catalog_only_total = excluded.catalog_only_total,
			quarantined_total = excluded.quarantined_total,
			status = excluded.status,
			errors = excluded.errors,
			coverage_report = excluded.coverage_report,
			last_run = excluded.last_run
	`,
		stats.BrandSlug, stats.DiscoveredTotal, stats.HairTotal, stats.KitsTotal, stats.NonHairTotal,
		stats.ExtractedTotal, stats.VerifiedINCITotal, stats.VerifiedINCIRate,
		stats.CatalogOnlyTotal, stats.QuarantinedTotal, stats.Status, string(errorsJSON), string(reportJSON), now,
	)
	if err != nil {
		return fmt.Errorf("repository: upsert brand coverage: %w", err)
	}
	return nil
}

const coverageColumns = `
	brand_slug, discovered_total, hair_total, kits_total, non_hair_total,
	extracted_total, verified_inci_total, verified_inci_rate,
	catalog_only_total, quarantined_total, status, errors, coverage_report, last_run`

// GetBrandCoverage implements CoverageRepository.GetBrandCoverage.
func (r *SQLiteRepository) GetBrandCoverage(ctx context.Context, brandSlug string) (models.BrandCoverage, bool, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+coverageColumns+" FROM brand_coverage WHERE brand_slug = ?", brandSlug)
	cov, err := scanCoverage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BrandCoverage{}, false, nil
	}
	if err != nil {
		return models.BrandCoverage{}, false, err
	}
	return cov, true, nil
}

// GetAllBrandCoverages implements CoverageRepository.GetAllBrandCoverages.
func (r *SQLiteRepository) GetAllBrandCoverages(ctx context.Context) ([]models.BrandCoverage, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+coverageColumns+" FROM brand_coverage ORDER BY brand_slug ASC")
	if err != nil {
		return nil, fmt.Errorf("repository: query brand coverages: %w", err)
	}
	defer rows.Close()

	var out []models.BrandCoverage
	for rows.Next() {
		cov, err := scanCoverage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cov)
	}
	return out, rows.Err()
}

// rowScanner abstracts *sql.Row / *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (StoredProduct, error) {
	var sp StoredProduct
	var ex models.ProductExtraction
	var imageMain, productType, category, reason sql.NullString
	var description, usage, sizeVolume, currency sql.NullString
	var gallery, benefits, inci, labels string
	var gender, method, status string

	err := row.Scan(
		&sp.ID, &ex.BrandSlug, &ex.ProductURL, &ex.ProductName,
		&imageMain, &gallery,
		&gender, &productType, &category, &reason,
		&description, &usage, &benefits, &inci,
		&sizeVolume, &ex.Price, &currency,
		&ex.Confidence, &method, &labels,
		&status,
	)
	if err != nil {
		return StoredProduct{}, err
	}

	ex.ImageURLMain = imageMain.String
	ex.GenderTarget = models.GenderTarget(gender)
	ex.ProductTypeNormalized = models.ProductType(productType.String)
	ex.ProductCategory = category.String
	ex.HairRelevanceReason = reason.String
	ex.Description = description.String
	ex.UsageInstructions = usage.String
	ex.SizeVolume = sizeVolume.String
	ex.Currency = currency.String
	ex.ExtractionMethod = models.ExtractionMethod(method)

	_ = json.Unmarshal([]byte(gallery), &ex.ImageURLsGallery)
	_ = json.Unmarshal([]byte(benefits), &ex.BenefitsClaims)
	_ = json.Unmarshal([]byte(inci), &ex.INCIIngredients)
	_ = json.Unmarshal([]byte(labels), &ex.ProductLabels)

	sp.Extraction = ex
	sp.Status = models.VerificationStatus(status)
	return sp, nil
}

func scanCoverage(row rowScanner) (models.BrandCoverage, error) {
	var cov models.BrandCoverage
	var errorsJSON, reportJSON string
	var lastRun string

	err := row.Scan(
		&cov.BrandSlug, &cov.DiscoveredTotal, &cov.HairTotal, &cov.KitsTotal, &cov.NonHairTotal,
		&cov.ExtractedTotal, &cov.VerifiedINCITotal, &cov.VerifiedINCIRate,
		&cov.CatalogOnlyTotal, &cov.QuarantinedTotal, &cov.Status, &errorsJSON, &reportJSON, &lastRun,
	)
	if err != nil {
		return models.BrandCoverage{}, err
	}
	_ = json.Unmarshal([]byte(errorsJSON), &cov.Errors)
	_ = json.Unmarshal([]byte(reportJSON), &cov.CoverageReport)
	cov.LastRun, _ = time.Parse(time.RFC3339, lastRun)
	return cov, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
