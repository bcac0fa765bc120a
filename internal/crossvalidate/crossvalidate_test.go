package crossvalidate

import (
	"testing"

	"github.com/jmylchreest/hairlens/internal/models"
)

func hasIssueCode(report models.FieldValidationReport, code string) bool {
	for _, i := range report.Issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

func TestValidate_CleanProduct(t *testing.T) {
	report := Validate(Input{
		ProductName:           "Hydrating Shampoo",
		INCIIngredients:       []string{"aqua", "sodium laureth sulfate", "glycerin", "parfum", "citric acid"},
		Description:           "A gentle shampoo that cleanses without stripping natural oils.",
		UsageInstructions:     "Apply to wet hair, massage into a lather, then rinse thoroughly.",
		BenefitsClaims:        []string{"Cleanses gently", "Adds shine"},
		Price:                 29.90,
		HasPrice:              true,
		Currency:              "BRL",
		ImageURLMain:          "https://example.com/shampoo.jpg",
		ProductTypeNormalized: "shampoo",
	})
	if report.Score != 100 {
		t.Errorf("expected score 100 for clean product, got %d (issues: %+v)", report.Score, report.Issues)
	}
	if report.HasErrors() {
		t.Errorf("expected no errors, got %+v", report.Issues)
	}
}

func TestValidate_INCIIsMarketing(t *testing.T) {
	report := Validate(Input{
		ProductName:     "Color Shampoo",
		INCIIngredients: []string{"ideal para cabelos coloridos", "maior durabilidade", "cor vibrante"},
	})
	if !hasIssueCode(report, "inci_is_marketing") {
		t.Errorf("expected inci_is_marketing issue, got %+v", report.Issues)
	}
	if !report.HasErrors() {
		t.Error("expected an error-severity issue")
	}
}

func TestValidate_INCIIsUsage(t *testing.T) {
	ingredients := make([]string, 0, 6)
	for i := 0; i < 4; i++ {
		ingredients = append(ingredients, "aplique e massageie o couro cabeludo")
	}
	ingredients = append(ingredients, "aqua", "glycerin")
	report := Validate(Input{ProductName: "Test", INCIIngredients: ingredients})
	if !hasIssueCode(report, "inci_is_usage") {
		t.Errorf("expected inci_is_usage issue, got %+v", report.Issues)
	}
}

func TestValidate_DescriptionIsINCIList(t *testing.T) {
	desc := "aqua, glycerin, parfum, citric acid, sodium chloride, dimethicone, " +
		"tocopherol, phenoxyethanol, cetearyl alcohol, stearyl alcohol, cetrimonium chloride"
	report := Validate(Input{ProductName: "Test", Description: desc})
	if !hasIssueCode(report, "desc_is_inci_list") {
		t.Errorf("expected desc_is_inci_list issue, got %+v", report.Issues)
	}
}

func TestValidate_UsageIsDescription(t *testing.T) {
	usage := "This rich formula deeply nourishes damaged hair strands and restores natural shine and softness over time."
	report := Validate(Input{ProductName: "Test", UsageInstructions: usage})
	if !hasIssueCode(report, "usage_is_description") {
		t.Errorf("expected usage_is_description issue, got %+v", report.Issues)
	}
}

func TestValidate_PriceInvalid(t *testing.T) {
	report := Validate(Input{ProductName: "Test", Price: -5, HasPrice: true, Currency: "BRL"})
	if !hasIssueCode(report, "price_invalid") {
		t.Errorf("expected price_invalid issue, got %+v", report.Issues)
	}
}

func TestValidate_PriceNoCurrency(t *testing.T) {
	report := Validate(Input{ProductName: "Test", Price: 50, HasPrice: true})
	if !hasIssueCode(report, "price_no_currency") {
		t.Errorf("expected price_no_currency issue, got %+v", report.Issues)
	}
}

func TestValidate_RequiredFieldsMissing(t *testing.T) {
	report := Validate(Input{})
	if !hasIssueCode(report, "name_missing") {
		t.Errorf("expected name_missing issue, got %+v", report.Issues)
	}
	if !hasIssueCode(report, "image_missing") {
		t.Errorf("expected image_missing issue, got %+v", report.Issues)
	}
	if !hasIssueCode(report, "type_missing") {
		t.Errorf("expected type_missing issue, got %+v", report.Issues)
	}
}

func TestValidate_ScoreDeduction(t *testing.T) {
	report := Validate(Input{}) // missing name (error -20), image (warning -5), type (info 0)
	want := 100 - 20 - 5
	if report.Score != want {
		t.Errorf("expected score %d, got %d (issues: %+v)", want, report.Score, report.Issues)
	}
}

func TestValidate_ScoreNeverNegative(t *testing.T) {
	ingredients := []string{"ideal para", "maior durabilidade", "cor vibrante"}
	report := Validate(Input{
		INCIIngredients: ingredients,
		Price:           -100,
		HasPrice:        true,
	})
	if report.Score < 0 {
		t.Errorf("score must never be negative, got %d", report.Score)
	}
}
