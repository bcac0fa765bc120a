package ingredient

import "testing"

func TestCleanText(t *testing.T) {
	raw := "Aqua, Sodium Laureth Sulfate, Cocamidopropyl Betaine. Modo de uso: aplique no cabelo molhado."
	got := CleanText(raw)
	want := "Aqua, Sodium Laureth Sulfate, Cocamidopropyl Betaine."
	if got != want {
		t.Errorf("CleanText = %q, want %q", got, want)
	}
}

func TestCleanTextStripsGarbage(t *testing.T) {
	raw := "Aqua, Glycerin, Panthenol. Click here to see more."
	got := CleanText(raw)
	if got == raw {
		t.Error("expected garbage phrases to be stripped")
	}
}

func TestExtractAndValidate(t *testing.T) {
	raw := "Aqua, Sodium Laureth Sulfate, Cocamidopropyl Betaine, Glycerin, Panthenol, Parfum"
	result := ExtractAndValidate(raw)
	if !result.Valid {
		t.Fatalf("expected valid result, got rejection: %s", result.RejectionReason)
	}
	if len(result.Cleaned) != 6 {
		t.Errorf("expected 6 cleaned ingredients, got %d: %v", len(result.Cleaned), result.Cleaned)
	}
}

func TestExtractAndValidateEmpty(t *testing.T) {
	result := ExtractAndValidate("   ")
	if result.Valid || result.RejectionReason != "no_inci_text" {
		t.Errorf("expected no_inci_text rejection, got %+v", result)
	}
}

func TestValidateListMinCount(t *testing.T) {
	result := ValidateList([]string{"Aqua", "Glycerin"})
	if result.Valid {
		t.Error("expected rejection for too few ingredients")
	}
	if result.RejectionReason != "min_ingredients: only 2 valid terms" {
		t.Errorf("unexpected rejection reason: %s", result.RejectionReason)
	}
}

func TestValidateListDedup(t *testing.T) {
	result := ValidateList([]string{"Aqua", "aqua", "Glycerin", "Panthenol", "Parfum", "Sodium Chloride", "GLYCERIN"})
	if !result.Valid {
		t.Fatalf("expected valid, got: %s", result.RejectionReason)
	}
	if len(result.Cleaned) != 5 {
		t.Errorf("expected dedup down to 5, got %d: %v", len(result.Cleaned), result.Cleaned)
	}
	if len(result.Removed) != 2 {
		t.Errorf("expected 2 duplicates removed, got %d", len(result.Removed))
	}
}

func TestValidateListRejectsVerboseSentences(t *testing.T) {
	result := ValidateList([]string{
		"Aqua", "Glycerin", "Panthenol", "Parfum", "Sodium Chloride",
		"Apply generously to wet hair and massage thoroughly before rinsing",
	})
	if !result.Valid {
		t.Fatalf("expected valid after dropping the sentence, got: %s", result.RejectionReason)
	}
	for _, c := range result.Cleaned {
		if c == "Apply generously to wet hair and massage thoroughly before rinsing" {
			t.Error("expected the instruction sentence to be removed, not cleaned")
		}
	}
}

func TestValidateListDetectsRepetition(t *testing.T) {
	ingredients := []string{
		"Aqua", "Glycerin", "Panthenol",
		"Aqua", "Glycerin", "Panthenol",
	}
	result := ValidateList(ingredients)
	if result.Valid || result.RejectionReason != "repetition_detected" {
		t.Errorf("expected repetition_detected, got %+v", result)
	}
}

func TestValidateListDetectsConcatenationViaDuplicateAqua(t *testing.T) {
	ingredients := []string{
		"Aqua", "Glycerin", "Panthenol", "Parfum",
		"Aqua", "Sodium Chloride", "Cocamidopropyl Betaine",
	}
	result := ValidateList(ingredients)
	if result.Valid || result.RejectionReason != "concat_detected" {
		t.Errorf("expected concat_detected, got %+v", result)
	}
}

func TestValidateListDetectsConcatenationViaProductHeading(t *testing.T) {
	ingredients := []string{
		"Aqua", "Glycerin", "Panthenol", "Parfum", "Sodium Chloride",
		"Shampoo: Aqua, Sodium Laureth Sulfate",
	}
	result := ValidateList(ingredients)
	if result.Valid || result.RejectionReason != "concat_detected" {
		t.Errorf("expected concat_detected, got %+v", result)
	}
}

func TestSplitIngredientsPrefersBullets(t *testing.T) {
	text := "Aqua● Glycerin, still part of glycerin entry● Panthenol"
	parts := splitIngredients(text)
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts split on bullets, got %d: %v", len(parts), parts)
	}
}
