package label

import "testing"

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return e
}

func TestWordBoundaryMatch(t *testing.T) {
	cases := []struct {
		name string
		text string
		kw   string
		want bool
	}{
		{"exact word", "a vegan product", "vegan", true},
		{"suffix false positive", "join our veganuary challenge", "vegan", false},
		{"prefix false positive", "biofilm protection", "bio", false},
		{"hyphenated keyword matches", "sulfate-free formula", "sulfate-free", true},
		{"keyword at start", "vegan and cruelty free", "vegan", true},
		{"keyword at end", "this product is vegan", "vegan", true},
		{"punctuation boundary", "100% vegan!", "vegan", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := wordBoundaryMatch(tc.text, tc.kw)
			if got != tc.want {
				t.Errorf("wordBoundaryMatch(%q, %q) = %v, want %v", tc.text, tc.kw, got, tc.want)
			}
		})
	}
}

func TestDetect_TextKeywordMatch(t *testing.T) {
	e := mustEngine(t)
	res := e.Detect(Input{
		Description: "A vegan shampoo that protects against probiotic biofilm buildup",
	})
	if !contains(res.Detected, "vegan") {
		t.Errorf("expected vegan detected, got %v", res.Detected)
	}
	if contains(res.Detected, "organic") {
		t.Errorf("organic should not match biofilm, got %v", res.Detected)
	}
	for _, ev := range res.Evidence {
		if ev.ExtractedAt.IsZero() {
			t.Errorf("expected evidence %+v to carry a non-zero ExtractedAt", ev)
		}
	}
}

func TestDetect_VeganuaryDoesNotMatch(t *testing.T) {
	e := mustEngine(t)
	res := e.Detect(Input{Description: "Join veganuary this year"})
	if contains(res.Detected, "vegan") {
		t.Errorf("veganuary should not trigger vegan seal, got %v", res.Detected)
	}
}

func TestDetect_INCIInference_SiliconeFree(t *testing.T) {
	e := mustEngine(t)
	res := e.Detect(Input{
		Description:     "A gentle cleansing shampoo",
		INCIIngredients: []string{"aqua", "sodium chloride", "parfum"},
	})
	if !contains(res.Inferred, "silicone_free") {
		t.Errorf("expected silicone_free inferred, got %v", res.Inferred)
	}
}

func TestDetect_INCIInference_SiliconePresent(t *testing.T) {
	e := mustEngine(t)
	res := e.Detect(Input{
		Description:     "A smoothing conditioner",
		INCIIngredients: []string{"aqua", "dimethicone", "parfum"},
	})
	if contains(res.Inferred, "silicone_free") {
		t.Errorf("silicone_free should not be inferred when dimethicone present, got %v", res.Inferred)
	}
}

func TestDetect_CINumberTriggersDye(t *testing.T) {
	e := mustEngine(t)
	res := e.Detect(Input{
		Description:     "A bright color shampoo",
		INCIIngredients: []string{"aqua", "CI 15985", "parfum"},
	})
	if contains(res.Inferred, "dye_free") {
		t.Errorf("dye_free should not be inferred when a CI number is present, got %v", res.Inferred)
	}
}

func TestDetect_DetectedPreemptsInference(t *testing.T) {
	e := mustEngine(t)
	res := e.Detect(Input{
		Description:     "Silicone free formula, sem silicone",
		INCIIngredients: []string{"aqua", "sodium chloride"},
	})
	if !contains(res.Detected, "silicone_free") {
		t.Errorf("expected silicone_free detected, got %v", res.Detected)
	}
	if contains(res.Inferred, "silicone_free") {
		t.Errorf("silicone_free should not also appear in inferred once detected, got %v", res.Inferred)
	}
}

func TestConfidenceFor(t *testing.T) {
	cases := []struct {
		name     string
		detected []string
		inferred []string
		want     float64
	}{
		{"neither", nil, nil, 0.0},
		{"detected only", []string{"vegan"}, nil, 0.8},
		{"inferred only", nil, []string{"silicone_free"}, 0.5},
		{"both", []string{"vegan"}, []string{"silicone_free"}, 0.9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := confidenceFor(tc.detected, tc.inferred)
			if got != tc.want {
				t.Errorf("confidenceFor(%v, %v) = %v, want %v", tc.detected, tc.inferred, got, tc.want)
			}
		})
	}
}

func TestDetect_ImageScanFallback(t *testing.T) {
	e := mustEngine(t)
	res := e.Detect(Input{
		Description: "A gentle shampoo for everyday use",
		ImageTexts:  []string{"cruelty-free seal badge"},
	})
	if !contains(res.Detected, "cruelty_free") {
		t.Errorf("expected cruelty_free detected via image scan, got %v", res.Detected)
	}
	if !contains(res.Sources, "html_img_element") {
		t.Errorf("expected html_img_element source, got %v", res.Sources)
	}
}

func contains(list []string, item string) bool {
	for _, s := range list {
		if s == item {
			return true
		}
	}
	return false
}
