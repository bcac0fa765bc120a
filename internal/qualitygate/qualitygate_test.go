package qualitygate

import (
	"strings"
	"testing"

	"github.com/jmylchreest/hairlens/internal/models"
)

var allowedDomains = []string{"example.com"}

func validProduct() models.ProductExtraction {
	return models.ProductExtraction{
		ProductName:         "Hydrating Shampoo",
		ProductURL:          "https://www.example.com/products/hydrating-shampoo",
		ImageURLMain:        "https://www.example.com/img/shampoo.jpg",
		HairRelevanceReason: "product_type:shampoo",
		Confidence:          0.9,
	}
}

func TestRun_Tier1Failure_GarbageName(t *testing.T) {
	p := validProduct()
	p.ProductName = "404 - Page Not Found"
	v := Run(p, allowedDomains, DefaultConfig())
	if v.Status != models.StatusQuarantined {
		t.Fatalf("expected quarantined, got %s", v.Status)
	}
	if v.Quarantine == nil || v.Quarantine.RejectionCode != "tier1_failed" {
		t.Fatalf("expected tier1_failed rejection code, got %+v", v.Quarantine)
	}
}

func TestRun_Tier1Failure_UnofficialDomain(t *testing.T) {
	p := validProduct()
	p.ProductURL = "https://www.somereseller.com/hydrating-shampoo"
	v := Run(p, allowedDomains, DefaultConfig())
	if v.Status != models.StatusQuarantined {
		t.Fatalf("expected quarantined, got %s", v.Status)
	}
}

func TestRun_Tier1Failure_NoImage(t *testing.T) {
	p := validProduct()
	p.ImageURLMain = ""
	v := Run(p, allowedDomains, DefaultConfig())
	if v.Status != models.StatusQuarantined {
		t.Fatalf("expected quarantined, got %s", v.Status)
	}
}

func TestRun_CatalogOnly_NoINCI(t *testing.T) {
	p := validProduct()
	v := Run(p, allowedDomains, DefaultConfig())
	if v.Status != models.StatusCatalogOnly {
		t.Fatalf("expected catalog_only, got %s", v.Status)
	}
	if v.Quarantine != nil {
		t.Errorf("catalog_only verdict should not carry a quarantine detail")
	}
}

func TestRun_VerifiedINCI(t *testing.T) {
	p := validProduct()
	p.INCIIngredients = []string{"aqua", "sodium laureth sulfate", "glycerin", "parfum", "citric acid"}
	p.Confidence = 0.85
	v := Run(p, allowedDomains, DefaultConfig())
	if v.Status != models.StatusVerifiedINCI {
		t.Fatalf("expected verified_inci, got %s (quarantine: %+v)", v.Status, v.Quarantine)
	}
}

func TestRun_Tier2Failure_LowConfidence(t *testing.T) {
	p := validProduct()
	p.INCIIngredients = []string{"aqua", "sodium laureth sulfate", "glycerin", "parfum", "citric acid"}
	p.Confidence = 0.5
	v := Run(p, allowedDomains, DefaultConfig())
	if v.Status != models.StatusQuarantined {
		t.Fatalf("expected quarantined, got %s", v.Status)
	}
	if v.Quarantine.RejectionCode != "low_confidence" {
		t.Errorf("expected low_confidence code, got %s", v.Quarantine.RejectionCode)
	}
}

func TestRun_Tier2Failure_InvalidIngredients(t *testing.T) {
	p := validProduct()
	p.INCIIngredients = []string{"aqua", "glycerin"} // below min ingredient floor
	p.Confidence = 0.9
	v := Run(p, allowedDomains, DefaultConfig())
	if v.Status != models.StatusQuarantined {
		t.Fatalf("expected quarantined, got %s", v.Status)
	}
	if v.Quarantine.RejectionCode != "min_ingredients" {
		t.Errorf("expected bare min_ingredients code, got %q", v.Quarantine.RejectionCode)
	}
}

func TestRun_Tier2Failure_ConcatenatedIngredients(t *testing.T) {
	p := validProduct()
	p.INCIIngredients = []string{
		"Shampoo: Aqua", "Glycerin", "Parfum. Condicionador: Aqua", "Cetearyl Alcohol", "Dimethicone",
	}
	p.Confidence = 0.3
	v := Run(p, allowedDomains, DefaultConfig())
	if v.Status != models.StatusQuarantined {
		t.Fatalf("expected quarantined, got %s", v.Status)
	}
	if v.Quarantine.RejectionCode != "concat_detected" {
		t.Errorf("expected concat_detected code, got %q", v.Quarantine.RejectionCode)
	}
	if !strings.HasPrefix(v.Quarantine.RejectionReason, "inci_invalid:") {
		t.Errorf("expected inci_invalid reason prefix, got %q", v.Quarantine.RejectionReason)
	}
}

func TestCheckDomain_Subdomain(t *testing.T) {
	p := validProduct()
	p.ProductURL = "https://shop.example.com/products/x"
	v := Run(p, allowedDomains, DefaultConfig())
	if v.Status == models.StatusQuarantined && v.Quarantine.RejectionCode == "tier1_failed" {
		t.Errorf("subdomain of an allowed domain should pass the domain check")
	}
}
