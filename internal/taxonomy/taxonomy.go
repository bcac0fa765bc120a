// Package taxonomy normalizes free-text product names and URLs into the
// closed product-type, gender-target, and hair-relevance vocabularies the
// rest of the pipeline relies on.
package taxonomy

import (
	"strings"

	"github.com/jmylchreest/hairlens/internal/models"
)

// typeMap is checked in order; the first keyword that appears in the lowered
// product name wins. Order matters: more specific multi-word keywords like
// "creme de pentear" are listed ahead of the generic "cream" they'd
// otherwise collide with.
var typeMap = []struct {
	keywords   []string
	normalized models.ProductType
}{
	{[]string{"shampoo"}, models.TypeShampoo},
	{[]string{"condicionador", "conditioner"}, models.TypeConditioner},
	{[]string{"máscara", "mascara", "mask"}, models.TypeMask},
	{[]string{"leave-in", "leave in"}, models.TypeLeaveIn},
	{[]string{"óleo", "oleo", "oil"}, models.TypeOilSerum},
	{[]string{"sérum", "serum"}, models.TypeOilSerum},
	{[]string{"tônico", "tonico", "tonic"}, models.TypeTonic},
	{[]string{"pomada", "pomade"}, models.TypePomade},
	{[]string{"gel"}, models.TypeGel},
	{[]string{"mousse"}, models.TypeMousse},
	{[]string{"spray"}, models.TypeSpray},
	{[]string{"cera", "wax"}, models.TypeWax},
	{[]string{"argila", "clay"}, models.TypeClay},
	{[]string{"pasta", "paste"}, models.TypePaste},
	{[]string{"creme de pentear", "creme para pentear", "cream"}, models.TypeCream},
	{[]string{"ampola", "ampule"}, models.TypeAmpule},
	{[]string{"finalizador", "finisher"}, models.TypeFinisher},
	{[]string{"tratamento", "treatment", "reconstrução"}, models.TypeTreatment},
	{[]string{"esfoliante", "exfoliant"}, models.TypeExfoliant},
	{[]string{"texturizador", "texturizer"}, models.TypeTexturizer},
}

var hairKeywords = []string{
	"shampoo", "condicionador", "conditioner", "máscara capilar", "mascara capilar",
	"hair mask", "tratamento capilar", "leave-in", "leave in", "óleo capilar",
	"oil hair", "tônico capilar", "tonico capilar", "scalp", "couro cabeludo",
	"antiqueda", "anti-queda", "queda capilar", "crescimento capilar",
	"cabelo", "cabelos", "hair", "capilar", "fios",
	"gel fixador", "mousse", "spray fixador", "pomada", "cera capilar",
	"wax", "clay", "pasta modeladora", "texturizador", "finalizador",
	"ampola", "sérum capilar", "serum capilar", "creme para pentear",
	"creme de pentear", "alisamento", "progressiva", "reconstrução",
	"hidratação capilar", "nutrição capilar", "reparação",
}

var excludeKeywords = []string{
	"corpo", "corporal", "body", "facial", "face", "rosto",
	"maquiagem", "makeup", "perfume", "fragrance", "fragrância",
	"unhas", "nail", "acessório", "accessory",
	"protetor solar", "sunscreen", "desodorante", "deodorant",
	"sabonete líquido", "sabonete corporal",
	"hidratante corporal", "body lotion", "body cream",
	"batom", "lipstick", "rímel", "mascara para cílios",
}

// categoryMap buckets a normalized product type into a broader shelf
// category. Coloração (hair-coloring) has no dedicated product type of its
// own in the closed vocabulary, so it's detected from the name directly.
var categoryMap = map[models.ProductType]string{
	models.TypeShampoo:        "limpeza",
	models.TypeConditioner:    "condicionamento",
	models.TypeMask:           "tratamento",
	models.TypeTreatment:      "tratamento",
	models.TypeLeaveIn:        "finalizacao",
	models.TypeOilSerum:       "tratamento",
	models.TypeTonic:          "tratamento",
	models.TypeExfoliant:      "tratamento",
	models.TypeScalpTreatment: "tratamento",
	models.TypeGel:            "finalizacao",
	models.TypeMousse:         "finalizacao",
	models.TypeSpray:          "finalizacao",
	models.TypePomade:         "finalizacao",
	models.TypeWax:            "finalizacao",
	models.TypeClay:           "finalizacao",
	models.TypePaste:          "finalizacao",
	models.TypeTexturizer:     "finalizacao",
	models.TypeFinisher:       "finalizacao",
	models.TypeAmpule:         "tratamento",
	models.TypeSerum:          "tratamento",
	models.TypeCream:          "finalizacao",
}

var coloracaoKeywords = []string{
	"coloração", "coloracao", "tintura", "tinta", "matizador",
	"descolorante", "hair color", "dye",
}

// NormalizeCategory maps a normalized product type (and, failing that, the
// raw product name) to the broader shelf category used for catalog
// browsing. Returns "" when neither source yields a match.
func NormalizeCategory(productType models.ProductType, productName string) string {
	lower := strings.ToLower(productName)
	for _, kw := range coloracaoKeywords {
		if strings.Contains(lower, kw) {
			return "coloracao"
		}
	}
	if category, ok := categoryMap[productType]; ok {
		return category
	}
	return ""
}

var maleTargetingKeywords = []string{
	"masculino", "masculina", "men", "for men", "man", "barber", "barbearia",
}

var kidsKeywords = []string{
	"kids", "infantil", "criança", "children", "baby",
}

// NormalizeProductType maps a free-text product name to one of the closed
// product-type buckets, or "" if nothing matches.
func NormalizeProductType(rawName string) models.ProductType {
	lower := strings.ToLower(rawName)
	for _, entry := range typeMap {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.normalized
			}
		}
	}
	return ""
}

// DetectGenderTarget inspects the product name and URL together, since
// gendering is frequently only signaled in the URL path (e.g. "/masculino/").
func DetectGenderTarget(productName, url string) models.GenderTarget {
	combined := strings.ToLower(productName + " " + url)

	if strings.Contains(combined, "unissex") || strings.Contains(combined, "unisex") {
		return models.GenderUnisex
	}
	for _, kw := range kidsKeywords {
		if strings.Contains(combined, kw) {
			return models.GenderKids
		}
	}
	for _, kw := range maleTargetingKeywords {
		if strings.Contains(combined, kw) {
			return models.GenderMen
		}
	}
	return models.GenderUnknown
}

// IsHairRelevant reports whether the combined product name/url/description
// text looks like a hair-care product, and if so names the keyword that
// triggered the match. Exclusion keywords take priority: any hit
// there returns false regardless of hair keywords also present, matching the
// pack's own behavior of treating a body-care/skin-care product as
// unambiguously out of scope even when it shares shelf space with hair SKUs.
func IsHairRelevant(productName, url, description string) (bool, string) {
	combined := strings.ToLower(productName + " " + url + " " + description)

	for _, ekw := range excludeKeywords {
		if strings.Contains(combined, ekw) {
			return false, ""
		}
	}
	for _, hkw := range hairKeywords {
		if strings.Contains(combined, hkw) {
			return true, "keyword '" + hkw + "' found"
		}
	}
	return false, ""
}
