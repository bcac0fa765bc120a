// Package extractor runs the deterministic field-extraction fallback chain
// over a fetched product page: structured data, blueprint CSS selectors,
// and a label-proximity heuristic for ingredient text.
package extractor

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jmylchreest/hairlens/internal/models"
)

// Selectors is the brand blueprint's ordered CSS-selector lists for S2.
type Selectors struct {
	Name        []string
	Ingredients []string
	Image       []string
}

// Result is the deterministic extractor's output for one product page.
// INCIRaw is unvalidated scraped text; the caller runs it through
// internal/ingredient before trusting it as a parsed ingredient list.
type Result struct {
	ProductName      string
	ImageURLMain     string
	Description      string
	Price            float64
	HasPrice         bool
	Currency         string
	INCIRaw          string
	ExtractionMethod models.ExtractionMethod
	Evidence         []models.Evidence

	// ImageTexts holds alt/title/filename strings from the page's <img>
	// elements, fed to the label engine's image scan.
	ImageTexts []string
}

// Extract runs S1 (JSON-LD) then S2 (CSS selectors) then S3 (label-proximity
// heuristic) then S4 (meta-tag image fallback), each strategy only filling
// fields the previous ones left unset.
func Extract(htmlSrc, sourceURL string, selectors Selectors) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return Result{}
	}

	var res Result

	extractJSONLD(doc, sourceURL, &res)
	extractBySelectors(doc, sourceURL, selectors, &res)
	if res.INCIRaw == "" {
		extractByLabelProximity(doc, sourceURL, &res)
	}
	if res.ImageURLMain == "" {
		extractMetaImage(doc, sourceURL, &res)
	}
	collectImageTexts(doc, &res)

	return res
}

// maxImageTexts bounds how many image strings are collected from one page.
const maxImageTexts = 50

// collectImageTexts gathers alt, title, and filename strings from every
// <img> on the page for the label engine's seal scan.
func collectImageTexts(doc *goquery.Document, res *Result) {
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(res.ImageTexts) >= maxImageTexts {
			return false
		}
		if alt := strings.TrimSpace(s.AttrOr("alt", "")); alt != "" {
			res.ImageTexts = append(res.ImageTexts, alt)
		}
		if title := strings.TrimSpace(s.AttrOr("title", "")); title != "" {
			res.ImageTexts = append(res.ImageTexts, title)
		}
		if src := s.AttrOr("src", ""); src != "" {
			if name := imageFilename(src); name != "" {
				res.ImageTexts = append(res.ImageTexts, name)
			}
		}
		return true
	})
}

// imageFilename extracts the bare filename from an image URL or path.
func imageFilename(src string) string {
	if idx := strings.IndexAny(src, "?#"); idx >= 0 {
		src = src[:idx]
	}
	if idx := strings.LastIndex(src, "/"); idx >= 0 {
		src = src[idx+1:]
	}
	return strings.TrimSpace(src)
}

// ── S1: structured data (JSON-LD) ──

type jsonLDOffers struct {
	Price         json.Number `json:"price"`
	PriceCurrency string      `json:"priceCurrency"`
}

type jsonLDProduct struct {
	Type        string       `json:"@type"`
	Name        string       `json:"name"`
	Image       any          `json:"image"`
	Description string       `json:"description"`
	Offers      jsonLDOffers `json:"offers"`
}

func extractJSONLD(doc *goquery.Document, sourceURL string, res *Result) {
	var product *jsonLDProduct
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := s.Text()
		if p := findProductInJSONLD(raw); p != nil {
			product = p
			return false
		}
		return true
	})
	if product == nil {
		return
	}

	if product.Name != "" {
		res.ProductName = product.Name
		res.Evidence = append(res.Evidence, models.Evidence{
			FieldName:        "product_name",
			SourceURL:        sourceURL,
			EvidenceLocator:  "json-ld @type=Product .name",
			RawSourceText:    product.Name,
			ExtractionMethod: models.ExtractionJSONLD,
			ExtractedAt:      time.Now().UTC(),
		})
	}
	if img := firstImageValue(product.Image); img != "" {
		res.ImageURLMain = img
		res.Evidence = append(res.Evidence, models.Evidence{
			FieldName:        "image_url_main",
			SourceURL:        sourceURL,
			EvidenceLocator:  "json-ld @type=Product .image",
			RawSourceText:    img,
			ExtractionMethod: models.ExtractionJSONLD,
			ExtractedAt:      time.Now().UTC(),
		})
	}
	if product.Description != "" {
		res.Description = product.Description
		res.Evidence = append(res.Evidence, models.Evidence{
			FieldName:        "description",
			SourceURL:        sourceURL,
			EvidenceLocator:  "json-ld @type=Product .description",
			RawSourceText:    truncate(product.Description, 500),
			ExtractionMethod: models.ExtractionJSONLD,
			ExtractedAt:      time.Now().UTC(),
		})
	}
	if price, err := strconv.ParseFloat(product.Offers.Price.String(), 64); err == nil && price > 0 {
		res.Price = price
		res.HasPrice = true
		currency := product.Offers.PriceCurrency
		if currency == "" {
			currency = "BRL"
		}
		res.Currency = currency
		res.Evidence = append(res.Evidence, models.Evidence{
			FieldName:        "price",
			SourceURL:        sourceURL,
			EvidenceLocator:  "json-ld @type=Product .offers.price",
			RawSourceText:    product.Offers.Price.String(),
			ExtractionMethod: models.ExtractionJSONLD,
			ExtractedAt:      time.Now().UTC(),
		})
		res.Evidence = append(res.Evidence, models.Evidence{
			FieldName:        "currency",
			SourceURL:        sourceURL,
			EvidenceLocator:  "json-ld @type=Product .offers.priceCurrency",
			RawSourceText:    currency,
			ExtractionMethod: models.ExtractionJSONLD,
			ExtractedAt:      time.Now().UTC(),
		})
	}
	res.ExtractionMethod = models.ExtractionJSONLD
}

// findProductInJSONLD decodes a <script type="application/ld+json"> body,
// which may be a single object, a @type=Product object, or a list of
// objects, and returns the first Product entry found.
func findProductInJSONLD(raw string) *jsonLDProduct {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var single jsonLDProduct
	if err := json.Unmarshal([]byte(raw), &single); err == nil && single.Type == "Product" {
		return &single
	}

	var list []jsonLDProduct
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		for i := range list {
			if list[i].Type == "Product" {
				return &list[i]
			}
		}
	}
	return nil
}

func firstImageValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// ── S2: blueprint CSS selectors ──

func extractBySelectors(doc *goquery.Document, sourceURL string, selectors Selectors, res *Result) {
	if res.ProductName == "" {
		for _, sel := range selectors.Name {
			if sel == "" {
				continue
			}
			text := strings.TrimSpace(doc.Find(sel).First().Text())
			if text != "" {
				res.ProductName = text
				res.Evidence = append(res.Evidence, models.Evidence{
					FieldName:        "product_name",
					SourceURL:        sourceURL,
					EvidenceLocator:  sel,
					RawSourceText:    text,
					ExtractionMethod: models.ExtractionHTMLSelector,
					ExtractedAt:      time.Now().UTC(),
				})
				break
			}
		}
	}

	if res.INCIRaw == "" {
		for _, sel := range selectors.Ingredients {
			if sel == "" {
				continue
			}
			text := strings.TrimSpace(doc.Find(sel).First().Text())
			if text != "" {
				res.INCIRaw = text
				res.Evidence = append(res.Evidence, models.Evidence{
					FieldName:        "inci_ingredients",
					SourceURL:        sourceURL,
					EvidenceLocator:  sel,
					RawSourceText:    truncate(text, 500),
					ExtractionMethod: models.ExtractionHTMLSelector,
					ExtractedAt:      time.Now().UTC(),
				})
				if res.ExtractionMethod == "" {
					res.ExtractionMethod = models.ExtractionHTMLSelector
				}
				break
			}
		}
	}

	if res.ImageURLMain == "" {
		for _, sel := range selectors.Image {
			if sel == "" {
				continue
			}
			s := doc.Find(sel).First()
			if s.Length() == 0 {
				continue
			}
			src, ok := s.Attr("src")
			if !ok || src == "" {
				src, ok = s.Attr("data-src")
			}
			if ok && src != "" {
				res.ImageURLMain = src
				res.Evidence = append(res.Evidence, models.Evidence{
					FieldName:        "image_url_main",
					SourceURL:        sourceURL,
					EvidenceLocator:  sel,
					RawSourceText:    src,
					ExtractionMethod: models.ExtractionHTMLSelector,
					ExtractedAt:      time.Now().UTC(),
				})
				break
			}
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ── S3: label-proximity heuristic ──

// proximityLabels is ordered most-specific first; a candidate's priority is
// its label's index here (lower index wins; on equal priority the candidate
// found first wins).
var proximityLabels = []string{
	"lista completa de ingredientes",
	"full ingredient list",
	"composição completa",
	"composição do produto",
	"composição",
	"composicao",
	"ingredientes",
	"ingredients",
	"inci",
}

var noisePrefixes = []string{"ver todos", "mostrar todos", "todos", "all", "ver mais"}

var headingTags = map[string]bool{"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true}

var collapsibleClasses = []string{"collapse__content", "tab-content", "tab-pane", "accordion-content"}

type proximityCandidate struct {
	content  string
	locator  string
	priority int
	order    int
}

// matchLabel finds the longest proximityLabels entry contained in text,
// returning its list index (lower = more specific) and the matched string.
func matchLabel(text string) (idx int, label string, found bool) {
	lower := strings.ToLower(text)
	bestIdx := -1
	bestLen := -1
	var bestLabel string
	for i, l := range proximityLabels {
		if strings.Contains(lower, l) && len(l) > bestLen {
			bestIdx = i
			bestLen = len(l)
			bestLabel = l
		}
	}
	if bestIdx < 0 {
		return 0, "", false
	}
	return bestIdx, bestLabel, true
}

func looksLikeINCI(text string) bool {
	return len(text) > 30 && strings.ContainsAny(text, ",●•·")
}

func stripNoisePrefix(text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, prefix := range noisePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(trimmed[len(prefix):])
		}
	}
	return trimmed
}

// ownText returns the text of s's direct text-node children only, excluding
// text contributed by descendant elements.
func ownText(s *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
	}
	return sb.String()
}

func extractByLabelProximity(doc *goquery.Document, sourceURL string, res *Result) {
	var candidates []proximityCandidate
	order := 0
	addCandidate := func(content, locatorLabel string, priority int) {
		content = stripNoisePrefix(content)
		if !looksLikeINCI(content) {
			return
		}
		candidates = append(candidates, proximityCandidate{
			content:  content,
			locator:  "tab-heading-p:" + locatorLabel,
			priority: priority,
			order:    order,
		})
		order++
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		own := ownText(s)
		idx, label, found := matchLabel(own)
		if !found {
			return
		}

		// (a) Wrapper: inline remainder after the label within the same text,
		// or a descendant paragraph that looks like an INCI list.
		afterLabel := textAfterLabel(own, label)
		if len(afterLabel) >= 30 {
			addCandidate(afterLabel, label, idx)
		}
		s.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
			text := strings.TrimSpace(p.Text())
			if looksLikeINCI(text) {
				addCandidate(text, label, idx)
				return false
			}
			return true
		})

		// (b) Next sibling's text.
		if sib := s.Next(); sib.Length() > 0 {
			addCandidate(strings.TrimSpace(sib.Text()), label, idx)
		}

		// (c) For headings, the next <p> anywhere downstream in document order.
		tag := goquery.NodeName(s)
		if headingTags[tag] {
			if p := nextParagraphDownstream(s); p != nil {
				addCandidate(strings.TrimSpace(goquery.NewDocumentFromNode(p).Text()), label, idx)
			}
		}

		// (d) Parent section text, starting after the label.
		parent := s.Parent()
		if parent.Length() > 0 {
			parentText := strings.TrimSpace(parent.Text())
			addCandidate(textAfterLabel(parentText, label), label, idx)

			// (e) Parent's next sibling.
			if psib := parent.Next(); psib.Length() > 0 {
				addCandidate(strings.TrimSpace(psib.Text()), label, idx)
			}
		}
	})

	// (f) Collapsible/tab content containers whose immediately preceding
	// sibling carries a label.
	for _, class := range collapsibleClasses {
		doc.Find("." + class).Each(func(_ int, s *goquery.Selection) {
			prev := s.Prev()
			if prev.Length() == 0 {
				return
			}
			idx, label, found := matchLabel(prev.Text())
			if !found {
				return
			}
			addCandidate(strings.TrimSpace(s.Text()), label, idx)
		})
	}

	if len(candidates) == 0 {
		return
	}
	winner := candidates[0]
	for _, c := range candidates[1:] {
		if c.priority < winner.priority || (c.priority == winner.priority && c.order < winner.order) {
			winner = c
		}
	}

	res.INCIRaw = winner.content
	res.Evidence = append(res.Evidence, models.Evidence{
		FieldName:        "inci_ingredients",
		SourceURL:        sourceURL,
		EvidenceLocator:  winner.locator,
		RawSourceText:    truncate(winner.content, 500),
		ExtractionMethod: models.ExtractionHTMLSelector,
		ExtractedAt:      time.Now().UTC(),
	})
	if res.ExtractionMethod == "" {
		res.ExtractionMethod = models.ExtractionHTMLSelector
	}
}

// textAfterLabel returns the portion of text following the first
// case-insensitive occurrence of label, trimmed.
func textAfterLabel(text, label string) string {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, label)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx+len(label):])
}

// nextParagraphDownstream walks the document in order starting after node n
// and returns the first <p> element encountered, or nil.
func nextParagraphDownstream(s *goquery.Selection) *html.Node {
	if len(s.Nodes) == 0 {
		return nil
	}
	start := s.Nodes[0]
	var found *html.Node
	var walk func(n *html.Node, started *bool)
	walk = func(n *html.Node, started *bool) {
		if found != nil {
			return
		}
		if n == start {
			*started = true
			return
		}
		if *started && n.Type == html.ElementNode && n.Data == "p" {
			found = n
			return
		}
		for c := n.FirstChild; c != nil && found == nil; c = c.NextSibling {
			walk(c, started)
		}
	}
	root := start
	for root.Parent != nil {
		root = root.Parent
	}
	started := false
	walk(root, &started)
	return found
}

// ── S4: meta-tag image fallback ──

func extractMetaImage(doc *goquery.Document, sourceURL string, res *Result) {
	selectors := []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[property="og:image:url"]`,
	}
	for _, sel := range selectors {
		content, ok := doc.Find(sel).First().Attr("content")
		if ok && content != "" {
			res.ImageURLMain = content
			res.Evidence = append(res.Evidence, models.Evidence{
				FieldName:        "image_url_main",
				SourceURL:        sourceURL,
				EvidenceLocator:  sel,
				RawSourceText:    content,
				ExtractionMethod: models.ExtractionHTMLSelector,
				ExtractedAt:      time.Now().UTC(),
			})
			return
		}
	}
}
