package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/listing-risk-service/internal/entity"
)

// Selector lists are ordered newest markup first; the marketplace ships
// several layout versions concurrently.
var (
	titleSelectors = []string{
		`h1[data-testid="x-item-title"]`,
		`h1#x-item-title`,
		`h1.x-item-title`,
	}
	priceSelectors = []string{
		`[data-testid="x-price-primary"] .ux-textspans`,
		`#prcIsum`,
		`.x-price-primary span`,
	}
	sellerSelectors = []string{
		`[data-testid="seller-info"] a`,
		`.seller-persona a`,
	}
	feedbackSelectors = []string{
		`[data-testid="seller-feedback"]`,
		`.seller-persona .feedback-count`,
	}
	conditionSelectors = []string{
		`[data-testid="x-item-condition"] .ux-textspans`,
		`#vi-itm-cond`,
	}
	shippingSelectors = []string{
		`[data-testid="x-shipping"] .ux-textspans`,
		`#fshippingCost`,
		`.sh-cst`,
	}
	imageSelector    = `#PicturePanel img, [data-testid="image-viewer"] img, [data-testid="x-photos"] img`
	categorySelector = `nav[aria-label="breadcrumb"] a, ul.b-breadcrumb a, .breadcrumbs a`
)

// placeholderMarkers identify loading spinners and tracking pixels that show
// up in the image panel before the real photos load.
var placeholderMarkers = []string{"placeholder", "spinner", "pixel.gif", "s.gif", "data:image"}

func (e *Extractor) extractTitle(doc *goquery.Document, snap *entity.ListingSnapshot) {
	if text, ok := firstText(doc, titleSelectors...); ok {
		snap.Title = &text
	}
}

func (e *Extractor) extractPrice(doc *goquery.Document, snap *entity.ListingSnapshot) {
	for _, sel := range priceSelectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		if value, ok := parseDecimal(text); ok && value > 0 {
			snap.Price = &value
			return
		}
	}
}

func (e *Extractor) extractSeller(doc *goquery.Document, snap *entity.ListingSnapshot) {
	if text, ok := firstText(doc, sellerSelectors...); ok {
		snap.Seller = &text
	}
}

func (e *Extractor) extractSellerFeedback(doc *goquery.Document, snap *entity.ListingSnapshot) {
	for _, sel := range feedbackSelectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		if count, ok := parseCount(text); ok {
			snap.SellerFeedback = &count
			return
		}
	}
}

func (e *Extractor) extractImages(doc *goquery.Document, snap *entity.ListingSnapshot) {
	var images []string
	doc.Find(imageSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			src, _ = s.Attr("data-src")
		}
		if src == "" || isPlaceholder(src) {
			return true
		}
		images = append(images, src)
		return len(images) < e.maxImages
	})
	snap.Images = images
}

func isPlaceholder(src string) bool {
	lowered := strings.ToLower(src)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func (e *Extractor) extractCondition(doc *goquery.Document, snap *entity.ListingSnapshot) {
	if text, ok := firstText(doc, conditionSelectors...); ok {
		snap.Condition = &text
	}
}

// extractShipping keeps the three-way distinction: explicit free shipping is
// zero, a stated amount is that amount, anything else stays unknown (nil).
func (e *Extractor) extractShipping(doc *goquery.Document, snap *entity.ListingSnapshot) {
	text, ok := firstText(doc, shippingSelectors...)
	if !ok {
		return
	}
	if strings.Contains(strings.ToLower(text), "free") {
		zero := 0.0
		snap.ShippingCost = &zero
		return
	}
	if value, ok := parseDecimal(text); ok {
		snap.ShippingCost = &value
	}
}

func (e *Extractor) extractCategory(doc *goquery.Document, snap *entity.ListingSnapshot) {
	var path []string
	doc.Find(categorySelector).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			path = append(path, text)
		}
	})
	snap.Category = path
}
