// Package extractor derives a ListingSnapshot from the rendered structure of
// a marketplace listing page. Each field is extracted by an independent rule;
// a field whose source markup is missing or unparsable is simply left absent
// and never affects the other fields.
package extractor

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/listing-risk-service/internal/entity"
)

type fieldExtractor struct {
	name  string
	apply func(e *Extractor, doc *goquery.Document, snap *entity.ListingSnapshot)
}

// fields is the full registration list. Adding a field is one entry here plus
// its rule in fields.go.
var fields = []fieldExtractor{
	{"title", (*Extractor).extractTitle},
	{"price", (*Extractor).extractPrice},
	{"seller", (*Extractor).extractSeller},
	{"seller_feedback", (*Extractor).extractSellerFeedback},
	{"images", (*Extractor).extractImages},
	{"condition", (*Extractor).extractCondition},
	{"shipping_cost", (*Extractor).extractShipping},
	{"category", (*Extractor).extractCategory},
}

// Extractor runs the registered field rules over a page view.
type Extractor struct {
	maxImages int
	now       func() time.Time
}

// New creates an extractor that keeps at most maxImages image references.
func New(maxImages int) *Extractor {
	if maxImages <= 0 {
		maxImages = 5
	}
	return &Extractor{maxImages: maxImages, now: time.Now}
}

// Extract parses the page view and applies every registered field rule. When
// no subject identity can be derived the returned snapshot has an empty
// SubjectID and no field extraction is attempted.
func (e *Extractor) Extract(view *entity.PageView) *entity.ListingSnapshot {
	snap := &entity.ListingSnapshot{ExtractedAt: e.now()}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(view.HTML))
	if err != nil {
		return snap
	}

	snap.SubjectID = subjectIdentity(view.URL, doc)
	if !snap.HasSubject() {
		return snap
	}

	for _, f := range fields {
		f.apply(e, doc, snap)
	}
	return snap
}

// firstText returns the trimmed text of the first selector that matches a
// non-empty element.
func firstText(doc *goquery.Document, selectors ...string) (string, bool) {
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text != "" {
			return text, true
		}
	}
	return "", false
}
