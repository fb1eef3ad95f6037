package entity

import "time"

// ListingSnapshot holds the fields extracted from a listing page in one pass.
// Every field except SubjectID is optional: a nil pointer (or empty slice)
// means the extractor could not derive that field, never that extraction as a
// whole failed. An empty SubjectID means the page holds no analyzable listing.
type ListingSnapshot struct {
	SubjectID      string   `json:"subject_id"`
	Title          *string  `json:"title,omitempty"`
	Price          *float64 `json:"price,omitempty"`
	Seller         *string  `json:"seller,omitempty"`
	SellerFeedback *int     `json:"seller_feedback,omitempty"`
	Images         []string `json:"images,omitempty"`
	Condition      *string  `json:"condition,omitempty"`
	// ShippingCost is nil when unknown. Zero means explicitly free shipping,
	// which downstream logic must keep distinct from unknown.
	ShippingCost *float64  `json:"shipping_cost,omitempty"`
	Category     []string  `json:"category,omitempty"`
	ExtractedAt  time.Time `json:"extracted_at"`
}

// HasSubject reports whether the snapshot identifies a listing at all.
func (s *ListingSnapshot) HasSubject() bool {
	return s != nil && s.SubjectID != ""
}
