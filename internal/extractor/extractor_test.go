package extractor

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/listing-risk-service/internal/entity"
)

const listingURL = "https://www.example-market.com/itm/334455667788"

func listingHTML(extra string) string {
	return fmt.Sprintf(`<html><head><link rel="canonical" href="%s"></head><body>
		<h1 data-testid="x-item-title"> Vintage Camera </h1>
		<div data-testid="seller-info"><a>photo_deals_99</a></div>
		<div data-testid="seller-feedback">(12,345 reviews)</div>
		<div data-testid="x-item-condition"><span class="ux-textspans">Used</span></div>
		<nav aria-label="breadcrumb"><a>Electronics</a><a>Cameras</a><a>Film Cameras</a></nav>
		%s
	</body></html>`, listingURL, extra)
}

func view(html string) *entity.PageView {
	return &entity.PageView{URL: listingURL, HTML: html, RetrievedAt: time.Now()}
}

func TestExtractFullListing(t *testing.T) {
	html := listingHTML(`
		<div data-testid="x-price-primary"><span class="ux-textspans">US $1,299.99</span></div>
		<div data-testid="x-shipping"><span class="ux-textspans">$4.99 Standard</span></div>
		<div id="PicturePanel"><img src="https://img.example.com/1.jpg"><img src="https://img.example.com/2.jpg"></div>`)

	snap := New(5).Extract(view(html))

	require.True(t, snap.HasSubject())
	assert.Equal(t, "334455667788", snap.SubjectID)
	require.NotNil(t, snap.Title)
	assert.Equal(t, "Vintage Camera", *snap.Title)
	require.NotNil(t, snap.Price)
	assert.Equal(t, 1299.99, *snap.Price)
	require.NotNil(t, snap.Seller)
	assert.Equal(t, "photo_deals_99", *snap.Seller)
	require.NotNil(t, snap.SellerFeedback)
	assert.Equal(t, 12345, *snap.SellerFeedback)
	require.NotNil(t, snap.Condition)
	assert.Equal(t, "Used", *snap.Condition)
	assert.Equal(t, []string{"Electronics", "Cameras", "Film Cameras"}, snap.Category)
	assert.Len(t, snap.Images, 2)
	require.NotNil(t, snap.ShippingCost)
	assert.Equal(t, 4.99, *snap.ShippingCost)
}

func TestExtractMissingPriceDoesNotAffectOtherFields(t *testing.T) {
	snap := New(5).Extract(view(listingHTML("")))

	assert.Nil(t, snap.Price)
	require.NotNil(t, snap.Title)
	assert.Equal(t, "Vintage Camera", *snap.Title)
	require.NotNil(t, snap.Seller)
	assert.NotEmpty(t, snap.Category)
}

func TestExtractGarbagePriceIsAbsent(t *testing.T) {
	html := listingHTML(`<div data-testid="x-price-primary"><span class="ux-textspans">Contact seller</span></div>`)
	snap := New(5).Extract(view(html))
	assert.Nil(t, snap.Price)
}

func TestExtractShippingThreeWay(t *testing.T) {
	tests := []struct {
		name string
		html string
		want *float64
	}{
		{"free", `<div data-testid="x-shipping"><span class="ux-textspans">Free shipping</span></div>`, ptr(0.0)},
		{"stated", `<div data-testid="x-shipping"><span class="ux-textspans">$4.99</span></div>`, ptr(4.99)},
		{"absent", ``, nil},
		{"unparsable", `<div data-testid="x-shipping"><span class="ux-textspans">Varies</span></div>`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := New(5).Extract(view(listingHTML(tt.html)))
			if tt.want == nil {
				assert.Nil(t, snap.ShippingCost)
			} else {
				require.NotNil(t, snap.ShippingCost)
				assert.Equal(t, *tt.want, *snap.ShippingCost)
			}
		})
	}
}

func TestExtractImagesTruncatesAndFiltersPlaceholders(t *testing.T) {
	imgs := `<div id="PicturePanel">
		<img src="https://img.example.com/spinner.gif">
		<img src="data:image/gif;base64,R0lGOD">
		<img src="https://img.example.com/1.jpg">
		<img data-src="https://img.example.com/2.jpg">
		<img src="https://img.example.com/3.jpg">
		<img src="https://img.example.com/4.jpg">
		<img src="https://img.example.com/5.jpg">
		<img src="https://img.example.com/6.jpg">
	</div>`
	snap := New(5).Extract(view(listingHTML(imgs)))

	assert.Len(t, snap.Images, 5)
	assert.Equal(t, "https://img.example.com/1.jpg", snap.Images[0])
	assert.Equal(t, "https://img.example.com/2.jpg", snap.Images[1])
}

func TestExtractNoSubjectShortCircuits(t *testing.T) {
	v := &entity.PageView{
		URL:  "https://www.example-market.com/deals",
		HTML: `<html><body><h1 data-testid="x-item-title">Daily Deals</h1></body></html>`,
	}
	snap := New(5).Extract(v)

	assert.False(t, snap.HasSubject())
	assert.Nil(t, snap.Title, "field extraction must not run without a subject")
}

func TestSubjectFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.example-market.com/itm/334455667788", "334455667788"},
		{"https://www.example-market.com/itm/vintage-camera/334455667788?hash=abc", "334455667788"},
		{"https://www.example-market.com/view?item=987654", "987654"},
		{"https://www.example-market.com/search?q=camera", ""},
		{"://bad", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SubjectFromURL(tt.url), tt.url)
	}
}

func TestSubjectFromCanonicalLink(t *testing.T) {
	v := &entity.PageView{
		URL:  "https://www.example-market.com/p/some-product-page",
		HTML: `<html><head><link rel="canonical" href="https://www.example-market.com/itm/111222333"></head><body></body></html>`,
	}
	snap := New(5).Extract(v)
	assert.Equal(t, "111222333", snap.SubjectID)
}

func ptr(f float64) *float64 { return &f }
