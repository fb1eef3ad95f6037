package extractor

import (
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var (
	itemPathRe = regexp.MustCompile(`/itm/(?:[^/]+/)?(\d+)`)
	digitsRe   = regexp.MustCompile(`^\d+$`)
)

// SubjectFromURL derives the subject identity from the page's canonical
// addressing scheme alone. It is cheap enough to run on every mutation tick.
func SubjectFromURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	if m := itemPathRe.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	if id := u.Query().Get("item"); digitsRe.MatchString(id) {
		return id
	}
	return ""
}

// subjectIdentity tries the page URL first and falls back to the document's
// canonical link, which single-page navigations sometimes update before the
// address bar settles.
func subjectIdentity(pageURL string, doc *goquery.Document) string {
	if id := SubjectFromURL(pageURL); id != "" {
		return id
	}
	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		return SubjectFromURL(href)
	}
	return ""
}
