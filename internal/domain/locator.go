package domain

import (
	"regexp"
	"strings"
)

// DocumentLocator finds bulletin links in a catalog list page.
type DocumentLocator struct {
	pattern *regexp.Regexp
}

// NewDocumentLocator matches <alertBaseURL>/<word chars>/mt.txt.
func NewDocumentLocator(alertBaseURL string) *DocumentLocator {
	base := regexp.QuoteMeta(strings.TrimSuffix(alertBaseURL, "/"))
	return &DocumentLocator{
		pattern: regexp.MustCompile(base + `/\w+/mt\.txt`),
	}
}

// Locate returns every non-overlapping match in body, left to right.
// Duplicates are kept. A body without links yields an empty slice.
func (l *DocumentLocator) Locate(body string) []DocumentReference {
	matches := l.pattern.FindAllString(body, -1)
	refs := make([]DocumentReference, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, DocumentReference(m))
	}
	return refs
}

// AlertURL rebuilds the bulletin URL for an alert token.
func AlertURL(alertBaseURL, token string) string {
	return strings.TrimSuffix(alertBaseURL, "/") + "/" + token + "/mt.txt"
}
