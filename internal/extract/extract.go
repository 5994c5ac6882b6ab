// Package extract recovers candidate lead records from a search-result page
// snapshot. It is a pure function of the document: no network, no store
// access, deterministic for the same markup.
//
// The page layout is unstable and frequently restyled, sometimes with
// randomized class names, so every field is resolved through an ordered
// cascade of strategies, first match wins. A card that yields no identity
// (anchor + non-empty name) is dropped silently; that is a per-card gap,
// not an error.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Candidate is the raw heuristic output for one result card, before the
// name is split and the record is merged into a stored lead.
type Candidate struct {
	URL      string
	FullName string
	JobTitle string
	Location string
}

// Known result-card containers across observed layout variants: stable class
// names, the older entity-result markup, and the randomized-class layout that
// only keeps its data-view-name attribute. Union of all matches, no priority.
var cardSelectors = []string{
	".reusable-search__result-container",
	".entity-result__item",
	"li.reusable-search__result-container",
	`[data-view-name="people-search-result"]`,
}

var cardSelectorGroup = strings.Join(cardSelectors, ", ")

// Extract returns the candidates found in the document. The engine does not
// deduplicate across pages; the store's insert-if-absent handles that.
func Extract(doc *goquery.Document) []Candidate {
	var out []Candidate
	doc.Find(cardSelectorGroup).Each(func(_ int, card *goquery.Selection) {
		if c, ok := parseCard(card); ok {
			out = append(out, c)
		}
	})
	return out
}

// HasCards reports whether any known result-card container is present.
func HasCards(doc *goquery.Document) bool {
	return doc.Find(cardSelectorGroup).Length() > 0
}

// NoResults reports whether the page shows the empty-results message.
func NoResults(doc *goquery.Document) bool {
	body := visibleText(doc.Selection.Find("body"))
	return strings.Contains(body, "No matching results") ||
		strings.Contains(body, "No results found")
}

func parseCard(card *goquery.Selection) (Candidate, bool) {
	anchor := resolveAnchor(card)
	if anchor == nil {
		return Candidate{}, false
	}
	name := resolveFullName(card, anchor)
	if name == "" {
		return Candidate{}, false
	}
	href, ok := anchor.Attr("href")
	if !ok || href == "" {
		return Candidate{}, false
	}
	job, loc := resolveSubtitles(card, name)
	return Candidate{
		URL:      CanonicalURL(href),
		FullName: name,
		JobTitle: job,
		Location: loc,
	}, true
}

// anchorStrategies resolve the name anchor of a card, in order.
var anchorStrategies = []func(*goquery.Selection) *goquery.Selection{
	anchorByTitleLink,
	anchorByLockup,
}

func resolveAnchor(card *goquery.Selection) *goquery.Selection {
	for _, strat := range anchorStrategies {
		if a := strat(card); a != nil {
			return a
		}
	}
	return nil
}

// anchorByTitleLink matches the stable title-link class of the classic layout.
func anchorByTitleLink(card *goquery.Selection) *goquery.Selection {
	a := card.Find("a.app-aware-link").First()
	if a.Length() == 0 {
		return nil
	}
	return a
}

// anchorByLockup matches the semantic lockup attribute of the
// randomized-class layout. The attribute sometimes sits on a non-link node,
// in which case the nearest enclosing link is used.
func anchorByLockup(card *goquery.Selection) *goquery.Selection {
	m := card.Find(`[data-view-name="search-result-lockup-title"]`).First()
	if m.Length() == 0 {
		return nil
	}
	if !m.Is("a") {
		m = m.Closest("a")
		if m.Length() == 0 {
			return nil
		}
	}
	return m
}

func resolveFullName(card, anchor *goquery.Selection) string {
	// Strategy 1: dedicated name span inside the title link.
	span := card.Find(`.entity-result__title-text a span[aria-hidden="true"]`).First()
	if span.Length() > 0 {
		if name := strings.TrimSpace(visibleText(span)); name != "" {
			return name
		}
	}
	// Strategy 2: the anchor's own text. Only the first line counts; trailing
	// lines are screen-reader suffixes like "View X's profile".
	return firstLine(visibleText(anchor))
}

func resolveSubtitles(card *goquery.Selection, fullName string) (job, loc string) {
	jobSel := card.Find(".entity-result__primary-subtitle").First()
	if jobSel.Length() > 0 {
		job = strings.TrimSpace(visibleText(jobSel))
		if locSel := card.Find(".entity-result__secondary-subtitle").First(); locSel.Length() > 0 {
			loc = strings.TrimSpace(visibleText(locSel))
		}
		return job, loc
	}
	// Fallback for layouts without subtitle classes: flatten the card into
	// non-empty lines and read fixed offsets from the name. The observed
	// ordering is name, connection degree, job title, location. This is a
	// heuristic tied to one layout, not a guarantee.
	lines := visibleLines(card)
	nameIdx := -1
	for i, l := range lines {
		if l == fullName {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return "", ""
	}
	if nameIdx+2 < len(lines) {
		job = lines[nameIdx+2]
	}
	if nameIdx+3 < len(lines) {
		loc = lines[nameIdx+3]
	}
	return job, loc
}

// CanonicalURL strips the query string from a profile URL and makes relative
// links absolute. The result is the lead's unique identity.
func CanonicalURL(u string) string {
	if i := strings.Index(u, "?"); i >= 0 {
		u = u[:i]
	}
	if !strings.HasPrefix(u, "http") {
		u = "https://www.linkedin.com" + u
	}
	return u
}
