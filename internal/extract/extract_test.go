package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + body + "</body></html>"))
	require.NoError(t, err)
	return d
}

const classicCard = `
<li class="reusable-search__result-container">
  <div class="entity-result__title-text">
    <a class="app-aware-link" href="https://www.linkedin.com/in/jane-public?miniProfileUrn=urn%3Ali%3Afs">
      <span aria-hidden="true">Jane Public</span>
      <span class="visually-hidden">View Jane Public&#39;s profile</span>
    </a>
  </div>
  <div class="entity-result__primary-subtitle">Senior Engineer</div>
  <div class="entity-result__secondary-subtitle">Berlin</div>
</li>`

func TestExtractClassicLayout(t *testing.T) {
	got := Extract(doc(t, "<ul>"+classicCard+"</ul>"))
	require.Len(t, got, 1)
	assert.Equal(t, Candidate{
		URL:      "https://www.linkedin.com/in/jane-public",
		FullName: "Jane Public",
		JobTitle: "Senior Engineer",
		Location: "Berlin",
	}, got[0])
}

func TestExtractRandomizedLayoutUsesLockupAndLineFallback(t *testing.T) {
	// Randomized class names: only the data-view-name attributes survive.
	// The lockup node is not itself a link, so the nearest enclosing anchor
	// is used, and job/location come from the flattened-line heuristic
	// (name, connection degree, job title, location).
	body := `
<div data-view-name="people-search-result">
  <a href="/in/john-doe?origin=SEARCH">
    <p data-view-name="search-result-lockup-title">John Doe</p>
  </a>
  <p>2nd</p>
  <p>Staff Engineer</p>
  <p>Munich</p>
</div>`
	got := Extract(doc(t, body))
	require.Len(t, got, 1)
	assert.Equal(t, Candidate{
		URL:      "https://www.linkedin.com/in/john-doe",
		FullName: "John Doe",
		JobTitle: "Staff Engineer",
		Location: "Munich",
	}, got[0])
}

func TestExtractLineFallbackOffsets(t *testing.T) {
	// Visible lines: name, connection degree, job title, location.
	body := `
<li class="entity-result__item">
  <a class="app-aware-link" href="https://www.linkedin.com/in/jane-public">Jane Public</a>
  <div>2nd</div>
  <div>Senior Engineer</div>
  <div>Berlin</div>
</li>`
	got := Extract(doc(t, body))
	require.Len(t, got, 1)
	assert.Equal(t, "Jane Public", got[0].FullName)
	assert.Equal(t, "Senior Engineer", got[0].JobTitle)
	assert.Equal(t, "Berlin", got[0].Location)
}

func TestExtractDropsCardsWithoutIdentity(t *testing.T) {
	body := `
<li class="reusable-search__result-container">
  <div class="entity-result__primary-subtitle">Engineer without a name</div>
</li>
<li class="reusable-search__result-container">
  <a class="app-aware-link" href="https://www.linkedin.com/in/ghost"><span>   </span></a>
</li>` + classicCard
	got := Extract(doc(t, "<ul>"+body+"</ul>"))
	require.Len(t, got, 1)
	assert.Equal(t, "Jane Public", got[0].FullName)
}

func TestExtractMissingSubtitlesAndNoNameLine(t *testing.T) {
	// Name resolved from the aria-hidden span never appears as a standalone
	// flattened line, so the offset fallback yields empty fields rather
	// than misassigned ones.
	body := `
<li class="reusable-search__result-container">
  <div class="entity-result__title-text"><a class="app-aware-link" href="/in/solo"><span aria-hidden="true">Solo Name</span><span>extra</span></a></div>
</li>`
	got := Extract(doc(t, body))
	require.Len(t, got, 1)
	assert.Equal(t, "Solo Name", got[0].FullName)
	assert.Empty(t, got[0].JobTitle)
	assert.Empty(t, got[0].Location)
}

func TestCanonicalURL(t *testing.T) {
	cases := map[string]string{
		"https://www.linkedin.com/in/jane?x=1&y=2": "https://www.linkedin.com/in/jane",
		"https://www.linkedin.com/in/jane":         "https://www.linkedin.com/in/jane",
		"/in/jane?origin=SEARCH":                   "https://www.linkedin.com/in/jane",
		"/in/jane":                                 "https://www.linkedin.com/in/jane",
	}
	for in, want := range cases {
		assert.Equal(t, want, CanonicalURL(in), "in=%q", in)
	}
}

func TestNoResultsAndHasCards(t *testing.T) {
	empty := doc(t, `<div class="search-results"><p>No matching results found</p></div>`)
	assert.True(t, NoResults(empty))
	assert.False(t, HasCards(empty))

	results := doc(t, "<ul>"+classicCard+"</ul>")
	assert.False(t, NoResults(results))
	assert.True(t, HasCards(results))
}

func TestExtractDuplicateURLsAreEmitted(t *testing.T) {
	// Dedup is the store's job; the engine may emit the same URL twice.
	got := Extract(doc(t, "<ul>"+classicCard+classicCard+"</ul>"))
	assert.Len(t, got, 2)
}

func TestVisibleLines(t *testing.T) {
	d := doc(t, `<div id="c"><span>Jane</span> <span>Public</span><div>2nd</div><div> Senior Engineer </div><br>Berlin</div>`)
	assert.Equal(t,
		[]string{"Jane Public", "2nd", "Senior Engineer", "Berlin"},
		visibleLines(d.Find("#c")))
}
