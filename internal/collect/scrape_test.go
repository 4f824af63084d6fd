// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func scholarResult(href, title, byline, snippet string) string {
	return fmt.Sprintf(`<div class="gs_r gs_or gs_scl"><div class="gs_ri">
<h3 class="gs_rt"><a href="%s">%s</a></h3>
<div class="gs_a">%s</div>
<div class="gs_rs">%s</div>
</div></div>`, href, title, byline, snippet)
}

func scrapeServer(t *testing.T, page string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page)
	}))
	t.Cleanup(ts.Close)

	old := scraperAPIBase
	scraperAPIBase = ts.URL
	t.Cleanup(func() { scraperAPIBase = old })
	return ts
}

func TestScrapeCollectProxyParams(t *testing.T) {
	var capturedReq *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedReq = r
		fmt.Fprint(w, "<html></html>")
	}))
	defer ts.Close()

	old := scraperAPIBase
	scraperAPIBase = ts.URL
	defer func() { scraperAPIBase = old }()

	c := &ScrapeCollector{Client: ts.Client()}
	if _, err := c.Collect(context.Background(), "machine learning", testCfg()); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	q := capturedReq.URL.Query()
	if got := q.Get("api_key"); got != "test-key" {
		t.Errorf("api_key param = %q", got)
	}
	if got := q.Get("render"); got != "true" {
		t.Errorf("render param = %q", got)
	}
	if got := q.Get("premium"); got != "true" {
		t.Errorf("premium param = %q", got)
	}
	if got := q.Get("country_code"); got != "us" {
		t.Errorf("country_code param = %q", got)
	}

	// The wrapped target is a recency-sorted Scholar search for the keyword.
	target := q.Get("url")
	if !strings.Contains(target, "scholar.google.com") {
		t.Errorf("target = %q, want Scholar URL", target)
	}
	if !strings.Contains(target, "machine+learning") {
		t.Errorf("target = %q, want encoded keyword", target)
	}
	if !strings.Contains(target, "scisbd=1") {
		t.Errorf("target = %q, want recency sort flag", target)
	}
}

func TestScrapeCollectMissingKey(t *testing.T) {
	cfg := testCfg()
	cfg.APIKey = ""
	c := &ScrapeCollector{Client: http.DefaultClient}
	if _, err := c.Collect(context.Background(), "test", cfg); err == nil {
		t.Fatal("expected error for missing proxy key")
	}
}

func TestScrapeCollectExtraction(t *testing.T) {
	absDate := time.Now().UTC().AddDate(0, 0, -10).Format("Jan 2, 2006")
	page := "<html><body>" +
		scholarResult("https://example.org/age", "Deep <b>Learning</b> &amp; Biology",
			"A Smith, B Jones - Nature Reviews, 2024 - nature.com",
			`<span class="gs_age">3 days ago - </span>Advances in deep learning for biology.`) +
		scholarResult("https://example.org/byline-rel", "Graph Models",
			"C Author - arXiv preprint, 5 days ago - arxiv.org",
			"Snippet without any date annotation.") +
		scholarResult("https://example.org/absolute", "Protein Folding",
			"D Author - Science, "+absDate+" - science.org",
			"Absolute dated result.") +
		scholarResult("https://example.org/stale", "Old Result",
			"E Author - Journal, Mar 15, 2019 - example.org",
			"Too old to include.") +
		scholarResult("https://example.org/nodate", "Undated Result",
			"F Author - somewhere",
			"No date at all here.") +
		"</body></html>"

	ts := scrapeServer(t, page)

	c := &ScrapeCollector{Client: ts.Client()}
	papers, err := c.Collect(context.Background(), "test", testCfg())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if len(papers) != 3 {
		t.Fatalf("len(papers) = %d, want 3: %+v", len(papers), papers)
	}

	// Sorted newest first: 3 days < 5 days < 10 days ago.
	wantOrder := []string{
		"https://example.org/age",
		"https://example.org/byline-rel",
		"https://example.org/absolute",
	}
	for i, want := range wantOrder {
		if papers[i].URL != want {
			t.Errorf("papers[%d].URL = %q, want %q", i, papers[i].URL, want)
		}
	}

	first := papers[0]
	if first.Title != "Deep Learning & Biology" {
		t.Errorf("Title = %q, want markup stripped and entities decoded", first.Title)
	}
	if first.Authors != "A Smith, B Jones" {
		t.Errorf("Authors = %q", first.Authors)
	}
	if first.Source != "Nature Reviews, 2024" {
		t.Errorf("Source = %q", first.Source)
	}
	if first.RawDate != "3 days ago" {
		t.Errorf("RawDate = %q", first.RawDate)
	}
	if first.Snippet != "Advances in deep learning for biology." {
		t.Errorf("Snippet = %q, want age prefix stripped", first.Snippet)
	}
}

func TestScrapeCollectSourceFallback(t *testing.T) {
	page := scholarResult("https://example.org/x", "Bare Result",
		"2 days ago", "No byline venue.")
	ts := scrapeServer(t, page)

	c := &ScrapeCollector{Client: ts.Client()}
	papers, err := c.Collect(context.Background(), "test", testCfg())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("len(papers) = %d, want 1", len(papers))
	}
	if papers[0].Source != scrapeProvider {
		t.Errorf("Source = %q, want %q", papers[0].Source, scrapeProvider)
	}
}

func TestScrapeCollectRetryBudget(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("proxy saturated"))
	}))
	defer ts.Close()

	old := scraperAPIBase
	scraperAPIBase = ts.URL
	defer func() { scraperAPIBase = old }()

	c := &ScrapeCollector{Client: ts.Client()}
	_, err := c.Collect(context.Background(), "test", testCfg())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "proxy saturated") {
		t.Errorf("error = %q, want body included", err.Error())
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestScrapeCollectServerErrorNoRetry(t *testing.T) {
	// Unlike the API collector, only 429 is transient here; a 500 from the
	// proxy fails immediately.
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	old := scraperAPIBase
	scraperAPIBase = ts.URL
	defer func() { scraperAPIBase = old }()

	c := &ScrapeCollector{Client: ts.Client()}
	_, err := c.Collect(context.Background(), "test", testCfg())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestScrapeCollectEmptyPage(t *testing.T) {
	ts := scrapeServer(t, "<html><body>No results found</body></html>")

	c := &ScrapeCollector{Client: ts.Client()}
	papers, err := c.Collect(context.Background(), "obscure topic", testCfg())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(papers) != 0 {
		t.Errorf("len(papers) = %d, want 0", len(papers))
	}
}

func TestScrapeCollectorName(t *testing.T) {
	c := &ScrapeCollector{}
	if got := c.Name(); got != "scrape" {
		t.Errorf("Name() = %q", got)
	}
}

func TestDateCandidatePriority(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
		byline  string
		want    string
	}{
		{
			"age annotation wins",
			"3 days ago - Some text",
			"A Author - Venue, Mar 15, 2024",
			"3 days ago",
		},
		{
			"byline relative next",
			"Plain snippet",
			"A Author - 2 weeks ago - domain",
			"2 weeks ago",
		},
		{
			"absolute date next",
			"Plain snippet",
			"A Author - Venue, Mar 15, 2024 - domain",
			"Mar 15, 2024",
		},
		{
			"trailing year last",
			"Plain snippet",
			"A Author - Venue, 2023 - domain",
			"2023",
		},
		{
			"last year wins over earlier",
			"Plain snippet",
			"A Author 1999 - Venue, 2023",
			"2023",
		},
		{
			"nothing found",
			"Plain snippet",
			"A Author - Venue - domain",
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dateCandidate(tt.snippet, tt.byline); got != tt.want {
				t.Errorf("dateCandidate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanMarkup(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<b>Bold</b> text", "Bold text"},
		{"a &amp; b &lt;c&gt; &quot;d&quot;", `a & b <c> "d"`},
		{"non&nbsp;breaking", "non breaking"},
		{"  spaced\n\tout  ", "spaced out"},
		{`<span class="gs_age">5 days ago</span>rest`, "5 days ago rest"},
	}
	for _, tt := range tests {
		if got := cleanMarkup(tt.in); got != tt.want {
			t.Errorf("cleanMarkup(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitByline(t *testing.T) {
	authors, source := splitByline("A Smith, B Jones - Nature, 2024 - nature.com")
	if authors != "A Smith, B Jones" {
		t.Errorf("authors = %q", authors)
	}
	if source != "Nature, 2024" {
		t.Errorf("source = %q", source)
	}

	authors, source = splitByline("Solo Author")
	if authors != "Solo Author" || source != "" {
		t.Errorf("got %q, %q", authors, source)
	}
}

func TestSplitResultBlocksBounded(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString(scholarResult(fmt.Sprintf("https://example.org/%d", i),
			fmt.Sprintf("Paper %d", i), "A - 1 day ago", "text"))
	}
	blocks := splitResultBlocks(b.String())
	if len(blocks) != scrapeMaxResults {
		t.Errorf("len(blocks) = %d, want %d", len(blocks), scrapeMaxResults)
	}
}
