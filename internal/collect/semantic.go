// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/scholar-feed/internal/dates"
	"github.com/pdiddy/scholar-feed/internal/httputil"
	"github.com/pdiddy/scholar-feed/pkg/types"
)

// semanticAPIBase is the Semantic Scholar bulk search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search/bulk"

const semanticFields = "title,abstract,authors,venue,externalIds,openAccessPdf,url,year,publicationDate"

// semanticProvider labels papers whose record carries no venue.
const semanticProvider = "Semantic Scholar"

const (
	// semanticMaxPages bounds the continuation-token pagination loop.
	semanticMaxPages = 3
	// semanticMaxPapers caps total accumulation across pages.
	semanticMaxPapers = 200
	// semanticPageLimit is the largest per-page request size.
	semanticPageLimit = 100
	// semanticMaxAttempts is the per-request retry budget.
	semanticMaxAttempts = 5
)

// semanticPageInterval spaces page requests to honor the API's
// 1-request/second courtesy limit. Tests set this to 0.
var semanticPageInterval = 1100 * time.Millisecond

// semanticBackoff is the retry schedule for 429/5xx responses: 2s, 4s, 8s,
// capped at 15s. Tests substitute a faster schedule.
var semanticBackoff = httputil.ExpBackoff(2*time.Second, 15*time.Second)

// SemanticCollector queries the Semantic Scholar bulk search API, paging
// through continuation tokens inside a trailing publication-date window.
type SemanticCollector struct {
	Client *http.Client
}

// Name returns the collector identifier.
func (c *SemanticCollector) Name() string { return "semantic_scholar" }

// Collect fetches papers matching keyword published inside the trailing
// window. It paginates up to 3 pages or 200 papers, whichever comes first,
// deduplicates across pages, and returns papers sorted newest first.
func (c *SemanticCollector) Collect(ctx context.Context, keyword string, cfg types.CollectorConfig) ([]types.Paper, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("empty keyword")
	}

	windowDays := cfg.WindowDays
	if windowDays <= 0 {
		windowDays = 30
	}
	now := timeNow().UTC()
	window := time.Duration(windowDays) * 24 * time.Hour
	from := now.Add(-window)
	dateRange := from.Format("2006-01-02") + "-" + now.Format("2006-01-02")

	limiter := rate.NewLimiter(rate.Every(semanticPageInterval), 1)
	seen := make(map[string]bool)
	var papers []types.Paper
	token := ""

	for page := 0; page < semanticMaxPages && len(papers) < semanticMaxPapers; page++ {
		// First wait is satisfied from the initial token, so the delay
		// applies only between pages.
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		limit := semanticPageLimit
		if remaining := semanticMaxPapers - len(papers); remaining < limit {
			limit = remaining
		}

		params := url.Values{
			"query":           {keyword},
			"fields":          {semanticFields},
			"limit":           {strconv.Itoa(limit)},
			"sort":            {"publicationDate:desc"},
			"publicationDate": {dateRange},
		}
		if token != "" {
			params.Set("token", token)
		}

		sr, err := c.fetchPage(ctx, semanticAPIBase+"?"+params.Encode(), cfg)
		if err != nil {
			return nil, err
		}

		for _, rec := range sr.Data {
			p, ok := mapSemanticPaper(rec)
			if !ok {
				continue
			}
			// Re-check the window; the server-side filter is not exact.
			if !WithinWindow(p.Date, now, window) {
				continue
			}
			key := p.DedupKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			papers = append(papers, p)
		}

		token = sr.Token
		if token == "" {
			break
		}
	}

	SortByDateDesc(papers)
	return papers, nil
}

// fetchPage issues one paginated request with the collector's retry policy.
func (c *SemanticCollector) fetchPage(ctx context.Context, reqURL string, cfg types.CollectorConfig) (*semanticResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", cfg.UserAgent)
	if cfg.APIKey != "" {
		req.Header.Set("x-api-key", cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, httputil.Policy{
		MaxAttempts: semanticMaxAttempts,
		Backoff:     semanticBackoff,
		RetryStatus: httputil.Transient,
	})
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar: %w", httputil.StatusError(resp))
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	return &sr, nil
}

// mapSemanticPaper normalizes one API record. Records without a title or a
// resolvable publication date are dropped, not errors.
func mapSemanticPaper(rec semanticPaper) (types.Paper, bool) {
	title := normalizeSpace(rec.Title)
	if title == "" {
		return types.Paper{}, false
	}

	rawDate := rec.PublicationDate
	if rawDate == "" && rec.Year > 0 {
		rawDate = strconv.Itoa(rec.Year)
	}
	date, ok := dates.Parse(rawDate)
	if !ok {
		return types.Paper{}, false
	}

	var names []string
	for _, a := range rec.Authors {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}

	source := normalizeSpace(rec.Venue)
	if source == "" {
		source = semanticProvider
	}

	return types.Paper{
		Title:   title,
		URL:     canonicalURL(rec),
		Snippet: capSnippet(normalizeSpace(rec.Abstract)),
		Authors: strings.Join(names, ", "),
		Source:  source,
		Date:    date,
		RawDate: rawDate,
	}, true
}

// canonicalURL resolves the best link for a record, trying in order the
// native URL, the open-access PDF, a DOI resolver link, an arXiv link, and
// finally the provider permalink built from the record identifier.
func canonicalURL(rec semanticPaper) string {
	if rec.URL != "" {
		return rec.URL
	}
	if rec.OpenAccessPDF.URL != "" {
		return rec.OpenAccessPDF.URL
	}
	if rec.ExternalIDs.DOI != "" {
		return "https://doi.org/" + rec.ExternalIDs.DOI
	}
	if rec.ExternalIDs.ArXiv != "" {
		return "https://arxiv.org/abs/" + rec.ExternalIDs.ArXiv
	}
	if rec.PaperID != "" {
		return "https://www.semanticscholar.org/paper/" + rec.PaperID
	}
	return ""
}

// Semantic Scholar bulk search JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Token string          `json:"token"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Venue           string              `json:"venue"`
	URL             string              `json:"url"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
	OpenAccessPDF   semanticOpenAccess  `json:"openAccessPdf"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI      string `json:"DOI"`
	ArXiv    string `json:"ArXiv"`
	CorpusID int    `json:"CorpusId"`
}

type semanticOpenAccess struct {
	URL string `json:"url"`
}
