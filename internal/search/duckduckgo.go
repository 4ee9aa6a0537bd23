package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// DuckDuckGo scrapes the keyless HTML endpoint. It is the default provider
// because it needs no instance or API key; structure changes upstream are
// tolerated by returning fewer results rather than failing.
type DuckDuckGo struct {
	// BaseURL overrides the endpoint, mainly for tests.
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

const duckduckgoHTML = "https://html.duckduckgo.com/html/"

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 5
	}
	endpoint := d.BaseURL
	if endpoint == "" {
		endpoint = duckduckgoHTML
	}
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}

	hc := d.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("duckduckgo status %d: %w", resp.StatusCode, ErrUnavailable)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo read: %v: %w", err, ErrUnavailable)
	}
	return parseResultsHTML(body, limit, d.Name()), nil
}

// parseResultsHTML walks the result page. Hits are anchors carrying the
// result__a class; snippets carry result__snippet.
func parseResultsHTML(body []byte, limit int, source string) []Result {
	node, err := html.Parse(bytes.NewReader(body))
	if err != nil || node == nil {
		return nil
	}
	var out []Result
	var current *Result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(out) >= limit && current == nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			classes := attrVal(n, "class")
			switch {
			case hasClass(classes, "result__a"):
				if current != nil && current.URL != "" {
					out = append(out, *current)
				}
				current = &Result{
					Title:  strings.TrimSpace(nodeText(n)),
					URL:    cleanResultURL(attrVal(n, "href")),
					Source: source,
				}
			case hasClass(classes, "result__snippet") && current != nil:
				current.Snippet = strings.TrimSpace(nodeText(n))
				if current.URL != "" && current.Title != "" {
					out = append(out, *current)
				}
				current = nil
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	if current != nil && current.URL != "" && current.Title != "" && len(out) < limit {
		out = append(out, *current)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// cleanResultURL unwraps the redirect href (//duckduckgo.com/l/?uddg=<url>)
// down to the target when present.
func cleanResultURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func hasClass(classes, want string) bool {
	for _, c := range strings.Fields(classes) {
		if c == want {
			return true
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
