package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"go-research-pipeline/internal/model"
)

const (
	DefaultEndpoint = "https://html.duckduckgo.com/html/"
	DefaultRegion   = "jp-jp"
	userAgent       = "Mozilla/5.0 (compatible; go-research-pipeline/1.0)"
)

// DuckDuckGo scrapes the HTML results page.
type DuckDuckGo struct {
	Endpoint string
	Region   string
	Client   *http.Client
}

func NewDuckDuckGo(region string, timeout time.Duration) *DuckDuckGo {
	if region == "" {
		region = DefaultRegion
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &DuckDuckGo{
		Endpoint: DefaultEndpoint,
		Region:   region,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	form := url.Values{}
	form.Set("q", query)
	if d.Region != "" {
		form.Set("kl", d.Region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	results, err := ParseResults(resp.Body)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ParseResults extracts result titles, links and snippets from a DuckDuckGo
// HTML results page.
func ParseResults(r io.Reader) ([]model.SearchResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	var results []model.SearchResult
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "result") && !hasClass(n, "result--ad") {
			if res, ok := parseResult(n); ok {
				results = append(results, res)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results, nil
}

func parseResult(n *html.Node) (model.SearchResult, bool) {
	var res model.SearchResult
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				res.Title = textOf(n)
				res.URL = resolveLink(attr(n, "href"))
			case hasClass(n, "result__snippet"):
				res.Snippet = textOf(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return res, res.Title != "" && res.URL != ""
}

// resolveLink unwraps DuckDuckGo redirect links (//duckduckgo.com/l/?uddg=...).
func resolveLink(href string) string {
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
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
