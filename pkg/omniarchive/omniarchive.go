// Package omniarchive lists old game versions preserved by the
// community archive at vault.omniarchive.uk. The vault serves plain
// directory listings, so the client walks index.html pages and
// collects artifact links.
package omniarchive

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/cometmc/comet/pkg/fetch"
)

// BaseURL is the archive vault root.
const BaseURL = "https://vault.omniarchive.uk"

// Category is an era of pre-release development. Ordering follows the
// historical release timeline.
type Category int

const (
	PreClassic Category = iota
	Classic
	Indev
	Infdev
	Alpha
	Beta
)

var categorySlugs = [...]string{"pre-classic", "classic", "indev", "infdev", "alpha", "beta"}

func (c Category) String() string {
	if int(c) < len(categorySlugs) {
		return categorySlugs[c]
	}

	return fmt.Sprintf("Category(%d)", int(c))
}

// Categories lists every era, oldest first.
func Categories() []Category {
	return []Category{PreClassic, Classic, Indev, Infdev, Alpha, Beta}
}

// ParseCategory maps a slug back to its Category.
func ParseCategory(s string) (Category, error) {
	for i, slug := range categorySlugs {
		if slug == s {
			return Category(i), nil
		}
	}

	return 0, fmt.Errorf("unknown archive category %q", s)
}

// IndexURL is the listing page for a category's client or server
// artifacts. Only some eras had server builds.
func (c Category) IndexURL(server bool) string {
	side := "client"
	if server {
		side = "server"
	}

	return fmt.Sprintf("%s/archive/java/%s-%s/index.html", BaseURL, side, c)
}

// HasServer reports whether the era shipped standalone servers.
func (c Category) HasServer() bool {
	switch c {
	case Classic, Alpha, Beta:
		return true
	}

	return false
}

// Entry is one downloadable artifact from the vault.
type Entry struct {
	Category Category
	Name     string
	URL      string
}

// NameFromURL derives a display name from an artifact URL: the last
// path component without its extension.
func NameFromURL(rawURL string) string {
	base := path.Base(rawURL)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Client walks the vault's listing pages.
type Client struct {
	fetcher *fetch.Fetcher
	log     *slog.Logger
}

func NewClient(f *fetch.Fetcher) *Client {
	return &Client{fetcher: f, log: slog.Default()}
}

func (c *Client) WithLogger(log *slog.Logger) *Client {
	c.log = log
	return c
}

// Index lists every artifact in a category, following nested listing
// pages. Windows installers are skipped. Results are sorted by name so
// callers get a stable catalog.
func (c *Client) Index(ctx context.Context, cat Category, server bool) ([]Entry, error) {
	visited := make(map[string]bool)
	entries, err := c.walk(ctx, cat, cat.IndexURL(server), visited)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (c *Client) walk(ctx context.Context, cat Category, pageURL string, visited map[string]bool) ([]Entry, error) {
	if visited[pageURL] {
		return nil, nil
	}
	visited[pageURL] = true

	page, err := c.fetcher.String(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("archive index %s: %w", pageURL, err)
	}

	var entries []Entry
	for _, href := range listingLinks(page) {
		target, err := resolveRef(pageURL, href)
		if err != nil {
			c.log.Warn("skipping unparsable archive link",
				slog.String("page", pageURL), slog.String("href", href))
			continue
		}

		switch {
		case strings.HasSuffix(target, "/index.html"):
			nested, err := c.walk(ctx, cat, target, visited)
			if err != nil {
				return nil, err
			}
			entries = append(entries, nested...)
		case strings.HasSuffix(target, ".exe"):
			// Windows installer builds, useless here.
		case strings.HasSuffix(target, ".jar") || strings.HasSuffix(target, ".zip"):
			entries = append(entries, Entry{
				Category: cat,
				Name:     NameFromURL(target),
				URL:      target,
			})
		}
	}

	return entries, nil
}

// listingLinks extracts every anchor href from a listing page, parent
// directory links excluded.
func listingLinks(page string) []string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		// html.Parse recovers from almost anything; a real failure
		// means an empty page.
		return nil
	}

	var hrefs []string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" && attr.Val != "../" && attr.Val != ".." {
					hrefs = append(hrefs, attr.Val)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(doc)

	return hrefs
}

func resolveRef(pageURL, href string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}

	return base.ResolveReference(ref).String(), nil
}
