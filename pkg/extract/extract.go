// Package extract pulls theme catalog entries and config-file links out of
// fetched HTML.
//
// Both extractors are strict about the markup they expect: anything that
// does not match the page layout is a CONTRACT_VIOLATION, since guessing
// would silently change which themes are checked. The one tolerated gap is
// a repository page without a default config file, which [ConfigLink]
// reports as a nil link.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/matzehuels/themecheck/pkg/errors"
)

// Selectors for the catalog page and for repository pages.
const (
	CatalogEntrySelector = "#plugin-list > li"
	CatalogNameSelector  = "a.plugin-name"

	FileListSelector = ".Box .Details"
	FileLinkSelector = "a.Link--primary"

	// fileListIndex picks the file listing among the page's detail boxes.
	fileListIndex = 1
)

// ConfigFilePattern matches the names of default theme config files.
var ConfigFilePattern = regexp.MustCompile(`^_config\.(yml|json)$`)

// CatalogItem is one theme listed on the catalog page.
type CatalogItem struct {
	Name          string
	RepositoryURL string
}

// Link is a config file found on a repository page.
type Link struct {
	Filename string
	URL      string
}

// Catalog extracts the theme list from the catalog page, in document order.
// Relative links are resolved against baseURL.
func Catalog(html, baseURL string) ([]CatalogItem, error) {
	base, err := errors.ValidateAbsoluteURL(baseURL)
	if err != nil {
		return nil, err
	}
	doc, err := parse(html, baseURL)
	if err != nil {
		return nil, err
	}

	items := doc.Find(CatalogEntrySelector)
	if items.Length() == 0 {
		return nil, errors.New(errors.ErrCodeContract, "%s: no entries match %q", baseURL, CatalogEntrySelector)
	}

	out := make([]CatalogItem, 0, items.Length())
	var failure error
	items.EachWithBreak(func(i int, li *goquery.Selection) bool {
		item, err := catalogItem(li, base)
		if err != nil {
			failure = errors.Wrap(errors.ErrCodeContract, err, "%s: catalog entry %d", baseURL, i)
			return false
		}
		out = append(out, item)
		return true
	})
	if failure != nil {
		return nil, failure
	}
	return out, nil
}

func catalogItem(li *goquery.Selection, base *url.URL) (CatalogItem, error) {
	anchors := li.Find(CatalogNameSelector)
	if n := anchors.Length(); n != 1 {
		return CatalogItem{}, errors.New(errors.ErrCodeContract, "want exactly one %q anchor, found %d", CatalogNameSelector, n)
	}
	name := strings.TrimSpace(anchors.Text())
	if name == "" {
		return CatalogItem{}, errors.New(errors.ErrCodeContract, "anchor has no name")
	}
	href, err := resolveHref(anchors, base)
	if err != nil {
		return CatalogItem{}, errors.Wrap(errors.ErrCodeContract, err, "theme %q", name)
	}
	return CatalogItem{Name: name, RepositoryURL: href}, nil
}

// ConfigLink finds the default config file link on a repository page.
//
// It returns nil when the page has no file listing or the listing has no
// config file. More than one matching link is ambiguous and reported as a
// CONTRACT_VIOLATION.
func ConfigLink(html, pageURL string) (*Link, error) {
	base, err := errors.ValidateAbsoluteURL(pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := parse(html, pageURL)
	if err != nil {
		return nil, err
	}

	listing := doc.Find(FileListSelector).Eq(fileListIndex)
	if listing.Length() == 0 {
		return nil, nil
	}

	matches := listing.Find(FileLinkSelector).FilterFunction(func(_ int, a *goquery.Selection) bool {
		return ConfigFilePattern.MatchString(strings.TrimSpace(a.Text()))
	})
	switch matches.Length() {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, errors.New(errors.ErrCodeContract, "%s: %d config file links", pageURL, matches.Length())
	}

	href, err := resolveHref(matches, base)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeContract, err, "%s: config file link", pageURL)
	}
	return &Link{Filename: strings.TrimSpace(matches.Text()), URL: href}, nil
}

func parse(html, pageURL string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeContract, err, "%s: parse html", pageURL)
	}
	return doc, nil
}

func resolveHref(a *goquery.Selection, base *url.URL) (string, error) {
	href, ok := a.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return "", errors.New(errors.ErrCodeContract, "anchor has no href")
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeContract, err, "invalid href %q", href)
	}
	abs := base.ResolveReference(ref)
	if _, err := errors.ValidateAbsoluteURL(abs.String()); err != nil {
		return "", err
	}
	return abs.String(), nil
}
