// Package linkcheck verifies that the Generated Output is internally
// consistent: every link between generated pages, and every fragment anchor,
// must resolve. External links are reported but never fetched.
package linkcheck

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/net/html"
)

// Link is a reference extracted from generated HTML.
type Link struct {
	URL        string // raw attribute value
	Tag        string // HTML tag (a, img, script, link)
	Attribute  string // attribute containing the link (href, src)
	IsInternal bool   // true when the link has no scheme or host
}

// Page holds everything extracted from one HTML file.
type Page struct {
	Links   []Link
	Anchors map[string]bool // element ids usable as #fragment targets
}

// linkAttributes maps tags to the attribute that carries their reference.
var linkAttributes = map[string]string{
	"a":      "href",
	"img":    "src",
	"link":   "href",
	"script": "src",
}

// ExtractPage parses an HTML file and extracts its links and anchors.
func ExtractPage(htmlPath string) (*Page, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open HTML file: %w", err)
	}
	defer func() {
		_ = file.Close() // read-only
	}()

	return ExtractPageFromReader(file)
}

// ExtractPageFromReader parses HTML from a reader.
func ExtractPageFromReader(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &Page{Anchors: map[string]bool{}}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			extractFromElement(n, page)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return page, nil
}

func extractFromElement(n *html.Node, page *Page) {
	wanted := linkAttributes[n.Data]
	for _, attr := range n.Attr {
		switch {
		case attr.Key == "id" && attr.Val != "":
			page.Anchors[attr.Val] = true
		case attr.Key == "name" && n.Data == "a" && attr.Val != "":
			// Legacy anchor form still emitted by some generators.
			page.Anchors[attr.Val] = true
		case attr.Key == wanted && attr.Val != "":
			page.Links = append(page.Links, Link{
				URL:        attr.Val,
				Tag:        n.Data,
				Attribute:  attr.Key,
				IsInternal: isInternal(attr.Val),
			})
		}
	}
}

func isInternal(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}
