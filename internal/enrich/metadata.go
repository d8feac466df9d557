package enrich

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type Metadata struct {
	Title       string
	Description string
	Favicon     string
}

// ExtractMetadata reads the title, meta description and icon link of a
// page. A missing icon falls back to /favicon.ico on the page origin.
func ExtractMetadata(body []byte, pageURL string) (Metadata, error) {
	doc, err := parseHTML(body)
	if err != nil {
		return Metadata{}, err
	}

	md := Metadata{}
	if n := find(doc, isAtom(atom.Title)); n != nil {
		md.Title = text(n)
	}
	md.Description = metaDescription(doc)

	base, err := url.Parse(pageURL)
	if err != nil {
		return md, nil
	}
	if n := find(doc, isIconLink); n != nil {
		if ref, err := url.Parse(strings.TrimSpace(attr(n, "href"))); err == nil {
			md.Favicon = base.ResolveReference(ref).String()
		}
	}
	if md.Favicon == "" && base.Scheme != "" && base.Host != "" {
		md.Favicon = base.Scheme + "://" + base.Host + "/favicon.ico"
	}
	return md, nil
}

func metaDescription(doc *html.Node) string {
	n := find(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Meta && strings.EqualFold(attr(n, "name"), "description")
	})
	if n == nil {
		return ""
	}
	return strings.TrimSpace(attr(n, "content"))
}

func isIconLink(n *html.Node) bool {
	return n.DataAtom == atom.Link &&
		hasToken(attr(n, "rel"), "icon") &&
		strings.TrimSpace(attr(n, "href")) != ""
}
