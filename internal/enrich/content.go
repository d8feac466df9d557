package enrich

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const wordsPerMinute = 200

type Content struct {
	Title       string
	Description string
	Text        string
	WordCount   int
	ReadingTime int
	Language    string
}

// contentSelectors is tried in order; the first element found with any text
// supplies the main text.
var contentSelectors = []func(*html.Node) bool{
	isAtom(atom.Main),
	isAtom(atom.Article),
	divWith("class", "content"),
	divWith("id", "content"),
	divWith("class", "post"),
	divWith("class", "entry"),
	isAtom(atom.Body),
}

func divWith(key, fragment string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.DataAtom == atom.Div && strings.Contains(attr(n, key), fragment)
	}
}

// ExtractContent pulls the readable text of a page for analysis.
func ExtractContent(body []byte, pageURL string) (Content, error) {
	doc, err := parseHTML(body)
	if err != nil {
		return Content{}, err
	}

	c := Content{Description: metaDescription(doc)}
	if n := find(doc, isAtom(atom.Title)); n != nil {
		c.Title = text(n)
	}
	if c.Title == "" {
		if u, err := url.Parse(pageURL); err == nil {
			c.Title = u.Hostname()
		}
	}

	for _, sel := range contentSelectors {
		n := find(doc, sel)
		if n == nil {
			continue
		}
		if t := text(n); strings.TrimSpace(t) != "" {
			c.Text = t
			break
		}
	}
	if c.Text == "" {
		c.Text = text(doc)
	}
	c.WordCount = countWords(c.Text)
	c.ReadingTime = (c.WordCount + wordsPerMinute - 1) / wordsPerMinute
	c.Language = detectLanguage(c.Text)
	return c, nil
}

// countWords counts characters for Chinese text and words otherwise.
func countWords(s string) int {
	if s == "" {
		return 0
	}
	if !strings.ContainsFunc(s, isHan) {
		return len(strings.Fields(s))
	}
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func detectLanguage(s string) string {
	han, total := 0, 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if isHan(r) {
			han++
		}
	}
	if total == 0 {
		return "unknown"
	}
	if float64(han)/float64(total) > 0.3 {
		return "zh"
	}

	latinWords := 0
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return !isASCIILetter(r) }) {
		if f != "" {
			latinWords++
		}
	}
	if latinWords > 10 {
		return "en"
	}
	return "unknown"
}

func isHan(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
