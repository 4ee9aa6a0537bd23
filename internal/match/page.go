package match

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Page is the content extracted from a fetched document that the matcher
// scores against. Metadata fields are most reliable; the raw <title> is
// often polluted with site branding, and a heading is the last resort.
type Page struct {
	MetaTitle   string
	DocTitle    string
	Heading     string
	MetaAuthors []string
	Text        string
}

// BestTitle returns the preferred title text: citation metadata, then the
// <title> element, then the first heading.
func (p Page) BestTitle() string {
	for _, t := range []string{p.MetaTitle, p.DocTitle, p.Heading} {
		if strings.TrimSpace(t) != "" {
			return strings.TrimSpace(t)
		}
	}
	return ""
}

// metaTitleNames are accepted in order of reliability; the first present
// wins. Publishers emit citation_title on landing pages.
var metaTitleNames = []string{"citation_title", "dc.title", "og:title", "twitter:title"}

// ParsePage extracts titles, citation authors and readable text from HTML.
// Unparseable or empty input yields a zero Page.
func ParsePage(body []byte) Page {
	node, err := html.Parse(bytes.NewReader(body))
	if err != nil || node == nil {
		return Page{}
	}

	var p Page
	metaTitles := make(map[string]string)
	var text strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			name := strings.ToLower(n.Data)
			switch name {
			case "script", "style", "noscript", "iframe":
				return
			case "meta":
				key := strings.ToLower(attr(n, "name"))
				if key == "" {
					key = strings.ToLower(attr(n, "property"))
				}
				content := strings.TrimSpace(attr(n, "content"))
				if content == "" {
					break
				}
				switch key {
				case "citation_author", "dc.creator":
					p.MetaAuthors = append(p.MetaAuthors, content)
				default:
					if _, ok := metaTitles[key]; !ok {
						metaTitles[key] = content
					}
				}
			case "title":
				if p.DocTitle == "" {
					p.DocTitle = strings.TrimSpace(textContent(n))
				}
			case "h1", "h2", "h3":
				if p.Heading == "" {
					p.Heading = strings.TrimSpace(textContent(n))
				}
				text.WriteString("\n")
			case "p", "li", "br", "div", "tr":
				text.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
			text.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)

	for _, name := range metaTitleNames {
		if t, ok := metaTitles[name]; ok {
			p.MetaTitle = t
			break
		}
	}
	p.Text = strings.Join(strings.Fields(text.String()), " ")
	return p
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
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
