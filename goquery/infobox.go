package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/battletally"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultInfoboxSelector matches tables whose class contains "infobox".
const DefaultInfoboxSelector = "table[class*='infobox']"

// Ensure Extractor implements battletally.FieldExtractor.
var _ battletally.FieldExtractor = (*Extractor)(nil)

// Extractor reads a labeled row from the first infobox table of rendered
// page HTML. A row matches when its header cell text equals the field name,
// ignoring case and surrounding whitespace.
type Extractor struct {
	// Selector picks the infobox table. Defaults to DefaultInfoboxSelector.
	Selector string
}

// NewExtractor creates an Extractor using DefaultInfoboxSelector.
func NewExtractor() *Extractor {
	return &Extractor{Selector: DefaultInfoboxSelector}
}

// ExtractField implements battletally.FieldExtractor. Unparseable HTML is
// treated like a page without an infobox.
func (e *Extractor) ExtractField(document, name string) battletally.Field {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return battletally.Field{}
	}

	selector := e.Selector
	if selector == "" {
		selector = DefaultInfoboxSelector
	}
	box := doc.Find(selector).First()
	if box.Length() == 0 {
		return battletally.Field{}
	}

	name = strings.TrimSpace(name)
	var field battletally.Field
	box.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		header := row.ChildrenFiltered("th").First()
		if header.Length() == 0 || !strings.EqualFold(collapse(header.Text()), name) {
			return true
		}
		cell := row.ChildrenFiltered("td").First()
		if cell.Length() == 0 {
			return true
		}
		field = battletally.Present(cellText(cell))
		return false
	})
	return field
}

// cellText returns the text of a cell with line breaks and block elements
// turned into spaces, so "Swedish victory<br>Treaty of Travendal" keeps its
// words apart.
func cellText(cell *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Br, atom.P, atom.Div, atom.Li, atom.Ul, atom.Ol:
				b.WriteByte(' ')
				defer b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range cell.Nodes {
		walk(n)
	}
	return collapse(b.String())
}

// collapse trims text and folds internal whitespace runs into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
