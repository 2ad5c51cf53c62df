package output

import (
	"io"

	urlutil "github.com/law-makers/homeharvest/internal/utils/url"
	"github.com/law-makers/homeharvest/pkg/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// WriteHTML writes the table as a standalone HTML document. Link-valued
// cells become anchors and photo cells become images.
func WriteHTML(w io.Writer, t models.Table) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	doc.AppendChild(root)
	body := element(atom.Body)
	root.AppendChild(body)
	body.AppendChild(tableNode(t))

	return html.Render(w, doc)
}

func tableNode(t models.Table) *html.Node {
	table := element(atom.Table)

	thead := element(atom.Thead)
	tr := element(atom.Tr)
	for _, col := range t.Columns {
		th := element(atom.Th)
		th.AppendChild(text(col))
		tr.AppendChild(th)
	}
	thead.AppendChild(tr)
	table.AppendChild(thead)

	tbody := element(atom.Tbody)
	for _, row := range t.Rows {
		tr := element(atom.Tr)
		for i, col := range t.Columns {
			td := element(atom.Td)
			if n := cellNode(col, cellString(row[i])); n != nil {
				td.AppendChild(n)
			}
			tr.AppendChild(td)
		}
		tbody.AppendChild(tr)
	}
	table.AppendChild(tbody)
	return table
}

func cellNode(column, value string) *html.Node {
	if value == "" {
		return nil
	}
	if urlutil.ValidateURL(value) != nil {
		return text(value)
	}

	if column == "primary_photo" {
		img := element(atom.Img)
		img.Attr = []html.Attribute{{Key: "src", Val: value}, {Key: "alt", Val: column}}
		return img
	}
	a := element(atom.A)
	a.Attr = []html.Attribute{{Key: "href", Val: value}}
	a.AppendChild(text(value))
	return a
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
