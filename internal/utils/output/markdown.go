package output

import (
	"fmt"
	"io"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/homeharvest/pkg/models"
	"golang.org/x/net/html"
)

// WriteMarkdown writes the table as a GitHub-flavoured Markdown table
func WriteMarkdown(w io.Writer, t models.Table) error {
	var sb strings.Builder
	if err := html.Render(&sb, tableNode(t)); err != nil {
		return err
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	// Photos render as links; inline images make wide tables unreadable
	converter.AddRules(md.Rule{
		Filter: []string{"img"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			src, ok := selec.Attr("src")
			if !ok {
				return nil
			}
			s := fmt.Sprintf("[photo](%s)", src)
			return &s
		},
	})

	out, err := converter.ConvertString(sb.String())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out+"\n")
	return err
}
