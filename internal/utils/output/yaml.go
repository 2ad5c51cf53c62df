package output

import (
	"io"

	"github.com/law-makers/homeharvest/pkg/models"
	"gopkg.in/yaml.v3"
)

// WriteYAML writes a sequence of row mappings in column order
func WriteYAML(w io.Writer, t models.Table) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range t.Rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for i, col := range t.Columns {
			val := &yaml.Node{}
			if err := val.Encode(row[i]); err != nil {
				return err
			}
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: col},
				val,
			)
		}
		doc.Content = append(doc.Content, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
