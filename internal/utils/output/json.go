package output

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/law-makers/homeharvest/pkg/models"
)

// record marshals one row as an object keeping column order
type record struct {
	columns []string
	values  []any
}

func (r record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteJSON writes an indented array of row objects; missing cells are null
func WriteJSON(w io.Writer, t models.Table) error {
	records := make([]record, len(t.Rows))
	for i, row := range t.Rows {
		records[i] = record{columns: t.Columns, values: row}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}
