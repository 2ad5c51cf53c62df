package output

import (
	"encoding/csv"
	"io"

	"github.com/law-makers/homeharvest/pkg/models"
)

// WriteCSV writes a header row followed by one record per property
func WriteCSV(w io.Writer, t models.Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Columns); err != nil {
		return err
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = cellString(row[i])
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
