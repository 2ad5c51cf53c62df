// Package output writes a models.Table in the supported export formats.
package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/law-makers/homeharvest/pkg/models"
)

// Format names an export format
type Format string

const (
	FormatCSV      Format = "csv"
	FormatExcel    Format = "excel"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// Formats lists the accepted format names
func Formats() []Format {
	return []Format{FormatCSV, FormatExcel, FormatJSON, FormatYAML, FormatHTML, FormatMarkdown}
}

// ParseFormat resolves a case-insensitive format name or common alias
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx", "spreadsheet":
		return FormatExcel, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Ext returns the file extension for the format, including the dot
func (f Format) Ext() string {
	switch f {
	case FormatExcel:
		return ".xlsx"
	case FormatMarkdown:
		return ".md"
	}
	return "." + string(f)
}

// Write encodes t to w in the given format
func Write(w io.Writer, t models.Table, format Format) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatExcel:
		return WriteExcel(w, t)
	case FormatJSON:
		return WriteJSON(w, t)
	case FormatYAML:
		return WriteYAML(w, t)
	case FormatHTML:
		return WriteHTML(w, t)
	case FormatMarkdown:
		return WriteMarkdown(w, t)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// Save writes t to path, creating or truncating the file
func Save(t models.Table, format Format, path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(file, t, format)
}

// cellString renders a table cell for text formats; nil is empty
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}
	return fmt.Sprint(v)
}
