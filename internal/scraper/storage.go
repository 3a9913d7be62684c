package scraper

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Output formats accepted by Encode and SaveTitles.
const (
	FormatText = "txt"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// DefaultFilename is the name the titles file is saved under.
const DefaultFilename = "gemini_chat_titles.txt"

var ErrUnknownFormat = errors.New("unknown format")

// EncodeText joins titles with newlines.
func EncodeText(titles []string) []byte {
	return []byte(JoinTitles(titles))
}

// EncodeJSON encodes titles as a pretty JSON array. A nil slice encodes as [].
func EncodeJSON(titles []string) ([]byte, error) {
	if titles == nil {
		titles = []string{}
	}
	return json.MarshalIndent(titles, "", "  ")
}

// EncodeCSV encodes titles as CSV with an index,title header. Indexes are 1-based.
func EncodeCSV(titles []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"index", "title"}); err != nil {
		return nil, err
	}
	for i, t := range titles {
		if err := w.Write([]string{strconv.Itoa(i + 1), t}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode dispatches on format.
func Encode(format string, titles []string) ([]byte, error) {
	switch format {
	case FormatText, "":
		return EncodeText(titles), nil
	case FormatJSON:
		return EncodeJSON(titles)
	case FormatCSV:
		return EncodeCSV(titles)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// SaveTitles encodes titles and writes them to path, creating parent directories.
func SaveTitles(path, format string, titles []string) error {
	data, err := Encode(format, titles)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
