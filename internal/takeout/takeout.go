// Package takeout extracts Gemini prompts from a Google Takeout
// "My Activity" HTML export.
package takeout

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	// DefaultFilename is the CSV the prompts are saved to.
	DefaultFilename = "extracted_gemini_prompts.csv"
	// DefaultMaxLen drops pasted documents and other very long prompts.
	DefaultMaxLen = 1500

	cellSel = "div.outer-cell"
)

// promptRe matches a cell's concatenated text: product, action, prompt, then
// the date of the activity. The prompt is the shortest run before a date.
var promptRe = regexp.MustCompile(`(?s)^Gemini AppsPrompted(.*?)([A-Z][a-z]{2}\s+\d{1,2},\s+\d{4})`)

// Prompt is one prompt sent to Gemini.
type Prompt struct {
	Text string `json:"text"`
	Date string `json:"date"`
}

// ExtractPrompts returns the prompts found in a My Activity export, in
// document order, together with the number of activity cells seen. Cells that
// are not prompts are skipped, as are prompts of maxLen characters or more
// (maxLen <= 0 keeps everything).
func ExtractPrompts(r io.Reader, maxLen int) ([]Prompt, int, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("parse html: %w", err)
	}
	cells := doc.Find(cellSel)
	var prompts []Prompt
	cells.Each(func(_ int, cell *goquery.Selection) {
		p, ok := parseCell(strippedText(cell))
		if !ok {
			return
		}
		if maxLen > 0 && utf8.RuneCountInString(p.Text) >= maxLen {
			return
		}
		prompts = append(prompts, p)
	})
	return prompts, cells.Length(), nil
}

func parseCell(text string) (Prompt, bool) {
	m := promptRe.FindStringSubmatch(text)
	if m == nil {
		return Prompt{}, false
	}
	return Prompt{Text: strings.TrimSpace(m[1]), Date: m[2]}, true
}

// strippedText concatenates every text node under sel after trimming each
// one, without separators.
func strippedText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}

// EncodeCSV encodes prompts as CSV with a Prompt_Text,Date_String header.
func EncodeCSV(prompts []Prompt) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Prompt_Text", "Date_String"}); err != nil {
		return nil, err
	}
	for _, p := range prompts {
		if err := w.Write([]string{p.Text, p.Date}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveCSV writes prompts as CSV to path, creating parent directories.
func SaveCSV(path string, prompts []Prompt) error {
	data, err := EncodeCSV(prompts)
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
