package scraper

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
)

// RawTitlesHTML returns the untrimmed text of every title element inside the
// first element matching containerSel in a saved copy of the page.
func RawTitlesHTML(r io.Reader, containerSel, titleSel string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	container := doc.Find(containerSel).First()
	if container.Length() == 0 {
		return nil, ErrContainerNotFound
	}
	var raw []string
	container.Find(titleSel).Each(func(_ int, s *goquery.Selection) {
		raw = append(raw, s.Text())
	})
	return raw, nil
}

// ExtractHTML is RawTitlesHTML followed by FilterTitles.
func ExtractHTML(r io.Reader, containerSel, titleSel string, excluded []string) ([]string, error) {
	raw, err := RawTitlesHTML(r, containerSel, titleSel)
	if err != nil {
		return nil, err
	}
	return FilterTitles(raw, excluded), nil
}
