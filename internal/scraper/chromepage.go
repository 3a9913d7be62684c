package scraper

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/chromedp"
)

// ChromePage drives the sidebar of the page loaded in a chromedp context.
type ChromePage struct {
	ContainerSel string
	TitleSel     string
}

// Sample sets the container's scrollTop to its scrollHeight and reports the
// number of title elements and the scroll height.
func (p ChromePage) Sample(ctx context.Context) (Sample, error) {
	js := fmt.Sprintf(`(() => {
	  const el = document.querySelector(%s);
	  if (!el) return {found:false, count:0, height:0};
	  el.scrollTop = el.scrollHeight;
	  return {found:true, count: el.querySelectorAll(%s).length, height: el.scrollHeight};
	})()`, jsString(p.ContainerSel), jsString(p.TitleSel))
	var s Sample
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &s)); err != nil {
		return Sample{}, err
	}
	return s, nil
}

// Titles returns the raw textContent of every title element in the container.
func (p ChromePage) Titles(ctx context.Context) ([]string, error) {
	js := fmt.Sprintf(`(() => {
	  const el = document.querySelector(%s);
	  if (!el) return {found:false, titles:[]};
	  return {found:true, titles: Array.from(el.querySelectorAll(%s), e => e.textContent || '')};
	})()`, jsString(p.ContainerSel), jsString(p.TitleSel))
	var res struct {
		Found  bool     `json:"found"`
		Titles []string `json:"titles"`
	}
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &res)); err != nil {
		return nil, err
	}
	if !res.Found {
		return nil, ErrContainerNotFound
	}
	return res.Titles, nil
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
