// Package selector pulls text and attributes out of HTML documents with CSS
// selectors.
package selector

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Texts returns the trimmed text of every element matching css, in
// document order.
func Texts(html, css string) ([]string, error) {
	doc, err := parse(html, css)
	if err != nil {
		return nil, err
	}
	var texts []string
	doc.Find(css).Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(s.Text()))
	})
	return texts, nil
}

// Attrs returns the value of attr on every matching element that has it.
func Attrs(html, css, attr string) ([]string, error) {
	doc, err := parse(html, css)
	if err != nil {
		return nil, err
	}
	var values []string
	doc.Find(css).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr(attr); ok {
			values = append(values, v)
		}
	})
	return values, nil
}

func parse(html, css string) (*goquery.Document, error) {
	if strings.TrimSpace(css) == "" {
		return nil, fmt.Errorf("empty selector")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}
