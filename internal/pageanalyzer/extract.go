package pageanalyzer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/Bahjat/seo-monitor/internal/model"
	"github.com/Bahjat/seo-monitor/internal/platform/errs"
)

// Extraction step names, reported in ExtractionFailed errors.
const (
	StepMeta           = "meta"
	StepHeaders        = "headers"
	StepImages         = "images"
	StepWordCount      = "word_count"
	StepKeywordDensity = "keyword_density"
)

var errEmptyDocument = errors.New("document has no root node")

// step computes one metric of the analysis from the document tree.
type step struct {
	name string
	run  func(doc *goquery.Document, out *model.PageAnalysis) error
}

var defaultSteps = []step{
	{name: StepMeta, run: extractMeta},
	{name: StepHeaders, run: extractHeaders},
	{name: StepImages, run: extractImages},
	{name: StepWordCount, run: extractWordCount},
	{name: StepKeywordDensity, run: extractKeywordDensity},
}

// runSteps executes every step against doc. The first failure aborts the
// run and is reported with the step's name.
func runSteps(steps []step, doc *goquery.Document, out *model.PageAnalysis) error {
	for _, s := range steps {
		if err := runStep(s, doc, out); err != nil {
			return err
		}
	}
	return nil
}

func runStep(s step, doc *goquery.Document, out *model.PageAnalysis) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &errs.AppError{
				Kind:    errs.ExtractionFailed,
				Step:    s.name,
				Message: fmt.Sprintf("Failed to extract %s from the page.", s.name),
				Cause:   fmt.Errorf("panic: %v", r),
			}
		}
	}()

	if doc == nil || len(doc.Nodes) == 0 {
		return &errs.AppError{
			Kind:    errs.ExtractionFailed,
			Step:    s.name,
			Message: fmt.Sprintf("Failed to extract %s from the page.", s.name),
			Cause:   errEmptyDocument,
		}
	}

	if err := s.run(doc, out); err != nil {
		return &errs.AppError{
			Kind:    errs.ExtractionFailed,
			Step:    s.name,
			Message: fmt.Sprintf("Failed to extract %s from the page.", s.name),
			Cause:   err,
		}
	}
	return nil
}

func extractMeta(doc *goquery.Document, out *model.PageAnalysis) error {
	meta := model.MetaInfo{Title: model.NoTitle}

	if title := doc.Find("title").First(); title.Length() > 0 {
		meta.Title = title.Text()
	}
	meta.Description = metaContent(doc, "description", model.NoDescription)
	meta.Keywords = metaContent(doc, "keywords", model.NoKeywords)

	out.Meta = meta
	return nil
}

// metaContent returns the content attribute of the first <meta> whose name
// is exactly name. A matching tag without content yields missing; no
// matching tag yields "".
func metaContent(doc *goquery.Document, name, missing string) string {
	sel := doc.Find("meta[name]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("name")
		return v == name
	}).First()
	if sel.Length() == 0 {
		return ""
	}
	return sel.AttrOr("content", missing)
}

func extractHeaders(doc *goquery.Document, out *model.PageAnalysis) error {
	headers := model.NewHeaderMap()
	for _, level := range model.HeadingLevels {
		doc.Find(level).Each(func(_ int, s *goquery.Selection) {
			headers[level] = append(headers[level], strings.TrimSpace(s.Text()))
		})
	}
	out.Headers = headers
	return nil
}

func extractImages(doc *goquery.Document, out *model.PageAnalysis) error {
	images := []model.ImageEntry{}
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		images = append(images, model.ImageEntry{
			Source: s.AttrOr("src", model.NoSource),
			Alt:    s.AttrOr("alt", model.NoAlt),
		})
	})
	out.Images = images
	return nil
}

func extractWordCount(doc *goquery.Document, out *model.PageAnalysis) error {
	count := 0
	for _, text := range visibleText(doc) {
		count += len(strings.Fields(text))
	}
	out.WordCount = count
	return nil
}

func extractKeywordDensity(doc *goquery.Document, out *model.PageAnalysis) error {
	out.KeywordDensity = keywordDensity(strings.Join(visibleText(doc), ""))
	return nil
}

// hiddenElements hold text that is never rendered as page content.
var hiddenElements = map[string]bool{
	"script":   true,
	"style":    true,
	"template": true,
}

// visibleText returns the text nodes of the document in document order,
// skipping the contents of hidden elements. Comments and the doctype are
// not text nodes and never appear.
func visibleText(doc *goquery.Document) []string {
	var texts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			texts = append(texts, n.Data)
			return
		case html.ElementNode:
			if hiddenElements[n.Data] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return texts
}
