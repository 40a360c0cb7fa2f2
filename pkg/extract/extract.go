package extract

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/quka-ai/studymate/pkg/ai"
	"github.com/quka-ai/studymate/pkg/utils"
)

var ErrUnsupported = errors.New("unsupported document type")

// Extractor reads plain text out of uploaded documents. Text and HTML are handled
// locally, binary formats go to the ai extractor when one is set.
type Extractor struct {
	ai ai.Extractor
}

func New(e ai.Extractor) *Extractor {
	return &Extractor{ai: e}
}

func (e *Extractor) Extract(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	contentType = utils.CleanContentType(contentType)
	switch {
	case contentType == "text/html" || hasExt(fileName, ".html", ".htm"):
		return HTMLText(data)
	case strings.HasPrefix(contentType, "text/") || hasExt(fileName, ".txt", ".md", ".markdown", ".csv"):
		if !utf8.Valid(data) {
			return "", ErrUnsupported
		}
		return strings.TrimSpace(string(data)), nil
	case contentType == "application/pdf" || utils.IsImageType(contentType):
		if e.ai == nil {
			return "", ErrUnsupported
		}
		return e.ai.ExtractText(ctx, ai.InlineData{MimeType: contentType, Data: data})
	}
	return "", ErrUnsupported
}

func hasExt(name string, exts ...string) bool {
	name = strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

var blockTags = "p, h1, h2, h3, h4, h5, h6, li, pre, blockquote, td, th"

// HTMLText returns the readable text of an html page, one block per line.
func HTMLText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, nav, footer, header").Remove()

	var lines []string
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		lines = append(lines, title)
	}
	doc.Find("body").Find(blockTags).Each(func(_ int, s *goquery.Selection) {
		// nested blocks are emitted by their own match
		if s.Find(blockTags).Length() > 0 {
			return
		}
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			lines = append(lines, text)
		}
	})

	if len(lines) == 0 {
		return strings.Join(strings.Fields(doc.Find("body").Text()), " "), nil
	}
	return strings.Join(lines, "\n"), nil
}
