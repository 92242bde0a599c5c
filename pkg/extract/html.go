package extract

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/webresearch/research-bridge/pkg/fetch"
)

func (e *Extractor) extractHTML(result *fetch.Result) Extraction {
	body, err := decodeHTML(result)
	if err != nil {
		return failed("decode html: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return failed("parse html: %v", err)
	}
	text := paragraphText(mainContainer(doc), e.cfg.MinParagraphChars)
	if utf8.RuneCountInString(text) <= e.cfg.MinTotalChars {
		return empty(ReasonNoHTMLText)
	}
	return Extraction{
		Text:    text,
		Title:   pageTitle(body, doc),
		Outcome: OutcomeOK,
	}
}

// decodeHTML converts the body to UTF-8 using the header charset, then <meta>
// declarations, then content sniffing.
func decodeHTML(result *fetch.Result) ([]byte, error) {
	if len(result.Body) == 0 {
		return result.Body, nil
	}
	contentType := result.ContentType
	if contentType == "" {
		contentType = "text/html"
	}
	if result.Charset != "" {
		contentType += "; charset=" + result.Charset
	}
	reader, err := charset.NewReader(bytes.NewReader(result.Body), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(reader)
}

// mainContainer picks the first <article>, else the first div.content, else
// <body>.
func mainContainer(doc *goquery.Document) *goquery.Selection {
	if article := doc.Find("article").First(); article.Length() > 0 {
		return article
	}
	if content := doc.Find("div.content").First(); content.Length() > 0 {
		return content
	}
	return doc.Find("body").First()
}

// paragraphText joins the <p> texts under container that are longer than
// minChars, separated by single spaces.
func paragraphText(container *goquery.Selection, minChars int) string {
	var parts []string
	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := collapseSpace(p.Text())
		if utf8.RuneCountInString(text) > minChars {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

func collapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
