package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/webresearch/research-bridge/pkg/fetch"
)

func (e *Extractor) extractPDF(result *fetch.Result) Extraction {
	if result.Artifact == nil {
		return failed("pdf was not staged")
	}
	file, err := result.Artifact.Open()
	if err != nil {
		return failed("open staged pdf: %v", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return failed("stat staged pdf: %v", err)
	}

	text, title, err := e.pdfText(file, info.Size())
	if err != nil {
		// Unreadable documents count as empty.
		return empty(fmt.Sprintf("%s (%v)", ReasonNoPDFText, err))
	}
	if text == "" {
		return empty(ReasonNoPDFText)
	}
	return Extraction{Text: text, Title: title, Outcome: OutcomeOK}
}

// pdfText reads pages in order and joins the non-empty ones with newlines.
// The pdf package reports some malformed input by panicking.
func (e *Extractor) pdfText(r io.ReaderAt, size int64) (text, title string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, title, err = "", "", fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", "", err
	}

	pages := reader.NumPage()
	if e.cfg.MaxPDFPages > 0 && pages > e.cfg.MaxPDFPages {
		pages = e.cfg.MaxPDFPages
	}
	texts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			e.log.Debug().Err(err).Int("page", i).Msg("Skipping unreadable PDF page")
			continue
		}
		if pageText = strings.TrimSpace(pageText); pageText != "" {
			texts = append(texts, pageText)
		}
	}
	title = strings.TrimSpace(reader.Trailer().Key("Info").Key("Title").Text())
	return strings.Join(texts, "\n"), title, nil
}
