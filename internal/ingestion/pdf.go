package ingestion

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF opens the PDF at path and returns one section per page with a
// "page N" locator. Pages that yield no extractable text are skipped; a PDF
// with no extractable text at all (e.g. scanned images) returns an error so
// the operator notices instead of silently ingesting nothing.
func extractPDF(path string) ([]section, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	sections := make([]section, 0, numPages)

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extracting page %d: %w", i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		sections = append(sections, section{
			text:    text,
			locator: fmt.Sprintf("page %d", i),
		})
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("no extractable text in %s", path)
	}

	return sections, nil
}
