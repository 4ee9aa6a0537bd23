// Package pdftext turns a PDF document into plain text for the reference
// pipeline. It is the default implementation of the text-extraction
// collaborator; any other extractor can feed the engine the same way.
package pdftext

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrExtraction marks documents that could not be read as text. It is
// fatal to the job that submitted the document.
var ErrExtraction = errors.New("text extraction failed")

// FromFile extracts the plain text of every page in the PDF at path.
// Pages that fail individually are skipped; a document yielding no text at
// all is an extraction failure.
func FromFile(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrExtraction, path, err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("%w: no extractable text in %s", ErrExtraction, path)
	}
	return out, nil
}
