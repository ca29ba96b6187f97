package extract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// extractPDF pulls plain text out of a PDF blob. When the PDF reader cannot
// parse the file, it falls back to scanning for printable text so a slightly
// corrupt upload still produces something indexable.
func extractPDF(blob []byte) (string, error) {
	if len(blob) == 0 {
		return "", fmt.Errorf("extracting pdf: %w", ErrNoText)
	}

	r, err := pdf.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return printableText(blob), nil
	}

	reader, err := r.GetPlainText()
	if err != nil {
		return printableText(blob), nil
	}

	out, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	if len(out) == 0 {
		return printableText(blob), nil
	}
	return string(out), nil
}
