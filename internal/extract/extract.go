// Package extract converts uploaded document blobs into plain text.
//
// Supported content types:
//   - text/plain: passthrough
//   - application/pdf: text extraction via ledongthuc/pdf with a
//     printable-text fallback for malformed files
//   - application/vnd.openxmlformats-officedocument.wordprocessingml.document:
//     document.xml extraction from the zip container
//
// Unsupported types are a reportable rejection (ErrUnsupportedType), never a
// crash.
package extract

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Content types accepted by Extract.
const (
	TypeText = "text/plain"
	TypePDF  = "application/pdf"
	TypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Sentinel errors for extraction.
var (
	// ErrUnsupportedType is returned for content types Extract cannot handle.
	ErrUnsupportedType = errors.New("unsupported content type")

	// ErrNoText indicates the document contained no extractable text.
	ErrNoText = errors.New("document contains no extractable text")
)

// Extract converts a document blob into plain text based on its declared
// content type. The content type may carry parameters ("text/plain;
// charset=utf-8"); only the media type is considered.
func Extract(blob []byte, contentType string) (string, error) {
	mediaType := contentType
	if idx := strings.IndexByte(mediaType, ';'); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	var (
		text string
		err  error
	)
	switch mediaType {
	case TypeText:
		text = string(blob)
	case TypePDF:
		text, err = extractPDF(blob)
	case TypeDocx:
		text, err = extractDocx(blob)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// printableText keeps printable runes and whitespace, dropping control bytes.
// Used as a last-resort fallback for malformed PDF payloads.
func printableText(in []byte) string {
	var out strings.Builder
	for len(in) > 0 {
		r, size := utf8.DecodeRune(in)
		if r == utf8.RuneError && size == 1 {
			b := in[0]
			if b == '\n' || b == '\r' || b == '\t' || (b >= 32 && b < 127) {
				out.WriteByte(b)
			}
			in = in[1:]
			continue
		}
		in = in[size:]
		if r == '\n' || r == '\r' || r == '\t' || r >= 32 {
			out.WriteRune(r)
		}
	}
	return out.String()
}
