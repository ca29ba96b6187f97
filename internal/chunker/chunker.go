// Package chunker splits extracted document text into overlapping segments
// sized for embedding.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidParams indicates invalid chunk size or overlap.
var ErrInvalidParams = errors.New("invalid chunk parameters")

// Chunk is a bounded text segment derived from a document. It is the unit of
// embedding and retrieval.
type Chunk struct {
	// DocumentID identifies the parent document.
	DocumentID string

	// Index is the ordinal position of the chunk within the document.
	Index int

	// Text is the chunk content, including any overlap with the previous chunk.
	Text string

	// Overlap is the number of bytes shared with the end of the previous chunk.
	// Zero for the first chunk.
	Overlap int
}

// ID returns the stable chunk identifier, derived from the parent document
// and the ordinal index.
func (c Chunk) ID() string {
	return fmt.Sprintf("%s_%d", c.DocumentID, c.Index)
}

// Splitter produces overlapping chunks with a preferred boundary character.
type Splitter struct {
	// Size is the maximum chunk length in bytes. Must be positive.
	Size int

	// Overlap is the number of bytes consecutive chunks share.
	// Must satisfy 0 <= Overlap < Size.
	Overlap int

	// Boundary is the preferred split character. Defaults to '\n'.
	Boundary byte
}

// NewSplitter creates a Splitter with newline as the preferred boundary.
func NewSplitter(size, overlap int) *Splitter {
	return &Splitter{Size: size, Overlap: overlap, Boundary: '\n'}
}

// Validate checks the splitter parameters.
func (s *Splitter) Validate() error {
	if s.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidParams, s.Size)
	}
	if s.Overlap < 0 || s.Overlap >= s.Size {
		return fmt.Errorf("%w: overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d", ErrInvalidParams, s.Overlap, s.Size)
	}
	return nil
}

// Split divides text into chunks of at most Size bytes where consecutive
// chunks share up to Overlap bytes. Splits prefer the boundary character when
// one falls inside the window; otherwise the cut is a hard one. Every byte of
// the input is covered: the first chunk taken whole, followed by each later
// chunk with its Overlap prefix removed, reconstructs the input exactly.
//
// Empty input yields an empty slice and no error.
func (s *Splitter) Split(documentID, text string) ([]Chunk, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if text == "" {
		return []Chunk{}, nil
	}

	boundary := s.Boundary
	if boundary == 0 {
		boundary = '\n'
	}

	chunks := []Chunk{}
	start := 0
	overlap := 0
	for start < len(text) {
		end := start + s.Size
		if end >= len(text) {
			end = len(text)
		} else if idx := strings.LastIndexByte(text[start:end], boundary); idx >= s.Overlap {
			// Split after the boundary so the separator stays with the
			// leading chunk. The boundary must lie past the overlap region
			// or the next chunk would make no forward progress.
			end = start + idx + 1
		}

		chunks = append(chunks, Chunk{
			DocumentID: documentID,
			Index:      len(chunks),
			Text:       text[start:end],
			Overlap:    overlap,
		})

		if end == len(text) {
			break
		}

		next := end - s.Overlap
		if next <= start {
			next = start + 1
		}
		overlap = end - next
		start = next
	}

	return chunks, nil
}

// Reassemble concatenates the non-overlapping spans of chunks, reconstructing
// the original text. Chunks must be in index order.
func Reassemble(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text[c.Overlap:])
	}
	return b.String()
}
