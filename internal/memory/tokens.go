package memory

import (
	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates the token cost of a piece of text.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with a tiktoken encoding, falling back to a
// bytes/4 estimate when the encoding could not be loaded.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding (e.g. cl100k_base). Loading
// can fail offline; the counter then estimates instead of failing requests.
func NewTiktokenCounter(encodingName string) *TiktokenCounter {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return &TiktokenCounter{}
	}
	return &TiktokenCounter{encoding: enc}
}

// Count returns the token count for text.
func (c *TiktokenCounter) Count(text string) int {
	if c.encoding == nil {
		return estimateTokens(text)
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// estimateTokens approximates tokens as bytes/4, the usual rule of thumb
// for English text.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(text)/4 + 1
}

// EstimateCounter is a TokenCounter using only the bytes/4 estimate. Used in
// tests and as an explicit offline choice.
type EstimateCounter struct{}

// Count returns the estimated token count for text.
func (EstimateCounter) Count(text string) int {
	return estimateTokens(text)
}
