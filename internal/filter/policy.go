package filter

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/docqd/internal/llm"
)

// policyProbe is the binary-verdict prompt sent to the policy model. The
// model answers OK for clean text and BAD_WORD_FOUND otherwise.
const policyProbe = `Check the following text for profanity or abusive language.
If the text contains profanity or abuse, output only 'BAD_WORD_FOUND'.
If the text is clean, output only 'OK'.
Text: %s`

const policyBadMarker = "BAD_WORD_FOUND"

// Policy delegates classification to a language model returning a binary
// verdict.
type Policy struct {
	generator llm.Generator
}

// NewPolicy creates a policy-model classifier.
func NewPolicy(generator llm.Generator) *Policy {
	return &Policy{generator: generator}
}

// Classify asks the policy model for a verdict. A model failure is returned
// as an error for the Fallback wrapper to resolve.
func (p *Policy) Classify(ctx context.Context, text string) (Verdict, error) {
	response, err := p.generator.Generate(ctx, fmt.Sprintf(policyProbe, text))
	if err != nil {
		return Verdict{}, fmt.Errorf("policy model: %w", err)
	}

	if strings.Contains(strings.ToUpper(response), policyBadMarker) {
		return Reject("flagged by policy model"), nil
	}
	return Admit(), nil
}
