// Package filter classifies user input as admissible or rejected before it
// reaches retrieval or inference.
//
// Two strategies are available, selected by configuration: a deterministic
// denylist match and delegation to a policy model. Both are side-effect-free
// on the input text: the filter gates proceed/stop, it never mutates or
// redacts.
package filter

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrFilterUnavailable indicates the classifier itself failed (e.g. the
// policy model is unreachable). The Fallback wrapper resolves it per
// configuration; it is never silently swallowed.
var ErrFilterUnavailable = errors.New("content filter unavailable")

// Verdict is the result of classifying a piece of text.
type Verdict struct {
	// Admissible reports whether the text may proceed.
	Admissible bool

	// Reason explains a rejection. Empty for admissible text.
	Reason string
}

// Admit is the verdict for admissible text.
func Admit() Verdict {
	return Verdict{Admissible: true}
}

// Reject builds a rejection verdict with a reason.
func Reject(reason string) Verdict {
	return Verdict{Admissible: false, Reason: reason}
}

// Classifier decides whether text is admissible. Implementations must be
// idempotent and must not mutate the text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Verdict, error)
}

// Denylist rejects text containing any configured term, case-insensitive.
type Denylist struct {
	terms []string
}

// NewDenylist creates a denylist classifier. Terms are matched as
// case-insensitive substrings; empty terms are dropped.
func NewDenylist(terms []string) *Denylist {
	kept := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			kept = append(kept, t)
		}
	}
	return &Denylist{terms: kept}
}

// Classify reports the first matched term in the rejection reason.
func (d *Denylist) Classify(_ context.Context, text string) (Verdict, error) {
	lower := strings.ToLower(text)
	for _, term := range d.terms {
		if strings.Contains(lower, term) {
			return Reject(fmt.Sprintf("contains denied term %q", term)), nil
		}
	}
	return Admit(), nil
}

// Fallback wraps a Classifier with a defined behavior for classifier
// failure: fail-open admits the text, fail-closed rejects it. The underlying
// error is surfaced on the verdict path chosen, never hidden.
type Fallback struct {
	inner Classifier
	open  bool
}

// NewFallback wraps inner. When open is true a classifier failure admits the
// text (fail-open); otherwise it rejects (fail-closed).
func NewFallback(inner Classifier, open bool) *Fallback {
	return &Fallback{inner: inner, open: open}
}

// Classify delegates to the wrapped classifier, resolving its errors per the
// configured fallback. The returned error is non-nil exactly when the inner
// classifier failed, so callers can log the degradation.
func (f *Fallback) Classify(ctx context.Context, text string) (Verdict, error) {
	verdict, err := f.inner.Classify(ctx, text)
	if err == nil {
		return verdict, nil
	}

	wrapped := fmt.Errorf("%w: %v", ErrFilterUnavailable, err)
	if f.open {
		return Admit(), wrapped
	}
	return Reject("content filter unavailable"), wrapped
}
