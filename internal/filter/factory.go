package filter

import (
	"fmt"

	"github.com/fyrsmithlabs/docqd/internal/config"
	"github.com/fyrsmithlabs/docqd/internal/llm"
)

// New builds the configured classifier wrapped with the configured fallback.
// The generator is only consulted in policy mode.
func New(cfg config.FilterConfig, generator llm.Generator) (Classifier, error) {
	var inner Classifier
	switch cfg.Mode {
	case config.FilterModeDenylist, "":
		inner = NewDenylist(cfg.Denylist)
	case config.FilterModePolicy:
		if generator == nil {
			return nil, fmt.Errorf("policy filter requires a generator")
		}
		inner = NewPolicy(generator)
	default:
		return nil, fmt.Errorf("unsupported filter mode %q (supported: denylist, policy)", cfg.Mode)
	}

	return NewFallback(inner, cfg.Fallback == config.FilterFallbackOpen), nil
}
