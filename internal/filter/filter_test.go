package filter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/docqd/internal/config"
	"github.com/fyrsmithlabs/docqd/internal/filter"
)

// fakeGenerator returns a canned response or error.
type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (g *fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	g.calls++
	return g.response, g.err
}

func TestDenylist_Classify(t *testing.T) {
	d := filter.NewDenylist([]string{"fuck", "idiot", ""})

	tests := []struct {
		name       string
		text       string
		admissible bool
		reason     string
	}{
		{name: "clean", text: "What is Alpha?", admissible: true},
		{name: "exact term", text: "fuck you", admissible: false, reason: "fuck"},
		{name: "case insensitive", text: "you IDIOT", admissible: false, reason: "idiot"},
		{name: "embedded", text: "xxidiotxx", admissible: false, reason: "idiot"},
		{name: "empty text", text: "", admissible: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := d.Classify(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.admissible, verdict.Admissible)
			if !tt.admissible {
				assert.Contains(t, verdict.Reason, tt.reason)
			}
		})
	}
}

func TestDenylist_Idempotent(t *testing.T) {
	d := filter.NewDenylist([]string{"bad"})

	first, err := d.Classify(context.Background(), "a bad word")
	require.NoError(t, err)
	second, err := d.Classify(context.Background(), "a bad word")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPolicy_Classify(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		admissible bool
	}{
		{name: "ok", response: "OK", admissible: true},
		{name: "flagged", response: "BAD_WORD_FOUND", admissible: false},
		{name: "flagged with chatter", response: "The answer is: bad_word_found.", admissible: false},
		{name: "unexpected response admits", response: "I am not sure", admissible: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filter.NewPolicy(&fakeGenerator{response: tt.response})
			verdict, err := p.Classify(context.Background(), "some text")
			require.NoError(t, err)
			assert.Equal(t, tt.admissible, verdict.Admissible)
		})
	}
}

func TestPolicy_GeneratorError(t *testing.T) {
	p := filter.NewPolicy(&fakeGenerator{err: errors.New("connection refused")})

	_, err := p.Classify(context.Background(), "some text")
	require.Error(t, err)
}

func TestFallback_Open(t *testing.T) {
	inner := filter.NewPolicy(&fakeGenerator{err: errors.New("unreachable")})
	f := filter.NewFallback(inner, true)

	verdict, err := f.Classify(context.Background(), "anything")
	assert.True(t, verdict.Admissible)
	// Error is surfaced for logging even though the text is admitted.
	require.Error(t, err)
	assert.ErrorIs(t, err, filter.ErrFilterUnavailable)
}

func TestFallback_Closed(t *testing.T) {
	inner := filter.NewPolicy(&fakeGenerator{err: errors.New("unreachable")})
	f := filter.NewFallback(inner, false)

	verdict, err := f.Classify(context.Background(), "anything")
	assert.False(t, verdict.Admissible)
	assert.Contains(t, verdict.Reason, "unavailable")
	require.Error(t, err)
	assert.ErrorIs(t, err, filter.ErrFilterUnavailable)
}

func TestFallback_PassThrough(t *testing.T) {
	f := filter.NewFallback(filter.NewDenylist([]string{"bad"}), false)

	verdict, err := f.Classify(context.Background(), "all good")
	require.NoError(t, err)
	assert.True(t, verdict.Admissible)
}

func TestNew(t *testing.T) {
	t.Run("denylist", func(t *testing.T) {
		c, err := filter.New(config.FilterConfig{
			Mode:     config.FilterModeDenylist,
			Fallback: config.FilterFallbackClosed,
			Denylist: []string{"bad"},
		}, nil)
		require.NoError(t, err)

		verdict, err := c.Classify(context.Background(), "bad word")
		require.NoError(t, err)
		assert.False(t, verdict.Admissible)
	})

	t.Run("policy requires generator", func(t *testing.T) {
		_, err := filter.New(config.FilterConfig{Mode: config.FilterModePolicy}, nil)
		require.Error(t, err)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := filter.New(config.FilterConfig{Mode: "regex"}, nil)
		require.Error(t, err)
	})
}
