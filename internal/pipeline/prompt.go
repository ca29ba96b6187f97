package pipeline

import (
	"strings"

	"github.com/fyrsmithlabs/docqd/internal/memory"
	"github.com/fyrsmithlabs/docqd/internal/vectorstore"
)

const promptPreamble = `You are a helpful assistant. Answer the question using the provided document context. If the context does not contain the answer, say so instead of guessing.`

// composePrompt builds the model prompt from retrieved context, prior turns
// in chronological order and the current question.
func composePrompt(question string, hits []vectorstore.Hit, turns []memory.Turn) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n\n")

	if len(hits) > 0 {
		b.WriteString("Context:\n")
		for _, h := range hits {
			b.WriteString(h.Chunk.Text)
			b.WriteString("\n---\n")
		}
		b.WriteString("\n")
	}

	if len(turns) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, t := range turns {
			b.WriteString("User: ")
			b.WriteString(t.Question)
			b.WriteString("\nAssistant: ")
			b.WriteString(t.Answer)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}
