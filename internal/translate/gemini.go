package translate

import (
	"context"
	"fmt"

	"github.com/jonathan/npa-sniper/internal/llm"
)

const geminiPrompt = `Translate the following Thai real-estate listing text into language code %q.
Keep numbers, unit names, phone numbers and proper nouns intact.
Return only the translation, without quotes or commentary.

%s`

// GeminiTranslator asks an LLM for the translation.
type GeminiTranslator struct {
	client llm.Client
}

// NewGeminiTranslator wraps client.
func NewGeminiTranslator(client llm.Client) *GeminiTranslator {
	return &GeminiTranslator{client: client}
}

// Name identifies the backend.
func (g *GeminiTranslator) Name() string { return "gemini" }

// Translate implements Translator.
func (g *GeminiTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	out, err := g.client.GenerateContent(ctx, fmt.Sprintf(geminiPrompt, target, text), llm.TierLite)
	if err != nil {
		return "", fmt.Errorf("gemini translate: %w", err)
	}
	return llm.CleanText(out), nil
}
