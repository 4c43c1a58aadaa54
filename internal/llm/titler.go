package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/thinkable-app/thinkable-go/internal/metrics"
)

// MaxTitleLength caps generated board titles.
const MaxTitleLength = 60

// Generator is the text generation surface the titler needs. *Model
// satisfies it; tests substitute a canned one.
type Generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Titler derives a short board title from the first user message.
type Titler struct {
	gen Generator
	mc  *metrics.Collector
}

// NewTitler creates a titler on top of a generator.
func NewTitler(gen Generator, mc *metrics.Collector) *Titler {
	return &Titler{gen: gen, mc: mc}
}

const titleSystemPrompt = `You generate short titles for chat boards.
Given the first message of a conversation, respond with a title of at most
six words. Respond with the title only: no quotes, no trailing punctuation.`

// Title generates a title for a board whose first user message is given.
// The result is trimmed, unquoted, and length-capped.
func (t *Titler) Title(ctx context.Context, firstMessage string) (string, error) {
	firstMessage = strings.TrimSpace(firstMessage)
	if firstMessage == "" {
		return "", fmt.Errorf("title: empty message")
	}

	start := time.Now()
	raw, err := t.gen.GenerateWithSystem(ctx, titleSystemPrompt, firstMessage)
	t.mc.RecordOp(metrics.OpLLMTitle, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("title: %w", err)
	}

	title := cleanTitle(raw)
	if title == "" {
		return "", fmt.Errorf("title: model returned nothing usable")
	}
	return title, nil
}

// cleanTitle normalizes model output into a display title.
func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	// Models occasionally wrap the title in quotes despite the prompt.
	title = strings.Trim(title, `"'`)
	// Keep only the first line of a multi-line response.
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	title = strings.TrimRight(title, ".!")

	if len(title) > MaxTitleLength {
		cut := title[:MaxTitleLength]
		// Cut at the last word boundary to avoid a chopped word.
		if i := strings.LastIndexByte(cut, ' '); i > 0 {
			cut = cut[:i]
		}
		title = strings.TrimSpace(cut)
	}
	return title
}
