package parser

import (
	"strings"
	"unicode"
)

// SplitConfig defines message splitting parameters.
type SplitConfig struct {
	// Threshold: only split if text exceeds this length
	Threshold int
	// TargetSize: ideal message size
	TargetSize int
	// MaxSize: maximum message size (larger pieces split at sentences)
	MaxSize int
}

// DefaultSplitConfig returns sensible defaults for canvas messages.
func DefaultSplitConfig() SplitConfig {
	return SplitConfig{
		Threshold:  1500,
		TargetSize: 750,
		MaxSize:    1000,
	}
}

// splitLong turns one piece of text into message-sized parts. Short text
// passes through as a single message; empty text produces none.
func splitLong(text string, cfg SplitConfig) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= cfg.Threshold {
		return []string{text}
	}
	return splitParagraphs(text, cfg)
}

// splitParagraphs packs paragraphs into messages up to MaxSize; a single
// oversized paragraph falls through to sentence splitting.
func splitParagraphs(text string, cfg SplitConfig) []string {
	paragraphs := strings.Split(text, "\n\n")

	var messages []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			messages = append(messages, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if current.Len()+len(para) > cfg.MaxSize && current.Len() > 0 {
			flush()
		}

		if len(para) > cfg.MaxSize {
			flush()
			messages = append(messages, splitSentencePieces(para, cfg)...)
			continue
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return messages
}

// splitSentencePieces packs sentences into messages up to TargetSize.
func splitSentencePieces(text string, cfg SplitConfig) []string {
	sentences := splitSentences(text)

	var messages []string
	var current strings.Builder

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		if current.Len()+len(sentence) > cfg.TargetSize && current.Len() > 0 {
			messages = append(messages, strings.TrimSpace(current.String()))
			current.Reset()
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		messages = append(messages, strings.TrimSpace(current.String()))
	}

	return messages
}

// splitSentences splits text into sentences.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Look ahead for space or end
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				// Not an abbreviation (simple heuristic)
				if i > 1 && unicode.IsUpper(runes[i-1]) {
					continue // Likely an initial like "J."
				}
				sentences = append(sentences, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}

	return sentences
}
