package parser

import (
	"strings"
	"testing"
)

func TestParseBoardFile_Frontmatter(t *testing.T) {
	content := `---
title: Reading notes
project: Research
archived: true
---

First note.

Second note.`

	board, err := ParseBoardFile(content)
	if err != nil {
		t.Fatalf("ParseBoardFile() error = %v", err)
	}

	if board.Title != "Reading notes" {
		t.Errorf("Title = %q, want 'Reading notes'", board.Title)
	}
	if board.Project != "Research" {
		t.Errorf("Project = %q, want 'Research'", board.Project)
	}
	if !board.Archived {
		t.Error("Archived = false, want true")
	}
	if len(board.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(board.Messages))
	}
	if !strings.Contains(board.Messages[0], "First note.") {
		t.Errorf("message missing body: %q", board.Messages[0])
	}
}

func TestParseBoardFile_TitleFromH1(t *testing.T) {
	content := "# My Board\n\nSome content here."

	board, err := ParseBoardFile(content)
	if err != nil {
		t.Fatalf("ParseBoardFile() error = %v", err)
	}

	if board.Title != "My Board" {
		t.Errorf("Title = %q, want 'My Board'", board.Title)
	}
	// The h1 supplied the title; it must not repeat inside a message.
	for i, msg := range board.Messages {
		if strings.Contains(msg, "My Board") {
			t.Errorf("message[%d] repeats the title: %q", i, msg)
		}
	}
}

func TestParseBoardFile_MalformedFrontmatter(t *testing.T) {
	content := "---\ntitle: [unclosed\n---\n\n# Fallback\n\nBody."

	board, err := ParseBoardFile(content)
	if err != nil {
		t.Fatalf("ParseBoardFile() error = %v", err)
	}

	if board.Title != "Fallback" {
		t.Errorf("Title = %q, want 'Fallback'", board.Title)
	}
}

func TestParseBoardFile_SectionsBecomeMessages(t *testing.T) {
	content := `# Plan

Intro paragraph.

## Step one

Do the first thing.

## Step two

Do the second thing.`

	board, err := ParseBoardFile(content)
	if err != nil {
		t.Fatalf("ParseBoardFile() error = %v", err)
	}

	if len(board.Messages) != 3 {
		t.Fatalf("got %d messages, want 3: %q", len(board.Messages), board.Messages)
	}
	if board.Messages[0] != "Intro paragraph." {
		t.Errorf("message[0] = %q", board.Messages[0])
	}
	if !strings.HasPrefix(board.Messages[1], "Step one") {
		t.Errorf("message[1] missing heading: %q", board.Messages[1])
	}
	if !strings.HasPrefix(board.Messages[2], "Step two") {
		t.Errorf("message[2] missing heading: %q", board.Messages[2])
	}
}

func TestParseBoardFile_EmptyBodies(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{name: "completely empty", content: "", want: 0},
		{name: "whitespace only", content: "   \n\n\t  ", want: 0},
		{name: "headings without content", content: "# Title\n\n## Section", want: 0},
		{name: "heading with content", content: "# Title\n\n## Section\n\nText.", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board, err := ParseBoardFile(tt.content)
			if err != nil {
				t.Fatalf("ParseBoardFile() error = %v", err)
			}
			if len(board.Messages) != tt.want {
				t.Errorf("got %d messages, want %d: %q", len(board.Messages), tt.want, board.Messages)
			}
			for i, msg := range board.Messages {
				if strings.TrimSpace(msg) == "" {
					t.Errorf("message[%d] is empty", i)
				}
			}
		})
	}
}

func TestSplitLong_ShortPassesThrough(t *testing.T) {
	cfg := DefaultSplitConfig()
	text := "A short note."

	got := splitLong(text, cfg)
	if len(got) != 1 || got[0] != text {
		t.Errorf("splitLong() = %q, want [%q]", got, text)
	}
}

func TestSplitLong_ParagraphBoundaries(t *testing.T) {
	cfg := SplitConfig{Threshold: 50, TargetSize: 40, MaxSize: 60}

	para := strings.Repeat("word ", 10) // 50 chars
	text := para + "\n\n" + para + "\n\n" + para

	got := splitLong(text, cfg)
	if len(got) < 2 {
		t.Fatalf("got %d messages, want at least 2", len(got))
	}
	for i, msg := range got {
		if strings.TrimSpace(msg) == "" {
			t.Errorf("message[%d] is empty", i)
		}
		if len(msg) > cfg.MaxSize+len(para) {
			t.Errorf("message[%d] too long: %d chars", i, len(msg))
		}
	}
}

func TestSplitLong_OversizedParagraphSplitsAtSentences(t *testing.T) {
	cfg := SplitConfig{Threshold: 50, TargetSize: 60, MaxSize: 80}

	text := strings.TrimSpace(strings.Repeat("This is a sentence. ", 10))

	got := splitLong(text, cfg)
	if len(got) < 2 {
		t.Fatalf("got %d messages, want at least 2", len(got))
	}
	joined := strings.Join(got, " ")
	if strings.Count(joined, "This is a sentence.") != 10 {
		t.Errorf("sentences lost in split: %q", got)
	}
}

func TestSplitSentences_Abbreviations(t *testing.T) {
	got := splitSentences("Ask J. Smith. Then leave.")
	if len(got) != 2 {
		t.Fatalf("got %d sentences, want 2: %q", len(got), got)
	}
}
