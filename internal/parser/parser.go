// Package parser turns Markdown note files into importable boards.
package parser

import (
	"bufio"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// BoardFile is one Markdown file parsed into an importable board.
type BoardFile struct {
	// Title comes from frontmatter, falling back to the first h1.
	Title string

	// Project is the frontmatter project name, empty for unparented.
	Project string

	// Archived mirrors the frontmatter flag.
	Archived bool

	// Messages are the note bodies in document order, sized for display.
	Messages []string
}

// frontmatter is the YAML block accepted at the top of a note file.
type frontmatter struct {
	Title    string `yaml:"title"`
	Project  string `yaml:"project"`
	Archived bool   `yaml:"archived"`
}

// section is a heading and the content under it.
type section struct {
	level   int
	heading string
	content string
}

var h1Regex = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// ParseBoardFile parses a Markdown note into a board. The body is split
// at headings, and oversized sections are further split at paragraph and
// sentence boundaries so each message stays readable on the canvas.
func ParseBoardFile(content string) (*BoardFile, error) {
	fm, body := splitFrontmatter(content)

	board := &BoardFile{
		Title:    fm.Title,
		Project:  fm.Project,
		Archived: fm.Archived,
	}

	if board.Title == "" {
		if match := h1Regex.FindStringSubmatch(body); len(match) > 1 {
			board.Title = strings.TrimSpace(match[1])
		}
	}

	board.Messages = bodyMessages(body, board.Title, DefaultSplitConfig())

	return board, nil
}

// splitFrontmatter strips a leading YAML frontmatter block. A malformed
// block reads as empty frontmatter rather than failing the file.
func splitFrontmatter(content string) (frontmatter, string) {
	var fm frontmatter

	if !strings.HasPrefix(content, "---\n") {
		return fm, content
	}
	endIdx := strings.Index(content[4:], "\n---")
	if endIdx <= 0 {
		return fm, content
	}

	block := content[4 : 4+endIdx]
	body := strings.TrimPrefix(content[4+endIdx+4:], "\n")

	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		fm = frontmatter{}
	}
	return fm, body
}

// bodyMessages converts the note body into message bodies. With headings
// each section becomes a message carrying its heading; without headings
// the whole body is one message. Either way oversized pieces are split.
// The h1 that supplied the board title is not repeated inside a message.
func bodyMessages(body, title string, cfg SplitConfig) []string {
	sections := parseSections(body)

	if len(sections) == 0 {
		return splitLong(body, cfg)
	}

	var messages []string
	for _, sec := range sections {
		text := sec.content
		titleHeading := sec.level == 1 && sec.heading == title
		if sec.heading != "" && !titleHeading {
			if text == "" {
				continue
			}
			text = sec.heading + "\n\n" + text
		}
		if text == "" {
			continue
		}
		messages = append(messages, splitLong(text, cfg)...)
	}
	return messages
}

var headingRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// parseSections walks the body line by line, collecting the content under
// each heading. Text before the first heading becomes a headingless
// section so nothing is dropped.
func parseSections(body string) []section {
	var sections []section

	current := section{}
	var content strings.Builder

	flush := func() {
		current.content = strings.TrimSpace(content.String())
		if current.heading != "" || current.content != "" {
			sections = append(sections, current)
		}
		content.Reset()
	}

	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()

		if match := headingRegex.FindStringSubmatch(line); len(match) > 0 {
			flush()
			current = section{
				level:   len(match[1]),
				heading: strings.TrimSpace(match[2]),
			}
			continue
		}
		content.WriteString(line)
		content.WriteString("\n")
	}
	flush()

	if len(sections) == 1 && sections[0].heading == "" {
		// No headings at all: treat as headingless body.
		return nil
	}
	return sections
}
