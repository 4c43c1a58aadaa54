package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/thinkable-app/thinkable-go/internal/models"
	"github.com/thinkable-app/thinkable-go/internal/parser"
	"github.com/thinkable-app/thinkable-go/internal/service"
)

var importPlain bool

var importCmd = &cobra.Command{
	Use:   "import <manifest.yaml | notes.md | directory>",
	Short: "Bulk-import boards from a YAML manifest or Markdown notes",
	Long: `Import projects, boards and their messages.

A YAML manifest lists projects with nested boards, plus loose boards
that stay unparented:

  projects:
    - name: Research
      boards:
        - title: Reading notes
          messages:
            - role: user
              content: First note
  boards:
    - title: Scratchpad
      messages:
        - role: user
          content: Hello

A Markdown file becomes one board: frontmatter supplies title and
project, headings split the body into messages. A directory imports
every Markdown file in it.

Examples:
  thinkable import workspace.yaml
  thinkable import notes/meeting.md
  thinkable import ./notes --plain`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importPlain, "plain", false, "line-based output instead of the progress UI")
}

// importManifest is the YAML shape accepted by the import command.
type importManifest struct {
	Projects []importProject `yaml:"projects"`
	Boards   []importBoard   `yaml:"boards"`
}

type importProject struct {
	Name   string        `yaml:"name"`
	Boards []importBoard `yaml:"boards"`
}

type importBoard struct {
	Title    string          `yaml:"title"`
	Archived bool            `yaml:"archived"`
	Messages []importMessage `yaml:"messages"`
}

type importMessage struct {
	Role    string `yaml:"role"`
	Content string `yaml:"content"`
}

// loadManifest builds the import manifest from the path: a YAML manifest
// file, a single Markdown note, or a directory of Markdown notes.
func loadManifest(path string) (importManifest, error) {
	var manifest importManifest

	info, err := os.Stat(path)
	if err != nil {
		return manifest, fmt.Errorf("invalid path: %w", err)
	}

	if info.IsDir() {
		var files []string
		err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isMarkdown(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return manifest, fmt.Errorf("scan directory: %w", err)
		}
		if len(files) == 0 {
			return manifest, fmt.Errorf("no Markdown files in %s", path)
		}
		return manifestFromMarkdown(files)
	}

	if isMarkdown(path) {
		return manifestFromMarkdown([]string{path})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return manifest, fmt.Errorf("read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return manifest, fmt.Errorf("parse manifest: %w", err)
	}
	return manifest, nil
}

func isMarkdown(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".md" || ext == ".markdown"
}

// manifestFromMarkdown parses each note file into a board, grouping
// boards by their frontmatter project name. A note without a title takes
// its filename.
func manifestFromMarkdown(files []string) (importManifest, error) {
	var manifest importManifest
	projectIdx := make(map[string]int)

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return manifest, fmt.Errorf("read %s: %w", file, err)
		}
		parsed, err := parser.ParseBoardFile(string(data))
		if err != nil {
			return manifest, fmt.Errorf("parse %s: %w", file, err)
		}

		board := importBoard{
			Title:    parsed.Title,
			Archived: parsed.Archived,
		}
		if board.Title == "" {
			board.Title = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		}
		for _, msg := range parsed.Messages {
			board.Messages = append(board.Messages, importMessage{
				Role:    models.RoleUser,
				Content: msg,
			})
		}

		if parsed.Project == "" {
			manifest.Boards = append(manifest.Boards, board)
			continue
		}
		idx, ok := projectIdx[parsed.Project]
		if !ok {
			idx = len(manifest.Projects)
			projectIdx[parsed.Project] = idx
			manifest.Projects = append(manifest.Projects, importProject{Name: parsed.Project})
		}
		manifest.Projects[idx].Boards = append(manifest.Projects[idx].Boards, board)
	}

	return manifest, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	manifest, err := loadManifest(args[0])
	if err != nil {
		return err
	}

	total := len(manifest.Boards)
	for _, p := range manifest.Projects {
		total += len(p.Boards)
	}
	if total == 0 {
		fmt.Println("Nothing to import.")
		return nil
	}

	boards, _ := getServices()

	if importPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return runImportPlain(cmd.Context(), boards, manifest, total)
	}
	return runImportUI(cmd.Context(), boards, manifest, total)
}

// runImportPlain imports without the interactive UI, one line per board.
func runImportPlain(ctx context.Context, boards *service.BoardService, manifest importManifest, total int) error {
	summary, err := importAll(ctx, boards, manifest, func(done int, title string) {
		fmt.Printf("[%d/%d] %s\n", done, total, title)
	})
	if err != nil {
		return err
	}
	fmt.Print(renderImportSummary(defaultTheme, summary))
	return nil
}

// runImportUI imports with the bubbletea progress bar. The import runs in
// a goroutine and feeds the program; Ctrl+C cancels it.
func runImportUI(ctx context.Context, boards *service.BoardService, manifest importManifest, total int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newImportProgressModel(total))

	go func() {
		summary, err := importAll(ctx, boards, manifest, func(done int, title string) {
			p.Send(importStepMsg{done: done, total: total, title: title})
		})
		p.Send(importDoneMsg{summary: summary, err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(importProgressModel); ok {
		if m.canceled {
			cancel()
			fmt.Println("Import canceled.")
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}
	return nil
}

// importAll walks the manifest and creates every project, board and
// message. step is called after each finished board. Boards with an
// unknown message role are skipped rather than failing the whole run.
func importAll(ctx context.Context, boards *service.BoardService, manifest importManifest, step func(done int, title string)) (importSummary, error) {
	var summary importSummary
	done := 0

	importBoards := func(list []importBoard, projectID string) error {
		for pos, b := range list {
			if err := ctx.Err(); err != nil {
				return err
			}

			meta := models.Meta{}
			if projectID != "" {
				meta[models.MetaProjectID] = projectID
				meta[models.MetaPosition] = pos
			}
			if b.Archived {
				meta[models.MetaArchived] = true
			}

			conv, err := boards.Create(ctx, owner, b.Title, meta)
			if err != nil {
				return fmt.Errorf("create board %q: %w", b.Title, err)
			}
			summary.Boards++

			convID := models.MustRecordIDString(conv.ID)
			for _, msg := range b.Messages {
				switch msg.Role {
				case models.RoleUser, models.RoleAssistant, models.RoleSystem:
				default:
					summary.Skipped = append(summary.Skipped,
						fmt.Sprintf("%s: unknown role %q", b.Title, msg.Role))
					continue
				}
				if _, _, err := boards.Append(ctx, owner, convID, msg.Role, msg.Content); err != nil {
					return fmt.Errorf("append to %q: %w", b.Title, err)
				}
				summary.Messages++
			}

			done++
			step(done, conv.Title)
		}
		return nil
	}

	for _, proj := range manifest.Projects {
		if proj.Name == "" {
			summary.Skipped = append(summary.Skipped, "project with empty name")
			done += len(proj.Boards)
			continue
		}
		created, err := dbClient.QueryCreateProject(ctx, owner, proj.Name, nil)
		if err != nil {
			return summary, fmt.Errorf("create project %q: %w", proj.Name, err)
		}
		summary.Projects++

		if err := importBoards(proj.Boards, models.MustRecordIDString(created.ID)); err != nil {
			return summary, err
		}
	}

	if err := importBoards(manifest.Boards, ""); err != nil {
		return summary, err
	}

	return summary, nil
}
