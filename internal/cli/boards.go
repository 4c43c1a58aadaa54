package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thinkable-app/thinkable-go/internal/models"
	"github.com/thinkable-app/thinkable-go/internal/sidebar"
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "Manage boards",
	Long: `Manage boards: the chat sessions rendered on the canvas.

Examples:
  thinkable boards list
  thinkable boards create "Reading notes"
  thinkable boards post conversation-id "What does chapter 3 argue?"
  thinkable boards rename conversation-id "New title"
  thinkable boards move conversation-id project-id
  thinkable boards move conversation-id --out
  thinkable boards reorder id1 id2 id3
  thinkable boards delete conversation-id`,
}

var boardsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List boards grouped like the sidebar",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		convs, err := dbClient.QueryListConversations(ctx, owner)
		if err != nil {
			return err
		}
		projects, err := dbClient.QueryListProjects(ctx, owner)
		if err != nil {
			return err
		}
		profile, err := dbClient.QueryGetProfile(ctx, owner)
		if err != nil {
			profile = nil
		}

		lists := sidebar.BuildLists(convs, projects, profile)

		for _, set := range lists.StudySets {
			fmt.Printf("study set  %s  %s\n", set.ID, set.Name)
		}
		for _, group := range lists.Projects {
			fmt.Printf("project    %s  %s\n", models.MustRecordIDString(group.Project.ID), group.Project.Name)
			for _, conv := range group.Boards {
				printBoard(conv, "  ")
			}
		}
		for _, conv := range lists.Unparented {
			printBoard(conv, "")
		}
		return nil
	},
}

func printBoard(conv models.Conversation, indent string) {
	markers := ""
	if conv.Metadata.Archived() {
		markers += " [archived]"
	}
	if pos, ok := conv.Metadata.Position(); ok {
		markers += fmt.Sprintf(" [#%d]", pos)
	}
	fmt.Printf("%sboard      %s  %s%s\n", indent, models.MustRecordIDString(conv.ID), conv.Title, markers)
}

var boardsCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		boards, _ := getServices()
		conv, err := boards.Create(cmd.Context(), owner, args[0], nil)
		if err != nil {
			return err
		}
		fmt.Println(models.MustRecordIDString(conv.ID))
		return nil
	},
}

var boardsRenameCmd = &cobra.Command{
	Use:   "rename <board-id> <title>",
	Short: "Rename a board (pins the title against auto-titling)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		boards, _ := getServices()
		return boards.Rename(cmd.Context(), owner, args[0], args[1])
	},
}

var boardsDeleteCmd = &cobra.Command{
	Use:   "delete <board-id>",
	Short: "Delete a board with its messages and canvas nodes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		boards, _ := getServices()
		return boards.Delete(cmd.Context(), owner, args[0])
	},
}

var boardsPostRole string

var boardsPostCmd = &cobra.Command{
	Use:   "post [board-id] <content>",
	Short: "Append a message to a board",
	Long: `Append a message to a board. Without a board id a fresh board is
created for the message. The first user message on an untitled board
triggers auto-titling when an LLM provider is configured.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		boardID := ""
		content := args[0]
		if len(args) == 2 {
			boardID = args[0]
			content = args[1]
		}
		boards, _ := getServices()
		msg, conv, err := boards.Append(cmd.Context(), owner, boardID, boardsPostRole, content)
		if err != nil {
			return err
		}
		if boardID == "" {
			fmt.Printf("board: %s\n", models.MustRecordIDString(conv.ID))
		}
		fmt.Println(models.MustRecordIDString(msg.ID))
		return nil
	},
}

var boardsMoveOut bool

var boardsMoveCmd = &cobra.Command{
	Use:   "move <board-id> [project-id]",
	Short: "Move a board into a project, or out with --out",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		boardID := args[0]

		if boardsMoveOut {
			if len(args) > 1 {
				return fmt.Errorf("--out takes no project id")
			}
			return dbClient.QueryUnsetConversationMetaKey(ctx, owner, boardID, models.MetaProjectID)
		}
		if len(args) != 2 {
			return fmt.Errorf("project id required unless --out is given")
		}
		return dbClient.QueryMergeConversationMeta(ctx, owner, boardID,
			models.Meta{models.MetaProjectID: args[1]})
	},
}

var boardsReorderCmd = &cobra.Command{
	Use:   "reorder <board-id>...",
	Short: "Set the unparented board order",
	Long: `Set the display order of the unparented boards. Every listed board
gets a dense position starting at 0, in argument order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dbClient.QuerySetConversationPositions(cmd.Context(), owner, args)
	},
}

var boardsArchiveCmd = &cobra.Command{
	Use:   "archive <board-id>",
	Short: "Hide a board from the sidebar without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dbClient.QueryMergeConversationMeta(cmd.Context(), owner, args[0],
			models.Meta{models.MetaArchived: true})
	},
}

var boardsShowCmd = &cobra.Command{
	Use:   "show <board-id>",
	Short: "Print a board with its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		conv, err := dbClient.QueryGetConversation(ctx, owner, args[0])
		if err != nil {
			return err
		}
		msgs, err := dbClient.QueryListMessages(ctx, owner, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s\n%s\n\n", conv.Title, strings.Repeat("=", len(conv.Title)))
		for _, msg := range msgs {
			marker := ""
			if msg.Metadata.Bookmarked() {
				marker = " *"
			}
			fmt.Printf("[%s]%s %s\n", msg.Role, marker, msg.Content)
		}
		return nil
	},
}

func init() {
	boardsMoveCmd.Flags().BoolVar(&boardsMoveOut, "out", false, "move the board out of its project")
	boardsPostCmd.Flags().StringVar(&boardsPostRole, "role", models.RoleUser, "message role")

	boardsCmd.AddCommand(boardsListCmd)
	boardsCmd.AddCommand(boardsPostCmd)
	boardsCmd.AddCommand(boardsCreateCmd)
	boardsCmd.AddCommand(boardsRenameCmd)
	boardsCmd.AddCommand(boardsDeleteCmd)
	boardsCmd.AddCommand(boardsMoveCmd)
	boardsCmd.AddCommand(boardsReorderCmd)
	boardsCmd.AddCommand(boardsArchiveCmd)
	boardsCmd.AddCommand(boardsShowCmd)
}
