package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thinkable-app/thinkable-go/internal/client"
	"github.com/thinkable-app/thinkable-go/internal/models"
)

var homepageCmd = &cobra.Command{
	Use:         "homepage",
	Short:       "Fetch the public homepage board from the server",
	Annotations: map[string]string{"client": "true"},
	Long: `Fetch the board the server exposes on the public homepage, with its
messages and canvas nodes. Requires THINKABLE_SERVER_URL (and no auth).

Examples:
  thinkable homepage`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New("", "")

		bundle, err := c.HomepageBoard(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("board    %s  %s\n",
			models.MustRecordIDString(bundle.Conversation.ID), bundle.Conversation.Title)
		fmt.Printf("messages %d  nodes %d\n\n", len(bundle.Messages), len(bundle.Nodes))

		for _, msg := range bundle.Messages {
			marker := " "
			if msg.Metadata.Bookmarked() {
				marker = "*"
			}
			fmt.Printf("%s [%s] %s\n", marker, msg.Role, msg.Content)
		}
		return nil
	},
}
