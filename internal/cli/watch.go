package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thinkable-app/thinkable-go/internal/client"
)

var watchCmd = &cobra.Command{
	Use:         "watch",
	Short:       "Stream change notifications from the server",
	Annotations: map[string]string{"client": "true"},
	Long: `Subscribe to the push channel and print every change to the account's
boards, projects and profile as it happens. Runs until interrupted.

Requires THINKABLE_SERVER_URL and THINKABLE_TOKEN.

Examples:
  thinkable watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c := client.New("", "")

		events, err := c.Subscribe(ctx)
		if err != nil {
			return err
		}

		fmt.Println("Watching for changes. Ctrl+C to stop.")
		for ev := range events {
			fmt.Printf("%-12s %-7s %s\n", ev.Table, ev.Action, ev.ID)
		}
		return nil
	},
}
