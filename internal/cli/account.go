package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thinkable-app/thinkable-go/internal/client"
)

var accountDeleteYes bool

var accountCmd = &cobra.Command{
	Use:         "account",
	Short:       "Manage the authenticated account on the server",
	Annotations: map[string]string{"client": "true"},
}

var accountDeleteCmd = &cobra.Command{
	Use:         "delete",
	Short:       "Delete the account and all its data",
	Annotations: map[string]string{"client": "true"},
	Long: `Delete the authenticated account: every board, project, profile row
and attachment. The server signs the account out everywhere even when the
data deletion fails partway.

Requires THINKABLE_SERVER_URL and THINKABLE_TOKEN.

Examples:
  thinkable account delete --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !accountDeleteYes {
			return fmt.Errorf("refusing to delete without --yes")
		}

		c := client.New("", "")

		result, err := c.DeleteAccount(cmd.Context())
		if err != nil {
			return err
		}

		if result.Success {
			fmt.Println("Account deleted.")
			return nil
		}
		if result.SignedOut {
			fmt.Println("Deletion failed but all sessions were revoked.")
		}
		return fmt.Errorf("delete account: %s", result.Error)
	},
}

func init() {
	accountDeleteCmd.Flags().BoolVar(&accountDeleteYes, "yes", false, "confirm the deletion")
	accountCmd.AddCommand(accountDeleteCmd)
}
