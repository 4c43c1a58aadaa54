package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var studySetsCmd = &cobra.Command{
	Use:     "studysets",
	Aliases: []string{"sets"},
	Short:   "Manage study sets",
	Long: `Manage study sets: the flashcard collections listed at the top of
the sidebar. They live on the profile, not as standalone rows, so edits
from two devices at once resolve last-write-wins.

Examples:
  thinkable studysets list
  thinkable studysets add "Biology"
  thinkable studysets rename set-id "Cell biology"
  thinkable studysets remove set-id`,
}

var studySetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List study sets",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, profiles := getServices()
		profile, err := profiles.Get(cmd.Context(), owner)
		if err != nil {
			return err
		}
		for _, set := range profile.Metadata.StudySets() {
			fmt.Printf("%s  %s\n", set.ID, set.Name)
		}
		return nil
	},
}

var studySetsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a study set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, profiles := getServices()
		set, err := profiles.AddStudySet(cmd.Context(), owner, args[0])
		if err != nil {
			return err
		}
		fmt.Println(set.ID)
		return nil
	},
}

var studySetsRenameCmd = &cobra.Command{
	Use:   "rename <set-id> <name>",
	Short: "Rename a study set",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, profiles := getServices()
		return profiles.RenameStudySet(cmd.Context(), owner, args[0], args[1])
	},
}

var studySetsRemoveCmd = &cobra.Command{
	Use:   "remove <set-id>",
	Short: "Remove a study set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, profiles := getServices()
		return profiles.RemoveStudySet(cmd.Context(), owner, args[0])
	},
}

func init() {
	studySetsCmd.AddCommand(studySetsListCmd)
	studySetsCmd.AddCommand(studySetsAddCmd)
	studySetsCmd.AddCommand(studySetsRenameCmd)
	studySetsCmd.AddCommand(studySetsRemoveCmd)
}
