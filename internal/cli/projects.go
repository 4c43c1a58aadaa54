package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thinkable-app/thinkable-go/internal/models"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage projects",
	Long: `Manage projects: the folders boards group into in the sidebar.

Deleting a project does not delete its boards; they return to the
unparented list.

Examples:
  thinkable projects list
  thinkable projects create "Research"
  thinkable projects rename project-id "New name"
  thinkable projects delete project-id`,
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		projects, err := dbClient.QueryListProjects(cmd.Context(), owner)
		if err != nil {
			return err
		}
		for _, p := range projects {
			fmt.Printf("%s  %s\n", models.MustRecordIDString(p.ID), p.Name)
		}
		return nil
	},
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := dbClient.QueryCreateProject(cmd.Context(), owner, args[0], nil)
		if err != nil {
			return err
		}
		fmt.Println(models.MustRecordIDString(p.ID))
		return nil
	},
}

var projectsRenameCmd = &cobra.Command{
	Use:   "rename <project-id> <name>",
	Short: "Rename a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dbClient.QueryRenameProject(cmd.Context(), owner, args[0], args[1])
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project, leaving its boards unparented",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dbClient.QueryDeleteProject(cmd.Context(), owner, args[0])
	},
}

func init() {
	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsCreateCmd)
	projectsCmd.AddCommand(projectsRenameCmd)
	projectsCmd.AddCommand(projectsDeleteCmd)
}
