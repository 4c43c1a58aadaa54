// Package cli provides the command-line interface for thinkable.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thinkable-app/thinkable-go/internal/config"
	"github.com/thinkable-app/thinkable-go/internal/db"
	"github.com/thinkable-app/thinkable-go/internal/llm"
	"github.com/thinkable-app/thinkable-go/internal/service"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool
	owner   string

	// Global config and db client
	cfg      config.Config
	dbClient *db.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "thinkable",
	Short: "Board and chat workspace",
	Long: `Thinkable is a board-based chat workspace: conversations render as
boards, boards group into projects, and everything syncs live across
devices.

This CLI manages boards, projects, and study sets directly against the
data service, and can bulk-import boards from a YAML manifest.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		// Server-facing commands carry their own connection handling.
		if cmd.Annotations["client"] == "true" {
			return nil
		}

		cfg = config.Load()

		if owner == "" {
			owner = os.Getenv("THINKABLE_OWNER")
		}
		if owner == "" {
			return fmt.Errorf("owner required: pass --owner or set THINKABLE_OWNER")
		}

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, nil, nil)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
	},
}

// getServices creates the service layer over the shared db client. The
// titler is best-effort: without a configured LLM provider boards simply
// keep their placeholder titles.
func getServices() (*service.BoardService, *service.ProfileService) {
	var titler *llm.Titler
	if model, err := llm.NewModel(context.Background(), cfg); err == nil {
		titler = llm.NewTitler(model, nil)
	} else if verbose {
		fmt.Fprintf(os.Stderr, "auto-titling unavailable: %v\n", err)
	}
	return service.NewBoardService(dbClient, titler, nil, nil),
		service.NewProfileService(dbClient, nil)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&owner, "owner", "", "account whose data the command operates on (or THINKABLE_OWNER)")

	rootCmd.AddCommand(boardsCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(studySetsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(homepageCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(watchCmd)
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
