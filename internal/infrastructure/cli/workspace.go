package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cscx-ai/draftd/internal/domain/document"
	"github.com/cscx-ai/draftd/internal/infrastructure/config"
	"github.com/cscx-ai/draftd/internal/infrastructure/storage"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a draftd workspace in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := workspaceRoot()
		if err != nil {
			return err
		}

		repo := storage.NewFilesystemRepository(root)
		if err := repo.Initialize(); err != nil {
			return fmt.Errorf("initialize workspace: %w", err)
		}
		if err := config.Save(root, config.Default()); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized draftd workspace in %s\n", root)
		return nil
	},
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the supported document kinds",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, kind := range document.Kinds() {
			def, err := document.Lookup(kind)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s collections: %v\n", kind, def.Collections)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(kindsCmd)
}
