// Package cli implements the draftd command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cscx-ai/draftd/internal/infrastructure/storage"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var workspaceDir string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "draftd",
	Version: Version,
	Short:   "Draft sessions for AI-generated customer-success documents",
	Long: `Draftd owns editable drafts of AI-generated documents.
It tracks unsaved changes against the original, applies collection edits
with their per-kind rules, and hands finished drafts off to the host
application for the external document write.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVar(&workspaceDir, "dir", "", "workspace directory (defaults to the current directory)")
}

// workspaceRoot resolves the workspace directory from the flag or cwd.
func workspaceRoot() (string, error) {
	if workspaceDir != "" {
		return workspaceDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return cwd, nil
}

// openRepository resolves and checks the workspace repository.
func openRepository() (*storage.FilesystemRepository, error) {
	root, err := workspaceRoot()
	if err != nil {
		return nil, err
	}
	repo := storage.NewFilesystemRepository(root)
	if !repo.IsInitialized() {
		return nil, fmt.Errorf("draftd is not initialized in this directory (run 'draftd init')")
	}
	return repo, nil
}
