package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cscx-ai/draftd/internal/application"
	"github.com/cscx-ai/draftd/internal/domain/document"
	"github.com/cscx-ai/draftd/internal/domain/session"
	"github.com/cscx-ai/draftd/internal/infrastructure/config"
	"github.com/cscx-ai/draftd/internal/infrastructure/storage"
	"github.com/cscx-ai/draftd/internal/infrastructure/webhook"
)

var (
	openCustomerID string
	cancelYes      bool
)

// buildSessionService wires the service the way the serve command does,
// minus the suggestion client (not needed for workspace commands).
func buildSessionService() (*application.SessionService, *storage.FilesystemRepository, error) {
	repo, err := openRepository()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(repo.Root())
	if err != nil {
		return nil, nil, err
	}

	saver := newSaver(cfg, repo)
	svc := application.NewSessionService(repo, saver, storage.NewInMemoryEventPublisher())
	return svc, repo, nil
}

// newSaver picks the host hand-off: webhook when configured, otherwise the
// workspace exports directory.
func newSaver(cfg *config.Config, repo *storage.FilesystemRepository) session.Saver {
	if cfg.Save.WebhookURL != "" {
		deadLetters := webhook.NewDeadLetterStore(filepath.Join(repo.Root(), storage.DraftdDir, "deadletter.jsonl"))
		return webhook.NewSaver(cfg.Save.WebhookURL, cfg.Save.Secret).WithDeadLetters(deadLetters)
	}
	return webhook.NewFileSaver(repo.ExportsPath())
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List open draft sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := buildSessionService()
		if err != nil {
			return err
		}

		records, err := svc.List()
		if err != nil {
			return MapError(err)
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No open sessions.")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%-36s  %-18s  %-8s  %-8s  %s\n", "ID", "KIND", "STATUS", "VERSION", "MODIFIED")
		for _, r := range records {
			fmt.Fprintf(cmd.OutOrStdout(), "%-36s  %-18s  %-8s  %-8d  %v\n", r.ID, r.Kind, r.Status, r.Version, r.Modified)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the full state of a draft session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := buildSessionService()
		if err != nil {
			return err
		}

		record, err := svc.Get(args[0])
		if err != nil {
			return MapError(err)
		}

		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open <kind> <document.json>",
	Short: "Open a draft session over an initial document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := buildSessionService()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read document file: %w", err)
		}
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse document file: %w", err)
		}

		record, err := svc.Open(document.Kind(args[0]), openCustomerID, nil, doc)
		if err != nil {
			return MapError(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Opened session %s (%s)\n", record.ID, record.Kind)
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <session-id>",
	Short: "Cancel a draft session, discarding its changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := buildSessionService()
		if err != nil {
			return err
		}

		if err := svc.Cancel(args[0], cancelYes); err != nil {
			return MapError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cancelled session %s\n", args[0])
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <session-id>",
	Short: "Submit a draft session to the configured host hand-off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := buildSessionService()
		if err != nil {
			return err
		}

		record, err := svc.Save(cmd.Context(), args[0])
		if err != nil {
			if record != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Save failed: %s\n", record.SaveError)
			}
			return MapError(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Saved session %s at %s\n", args[0], time.Now().Format(time.RFC3339))
		return nil
	},
}

func init() {
	openCmd.Flags().StringVar(&openCustomerID, "customer", "", "customer id for the session")
	cancelCmd.Flags().BoolVar(&cancelYes, "yes", false, "discard unsaved changes without confirmation")

	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(showCmd)
	RootCmd.AddCommand(openCmd)
	RootCmd.AddCommand(cancelCmd)
	RootCmd.AddCommand(saveCmd)
}
