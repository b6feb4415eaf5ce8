package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cscx-ai/draftd/internal/application"
	"github.com/cscx-ai/draftd/internal/infrastructure/config"
	"github.com/cscx-ai/draftd/internal/infrastructure/httpapi"
	"github.com/cscx-ai/draftd/internal/infrastructure/storage"
	"github.com/cscx-ai/draftd/internal/infrastructure/suggest"
	"github.com/cscx-ai/draftd/internal/infrastructure/watch"
)

var (
	serveListen string
	serveWatch  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the draftd HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}

		cfg, err := config.Load(repo.Root())
		if err != nil {
			return err
		}
		listen := cfg.Listen
		if serveListen != "" {
			listen = serveListen
		}

		log := zerolog.New(os.Stderr).With().Timestamp().Str("component", "draftd").Logger()

		publisher := storage.NewInMemoryEventPublisher()
		sessions := application.NewSessionService(repo, newSaver(cfg, repo), publisher)
		suggestions := application.NewSuggestionService(suggest.NewClient(
			cfg.Suggest.BaseURL,
			cfg.Suggest.Headers,
			time.Duration(cfg.Suggest.TimeoutSeconds)*time.Second,
		))

		server := httpapi.NewServer(sessions, suggestions, publisher, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if serveWatch {
			watcher, err := watch.NewSessionWatcher(repo.SessionsPath(), 0, publisher)
			if err != nil {
				return fmt.Errorf("start session watcher: %w", err)
			}
			go func() {
				if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
					log.Error().Err(err).Msg("session watcher stopped")
				}
			}()
		}

		httpServer := &http.Server{
			Addr:              listen,
			Handler:           server,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}()

		log.Info().Str("listen", listen).Msg("draftd serving")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "publish events for external session file changes")
	RootCmd.AddCommand(serveCmd)
}
