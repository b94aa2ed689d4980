package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/katakuxiko/deenbot/internal/api"
	"github.com/katakuxiko/deenbot/internal/config"
	"github.com/katakuxiko/deenbot/internal/logger"
	"github.com/katakuxiko/deenbot/internal/service"
	"github.com/katakuxiko/deenbot/internal/store"
	"github.com/katakuxiko/deenbot/internal/store/inmemory"
)

// storage is what the services and the startup hook need from a backend.
type storage interface {
	api.SchemaCreator
	service.ChunkStore
	service.ConversationStore
	Close() error
}

type serverCommander struct {
	configDir string
	listen    string
	debug     bool
	memory    bool
}

const serverLongDesc string = `Run the DeenBot API.

Configuration is read from config.toml in the config directory, a .env file
and DEENBOT_* environment variables, e.g. DEENBOT_DATABASE_DSN or
DEENBOT_LLM_BASE_URL.`

func newServerCmd() *cobra.Command {
	cmder := &serverCommander{}

	cmd := &cobra.Command{
		Use:          "deenbot",
		Short:        "Run the DeenBot API",
		Long:         serverLongDesc,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.configDir, "config", "c", "", "Directory containing config.toml")
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (overrides server.listen)")
	cmd.Flags().BoolVarP(&cmder.debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().BoolVar(&cmder.memory, "memory", false, "Keep everything in memory instead of Postgres")

	return cmd
}

func (c *serverCommander) run(ctx context.Context) error {
	cfg, err := config.Load(c.configDir)
	if err != nil {
		return err
	}
	if c.listen != "" {
		cfg.Server.Listen = c.listen
	}

	log := logger.New(
		logger.WithDebug(c.debug || cfg.Log.Debug),
		logger.WithJSON(cfg.Log.JSON),
		logger.WithPretty(cfg.Log.Pretty),
	)

	db, err := c.newStorage(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	llm := service.NewLLMClient(cfg.LLM)
	rag := service.NewRAGService(db, llm, cfg.LLM.TopK, log)
	fatwa := service.NewFatwaService(rag, cfg.Server.MaxInflight, cfg.LLM.Timeout, log)
	chat := service.NewChatService(db, fatwa, log)

	server, err := api.NewServer(api.ConfigFrom(cfg), api.Deps{
		Schema:    db,
		Fatwa:     fatwa,
		Knowledge: rag,
		Models:    llm,
		Chat:      chat,
	}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	server.Init(ctx)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

func (c *serverCommander) newStorage(cfg *config.Config) (storage, error) {
	if c.memory {
		return inmemory.New(), nil
	}

	db, err := store.NewPgStore(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres store: %w", err)
	}
	return db, nil
}

func main() {
	if err := newServerCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
