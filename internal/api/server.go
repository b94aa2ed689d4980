package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/katakuxiko/deenbot/internal/model"
	"github.com/katakuxiko/deenbot/internal/service"
)

type SchemaCreator interface {
	EnsureSchema(ctx context.Context) error
}

// KnowledgeBase is the RAG index behind the moufti, media and youtube routes.
type KnowledgeBase interface {
	Ask(ctx context.Context, query string, topK int) (string, []model.Chunk, error)
	Ingest(ctx context.Context, doc, text string) (*model.IngestResult, error)
	Documents(ctx context.Context, prefix string) ([]model.Document, error)
	DeleteDocument(ctx context.Context, doc string) error
}

type ModelLister interface {
	ListModels(ctx context.Context) ([]openai.Model, error)
}

type Conversations interface {
	Create(ctx context.Context, userID, title string) (*model.Conversation, error)
	List(ctx context.Context, userID string) ([]*model.Conversation, error)
	Get(ctx context.Context, id uuid.UUID, userID string) (*model.Conversation, error)
	Delete(ctx context.Context, id uuid.UUID, userID string) error
	Messages(ctx context.Context, id uuid.UUID, userID string) ([]*model.Message, error)
	Send(ctx context.Context, id uuid.UUID, userID, content string) (*model.Exchange, error)
}

// Deps are the collaborators the routes dispatch to.
type Deps struct {
	Schema    SchemaCreator
	Fatwa     service.Asker
	Knowledge KnowledgeBase
	Models    ModelLister
	Chat      Conversations
}

func (d Deps) validate() error {
	switch {
	case d.Schema == nil:
		return errors.New("schema creator is required")
	case d.Fatwa == nil:
		return errors.New("fatwa asker is required")
	case d.Knowledge == nil:
		return errors.New("knowledge base is required")
	case d.Models == nil:
		return errors.New("model lister is required")
	case d.Chat == nil:
		return errors.New("conversations are required")
	}
	return nil
}

type Server struct {
	config Config
	deps   Deps
	logger *slog.Logger
	app    *fiber.App
}

// NewServer builds the fiber app, creating the uploads directory if needed.
func NewServer(config Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(config.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "DeenBot API",
		BodyLimit:             config.BodyLimit,
		Concurrency:           config.Concurrency,
		IdleTimeout:           config.IdleTimeout,
	})

	s := &Server{
		config: config,
		deps:   deps,
		logger: logger,
		app:    app,
	}

	app.Use(recover.New())
	app.Use(requestLogger(logger))
	app.Use(cors.New(corsConfig(config.CORSOrigins)))
	app.Use(utf8JSON(logger))

	app.Static("/uploads", config.UploadDir)

	s.registerRoutes()

	return s, nil
}

// Init runs the startup hook. A failure to create the tables is logged and
// the server keeps going; queries fail later instead.
func (s *Server) Init(ctx context.Context) {
	if err := s.deps.Schema.EnsureSchema(ctx); err != nil {
		s.logger.Error("error creating database tables", "error", err)
		return
	}
	s.logger.Info("database tables created successfully")
}

func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
