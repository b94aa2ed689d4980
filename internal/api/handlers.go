package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/katakuxiko/deenbot/internal/model"
	"github.com/katakuxiko/deenbot/internal/service"
	"github.com/katakuxiko/deenbot/internal/store"
)

type Handler struct {
	fatwa     service.Asker
	knowledge KnowledgeBase
	models    ModelLister
	chat      Conversations
	uploadDir string
	logger    *slog.Logger
}

func NewHandler(deps Deps, cfg Config, logger *slog.Logger) *Handler {
	return &Handler{
		fatwa:     deps.Fatwa,
		knowledge: deps.Knowledge,
		models:    deps.Models,
		chat:      deps.Chat,
		uploadDir: cfg.UploadDir,
		logger:    logger,
	}
}

func (h *Handler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Welcome to DeenBot API", "status": "running"})
}

// FatwaAsk always answers 200 with {"answer": ...}, even for a malformed body.
func (h *Handler) FatwaAsk(c *fiber.Ctx) error {
	var req model.AskRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warn("invalid fatwaask request", "error", err)
		return c.JSON(model.AskResponse{Answer: service.ErrorApology})
	}

	return c.JSON(model.AskResponse{Answer: h.fatwa.Ask(c.Context(), req.Question, req.VideoID)})
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.SendString("ok")
}

func (h *Handler) ListModels(c *fiber.Ctx) error {
	models, err := h.models.ListModels(c.Context())
	if err != nil {
		h.logger.Error("list models failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(models)
}

// AskQuestion is the raw RAG endpoint: it returns the answer with its
// context and reports failures.
func (h *Handler) AskQuestion(c *fiber.Ctx) error {
	var req model.QueryRequest
	if err := c.BodyParser(&req); err != nil || len(req.Query) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request, expected JSON: {\"query\":\"...\"}"})
	}

	ans, ctxChunks, err := h.knowledge.Ask(c.Context(), req.Query, req.TopK)
	if err != nil {
		h.logger.Error("rag ask failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if ctxChunks == nil {
		ctxChunks = []model.Chunk{}
	}
	return c.JSON(fiber.Map{
		"answer":  ans,
		"context": ctxChunks,
	})
}

// statusFor maps service and store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrEmptyMessage), errors.Is(err, service.ErrNoText):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) fail(c *fiber.Ctx, err error, msg string) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		h.logger.Error(msg, "path", c.Path(), "error", err)
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
