package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/katakuxiko/deenbot/internal/model"
)

func (h *Handler) CreateConversation(c *fiber.Ctx) error {
	var req model.CreateConversationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	conv, err := h.chat.Create(c.Context(), userID(c), req.Title)
	if err != nil {
		return h.fail(c, err, "failed to create conversation")
	}
	return c.Status(fiber.StatusCreated).JSON(conv)
}

func (h *Handler) ListConversations(c *fiber.Ctx) error {
	convs, err := h.chat.List(c.Context(), userID(c))
	if err != nil {
		return h.fail(c, err, "failed to list conversations")
	}
	return c.JSON(convs)
}

func (h *Handler) GetConversation(c *fiber.Ctx) error {
	id, ok := conversationID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid conversation id"})
	}

	conv, err := h.chat.Get(c.Context(), id, userID(c))
	if err != nil {
		return h.fail(c, err, "failed to get conversation")
	}
	return c.JSON(conv)
}

func (h *Handler) DeleteConversation(c *fiber.Ctx) error {
	id, ok := conversationID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid conversation id"})
	}

	if err := h.chat.Delete(c.Context(), id, userID(c)); err != nil {
		return h.fail(c, err, "failed to delete conversation")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) ListMessages(c *fiber.Ctx) error {
	id, ok := conversationID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid conversation id"})
	}

	msgs, err := h.chat.Messages(c.Context(), id, userID(c))
	if err != nil {
		return h.fail(c, err, "failed to list messages")
	}
	return c.JSON(msgs)
}

// SendMessage asks a question inside a conversation. The answer goes
// through the same fallbacks as /fatwaask.
func (h *Handler) SendMessage(c *fiber.Ctx) error {
	id, ok := conversationID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid conversation id"})
	}

	var req model.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	ex, err := h.chat.Send(c.Context(), id, userID(c), req.Content)
	if err != nil {
		return h.fail(c, err, "failed to send message")
	}
	return c.Status(fiber.StatusCreated).JSON(ex)
}

func conversationID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}
