package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/katakuxiko/deenbot/internal/model"
)

const youtubeDocPrefix = "youtube:"

type videoResponse struct {
	VideoID string `json:"video_id"`
	Chunks  int    `json:"chunks"`
}

func (h *Handler) IngestTranscript(c *fiber.Ctx) error {
	var req model.TranscriptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	req.VideoID = strings.TrimSpace(req.VideoID)
	if req.VideoID == "" || strings.TrimSpace(req.Transcript) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "video_id and transcript are required"})
	}

	res, err := h.knowledge.Ingest(c.Context(), youtubeDocPrefix+req.VideoID, req.Transcript)
	if err != nil {
		return h.fail(c, err, "failed to index transcript")
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *Handler) ListVideos(c *fiber.Ctx) error {
	docs, err := h.knowledge.Documents(c.Context(), youtubeDocPrefix)
	if err != nil {
		return h.fail(c, err, "failed to list videos")
	}

	videos := make([]videoResponse, 0, len(docs))
	for _, d := range docs {
		videos = append(videos, videoResponse{
			VideoID: strings.TrimPrefix(d.Name, youtubeDocPrefix),
			Chunks:  d.Chunks,
		})
	}
	return c.JSON(videos)
}

func (h *Handler) DeleteVideo(c *fiber.Ctx) error {
	if err := h.knowledge.DeleteDocument(c.Context(), youtubeDocPrefix+c.Params("id")); err != nil {
		return h.fail(c, err, "failed to delete video")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
