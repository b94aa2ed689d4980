package api

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/katakuxiko/deenbot/internal/model"
	"github.com/katakuxiko/deenbot/internal/pdf"
	"github.com/katakuxiko/deenbot/internal/util"
)

type uploadResponse struct {
	URL        string              `json:"url"`
	Name       string              `json:"name"`
	Size       int64               `json:"size"`
	Indexed    *model.IngestResult `json:"indexed,omitempty"`
	IndexError string              `json:"index_error,omitempty"`
}

// UploadMedia stores a file under the uploads dir. PDFs are also indexed
// into the knowledge base; an indexing failure does not fail the upload.
func (h *Handler) UploadMedia(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required (form field: file)"})
	}

	name := util.Timestamped(file.Filename)
	savePath := filepath.Join(h.uploadDir, name)
	if err := c.SaveFile(file, savePath); err != nil {
		h.logger.Error("save file failed", "path", savePath, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save file"})
	}

	resp := uploadResponse{
		URL:  "/uploads/" + name,
		Name: name,
		Size: file.Size,
	}

	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		res, err := h.indexPDF(c, name, savePath)
		if err != nil {
			h.logger.Warn("indexing upload failed", "name", name, "error", err)
			resp.IndexError = err.Error()
		}
		resp.Indexed = res
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *Handler) indexPDF(c *fiber.Ctx, name, path string) (*model.IngestResult, error) {
	text, err := pdf.ExtractText(path)
	if err != nil {
		return nil, err
	}
	return h.knowledge.Ingest(c.Context(), name, text)
}

func (h *Handler) ListDocuments(c *fiber.Ctx) error {
	docs, err := h.knowledge.Documents(c.Context(), "")
	if err != nil {
		return h.fail(c, err, "failed to list documents")
	}
	return c.JSON(docs)
}
