package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/katakuxiko/deenbot/internal/model"
	"github.com/katakuxiko/deenbot/internal/pdf"
)

const (
	chunkSize    = 220
	chunkOverlap = 40
	defaultTopK  = 5
)

const systemPrompt = `You are DeenBot, an assistant that answers questions about Islamic rulings (fatwas).
Answer strictly from the provided context and in the language of the question.
Cite the context ids you relied on. If the context is not sufficient, say so honestly instead of guessing.`

// LLM is the part of LLMClient the RAG pipeline needs.
type LLM interface {
	Embedding(ctx context.Context, text string) ([]float32, error)
	Complete(ctx context.Context, system, user string) (string, error)
}

// ChunkStore persists embedded chunks and finds the nearest ones.
type ChunkStore interface {
	Add(ctx context.Context, doc string, c model.Chunk, v []float32) error
	Search(ctx context.Context, q []float32, k int) ([]model.Chunk, error)
	Documents(ctx context.Context, prefix string) ([]model.Document, error)
	DeleteDocument(ctx context.Context, doc string) error
}

type RAGService struct {
	store  ChunkStore
	llm    LLM
	topK   int
	logger *slog.Logger
}

func NewRAGService(store ChunkStore, llm LLM, topK int, logger *slog.Logger) *RAGService {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &RAGService{store: store, llm: llm, topK: topK, logger: logger}
}

// Ask answers query from the topK nearest chunks and returns them with the answer.
func (s *RAGService) Ask(ctx context.Context, query string, topK int) (string, []model.Chunk, error) {
	if topK <= 0 {
		topK = s.topK
	}

	vec, err := s.llm.Embedding(ctx, query)
	if err != nil {
		return "", nil, fmt.Errorf("embedding error: %w", err)
	}

	chunks, err := s.store.Search(ctx, vec, topK)
	if err != nil {
		return "", nil, fmt.Errorf("search error: %w", err)
	}

	var b strings.Builder
	for _, ch := range chunks {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", ch.ID, ch.Text)
	}

	answer, err := s.llm.Complete(ctx, systemPrompt, fmt.Sprintf("Context:\n%s\nQuestion: %s", b.String(), query))
	if err != nil {
		return "", nil, fmt.Errorf("llm error: %w", err)
	}

	return answer, chunks, nil
}

// Answer is Ask with the default topK, without the context chunks.
func (s *RAGService) Answer(ctx context.Context, question string) (string, error) {
	answer, _, err := s.Ask(ctx, question, s.topK)
	return answer, err
}

// Ingest splits text into overlapping chunks, embeds them and stores them
// under doc. Chunks that fail to embed or store are skipped.
func (s *RAGService) Ingest(ctx context.Context, doc, text string) (*model.IngestResult, error) {
	parts := pdf.ChunkByWords(pdf.Sanitize(text), chunkSize, chunkOverlap)
	if len(parts) == 0 {
		return nil, ErrNoText
	}

	res := &model.IngestResult{Doc: doc, ChunksTotal: len(parts)}
	for i, p := range parts {
		id := fmt.Sprintf("%s_chunk_%d", doc, i)

		emb, err := s.llm.Embedding(ctx, p)
		if err != nil {
			s.logger.Warn("embedding failed", "chunk", id, "error", err)
			continue
		}
		if err := s.store.Add(ctx, doc, model.Chunk{ID: id, Text: p}, emb); err != nil {
			s.logger.Warn("storing chunk failed", "chunk", id, "error", err)
			continue
		}
		res.ChunksSaved++
	}

	s.logger.Info("document indexed", "doc", doc, "chunks_total", res.ChunksTotal, "chunks_saved", res.ChunksSaved)
	return res, nil
}

func (s *RAGService) Documents(ctx context.Context, prefix string) ([]model.Document, error) {
	return s.store.Documents(ctx, prefix)
}

func (s *RAGService) DeleteDocument(ctx context.Context, doc string) error {
	return s.store.DeleteDocument(ctx, doc)
}
