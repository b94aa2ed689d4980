package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/katakuxiko/deenbot/internal/config"
)

var ErrEmptyCompletion = errors.New("llm returned no choices")

// LLMClient talks to an OpenAI compatible backend (LM Studio, Ollama, OpenAI).
type LLMClient struct {
	client    *openai.Client
	embedName string
	chatName  string
}

func NewLLMClient(cfg config.LLMConfig) *LLMClient {
	oaiCfg := openai.DefaultConfig(cfg.APIKey)
	oaiCfg.BaseURL = cfg.BaseURL

	return &LLMClient{
		client:    openai.NewClientWithConfig(oaiCfg),
		embedName: cfg.EmbedModel,
		chatName:  cfg.ChatModel,
	}
}

func (l *LLMClient) Embedding(ctx context.Context, text string) ([]float32, error) {
	resp, err := l.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(l.embedName),
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("llm returned no embeddings")
	}
	return resp.Data[0].Embedding, nil
}

// Complete runs a single chat completion and returns the trimmed reply.
func (l *LLMClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.chatName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (l *LLMClient) ListModels(ctx context.Context) ([]openai.Model, error) {
	resp, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	return resp.Models, nil
}
