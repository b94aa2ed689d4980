package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/katakuxiko/deenbot/internal/model"
	"github.com/katakuxiko/deenbot/internal/util"
)

const titleRunes = 60

// ConversationStore persists conversations and their messages.
type ConversationStore interface {
	CreateConversation(ctx context.Context, userID, title string) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*model.Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID, userID string) (*model.Conversation, error)
	DeleteConversation(ctx context.Context, id uuid.UUID, userID string) error
	SetTitle(ctx context.Context, id uuid.UUID, title string) error
	AddMessages(ctx context.Context, msgs ...*model.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*model.Message, error)
}

// Asker turns a question into a displayable answer. FatwaService implements it.
type Asker interface {
	Ask(ctx context.Context, question, videoID string) string
}

type ChatService struct {
	store  ConversationStore
	asker  Asker
	logger *slog.Logger
}

func NewChatService(store ConversationStore, asker Asker, logger *slog.Logger) *ChatService {
	return &ChatService{store: store, asker: asker, logger: logger}
}

func (s *ChatService) Create(ctx context.Context, userID, title string) (*model.Conversation, error) {
	return s.store.CreateConversation(ctx, userID, util.TruncateRunes(strings.TrimSpace(title), titleRunes))
}

func (s *ChatService) List(ctx context.Context, userID string) ([]*model.Conversation, error) {
	return s.store.ListConversations(ctx, userID)
}

func (s *ChatService) Get(ctx context.Context, id uuid.UUID, userID string) (*model.Conversation, error) {
	return s.store.GetConversation(ctx, id, userID)
}

func (s *ChatService) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	return s.store.DeleteConversation(ctx, id, userID)
}

// Messages lists a conversation's messages after checking ownership.
func (s *ChatService) Messages(ctx context.Context, id uuid.UUID, userID string) ([]*model.Message, error) {
	if _, err := s.store.GetConversation(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, id)
}

// Send answers content and stores the question with its answer. Answering
// never fails; on a persistence error neither message is kept.
func (s *ChatService) Send(ctx context.Context, id uuid.UUID, userID, content string) (*model.Exchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	conv, err := s.store.GetConversation(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	question := &model.Message{ConversationID: id, Role: model.RoleUser, Content: content}
	answer := &model.Message{
		ConversationID: id,
		Role:           model.RoleAssistant,
		Content:        s.asker.Ask(ctx, content, ""),
	}
	if err := s.store.AddMessages(ctx, question, answer); err != nil {
		return nil, fmt.Errorf("storing exchange: %w", err)
	}

	if conv.Title == "" {
		if err := s.store.SetTitle(ctx, id, util.TruncateRunes(content, titleRunes)); err != nil {
			s.logger.Warn("could not title conversation", "conversation", id, "error", err)
		}
	}

	return &model.Exchange{Question: question, Answer: answer}, nil
}
