package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/katakuxiko/deenbot/internal/model"
)

func (s *PgStore) CreateConversation(ctx context.Context, userID, title string) (*model.Conversation, error) {
	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, conv.ID, conv.UserID, conv.Title, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("could not insert conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns the user's conversations, most recently active first.
func (s *PgStore) ListConversations(ctx context.Context, userID string) ([]*model.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("could not list conversations: %w", err)
	}
	defer rows.Close()

	convs := []*model.Conversation{}
	for rows.Next() {
		c := &model.Conversation{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("could not scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// GetConversation fetches a conversation only if it belongs to userID.
func (s *PgStore) GetConversation(ctx context.Context, id uuid.UUID, userID string) (*model.Conversation, error) {
	c := &model.Conversation{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not get conversation: %w", err)
	}
	return c, nil
}

// DeleteConversation removes a conversation and, through the foreign key,
// its messages.
func (s *PgStore) DeleteConversation(ctx context.Context, id uuid.UUID, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("could not delete conversation: %w", err)
	}
	return expectAffected(res)
}

func (s *PgStore) SetTitle(ctx context.Context, id uuid.UUID, title string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE conversations SET title = $2 WHERE id = $1 AND title = ''`, id, title)
	if err != nil {
		return fmt.Errorf("could not set conversation title: %w", err)
	}
	return nil
}

// AddMessages stores msgs, all of one conversation, and bumps its
// updated_at in a single transaction. IDs and CreatedAt are assigned here,
// a microsecond apart so the messages list back in the order given.
func (s *PgStore) AddMessages(ctx context.Context, msgs ...*model.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i, m := range msgs {
		m.ID = uuid.New()
		m.CreatedAt = now.Add(time.Duration(i) * time.Microsecond)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO messages (id, conversation_id, role, content, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, m.ID, m.ConversationID, m.Role, m.Content, m.CreatedAt)
		if err != nil {
			return fmt.Errorf("could not insert message: %w", err)
		}
	}

	last := msgs[len(msgs)-1]
	res, err := tx.ExecContext(ctx, `UPDATE conversations SET updated_at = $2 WHERE id = $1`, last.ConversationID, last.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not touch conversation: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}

	return tx.Commit()
}

// ListMessages returns a conversation's messages oldest first.
func (s *PgStore) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*model.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("could not list messages: %w", err)
	}
	defer rows.Close()

	msgs := []*model.Message{}
	for rows.Next() {
		m := &model.Message{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("could not scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
