// Package inmemory keeps chunks and conversations in process memory. It
// backs the server when no database is configured and the handler tests.
package inmemory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/katakuxiko/deenbot/internal/model"
	"github.com/katakuxiko/deenbot/internal/store"
)

type storedChunk struct {
	doc    string
	chunk  model.Chunk
	vector []float32
}

type Store struct {
	mu            sync.RWMutex
	chunks        []storedChunk
	conversations map[uuid.UUID]*model.Conversation
	messages      map[uuid.UUID][]*model.Message
}

func New() *Store {
	return &Store{
		conversations: make(map[uuid.UUID]*model.Conversation),
		messages:      make(map[uuid.UUID][]*model.Message),
	}
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) EnsureSchema(context.Context) error {
	return nil
}

func (s *Store) Add(_ context.Context, doc string, c model.Chunk, v []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chunks = append(s.chunks, storedChunk{doc: doc, chunk: c, vector: append([]float32(nil), v...)})
	return nil
}

// Search ranks chunks by euclidean distance to q, like pgvector's <-> operator.
func (s *Store) Search(_ context.Context, q []float32, k int) ([]model.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		chunk model.Chunk
		dist  float64
	}
	ranked := make([]scored, 0, len(s.chunks))
	for _, c := range s.chunks {
		ranked = append(ranked, scored{chunk: c.chunk, dist: l2(q, c.vector)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].dist < ranked[j].dist })

	res := make([]model.Chunk, 0, min(k, len(ranked)))
	for i := 0; i < len(ranked) && i < k; i++ {
		res = append(res, ranked[i].chunk)
	}
	return res, nil
}

func (s *Store) Documents(_ context.Context, prefix string) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, c := range s.chunks {
		if strings.HasPrefix(c.doc, prefix) {
			counts[c.doc]++
		}
	}

	docs := make([]model.Document, 0, len(counts))
	for name, n := range counts {
		docs = append(docs, model.Document{Name: name, Chunks: n})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

func (s *Store) DeleteDocument(_ context.Context, doc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if c.doc != doc {
			kept = append(kept, c)
		}
	}
	removed := len(s.chunks) - len(kept)
	s.chunks = kept
	if removed == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateConversation(_ context.Context, userID, title string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	c := &model.Conversation{ID: uuid.New(), UserID: userID, Title: title, CreatedAt: now, UpdatedAt: now}
	s.conversations[c.ID] = c

	cp := *c
	return &cp, nil
}

func (s *Store) ListConversations(_ context.Context, userID string) ([]*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	convs := []*model.Conversation{}
	for _, c := range s.conversations {
		if c.UserID == userID {
			cp := *c
			convs = append(convs, &cp)
		}
	}
	sort.Slice(convs, func(i, j int) bool { return convs[i].UpdatedAt.After(convs[j].UpdatedAt) })
	return convs, nil
}

func (s *Store) GetConversation(_ context.Context, id uuid.UUID, userID string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) DeleteConversation(_ context.Context, id uuid.UUID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok || c.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.conversations, id)
	delete(s.messages, id)
	return nil
}

func (s *Store) SetTitle(_ context.Context, id uuid.UUID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.conversations[id]; ok && c.Title == "" {
		c.Title = title
	}
	return nil
}

func (s *Store) AddMessages(_ context.Context, msgs ...*model.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[msgs[0].ConversationID]
	if !ok {
		return store.ErrNotFound
	}
	now := time.Now().UTC()
	for i, m := range msgs {
		m.ID = uuid.New()
		m.CreatedAt = now.Add(time.Duration(i) * time.Microsecond)

		cp := *m
		s.messages[c.ID] = append(s.messages[c.ID], &cp)
	}
	c.UpdatedAt = msgs[len(msgs)-1].CreatedAt
	return nil
}

func (s *Store) ListMessages(_ context.Context, conversationID uuid.UUID) ([]*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := make([]*model.Message, 0, len(s.messages[conversationID]))
	for _, m := range s.messages[conversationID] {
		cp := *m
		msgs = append(msgs, &cp)
	}
	return msgs, nil
}

func l2(a, b []float32) float64 {
	n := max(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		var x, y float64
		if i < len(a) {
			x = float64(a[i])
		}
		if i < len(b) {
			y = float64(b[i])
		}
		sum += (x - y) * (x - y)
	}
	return math.Sqrt(sum)
}
