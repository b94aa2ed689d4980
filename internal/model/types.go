package model

import (
	"time"

	"github.com/google/uuid"
)

type Chunk struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Document struct {
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
}

// AskRequest is the body of POST /fatwaask. VideoID is accepted for
// compatibility with the frontend and not used.
type AskRequest struct {
	Question string `json:"question"`
	VideoID  string `json:"video_id"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

// QueryRequest is the body of POST /ask.
type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"topK,omitempty"`
}

type TranscriptRequest struct {
	VideoID    string `json:"video_id"`
	Transcript string `json:"transcript"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Conversation struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type CreateConversationRequest struct {
	Title string `json:"title"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

// Exchange is a question and the answer stored for it.
type Exchange struct {
	Question *Message `json:"question"`
	Answer   *Message `json:"answer"`
}

type IngestResult struct {
	Doc         string `json:"doc"`
	ChunksTotal int    `json:"chunks_total"`
	ChunksSaved int    `json:"chunks_saved"`
}
