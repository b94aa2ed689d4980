package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/katakuxiko/deenbot/internal/config"
)

var _ = Describe("LLMClient", func() {
	var (
		server   *httptest.Server
		client   *LLMClient
		lastBody map[string]any
		choices  []map[string]any
	)

	BeforeEach(func() {
		lastBody = nil
		choices = []map[string]any{
			{"index": 0, "message": map[string]any{"role": "assistant", "content": "  Wa alaykum as-salam  "}, "finish_reason": "stop"},
		}

		mux := http.NewServeMux()
		mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&lastBody)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"object":"list","model":"embed","data":[{"object":"embedding","index":0,"embedding":[0.25,-0.5,1]}]}`))
		})
		mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&lastBody)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"model":   "chat",
				"choices": choices,
			})
		})
		mux.HandleFunc("/v1/models", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"google/gemma-3n-e4b","object":"model","owned_by":"lmstudio"}]}`))
		})
		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)

		client = NewLLMClient(config.LLMConfig{
			BaseURL:    server.URL + "/v1",
			APIKey:     "not-needed",
			EmbedModel: "embed",
			ChatModel:  "chat",
		})
	})

	It("returns the first embedding", func() {
		vec, err := client.Embedding(context.Background(), "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(Equal([]float32{0.25, -0.5, 1}))
		Expect(lastBody["model"]).To(Equal("embed"))
	})

	It("sends system and user messages and trims the reply", func() {
		reply, err := client.Complete(context.Background(), "be helpful", "salam")
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(Equal("Wa alaykum as-salam"))

		Expect(lastBody["model"]).To(Equal("chat"))
		msgs, ok := lastBody["messages"].([]any)
		Expect(ok).To(BeTrue())
		Expect(msgs).To(HaveLen(2))
		Expect(msgs[0].(map[string]any)["role"]).To(Equal("system"))
		Expect(msgs[1].(map[string]any)["content"]).To(Equal("salam"))
	})

	It("reports a completion without choices", func() {
		choices = []map[string]any{}
		_, err := client.Complete(context.Background(), "s", "u")
		Expect(err).To(MatchError(ErrEmptyCompletion))
	})

	It("lists models", func() {
		models, err := client.ListModels(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(models).To(HaveLen(1))
		Expect(models[0].ID).To(Equal("google/gemma-3n-e4b"))
	})

	It("surfaces backend errors", func() {
		server.Close()
		_, err := client.Embedding(context.Background(), "hello")
		Expect(err).To(HaveOccurred())
	})
})
