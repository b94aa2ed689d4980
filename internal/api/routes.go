package api

func (s *Server) registerRoutes() {
	h := NewHandler(s.deps, s.config, s.logger)

	s.app.Get("/", h.Root)
	s.app.Post("/fatwaask", h.FatwaAsk)

	// moufti
	s.app.Get("/health", h.Health)
	s.app.Get("/models", h.ListModels)
	s.app.Post("/ask", h.AskQuestion)

	media := s.app.Group("/media")
	media.Post("/upload", h.UploadMedia)
	media.Get("/documents", h.ListDocuments)

	youtube := s.app.Group("/api/youtube")
	youtube.Post("/transcripts", h.IngestTranscript)
	youtube.Get("/videos", h.ListVideos)
	youtube.Delete("/videos/:id", h.DeleteVideo)

	chat := s.app.Group("/chat", identify(s.config.JWTSecret, s.config.AuthRequired, s.logger))
	chat.Post("/conversations", h.CreateConversation)
	chat.Get("/conversations", h.ListConversations)
	chat.Get("/conversations/:id", h.GetConversation)
	chat.Delete("/conversations/:id", h.DeleteConversation)
	chat.Get("/conversations/:id/messages", h.ListMessages)
	chat.Post("/conversations/:id/messages", h.SendMessage)
}
