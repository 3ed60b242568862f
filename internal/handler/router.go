package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	chathandler "github.com/albertshoes/support/backend/internal/handler/chat"
	queryhandler "github.com/albertshoes/support/backend/internal/handler/query"
	"github.com/albertshoes/support/backend/pkg/utils"
)

// NewAPIRouter wires the sentiment-analysis API routes.
func NewAPIRouter(queryHandler *queryhandler.Handler) http.Handler {
	r := newBaseRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(api chi.Router) {
		queryHandler.RegisterRoutes(api)
	})

	return r
}

// NewChatRouter wires the chatbot routes.
func NewChatRouter(chatHandler *chathandler.Handler) http.Handler {
	r := newBaseRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api/v1", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
	})

	return r
}

func newBaseRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	return r
}
