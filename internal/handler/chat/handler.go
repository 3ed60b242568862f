package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	chatmodel "github.com/albertshoes/support/backend/internal/model/chat"
	"github.com/albertshoes/support/backend/internal/model/query"
	chatservice "github.com/albertshoes/support/backend/internal/service/chat"
	"github.com/albertshoes/support/backend/pkg/utils"
)

// Responder produces assistant replies for user input.
type Responder interface {
	Respond(ctx context.Context, userInput string) (string, error)
	Stream(ctx context.Context, userInput string) (*schema.StreamReader[*schema.Message], error)
}

// SentimentLogger records turn sentiment through the sentiment-analysis API.
type SentimentLogger interface {
	Submit(ctx context.Context, text string) (query.Record, error)
}

// Handler drives the turn-based conversation loop over HTTP.
type Handler struct {
	chatSvc          *chatservice.Service
	responder        Responder
	sentiment        SentimentLogger
	sentimentTimeout time.Duration
	validate         *validator.Validate
	log              zerolog.Logger
}

// New creates the chat handler. sentiment may be nil to disable the
// sentiment logging side call.
func New(chatSvc *chatservice.Service, responder Responder, sentiment SentimentLogger, sentimentTimeout time.Duration, log zerolog.Logger) *Handler {
	if sentimentTimeout == 0 {
		sentimentTimeout = 3 * time.Second
	}
	return &Handler{
		chatSvc:          chatSvc,
		responder:        responder,
		sentiment:        sentiment,
		sentimentTimeout: sentimentTimeout,
		validate:         validator.New(),
		log:              log,
	}
}

// RegisterRoutes mounts the chat endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/sessions", h.handleCreateSession)
	r.Get("/chat/sessions/{sessionID}/messages", h.handleTranscript)
	r.Post("/chat/sessions/{sessionID}/messages", h.handleTurn)
	r.Get("/chat/sessions/{sessionID}/stream", h.handleStream)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleTranscript returns the rendered turns of a session. The seeded
// system turn is not part of the user-facing surface.
func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.chatSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	rendered := make([]chatmodel.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role != chatmodel.RoleSystem {
			rendered = append(rendered, msg)
		}
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"messages": rendered})
}

type turnRequest struct {
	Content string `json:"content" validate:"required"`
}

// handleTurn runs one conversation turn: the user turn is appended first,
// sentiment logging fires in the background, and the assistant turn is
// appended once the responder answers.
func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload turnRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "content is required")
		return
	}

	userMsg, err := h.chatSvc.AppendTurn(r.Context(), sessionID, chatmodel.RoleUser, payload.Content)
	if err != nil {
		if errors.Is(err, chatservice.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to record turn")
		return
	}

	h.logSentiment(payload.Content)

	reply, err := h.responder.Respond(r.Context(), payload.Content)
	if err != nil {
		h.log.Error().Err(err).Msg("responder failed")
		utils.RespondError(w, http.StatusBadGateway, "assistant unavailable")
		return
	}

	assistantMsg, err := h.chatSvc.AppendTurn(r.Context(), sessionID, chatmodel.RoleAssistant, reply)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to record turn")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"messages": []chatmodel.Message{userMsg, assistantMsg},
	})
}

// logSentiment reports the turn to the sentiment-analysis API in the
// background. Failures and timeouts are logged and dropped; the chat turn
// must never wait on or fail because of this call.
func (h *Handler) logSentiment(text string) {
	if h.sentiment == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.sentimentTimeout)
		defer cancel()

		record, err := h.sentiment.Submit(ctx, text)
		if err != nil {
			h.log.Error().Err(err).Msg("failed to log sentiment for turn")
			return
		}
		h.log.Debug().Str("sentiment", record.Sentiment).Str("language", record.Language).Msg("turn sentiment logged")
	}()
}

// handleStream runs one conversation turn with the assistant reply delivered
// as an SSE token stream.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userMessage := r.URL.Query().Get("message")
	if userMessage == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	if _, err := h.chatSvc.AppendTurn(r.Context(), sessionID, chatmodel.RoleUser, userMessage); err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	h.logSentiment(userMessage)

	stream, err := h.responder.Stream(r.Context(), userMessage)
	if err != nil {
		h.log.Error().Err(err).Msg("responder stream failed")
		utils.RespondError(w, http.StatusBadGateway, "assistant unavailable")
		return
	}
	defer stream.Close()

	utils.SetupSSEHeaders(w)

	var reply string
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.log.Error().Err(err).Msg("stream receive failed")
			utils.SendSSEEvent(w, flusher, "error", map[string]string{"error": "stream interrupted"})
			return
		}

		reply += msg.Content
		utils.SendSSEEvent(w, flusher, "message", map[string]string{"content": msg.Content})
	}

	if _, err := h.chatSvc.AppendTurn(r.Context(), sessionID, chatmodel.RoleAssistant, reply); err != nil {
		h.log.Error().Err(err).Msg("failed to record assistant turn")
	}
	utils.SendSSEEvent(w, flusher, "done", map[string]string{"content": reply})
}
