package query

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	queryservice "github.com/albertshoes/support/backend/internal/service/query"
	"github.com/albertshoes/support/backend/pkg/utils"
)

// Handler exposes the query-and-persist pipeline over HTTP.
type Handler struct {
	svc      *queryservice.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// New creates the query handler.
func New(svc *queryservice.Service, log zerolog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes mounts the query endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/user_query", h.handleSubmit)
	r.Get("/user_queries", h.handleList)
	r.Get("/user_queries/{id}", h.handleGet)
}

type submitRequest struct {
	Text string `json:"text" validate:"required"`
}

type submitResponse struct {
	Status    string `json:"status"`
	UserQuery string `json:"user_query"`
	Sentiment string `json:"sentiment"`
	Language  string `json:"language"`
	Timestamp string `json:"timestamp"`
}

// handleSubmit analyzes and stores one user query.
//
// Error mapping: validation failures → 400, upstream provider failures →
// 502, storage failures → 500.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload submitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	record, err := h.svc.Submit(r.Context(), payload.Text)
	if err != nil {
		h.respondSubmitError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, submitResponse{
		Status:    "Success",
		UserQuery: record.Text,
		Sentiment: record.Sentiment,
		Language:  record.Language,
		Timestamp: record.Timestamp,
	})
}

func (h *Handler) respondSubmitError(w http.ResponseWriter, err error) {
	var upstream *queryservice.UpstreamError
	var storage *queryservice.StorageError

	switch {
	case errors.Is(err, queryservice.ErrEmptyText), errors.Is(err, queryservice.ErrTextTooLong):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &upstream):
		h.log.Error().Err(err).Msg("sentiment analysis failed")
		utils.RespondError(w, http.StatusBadGateway, "sentiment analysis unavailable")
	case errors.As(err, &storage):
		h.log.Error().Err(err).Msg("storing user query failed")
		utils.RespondError(w, http.StatusInternalServerError, "failed to store user query")
	default:
		h.log.Error().Err(err).Msg("submit failed")
		utils.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// handleList returns every stored record plus a count.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("listing user queries failed")
		utils.RespondError(w, http.StatusInternalServerError, "failed to list user queries")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"user_queries": records,
		"total":        len(records),
	})
}

// handleGet returns one record by id, or 404 when absent.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, queryservice.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "User query not found")
			return
		}
		h.log.Error().Err(err).Msg("fetching user query failed")
		utils.RespondError(w, http.StatusInternalServerError, "failed to fetch user query")
		return
	}

	utils.RespondJSON(w, http.StatusOK, record)
}
