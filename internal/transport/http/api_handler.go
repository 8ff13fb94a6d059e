package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ai-ops-scorecard/internal/app"
	"ai-ops-scorecard/internal/domain"
	"ai-ops-scorecard/internal/logger"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// APIHandler serves the stateless JSON endpoints.
type APIHandler struct {
	service *app.QuizService
	log     logger.Logger
}

func NewAPIHandler(service *app.QuizService, log logger.Logger) *APIHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &APIHandler{service: service, log: log}
}

type landingResponse struct {
	Screen domain.Screen `json:"screen"`
}

type catalogResponse struct {
	ID        string                `json:"id"`
	Questions []domain.Question     `json:"questions"`
	Options   []domain.AnswerOption `json:"options"`
	Tiers     []domain.Tier         `json:"tiers"`
}

type noticeResponse struct {
	Message string `json:"message"`
}

// SharedResults renders the results of a shared link. Malformed links fall back to the landing screen.
func (h *APIHandler) SharedResults(w http.ResponseWriter, r *http.Request) {
	sales, marketing, ops, ok := parseSharedScores(r.URL.Query().Get)
	if !ok {
		writeJSON(w, http.StatusOK, landingResponse{Screen: domain.ScreenLanding})
		return
	}
	results, err := h.service.SharedResults(r.Context(), sales, marketing, ops)
	if err != nil {
		h.log.Error(r.Context(), "failed to build shared results", logger.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// Catalog exposes the questions, options and tiers for rendering.
func (h *APIHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.service.Catalog(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrCatalogNotFound) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogResponse{
		ID:        catalog.ID,
		Questions: catalog.Questions,
		Options:   catalog.Options,
		Tiers:     catalog.Tiers,
	})
}

// ImplementationGuide accepts the implementation-guide form.
func (h *APIHandler) ImplementationGuide(w http.ResponseWriter, r *http.Request) {
	var req domain.GuideRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	req, err := validateGuide(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.service.RequestImplementationGuide(r.Context(), req)
	writeJSON(w, http.StatusAccepted, noticeResponse{Message: app.GuideReceivedNotice})
}
