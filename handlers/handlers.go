package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	apperrors "github.com/shivendrra/synapse/errors"
	"github.com/shivendrra/synapse/middleware"
	"github.com/shivendrra/synapse/models"
	"github.com/shivendrra/synapse/utils"
	"github.com/shivendrra/synapse/validation"
)

type SearchRunner interface {
	Run(ctx context.Context, query string) (*models.ResultMap, error)
}

type ConvertRunner interface {
	Run(ctx context.Context, sources []string) (string, error)
}

type History interface {
	ListSearches(ctx context.Context, limit int) ([]models.SearchRun, error)
	ListConversions(ctx context.Context, limit int) ([]models.Conversion, error)
	SearchResults(ctx context.Context, runID string) (*models.ResultMap, error)
}

type Handler struct {
	search  SearchRunner
	convert ConvertRunner
	history History
	log     logrus.FieldLogger
}

// NewHandler wires the API. history may be nil, which disables /api/history.
func NewHandler(search SearchRunner, convert ConvertRunner, history History, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{search: search, convert: convert, history: history, log: log}
}

type RouterConfig struct {
	RateLimit         int
	RateLimitInterval time.Duration
}

func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(h.log))
	r.Use(chimw.Recoverer)

	r.Get("/health", h.Health)

	r.Route("/api", func(api chi.Router) {
		limiter := rate.NewLimiter(rate.Every(cfg.RateLimitInterval), cfg.RateLimit)
		api.Use(middleware.RateLimit(limiter))

		api.Post("/search", h.Search)
		api.Post("/convert", h.Convert)
		if h.history != nil {
			api.Get("/history", h.History)
			api.Get("/history/{runID}", h.SearchRun)
		}
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type searchRequest struct {
	Query string `json:"query"`
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.Search"

	var req searchRequest
	if err := decodeRequest(r, &req); err != nil {
		utils.RespondWithError(w, apperrors.InvalidInput(op, err, "Invalid request body"))
		return
	}
	if req.Query == "" {
		req.Query = r.FormValue("query")
	}

	results, err := h.search.Run(r.Context(), req.Query)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"query":   strings.TrimSpace(req.Query),
		"results": results.Len(),
	}).Info("Search request served")
	utils.RespondWithJSON(w, http.StatusOK, results)
}

type convertRequest struct {
	URLs []string `json:"urls"`
}

// Convert accepts remote URLs only; local paths are never read on behalf of
// API callers.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.Convert"

	var req convertRequest
	if err := decodeRequest(r, &req); err != nil {
		utils.RespondWithError(w, apperrors.InvalidInput(op, err, "Invalid request body"))
		return
	}
	if len(req.URLs) == 0 {
		if u := r.FormValue("url"); u != "" {
			req.URLs = []string{u}
		}
	}
	if len(req.URLs) == 0 {
		utils.RespondWithError(w, apperrors.InvalidInput(op, nil, "at least one URL is required"))
		return
	}
	for _, u := range req.URLs {
		if err := validation.ValidateURL(u); err != nil {
			utils.RespondWithError(w, err)
			return
		}
	}

	out, err := h.convert.Run(r.Context(), req.URLs)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, json.RawMessage(out))
}

type historyResponse struct {
	Searches    []models.SearchRun  `json:"searches"`
	Conversions []models.Conversion `json:"conversions"`
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.History"

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			utils.RespondWithError(w, apperrors.InvalidInput(op, err, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	searches, err := h.history.ListSearches(r.Context(), limit)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	conversions, err := h.history.ListConversions(r.Context(), limit)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	resp := historyResponse{Searches: searches, Conversions: conversions}
	if resp.Searches == nil {
		resp.Searches = []models.SearchRun{}
	}
	if resp.Conversions == nil {
		resp.Conversions = []models.Conversion{}
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// SearchRun returns the result map a past search produced.
func (h *Handler) SearchRun(w http.ResponseWriter, r *http.Request) {
	results, err := h.history.SearchResults(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, results)
}

// decodeRequest reads a JSON body when one is sent. Form bodies are left for
// r.FormValue.
func decodeRequest(r *http.Request, v any) error {
	if r.Body == nil || !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
