package analyzer

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Bahjat/seo-monitor/internal/model"
	"github.com/Bahjat/seo-monitor/internal/platform/errs"
	"github.com/Bahjat/seo-monitor/internal/platform/reqctx"
	"github.com/Bahjat/seo-monitor/internal/platform/respond"
)

var errURLRequired = errors.New("the \"url\" field is required")

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Transport handles HTTP requests for page analysis and history.
type Transport struct {
	service *Service
	logger  *slog.Logger
}

// NewTransport creates an HTTP transport backed by the given service.
func NewTransport(service *Service, logger *slog.Logger) *Transport {
	return &Transport{service: service, logger: logger}
}

// RegisterRoutes attaches the transport's handlers to the given mux. Both
// routes run behind auth; analysis additionally runs behind limit.
func (t *Transport) RegisterRoutes(mux *http.ServeMux, auth, limit Middleware) {
	mux.Handle("POST /api/analyze", auth(limit(http.HandlerFunc(t.handleAnalyze))))
	mux.Handle("GET /api/history", auth(http.HandlerFunc(t.handleHistory)))
}

type analyzeRequest struct {
	URL string `json:"url"`
}

func (r analyzeRequest) validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return errURLRequired
	}
	return nil
}

func (t *Transport) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	user, ok := t.user(w, r)
	if !ok {
		return
	}

	const maxRequestBody = 1 << 20 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, t.logger, http.StatusBadRequest, "Invalid request body. Please send a JSON object with a \"url\" field.")
		return
	}

	if err := req.validate(); err != nil {
		respond.Error(w, t.logger, http.StatusBadRequest, err.Error())
		return
	}

	result, err := t.service.Analyze(r.Context(), user.ID, strings.TrimSpace(req.URL))
	if err != nil {
		respond.AppError(w, t.logger, err)
		return
	}

	respond.JSON(w, t.logger, http.StatusOK, result)
}

func (t *Transport) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := t.user(w, r)
	if !ok {
		return
	}

	filter, err := parseHistoryQuery(r)
	if err != nil {
		respond.AppError(w, t.logger, err)
		return
	}

	results, err := t.service.History(r.Context(), user.ID, filter)
	if err != nil {
		respond.AppError(w, t.logger, err)
		return
	}

	respond.JSON(w, t.logger, http.StatusOK, results)
}

func (t *Transport) user(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := reqctx.User(r.Context())
	if !ok {
		respond.AppError(w, t.logger, errs.E(errs.Unauthorized, "Please log in to continue."))
	}
	return user, ok
}

func parseHistoryQuery(r *http.Request) (model.ResultFilter, error) {
	q := r.URL.Query()
	var filter model.ResultFilter

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, errs.E(errs.InvalidInput, "limit must be a non-negative integer.")
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, errs.E(errs.InvalidInput, "offset must be a non-negative integer.")
		}
		filter.Offset = n
	}
	if v := q.Get("url"); v != "" {
		filter.URL = &v
	}
	return filter, nil
}
