package http

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rgdevment/spamguard/internal/apperr"
	"github.com/rgdevment/spamguard/internal/domain"
	"github.com/rgdevment/spamguard/internal/platform/http/middleware"
	"github.com/rgdevment/spamguard/internal/service"
)

const (
	defaultTopSpamLimit = 10
	defaultMinReports   = 1
)

type Handler struct {
	analysis service.AnalysisService
	reports  service.ReportService
	lookup   service.LookupService
	settings service.SettingsService
	log      zerolog.Logger
}

func NewHandler(
	analysis service.AnalysisService,
	reports service.ReportService,
	lookup service.LookupService,
	settings service.SettingsService,
	log zerolog.Logger,
) *Handler {
	return &Handler{analysis: analysis, reports: reports, lookup: lookup, settings: settings, log: log}
}

// RegisterRoutes mounts the /v1 surface. Callers wrap r with the API key
// middleware; the user identity check is applied here.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Route("/messages", func(r chi.Router) {
			r.Post("/analyze", h.Analyze)
			r.Post("/analyze/bulk", h.AnalyzeBulk)
			r.Get("/", h.ListMessages)
			r.Get("/stats", h.MessageStats)
			r.Get("/feedback/stats", h.FeedbackStats)
			r.Get("/{id}", h.GetMessage)
			r.Delete("/{id}", h.DeleteMessage)
			r.Post("/{id}/feedback", h.SubmitFeedback)
		})

		r.Post("/reports", h.CreateReport)
		r.Get("/reports/mine", h.UserReports)

		r.Route("/phone", func(r chi.Router) {
			r.Get("/top-spam", h.TopSpam)
			r.Post("/lookup", h.Lookup)
			r.Post("/lookup/bulk", h.LookupBulk)
			r.Get("/{number}", h.GetPhoneStats)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Post("/whitelist", h.AddWhitelist)
			r.Delete("/whitelist/{value}", h.RemoveWhitelist)
			r.Post("/blacklist", h.AddBlacklist)
			r.Delete("/blacklist/{value}", h.RemoveBlacklist)
			r.Put("/auto-block", h.UpdateAutoBlock)
		})

		r.Get("/stats", h.Counters)
	})
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	res, err := h.analysis.Analyze(r.Context(), middleware.UserID(r.Context()), req.Input())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) AnalyzeBulk(w http.ResponseWriter, r *http.Request) {
	var req BulkAnalyzeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	inputs := make([]service.AnalyzeInput, len(req.Messages))
	for i := range req.Messages {
		inputs[i] = req.Messages[i].Input()
	}

	res, err := h.analysis.AnalyzeBulk(r.Context(), middleware.UserID(r.Context()), inputs)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", service.DefaultPageSize)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	spamOnly, err := queryBool(r, "spam_only")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	filter := domain.MessageFilter{SpamOnly: spamOnly}
	page, err := h.analysis.ListMessages(r.Context(), middleware.UserID(r.Context()), filter, limit, offset)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := messageID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	msg, err := h.analysis.GetMessage(r.Context(), middleware.UserID(r.Context()), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := messageID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	if err := h.analysis.DeleteMessage(r.Context(), middleware.UserID(r.Context()), id); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := messageID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var req FeedbackRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	err = h.analysis.SubmitFeedback(r.Context(), middleware.UserID(r.Context()), id, domain.Feedback(req.Feedback))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (h *Handler) FeedbackStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analysis.FeedbackStats(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) MessageStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analysis.MessageStats(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	report, err := h.reports.IngestReport(r.Context(), middleware.UserID(r.Context()), service.ReportInput{
		PhoneNumber: req.PhoneNumber,
		CountryCode: req.CountryCode,
		Category:    req.Category,
		Reason:      req.Reason,
		CallerName:  req.CallerName,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateReportResponse{ID: report.ID.String(), Status: "accepted"})
}

func (h *Handler) UserReports(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", service.DefaultPageSize)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	page, err := h.reports.UserReports(r.Context(), middleware.UserID(r.Context()), limit, offset)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) GetPhoneStats(w http.ResponseWriter, r *http.Request) {
	number, err := pathValue(r, "number")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	stats, err := h.reports.CheckRisk(r.Context(), number, r.URL.Query().Get("country"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) TopSpam(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultTopSpamLimit)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	minReports, err := queryInt(r, "min_reports", defaultMinReports)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	top, err := h.reports.TopSpam(r.Context(), limit, minReports)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"numbers": top, "count": len(top)})
}

func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	info, err := h.lookup.Lookup(r.Context(), service.LookupInput{PhoneNumber: req.PhoneNumber, CountryCode: req.CountryCode})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) LookupBulk(w http.ResponseWriter, r *http.Request) {
	var req BulkLookupRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	inputs := make([]service.LookupInput, len(req.Numbers))
	for i, n := range req.Numbers {
		inputs[i] = service.LookupInput{PhoneNumber: n.PhoneNumber, CountryCode: n.CountryCode}
	}

	res, err := h.lookup.LookupBulk(r.Context(), inputs)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.settings.GetSettings(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) AddWhitelist(w http.ResponseWriter, r *http.Request) {
	h.addEntry(w, r, h.settings.AddWhitelist)
}

func (h *Handler) AddBlacklist(w http.ResponseWriter, r *http.Request) {
	h.addEntry(w, r, h.settings.AddBlacklist)
}

func (h *Handler) RemoveWhitelist(w http.ResponseWriter, r *http.Request) {
	h.removeEntry(w, r, h.settings.RemoveWhitelist)
}

func (h *Handler) RemoveBlacklist(w http.ResponseWriter, r *http.Request) {
	h.removeEntry(w, r, h.settings.RemoveBlacklist)
}

type addFunc func(ctx context.Context, userID string, in service.ListEntryInput) (*domain.UserSettings, error)

type removeFunc func(ctx context.Context, userID, value string) (*domain.UserSettings, error)

func (h *Handler) addEntry(w http.ResponseWriter, r *http.Request, add addFunc) {
	var req ListEntryRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	st, err := add(r.Context(), middleware.UserID(r.Context()), req.Input())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) removeEntry(w http.ResponseWriter, r *http.Request, remove removeFunc) {
	value, err := pathValue(r, "value")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	st, err := remove(r.Context(), middleware.UserID(r.Context()), value)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) UpdateAutoBlock(w http.ResponseWriter, r *http.Request) {
	var req AutoBlockRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	st, err := h.settings.UpdateAutoBlock(r.Context(), middleware.UserID(r.Context()), *req.Enabled, *req.Threshold)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) Counters(w http.ResponseWriter, r *http.Request) {
	c, err := h.settings.Counters(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func messageID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.InvalidInput("id", "must be a UUID")
	}
	return id, nil
}

// pathValue unescapes a path parameter, so "%2B1..." arrives as "+1...".
func pathValue(r *http.Request, name string) (string, error) {
	v, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil || v == "" {
		return "", apperr.InvalidInput(name, "malformed path value")
	}
	return v, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidInput(name, "must be an integer")
	}
	return n, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.InvalidInput(name, "must be true or false")
	}
	return b, nil
}
