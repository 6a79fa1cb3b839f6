package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/maturity-cli/internal/assessment"
	"github.com/sells-group/maturity-cli/internal/export"
	"github.com/sells-group/maturity-cli/internal/model"
	"github.com/sells-group/maturity-cli/internal/report"
	"github.com/sells-group/maturity-cli/internal/scorer"
	"github.com/sells-group/maturity-cli/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apiResponse{Success: status >= 200 && status < 300, Data: data}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apiResponse{Error: &apiError{Code: code, Message: message}}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		zap.L().Error("api: encode error response", zap.Error(err))
	}
}

// respondServiceError maps service errors to HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error, action string) {
	var mismatch *scorer.AnswerTypeMismatchError
	switch {
	case eris.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "assessment not found")
	case eris.Is(err, assessment.ErrAlreadyCompleted):
		respondError(w, http.StatusConflict, "already_completed", "assessment is already completed")
	case errors.As(err, &mismatch):
		respondError(w, http.StatusBadRequest, "answer_type_mismatch", mismatch.Error())
	case assessment.IsValidation(err), eris.Is(err, scorer.ErrInvalidAnswer):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		zap.L().Error("api: "+action, zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to "+action)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		zap.L().Warn("api: store not ready", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Scoring handlers

type scoreRequest struct {
	Answers  model.AnswerMap      `json:"answers"`
	Company  model.CompanyDetails `json:"company"`
	Expanded bool                 `json:"expanded"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if unknown := scorer.UnknownAnswers(s.service.Spec(), req.Answers); len(unknown) > 0 {
		respondError(w, http.StatusBadRequest, "validation_error", fmt.Sprintf("unknown questions: %v", unknown))
		return
	}

	rep, err := s.service.Builder().Build(report.Request{
		Answers:  req.Answers,
		Company:  req.Company,
		Expanded: req.Expanded,
	})
	if err != nil {
		respondServiceError(w, err, "score answers")
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

// Assessment handlers

func (s *Server) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	var req assessment.CreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := s.service.Create(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "create assessment")
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := s.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "get assessment")
		return
	}
	respondJSON(w, http.StatusOK, a)
}

type answersRequest struct {
	Answers model.AnswerMap `json:"answers"`
}

func (s *Server) handleSaveAnswers(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := s.service.SaveAnswers(r.Context(), chi.URLParam(r, "id"), req.Answers)
	if err != nil {
		respondServiceError(w, err, "save answers")
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	a, err := s.service.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "complete assessment")
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.service.Report(r.Context(), chi.URLParam(r, "id"), queryBool(r, "expanded"))
	if err != nil {
		respondServiceError(w, err, "build report")
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

// handleExport returns the bare export document as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.service.Export(r.Context(), id, queryBool(r, "details"))
	if err != nil {
		respondServiceError(w, err, "export assessment")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="assessment-%s.json"`, id))
	if err := export.Write(w, doc); err != nil {
		zap.L().Error("api: write export", zap.String("assessment_id", id), zap.Error(err))
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	a, err := s.service.Import(r.Context(), r.Body)
	if err != nil {
		respondServiceError(w, err, "import assessment")
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

// Benchmark and cohort handlers

func (s *Server) handleResolveBenchmark(w http.ResponseWriter, r *http.Request) {
	tbl := s.service.Builder().Table()
	if tbl == nil {
		respondError(w, http.StatusServiceUnavailable, "no_benchmarks", "no benchmark table loaded")
		return
	}
	q := r.URL.Query()
	respondJSON(w, http.StatusOK, tbl.Resolve(q.Get("sector"), q.Get("size")))
}

func (s *Server) handleIndustry(w http.ResponseWriter, r *http.Request) {
	rows, err := s.service.IndustryBenchmarks(r.Context())
	if err != nil {
		respondServiceError(w, err, "compute industry benchmarks")
		return
	}
	if r.URL.Query().Get("format") == "xlsx" {
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="industry.xlsx"`)
		if err := export.WriteIndustryXLSX(w, rows, s.service.Spec().Dimensions); err != nil {
			zap.L().Error("api: write industry xlsx", zap.Error(err))
		}
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "validation_error", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.service.Leaderboard(r.Context(), q.Get("sector"), limit)
	if err != nil {
		respondServiceError(w, err, "build leaderboard")
		return
	}
	if q.Get("format") == "xlsx" {
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.xlsx"`)
		if err := export.WriteLeaderboardXLSX(w, entries); err != nil {
			zap.L().Error("api: write leaderboard xlsx", zap.Error(err))
		}
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
