package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"crowd-pulse-lab/internal/analytics"
	"crowd-pulse-lab/internal/domain"
)

// maxIntervalMinutes bounds the interval query parameter to one week.
const maxIntervalMinutes = 7 * 24 * 60

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// SeriesResponse is the body of the series endpoint.
type SeriesResponse struct {
	Asset           string        `json:"asset"`
	Metric          domain.Metric `json:"metric"`
	IntervalMinutes int           `json:"interval_minutes"`
	Points          any           `json:"points"`
}

// RiskResponse is the body of the risk endpoint.
type RiskResponse struct {
	Asset         string                     `json:"asset"`
	Points        []domain.RiskPoint         `json:"points"`
	ClassBalances []domain.ClassBalancePoint `json:"class_balances"`
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

// report handles GET /api/v1/assets/{asset}/report
func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	report, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// series handles GET /api/v1/assets/{asset}/series/{metric}
func (s *Server) series(w http.ResponseWriter, r *http.Request) {
	metric, err := domain.ParseMetric(mux.Vars(r)["metric"])
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "unknown_metric", err.Error())
		return
	}

	report, ok := s.load(w, r)
	if !ok {
		return
	}

	points, err := report.Detail(metric)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "unknown_metric", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SeriesResponse{
		Asset:           report.Asset,
		Metric:          metric,
		IntervalMinutes: report.IntervalMinutes,
		Points:          points,
	})
}

// risk handles GET /api/v1/assets/{asset}/risk
func (s *Server) risk(w http.ResponseWriter, r *http.Request) {
	report, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, RiskResponse{
		Asset:         report.Asset,
		Points:        report.Risk,
		ClassBalances: report.ClassBalances,
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s.writeError(w, r, http.StatusNotFound, "endpoint_not_found", "The requested endpoint does not exist")
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s.writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET is supported")
}

// load parses the request and fetches its report, writing the error
// response itself on failure.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (*analytics.Report, bool) {
	req, err := parseRequest(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return nil, false
	}

	report, err := s.service.Report(r.Context(), req)
	if err != nil {
		status, code := classify(err)
		if status >= http.StatusInternalServerError {
			s.log.Error().Err(err).Str("request_id", RequestID(r.Context())).Str("asset", req.Asset).Msg("report failed")
		}
		s.writeError(w, r, status, code, err.Error())
		return nil, false
	}
	return report, true
}

func parseRequest(r *http.Request) (analytics.Request, error) {
	req := analytics.Request{Asset: strings.TrimSpace(mux.Vars(r)["asset"])}
	if req.Asset == "" {
		return req, errors.New("asset is required")
	}

	q := r.URL.Query()
	if v := q.Get("interval"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxIntervalMinutes {
			return req, fmt.Errorf("interval must be an integer number of minutes in [1, %d], got %q", maxIntervalMinutes, v)
		}
		req.IntervalMinutes = n
	}

	start, err := parseMs(q.Get("start"))
	if err != nil {
		return req, fmt.Errorf("start: %w", err)
	}
	end, err := parseMs(q.Get("end"))
	if err != nil {
		return req, fmt.Errorf("end: %w", err)
	}
	// An open end stays 0 so repeated requests share a cache key.
	if end != 0 && start > end {
		return req, fmt.Errorf("start %d is after end %d", start, end)
	}
	req.StartMs, req.EndMs = start, end

	return req, nil
}

func parseMs(v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("expected epoch milliseconds, got %q", v)
	}
	return n, nil
}

// classify maps service errors to HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, analytics.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, domain.ErrUnknownMetric):
		return http.StatusBadRequest, "unknown_metric"
	case errors.Is(err, analytics.ErrUpstream):
		return http.StatusBadGateway, "upstream_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeJSON writes JSON response with proper error handling
func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, `{"error":"json_encoding_failed"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// writeError writes standardized error response
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: RequestID(r.Context()),
		Timestamp: time.Now().UTC(),
	})
}
