package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"finsight/internal/query"
)

var decimalMillion = decimal.NewFromInt(1_000_000)

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Answer string          `json:"answer"`
	Chart  json.RawMessage `json:"chart,omitempty"`
}

// handleQuery answers a free-text question. Identical questions within the
// cache TTL are served from the answer cache; the dataset is fixed for the
// life of the process, so staleness is bounded by redeploys, not data.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.ErrorContext(r.Context(), "Decode query request failed", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "query must not be empty", http.StatusBadRequest)
		return
	}

	cacheKey := strings.ToLower(strings.TrimSpace(req.Query))
	if resp, ok := s.answerCache.Get(cacheKey); ok {
		writeJSON(w, r, http.StatusOK, resp)
		return
	}

	full := s.copilot.ProcessQuery(req.Query)
	text, chartJSON := query.SplitChart(full)

	resp := queryResponse{Answer: text}
	if chartJSON != "" {
		resp.Chart = json.RawMessage(chartJSON)
	}
	s.answerCache.Set(cacheKey, resp)

	writeJSON(w, r, http.StatusOK, resp)
}

type dashboardSnapshot struct {
	Month          string `json:"month"`
	Revenue        string `json:"revenue"`
	GrossMarginPct string `json:"gross_margin_pct"`
	Opex           string `json:"opex"`
	RunwayMonths   string `json:"runway_months"`
}

const dashboardKey = "snapshot"

// notAvailable is the snapshot placeholder for metrics the dataset cannot
// answer; the dashboard renders it verbatim instead of erroring.
const notAvailable = "N/A"

// handleDashboard serves the headline snapshot for the latest data month.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if snap, ok := s.dashboardCache.Get(dashboardKey); ok {
		writeJSON(w, r, http.StatusOK, snap)
		return
	}

	snap := s.buildSnapshot()
	s.dashboardCache.Set(dashboardKey, snap)
	writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) buildSnapshot() dashboardSnapshot {
	latest := s.engine.LatestMonth()
	snap := dashboardSnapshot{
		Month:          string(latest),
		Revenue:        notAvailable,
		GrossMarginPct: notAvailable,
		Opex:           notAvailable,
		RunwayMonths:   notAvailable,
	}

	if points := s.engine.RevenueTrend(latest, latest); len(points) > 0 {
		millions := points[0].RevenueUSD.Div(decimalMillion).InexactFloat64()
		snap.Revenue = fmt.Sprintf("$%.1fM", millions)
	}
	if points := s.engine.GrossMarginTrend(latest, latest); len(points) > 0 {
		snap.GrossMarginPct = fmt.Sprintf("%.1f%%", points[0].GrossMarginPct)
	}
	if points := s.engine.OpexTrend(latest, latest); len(points) > 0 && points[0].OpexUSD.IsPositive() {
		millions := points[0].OpexUSD.Div(decimalMillion).InexactFloat64()
		snap.Opex = fmt.Sprintf("$%.1fM", millions)
	}
	if runway, ok := s.engine.CashRunway(); ok {
		snap.RunwayMonths = fmt.Sprintf("%.1f", runway)
	}

	return snap
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Encode response failed", "error", err)
	}
}
