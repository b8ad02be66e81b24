package web

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jeonjuho23/claude-daily/internal/application"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/infra/logging"
	"github.com/jeonjuho23/claude-daily/internal/infra/metrics"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type loginRequest struct {
	APIKey string `json:"api_key"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !s.auth.CheckKey(req.APIKey) {
		logging.With(r.Context(), s.log).Warn().Msg("admin login rejected")
		writeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}
	tok, err := s.auth.Mint(w, "admin", s.now())
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("mint admin token")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

type statusResponse struct {
	Running         bool       `json:"running"`
	Paused          bool       `json:"paused"`
	ActiveSchedules []string   `json:"active_schedules"`
	NextExecution   *time.Time `json:"next_execution,omitempty"`
	TotalGenerated  int        `json:"total_generated"`
	LastExecution   *time.Time `json:"last_execution,omitempty"`
	LastError       *string    `json:"last_error,omitempty"`
	UptimeSeconds   int64      `json:"uptime_seconds"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.ctrl.Status(r.Context())
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("status snapshot failed")
		writeError(w, http.StatusInternalServerError, "failed to read status")
		return
	}
	active := st.ActiveSchedules
	if active == nil {
		active = []string{}
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Running:         st.IsRunning,
		Paused:          st.IsPaused,
		ActiveSchedules: active,
		NextExecution:   st.NextExecution,
		TotalGenerated:  st.TotalGenerated,
		LastExecution:   st.LastExecution,
		LastError:       st.LastError,
		UptimeSeconds:   int64(st.Uptime / time.Second),
	})
}

type scheduleItem struct {
	ID      int64     `json:"id"`
	Time    string    `json:"time"`
	NextRun time.Time `json:"next_run"`
}

func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	views, err := s.ctrl.ListSchedules(r.Context())
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("list schedules failed")
		writeError(w, http.StatusInternalServerError, "failed to list schedules")
		return
	}
	items := make([]scheduleItem, 0, len(views))
	for _, v := range views {
		items = append(items, scheduleItem{ID: v.ID, Time: v.Time, NextRun: v.NextRun})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type commandRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = "admin-api"
	}
	reply := s.commands.Handle(r.Context(), application.CommandRequest{Text: req.Text, UserID: userID})
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var (
		data *model.ReportData
		err  error
	)
	kind := chi.URLParam(r, "kind")
	switch kind {
	case string(model.ReportTypeWeekly):
		data, err = s.reports.GenerateWeekly(r.Context())
	case string(model.ReportTypeMonthly):
		data, err = s.reports.GenerateMonthly(r.Context())
	default:
		writeError(w, http.StatusNotFound, "unknown report type")
		return
	}
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Str("kind", kind).Msg("report generation failed")
		writeError(w, http.StatusInternalServerError, "report generation failed")
		return
	}
	writeJSON(w, http.StatusOK, reportBody(data))
}

type categoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type reportResponse struct {
	Type                 string          `json:"type"`
	PeriodStart          string          `json:"period_start"`
	PeriodEnd            string          `json:"period_end"`
	Total                int             `json:"total"`
	Success              int             `json:"success"`
	Failed               int             `json:"failed"`
	Retries              int             `json:"retries"`
	SuccessRate          float64         `json:"success_rate"`
	CategoryDistribution []categoryCount `json:"category_distribution"`
	Uncovered            []string        `json:"uncovered_categories"`
	AvgDurationMs        *float64        `json:"avg_duration_ms,omitempty"`
}

func reportBody(d *model.ReportData) reportResponse {
	dist := make([]categoryCount, 0, len(d.CategoryDistribution))
	for c, n := range d.CategoryDistribution {
		dist = append(dist, categoryCount{Category: string(c), Count: n})
	}
	sort.Slice(dist, func(i, j int) bool {
		if dist[i].Count != dist[j].Count {
			return dist[i].Count > dist[j].Count
		}
		return dist[i].Category < dist[j].Category
	})
	uncovered := make([]string, 0, len(d.UncoveredCategories))
	for _, c := range d.UncoveredCategories {
		uncovered = append(uncovered, string(c))
	}
	return reportResponse{
		Type:                 string(d.Type),
		PeriodStart:          d.PeriodStart.Format(time.DateOnly),
		PeriodEnd:            d.LastDay().Format(time.DateOnly),
		Total:                d.TotalCount,
		Success:              d.SuccessCount,
		Failed:               d.FailedCount,
		Retries:              d.RetryCount,
		SuccessRate:          d.SuccessRate(),
		CategoryDistribution: dist,
		Uncovered:            uncovered,
		AvgDurationMs:        d.AvgDurationMs,
	}
}

// handleHealth checks every dependency and answers 503 if any is down.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	status := http.StatusOK
	for _, name := range names {
		if s.checks[name](r.Context()) {
			checks[name] = "ok"
			continue
		}
		checks[name] = "down"
		status = http.StatusServiceUnavailable
		metrics.IncHealthFailure(name)
	}
	writeJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": checks})
}
