package http

import (
	"context"
	"net/http"
	"time"

	"homeexpenses/internal/core"
	"homeexpenses/internal/filter"
	"homeexpenses/internal/log"
	"homeexpenses/internal/summary"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the store and reports cache and limiter state.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, httpStatus := "ready", http.StatusOK
	checks := map[string]any{}

	if err := s.store.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		checks["storage"] = "failed: " + err.Error()
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	checks["cache"] = map[string]any{"dashboard_entries": s.dashCache.Size()}
	lm := s.limiter.GetMetrics()
	checks["rate_limiter"] = map[string]any{"active_clients": lm.ClientCount, "rejected": lm.Rejected}
	tm := s.tracer.GetMetrics()
	checks["requests"] = map[string]any{"total": tm.TotalRequests, "server_errors": tm.ServerErrors}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

type previewResponse struct {
	summary.ImportPreview
	Sample []core.StoredExpense `json:"sample"`
}

// handleImport parses the uploaded files as one batch. With preview=true the
// batch is summarized and nothing is stored.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	up, err := readUploads(w, r, s.maxUpload)
	if err != nil {
		writeServiceError(w, r, log.OpImport, err)
		return
	}
	defer up.Close()

	if parseBool(r.URL.Query().Get("preview")) {
		p, err := s.store.Preview(ctx, up.files)
		if err != nil {
			writeServiceError(w, r, log.OpPreview, err)
			return
		}
		writeJSON(w, http.StatusOK, previewResponse{ImportPreview: p, Sample: toStored(p.Sample)})
		return
	}

	res, err := s.store.Import(ctx, up.files)
	if err != nil {
		writeServiceError(w, r, log.OpImport, err)
		return
	}
	s.invalidate(ctx)
	writeJSON(w, http.StatusCreated, res)
}

type listResponse struct {
	Count    int                  `json:"count"`
	Total    float64              `json:"total"`
	Expenses []core.StoredExpense `json:"expenses"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	state, err := ParseFilter(r.URL.Query(), s.location, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	all, err := s.store.Expenses(r.Context())
	if err != nil {
		writeServiceError(w, r, log.OpList, err)
		return
	}
	filtered := filter.Apply(all, state)
	writeJSON(w, http.StatusOK, listResponse{
		Count:    len(filtered),
		Total:    summary.TotalSpending(filtered),
		Expenses: toStored(filtered),
	})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing expense id")
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, log.OpDelete, err)
		return
	}
	s.invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	removed, err := s.store.Clear(r.Context())
	if err != nil {
		writeServiceError(w, r, log.OpClear, err)
		return
	}
	s.invalidate(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	state, err := ParseFilter(r.URL.Query(), s.location, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := s.dashboard(r.Context(), state)
	if err != nil {
		writeServiceError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, filter.Presets(s.now().In(s.location)))
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.clientIP.Extract(r), "path", r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

func toStored(expenses []core.Expense) []core.StoredExpense {
	out := make([]core.StoredExpense, len(expenses))
	for i, e := range expenses {
		out[i] = core.ToStored(e)
	}
	return out
}
