package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	applog "finance/internal/log"
	"finance/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"started":   humanize.Time(s.started),
	}
	writeJSON(w, http.StatusOK, health)
}

// handleReady reports whether templates loaded and the ledger answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.ledger == nil {
		checks["ledger"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["ledger"] = map[string]any{
			"records": s.ledger.Snapshot().Stats.Count,
			"status":  "ok",
		}
	}

	if s.limiter != nil {
		checks["rate_limiter"] = map[string]any{
			"active_clients": s.limiter.ActiveClients(),
			"status":         "ok",
		}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.trace.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	stats := s.ledger.Snapshot().Stats

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP records_total Records currently stored\n")
	fmt.Fprintf(w, "# TYPE records_total gauge\n")
	fmt.Fprintf(w, "records_total %d\n\n", stats.Count)

	fmt.Fprintf(w, "# HELP spending_total Sum of all record amounts\n")
	fmt.Fprintf(w, "# TYPE spending_total gauge\n")
	fmt.Fprintf(w, "spending_total %s\n\n", stats.Total.Display())

	fmt.Fprintf(w, "# HELP suspicious_requests_total Requests flagged by the detector\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	if s.limiter != nil {
		limits := s.limiter.GetMetrics()
		fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
		fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
		fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", limits.TotalHits)

		fmt.Fprintf(w, "# HELP rate_limit_clients Active rate-limited clients\n")
		fmt.Fprintf(w, "# TYPE rate_limit_clients gauge\n")
		fmt.Fprintf(w, "rate_limit_clients %d\n", limits.ClientCount)
	}
}

type indexData struct {
	Today    string
	Snapshot services.Snapshot
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	s.render(w, r, "index.html", indexData{
		Today:    time.Now().Format(time.DateOnly),
		Snapshot: s.ledger.Snapshot(),
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentSecurity,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many changes, please wait a moment.").
		TriggerErrorNotification("Too many changes, please wait a moment.").
		Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
