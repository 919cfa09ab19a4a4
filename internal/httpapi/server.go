package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"netwatch/internal/domain"
	"netwatch/internal/monitor"
)

// Reader is the read-only capability the API needs from the core. The server
// never mutates monitor state through it.
type Reader interface {
	Targets() []domain.Target
	LatestStatus() domain.StatusSample
	History(sinceDays, maxCount int, includePing bool) monitor.History
	UptimeStats(days int) []monitor.TargetUptime
	LatestResult(targetID string) (domain.ProbeResult, bool)
	ResultsHistory(targetID string, sinceDays, maxCount int) []domain.ProbeResult
	UptimePercentage(targetID string, days int) float64
	AverageResponseTime(targetID string, days int) float64
}

type Server struct {
	Logger *zap.Logger
	Core   Reader
}

func NewServer(l *zap.Logger, core Reader) *Server {
	return &Server{Logger: l, Core: core}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/status/latest", s.handleLatestStatus)
	r.Get("/api/status/history", s.handleHistory)
	r.Get("/api/status/uptime", s.handleUptimeStats)

	r.Get("/api/targets", s.handleTargets)
	r.Get("/api/targets/{id}/latest", s.handleLatestResult)
	r.Get("/api/targets/{id}/history", s.handleResultsHistory)
	r.Get("/api/targets/{id}/uptime", s.handleUptimePercentage)
	r.Get("/api/targets/{id}/response-time", s.handleAverageResponseTime)

	return r
}

func (s *Server) handleLatestStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Core.LatestStatus())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 0)
	max := queryInt(r, "max", 0)
	includePing := r.URL.Query().Get("ping") == "true"
	writeJSON(w, s.Core.History(days, max, includePing))
}

func (s *Server) handleUptimeStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Core.UptimeStats(queryInt(r, "days", 0)))
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Core.Targets())
}

func (s *Server) handleLatestResult(w http.ResponseWriter, r *http.Request) {
	res, ok := s.Core.LatestResult(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "no results for target", http.StatusNotFound)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleResultsHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, s.Core.ResultsHistory(id, queryInt(r, "days", 0), queryInt(r, "max", 0)))
}

func (s *Server) handleUptimePercentage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, map[string]float64{"uptimePercent": s.Core.UptimePercentage(id, queryInt(r, "days", 0))})
}

func (s *Server) handleAverageResponseTime(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, map[string]float64{"avgResponseMs": s.Core.AverageResponseTime(id, queryInt(r, "days", 0))})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
