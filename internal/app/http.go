package app

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jbeauty/content/internal/fetch"
	"jbeauty/content/internal/metrics"
	"jbeauty/content/internal/view"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.URL.Path == "/metrics" && r.Method == http.MethodGet {
		promhttp.Handler().ServeHTTP(w, r)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := s.service.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":     false,
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "status": "ready"})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/brands" {
		s.handleBrands(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/news" {
		s.handleNewsList(w, r)
		return
	}

	if r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/news/") {
		s.handleNewsDetail(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/profile" {
		s.handleProfile(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/notice" {
		s.handleNotice(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/notice/suppress" {
		s.handleNoticeSuppress(w, r)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func refreshRequested(r *http.Request) bool {
	return r.URL.Query().Get("refresh") == "1"
}

func (s *HTTPServer) handleBrands(w http.ResponseWriter, r *http.Request) {
	snap := s.service.Brands(r.Context(), refreshRequested(r))
	if snap.State == fetch.StateFailed {
		writeDomainError(w, fetchError(snap.Kind, snap.Err))
		return
	}

	payload := map[string]any{
		"state":   snap.State,
		"dropped": snap.Data.Report.Dropped,
	}
	if r.URL.Query().Get("grouped") == "1" {
		payload["groups"] = view.Groups(snap.Data.Brands)
	} else {
		payload["brands"] = snap.Data.Brands
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleNewsList(w http.ResponseWriter, r *http.Request) {
	snap := s.service.News(r.Context(), refreshRequested(r))
	if snap.State == fetch.StateFailed {
		writeDomainError(w, fetchError(snap.Kind, snap.Err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state":   snap.State,
		"items":   snap.Data.Items,
		"dropped": snap.Data.Report.Dropped,
	})
}

func (s *HTTPServer) handleNewsDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/news/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	snap := s.service.NewsDetail(r.Context(), id, refreshRequested(r))
	if snap.State == fetch.StateFailed {
		writeDomainError(w, fetchError(snap.Kind, snap.Err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state": snap.State,
		"item":  snap.Data,
	})
}

func (s *HTTPServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	snap := s.service.Profile(r.Context(), refreshRequested(r))
	if snap.State == fetch.StateFailed {
		writeDomainError(w, fetchError(snap.Kind, snap.Err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state":   snap.State,
		"profile": snap.Data,
	})
}

func (s *HTTPServer) handleNotice(w http.ResponseWriter, r *http.Request) {
	payload, show := s.service.Notice(r.Context(), time.Now())
	writeJSON(w, http.StatusOK, map[string]any{
		"show":   show,
		"notice": payload,
	})
}

func (s *HTTPServer) handleNoticeSuppress(w http.ResponseWriter, r *http.Request) {
	s.service.SuppressNotice(r.Context(), time.Now())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Content-Type", "application/json")

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)

		metrics.Default().HTTPRequestTotal.
			WithLabelValues(r.Method, pathLabel(r.URL.Path), strconv.Itoa(recorder.status)).
			Inc()
		if recorder.status >= 500 {
			log.Printf("http: %s %s -> %d (%s)", r.Method, r.URL.Path, recorder.status, time.Since(start))
		}
	})
}

// pathLabel collapses record ids so metric cardinality stays bounded.
func pathLabel(path string) string {
	if strings.HasPrefix(path, "/api/news/") && path != "/api/news/" {
		return "/api/news/{id}"
	}
	return path
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func writeDomainError(w http.ResponseWriter, err *DomainError) {
	writeError(w, err.Status, err.Code, err.Message, err.Details)
}
