// Package httpadapter exposes the upload, chain, report and audit flows
// over HTTP.
package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
	"github.com/gluteintel/progress-tracker/internal/core/ports"
	"github.com/gluteintel/progress-tracker/internal/observability/metrics"
)

const maxUploadMemory = 32 << 20

type Router struct {
	ingestor ports.ImageIngestor
	chainer  ports.SessionChainer
	comparer ports.SessionComparer
	auditor  ports.SessionAuditor
	reporter ports.SessionReporter
	store    ports.SessionStore
	queue    ports.ChainQueue

	service string
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	ingestor ports.ImageIngestor,
	chainer ports.SessionChainer,
	comparer ports.SessionComparer,
	auditor ports.SessionAuditor,
	reporter ports.SessionReporter,
	store ports.SessionStore,
	queue ports.ChainQueue,
	service string,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		ingestor: ingestor,
		chainer:  chainer,
		comparer: comparer,
		auditor:  auditor,
		reporter: reporter,
		store:    store,
		queue:    queue,
		service:  service,
		metrics:  serverMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/sessions", rt.listSessions)
	mux.HandleFunc("/v1/sessions/", rt.sessionSubresource)
	mux.HandleFunc("/v1/audit", rt.auditAll)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	return rt.instrument(mux)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	sessions, err := rt.reporter.Sessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// sessionSubresource dispatches /v1/sessions/{id}/<action>.
func (rt *Router) sessionSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	parts := strings.SplitN(rest, "/", 2)
	sessionID := parts[0]
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id is required"})
		return
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch action {
	case "images":
		rt.uploadImages(w, r, sessionID)
	case "report":
		rt.sessionReport(w, r, sessionID)
	case "report/html":
		rt.sessionReportHTML(w, r, sessionID)
	case "chain":
		rt.chainSession(w, r, sessionID)
	case "chain/async":
		rt.chainSessionAsync(w, r, sessionID)
	case "compare":
		rt.compareSession(w, r, sessionID)
	case "audit":
		rt.auditSession(w, r, sessionID)
	case "export":
		rt.exportSession(w, r, sessionID)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource"})
	}
}

func (rt *Router) uploadImages(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}
	poses := r.MultipartForm.Value["poses"]

	files := make([]ports.UploadFile, 0, len(headers))
	for i, header := range headers {
		f, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("open %s: %v", header.Filename, err)})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("read %s: %v", header.Filename, err)})
			return
		}

		pose := ""
		if i < len(poses) {
			pose = poses[i]
		}
		files = append(files, ports.UploadFile{
			Filename:     header.Filename,
			DeclaredType: header.Header.Get("Content-Type"),
			Pose:         pose,
			Data:         data,
		})
	}

	results, err := rt.ingestor.UploadBatch(r.Context(), sessionID, files)
	if err != nil {
		writeError(w, err)
		return
	}

	accepted := 0
	for _, res := range results {
		if res.Accepted {
			accepted++
		}
	}
	if rt.metrics != nil {
		rt.metrics.RecordUpload(rt.service, accepted, len(results)-accepted)
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "results": results})
}

func (rt *Router) chainSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		FitnessLevel string `json:"fitness_level"`
		Goal         string `json:"goal"`
		Expert       string `json:"expert"`
	}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
	}

	start := time.Now()
	result, err := rt.chainer.ChainWith(r.Context(), sessionID, req.FitnessLevel, req.Goal, req.Expert)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordChainRun(rt.service, chainOutcome(result), len(result.Tags), time.Since(start))
		if result.PlanStatus == domain.PlanStatusFailed {
			rt.metrics.RecordGenerationFailed(rt.service)
		}
		if result.Degraded {
			rt.metrics.RecordClassificationDegraded(rt.service, "shape_tagger")
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) chainSessionAsync(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if err := rt.queue.PublishChainRequested(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"session_id": sessionID, "status": "enqueued"})
}

func (rt *Router) compareSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Before       string `json:"before"`
		After        string `json:"after"`
		GeneratePlan bool   `json:"generate_plan"`
		FitnessLevel string `json:"fitness_level"`
		Goal         string `json:"goal"`
		Expert       string `json:"expert"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	result, err := rt.comparer.Compare(r.Context(), sessionID, ports.CompareRequest{
		BeforeFilename: req.Before,
		AfterFilename:  req.After,
		GeneratePlan:   req.GeneratePlan,
		FitnessLevel:   req.FitnessLevel,
		Goal:           req.Goal,
		Expert:         req.Expert,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		if result.Degraded {
			rt.metrics.RecordClassificationDegraded(rt.service, "shape_tagger")
		}
		if result.PlanStatus == domain.PlanStatusFailed {
			rt.metrics.RecordGenerationFailed(rt.service)
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) auditSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	issues, err := rt.auditor.Validate(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "issues": issues})
}

func (rt *Router) auditAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	all, err := rt.auditor.ValidateAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": all})
}

func (rt *Router) sessionReport(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	report, err := rt.reporter.Report(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) sessionReportHTML(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	report, err := rt.reporter.Report(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	page, err := renderReportPage(report)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (rt *Router) exportSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	tags, err := rt.store.TagsFor(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	plans, err := rt.store.PlansFor(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(tags) == 0 && len(plans) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no records for session"})
		return
	}

	workbook, err := buildSessionWorkbook(tags, plans)
	if err != nil {
		writeError(w, err)
		return
	}
	defer workbook.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sessionID+"_session.xlsx"))
	w.WriteHeader(http.StatusOK)
	if err := workbook.Write(w); err != nil {
		// Headers are already out; nothing to do but log at the access layer.
		return
	}
}

func chainOutcome(result domain.ChainResult) string {
	switch {
	case result.PlanStatus == domain.PlanStatusFailed:
		return "failed"
	case result.Degraded:
		return "degraded"
	default:
		return "ok"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
