package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/insurly/claim-processor/internal/config"
	"github.com/insurly/claim-processor/internal/core/domain"
	"github.com/insurly/claim-processor/internal/core/ports"
	"github.com/insurly/claim-processor/internal/observability/metrics"
)

const backpressureWait = 100 * time.Millisecond

// ClaimExporter produces the XLSX workbook served by the export endpoint.
type ClaimExporter interface {
	ExportClaimsXLSX(ctx context.Context, limit int) ([]byte, error)
}

type Router struct {
	cfg       config.Config
	processor ports.ClaimProcessor
	reader    ports.ClaimReader
	exporter  ClaimExporter
	metrics   *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	processor ports.ClaimProcessor,
	reader ports.ClaimReader,
	exporter ClaimExporter,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:       cfg,
		processor: processor,
		reader:    reader,
		exporter:  exporter,
		metrics:   serverMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/claims/process", rt.processClaim)
	mux.HandleFunc("/v1/claims/export", rt.exportClaims)
	mux.HandleFunc("/v1/claims/", rt.getClaim)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlightRequests, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// processClaim accepts a multipart upload under the `files` field and runs
// the pipeline synchronously. Non-PDF parts and oversized parts are rejected
// at ingress; a request where nothing survives the filter still gets a
// well-formed no_outputs envelope from the pipeline.
func (rt *Router) processClaim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if err := r.ParseMultipartForm(rt.cfg.MaxFileSizeBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart form is required"})
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}

	uploads := make([]domain.UploadedDocument, 0, len(headers))
	rejected := []string{}
	for _, header := range headers {
		if reason := rt.rejectUpload(header.Filename, header.Size); reason != "" {
			rejected = append(rejected, fmt.Sprintf("%s: %s", header.Filename, reason))
			continue
		}
		file, err := header.Open()
		if err != nil {
			rejected = append(rejected, fmt.Sprintf("%s: unreadable part", header.Filename))
			continue
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			rejected = append(rejected, fmt.Sprintf("%s: unreadable part", header.Filename))
			continue
		}
		uploads = append(uploads, domain.UploadedDocument{Filename: header.Filename, Data: data})
	}
	if len(rejected) > 0 {
		slog.Warn("rejected uploads at ingress",
			"request_id", requestIDFromContext(r.Context()),
			"rejected", rejected,
		)
	}

	result := rt.processor.ProcessClaim(r.Context(), uploads)
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) rejectUpload(filename string, size int64) string {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return "only .pdf files are accepted"
	}
	if rt.cfg.MaxFileSizeBytes > 0 && size > rt.cfg.MaxFileSizeBytes {
		return fmt.Sprintf("exceeds the %d byte limit", rt.cfg.MaxFileSizeBytes)
	}
	return ""
}

func (rt *Router) getClaim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	requestID := strings.TrimPrefix(r.URL.Path, "/v1/claims/")
	if requestID == "" || strings.Contains(requestID, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "claim request id is required"})
		return
	}

	result, err := rt.reader.GetResult(r.Context(), requestID)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) exportClaims(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	data, err := rt.exporter.ExportClaimsXLSX(r.Context(), limit)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="claims.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
