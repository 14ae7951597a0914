package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/brunobiangulo/sociograph"
	"github.com/brunobiangulo/sociograph/parser"
)

const (
	maxUploadBytes   = 100 << 20
	visualizeTimeout = 10 * time.Minute

	// statusClientClosedRequest is nginx's non-standard code for a client
	// that went away before the response was ready.
	statusClientClosedRequest = 499
)

type handler struct {
	engine sociograph.Engine

	// flights collapses concurrent identical visualize calls.
	flights singleflight.Group
}

func newHandler(e sociograph.Engine) *handler {
	return &handler{engine: e}
}

// visualizeBody is the JSON form of POST /visualize. Exactly one of
// Rows, Records and Path supplies the input.
type visualizeBody struct {
	Columns []string           `json:"columns,omitempty"`
	Rows    [][]string         `json:"rows,omitempty"`
	Records []map[string]any   `json:"records,omitempty"`
	Path    string             `json:"path,omitempty"`
	Request sociograph.Request `json:"request"`
}

// POST /visualize
// Accepts a multipart file upload with an optional "request" JSON field,
// or a JSON body with inline rows, records or a server-side path.
func (h *handler) handleVisualize(w http.ResponseWriter, r *http.Request) {
	// Try multipart upload first
	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()

			var req sociograph.Request
			if raw := r.FormValue("request"); raw != "" {
				if err := json.Unmarshal([]byte(raw), &req); err != nil {
					writeError(w, http.StatusBadRequest, "invalid request field: "+err.Error())
					return
				}
			}

			// Sanitise filename to prevent path traversal.
			safeName := filepath.Base(header.Filename)

			tmpDir, err := os.MkdirTemp("", "sociograph-upload-")
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to process file")
				slog.Error("creating temp dir", "error", err)
				return
			}
			defer os.RemoveAll(tmpDir)

			tmpPath := filepath.Join(tmpDir, safeName)
			dst, err := os.Create(tmpPath)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to process file")
				slog.Error("creating temp file", "error", err)
				return
			}
			n, err := io.Copy(dst, file)
			dst.Close()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to save file")
				slog.Error("saving uploaded file", "error", err)
				return
			}
			slog.Debug("upload saved", "file", safeName, "size", humanize.Bytes(uint64(n)))

			// Parse before entering the shared flight; tmpDir is gone once
			// this handler returns.
			t, err := sociograph.ReadTable(r.Context(), tmpPath)
			if err != nil {
				writeEngineError(w, "visualize", err)
				return
			}
			h.visualizeTable(w, r, t, req)
			return
		}
	}

	var body visualizeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: expected multipart file or JSON with rows, records or path")
		return
	}

	switch {
	case len(body.Rows) > 0 || len(body.Columns) > 0:
		h.visualizeTable(w, r, &parser.Table{Columns: body.Columns, Rows: body.Rows, Source: "inline"}, body.Request)
	case len(body.Records) > 0:
		h.visualizeTable(w, r, parser.FromRecords(body.Records), body.Request)
	case body.Path != "":
		// Validate that path is a real file (prevents directory traversal probing).
		absPath, err := filepath.Abs(body.Path)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid path")
			return
		}
		info, err := os.Stat(absPath)
		if err != nil || info.IsDir() {
			writeError(w, http.StatusBadRequest, "path must be an existing file")
			return
		}
		h.visualizeFile(w, r, absPath, body.Request)
	default:
		writeError(w, http.StatusBadRequest, "one of rows, records or path is required")
	}
}

func (h *handler) visualizeTable(w http.ResponseWriter, r *http.Request, t *parser.Table, req sociograph.Request) {
	key := sociograph.Fingerprint(t, req)
	h.visualize(w, r, key, func(ctx context.Context) (*sociograph.Result, error) {
		return h.engine.Visualize(ctx, t, req)
	})
}

func (h *handler) visualizeFile(w http.ResponseWriter, r *http.Request, path string, req sociograph.Request) {
	key, err := sociograph.FileFingerprint(path, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read input")
		slog.Error("fingerprinting input", "path", path, "error", err)
		return
	}
	h.visualize(w, r, key, func(ctx context.Context) (*sociograph.Result, error) {
		return h.engine.VisualizeFile(ctx, path, req)
	})
}

// visualize runs fn once per distinct key among concurrent callers. The
// shared run is detached from any single caller's cancellation.
func (h *handler) visualize(w http.ResponseWriter, r *http.Request, key string, fn func(context.Context) (*sociograph.Result, error)) {
	ch := h.flights.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), visualizeTimeout)
		defer cancel()
		return fn(ctx)
	})

	select {
	case <-r.Context().Done():
		slog.Warn("visualize abandoned by client", "error", r.Context().Err())
		writeError(w, statusClientClosedRequest, "client closed request")
		return
	case res := <-ch:
		if res.Err != nil {
			writeEngineError(w, "visualize", res.Err)
			return
		}
		if res.Shared {
			slog.Debug("visualize: shared result", "key", key[:12])
		}
		writeJSON(w, http.StatusOK, res.Val)
	}
}

// GET /runs?limit=N
func (h *handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := h.engine.ListRuns(r.Context(), limit)
	if err != nil {
		writeEngineError(w, "list runs", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runs": runs,
	})
}

// GET /runs/{runID}
func (h *handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.engine.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeEngineError(w, "get run", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// DELETE /runs/{runID}
func (h *handler) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")
	if err := h.engine.DeleteRun(r.Context(), id); err != nil {
		writeEngineError(w, "delete run", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "run_id": id})
}

// GET /runs/{runID}/similar/{actor}?k=N
func (h *handler) handleSimilar(w http.ResponseWriter, r *http.Request) {
	k := 5
	if v := r.URL.Query().Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, http.StatusBadRequest, "k must be between 1 and 100")
			return
		}
		k = n
	}

	actors, err := h.engine.SimilarActors(r.Context(), chi.URLParam(r, "runID"), chi.URLParam(r, "actor"), k)
	if err != nil {
		writeEngineError(w, "similar actors", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"actors": actors,
	})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"run_log": false,
	}
	if s := h.engine.Store(); s != nil {
		stats, err := s.DBStats(r.Context())
		if err != nil {
			slog.Error("run log stats error", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		body["run_log"] = stats
	}
	writeJSON(w, http.StatusOK, body)
}

// statusOf maps engine errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case sociograph.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, sociograph.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, sociograph.ErrStoreDisabled):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeEngineError reports input errors verbatim and hides internal ones.
func writeEngineError(w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		slog.Error(op+" error", "error", err)
		writeError(w, status, op+" failed")
		return
	}
	slog.Debug(op+" rejected", "status", status, "error", err)
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
