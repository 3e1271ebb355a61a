// Package api serves the calculator over HTTP: a JSON REST API and a
// WebSocket endpoint that recomputes results as parameters change.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/rsned/cultivation-server/internal/cultivation/engine"
	cultsync "github.com/rsned/cultivation-server/internal/cultivation/sync"
	"github.com/rsned/cultivation-server/internal/logging"
	"github.com/rsned/cultivation-server/pkg/cultivation"
)

const maxBodyBytes = 1 << 20

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	engine *engine.Engine
	syncer *cultsync.Syncer
	hub    *Hub
	logger *slog.Logger
}

// NewHandler creates a Handler and the WebSocket hub it broadcasts on.
// The caller runs the hub with Hub().Run.
func NewHandler(eng *engine.Engine, syncer *cultsync.Syncer) *Handler {
	logger := logging.New("api")
	return &Handler{
		engine: eng,
		syncer: syncer,
		hub:    NewHub(eng.Calculate, logger),
		logger: logger,
	}
}

// Hub returns the live-recompute hub.
func (h *Handler) Hub() *Hub {
	return h.hub
}

// Routes returns the API mux wrapped in CORS handling.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/presets", h.handleListPresets)
	mux.HandleFunc("DELETE /api/presets/{id}", h.handleDeletePreset)
	mux.HandleFunc("POST /api/calculate", h.handleCalculate)
	mux.HandleFunc("POST /api/coefficients", h.handleCoefficients)

	mux.HandleFunc("GET /api/schemes", h.handleListSchemes)
	mux.HandleFunc("POST /api/schemes", h.handleSaveScheme)
	mux.HandleFunc("POST /api/schemes/import", h.handleImportSchemes)
	mux.HandleFunc("GET /api/schemes/{id}", h.handleGetScheme)
	mux.HandleFunc("PATCH /api/schemes/{id}", h.handleRenameScheme)
	mux.HandleFunc("DELETE /api/schemes/{id}", h.handleDeleteScheme)
	mux.HandleFunc("GET /api/schemes/{id}/export", h.handleExportScheme)

	mux.HandleFunc("GET /api/current", h.handleGetCurrent)
	mux.HandleFunc("PUT /api/current", h.handleSetCurrent)

	mux.HandleFunc("GET /ws", h.hub.ServeWs)

	return corsMiddleware(mux)
}

// corsMiddleware lets browser front ends on other origins call the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorPayload struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type schemesChanged struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
}

// writeJSON encodes v before writing the header so an unencodable value
// becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logging.New("api").Error("encoding response", "error", err)
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorPayload{Error: "internal error"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeError maps engine errors onto HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorPayload{Error: "invalid parameters", Errors: verr.Errors})
	case errors.Is(err, engine.ErrPresetNotFound), errors.Is(err, engine.ErrSchemeNotFound):
		writeJSON(w, http.StatusNotFound, errorPayload{Error: err.Error()})
	case errors.Is(err, engine.ErrBuiltinPreset):
		writeJSON(w, http.StatusConflict, errorPayload{Error: err.Error()})
	case errors.Is(err, engine.ErrNameRequired), errors.Is(err, cultsync.ErrInvalidSchemeFormat):
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: err.Error()})
	default:
		h.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorPayload{Error: "internal error"})
	}
}

// decodeBody decodes an optional JSON body into v. An empty body leaves v unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeJSON(w, http.StatusBadRequest, errorPayload{Error: "malformed request body: " + err.Error()})
	return false
}

func (h *Handler) handleListPresets(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.ListPresets(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if list == nil {
		list = []cultivation.Preset{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeletePreset(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req cultivation.CalculateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.engine.Calculate(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	status := http.StatusOK
	if len(resp.Errors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func (h *Handler) handleCoefficients(w http.ResponseWriter, r *http.Request) {
	var req cultivation.CalculateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.engine.Coefficients(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	status := http.StatusOK
	if len(resp.Errors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func (h *Handler) handleListSchemes(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.ListSchemes(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if list == nil {
		list = []cultivation.Scheme{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleSaveScheme(w http.ResponseWriter, r *http.Request) {
	var req cultivation.SaveSchemeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sc, err := h.engine.SaveScheme(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.hub.Broadcast(MsgSchemesChanged, schemesChanged{Action: "saved", IDs: []string{sc.ID}})
	writeJSON(w, http.StatusCreated, sc)
}

func (h *Handler) handleImportSchemes(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "reading request body: " + err.Error()})
		return
	}
	imported, err := h.syncer.ImportSchemes(r.Context(), data)
	if err != nil {
		h.writeError(w, err)
		return
	}
	ids := make([]string, 0, len(imported))
	for _, sc := range imported {
		ids = append(ids, sc.ID)
	}
	h.hub.Broadcast(MsgSchemesChanged, schemesChanged{Action: "imported", IDs: ids})
	writeJSON(w, http.StatusCreated, imported)
}

func (h *Handler) handleGetScheme(w http.ResponseWriter, r *http.Request) {
	sc, err := h.engine.GetScheme(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (h *Handler) handleRenameScheme(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	if err := h.engine.RenameScheme(r.Context(), id, req.Name); err != nil {
		h.writeError(w, err)
		return
	}
	h.hub.Broadcast(MsgSchemesChanged, schemesChanged{Action: "renamed", IDs: []string{id}})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteScheme(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.engine.DeleteScheme(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.hub.Broadcast(MsgSchemesChanged, schemesChanged{Action: "deleted", IDs: []string{id}})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExportScheme(w http.ResponseWriter, r *http.Request) {
	data, err := h.syncer.ExportScheme(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="scheme.json"`)
	_, _ = w.Write(data)
}

func (h *Handler) handleGetCurrent(w http.ResponseWriter, r *http.Request) {
	cur, err := h.engine.Current(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

func (h *Handler) handleSetCurrent(w http.ResponseWriter, r *http.Request) {
	var sel cultivation.CurrentSelection
	if !decodeBody(w, r, &sel) {
		return
	}
	if err := h.engine.SetCurrent(r.Context(), sel.PresetID, sel.Overrides); err != nil {
		h.writeError(w, err)
		return
	}
	h.handleGetCurrent(w, r)
}
