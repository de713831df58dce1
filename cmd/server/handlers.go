package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	veilix "github.com/aditinnerkar/veilix-app"
)

type handler struct {
	engine      veilix.Engine
	uploadLimit int64
}

func newHandler(e veilix.Engine, uploadLimit int64) *handler {
	return &handler{engine: e, uploadLimit: uploadLimit}
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.engine.ListSessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		slog.Error("health check error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": len(sessions),
	})
}

// POST /sessions
// Multipart upload with the document in the "file" field.
func (h *handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	// One extra megabyte leaves room for multipart framing; the engine
	// enforces the exact document limit.
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit+(1<<20))

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	sess, err := h.engine.CreateSession(ctx, header.Filename, file)
	if err != nil {
		h.engineError(w, err, "create session")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// GET /sessions
func (h *handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.engine.ListSessions(r.Context())
	if err != nil {
		h.engineError(w, err, "list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
	})
}

// GET /sessions/{id}
func (h *handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.engine.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		h.engineError(w, err, "get session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DELETE /sessions/{id}
func (h *handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		h.engineError(w, err, "delete session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// POST /sessions/{id}/chat
func (h *handler) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	res, err := h.engine.Chat(ctx, r.PathValue("id"), req.Message)
	if err != nil {
		h.engineError(w, err, "chat")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /sessions/{id}/graph
func (h *handler) handleGraph(w http.ResponseWriter, r *http.Request) {
	data, err := h.engine.GraphData(r.Context(), r.PathValue("id"))
	if err != nil {
		h.engineError(w, err, "graph data")
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// GET /sessions/{id}/analysis/components
func (h *handler) handleAnalyzeComponents(w http.ResponseWriter, r *http.Request) {
	report, err := h.engine.AnalyzeComponents(r.Context(), r.PathValue("id"))
	if err != nil {
		h.engineError(w, err, "component analysis")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GET /sessions/{id}/analysis/flows
func (h *handler) handleAnalyzeFlows(w http.ResponseWriter, r *http.Request) {
	report, err := h.engine.AnalyzeFlows(r.Context(), r.PathValue("id"))
	if err != nil {
		h.engineError(w, err, "flow analysis")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GET /sessions/{id}/graphml
// Downloads the exported file under the uploaded document's name.
func (h *handler) handleGraphML(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := h.engine.Session(r.Context(), id)
	if err != nil {
		h.engineError(w, err, "graphml download")
		return
	}
	path, err := h.engine.GraphMLPath(r.Context(), id)
	if err != nil {
		h.engineError(w, err, "graphml download")
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", sess.Filename+".graphml"))
	http.ServeFile(w, r, path)
}

// GET /sessions/{id}/inventory
// The workbook is buffered so failures still produce a JSON error.
func (h *handler) handleInventory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := h.engine.Session(r.Context(), id)
	if err != nil {
		h.engineError(w, err, "inventory download")
		return
	}

	var buf bytes.Buffer
	if err := h.engine.WriteInventory(r.Context(), id, &buf); err != nil {
		h.engineError(w, err, "inventory download")
		return
	}

	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", sess.Filename+"_inventory.xlsx"))
	w.Write(buf.Bytes())
}

// engineError maps the engine's sentinel errors onto HTTP statuses.
// Client errors surface their message; server errors stay generic and go
// to the log.
func (h *handler) engineError(w http.ResponseWriter, err error, op string) {
	var status int
	switch {
	case errors.Is(err, veilix.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, veilix.ErrEmptyDocument), errors.Is(err, veilix.ErrParseFailure):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, veilix.ErrUploadTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, veilix.ErrChatFailed):
		status = http.StatusBadGateway
	default:
		writeError(w, http.StatusInternalServerError, op+" failed")
		slog.Error(op+" error", "error", err)
		return
	}
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
