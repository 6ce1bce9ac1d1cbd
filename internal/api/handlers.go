package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/clipboard"
	"github.com/starford/gebo/internal/comps"
	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/sse"
	"github.com/starford/gebo/internal/storage"
)

// Handler holds API route handlers.
type Handler struct {
	repo   *comps.Repository
	saver  *comps.Autosave
	db     index.CompIndex
	fs     storage.Provider
	broker *sse.Broker
	logger *slog.Logger
}

// NewHandler creates a new Handler. broker may be nil (no event publishing).
func NewHandler(repo *comps.Repository, saver *comps.Autosave, db index.CompIndex, fs storage.Provider, broker *sse.Broker, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, saver: saver, db: db, fs: fs, broker: broker, logger: logger}
}

// compName extracts the comp name from the URL, tolerating encoded input.
func compName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func (h *Handler) publish(kind, name string) {
	if h.broker != nil {
		h.broker.PublishCompEvent(kind, name)
	}
}

func (h *Handler) reindex(name string) {
	rec, err := h.repo.Get(name)
	if err != nil {
		return
	}
	if err := index.IndexComp(h.db, name, rec); err != nil {
		h.logger.Warn("reindex failed", slog.String("name", name), slog.String("error", err.Error()))
	}
}

// ListComps handles GET /comps with optional ?q= and ?tag= filters.
func (h *Handler) ListComps(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results := h.repo.Query(q.Get("q"), q.Get("tag"))

	rev, err := h.repo.Revision()
	if err != nil {
		h.logger.Warn("revision failed", slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusOK, CompListResponse{
		Comps:    compListItems(results),
		Total:    len(results),
		Revision: rev,
	})
}

// GetComp handles GET /comps/{name}.
func (h *Handler) GetComp(w http.ResponseWriter, r *http.Request) {
	name := compName(r)
	rec, err := h.repo.Get(name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, compDetail(name, rec))
}

// CreateComp handles POST /comps.
func (h *Handler) CreateComp(w http.ResponseWriter, r *http.Request) {
	var req CreateCompRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}

	if err := h.repo.Add(req.Name); err != nil {
		if errors.Is(err, apperr.ErrDuplicateName) {
			writeJSON(w, http.StatusConflict, errorBody("comp already exists"))
			return
		}
		h.logger.Error("create comp failed", slog.String("name", req.Name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	rec, err := h.repo.Get(req.Name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.reindex(req.Name)
	h.publish("created", req.Name)
	writeJSON(w, http.StatusCreated, compDetail(req.Name, rec))
}

// UpdateComp handles PATCH /comps/{name}. A notes-only body is staged
// through the debounced autosave; any other mutation flushes pending notes
// first and saves synchronously.
func (h *Handler) UpdateComp(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	name := compName(r)

	var req UpdateCompRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	var err error
	if req.notesOnly() {
		err = h.saver.StageNotes(name, *req.Notes)
	} else {
		if flushErr := h.saver.Flush(); flushErr != nil {
			h.logger.Error("flush before update failed", slog.String("error", flushErr.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		err = h.repo.Update(name, comps.Fields{
			Notes: req.Notes,
			Items: req.Items,
			Tags:  req.Tags,
			Color: req.Color,
		})
	}
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		h.logger.Error("update comp failed", slog.String("name", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	rec, getErr := h.repo.Get(name)
	if getErr != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.reindex(name)
	h.publish("updated", name)
	writeJSON(w, http.StatusOK, compDetail(name, rec))
}

// RenameComp handles POST /comps/{name}/rename.
func (h *Handler) RenameComp(w http.ResponseWriter, r *http.Request) {
	name := compName(r)

	var req RenameCompRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.NewName == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("new_name is required"))
		return
	}

	// Pending note edits must reach disk before the key changes.
	if err := h.saver.Flush(); err != nil {
		h.logger.Error("flush before rename failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	if err := h.repo.Rename(name, req.NewName); err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrDuplicateName):
			writeJSON(w, http.StatusConflict, errorBody("name already taken"))
		default:
			h.logger.Error("rename comp failed", slog.String("name", name), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	if err := h.db.DeleteComp(name); err != nil {
		h.logger.Warn("deindex old name failed", slog.String("name", name), slog.String("error", err.Error()))
	}
	h.reindex(req.NewName)
	h.publish("renamed", req.NewName)

	rec, err := h.repo.Get(req.NewName)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, compDetail(req.NewName, rec))
}

// DeleteComp handles DELETE /comps/{name}. The last remaining comp cannot
// be deleted.
func (h *Handler) DeleteComp(w http.ResponseWriter, r *http.Request) {
	name := compName(r)

	if err := h.saver.Flush(); err != nil {
		h.logger.Error("flush before delete failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	if err := h.repo.Delete(name); err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrLastComp):
			writeJSON(w, http.StatusConflict, errorBody("cannot delete the last comp"))
		default:
			h.logger.Error("delete comp failed", slog.String("name", name), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	if err := h.db.DeleteComp(name); err != nil {
		h.logger.Warn("deindex failed", slog.String("name", name), slog.String("error", err.Error()))
	}
	h.publish("deleted", name)
	w.WriteHeader(http.StatusNoContent)
}

// Planner handles GET /planner?item=a&item=b: comps whose required items
// contain every owned item.
func (h *Handler) Planner(w http.ResponseWriter, r *http.Request) {
	owned := r.URL.Query()["item"]
	results := h.repo.PlannerMatch(owned)
	writeJSON(w, http.StatusOK, CompListResponse{
		Comps: compListItems(results),
		Total: len(results),
	})
}

// Search handles GET /search using the SQLite index.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.db.Search(q, limit)
	if err != nil {
		h.logger.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// Export handles GET /export?comp=: the clipboard payload for the whole
// store or a single comp.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if err := h.saver.Flush(); err != nil {
		h.logger.Error("flush before export failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	text, err := clipboard.Export(h.repo, h.fs, r.URL.Query().Get("comp"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		h.logger.Error("export failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

// Import handles POST /import with a clipboard payload body.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 100<<20)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}

	res, err := clipboard.Import(h.repo, h.fs, string(body))
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidPayload) {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid payload"))
			return
		}
		h.logger.Error("import failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	for _, inserted := range res.Comps {
		h.reindex(inserted)
		h.publish("created", inserted)
	}
	writeJSON(w, http.StatusOK, ImportResponse{Comps: res.Comps, Images: res.Images})
}
