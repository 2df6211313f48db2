package www

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/share"
)

// Messages shown by the share page.
const (
	msgShareMissing = "This share link has expired or does not exist"
	msgShareFailed  = "Failed to load shared data"
	msgShareInvalid = "Invalid share data"
)

// apiCreateShare stores the request body, or the current plan when the body
// is empty, behind a new share link.
func (h *Handlers) apiCreateShare(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, h.engine.AppConfig().Share.MaxBodyBytes))
	if err != nil {
		h.jsonError(w, "Failed to create share link", http.StatusInternalServerError)
		return
	}
	snap := h.engine.Store().Export()
	if len(bytes.TrimSpace(data)) > 0 {
		if snap, err = plan.Decode(data); err != nil {
			h.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	link, err := h.engine.Share(r.Context(), snap)
	if errors.Is(err, plan.ErrInvalidSnapshot) {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error("create share", zap.Error(err))
		h.jsonError(w, "Failed to create share link", http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, link)
}

func (h *Handlers) apiFetchShare(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		h.jsonError(w, "Missing id parameter", http.StatusBadRequest)
		return
	}
	snap, err := h.engine.FetchShare(r.Context(), id)
	switch {
	case errors.Is(err, share.ErrNotFound):
		h.jsonError(w, "Share link expired or not found", http.StatusNotFound)
		return
	case err != nil:
		h.log.Error("fetch share", zap.String("id", id), zap.Error(err))
		h.jsonError(w, "Failed to fetch share data", http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, snap)
}

type fragmentBody struct {
	Fragment string `json:"fragment"`
}

// apiExportFragment returns the current plan in the self-contained form
// carried in a URL fragment.
func (h *Handlers) apiExportFragment(w http.ResponseWriter, r *http.Request) {
	frag, err := share.EncodeFragment(h.engine.Store().Export())
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonOK(w, fragmentBody{Fragment: frag})
}

func (h *Handlers) apiImportFragment(w http.ResponseWriter, r *http.Request) {
	var req fragmentBody
	if !h.decodeJSON(w, r, &req) {
		return
	}
	snap, err := share.DecodeFragment(req.Fragment)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	if err := h.engine.Store().Import(snap); err != nil {
		h.apiError(w, r, err)
		return
	}
	h.apiPlan(w, r)
}

// handleSharePage loads a shared plan into the workspace and sends the
// browser to the planner.
func (h *Handlers) handleSharePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.engine.OpenShare(r.Context(), id)
	if err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	msg, code := msgShareFailed, http.StatusInternalServerError
	switch {
	case errors.Is(err, share.ErrNotFound):
		msg, code = msgShareMissing, http.StatusNotFound
	case errors.Is(err, plan.ErrInvalidSnapshot):
		msg, code = msgShareInvalid, http.StatusBadRequest
	default:
		h.log.Error("open share", zap.String("id", id), zap.Error(err))
	}
	data := h.pageData(r, "share")
	data["Error"] = msg
	h.renderStatus(w, code, "share_error.html", data)
}
