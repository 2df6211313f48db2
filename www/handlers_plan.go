package www

import (
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/state"
)

func (h *Handlers) apiHealth(w http.ResponseWriter, r *http.Request) {
	msg := h.engine.MsgClient()
	h.jsonOK(w, map[string]any{
		"status":    "ok",
		"database":  h.engine.DB().Driver(),
		"messaging": msg != nil && msg.IsConnected(),
		"clients":   h.eventHub.ClientCount(),
	})
}

type planResponse struct {
	Plan  plan.Snapshot `json:"plan"`
	Focus state.Focus   `json:"focus"`
}

func (h *Handlers) apiPlan(w http.ResponseWriter, r *http.Request) {
	s := h.engine.Store()
	h.jsonOK(w, planResponse{Plan: s.Export(), Focus: s.Focus()})
}

func (h *Handlers) apiExport(w http.ResponseWriter, r *http.Request) {
	data, err := h.engine.Store().ExportJSON()
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="electric-plan.json"`)
	if _, err := w.Write(data); err != nil {
		h.log.Debug("write export", zap.Error(err))
	}
}

// apiImport replaces the plan with the request body. A malformed body leaves
// the plan untouched.
func (h *Handlers) apiImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, h.engine.AppConfig().Share.MaxBodyBytes))
	if err != nil {
		h.jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if err := h.engine.Store().ImportJSON(data); err != nil {
		h.apiError(w, r, err)
		return
	}
	h.apiPlan(w, r)
}

func (h *Handlers) apiSummary(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.Store().Summary())
}

func (h *Handlers) apiFocus(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.Store().Focus())
}

// apiSetFocus applies the fields present in the body. An empty string clears
// the corresponding focus.
func (h *Handlers) apiSetFocus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SelectedRoomID  *string `json:"selectedRoomId"`
		HoveredItemID   *string `json:"hoveredItemId"`
		HoveredModuleID *string `json:"hoveredModuleId"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	s := h.engine.Store()
	if req.SelectedRoomID != nil {
		if err := s.SelectRoom(*req.SelectedRoomID); err != nil {
			h.apiError(w, r, err)
			return
		}
	}
	if req.HoveredItemID != nil {
		if err := s.SetHoveredItem(*req.HoveredItemID); err != nil {
			h.apiError(w, r, err)
			return
		}
	}
	if req.HoveredModuleID != nil {
		if err := s.SetHoveredModule(*req.HoveredModuleID); err != nil {
			h.apiError(w, r, err)
			return
		}
	}
	h.jsonOK(w, s.Focus())
}

func (h *Handlers) apiAudit(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	q := r.URL.Query()
	if entity, id := q.Get("entity"), q.Get("id"); entity != "" && id != "" {
		entries, err := h.engine.DB().ListEntityAudit(entity, id)
		if err != nil {
			h.apiError(w, r, err)
			return
		}
		h.jsonOK(w, entries)
		return
	}
	entries, err := h.engine.DB().ListAuditLog(limit)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonOK(w, entries)
}

func (h *Handlers) apiChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current string `json:"current"`
		New     string `json:"new"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	username := h.getUsername(r)
	if username == "" {
		h.jsonError(w, "not logged in", http.StatusUnauthorized)
		return
	}
	if len(req.New) < 8 {
		h.jsonError(w, "new password must be at least 8 characters", http.StatusBadRequest)
		return
	}
	user, err := h.engine.DB().GetAdminUser(username)
	if err != nil || !checkPassword(user.PasswordHash, req.Current) {
		h.jsonError(w, "current password is incorrect", http.StatusForbidden)
		return
	}
	hash, err := hashPassword(req.New)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	if err := h.engine.DB().UpdateAdminPassword(username, hash); err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}
