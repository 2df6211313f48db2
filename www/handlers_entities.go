package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/state"
)

func (h *Handlers) apiListRooms(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.Store().Export().Rooms)
}

func (h *Handlers) apiCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	room, err := h.engine.Store().AddRoom(req.Name)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonStatus(w, http.StatusCreated, room)
}

func (h *Handlers) apiUpdateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.engine.Store().UpdateRoom(chi.URLParam(r, "id"), req.Name); err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}

// apiDeleteRoom removes the room with its boxes, modules, items, polygons
// and placements.
func (h *Handlers) apiDeleteRoom(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.engine.Store().DeleteRoom(chi.URLParam(r, "id")))
}

func (h *Handlers) apiListBoxes(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("roomId")
	boxes := []plan.Box{}
	for _, b := range h.engine.Store().Export().Boxes {
		if roomID == "" || b.RoomID == roomID {
			boxes = append(boxes, b)
		}
	}
	h.jsonOK(w, boxes)
}

func (h *Handlers) apiCreateBox(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID string `json:"roomId"`
		Name   string `json:"name"`
		Size   int    `json:"size"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	box, err := h.engine.Store().AddBox(req.RoomID, req.Name, req.Size)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonStatus(w, http.StatusCreated, box)
}

func (h *Handlers) apiUpdateBox(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Size int    `json:"size"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.engine.Store().UpdateBox(chi.URLParam(r, "id"), req.Name, req.Size); err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiDeleteBox(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.engine.Store().DeleteBox(chi.URLParam(r, "id")))
}

func (h *Handlers) apiBoxSlots(w http.ResponseWriter, r *http.Request) {
	layout, err := h.engine.Store().BoxLayout(chi.URLParam(r, "id"))
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonOK(w, layout)
}

func (h *Handlers) apiListModules(w http.ResponseWriter, r *http.Request) {
	boxID := r.URL.Query().Get("boxId")
	itemID := r.URL.Query().Get("itemId")
	modules := []plan.Module{}
	for _, m := range h.engine.Store().Export().Modules {
		if (boxID == "" || m.BoxID == boxID) && (itemID == "" || m.ItemID == itemID) {
			modules = append(modules, m)
		}
	}
	h.jsonOK(w, modules)
}

func (h *Handlers) apiCreateModule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BoxID    string          `json:"boxId"`
		Type     plan.ModuleType `json:"type"`
		Position int             `json:"position"`
		Label    string          `json:"label"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	m, err := h.engine.Store().AddModule(req.BoxID, req.Type, req.Position, req.Label)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonStatus(w, http.StatusCreated, m)
}

func (h *Handlers) apiUpdateModule(w http.ResponseWriter, r *http.Request) {
	var req state.ModuleUpdate
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.engine.Store().UpdateModule(chi.URLParam(r, "id"), req); err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}

// apiAssignItem sets or clears the item a module controls.
func (h *Handlers) apiAssignItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID string `json:"itemId"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.engine.Store().AssignItem(chi.URLParam(r, "id"), req.ItemID); err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiDeleteModule(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.engine.Store().DeleteModule(chi.URLParam(r, "id")))
}

func (h *Handlers) apiListItems(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("roomId")
	items := []plan.Item{}
	for _, it := range h.engine.Store().Export().Items {
		if roomID == "" || it.RoomID == roomID {
			items = append(items, it)
		}
	}
	h.jsonOK(w, items)
}

func (h *Handlers) apiCreateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID string        `json:"roomId"`
		Type   plan.ItemType `json:"type"`
		Name   string        `json:"name"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	item, err := h.engine.Store().AddItem(req.RoomID, req.Type, req.Name)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonStatus(w, http.StatusCreated, item)
}

func (h *Handlers) apiUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req state.ItemUpdate
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.engine.Store().UpdateItem(chi.URLParam(r, "id"), req); err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}

// apiDeleteItem removes the item and its placements; modules wired to it
// are left unwired.
func (h *Handlers) apiDeleteItem(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.engine.Store().DeleteItem(chi.URLParam(r, "id")))
}

func (h *Handlers) deleted(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
