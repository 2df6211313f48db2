package www

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yonbergman/electric-planner/geometry"
	"github.com/yonbergman/electric-planner/mapview"
	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/state"
)

func (h *Handlers) apiListFloorPlans(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.Store().Export().FloorPlans)
}

// apiUploadFloorPlan accepts a multipart upload with one image in the "file"
// field and an optional "name". The image is stored inline as a data URL.
func (h *Handlers) apiUploadFloorPlan(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.engine.AppConfig().Workspace.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.jsonError(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		h.jsonError(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	up, err := mapview.ReadUpload(hdr.Filename, file, maxBytes)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = up.Name
	}
	fp, err := h.engine.Store().AddFloorPlan(name, up.DataURL, up.Width, up.Height)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonStatus(w, http.StatusCreated, fp)
}

func (h *Handlers) apiRenameFloorPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.engine.Store().UpdateFloorPlan(chi.URLParam(r, "id"), req.Name); err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}

// apiDeleteFloorPlan removes the floor plan with its polygons and placements.
func (h *Handlers) apiDeleteFloorPlan(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.engine.Store().DeleteFloorPlan(chi.URLParam(r, "id")))
}

func (h *Handlers) apiFloorPlanPositions(w http.ResponseWriter, r *http.Request) {
	positions := h.engine.Store().Positions(chi.URLParam(r, "id"))
	if positions == nil {
		positions = []plan.MapPosition{}
	}
	h.jsonOK(w, positions)
}

func (h *Handlers) apiFloorPlanPolygons(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	polys := []plan.RoomPolygon{}
	for _, p := range h.engine.Store().Export().RoomPolygons {
		if p.FloorPlanID == id {
			polys = append(polys, p)
		}
	}
	h.jsonOK(w, polys)
}

// worldPoint reads x and y from the query. When zoom is given the point is a
// screen coordinate in a view with that zoom and panX/panY offset.
func worldPoint(r *http.Request) (plan.Point, error) {
	xy, err := floatParams(r, "x", "y")
	if err != nil {
		return plan.Point{}, err
	}
	p := plan.Point{X: xy[0], Y: xy[1]}
	if r.URL.Query().Get("zoom") == "" {
		return p, nil
	}
	v, err := floatParams(r, "zoom", "panX", "panY")
	if err != nil {
		return plan.Point{}, err
	}
	if v[0] <= 0 {
		return plan.Point{}, fmt.Errorf("zoom must be positive: %w", state.ErrInvalid)
	}
	view := geometry.View{Zoom: v[0], Pan: plan.Point{X: v[1], Y: v[2]}}
	return view.ScreenToWorld(p), nil
}

type hitResponse struct {
	Hit *geometry.Hit `json:"hit"`
}

// apiHitTest returns the placed box or item nearest the point, or a null hit.
func (h *Handlers) apiHitTest(w http.ResponseWriter, r *http.Request) {
	p, err := worldPoint(r)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	var resp hitResponse
	if hit, ok := geometry.FindEntityAt(h.engine.Store().Positions(id), id, p); ok {
		resp.Hit = &hit
	}
	h.jsonOK(w, resp)
}

type roomAtResponse struct {
	Polygon *plan.RoomPolygon `json:"polygon"`
	Room    *plan.Room        `json:"room"`
}

func (h *Handlers) apiRoomAt(w http.ResponseWriter, r *http.Request) {
	p, err := worldPoint(r)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	snap := h.engine.Store().Export()
	var resp roomAtResponse
	if poly, ok := geometry.PolygonAt(snap.RoomPolygons, chi.URLParam(r, "id"), p); ok {
		resp.Polygon = &poly
		for i := range snap.Rooms {
			if snap.Rooms[i].ID == poly.RoomID {
				resp.Room = &snap.Rooms[i]
			}
		}
	}
	h.jsonOK(w, resp)
}

func (h *Handlers) apiWiring(w http.ResponseWriter, r *http.Request) {
	boxID := r.URL.Query().Get("boxId")
	if boxID == "" {
		h.jsonError(w, "missing boxId", http.StatusBadRequest)
		return
	}
	lines := geometry.WiringLines(h.engine.Store().Export(), chi.URLParam(r, "id"), boxID)
	if lines == nil {
		lines = []geometry.Segment{}
	}
	h.jsonOK(w, lines)
}

func (h *Handlers) apiCreatePolygon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID      string         `json:"roomId"`
		FloorPlanID string         `json:"floorPlanId"`
		Points      []plan.Point   `json:"points"`
		ShapeKind   plan.ShapeKind `json:"shapeKind"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	poly, err := h.engine.Store().AddRoomPolygon(req.RoomID, req.FloorPlanID, req.Points, req.ShapeKind)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonStatus(w, http.StatusCreated, poly)
}

func (h *Handlers) apiDeletePolygon(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.engine.Store().DeleteRoomPolygon(chi.URLParam(r, "id")))
}

// apiPlace puts a box or item on a floor plan. A box already on that floor
// plan is moved; an item gains another placement.
func (h *Handlers) apiPlace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FloorPlanID string          `json:"floorPlanId"`
		EntityType  plan.EntityType `json:"entityType"`
		EntityID    string          `json:"entityId"`
		X           float64         `json:"x"`
		Y           float64         `json:"y"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	pos, err := h.engine.Store().Place(req.FloorPlanID, req.EntityType, req.EntityID, req.X, req.Y)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonStatus(w, http.StatusCreated, pos)
}

func (h *Handlers) apiMovePosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.engine.Store().MovePosition(chi.URLParam(r, "id"), req.X, req.Y); err != nil {
		h.apiError(w, r, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiRemovePosition(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.engine.Store().RemovePosition(chi.URLParam(r, "id")))
}
