package state

import "github.com/yonbergman/electric-planner/plan"

// AddFloorPlan stores an uploaded image. Width and height may be zero when the
// dimensions are not known yet; SetFloorPlanSize fills them in later.
func (s *Store) AddFloorPlan(name, imageURL string, width, height int) (plan.FloorPlan, error) {
	var fp plan.FloorPlan
	err := s.update(func(t *tx) error {
		if !plan.ValidImageURL(imageURL) {
			return invalid("floor plan image url")
		}
		if width < 0 || height < 0 {
			return invalid("floor plan size %dx%d", width, height)
		}
		fp = plan.FloorPlan{ID: t.newID(), Name: name, ImageURL: imageURL, Width: width, Height: height}
		t.data.FloorPlans = append(t.data.FloorPlans, fp)
		t.emit(ActionCreated, EntityFloorPlan, fp.ID)
		return nil
	})
	return fp, err
}

// UpdateFloorPlan renames a floor plan.
func (s *Store) UpdateFloorPlan(id, name string) error {
	return s.update(func(t *tx) error {
		i := floorPlanIndex(t.data, id)
		if i < 0 {
			return notFound("floor plan", id)
		}
		t.data.FloorPlans[i].Name = name
		t.emit(ActionUpdated, EntityFloorPlan, id)
		return nil
	})
}

func (s *Store) SetFloorPlanSize(id string, width, height int) error {
	return s.update(func(t *tx) error {
		if width <= 0 || height <= 0 {
			return invalid("floor plan size %dx%d", width, height)
		}
		i := floorPlanIndex(t.data, id)
		if i < 0 {
			return notFound("floor plan", id)
		}
		t.data.FloorPlans[i].Width = width
		t.data.FloorPlans[i].Height = height
		t.emit(ActionUpdated, EntityFloorPlan, id)
		return nil
	})
}

// DeleteFloorPlan removes the floor plan with its room polygons and map
// positions.
func (s *Store) DeleteFloorPlan(id string) error {
	return s.update(func(t *tx) error {
		i := floorPlanIndex(t.data, id)
		if i < 0 {
			return notFound("floor plan", id)
		}
		t.data.FloorPlans = append(t.data.FloorPlans[:i], t.data.FloorPlans[i+1:]...)

		polygons := t.data.RoomPolygons[:0]
		for _, p := range t.data.RoomPolygons {
			if p.FloorPlanID != id {
				polygons = append(polygons, p)
			}
		}
		t.data.RoomPolygons = polygons

		positions := t.data.MapPositions[:0]
		for _, p := range t.data.MapPositions {
			if p.FloorPlanID != id {
				positions = append(positions, p)
			}
		}
		t.data.MapPositions = positions

		t.emit(ActionDeleted, EntityFloorPlan, id)
		return nil
	})
}

// AddRoomPolygon records a room boundary on a floor plan. An empty kind is
// stored as a free polygon.
func (s *Store) AddRoomPolygon(roomID, floorPlanID string, points []plan.Point, kind plan.ShapeKind) (plan.RoomPolygon, error) {
	var poly plan.RoomPolygon
	err := s.update(func(t *tx) error {
		if kind == "" {
			kind = plan.ShapePolygon
		}
		if !kind.Valid() {
			return invalid("shape kind %q", kind)
		}
		if len(points) < 3 {
			return invalid("polygon needs at least 3 points, got %d", len(points))
		}
		if roomIndex(t.data, roomID) < 0 {
			return notFound("room", roomID)
		}
		if floorPlanIndex(t.data, floorPlanID) < 0 {
			return notFound("floor plan", floorPlanID)
		}
		poly = plan.RoomPolygon{
			ID:          t.newID(),
			RoomID:      roomID,
			FloorPlanID: floorPlanID,
			Points:      append([]plan.Point{}, points...),
			ShapeKind:   kind,
		}
		t.data.RoomPolygons = append(t.data.RoomPolygons, poly)
		t.emit(ActionCreated, EntityRoomPolygon, poly.ID)
		return nil
	})
	if err == nil {
		poly.Points = append([]plan.Point{}, poly.Points...)
	}
	return poly, err
}

func (s *Store) DeleteRoomPolygon(id string) error {
	return s.update(func(t *tx) error {
		i := polygonIndex(t.data, id)
		if i < 0 {
			return notFound("room polygon", id)
		}
		t.data.RoomPolygons = append(t.data.RoomPolygons[:i], t.data.RoomPolygons[i+1:]...)
		t.emit(ActionDeleted, EntityRoomPolygon, id)
		return nil
	})
}
