package plan

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SchemaVersion is the snapshot layout written by this build.
//
//	1: rooms, boxes, modules, items
//	2: adds floorPlans, roomPolygons, mapPositions
const SchemaVersion = 2

// ErrInvalidSnapshot is returned for snapshots that cannot be imported.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is the full serialized plan, used for the durable slot, share
// links and import/export.
type Snapshot struct {
	Version      int           `json:"version,omitempty"`
	Rooms        []Room        `json:"rooms"`
	Boxes        []Box         `json:"boxes"`
	Modules      []Module      `json:"modules"`
	Items        []Item        `json:"items"`
	FloorPlans   []FloorPlan   `json:"floorPlans"`
	RoomPolygons []RoomPolygon `json:"roomPolygons"`
	MapPositions []MapPosition `json:"mapPositions"`
}

// rawSnapshot distinguishes absent collections from empty ones.
type rawSnapshot struct {
	Version      int            `json:"version"`
	Rooms        *[]Room        `json:"rooms"`
	Boxes        *[]Box         `json:"boxes"`
	Modules      *[]Module      `json:"modules"`
	Items        *[]Item        `json:"items"`
	FloorPlans   *[]FloorPlan   `json:"floorPlans"`
	RoomPolygons *[]RoomPolygon `json:"roomPolygons"`
	MapPositions *[]MapPosition `json:"mapPositions"`
}

// Decode parses a snapshot, requires the four core collections, migrates it
// to SchemaVersion and validates it.
func Decode(data []byte) (Snapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	switch {
	case raw.Rooms == nil:
		return Snapshot{}, fmt.Errorf("%w: missing rooms", ErrInvalidSnapshot)
	case raw.Boxes == nil:
		return Snapshot{}, fmt.Errorf("%w: missing boxes", ErrInvalidSnapshot)
	case raw.Modules == nil:
		return Snapshot{}, fmt.Errorf("%w: missing modules", ErrInvalidSnapshot)
	case raw.Items == nil:
		return Snapshot{}, fmt.Errorf("%w: missing items", ErrInvalidSnapshot)
	}
	s := Snapshot{
		Version: raw.Version,
		Rooms:   *raw.Rooms,
		Boxes:   *raw.Boxes,
		Modules: *raw.Modules,
		Items:   *raw.Items,
	}
	if raw.FloorPlans != nil {
		s.FloorPlans = *raw.FloorPlans
	}
	if raw.RoomPolygons != nil {
		s.RoomPolygons = *raw.RoomPolygons
	}
	if raw.MapPositions != nil {
		s.MapPositions = *raw.MapPositions
	}
	if err := s.Migrate(); err != nil {
		return Snapshot{}, err
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Encode marshals the snapshot at the current schema version.
func (s Snapshot) Encode() ([]byte, error) {
	s.Version = SchemaVersion
	return json.Marshal(s)
}

// Migrate brings an older snapshot up to SchemaVersion. Collections missing
// from older layouts become empty, and references to entities that no longer
// exist are dropped.
func (s *Snapshot) Migrate() error {
	if s.Version > SchemaVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, s.Version)
	}
	// Unversioned snapshots come from the browser build, which may or may not
	// carry the floor-plan collections.
	s.Version = SchemaVersion
	s.fillEmpty()
	s.dropDangling()
	return nil
}

func (s *Snapshot) fillEmpty() {
	if s.Rooms == nil {
		s.Rooms = []Room{}
	}
	if s.Boxes == nil {
		s.Boxes = []Box{}
	}
	if s.Modules == nil {
		s.Modules = []Module{}
	}
	if s.Items == nil {
		s.Items = []Item{}
	}
	if s.FloorPlans == nil {
		s.FloorPlans = []FloorPlan{}
	}
	if s.RoomPolygons == nil {
		s.RoomPolygons = []RoomPolygon{}
	}
	if s.MapPositions == nil {
		s.MapPositions = []MapPosition{}
	}
}

func (s *Snapshot) dropDangling() {
	rooms := make(map[string]bool, len(s.Rooms))
	for _, r := range s.Rooms {
		rooms[r.ID] = true
	}
	boxes := make([]Box, 0, len(s.Boxes))
	boxIDs := make(map[string]bool, len(s.Boxes))
	for _, b := range s.Boxes {
		if rooms[b.RoomID] {
			boxes = append(boxes, b)
			boxIDs[b.ID] = true
		}
	}
	s.Boxes = boxes

	items := make([]Item, 0, len(s.Items))
	itemIDs := make(map[string]bool, len(s.Items))
	for _, it := range s.Items {
		if rooms[it.RoomID] {
			items = append(items, it)
			itemIDs[it.ID] = true
		}
	}
	s.Items = items

	modules := make([]Module, 0, len(s.Modules))
	for _, m := range s.Modules {
		if !boxIDs[m.BoxID] {
			continue
		}
		if m.ItemID != "" && !itemIDs[m.ItemID] {
			m.ItemID = ""
		}
		modules = append(modules, m)
	}
	s.Modules = modules

	plans := make(map[string]bool, len(s.FloorPlans))
	for _, fp := range s.FloorPlans {
		plans[fp.ID] = true
	}
	polygons := make([]RoomPolygon, 0, len(s.RoomPolygons))
	for _, p := range s.RoomPolygons {
		if plans[p.FloorPlanID] && rooms[p.RoomID] {
			polygons = append(polygons, p)
		}
	}
	s.RoomPolygons = polygons

	positions := make([]MapPosition, 0, len(s.MapPositions))
	for _, p := range s.MapPositions {
		if !plans[p.FloorPlanID] {
			continue
		}
		if (p.EntityType == EntityBox && boxIDs[p.EntityID]) || (p.EntityType == EntityItem && itemIDs[p.EntityID]) {
			positions = append(positions, p)
		}
	}
	s.MapPositions = positions
}

// Validate checks enum values and shape constraints. Slot overlap is checked
// by the store, which owns the allocator.
func (s *Snapshot) Validate() error {
	seen := make(map[string]bool)
	unique := func(kind, id string) error {
		if id == "" {
			return fmt.Errorf("%w: %s with empty id", ErrInvalidSnapshot, kind)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidSnapshot, id)
		}
		seen[id] = true
		return nil
	}
	for _, r := range s.Rooms {
		if err := unique("room", r.ID); err != nil {
			return err
		}
	}
	for _, b := range s.Boxes {
		if err := unique("box", b.ID); err != nil {
			return err
		}
		if !ValidBoxSize(b.Size) {
			return fmt.Errorf("%w: box %q has size %d", ErrInvalidSnapshot, b.ID, b.Size)
		}
	}
	for _, m := range s.Modules {
		if err := unique("module", m.ID); err != nil {
			return err
		}
		if !m.Type.Valid() {
			return fmt.Errorf("%w: module %q has type %q", ErrInvalidSnapshot, m.ID, m.Type)
		}
	}
	for _, it := range s.Items {
		if err := unique("item", it.ID); err != nil {
			return err
		}
		if !it.Type.Valid() {
			return fmt.Errorf("%w: item %q has type %q", ErrInvalidSnapshot, it.ID, it.Type)
		}
	}
	for _, fp := range s.FloorPlans {
		if err := unique("floor plan", fp.ID); err != nil {
			return err
		}
		if !ValidImageURL(fp.ImageURL) {
			return fmt.Errorf("%w: floor plan %q has unsupported image url", ErrInvalidSnapshot, fp.ID)
		}
	}
	for _, p := range s.RoomPolygons {
		if err := unique("room polygon", p.ID); err != nil {
			return err
		}
		if len(p.Points) < 3 {
			return fmt.Errorf("%w: polygon %q has %d points", ErrInvalidSnapshot, p.ID, len(p.Points))
		}
	}
	boxPlaced := make(map[[2]string]bool)
	for _, p := range s.MapPositions {
		if err := unique("map position", p.ID); err != nil {
			return err
		}
		if !p.EntityType.Valid() {
			return fmt.Errorf("%w: position %q has entity type %q", ErrInvalidSnapshot, p.ID, p.EntityType)
		}
		if p.EntityType == EntityBox {
			key := [2]string{p.FloorPlanID, p.EntityID}
			if boxPlaced[key] {
				return fmt.Errorf("%w: box %q placed twice on floor plan %q", ErrInvalidSnapshot, p.EntityID, p.FloorPlanID)
			}
			boxPlaced[key] = true
		}
	}
	return nil
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Version:      s.Version,
		Rooms:        append([]Room{}, s.Rooms...),
		Boxes:        append([]Box{}, s.Boxes...),
		Modules:      append([]Module{}, s.Modules...),
		Items:        append([]Item{}, s.Items...),
		FloorPlans:   append([]FloorPlan{}, s.FloorPlans...),
		RoomPolygons: make([]RoomPolygon, len(s.RoomPolygons)),
		MapPositions: append([]MapPosition{}, s.MapPositions...),
	}
	for i, p := range s.RoomPolygons {
		p.Points = append([]Point{}, p.Points...)
		out.RoomPolygons[i] = p
	}
	return out
}

// Empty returns a snapshot at the current version with no entities.
func Empty() Snapshot {
	s := Snapshot{Version: SchemaVersion}
	s.fillEmpty()
	return s
}
