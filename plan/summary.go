package plan

// ModuleCount is one line of the bill of materials.
type ModuleCount struct {
	Type  ModuleType `json:"type"`
	Label string     `json:"label"`
	Count int        `json:"count"`
}

type BoxCount struct {
	Size  int `json:"size"`
	Count int `json:"count"`
}

// UnconnectedItem is an item no module is wired to.
type UnconnectedItem struct {
	Item     Item   `json:"item"`
	RoomName string `json:"roomName"`
}

type RoomStats struct {
	Room             Room `json:"room"`
	BoxCount         int  `json:"boxCount"`
	ModuleCount      int  `json:"moduleCount"`
	ItemCount        int  `json:"itemCount"`
	UnconnectedCount int  `json:"unconnectedCount"`
}

// Summary is the bill of materials for a plan.
type Summary struct {
	Modules      []ModuleCount     `json:"modules"`
	Boxes        []BoxCount        `json:"boxes"`
	TotalModules int               `json:"totalModules"`
	TotalBoxes   int               `json:"totalBoxes"`
	Unconnected  []UnconnectedItem `json:"unconnected"`
	Rooms        []RoomStats       `json:"rooms"`
}

// Summarize counts modules by type and boxes by size, lists unconnected
// items, and totals each room. Types and sizes with a zero count are omitted.
func Summarize(s Snapshot) Summary {
	sum := Summary{
		Modules:     []ModuleCount{},
		Boxes:       []BoxCount{},
		Unconnected: []UnconnectedItem{},
		Rooms:       make([]RoomStats, 0, len(s.Rooms)),
	}

	byType := make(map[ModuleType]int)
	connected := make(map[string]bool)
	for _, m := range s.Modules {
		byType[m.Type]++
		if m.ItemID != "" {
			connected[m.ItemID] = true
		}
	}
	for _, t := range ModuleTypes {
		if n := byType[t]; n > 0 {
			sum.Modules = append(sum.Modules, ModuleCount{Type: t, Label: t.Label(), Count: n})
		}
	}
	sum.TotalModules = len(s.Modules)

	bySize := make(map[int]int)
	for _, b := range s.Boxes {
		bySize[b.Size]++
	}
	for _, size := range BoxSizes {
		if n := bySize[size]; n > 0 {
			sum.Boxes = append(sum.Boxes, BoxCount{Size: size, Count: n})
		}
	}
	sum.TotalBoxes = len(s.Boxes)

	roomNames := make(map[string]string, len(s.Rooms))
	for _, r := range s.Rooms {
		roomNames[r.ID] = r.Name
	}
	for _, it := range s.Items {
		if !connected[it.ID] {
			name, ok := roomNames[it.RoomID]
			if !ok {
				name = "Unknown room"
			}
			sum.Unconnected = append(sum.Unconnected, UnconnectedItem{Item: it, RoomName: name})
		}
	}

	boxRoom := make(map[string]string, len(s.Boxes))
	for _, b := range s.Boxes {
		boxRoom[b.ID] = b.RoomID
	}
	for _, r := range s.Rooms {
		st := RoomStats{Room: r}
		roomConnected := make(map[string]bool)
		for _, b := range s.Boxes {
			if b.RoomID == r.ID {
				st.BoxCount++
			}
		}
		for _, m := range s.Modules {
			if boxRoom[m.BoxID] != r.ID {
				continue
			}
			st.ModuleCount++
			if m.ItemID != "" {
				roomConnected[m.ItemID] = true
			}
		}
		for _, it := range s.Items {
			if it.RoomID != r.ID {
				continue
			}
			st.ItemCount++
			if !roomConnected[it.ID] {
				st.UnconnectedCount++
			}
		}
		sum.Rooms = append(sum.Rooms, st)
	}
	return sum
}
