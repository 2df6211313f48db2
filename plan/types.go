package plan

import (
	"net/url"
	"strings"
)

// ModuleType identifies the kind of unit mounted in a box slot.
type ModuleType string

const (
	ModuleBlank            ModuleType = "blank"
	ModuleLightSwitchDumb  ModuleType = "light-switch-dumb"
	ModuleSocket           ModuleType = "socket"
	ModuleUSBSocket        ModuleType = "usb-socket"
	ModuleLightSwitchSmart ModuleType = "light-switch-smart"
	ModuleShutter          ModuleType = "shutter"
	ModuleDimmer           ModuleType = "dimmer"
	ModuleScenario         ModuleType = "scenario"
	ModuleEthernet         ModuleType = "ethernet"
)

// ModuleTypes lists every module type in display order.
var ModuleTypes = []ModuleType{
	ModuleBlank,
	ModuleLightSwitchDumb,
	ModuleSocket,
	ModuleUSBSocket,
	ModuleLightSwitchSmart,
	ModuleShutter,
	ModuleDimmer,
	ModuleScenario,
	ModuleEthernet,
}

var moduleWidths = map[ModuleType]int{
	ModuleBlank:            1,
	ModuleLightSwitchDumb:  1,
	ModuleSocket:           2,
	ModuleUSBSocket:        1,
	ModuleLightSwitchSmart: 1,
	ModuleShutter:          1,
	ModuleDimmer:           1,
	ModuleScenario:         1,
	ModuleEthernet:         1,
}

var moduleLabels = map[ModuleType]string{
	ModuleBlank:            "Blank",
	ModuleLightSwitchDumb:  "Light Switch (Dumb)",
	ModuleSocket:           "Socket",
	ModuleUSBSocket:        "USB Socket",
	ModuleLightSwitchSmart: "Light Switch (Smart)",
	ModuleShutter:          "Shutter",
	ModuleDimmer:           "Dimmer",
	ModuleScenario:         "Scenario",
	ModuleEthernet:         "Ethernet",
}

// Valid reports whether t is a known module type.
func (t ModuleType) Valid() bool {
	_, ok := moduleWidths[t]
	return ok
}

// Width returns the number of slots a module of this type occupies.
// Unknown types occupy one slot.
func (t ModuleType) Width() int {
	if w, ok := moduleWidths[t]; ok {
		return w
	}
	return 1
}

// Label returns the human-readable name of the type.
func (t ModuleType) Label() string {
	if l, ok := moduleLabels[t]; ok {
		return l
	}
	return string(t)
}

// ItemType identifies the kind of controllable load.
type ItemType string

const (
	ItemLight      ItemType = "light"
	ItemCeilingFan ItemType = "ceiling-fan"
	ItemBlinds     ItemType = "blinds"
	ItemLEDs       ItemType = "leds"
	ItemAppliance  ItemType = "appliance"
)

// ItemTypes lists every item type in display order.
var ItemTypes = []ItemType{ItemLight, ItemCeilingFan, ItemBlinds, ItemLEDs, ItemAppliance}

var itemLabels = map[ItemType]string{
	ItemLight:      "Light",
	ItemCeilingFan: "Ceiling Fan",
	ItemBlinds:     "Blinds",
	ItemLEDs:       "LEDs",
	ItemAppliance:  "Appliance",
}

var defaultItemIcons = map[ItemType]string{
	ItemLight:      "Lightbulb",
	ItemCeilingFan: "Fan",
	ItemBlinds:     "Blinds",
	ItemLEDs:       "Sparkles",
	ItemAppliance:  "Plug",
}

func (t ItemType) Valid() bool {
	_, ok := itemLabels[t]
	return ok
}

func (t ItemType) Label() string {
	if l, ok := itemLabels[t]; ok {
		return l
	}
	return string(t)
}

// DefaultIcon returns the icon shown for items of this type when none is set.
func (t ItemType) DefaultIcon() string {
	return defaultItemIcons[t]
}

// AvailableIcons is the closed set of icon names an item may use.
var AvailableIcons = []string{
	"Lightbulb", "Lamp", "LampDesk", "LampFloor", "LampCeiling", "LampWallUp",
	"Fan", "AirVent",
	"Blinds", "PanelTop",
	"Sparkles", "Star",
	"Plug", "Refrigerator", "WashingMachine", "Tv", "Monitor", "Speaker",
	"Coffee", "Microwave", "CookingPot", "Heater",
	"Sun", "Moon",
	"Gamepad2", "Toilet", "Router", "Footprints",
}

// ValidIcon reports whether name is one of AvailableIcons.
func ValidIcon(name string) bool {
	for _, icon := range AvailableIcons {
		if icon == name {
			return true
		}
	}
	return false
}

// BoxSizes are the slot counts a box can be built with.
var BoxSizes = []int{3, 4, 7, 14}

func ValidBoxSize(size int) bool {
	for _, s := range BoxSizes {
		if s == size {
			return true
		}
	}
	return false
}

// EntityType distinguishes what a map position places.
type EntityType string

const (
	EntityBox  EntityType = "box"
	EntityItem EntityType = "item"
)

func (t EntityType) Valid() bool {
	return t == EntityBox || t == EntityItem
}

// ShapeKind records how a room polygon was drawn.
type ShapeKind string

const (
	ShapeRectangle ShapeKind = "rectangle"
	ShapePolygon   ShapeKind = "polygon"
)

func (k ShapeKind) Valid() bool {
	return k == ShapeRectangle || k == ShapePolygon
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Box struct {
	ID     string `json:"id"`
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
	Size   int    `json:"size"`
}

// Module is a unit mounted in a box. ItemID is the wiring link and is empty
// when the module controls nothing. Notes is only used by scenario switches.
type Module struct {
	ID       string     `json:"id"`
	BoxID    string     `json:"boxId"`
	Type     ModuleType `json:"type"`
	Position int        `json:"position"`
	Label    string     `json:"label"`
	ItemID   string     `json:"itemId,omitempty"`
	Notes    string     `json:"notes,omitempty"`
}

// Width is the number of slots the module occupies.
func (m Module) Width() int { return m.Type.Width() }

type Item struct {
	ID     string   `json:"id"`
	RoomID string   `json:"roomId"`
	Name   string   `json:"name,omitempty"`
	Type   ItemType `json:"type"`
	Icon   string   `json:"icon,omitempty"`
}

// DisplayIcon returns the item's icon, falling back to the type default.
func (i Item) DisplayIcon() string {
	if i.Icon != "" {
		return i.Icon
	}
	return i.Type.DefaultIcon()
}

// DisplayName returns the item's name, falling back to the type label.
func (i Item) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Type.Label()
}

// FloorPlan is an uploaded raster image. Width and Height are zero until the
// image has been decoded.
type FloorPlan struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// ValidImageURL reports whether u can back a floor plan: an inline data URL
// or an absolute http(s) URL.
func ValidImageURL(u string) bool {
	if strings.HasPrefix(u, "data:") {
		return true
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

type RoomPolygon struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"roomId"`
	FloorPlanID string    `json:"floorPlanId"`
	Points      []Point   `json:"points"`
	ShapeKind   ShapeKind `json:"shapeKind"`
}

// MapPosition places one instance of a box or item on a floor plan, in the
// floor plan's pixel space.
type MapPosition struct {
	ID          string     `json:"id"`
	FloorPlanID string     `json:"floorPlanId"`
	EntityType  EntityType `json:"entityType"`
	EntityID    string     `json:"entityId"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
}

func (p MapPosition) Point() Point { return Point{X: p.X, Y: p.Y} }
