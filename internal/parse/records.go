package parse

import (
	"strings"

	"github.com/hyperengineering/tablekeep/internal/types"
	"github.com/tidwall/gjson"
)

// Default names for records the parser could not name.
const (
	DefaultNPCName       = "Unknown NPC"
	DefaultLocationName  = "Unknown Location"
	DefaultEncounterName = "Unknown Encounter"
	DefaultLoreTitle     = "Untitled Lore"
	DefaultLoreCategory  = "history"
	DefaultMapName       = "Unnamed Map"
	DefaultPartyLevel    = 1
	maxPartyLevel        = 20
)

// DefaultGridSize is used for dungeon maps that arrive without one.
var DefaultGridSize = types.GridSize{Width: 20, Height: 20}

// Parse converts raw output for category into a normalized record. Map output
// is parsed as a world map; use Map for other map types.
func Parse(category types.Category, raw string) types.Record {
	switch category {
	case types.CategoryNPC:
		r, _ := NPC(raw)
		return r
	case types.CategoryLocation:
		r, _ := Location(raw)
		return r
	case types.CategoryEncounter:
		r, _ := Encounter(raw)
		return r
	case types.CategoryLore:
		r, _ := Lore(raw)
		return r
	case types.CategoryMap:
		r, _ := Map(raw, types.MapWorld)
		return r
	}
	return nil
}

// NPC parses an NPC. ok reports whether any field was recovered.
func NPC(raw string) (npc types.NPC, ok bool) {
	f := extract(raw)
	npc = types.NPC{
		Name:         f.str("name", "fullName"),
		Occupation:   f.str("occupation", "role", "profession", "job"),
		Location:     f.str("location", "home", "whereFound"),
		Relationship: types.Relationship(f.str("relationship", "attitude", "disposition")),
		Description:  f.str("description", "appearance", "summary"),
		Notes:        f.str("notes", "personality", "secrets", "motivation"),
		FirstMet:     f.str("firstMet", "firstMeeting", "hook"),
		AvatarURL:    f.str("avatarUrl", "avatar", "imageUrl"),
	}
	return NormalizeNPC(npc), f.hits > 0
}

// NormalizeNPC applies defaults and re-validates enums.
func NormalizeNPC(npc types.NPC) types.NPC {
	if strings.TrimSpace(npc.Name) == "" {
		npc.Name = DefaultNPCName
	}
	npc.Relationship = types.Relationship(coerce(string(npc.Relationship), types.Relationships, string(types.RelationshipNeutral)))
	return npc
}

// Location parses a location. ok reports whether any field was recovered.
func Location(raw string) (loc types.Location, ok bool) {
	f := extract(raw)
	loc = types.Location{
		Name:            f.str("name"),
		Type:            types.LocationType(f.str("type", "locationType", "kind")),
		Region:          f.str("region", "area"),
		Description:     f.str("description", "summary"),
		NotableFeatures: f.str("notableFeatures", "features"),
		Secrets:         f.str("secrets", "secret", "hidden"),
		Inhabitants:     f.str("inhabitants", "population", "residents"),
		MapURL:          f.str("mapUrl", "map"),
	}
	return NormalizeLocation(loc), f.hits > 0
}

// NormalizeLocation applies defaults and re-validates enums.
func NormalizeLocation(loc types.Location) types.Location {
	if strings.TrimSpace(loc.Name) == "" {
		loc.Name = DefaultLocationName
	}
	loc.Type = types.LocationType(coerce(string(loc.Type), types.LocationTypes, string(types.LocationOther)))
	return loc
}

// Encounter parses an encounter. ok reports whether any field was recovered.
func Encounter(raw string) (enc types.Encounter, ok bool) {
	f := extract(raw)
	enc = types.Encounter{
		Name:        f.str("name", "title"),
		Difficulty:  types.Difficulty(f.str("difficulty", "challenge")),
		Environment: f.str("environment", "terrain", "setting"),
		Description: f.str("description", "summary"),
		Enemies:     f.str("enemies", "monsters", "adversaries", "foes"),
		Tactics:     f.str("tactics", "strategy"),
		Rewards:     f.str("rewards", "reward", "loot", "treasure"),
	}
	if lvl, found := f.integer("partyLevel", "level", "tier"); found {
		enc.PartyLevel = lvl
	}
	return NormalizeEncounter(enc), f.hits > 0
}

// NormalizeEncounter applies defaults, re-validates enums and clamps level.
func NormalizeEncounter(enc types.Encounter) types.Encounter {
	if strings.TrimSpace(enc.Name) == "" {
		enc.Name = DefaultEncounterName
	}
	enc.Difficulty = types.Difficulty(coerce(string(enc.Difficulty), types.Difficulties, string(types.DifficultyMedium)))
	if enc.PartyLevel < 1 {
		enc.PartyLevel = DefaultPartyLevel
	}
	if enc.PartyLevel > maxPartyLevel {
		enc.PartyLevel = maxPartyLevel
	}
	return enc
}

// Lore parses a lore entry. ok reports whether any field was recovered.
func Lore(raw string) (lore types.Lore, ok bool) {
	f := extract(raw)
	lore = types.Lore{
		Title:    f.str("title", "name"),
		Category: f.str("category", "type"),
		Content:  f.str("content", "description", "text", "body"),
		Tags:     f.list("tags", "keywords"),
	}
	return NormalizeLore(lore), f.hits > 0
}

// NormalizeLore applies defaults.
func NormalizeLore(lore types.Lore) types.Lore {
	if strings.TrimSpace(lore.Title) == "" {
		lore.Title = DefaultLoreTitle
	}
	lore.Category = strings.ToLower(strings.TrimSpace(lore.Category))
	if lore.Category == "" {
		lore.Category = DefaultLoreCategory
	}
	if lore.Tags == nil {
		lore.Tags = []string{}
	}
	return lore
}

// Map parses a map description of the requested type. The optional lists kept
// depend on the type: world maps carry climate zones and geographical
// features, regions carry geographical features and landmarks, cities carry
// districts and landmarks, and dungeons carry rooms, connections and a grid.
func Map(raw string, mapType types.MapType) (m types.Map, ok bool) {
	f := extract(raw)
	m = types.Map{
		Type:        types.MapType(coerce(string(mapType), types.MapTypes, string(types.MapWorld))),
		Name:        f.str("name", "title"),
		Description: f.str("description", "summary"),
		Regions:     f.list("regions"),
		Features:    f.list("features", "keyFeatures"),
	}

	if items := f.array("locationPlacements", "locations", "placements"); items != nil {
		for _, item := range items {
			if p, found := placement(item); found {
				m.LocationPlacements = append(m.LocationPlacements, p)
			}
		}
	} else {
		for _, s := range f.list("locationPlacements", "locations", "placements") {
			m.LocationPlacements = append(m.LocationPlacements, placementFromText(s))
		}
	}

	switch m.Type {
	case types.MapWorld:
		m.ClimateZones = f.list("climateZones", "climates")
		m.GeographicalFeatures = f.list("geographicalFeatures", "geography")
	case types.MapRegion:
		m.GeographicalFeatures = f.list("geographicalFeatures", "geography")
		m.Landmarks = f.list("landmarks")
	case types.MapCity:
		m.Districts = f.list("districts", "wards", "neighborhoods")
		m.Landmarks = f.list("landmarks")
	case types.MapDungeon:
		m.Rooms = f.list("rooms", "chambers")
		m.Connections = f.list("connections", "passages")
		if gs := gridSize(f); gs != nil {
			m.GridSize = gs
		}
	}
	return NormalizeMap(m), f.hits > 0
}

// NormalizeMap applies defaults and re-validates the map type.
func NormalizeMap(m types.Map) types.Map {
	m.Type = types.MapType(coerce(string(m.Type), types.MapTypes, string(types.MapWorld)))
	if strings.TrimSpace(m.Name) == "" {
		m.Name = DefaultMapName
	}
	if m.Regions == nil {
		m.Regions = []string{}
	}
	if m.Features == nil {
		m.Features = []string{}
	}
	if m.LocationPlacements == nil {
		m.LocationPlacements = []types.LocationPlacement{}
	}
	if m.Type == types.MapDungeon {
		if m.GridSize == nil || m.GridSize.Width <= 0 || m.GridSize.Height <= 0 {
			gs := DefaultGridSize
			m.GridSize = &gs
		}
	} else {
		m.GridSize = nil
	}
	return m
}

func placement(item gjson.Result) (types.LocationPlacement, bool) {
	if !item.IsObject() {
		s := strings.TrimSpace(item.String())
		if s == "" {
			return types.LocationPlacement{}, false
		}
		return placementFromText(s), true
	}
	p := types.LocationPlacement{
		Location:    firstString(item, "location", "name"),
		Position:    firstString(item, "position", "coordinates", "where"),
		Description: firstString(item, "description"),
	}
	return p, p.Location != ""
}

func placementFromText(s string) types.LocationPlacement {
	if name, pos, found := strings.Cut(s, ":"); found {
		return types.LocationPlacement{Location: strings.TrimSpace(name), Position: strings.TrimSpace(pos)}
	}
	return types.LocationPlacement{Location: s}
}

func gridSize(f *fieldSet) *types.GridSize {
	doc, line, ok := f.lookup([]string{"gridSize", "grid"})
	if !ok {
		return nil
	}
	if f.doc != nil && doc.IsObject() {
		gs := &types.GridSize{Width: int(doc.Get("width").Int()), Height: int(doc.Get("height").Int())}
		f.hits++
		return gs
	}
	s := line
	if f.doc != nil {
		s = doc.String()
	}
	nums := leadingInt.FindAllString(s, 2)
	if len(nums) != 2 {
		return nil
	}
	w, h := atoi(nums[0]), atoi(nums[1])
	f.hits++
	return &types.GridSize{Width: w, Height: h}
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		if n > 1000 {
			return 1000
		}
	}
	return n
}
