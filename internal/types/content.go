package types

// Category is a generatable content category.
type Category string

const (
	CategoryNPC       Category = "npc"
	CategoryLocation  Category = "location"
	CategoryEncounter Category = "encounter"
	CategoryLore      Category = "lore"
	CategoryMap       Category = "map"
)

// Categories lists the categories the parser understands.
var Categories = []Category{CategoryNPC, CategoryLocation, CategoryEncounter, CategoryLore, CategoryMap}

// Relationship is an NPC's stance toward the party.
type Relationship string

const (
	RelationshipAlly    Relationship = "ally"
	RelationshipNeutral Relationship = "neutral"
	RelationshipEnemy   Relationship = "enemy"
)

// Relationships lists the allowed relationship values.
var Relationships = []string{string(RelationshipAlly), string(RelationshipNeutral), string(RelationshipEnemy)}

// LocationType classifies a location.
type LocationType string

const (
	LocationCity       LocationType = "city"
	LocationTown       LocationType = "town"
	LocationVillage    LocationType = "village"
	LocationDungeon    LocationType = "dungeon"
	LocationWilderness LocationType = "wilderness"
	LocationLandmark   LocationType = "landmark"
	LocationOther      LocationType = "other"
)

// LocationTypes lists the allowed location types.
var LocationTypes = []string{
	string(LocationCity), string(LocationTown), string(LocationVillage), string(LocationDungeon),
	string(LocationWilderness), string(LocationLandmark), string(LocationOther),
}

// Difficulty rates an encounter.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyDeadly Difficulty = "deadly"
)

// Difficulties lists the allowed difficulty values.
var Difficulties = []string{
	string(DifficultyEasy), string(DifficultyMedium), string(DifficultyHard), string(DifficultyDeadly),
}

// MapType selects which optional map lists apply.
type MapType string

const (
	MapWorld   MapType = "world"
	MapRegion  MapType = "region"
	MapCity    MapType = "city"
	MapDungeon MapType = "dungeon"
)

// MapTypes lists the allowed map types.
var MapTypes = []string{string(MapWorld), string(MapRegion), string(MapCity), string(MapDungeon)}

// NPC is a normalized non-player character.
type NPC struct {
	Name         string       `json:"name"`
	Occupation   string       `json:"occupation"`
	Location     string       `json:"location"`
	Relationship Relationship `json:"relationship"`
	Description  string       `json:"description"`
	Notes        string       `json:"notes"`
	FirstMet     string       `json:"firstMet"`
	AvatarURL    string       `json:"avatarUrl"`
}

func (n NPC) Kind() EntityKind    { return KindNPC }
func (n NPC) DisplayName() string { return n.Name }

// Location is a normalized place.
type Location struct {
	Name            string       `json:"name"`
	Type            LocationType `json:"type"`
	Region          string       `json:"region"`
	Description     string       `json:"description"`
	NotableFeatures string       `json:"notableFeatures"`
	Secrets         string       `json:"secrets"`
	Inhabitants     string       `json:"inhabitants"`
	MapURL          string       `json:"mapUrl"`
}

func (l Location) Kind() EntityKind    { return KindLocation }
func (l Location) DisplayName() string { return l.Name }

// Encounter is a normalized combat or challenge encounter.
type Encounter struct {
	Name        string     `json:"name"`
	Difficulty  Difficulty `json:"difficulty"`
	PartyLevel  int        `json:"partyLevel"`
	Environment string     `json:"environment"`
	Description string     `json:"description"`
	Enemies     string     `json:"enemies"`
	Tactics     string     `json:"tactics"`
	Rewards     string     `json:"rewards"`
}

func (e Encounter) Kind() EntityKind    { return KindEncounter }
func (e Encounter) DisplayName() string { return e.Name }

// Lore is a normalized world-lore entry.
type Lore struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
}

func (l Lore) Kind() EntityKind    { return KindLore }
func (l Lore) DisplayName() string { return l.Title }

// LocationPlacement pins a named location to a position on a map.
type LocationPlacement struct {
	Location    string `json:"location"`
	Position    string `json:"position"`
	Description string `json:"description,omitempty"`
}

// GridSize is the cell grid of a dungeon map.
type GridSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Map is a normalized map description. The optional lists apply by map type.
type Map struct {
	Type                 MapType             `json:"type"`
	Name                 string              `json:"name"`
	Description          string              `json:"description"`
	Regions              []string            `json:"regions"`
	Features             []string            `json:"features"`
	LocationPlacements   []LocationPlacement `json:"locationPlacements"`
	ClimateZones         []string            `json:"climateZones,omitempty"`
	GeographicalFeatures []string            `json:"geographicalFeatures,omitempty"`
	Districts            []string            `json:"districts,omitempty"`
	Landmarks            []string            `json:"landmarks,omitempty"`
	Rooms                []string            `json:"rooms,omitempty"`
	Connections          []string            `json:"connections,omitempty"`
	GridSize             *GridSize           `json:"gridSize,omitempty"`
	ImageURL             string              `json:"imageUrl,omitempty"`
}

func (m Map) Kind() EntityKind    { return KindMap }
func (m Map) DisplayName() string { return m.Name }

// Era places a timeline event relative to the campaign start.
type Era string

const (
	EraAncientPast Era = "ancient_past"
	EraRecentPast  Era = "recent_past"
	EraPresentDay  Era = "present_day"
)

// TimelineEvent is a dated event in the campaign's history.
type TimelineEvent struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Era          Era    `json:"era"`
	Date         string `json:"date"`
	Significance string `json:"significance,omitempty"`
}

func (t TimelineEvent) Kind() EntityKind    { return KindTimelineEvent }
func (t TimelineEvent) DisplayName() string { return t.Title }

// Quest is a starting quest record.
type Quest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Hook        string   `json:"hook,omitempty"`
	Objectives  []string `json:"objectives,omitempty"`
	Reward      string   `json:"reward,omitempty"`
	Status      string   `json:"status,omitempty"`
}

func (q Quest) Kind() EntityKind    { return KindQuest }
func (q Quest) DisplayName() string { return q.Title }

// Contains reports whether value is one of allowed.
func Contains(allowed []string, value string) bool {
	for _, a := range allowed {
		if a == value {
			return true
		}
	}
	return false
}
