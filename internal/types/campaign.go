package types

import (
	"encoding/json"
	"time"
)

// Campaign is the top-level container a frame and its generated content belong to.
type Campaign struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	GameSystem  string    `json:"game_system"`
	OwnerID     string    `json:"owner_id,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCampaign is the input type for creating a campaign (without generated fields).
type NewCampaign struct {
	Name        string `json:"name"`
	GameSystem  string `json:"game_system"`
	OwnerID     string `json:"owner_id,omitempty"`
	Description string `json:"description,omitempty"`
}

// EntityKind identifies a persisted content type.
type EntityKind string

const (
	KindNPC           EntityKind = "npc"
	KindLocation      EntityKind = "location"
	KindLore          EntityKind = "lore"
	KindEncounter     EntityKind = "encounter"
	KindTimelineEvent EntityKind = "timeline_event"
	KindQuest         EntityKind = "quest"
	KindMap           EntityKind = "map"
)

// EntityKinds lists every persistable kind.
var EntityKinds = []EntityKind{
	KindNPC, KindLocation, KindLore, KindEncounter, KindTimelineEvent, KindQuest, KindMap,
}

// Record is a normalized content record that can be persisted as an entity.
type Record interface {
	Kind() EntityKind
	// DisplayName is the human-facing name used in listings and prompt context.
	DisplayName() string
}

// Entity is a persisted record with its storage metadata.
type Entity struct {
	ID         string          `json:"id"`
	CampaignID string          `json:"campaign_id"`
	Kind       EntityKind      `json:"kind"`
	Name       string          `json:"name"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"created_at"`
}

// FrameStatus is the lifecycle state of a campaign frame.
type FrameStatus string

const (
	FrameDraft     FrameStatus = "draft"
	FrameCompleted FrameStatus = "completed"
)

// Progress is the wizard position stored alongside a frame snapshot.
type Progress struct {
	StepIndex      int   `json:"step_index"`
	CompletedSteps []int `json:"completed_steps"`
}

// FrameSnapshot is what the wizard hands to the draft store. Fields holds only
// the frame fields that are set; absent keys mean "unset".
type FrameSnapshot struct {
	CampaignID string         `json:"campaign_id"`
	Fields     map[string]any `json:"fields"`
	Progress   Progress       `json:"progress"`
	TemplateID string         `json:"template_id,omitempty"`
	Status     FrameStatus    `json:"status"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Frame decodes the snapshot fields back into a CampaignFrame.
func (s FrameSnapshot) Frame() (CampaignFrame, error) {
	return FrameFromFields(s.Fields)
}
