package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Field names one of the fifteen ordered CampaignFrame fields.
type Field string

const (
	FieldPitch             Field = "pitch"
	FieldToneAndFeel       Field = "toneAndFeel"
	FieldThemes            Field = "themes"
	FieldTouchstones       Field = "touchstones"
	FieldOverview          Field = "overview"
	FieldCommunities       Field = "communities"
	FieldAncestries        Field = "ancestries"
	FieldClasses           Field = "classes"
	FieldPlayerPrinciples  Field = "playerPrinciples"
	FieldGMPrinciples      Field = "gmPrinciples"
	FieldDistinctions      Field = "distinctions"
	FieldIncitingIncident  Field = "incitingIncident"
	FieldStartingQuests    Field = "startingQuests"
	FieldCampaignMechanics Field = "campaignMechanics"
	FieldSessionZero       Field = "sessionZero"
)

// FrameFields is the canonical field order. Wizard step i edits FrameFields[i].
var FrameFields = []Field{
	FieldPitch,
	FieldToneAndFeel,
	FieldThemes,
	FieldTouchstones,
	FieldOverview,
	FieldCommunities,
	FieldAncestries,
	FieldClasses,
	FieldPlayerPrinciples,
	FieldGMPrinciples,
	FieldDistinctions,
	FieldIncitingIncident,
	FieldStartingQuests,
	FieldCampaignMechanics,
	FieldSessionZero,
}

// ParseField returns the Field for key, or false if key is not a frame field.
func ParseField(key string) (Field, bool) {
	for _, f := range FrameFields {
		if string(f) == key {
			return f, true
		}
	}
	return "", false
}

// IsTextField reports whether the field holds a single block of prose.
func (f Field) IsTextField() bool {
	switch f {
	case FieldPitch, FieldOverview, FieldIncitingIncident,
		FieldCommunities, FieldAncestries, FieldClasses:
		return true
	}
	return false
}

// FlexText holds game-system-specific content that is either free text or a
// structured key/value blob. The zero value is unset.
type FlexText struct {
	Text       string
	Structured map[string]string
}

// FreeText returns a FlexText holding prose.
func FreeText(s string) FlexText {
	return FlexText{Text: s}
}

// StructuredText returns a FlexText holding a key/value blob.
func StructuredText(m map[string]string) FlexText {
	return FlexText{Structured: m}
}

// IsStructured reports whether the value is the structured variant.
func (f FlexText) IsStructured() bool {
	return f.Structured != nil
}

// IsZero reports whether the value is unset.
func (f FlexText) IsZero() bool {
	return f.Text == "" && len(f.Structured) == 0
}

// String renders either variant as prose for prompts and listings.
func (f FlexText) String() string {
	if !f.IsStructured() {
		return f.Text
	}
	keys := make([]string, 0, len(f.Structured))
	for k := range f.Structured {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf bytes.Buffer
	for i, k := range keys {
		if i > 0 {
			buf.WriteString("; ")
		}
		fmt.Fprintf(&buf, "%s: %s", k, f.Structured[k])
	}
	return buf.String()
}

// MarshalJSON encodes free text as a JSON string and structured content as an object.
func (f FlexText) MarshalJSON() ([]byte, error) {
	if f.IsStructured() {
		return json.Marshal(f.Structured)
	}
	return json.Marshal(f.Text)
}

// UnmarshalJSON accepts a string, an object (values stringified) or null.
func (f *FlexText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = FlexText{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &f.Text)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flex text must be a string or object: %w", err)
	}
	f.Structured = make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			f.Structured[k] = s
			continue
		}
		b, _ := json.Marshal(v)
		f.Structured[k] = string(b)
	}
	return nil
}

// Distinction is a named feature that sets the campaign apart.
type Distinction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Mechanic is a campaign-specific rule.
type Mechanic struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Rules       string `json:"rules,omitempty"`
}

// ConnectionQA is a character-connection question and its answer.
type ConnectionQA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// WorldFact is a fact about the setting contributed during session zero.
type WorldFact struct {
	Fact        string `json:"fact"`
	Contributor string `json:"contributor,omitempty"`
}

// PlayerLocation is a place a player introduced during session zero.
type PlayerLocation struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MentionedBy string `json:"mentionedBy,omitempty"`
}

// SafetyTools lists the table's agreed safety tools.
type SafetyTools struct {
	Lines []string `json:"lines,omitempty"`
	Veils []string `json:"veils,omitempty"`
	Tools []string `json:"tools,omitempty"`
}

// SessionZero is the structured output of the session-zero step.
type SessionZero struct {
	SafetyTools          SafetyTools      `json:"safetyTools,omitzero"`
	CharacterConnections []ConnectionQA   `json:"characterConnections,omitempty"`
	WorldFacts           []WorldFact      `json:"worldFacts,omitempty"`
	PlayerLocations      []PlayerLocation `json:"playerLocations,omitempty"`
	Questions            []string         `json:"questions,omitempty"`
}

// CampaignFrame is the questionnaire output describing a campaign's premise.
// Unset fields are omitted when encoded.
type CampaignFrame struct {
	Pitch             string        `json:"pitch,omitempty"`
	ToneAndFeel       []string      `json:"toneAndFeel,omitempty"`
	Themes            []string      `json:"themes,omitempty"`
	Touchstones       []string      `json:"touchstones,omitempty"`
	Overview          string        `json:"overview,omitempty"`
	Communities       FlexText      `json:"communities,omitzero"`
	Ancestries        FlexText      `json:"ancestries,omitzero"`
	Classes           FlexText      `json:"classes,omitzero"`
	PlayerPrinciples  []string      `json:"playerPrinciples,omitempty"`
	GMPrinciples      []string      `json:"gmPrinciples,omitempty"`
	Distinctions      []Distinction `json:"distinctions,omitempty"`
	IncitingIncident  string        `json:"incitingIncident,omitempty"`
	StartingQuests    []Quest       `json:"startingQuests,omitempty"`
	CampaignMechanics []Mechanic    `json:"campaignMechanics,omitempty"`
	SessionZero       *SessionZero  `json:"sessionZero,omitempty"`
}

// fieldPtr returns a pointer to the storage for field.
func (c *CampaignFrame) fieldPtr(field Field) (any, error) {
	switch field {
	case FieldPitch:
		return &c.Pitch, nil
	case FieldToneAndFeel:
		return &c.ToneAndFeel, nil
	case FieldThemes:
		return &c.Themes, nil
	case FieldTouchstones:
		return &c.Touchstones, nil
	case FieldOverview:
		return &c.Overview, nil
	case FieldCommunities:
		return &c.Communities, nil
	case FieldAncestries:
		return &c.Ancestries, nil
	case FieldClasses:
		return &c.Classes, nil
	case FieldPlayerPrinciples:
		return &c.PlayerPrinciples, nil
	case FieldGMPrinciples:
		return &c.GMPrinciples, nil
	case FieldDistinctions:
		return &c.Distinctions, nil
	case FieldIncitingIncident:
		return &c.IncitingIncident, nil
	case FieldStartingQuests:
		return &c.StartingQuests, nil
	case FieldCampaignMechanics:
		return &c.CampaignMechanics, nil
	case FieldSessionZero:
		return &c.SessionZero, nil
	}
	return nil, fmt.Errorf("unknown frame field %q", field)
}

// Get returns the current value of field.
func (c *CampaignFrame) Get(field Field) (any, error) {
	ptr, err := c.fieldPtr(field)
	if err != nil {
		return nil, err
	}
	switch p := ptr.(type) {
	case *string:
		return *p, nil
	case *[]string:
		return *p, nil
	case *FlexText:
		return *p, nil
	case *[]Distinction:
		return *p, nil
	case *[]Quest:
		return *p, nil
	case *[]Mechanic:
		return *p, nil
	case **SessionZero:
		return *p, nil
	}
	return nil, fmt.Errorf("unsupported field %q", field)
}

// Set replaces the value of field. value may be the field's Go type or any
// JSON-compatible value of the same shape (e.g. decoded request bodies).
func (c *CampaignFrame) Set(field Field, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", field, err)
	}
	// Decode into a copy so a rejected value leaves c untouched.
	next := *c
	ptr, err := next.fieldPtr(field)
	if err != nil {
		return err
	}
	// Reset first so a null value clears the field.
	switch p := ptr.(type) {
	case *string:
		*p = ""
	case *[]string:
		*p = nil
	case *FlexText:
		*p = FlexText{}
	case *[]Distinction:
		*p = nil
	case *[]Quest:
		*p = nil
	case *[]Mechanic:
		*p = nil
	case **SessionZero:
		*p = nil
	}
	if err := json.Unmarshal(raw, ptr); err != nil {
		return fmt.Errorf("decode %s: %w", field, err)
	}
	*c = next
	return nil
}

// Compact returns the set fields keyed by field name. Unset fields are absent
// rather than present with a null value, which the draft store requires.
func (c CampaignFrame) Compact() (map[string]any, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	for k, v := range fields {
		if v == nil {
			delete(fields, k)
		}
	}
	return fields, nil
}

// FrameFromFields decodes a Compact map back into a CampaignFrame.
func FrameFromFields(fields map[string]any) (CampaignFrame, error) {
	var frame CampaignFrame
	if len(fields) == 0 {
		return frame, nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return frame, fmt.Errorf("encode fields: %w", err)
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		return frame, fmt.Errorf("decode fields: %w", err)
	}
	return frame, nil
}

// FrameTemplate is a prebuilt frame used to seed the wizard.
type FrameTemplate struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description"`
	Frame       CampaignFrame `json:"frame" yaml:"-"`
}
