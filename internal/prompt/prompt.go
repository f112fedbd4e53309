// Package prompt builds per-category generation requests from campaign context.
package prompt

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/hyperengineering/tablekeep/internal/generation"
	"github.com/hyperengineering/tablekeep/internal/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const systemPrompt = "You are an experienced tabletop role-playing game designer helping a game master build a campaign. " +
	"Stay consistent with the campaign details you are given. When asked for JSON, reply with JSON only."

// DefaultPartyLevel is used for encounters when the caller does not specify one.
const DefaultPartyLevel = 1

// Context is everything a prompt may draw on.
type Context struct {
	Campaign types.Campaign
	Frame    types.CampaignFrame
	// Existing holds display names of content already created in the category.
	Existing []string
	// Requirements is free-form text from the game master.
	Requirements string
}

// Builder renders the embedded prompt templates.
type Builder struct {
	tmpl *template.Template
}

// NewBuilder parses the embedded templates.
func NewBuilder() (*Builder, error) {
	tmpl, err := template.New("prompts").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse prompt templates: %w", err)
	}
	return &Builder{tmpl: tmpl}, nil
}

// MustNewBuilder is NewBuilder for package-level initialization.
func MustNewBuilder() *Builder {
	b, err := NewBuilder()
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) render(name string, data any) (string, error) {
	var sb strings.Builder
	if err := b.tmpl.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

func (b *Builder) request(name string, data any, maxTokens int64) (generation.Request, error) {
	user, err := b.render(name, data)
	if err != nil {
		return generation.Request{}, err
	}
	return generation.Request{System: systemPrompt, User: user, MaxTokens: maxTokens}, nil
}

// NPC builds the request for one NPC.
func (b *Builder) NPC(c Context) (generation.Request, error) {
	return b.request("npc.tmpl", c, 0)
}

// Location builds the request for one location.
func (b *Builder) Location(c Context) (generation.Request, error) {
	return b.request("location.tmpl", c, 0)
}

// Lore builds the request for one lore entry.
func (b *Builder) Lore(c Context) (generation.Request, error) {
	return b.request("lore.tmpl", c, 0)
}

// Encounter builds the request for one encounter at partyLevel.
func (b *Builder) Encounter(c Context, partyLevel int) (generation.Request, error) {
	if partyLevel < 1 {
		partyLevel = DefaultPartyLevel
	}
	return b.request("encounter.tmpl", struct {
		Context
		PartyLevel int
	}{c, partyLevel}, 0)
}

// Map builds the request for a map description of mapType, asking for the
// named locations to be placed on it.
func (b *Builder) Map(c Context, mapType types.MapType, locations []string) (generation.Request, error) {
	if !types.Contains(types.MapTypes, string(mapType)) {
		mapType = types.MapWorld
	}
	return b.request("map.tmpl", struct {
		Context
		MapType   types.MapType
		Locations []string
	}{c, mapType, locations}, 0)
}

// MapImage builds the image prompt for a parsed map. genre selects the art style.
func (b *Builder) MapImage(m types.Map, frame types.CampaignFrame, genre string) (string, error) {
	style := "hand-drawn parchment cartography"
	if genre == "scifi" {
		style = "holographic star-chart schematic"
	}
	return b.render("map_image.tmpl", struct {
		Map   types.Map
		Tone  []string
		Style string
	}{m, frame.ToneAndFeel, style})
}

// FrameField builds the request for a suggestion for one frame field.
func (b *Builder) FrameField(c Context, field types.Field) (generation.Request, error) {
	g, ok := fieldGuidance[field]
	if !ok {
		return generation.Request{}, fmt.Errorf("unknown frame field %q", field)
	}
	return b.request("frame_field.tmpl", struct {
		Context
		Label    string
		Guidance string
	}{c, g.label, g.guidance}, 0)
}

// For builds the request for a content category. Maps are world maps.
func (b *Builder) For(category types.Category, c Context) (generation.Request, error) {
	switch category {
	case types.CategoryNPC:
		return b.NPC(c)
	case types.CategoryLocation:
		return b.Location(c)
	case types.CategoryLore:
		return b.Lore(c)
	case types.CategoryEncounter:
		return b.Encounter(c, DefaultPartyLevel)
	case types.CategoryMap:
		return b.Map(c, types.MapWorld, nil)
	}
	return generation.Request{}, fmt.Errorf("unknown category %q", category)
}

type guidance struct {
	label    string
	guidance string
}

const (
	proseReply = "Reply with the text only, no heading."
	listReply  = "Reply with a JSON array of short strings."
	pairReply  = `Reply with a JSON array of objects with "name" and "description".`
)

var fieldGuidance = map[types.Field]guidance{
	types.FieldPitch:             {"Pitch", "Write a two or three sentence elevator pitch. " + proseReply},
	types.FieldToneAndFeel:       {"Tone and Feel", "List four to six adjectives for the tone. " + listReply},
	types.FieldThemes:            {"Themes", "List three to five central themes. " + listReply},
	types.FieldTouchstones:       {"Touchstones", "List books, films or games with a similar feel. " + listReply},
	types.FieldOverview:          {"Overview", "Write a paragraph describing the setting and its history. " + proseReply},
	types.FieldCommunities:       {"Communities", "Describe the communities player characters may come from. " + proseReply},
	types.FieldAncestries:        {"Ancestries", "Describe how the ancestries fit this setting. " + proseReply},
	types.FieldClasses:           {"Classes", "Describe how the classes fit this setting. " + proseReply},
	types.FieldPlayerPrinciples:  {"Player Principles", "List principles for players. " + listReply},
	types.FieldGMPrinciples:      {"GM Principles", "List principles for the game master. " + listReply},
	types.FieldDistinctions:      {"Distinctions", "List three features that set this setting apart. " + pairReply},
	types.FieldIncitingIncident:  {"Inciting Incident", "Describe the event that kicks off the campaign. " + proseReply},
	types.FieldStartingQuests:    {"Starting Quests", `Suggest three starting quests. Reply with a JSON array of objects with "title", "description" and "hook".`},
	types.FieldCampaignMechanics: {"Campaign Mechanics", `Suggest two campaign-specific mechanics. Reply with a JSON array of objects with "name", "description" and "rules".`},
	types.FieldSessionZero:       {"Session Zero", `Suggest session zero questions and safety tools. Reply with a JSON object with "questions" (array of strings) and "safetyTools" ({"lines": [], "veils": [], "tools": []}).`},
}
