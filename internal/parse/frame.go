package parse

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/hyperengineering/tablekeep/internal/types"
	"github.com/tidwall/gjson"
)

var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

// FrameField converts a suggestion for a campaign-frame field into a value of
// the field's shape, ready for CampaignFrame.Set. Unusable input yields the
// field's empty value.
func FrameField(field types.Field, raw string) any {
	switch field {
	case types.FieldToneAndFeel, types.FieldThemes, types.FieldTouchstones,
		types.FieldPlayerPrinciples, types.FieldGMPrinciples:
		return stringList(raw)
	case types.FieldDistinctions:
		var out []types.Distinction
		if decodeArray(raw, &out) {
			return out
		}
		for _, line := range stringList(raw) {
			name, desc := splitNameDescription(line)
			out = append(out, types.Distinction{Name: name, Description: desc})
		}
		return out
	case types.FieldStartingQuests:
		var out []types.Quest
		if decodeArray(raw, &out) {
			return out
		}
		for _, line := range stringList(raw) {
			title, desc := splitNameDescription(line)
			out = append(out, types.Quest{Title: title, Description: desc})
		}
		return out
	case types.FieldCampaignMechanics:
		var out []types.Mechanic
		if decodeArray(raw, &out) {
			return out
		}
		for _, line := range stringList(raw) {
			name, desc := splitNameDescription(line)
			out = append(out, types.Mechanic{Name: name, Description: desc})
		}
		return out
	case types.FieldSessionZero:
		var sz types.SessionZero
		if obj, ok := findObject(raw); ok {
			_ = json.Unmarshal([]byte(obj.Raw), &sz)
		}
		return &sz
	case types.FieldCommunities, types.FieldAncestries, types.FieldClasses:
		if obj, ok := findObject(raw); ok {
			structured := map[string]string{}
			obj.ForEach(func(k, v gjson.Result) bool {
				structured[k.String()] = strings.TrimSpace(v.String())
				return true
			})
			if len(structured) > 1 {
				return types.StructuredText(structured)
			}
		}
	}
	return prose(raw)
}

// prose strips fences, a JSON string wrapper or a single-field object.
func prose(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if gjson.Valid(s) {
		r := gjson.Parse(s)
		switch {
		case r.Type == gjson.String:
			return strings.TrimSpace(r.String())
		case r.IsObject():
			var only string
			count := 0
			r.ForEach(func(_, v gjson.Result) bool {
				count++
				only = v.String()
				return true
			})
			if count == 1 {
				return strings.TrimSpace(only)
			}
		}
	}
	return cleanValue(s)
}

// stringList accepts a JSON array, an object wrapping one array, or bullet lines.
func stringList(raw string) []string {
	s := strings.TrimSpace(raw)
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if gjson.Valid(s) {
		r := gjson.Parse(s)
		if r.IsObject() {
			r.ForEach(func(_, v gjson.Result) bool {
				if v.IsArray() {
					r = v
					return false
				}
				return true
			})
		}
		if r.IsArray() {
			return toStrings(r)
		}
	}

	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = cleanValue(bulletPrefix.ReplaceAllString(line, ""))
		if line != "" {
			out = append(out, line)
		}
	}
	if len(out) == 1 {
		return splitList(out[0])
	}
	return out
}

func decodeArray(raw string, v any) bool {
	s := strings.TrimSpace(raw)
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if !gjson.Valid(s) {
		return false
	}
	r := gjson.Parse(s)
	if r.IsObject() {
		r.ForEach(func(_, val gjson.Result) bool {
			if val.IsArray() {
				r = val
				return false
			}
			return true
		})
	}
	if !r.IsArray() || len(r.Array()) == 0 || !r.Array()[0].IsObject() {
		return false
	}
	return json.Unmarshal([]byte(r.Raw), v) == nil
}

func splitNameDescription(line string) (string, string) {
	for _, sep := range []string{": ", " - ", " — "} {
		if name, desc, ok := strings.Cut(line, sep); ok {
			return strings.TrimSpace(name), strings.TrimSpace(desc)
		}
	}
	return line, ""
}
