// Package parse turns raw generation output into normalized content records.
// Parsing never fails: unrecoverable input yields category defaults.
package parse

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)```")
	fieldLine   = regexp.MustCompile(`(?m)^[\s>*#\-]*\**([A-Za-z][A-Za-z0-9 _'/-]{0,40}?)\**\s*:\s*(.+?)\s*$`)
)

// fieldSet holds the fields recovered from one response, keyed by
// normalized name. Exactly one of doc and lines is populated.
type fieldSet struct {
	doc   map[string]gjson.Result
	lines map[string]string
	hits  int
}

// extract runs the three parse paths in order: fenced structured block, whole
// document, then Field: value lines.
func extract(raw string) *fieldSet {
	if obj, ok := findObject(raw); ok {
		fs := &fieldSet{doc: make(map[string]gjson.Result)}
		obj.ForEach(func(key, value gjson.Result) bool {
			k := normalizeKey(key.String())
			if _, seen := fs.doc[k]; !seen {
				fs.doc[k] = value
			}
			return true
		})
		return fs
	}

	fs := &fieldSet{lines: make(map[string]string)}
	for _, m := range fieldLine.FindAllStringSubmatch(raw, -1) {
		k := normalizeKey(m[1])
		v := cleanValue(m[2])
		if k == "" || v == "" {
			continue
		}
		if _, seen := fs.lines[k]; !seen {
			fs.lines[k] = v
		}
	}
	return fs
}

// findObject locates a JSON object in raw. Arrays yield their first element and
// a single-key wrapper object ({"npc": {...}}) is unwrapped once.
func findObject(raw string) (gjson.Result, bool) {
	var candidates []string
	for _, m := range fencedBlock.FindAllStringSubmatch(raw, -1) {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	trimmed := strings.TrimSpace(raw)
	candidates = append(candidates, trimmed)
	if i, j := strings.Index(trimmed, "{"), strings.LastIndex(trimmed, "}"); i >= 0 && j > i {
		candidates = append(candidates, trimmed[i:j+1])
	}

	for _, c := range candidates {
		if c == "" || !gjson.Valid(c) {
			continue
		}
		r := gjson.Parse(c)
		if r.IsArray() {
			r = r.Get("0")
		}
		if !r.IsObject() {
			continue
		}
		return unwrap(r), true
	}
	return gjson.Result{}, false
}

func unwrap(r gjson.Result) gjson.Result {
	var only gjson.Result
	count := 0
	r.ForEach(func(_, value gjson.Result) bool {
		count++
		only = value
		return count < 2
	})
	if count == 1 && only.IsObject() {
		return only
	}
	return r
}

// normalizeKey lowercases and strips everything but letters and digits, so
// "Notable Features", "notable_features" and "notableFeatures" collide.
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_`")
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

func (f *fieldSet) lookup(keys []string) (gjson.Result, string, bool) {
	for _, k := range keys {
		k = normalizeKey(k)
		if f.doc != nil {
			if v, ok := f.doc[k]; ok && v.Exists() && v.Type != gjson.Null {
				return v, "", true
			}
			continue
		}
		if v, ok := f.lines[k]; ok {
			return gjson.Result{}, v, true
		}
	}
	return gjson.Result{}, "", false
}

// str returns the first non-empty value among keys.
func (f *fieldSet) str(keys ...string) string {
	doc, line, ok := f.lookup(keys)
	if !ok {
		return ""
	}
	var s string
	if f.doc != nil {
		if doc.IsArray() {
			s = strings.Join(toStrings(doc), ", ")
		} else if doc.IsObject() {
			s = doc.Raw
		} else {
			s = strings.TrimSpace(doc.String())
		}
	} else {
		s = line
	}
	if s != "" {
		f.hits++
	}
	return s
}

// list returns a string list. Scalar values are split on commas and semicolons.
func (f *fieldSet) list(keys ...string) []string {
	doc, line, ok := f.lookup(keys)
	if !ok {
		return nil
	}
	var out []string
	if f.doc != nil {
		if doc.IsArray() {
			out = toStrings(doc)
		} else {
			out = splitList(doc.String())
		}
	} else {
		out = splitList(line)
	}
	if len(out) > 0 {
		f.hits++
	}
	return out
}

// integer returns the first integer found among keys.
func (f *fieldSet) integer(keys ...string) (int, bool) {
	doc, line, ok := f.lookup(keys)
	if !ok {
		return 0, false
	}
	if f.doc != nil && doc.Type == gjson.Number {
		f.hits++
		return int(doc.Int()), true
	}
	s := line
	if f.doc != nil {
		s = doc.String()
	}
	digits := leadingInt.FindString(s)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	f.hits++
	return n, true
}

// array returns the raw JSON array under keys, if the structured path was used.
func (f *fieldSet) array(keys ...string) []gjson.Result {
	if f.doc == nil {
		return nil
	}
	doc, _, ok := f.lookup(keys)
	if !ok || !doc.IsArray() {
		return nil
	}
	return doc.Array()
}

var leadingInt = regexp.MustCompile(`\d+`)

func toStrings(arr gjson.Result) []string {
	var out []string
	for _, item := range arr.Array() {
		var s string
		switch {
		case item.IsObject():
			s = objectSummary(item)
		default:
			s = strings.TrimSpace(item.String())
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// objectSummary renders {"name": "...", "description": "..."} style items as
// "name: description" so lists of objects degrade to readable strings.
func objectSummary(obj gjson.Result) string {
	name := firstString(obj, "name", "title", "location")
	desc := firstString(obj, "description", "details", "position")
	switch {
	case name != "" && desc != "":
		return name + ": " + desc
	case name != "":
		return name
	case desc != "":
		return desc
	}
	return obj.Raw
}

func firstString(obj gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := obj.Get(k); v.Exists() && v.String() != "" {
			return strings.TrimSpace(v.String())
		}
	}
	return ""
}

func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	var out []string
	for _, p := range parts {
		p = cleanValue(strings.TrimLeft(strings.TrimSpace(p), "-*• "))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// coerce returns value if it is one of allowed (case-insensitive), else def.
func coerce(value string, allowed []string, def string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if v == a {
			return a
		}
	}
	return def
}
