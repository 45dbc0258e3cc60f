package xjson

import (
	stdjson "encoding/json"
	"strings"

	gjson "github.com/goccy/go-json"
)

// Marshal/Unmarshal wrappers to allow a single import site to switch
// between standard encoding/json and goccy/go-json without touching callers.

func Marshal(v interface{}) ([]byte, error) {
	return gjson.Marshal(v)
}

func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gjson.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v interface{}) error {
	return gjson.Unmarshal(data, v)
}

// RawMessage is kept compatible with encoding/json's RawMessage type.
type RawMessage = stdjson.RawMessage

// Extract returns the substring between the first '{' and the last '}' of
// text, with markdown code fences stripped first. It reports false when no
// such substring exists or when it is not valid JSON.
//
// This is a heuristic, not a parser: it assumes at most one structured
// payload per answer and no unbalanced braces ahead of it. Unrelated braces
// before the real payload can widen the slice and break the parse; callers
// must tolerate an empty result.
func Extract(text string) (string, bool) {
	text = stripFences(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}

	candidate := text[start : end+1]
	if !gjson.Valid([]byte(candidate)) {
		return "", false
	}
	return candidate, true
}

// ExtractObject parses the payload found by Extract into a generic mapping.
// It reports false on any parse problem and never returns an error.
func ExtractObject(text string) (map[string]interface{}, bool) {
	candidate, ok := Extract(text)
	if !ok {
		return nil, false
	}

	var obj map[string]interface{}
	if err := gjson.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// FirstKey returns the first key of the JSON object embedded in text, in
// document order. Maps lose ordering, so this walks the token stream of the
// standard decoder instead.
func FirstKey(text string) (string, bool) {
	candidate, ok := Extract(text)
	if !ok {
		return "", false
	}

	dec := stdjson.NewDecoder(strings.NewReader(candidate))
	tok, err := dec.Token()
	if err != nil {
		return "", false
	}
	if delim, isDelim := tok.(stdjson.Delim); !isDelim || delim != '{' {
		return "", false
	}

	tok, err = dec.Token()
	if err != nil {
		return "", false
	}
	key, isString := tok.(string)
	return key, isString
}

func stripFences(text string) string {
	if i := strings.Index(text, "```json"); i != -1 {
		text = text[i+len("```json"):]
		if j := strings.Index(text, "```"); j != -1 {
			text = text[:j]
		}
	} else if i := strings.Index(text, "```"); i != -1 {
		rest := text[i+3:]
		if j := strings.Index(rest, "```"); j != -1 {
			text = rest[:j]
		}
	}
	return text
}
