package normalize

import (
	"fmt"
	"strconv"
)

// Helpers over values produced by decoding JSON into any.

func field(doc any, key string) (any, bool) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj[key]
	return v, ok
}

// truthy follows JSON-document conventions: absent, null, false, 0 and ""
// are falsy; every object and list, even empty, is truthy.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

func truthyField(doc any, key string) bool {
	v, ok := field(doc, key)
	return ok && truthy(v)
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

// stringField returns the field if it is a non-empty string.
func stringField(doc any, key string) (string, bool) {
	v, _ := field(doc, key)
	s, ok := v.(string)
	return s, ok && s != ""
}

// scalarString renders a JSON scalar the way it reads in the document.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// options extracts an entry's options. A missing or malformed value yields
// an empty list; null and nested values inside the list are dropped.
func options(entry any) []string {
	raw := list(mustField(entry, "options"))
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := scalarString(item); ok {
			out = append(out, s)
		}
	}
	return out
}

func mustField(doc any, key string) any {
	v, _ := field(doc, key)
	return v
}

func displayString(v any) string {
	if s, ok := scalarString(v); ok {
		return s
	}
	return fmt.Sprint(v)
}
