// Package pipeline holds the pure steps of work-order ingestion: key extraction,
// deduplication, transformation into WorkOrder and status aggregation.
// Nothing here performs I/O.
package pipeline

import (
	"encoding/json"
	"strconv"
	"strings"
)

// lookup walks a dotted path through nested JSON objects.
func lookup(doc map[string]any, path string) (any, bool) {
	var current any = doc
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

// scalarString приводит строку или число к строке, остальное считается отсутствующим.
func scalarString(value any) (string, bool) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func firstString(doc map[string]any, paths ...string) string {
	for _, path := range paths {
		if value, ok := lookup(doc, path); ok {
			if s, ok := scalarString(value); ok {
				return s
			}
		}
	}
	return ""
}
