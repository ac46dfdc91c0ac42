// Package jsonx decodes JSON produced by language models. Model output is
// untrusted text: it may wrap the object in prose or emit slightly broken
// JSON, so decoding tries progressively more forgiving strategies before
// giving up.
package jsonx

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var ErrNoJSON = errors.New("jsonx: no json object found")

// Decode unmarshals raw into v. It first tries a strict parse, then the
// substring between the first '{' and last '}', then a repaired version of
// that substring. It never panics; callers fall back to defaults on error.
func Decode(raw string, v any) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ErrNoJSON
	}

	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return ErrNoJSON
	}
	candidate := trimmed[start : end+1]

	if err := json.Unmarshal([]byte(candidate), v); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return ErrNoJSON
	}
	return json.Unmarshal([]byte(repaired), v)
}
