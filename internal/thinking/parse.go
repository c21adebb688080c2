// Package thinking implements the self-evaluation cycle: scoring a
// capability's result, proposing improvement instructions, and routing among
// sub-behaviors. Model responses are parsed at a strict boundary — a
// malformed response is a hard failure, never a fabricated default score.
package thinking

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnparsable indicates a model response that could not be parsed into the
// expected structure.
var ErrUnparsable = errors.New("unparsable model response")

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractJSON pulls a JSON object out of a model response: a fenced
// ```json``` block when present, otherwise the first balanced top-level
// object.
func ExtractJSON(raw string) (string, error) {
	if m := fencedJSONRe.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}

	start := strings.Index(raw, "{")
	if start < 0 {
		return "", fmt.Errorf("%w: no JSON object found", ErrUnparsable)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return raw[start : i+1], nil
				}
			}
		}
	}
	return "", fmt.Errorf("%w: unbalanced JSON object", ErrUnparsable)
}

// ParseJSON extracts and unmarshals a JSON object from a model response.
func ParseJSON[T any](raw string) (*T, error) {
	text, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	return &out, nil
}
